// SPDX-FileCopyrightText: Copyright 2025 SAP SE or an SAP affiliate company
//
// SPDX-License-Identifier: Apache-2.0

package checks

import (
	"context"
	"fmt"
	"net/netip"
	"slices"

	"github.com/gophercloud/gophercloud/v2/openstack/networking/v2/extensions/layer3/routers"
	"github.com/gophercloud/gophercloud/v2/openstack/networking/v2/ports"

	"github.com/sapcc/l3check/internal/config"
	cErrors "github.com/sapcc/l3check/internal/errors"
)

func ptr[T any](v T) *T {
	return &v
}

func publicNetworkID() string {
	return config.Global.Network.PublicNetwork.String()
}

// checkRouterLifecycle runs the full create/show/list/update cycle against a
// gateway-attached router that starts administratively down.
func checkRouterLifecycle(ctx context.Context, h *Harness) error {
	router, err := h.CreateRouter(ctx, routers.CreateOpts{
		AdminStateUp: ptr(false),
		GatewayInfo:  &routers.GatewayInfo{NetworkID: publicNetworkID()},
	})
	if err != nil {
		return err
	}
	if router.AdminStateUp {
		return fmt.Errorf("%w: router %s created admin_state_up=true, want false",
			cErrors.ErrVerification, router.ID)
	}
	if router.GatewayInfo.NetworkID != publicNetworkID() {
		return fmt.Errorf("%w: router %s gateway network is %q, want %q",
			cErrors.ErrVerification, router.ID, router.GatewayInfo.NetworkID, publicNetworkID())
	}

	shown, err := h.Neutron.GetRouter(ctx, router.ID)
	if err != nil {
		return err
	}
	if shown.Name != router.Name {
		return fmt.Errorf("%w: shown name is %q, want %q",
			cErrors.ErrVerification, shown.Name, router.Name)
	}
	if shown.GatewayInfo.NetworkID != publicNetworkID() {
		return fmt.Errorf("%w: shown gateway network is %q, want %q",
			cErrors.ErrVerification, shown.GatewayInfo.NetworkID, publicNetworkID())
	}

	listed, err := h.Neutron.ListRouters(ctx, routers.ListOpts{})
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(listed, func(r routers.Router) bool { return r.ID == router.ID }) {
		return fmt.Errorf("%w: router %s missing from listing",
			cErrors.ErrVerification, router.ID)
	}

	updatedName := "updated-" + router.Name
	updated, err := h.Neutron.UpdateRouter(ctx, router.ID, routers.UpdateOpts{Name: updatedName})
	if err != nil {
		return err
	}
	if updated.Name != updatedName {
		return fmt.Errorf("%w: update returned name %q, want %q",
			cErrors.ErrVerification, updated.Name, updatedName)
	}

	shown, err = h.Neutron.GetRouter(ctx, router.ID)
	if err != nil {
		return err
	}
	if shown.Name != updatedName {
		return fmt.Errorf("%w: name update did not propagate, shown %q, want %q",
			cErrors.ErrVerification, shown.Name, updatedName)
	}
	return nil
}

// checkRouterProjectScope creates a router inside a scratch keystone project
// and verifies the ownership fields. Needs a project-admin token.
func checkRouterProjectScope(ctx context.Context, h *Harness) error {
	identity, err := h.Identity()
	if err != nil {
		return err
	}

	project, err := identity.CreateProject(ctx, h.RandomName("project"), h.RandomName("desc"))
	if err != nil {
		return Skipf("cannot manage projects with the given credentials: %s", err.Error())
	}
	h.AddCleanup(func(ctx context.Context) error {
		return identity.DeleteProject(ctx, project.ID)
	})

	router, err := h.CreateRouter(ctx, routers.CreateOpts{ProjectID: project.ID})
	if err != nil {
		return err
	}
	if router.ProjectID != project.ID && router.TenantID != project.ID {
		return fmt.Errorf("%w: router %s owned by project %q, want %q",
			cErrors.ErrVerification, router.ID, router.ProjectID, project.ID)
	}
	return nil
}

// checkGatewayDefaultSNAT expects SNAT to default to enabled when a gateway
// is set without an explicit snat mode.
func checkGatewayDefaultSNAT(ctx context.Context, h *Harness) error {
	router, err := h.CreateRouter(ctx, routers.CreateOpts{
		GatewayInfo: &routers.GatewayInfo{NetworkID: publicNetworkID()},
	})
	if err != nil {
		return err
	}

	return h.verifyRouterGateway(ctx, router.ID, &GatewayExpectation{
		NetworkID:  publicNetworkID(),
		EnableSNAT: ptr(true),
	})
}

func checkGatewaySNATExplicit(ctx context.Context, h *Harness) error {
	name := h.RandomName("snat-router")
	for _, enableSNAT := range []bool{false, true} {
		router, err := h.CreateRouter(ctx, routers.CreateOpts{
			Name: name,
			GatewayInfo: &routers.GatewayInfo{
				NetworkID:  publicNetworkID(),
				EnableSNAT: ptr(enableSNAT),
			},
		})
		if err != nil {
			return err
		}

		err = h.verifyRouterGateway(ctx, router.ID, &GatewayExpectation{
			NetworkID:  publicNetworkID(),
			EnableSNAT: ptr(enableSNAT),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func checkInterfaceBySubnet(ctx context.Context, h *Harness) error {
	network, err := h.CreateNetwork(ctx, "")
	if err != nil {
		return err
	}
	subnet, err := h.CreateSubnet(ctx, network.ID)
	if err != nil {
		return err
	}
	router, err := h.CreateRouter(ctx, routers.CreateOpts{})
	if err != nil {
		return err
	}

	iface, err := h.AddRouterInterface(ctx, router.ID, subnet.ID)
	if err != nil {
		return err
	}
	if iface.PortID == "" {
		return fmt.Errorf("%w: interface has no port id", cErrors.ErrVerification)
	}

	return h.verifyRouterInterface(ctx, router.ID, subnet.ID, iface.PortID)
}

func checkInterfaceByPort(ctx context.Context, h *Harness) error {
	network, err := h.CreateNetwork(ctx, "")
	if err != nil {
		return err
	}
	if _, err = h.CreateSubnet(ctx, network.ID); err != nil {
		return err
	}
	router, err := h.CreateRouter(ctx, routers.CreateOpts{})
	if err != nil {
		return err
	}

	port, err := h.CreatePort(ctx, ports.CreateOpts{NetworkID: network.ID})
	if err != nil {
		return err
	}

	iface, err := h.Neutron.AddRouterInterface(ctx, router.ID, routers.AddInterfaceOpts{PortID: port.ID})
	if err != nil {
		return err
	}
	h.AddCleanup(func(ctx context.Context) error {
		_, err := h.Neutron.RemoveRouterInterface(ctx, router.ID,
			routers.RemoveInterfaceOpts{PortID: port.ID})
		return err
	})

	if iface.SubnetID == "" || iface.PortID == "" {
		return fmt.Errorf("%w: interface descriptor incomplete: subnet %q, port %q",
			cErrors.ErrVerification, iface.SubnetID, iface.PortID)
	}

	return h.verifyRouterInterface(ctx, router.ID, iface.SubnetID, iface.PortID)
}

func checkGatewaySet(ctx context.Context, h *Harness) error {
	router, err := h.CreateRouter(ctx, routers.CreateOpts{})
	if err != nil {
		return err
	}

	_, err = h.Neutron.UpdateRouter(ctx, router.ID, routers.UpdateOpts{
		GatewayInfo: &routers.GatewayInfo{NetworkID: publicNetworkID()},
	})
	if err != nil {
		return err
	}

	if err = h.verifyRouterGateway(ctx, router.ID, &GatewayExpectation{
		NetworkID: publicNetworkID(),
	}); err != nil {
		return err
	}
	return h.verifyGatewayPort(ctx, router.ID)
}

func checkGatewaySetSNATExplicit(ctx context.Context, h *Harness) error {
	return setGatewayWithSNAT(ctx, h, true)
}

func checkGatewaySetNoSNAT(ctx context.Context, h *Harness) error {
	return setGatewayWithSNAT(ctx, h, false)
}

func setGatewayWithSNAT(ctx context.Context, h *Harness, enableSNAT bool) error {
	router, err := h.CreateRouter(ctx, routers.CreateOpts{})
	if err != nil {
		return err
	}

	_, err = h.Neutron.UpdateRouter(ctx, router.ID, routers.UpdateOpts{
		GatewayInfo: &routers.GatewayInfo{
			NetworkID:  publicNetworkID(),
			EnableSNAT: ptr(enableSNAT),
		},
	})
	if err != nil {
		return err
	}

	if err = h.verifyRouterGateway(ctx, router.ID, &GatewayExpectation{
		NetworkID:  publicNetworkID(),
		EnableSNAT: ptr(enableSNAT),
	}); err != nil {
		return err
	}
	return h.verifyGatewayPort(ctx, router.ID)
}

// checkGatewayFixedIP pins the gateway to a known free address. The address
// is probed by allocating and releasing a port on the public network first.
func checkGatewayFixedIP(ctx context.Context, h *Harness) error {
	probe, err := h.Neutron.CreatePort(ctx, ports.CreateOpts{NetworkID: publicNetworkID()})
	if err != nil {
		return err
	}
	if err = h.Neutron.DeletePort(ctx, probe.ID); err != nil {
		return err
	}
	if len(probe.FixedIPs) < 1 {
		return fmt.Errorf("%w: probe port %s got no fixed ip",
			cErrors.ErrVerification, probe.ID)
	}

	fixedIP := routers.ExternalFixedIP{
		SubnetID:  probe.FixedIPs[0].SubnetID,
		IPAddress: probe.FixedIPs[0].IPAddress,
	}
	router, err := h.CreateRouter(ctx, routers.CreateOpts{
		GatewayInfo: &routers.GatewayInfo{
			NetworkID:        publicNetworkID(),
			ExternalFixedIPs: []routers.ExternalFixedIP{fixedIP},
		},
	})
	if err != nil {
		return err
	}

	if len(router.GatewayInfo.ExternalFixedIPs) < 1 {
		return fmt.Errorf("%w: router %s reports no external fixed ips",
			cErrors.ErrVerification, router.ID)
	}
	if got := router.GatewayInfo.ExternalFixedIPs[0].IPAddress; got != fixedIP.IPAddress {
		return fmt.Errorf("%w: router %s gateway ip is %s, want %s",
			cErrors.ErrVerification, router.ID, got, fixedIP.IPAddress)
	}
	return nil
}

// checkGatewayUnset clears the gateway and expects both the gateway info and
// the gateway port to be gone.
func checkGatewayUnset(ctx context.Context, h *Harness) error {
	router, err := h.CreateRouter(ctx, routers.CreateOpts{
		GatewayInfo: &routers.GatewayInfo{NetworkID: publicNetworkID()},
	})
	if err != nil {
		return err
	}

	_, err = h.Neutron.UpdateRouter(ctx, router.ID, routers.UpdateOpts{
		GatewayInfo: &routers.GatewayInfo{},
	})
	if err != nil {
		return err
	}

	if err = h.verifyRouterGateway(ctx, router.ID, nil); err != nil {
		return err
	}

	devicePorts, err := h.Neutron.ListDevicePorts(ctx, publicNetworkID(), router.ID)
	if err != nil {
		return err
	}
	if len(devicePorts) != 0 {
		return fmt.Errorf("%w: %d gateway ports remain on router %s after unset",
			cErrors.ErrVerification, len(devicePorts), router.ID)
	}
	return nil
}

// checkGatewayResetNoSNAT flips SNAT off on an existing gateway and expects
// the unspecified gateway fields to retain their prior values.
func checkGatewayResetNoSNAT(ctx context.Context, h *Harness) error {
	router, err := h.CreateRouter(ctx, routers.CreateOpts{
		GatewayInfo: &routers.GatewayInfo{NetworkID: publicNetworkID()},
	})
	if err != nil {
		return err
	}

	_, err = h.Neutron.UpdateRouter(ctx, router.ID, routers.UpdateOpts{
		GatewayInfo: &routers.GatewayInfo{
			NetworkID:  publicNetworkID(),
			EnableSNAT: ptr(false),
		},
	})
	if err != nil {
		return err
	}

	if err = h.verifyRouterGateway(ctx, router.ID, &GatewayExpectation{
		NetworkID:  publicNetworkID(),
		EnableSNAT: ptr(false),
	}); err != nil {
		return err
	}
	return h.verifyGatewayPort(ctx, router.ID)
}

// checkExtraRoutes builds one subnet per route, attaches each to the router
// and verifies the submitted route set end to end, then clears it.
func checkExtraRoutes(ctx context.Context, h *Harness) error {
	router, err := h.CreateRouter(ctx, routers.CreateOpts{AdminStateUp: ptr(true)})
	if err != nil {
		return err
	}
	h.AddCleanup(func(ctx context.Context) error {
		_, err := h.Neutron.UpdateRouter(ctx, router.ID,
			routers.UpdateOpts{Routes: &[]routers.Route{}})
		return err
	})

	if _, err = h.Neutron.WaitForRouterStatus(ctx, router.ID, "ACTIVE"); err != nil {
		return err
	}

	routesNum := config.Global.Network.ExtraRoutes
	testRoutes := make([]routers.Route, 0, routesNum)
	for i := 0; i < routesNum; i++ {
		network, err := h.CreateNetwork(ctx, "")
		if err != nil {
			return err
		}
		subnet, err := h.CreateSubnet(ctx, network.ID)
		if err != nil {
			return err
		}
		if _, err = h.AddRouterInterface(ctx, router.ID, subnet.ID); err != nil {
			return err
		}

		cidr, err := netip.ParsePrefix(subnet.CIDR)
		if err != nil {
			return err
		}
		testRoutes = append(testRoutes, routers.Route{
			DestinationCIDR: subnet.CIDR,
			NextHop:         NthAddress(cidr, 2).String(),
		})
	}

	sortRoutesByDestination(testRoutes)
	updated, err := h.Neutron.UpdateRouter(ctx, router.ID, routers.UpdateOpts{Routes: &testRoutes})
	if err != nil {
		return err
	}
	if err = routesEqual(testRoutes, updated.Routes); err != nil {
		return fmt.Errorf("update response: %w", err)
	}

	shown, err := h.Neutron.GetRouter(ctx, router.ID)
	if err != nil {
		return err
	}
	if err = routesEqual(testRoutes, shown.Routes); err != nil {
		return fmt.Errorf("show after update: %w", err)
	}

	// clearing is an update with an empty route list
	_, err = h.Neutron.UpdateRouter(ctx, router.ID, routers.UpdateOpts{Routes: &[]routers.Route{}})
	if err != nil {
		return err
	}
	shown, err = h.Neutron.GetRouter(ctx, router.ID)
	if err != nil {
		return err
	}
	if len(shown.Routes) != 0 {
		return fmt.Errorf("%w: %d routes remain after clearing",
			cErrors.ErrVerification, len(shown.Routes))
	}
	return nil
}

func checkAdminStateToggle(ctx context.Context, h *Harness) error {
	router, err := h.CreateRouter(ctx, routers.CreateOpts{AdminStateUp: ptr(false)})
	if err != nil {
		return err
	}
	if router.AdminStateUp {
		return fmt.Errorf("%w: router %s created admin_state_up=true, want false",
			cErrors.ErrVerification, router.ID)
	}

	updated, err := h.Neutron.UpdateRouter(ctx, router.ID,
		routers.UpdateOpts{AdminStateUp: ptr(true)})
	if err != nil {
		return err
	}
	if !updated.AdminStateUp {
		return fmt.Errorf("%w: update response has admin_state_up=false, want true",
			cErrors.ErrVerification)
	}

	shown, err := h.Neutron.GetRouter(ctx, router.ID)
	if err != nil {
		return err
	}
	if !shown.AdminStateUp {
		return fmt.Errorf("%w: admin state update did not propagate on router %s",
			cErrors.ErrVerification, router.ID)
	}
	return nil
}

func checkMultipleInterfaces(ctx context.Context, h *Harness) error {
	router, err := h.CreateRouter(ctx, routers.CreateOpts{})
	if err != nil {
		return err
	}

	for i := 0; i < 2; i++ {
		network, err := h.CreateNetwork(ctx, h.RandomName(fmt.Sprintf("router-network%02d", i+1)))
		if err != nil {
			return err
		}
		subnet, err := h.CreateSubnet(ctx, network.ID)
		if err != nil {
			return err
		}

		iface, err := h.AddRouterInterface(ctx, router.ID, subnet.ID)
		if err != nil {
			return err
		}
		if err = h.verifyRouterInterface(ctx, router.ID, subnet.ID, iface.PortID); err != nil {
			return err
		}
	}
	return nil
}

// checkInterfacePortFixedIP re-submits the interface port's fixed ip and
// expects the subnet binding to survive the port update.
func checkInterfacePortFixedIP(ctx context.Context, h *Harness) error {
	network, err := h.CreateNetwork(ctx, "")
	if err != nil {
		return err
	}
	subnet, err := h.CreateSubnet(ctx, network.ID)
	if err != nil {
		return err
	}
	router, err := h.CreateRouter(ctx, routers.CreateOpts{})
	if err != nil {
		return err
	}

	iface, err := h.AddRouterInterface(ctx, router.ID, subnet.ID)
	if err != nil {
		return err
	}

	port, err := h.Neutron.GetPort(ctx, iface.PortID)
	if err != nil {
		return err
	}
	if port.ID != iface.PortID {
		return fmt.Errorf("%w: show port returned %s, want %s",
			cErrors.ErrVerification, port.ID, iface.PortID)
	}

	updated, err := h.Neutron.UpdatePort(ctx, port.ID, ports.UpdateOpts{
		FixedIPs: []ports.IP{{SubnetID: subnet.ID}},
	})
	if err != nil {
		return err
	}
	if len(updated.FixedIPs) < 1 || updated.FixedIPs[0].SubnetID != subnet.ID {
		return fmt.Errorf("%w: port %s lost its binding to subnet %s",
			cErrors.ErrVerification, port.ID, subnet.ID)
	}
	return nil
}
