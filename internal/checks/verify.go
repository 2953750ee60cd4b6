// SPDX-FileCopyrightText: Copyright 2025 SAP SE or an SAP affiliate company
//
// SPDX-License-Identifier: Apache-2.0

package checks

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/gophercloud/gophercloud/v2/openstack/networking/v2/extensions/layer3/routers"

	"github.com/sapcc/l3check/internal/config"
	cErrors "github.com/sapcc/l3check/internal/errors"
)

// GatewayExpectation lists the gateway fields a check cares about. Unset
// fields are not compared, matching the partial update semantics of the API.
type GatewayExpectation struct {
	NetworkID  string
	EnableSNAT *bool
}

// verifyRouterGateway re-fetches the router and compares its gateway against
// the expectation. A nil expectation requires the gateway to be absent.
func (h *Harness) verifyRouterGateway(ctx context.Context, routerID string, want *GatewayExpectation) error {
	router, err := h.Neutron.GetRouter(ctx, routerID)
	if err != nil {
		return err
	}

	gateway := router.GatewayInfo
	if want == nil {
		if gateway.NetworkID != "" {
			return fmt.Errorf("%w: router %s still has gateway network %s",
				cErrors.ErrVerification, routerID, gateway.NetworkID)
		}
		return nil
	}

	if want.NetworkID != "" && gateway.NetworkID != want.NetworkID {
		return fmt.Errorf("%w: router %s gateway network is %q, want %q",
			cErrors.ErrVerification, routerID, gateway.NetworkID, want.NetworkID)
	}
	if want.EnableSNAT != nil {
		if gateway.EnableSNAT == nil {
			return fmt.Errorf("%w: router %s reports no enable_snat, want %t",
				cErrors.ErrVerification, routerID, *want.EnableSNAT)
		}
		if *gateway.EnableSNAT != *want.EnableSNAT {
			return fmt.Errorf("%w: router %s enable_snat is %t, want %t",
				cErrors.ErrVerification, routerID, *gateway.EnableSNAT, *want.EnableSNAT)
		}
	}
	return nil
}

// verifyGatewayPort asserts exactly one port exists on the public network
// owned by the router, and that all its fixed IPs come from public subnets.
func (h *Harness) verifyGatewayPort(ctx context.Context, routerID string) error {
	publicNetwork := config.Global.Network.PublicNetwork.String()
	devicePorts, err := h.Neutron.ListDevicePorts(ctx, publicNetwork, routerID)
	if err != nil {
		return err
	}
	if len(devicePorts) != 1 {
		return fmt.Errorf("%w: router %s has %d gateway ports, want 1",
			cErrors.ErrNoGatewayPort, routerID, len(devicePorts))
	}

	gatewayPort := devicePorts[0]
	if len(gatewayPort.FixedIPs) < 1 {
		return fmt.Errorf("%w: gateway port %s has no fixed ips",
			cErrors.ErrVerification, gatewayPort.ID)
	}

	publicSubnets, err := h.Neutron.PublicSubnetIDs(ctx, publicNetwork)
	if err != nil {
		return err
	}
	for _, fixedIP := range gatewayPort.FixedIPs {
		if !slices.Contains(publicSubnets, fixedIP.SubnetID) {
			return fmt.Errorf("%w: gateway ip %s allocated from subnet %s outside the public network",
				cErrors.ErrVerification, fixedIP.IPAddress, fixedIP.SubnetID)
		}
	}
	return nil
}

// verifyRouterInterface asserts the interface port is owned by the router and
// bound to the expected subnet.
func (h *Harness) verifyRouterInterface(ctx context.Context, routerID, subnetID, portID string) error {
	port, err := h.Neutron.GetPort(ctx, portID)
	if err != nil {
		return err
	}

	if port.DeviceID != routerID {
		return fmt.Errorf("%w: port %s belongs to device %q, want router %s",
			cErrors.ErrVerification, portID, port.DeviceID, routerID)
	}
	if len(port.FixedIPs) < 1 || port.FixedIPs[0].SubnetID != subnetID {
		return fmt.Errorf("%w: port %s is not bound to subnet %s",
			cErrors.ErrVerification, portID, subnetID)
	}
	return nil
}

func sortRoutesByDestination(routes []routers.Route) {
	sort.Slice(routes, func(i, j int) bool {
		return routes[i].DestinationCIDR < routes[j].DestinationCIDR
	})
}

// routesEqual compares two route lists order-independently by destination.
// Both sides are sorted in place.
func routesEqual(want, got []routers.Route) error {
	if len(want) != len(got) {
		return fmt.Errorf("%w: %d routes reported, want %d",
			cErrors.ErrVerification, len(got), len(want))
	}

	sortRoutesByDestination(want)
	sortRoutesByDestination(got)
	for i := range want {
		if want[i].DestinationCIDR != got[i].DestinationCIDR || want[i].NextHop != got[i].NextHop {
			return fmt.Errorf("%w: route %d is %s via %s, want %s via %s",
				cErrors.ErrVerification, i, got[i].DestinationCIDR, got[i].NextHop,
				want[i].DestinationCIDR, want[i].NextHop)
		}
	}
	return nil
}
