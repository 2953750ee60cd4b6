// SPDX-FileCopyrightText: Copyright 2025 SAP SE or an SAP affiliate company
//
// SPDX-License-Identifier: Apache-2.0

package checks

import (
	"context"
	"fmt"
	"net/http"
	"net/netip"

	"github.com/google/uuid"
	"github.com/gophercloud/gophercloud/v2"
	"github.com/gophercloud/gophercloud/v2/openstack/networking/v2/extensions/layer3/routers"
	"github.com/gophercloud/gophercloud/v2/openstack/networking/v2/networks"
	"github.com/gophercloud/gophercloud/v2/openstack/networking/v2/ports"
	"github.com/gophercloud/gophercloud/v2/openstack/networking/v2/subnets"
	log "github.com/sirupsen/logrus"

	"github.com/sapcc/l3check/internal/config"
	cErrors "github.com/sapcc/l3check/internal/errors"
	"github.com/sapcc/l3check/internal/neutron"
)

// Harness carries the per-check state: the service clients, the tenant CIDR
// cursor and the cleanup stack. Every resource a check creates registers its
// own deletion, run in reverse order at teardown regardless of the outcome.
type Harness struct {
	Neutron   *neutron.NeutronClient
	IPVersion int

	identity *neutron.IdentityClient
	cidr     netip.Prefix
	cleanups []func(ctx context.Context) error
}

func NewHarness(client *neutron.NeutronClient, ipVersion int) (*Harness, error) {
	tenantCIDR := config.Global.Network.ProjectNetworkCIDR
	if ipVersion == 6 {
		tenantCIDR = config.Global.Network.ProjectNetworkV6CIDR
	}

	prefix, err := netip.ParsePrefix(tenantCIDR)
	if err != nil {
		return nil, fmt.Errorf("%w: project network cidr: %s", cErrors.ErrMissingConfig, err.Error())
	}

	return &Harness{
		Neutron:   client,
		IPVersion: ipVersion,
		cidr:      prefix,
	}, nil
}

// Identity connects to keystone on first use.
func (h *Harness) Identity() (*neutron.IdentityClient, error) {
	if h.identity == nil {
		identity, err := h.Neutron.ConnectToKeystone()
		if err != nil {
			return nil, err
		}
		h.identity = identity
	}
	return h.identity, nil
}

// RandomName returns a prefixed resource name with a random suffix, so
// concurrent suite runs against the same project never collide.
func (h *Harness) RandomName(kind string) string {
	return fmt.Sprintf("%s%s-%s", config.Global.Network.NamePrefix, kind, uuid.NewString()[:8])
}

// NextTenantCIDR hands out sequential non-overlapping blocks from the
// configured project network CIDR.
func (h *Harness) NextTenantCIDR() (netip.Prefix, error) {
	current := h.cidr
	next, err := NextCIDR(current)
	if err != nil {
		return netip.Prefix{}, err
	}
	h.cidr = next
	return current, nil
}

func (h *Harness) AddCleanup(cleanup func(ctx context.Context) error) {
	h.cleanups = append(h.cleanups, cleanup)
}

// Teardown releases all registered resources in reverse order. Errors are
// logged, not returned: a failed cleanup must not mask the check result.
func (h *Harness) Teardown(ctx context.Context) {
	for i := len(h.cleanups) - 1; i >= 0; i-- {
		if err := h.cleanups[i](ctx); err != nil {
			log.WithError(err).Warn("cleanup failed")
		}
	}
	h.cleanups = nil
}

// CreateRouter creates a router and registers its deletion, to bound resource
// usage under quota.
func (h *Harness) CreateRouter(ctx context.Context, opts routers.CreateOpts) (*routers.Router, error) {
	if opts.Name == "" {
		opts.Name = h.RandomName("router")
	}

	router, err := h.Neutron.CreateRouter(ctx, opts)
	if err != nil {
		return nil, err
	}
	h.AddCleanup(func(ctx context.Context) error {
		return h.Neutron.DeleteRouter(ctx, router.ID)
	})
	return router, nil
}

func (h *Harness) CreateNetwork(ctx context.Context, name string) (*networks.Network, error) {
	if name == "" {
		name = h.RandomName("network")
	}

	network, err := h.Neutron.CreateNetwork(ctx, networks.CreateOpts{Name: name})
	if err != nil {
		return nil, err
	}
	h.AddCleanup(func(ctx context.Context) error {
		return h.Neutron.DeleteNetwork(ctx, network.ID)
	})
	return network, nil
}

// CreateSubnet allocates the next tenant CIDR on the given network.
func (h *Harness) CreateSubnet(ctx context.Context, networkID string) (*subnets.Subnet, error) {
	cidr, err := h.NextTenantCIDR()
	if err != nil {
		return nil, err
	}

	subnet, err := h.Neutron.CreateSubnet(ctx, subnets.CreateOpts{
		NetworkID: networkID,
		Name:      h.RandomName("subnet"),
		CIDR:      cidr.String(),
		IPVersion: gophercloud.IPVersion(h.IPVersion),
	})
	if err != nil {
		return nil, err
	}
	h.AddCleanup(func(ctx context.Context) error {
		return h.Neutron.DeleteSubnet(ctx, subnet.ID)
	})
	return subnet, nil
}

// CreatePort creates a port whose deletion tolerates the port already being
// gone, e.g. consumed by a router interface removal.
func (h *Harness) CreatePort(ctx context.Context, opts ports.CreateOpts) (*ports.Port, error) {
	port, err := h.Neutron.CreatePort(ctx, opts)
	if err != nil {
		return nil, err
	}
	h.AddCleanup(func(ctx context.Context) error {
		if err := h.Neutron.DeletePort(ctx, port.ID); err != nil {
			if gophercloud.ResponseCodeIs(err, http.StatusNotFound) {
				return nil
			}
			return err
		}
		return nil
	})
	return port, nil
}

// AddRouterInterface attaches the subnet to the router and registers the
// detachment up front, so failures mid-check still release the interface.
func (h *Harness) AddRouterInterface(ctx context.Context, routerID, subnetID string) (*routers.InterfaceInfo, error) {
	iface, err := h.Neutron.AddRouterInterface(ctx, routerID, routers.AddInterfaceOpts{SubnetID: subnetID})
	if err != nil {
		return nil, err
	}
	h.AddCleanup(func(ctx context.Context) error {
		removed, err := h.Neutron.RemoveRouterInterface(ctx, routerID,
			routers.RemoveInterfaceOpts{SubnetID: subnetID})
		if err != nil {
			return err
		}
		if removed.SubnetID != subnetID {
			return fmt.Errorf("%w: interface removal returned subnet %s, want %s",
				cErrors.ErrVerification, removed.SubnetID, subnetID)
		}
		return nil
	})

	if iface.SubnetID != subnetID {
		return nil, fmt.Errorf("%w: interface subnet is %s, want %s",
			cErrors.ErrVerification, iface.SubnetID, subnetID)
	}
	return iface, nil
}
