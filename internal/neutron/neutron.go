// SPDX-FileCopyrightText: Copyright 2025 SAP SE or an SAP affiliate company
//
// SPDX-License-Identifier: Apache-2.0

package neutron

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/gophercloud/gophercloud/v2/openstack"
	"github.com/gophercloud/gophercloud/v2/openstack/common/extensions"
	"github.com/gophercloud/gophercloud/v2/openstack/networking/v2/extensions/external"
	"github.com/gophercloud/gophercloud/v2/openstack/networking/v2/extensions/layer3/routers"
	"github.com/gophercloud/gophercloud/v2/openstack/networking/v2/networks"
	"github.com/gophercloud/gophercloud/v2/openstack/networking/v2/ports"
	"github.com/gophercloud/gophercloud/v2/openstack/networking/v2/subnets"
	osclient "github.com/gophercloud/utils/v2/client"
	"github.com/gophercloud/utils/v2/openstack/clientconfig"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sethvargo/go-retry"
	log "github.com/sirupsen/logrus"

	"github.com/sapcc/l3check/internal/config"
	cErrors "github.com/sapcc/l3check/internal/errors"
)

// NetworkExternal is a network decorated with the external-net extension,
// needed to tell gateway-capable networks apart.
type NetworkExternal struct {
	networks.Network
	external.NetworkExternalExt
}

type NeutronClient struct {
	*gophercloud.ServiceClient
	provider     *gophercloud.ProviderClient
	networkCache *expirable.LRU[string, *NetworkExternal] // networkID -> *network, expires after 10 mins
	subnetCache  *expirable.LRU[string, *subnets.Subnet]  // subnetID -> *subnet, expires after 10 mins
	extensions   map[string]struct{}                      // alias set, loaded on first use
}

func (n *NeutronClient) InitCache() {
	n.networkCache = expirable.NewLRU[string, *NetworkExternal](32, nil, time.Minute*10)
	n.subnetCache = expirable.NewLRU[string, *subnets.Subnet](32, nil, time.Minute*10)
}

func (n *NeutronClient) ResetCache() {
	n.networkCache.Purge()
	n.subnetCache.Purge()
	n.extensions = nil
}

// ConnectToNeutron authenticates via the service_auth settings and returns a
// ready networking client.
func ConnectToNeutron(ctx context.Context) (*NeutronClient, error) {
	authInfo := clientconfig.AuthInfo(config.Global.ServiceAuth)
	// Allow automatically reauthenticate, scheduled runs outlive the token
	authInfo.AllowReauth = true

	providerClient, err := clientconfig.AuthenticatedClient(ctx, &clientconfig.ClientOpts{
		AuthInfo: &authInfo})
	if err != nil {
		return nil, err
	}

	if config.IsDebug() {
		providerClient.HTTPClient = http.Client{
			Transport: &osclient.RoundTripper{
				Rt:     &http.Transport{},
				Logger: &osclient.DefaultLogger{},
			},
		}
	}

	serviceClient, err := openstack.NewNetworkV2(providerClient, gophercloud.EndpointOpts{})
	if err != nil {
		return nil, err
	}

	// Set timeout to 30 secs
	serviceClient.HTTPClient.Timeout = time.Second * 30

	n := &NeutronClient{ServiceClient: serviceClient, provider: providerClient}
	n.InitCache()
	return n, nil
}

// HasExtension reports whether the backend advertises the given extension
// alias. The extension list is fetched once per client.
func (n *NeutronClient) HasExtension(ctx context.Context, alias string) (bool, error) {
	if n.extensions == nil {
		pages, err := extensions.List(n.ServiceClient).AllPages(ctx)
		if err != nil {
			return false, err
		}
		exts, err := extensions.ExtractExtensions(pages)
		if err != nil {
			return false, err
		}

		n.extensions = make(map[string]struct{}, len(exts))
		for _, ext := range exts {
			n.extensions[ext.Alias] = struct{}{}
		}
	}

	_, ok := n.extensions[alias]
	return ok, nil
}

func (n *NeutronClient) CreateRouter(ctx context.Context, opts routers.CreateOpts) (*routers.Router, error) {
	router, err := routers.Create(ctx, n.ServiceClient, opts).Extract()
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"id":   router.ID,
		"name": router.Name,
	}).Debug("created router")
	return router, nil
}

func (n *NeutronClient) GetRouter(ctx context.Context, routerID string) (*routers.Router, error) {
	return routers.Get(ctx, n.ServiceClient, routerID).Extract()
}

func (n *NeutronClient) ListRouters(ctx context.Context, opts routers.ListOpts) ([]routers.Router, error) {
	pages, err := routers.List(n.ServiceClient, opts).AllPages(ctx)
	if err != nil {
		return nil, err
	}
	return routers.ExtractRouters(pages)
}

func (n *NeutronClient) UpdateRouter(ctx context.Context, routerID string, opts routers.UpdateOpts) (*routers.Router, error) {
	return routers.Update(ctx, n.ServiceClient, routerID, opts).Extract()
}

func (n *NeutronClient) DeleteRouter(ctx context.Context, routerID string) error {
	return routers.Delete(ctx, n.ServiceClient, routerID).ExtractErr()
}

// WaitForRouterStatus polls the router until it reaches the wanted status,
// with a constant 1s backoff capped at 60s.
func (n *NeutronClient) WaitForRouterStatus(ctx context.Context, routerID, status string) (*routers.Router, error) {
	var res *routers.Router
	b := retry.NewConstant(1 * time.Second)
	b = retry.WithMaxDuration(60*time.Second, b)
	if err := retry.Do(ctx, b, func(ctx context.Context) error {
		router, err := routers.Get(ctx, n.ServiceClient, routerID).Extract()
		if err != nil {
			return err
		}

		res = router
		if router.Status != status {
			return retry.RetryableError(fmt.Errorf("%w: router %s is %s, want %s",
				cErrors.ErrNotReady, routerID, router.Status, status))
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return res, nil
}

func (n *NeutronClient) AddRouterInterface(ctx context.Context, routerID string, opts routers.AddInterfaceOpts) (*routers.InterfaceInfo, error) {
	return routers.AddInterface(ctx, n.ServiceClient, routerID, opts).Extract()
}

func (n *NeutronClient) RemoveRouterInterface(ctx context.Context, routerID string, opts routers.RemoveInterfaceOpts) (*routers.InterfaceInfo, error) {
	return routers.RemoveInterface(ctx, n.ServiceClient, routerID, opts).Extract()
}

func (n *NeutronClient) CreatePort(ctx context.Context, opts ports.CreateOpts) (*ports.Port, error) {
	return ports.Create(ctx, n.ServiceClient, opts).Extract()
}

func (n *NeutronClient) GetPort(ctx context.Context, portID string) (*ports.Port, error) {
	return ports.Get(ctx, n.ServiceClient, portID).Extract()
}

func (n *NeutronClient) UpdatePort(ctx context.Context, portID string, opts ports.UpdateOpts) (*ports.Port, error) {
	return ports.Update(ctx, n.ServiceClient, portID, opts).Extract()
}

func (n *NeutronClient) DeletePort(ctx context.Context, portID string) error {
	return ports.Delete(ctx, n.ServiceClient, portID).ExtractErr()
}

// ListDevicePorts returns all ports of the given network owned by the given
// device, e.g. the gateway ports of a router on the external network.
func (n *NeutronClient) ListDevicePorts(ctx context.Context, networkID, deviceID string) ([]ports.Port, error) {
	pages, err := ports.List(n.ServiceClient, ports.ListOpts{
		NetworkID: networkID,
		DeviceID:  deviceID,
	}).AllPages(ctx)
	if err != nil {
		return nil, err
	}
	return ports.ExtractPorts(pages)
}

func (n *NeutronClient) CreateNetwork(ctx context.Context, opts networks.CreateOpts) (*networks.Network, error) {
	return networks.Create(ctx, n.ServiceClient, opts).Extract()
}

func (n *NeutronClient) GetNetwork(ctx context.Context, networkID string) (*NetworkExternal, error) {
	if network, ok := n.networkCache.Get(networkID); ok {
		return network, nil
	}

	var network NetworkExternal
	err := networks.Get(ctx, n.ServiceClient, networkID).ExtractInto(&network)
	if err != nil {
		if gophercloud.ResponseCodeIs(err, http.StatusNotFound) {
			return nil, fmt.Errorf("network %s not found, %s", networkID, err.Error())
		}
		return nil, err
	}
	n.networkCache.Add(networkID, &network)
	return &network, nil
}

func (n *NeutronClient) DeleteNetwork(ctx context.Context, networkID string) error {
	n.networkCache.Remove(networkID)
	return networks.Delete(ctx, n.ServiceClient, networkID).ExtractErr()
}

func (n *NeutronClient) CreateSubnet(ctx context.Context, opts subnets.CreateOpts) (*subnets.Subnet, error) {
	return subnets.Create(ctx, n.ServiceClient, opts).Extract()
}

func (n *NeutronClient) GetSubnet(ctx context.Context, subnetID string) (*subnets.Subnet, error) {
	if subnet, ok := n.subnetCache.Get(subnetID); ok {
		return subnet, nil
	}

	subnet, err := subnets.Get(ctx, n.ServiceClient, subnetID).Extract()
	if err != nil {
		return nil, err
	}
	n.subnetCache.Add(subnetID, subnet)
	return subnet, nil
}

func (n *NeutronClient) DeleteSubnet(ctx context.Context, subnetID string) error {
	n.subnetCache.Remove(subnetID)
	return subnets.Delete(ctx, n.ServiceClient, subnetID).ExtractErr()
}

// PublicSubnetIDs returns the subnet ids of the configured public network.
// Throws ErrMissingSubnets if the network has none.
func (n *NeutronClient) PublicSubnetIDs(ctx context.Context, networkID string) ([]string, error) {
	network, err := n.GetNetwork(ctx, networkID)
	if err != nil {
		return nil, err
	}
	if len(network.Subnets) == 0 {
		return nil, fmt.Errorf("%w: %s", cErrors.ErrMissingSubnets, networkID)
	}
	return network.Subnets, nil
}
