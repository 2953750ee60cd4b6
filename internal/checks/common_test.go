// SPDX-FileCopyrightText: Copyright 2025 SAP SE or an SAP affiliate company
//
// SPDX-License-Identifier: Apache-2.0

package checks

import (
	"testing"

	th "github.com/gophercloud/gophercloud/v2/testhelper"
	fakeclient "github.com/gophercloud/gophercloud/v2/testhelper/client"
	"github.com/stretchr/testify/require"

	"github.com/sapcc/l3check/internal/config"
	"github.com/sapcc/l3check/internal/neutron"
)

const PublicNetworkIDFixture = "9bf57c58-5d9f-418b-a879-44d83e194ad0"
const PublicSubnetIDFixture = "a0304c3a-4f08-4c43-88af-d796509c97d2"
const RouterIDFixture = "f8a44de0-fc8e-45df-93c7-f79bf3b01c95"

const ListExtensionsResponseFixture = `
{
    "extensions": [
        {
            "alias": "router",
            "name": "Neutron L3 Router",
            "description": "Router abstraction for basic L3 forwarding and SNAT."
        }
    ]
}
`

func fakeNeutronClient(fakeServer th.FakeServer) *neutron.NeutronClient {
	serviceClient := fakeclient.ServiceClient(fakeServer)
	serviceClient.ResourceBase = serviceClient.Endpoint + "v2.0/"

	n := &neutron.NeutronClient{ServiceClient: serviceClient}
	n.InitCache()
	return n
}

// fakeHarness seeds the network config and wraps the given client. Tests that
// never talk to the API pass nil.
func fakeHarness(t *testing.T, client *neutron.NeutronClient) *Harness {
	config.Global.Network.ProjectNetworkCIDR = "10.100.0.0/28"
	config.Global.Network.ProjectNetworkV6CIDR = "2003::/64"
	config.Global.Network.ExtraRoutes = 4
	config.Global.Network.NamePrefix = "l3check-"
	config.Global.Network.PublicNetwork = PublicNetworkIDFixture

	h, err := NewHarness(client, 4)
	require.Nil(t, err)
	return h
}
