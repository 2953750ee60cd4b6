// SPDX-FileCopyrightText: Copyright 2025 SAP SE or an SAP affiliate company
//
// SPDX-License-Identifier: Apache-2.0

package checks

import (
	"context"
	"net/http"
	"testing"

	"github.com/gophercloud/gophercloud/v2/openstack/networking/v2/extensions/layer3/routers"
	th "github.com/gophercloud/gophercloud/v2/testhelper"
	"github.com/gophercloud/gophercloud/v2/testhelper/fixture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cErrors "github.com/sapcc/l3check/internal/errors"
)

const GetRouterWithGatewayResponseFixture = `
{
    "router": {
        "id": "f8a44de0-fc8e-45df-93c7-f79bf3b01c95",
        "name": "l3check-router-deadbeef",
        "admin_state_up": true,
        "status": "ACTIVE",
        "external_gateway_info": {
            "network_id": "9bf57c58-5d9f-418b-a879-44d83e194ad0",
            "enable_snat": true,
            "external_fixed_ips": [
                {"subnet_id": "a0304c3a-4f08-4c43-88af-d796509c97d2", "ip_address": "10.46.4.3"}
            ]
        },
        "routes": []
    }
}
`
const GetRouterWithoutGatewayResponseFixture = `
{
    "router": {
        "id": "f8a44de0-fc8e-45df-93c7-f79bf3b01c95",
        "name": "l3check-router-deadbeef",
        "admin_state_up": true,
        "status": "ACTIVE",
        "external_gateway_info": null,
        "routes": []
    }
}
`
const ListGatewayPortsResponseFixture = `
{
    "ports": [
        {
            "id": "d80b1a3b-4fc1-49f3-952e-1e2ab7081d8b",
            "network_id": "9bf57c58-5d9f-418b-a879-44d83e194ad0",
            "device_id": "f8a44de0-fc8e-45df-93c7-f79bf3b01c95",
            "device_owner": "network:router_gateway",
            "fixed_ips": [
                {"subnet_id": "a0304c3a-4f08-4c43-88af-d796509c97d2", "ip_address": "10.46.4.3"}
            ]
        }
    ]
}
`
const GetPublicNetworkResponseFixture = `
{
    "network": {
        "id": "9bf57c58-5d9f-418b-a879-44d83e194ad0",
        "name": "floating",
        "router:external": true,
        "subnets": ["a0304c3a-4f08-4c43-88af-d796509c97d2"]
    }
}
`

func TestVerifyRouterGateway(t *testing.T) {
	fakeServer := th.SetupHTTP()
	defer fakeServer.Teardown()
	fixture.SetupHandler(t, fakeServer, "/v2.0/routers/"+RouterIDFixture, "GET",
		"", GetRouterWithGatewayResponseFixture, http.StatusOK)

	h := fakeHarness(t, fakeNeutronClient(fakeServer))

	// partial match: only the supplied fields are compared
	err := h.verifyRouterGateway(context.TODO(), RouterIDFixture,
		&GatewayExpectation{NetworkID: PublicNetworkIDFixture})
	assert.Nil(t, err)

	err = h.verifyRouterGateway(context.TODO(), RouterIDFixture,
		&GatewayExpectation{NetworkID: PublicNetworkIDFixture, EnableSNAT: ptr(true)})
	assert.Nil(t, err)

	err = h.verifyRouterGateway(context.TODO(), RouterIDFixture,
		&GatewayExpectation{EnableSNAT: ptr(false)})
	assert.ErrorIs(t, err, cErrors.ErrVerification)

	// nil expectation requires the gateway to be absent
	err = h.verifyRouterGateway(context.TODO(), RouterIDFixture, nil)
	assert.ErrorIs(t, err, cErrors.ErrVerification)
}

func TestVerifyRouterGatewayAbsent(t *testing.T) {
	fakeServer := th.SetupHTTP()
	defer fakeServer.Teardown()
	fixture.SetupHandler(t, fakeServer, "/v2.0/routers/"+RouterIDFixture, "GET",
		"", GetRouterWithoutGatewayResponseFixture, http.StatusOK)

	h := fakeHarness(t, fakeNeutronClient(fakeServer))

	err := h.verifyRouterGateway(context.TODO(), RouterIDFixture, nil)
	assert.Nil(t, err)

	err = h.verifyRouterGateway(context.TODO(), RouterIDFixture,
		&GatewayExpectation{NetworkID: PublicNetworkIDFixture})
	assert.ErrorIs(t, err, cErrors.ErrVerification)
}

func TestVerifyGatewayPort(t *testing.T) {
	fakeServer := th.SetupHTTP()
	defer fakeServer.Teardown()
	fixture.SetupHandler(t, fakeServer, "/v2.0/ports", "GET",
		"", ListGatewayPortsResponseFixture, http.StatusOK)
	fixture.SetupHandler(t, fakeServer, "/v2.0/networks/"+PublicNetworkIDFixture, "GET",
		"", GetPublicNetworkResponseFixture, http.StatusOK)

	h := fakeHarness(t, fakeNeutronClient(fakeServer))
	err := h.verifyGatewayPort(context.TODO(), RouterIDFixture)
	require.Nil(t, err)
}

func TestRoutesEqual(t *testing.T) {
	want := []routers.Route{
		{DestinationCIDR: "10.100.0.0/28", NextHop: "10.100.0.2"},
		{DestinationCIDR: "10.100.0.16/28", NextHop: "10.100.0.18"},
	}
	// order independent by destination
	got := []routers.Route{
		{DestinationCIDR: "10.100.0.16/28", NextHop: "10.100.0.18"},
		{DestinationCIDR: "10.100.0.0/28", NextHop: "10.100.0.2"},
	}
	assert.Nil(t, routesEqual(want, got))

	got[0].NextHop = "10.100.0.3"
	assert.ErrorIs(t, routesEqual(want, got), cErrors.ErrVerification)

	assert.ErrorIs(t, routesEqual(want, got[:1]), cErrors.ErrVerification)
}
