// SPDX-FileCopyrightText: Copyright 2025 SAP SE or an SAP affiliate company
//
// SPDX-License-Identifier: Apache-2.0

//go:build acceptance

package checks

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/require"

	"github.com/sapcc/l3check/internal/config"
	"github.com/sapcc/l3check/internal/neutron"
)

// TestRoutersAcceptance runs the whole registry against a live cloud.
// Credentials come from the usual OS_* environment, the public network from
// L3CHECK_PUBLIC_NETWORK_ID.
func TestRoutersAcceptance(t *testing.T) {
	if os.Getenv("OS_AUTH_URL") == "" {
		t.Skip("OS_AUTH_URL not set, skipping acceptance suite")
	}

	config.Global.Network.PublicNetwork = strfmt.UUID(os.Getenv("L3CHECK_PUBLIC_NETWORK_ID"))
	if config.Global.Network.ProjectNetworkCIDR == "" {
		config.Global.Network.ProjectNetworkCIDR = "10.100.0.0/28"
	}
	if config.Global.Network.ProjectNetworkV6CIDR == "" {
		config.Global.Network.ProjectNetworkV6CIDR = "2003::/64"
	}
	if config.Global.Network.ExtraRoutes == 0 {
		config.Global.Network.ExtraRoutes = 4
	}
	if config.Global.Network.NamePrefix == "" {
		config.Global.Network.NamePrefix = "l3check-"
	}

	ctx := context.Background()
	client, err := neutron.ConnectToNeutron(ctx)
	require.Nil(t, err)

	for _, ipVersion := range []int{4, 6} {
		for _, check := range Registry() {
			t.Run(fmt.Sprintf("%s/v%d", check.Name, ipVersion), func(t *testing.T) {
				result := RunOne(ctx, client, check, ipVersion)
				switch result.Status {
				case StatusSkipped:
					t.Skip(result.Error)
				case StatusFailed:
					t.Fatal(result.Error)
				}
			})
		}
	}
}
