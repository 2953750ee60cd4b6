// SPDX-FileCopyrightText: Copyright 2025 SAP SE or an SAP affiliate company
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const iniFixture = `
[DEFAULT]
debug = true

[network]
public_network_id = 9bf57c58-5d9f-418b-a879-44d83e194ad0
extra_routes = 6

[service_auth]
auth_url = https://identity.example.com/v3
username = l3check
project_name = cloud-verification
`

func TestDefaults(t *testing.T) {
	Global = L3Check{}
	parser := flags.NewParser(&Global, flags.None)
	_, err := parser.ParseArgs([]string{})
	require.Nil(t, err)

	assert.Equal(t, "10.100.0.0/28", Global.Network.ProjectNetworkCIDR)
	assert.Equal(t, "2003::/64", Global.Network.ProjectNetworkV6CIDR)
	assert.Equal(t, 4, Global.Network.ExtraRoutes)
	assert.Equal(t, "l3check-", Global.Network.NamePrefix)
	assert.Equal(t, []int{4}, Global.Default.IPVersions)
	assert.Empty(t, Global.Network.PublicNetwork)
}

func TestParseConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "l3check.ini")
	require.Nil(t, os.WriteFile(path, []byte(iniFixture), 0o600))

	Global = L3Check{}
	parser := flags.NewParser(&Global, flags.None)
	_, err := parser.ParseArgs([]string{"--config-file", path})
	require.Nil(t, err)

	ParseConfig(parser)
	assert.True(t, IsDebug())
	assert.Equal(t, "9bf57c58-5d9f-418b-a879-44d83e194ad0", Global.Network.PublicNetwork.String())
	assert.Equal(t, 6, Global.Network.ExtraRoutes)
	assert.Equal(t, "l3check", Global.ServiceAuth.Username)
	assert.Equal(t, "cloud-verification", Global.ServiceAuth.ProjectName)
}
