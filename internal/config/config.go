// SPDX-FileCopyrightText: Copyright 2025 SAP SE or an SAP affiliate company
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"github.com/go-openapi/strfmt"
	"github.com/jessevdk/go-flags"
	"github.com/sapcc/go-bits/logg"
)

var (
	Global L3Check
)

type L3Check struct {
	ConfigFile  string   `long:"config-file" description:"Use config file"`
	Default     Default  `group:"DEFAULT"`
	Network     Network  `group:"network"`
	ServiceAuth AuthInfo `group:"service_auth"`
}

type Default struct {
	Debug         bool   `short:"d" long:"debug" description:"Show debug information"`
	SentryDSN     string `long:"sentry-dsn" ini-name:"sentry_dsn" description:"Sentry DSN for reporting check failures."`
	CheckInterval int    `long:"check-interval" ini-name:"check_interval" description:"Re-run the suite every n minutes. Runs once if unset."`
	IPVersions    []int  `long:"ip-version" ini-name:"ip_version" choice:"4" choice:"6" default:"4" description:"IP version of the tenant subnets, can be repeated to run the suite for both."`
}

type Network struct {
	PublicNetwork        strfmt.UUID `long:"public-network-id" ini-name:"public_network_id" description:"ID of the external network used for router gateways. Gateway checks are skipped if unset."`
	ProjectNetworkCIDR   string      `long:"project-network-cidr" ini-name:"project_network_cidr" default:"10.100.0.0/28" description:"Base IPv4 block for tenant subnets, consumed sequentially."`
	ProjectNetworkV6CIDR string      `long:"project-network-v6-cidr" ini-name:"project_network_v6_cidr" default:"2003::/64" description:"Base IPv6 block for tenant subnets."`
	ExtraRoutes          int         `long:"extra-routes" ini-name:"extra_routes" default:"4" description:"Number of extra routes provisioned by the route check."`
	NamePrefix           string      `long:"name-prefix" ini-name:"name_prefix" default:"l3check-" description:"Prefix for all resources created by the suite."`
}

type AuthInfo struct {
	AuthURL                     string `ini-name:"auth_url"`
	Token                       string `ini-name:"token"`
	Username                    string `ini-name:"username"`
	UserID                      string `ini-name:"user_id" `
	Password                    string `ini-name:"password" `
	ApplicationCredentialID     string `ini-name:"application_credential_id"`
	ApplicationCredentialName   string `ini-name:"application_credential_name" `
	ApplicationCredentialSecret string `ini-name:"application_credential_secret" `
	SystemScope                 string `ini-name:"system_scope" `
	ProjectName                 string `ini-name:"project_name"`
	ProjectID                   string `ini-name:"project_id" `
	UserDomainName              string `ini-name:"user_domain_name"`
	UserDomainID                string `ini-name:"user_domain_id"`
	ProjectDomainName           string `ini-name:"project_domain_name" `
	ProjectDomainID             string `ini-name:"project_domain_id" `
	DomainName                  string `ini-name:"domain_name"`
	DomainID                    string `ini-name:"domain_id"`
	DefaultDomain               string `ini-name:"default_domain"`
	AllowReauth                 bool   `ini-name:"allow_reauth"`
}

func IsDebug() bool {
	return Global.Default.Debug
}

// ParseConfig loads the optional config file on top of the already parsed
// command line flags.
func ParseConfig(parser *flags.Parser) {
	if Global.ConfigFile == "" {
		return
	}

	ini := flags.NewIniParser(parser)
	if err := ini.ParseFile(Global.ConfigFile); err != nil {
		logg.Fatal(err.Error())
	}
}
