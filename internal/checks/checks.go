// SPDX-FileCopyrightText: Copyright 2025 SAP SE or an SAP affiliate company
//
// SPDX-License-Identifier: Apache-2.0

// Package checks verifies the router management surface of a Neutron style
// networking service against a live backend. Checks are independent,
// sequential and stateless: every remote resource they create is released at
// teardown, pass or fail.
package checks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"

	"github.com/sapcc/l3check/internal/config"
	"github.com/sapcc/l3check/internal/neutron"
)

const (
	StatusPassed  = "PASSED"
	StatusSkipped = "SKIPPED"
	StatusFailed  = "FAILED"
)

// SkipError marks a check as not applicable, e.g. a disabled extension or a
// missing config option. The runner reports it as SKIPPED, not FAILED.
type SkipError struct {
	Reason string
}

func (e *SkipError) Error() string {
	return "skipped: " + e.Reason
}

func Skipf(format string, args ...any) error {
	return &SkipError{Reason: fmt.Sprintf(format, args...)}
}

type Check struct {
	Name string

	// Extensions the backend must advertise for this check to run.
	Extensions []string

	// NeedsPublicNetwork skips the check when public_network_id is unset.
	NeedsPublicNetwork bool

	Run func(ctx context.Context, h *Harness) error
}

type Result struct {
	Name      string        `json:"name"`
	IPVersion int           `json:"ip_version"`
	Status    string        `json:"status"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error"`
}

// Registry returns all checks in execution order.
func Registry() []Check {
	return []Check{
		{Name: "RouterLifecycle", NeedsPublicNetwork: true, Run: checkRouterLifecycle},
		{Name: "RouterProjectScope", Run: checkRouterProjectScope},
		{Name: "GatewayDefaultSNAT", Extensions: []string{"ext-gw-mode"}, NeedsPublicNetwork: true, Run: checkGatewayDefaultSNAT},
		{Name: "GatewaySNATExplicit", Extensions: []string{"ext-gw-mode"}, NeedsPublicNetwork: true, Run: checkGatewaySNATExplicit},
		{Name: "InterfaceBySubnet", Run: checkInterfaceBySubnet},
		{Name: "InterfaceByPort", Run: checkInterfaceByPort},
		{Name: "GatewaySet", NeedsPublicNetwork: true, Run: checkGatewaySet},
		{Name: "GatewaySetSNATExplicit", Extensions: []string{"ext-gw-mode"}, NeedsPublicNetwork: true, Run: checkGatewaySetSNATExplicit},
		{Name: "GatewaySetNoSNAT", Extensions: []string{"ext-gw-mode"}, NeedsPublicNetwork: true, Run: checkGatewaySetNoSNAT},
		{Name: "GatewayFixedIP", Extensions: []string{"ext-gw-mode"}, NeedsPublicNetwork: true, Run: checkGatewayFixedIP},
		{Name: "GatewayUnset", NeedsPublicNetwork: true, Run: checkGatewayUnset},
		{Name: "GatewayResetNoSNAT", Extensions: []string{"ext-gw-mode"}, NeedsPublicNetwork: true, Run: checkGatewayResetNoSNAT},
		{Name: "ExtraRoutes", Extensions: []string{"extraroute"}, Run: checkExtraRoutes},
		{Name: "AdminStateToggle", Run: checkAdminStateToggle},
		{Name: "MultipleInterfaces", Run: checkMultipleInterfaces},
		{Name: "InterfacePortFixedIP", Run: checkInterfacePortFixedIP},
	}
}

// Preflight returns a SkipError if the check's requirements are not met.
func Preflight(ctx context.Context, client *neutron.NeutronClient, check Check) error {
	if ok, err := client.HasExtension(ctx, "router"); err != nil {
		return err
	} else if !ok {
		return Skipf("router extension not enabled")
	}

	for _, alias := range check.Extensions {
		if ok, err := client.HasExtension(ctx, alias); err != nil {
			return err
		} else if !ok {
			return Skipf("%s extension not enabled", alias)
		}
	}

	if check.NeedsPublicNetwork && config.Global.Network.PublicNetwork == "" {
		return Skipf("the public_network_id option must be specified")
	}
	return nil
}

// RunOne executes a single check with its own harness and teardown.
func RunOne(ctx context.Context, client *neutron.NeutronClient, check Check, ipVersion int) Result {
	result := Result{Name: check.Name, IPVersion: ipVersion}
	start := time.Now()

	err := Preflight(ctx, client, check)
	if err == nil {
		var h *Harness
		if h, err = NewHarness(client, ipVersion); err == nil {
			err = check.Run(ctx, h)
			h.Teardown(ctx)
		}
	}
	result.Duration = time.Since(start).Round(time.Millisecond)

	var skip *SkipError
	switch {
	case err == nil:
		result.Status = StatusPassed
	case errors.As(err, &skip):
		result.Status = StatusSkipped
		result.Error = skip.Reason
	default:
		result.Status = StatusFailed
		result.Error = err.Error()
		if config.Global.Default.SentryDSN != "" {
			sentry.CaptureException(fmt.Errorf("%s: %w", check.Name, err))
		}
	}

	log.WithFields(log.Fields{
		"check":      check.Name,
		"ip_version": ipVersion,
		"status":     result.Status,
		"duration":   result.Duration,
	}).Info("check finished")
	return result
}

// RunAll executes the whole registry sequentially. There is no concurrency
// and no retry: a failed check reports immediately.
func RunAll(ctx context.Context, client *neutron.NeutronClient, ipVersion int) []Result {
	results := make([]Result, 0, len(Registry()))
	for _, check := range Registry() {
		results = append(results, RunOne(ctx, client, check, ipVersion))
	}
	return results
}

// Failed reports whether any result failed.
func Failed(results []Result) bool {
	for _, result := range results {
		if result.Status == StatusFailed {
			return true
		}
	}
	return false
}
