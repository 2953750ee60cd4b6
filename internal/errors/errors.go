// SPDX-FileCopyrightText: Copyright 2025 SAP SE or an SAP affiliate company
//
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"errors"
)

var (
	ErrVerification   = errors.New("verification failed")
	ErrMissingConfig  = errors.New("required config option missing")
	ErrNotReady       = errors.New("resource not ready")
	ErrNoGatewayPort  = errors.New("no gateway port found")
	ErrMissingSubnets = errors.New("network has no subnets")
	ErrCIDRExhausted  = errors.New("project network cidr exhausted")
)
