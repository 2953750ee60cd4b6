// SPDX-FileCopyrightText: Copyright 2025 SAP SE or an SAP affiliate company
//
// SPDX-License-Identifier: Apache-2.0

package checks

import (
	"fmt"
	"net/netip"

	cErrors "github.com/sapcc/l3check/internal/errors"
)

// NextCIDR returns the block of the same size directly following the given
// one, e.g. 10.100.0.0/28 -> 10.100.0.16/28. Throws ErrCIDRExhausted when the
// address space wraps.
func NextCIDR(prefix netip.Prefix) (netip.Prefix, error) {
	addr := prefix.Masked().Addr()
	b := addr.AsSlice()

	hostBits := addr.BitLen() - prefix.Bits()
	byteIdx := len(b) - 1 - hostBits/8
	if byteIdx < 0 {
		return netip.Prefix{}, cErrors.ErrCIDRExhausted
	}

	carry := uint16(1) << (hostBits % 8)
	for i := byteIdx; i >= 0 && carry > 0; i-- {
		sum := uint16(b[i]) + carry
		b[i] = byte(sum)
		carry = sum >> 8
	}
	if carry > 0 {
		return netip.Prefix{}, cErrors.ErrCIDRExhausted
	}

	next, ok := netip.AddrFromSlice(b)
	if !ok {
		return netip.Prefix{}, fmt.Errorf("invalid address %v", b)
	}
	return netip.PrefixFrom(next, prefix.Bits()), nil
}

// NthAddress returns the n-th address of the block, counting from the network
// address. Next hops use n=2, skipping the default gateway address.
func NthAddress(prefix netip.Prefix, n int) netip.Addr {
	addr := prefix.Masked().Addr()
	for i := 0; i < n; i++ {
		addr = addr.Next()
	}
	return addr
}
