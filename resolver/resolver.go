// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package resolver turns host names into addresses without blocking the event
// loop.
//
// Two strategies are provided: Stub, a UDP stub resolver that queries the
// system nameservers round-robin with a retry budget, and Blocking, which runs
// the traditional system lookup on a bounded pool of goroutines.
// Chain combines them so that the blocking lookup is only used as a last
// resort.
//
// All callbacks run on the loop goroutine of the watch.Registry passed to the
// resolver, never before Resolve has returned, and at most once per request.
package resolver // import "mellium.im/imcore/resolver"

import (
	"errors"
	"net/netip"
)

// Errors returned synchronously by Resolve or passed to callbacks.
var (
	ErrEmptyHost     = errors.New("resolver: empty host name")
	ErrNoNameservers = errors.New("resolver: no usable nameservers")
	ErrExhausted     = errors.New("resolver: no answer within the retry budget")
	ErrNotFound      = errors.New("resolver: no such host")
	ErrNoAddress     = errors.New("resolver: no address")
	ErrClosed        = errors.New("resolver: closed")
)

// Family is a mask of acceptable address families.
type Family uint8

// A list of address family masks.
const (
	IPv4 Family = 1 << iota
	IPv6
	Any = IPv4 | IPv6
)

// Allows reports whether a is a valid address of an allowed family.
func (f Family) Allows(a netip.Addr) bool {
	switch {
	case !a.IsValid():
		return false
	case a.Unmap().Is4():
		return f&IPv4 != 0
	}
	return f&IPv6 != 0
}

func (f Family) network() string {
	switch f {
	case IPv4:
		return "ip4"
	case IPv6:
		return "ip6"
	}
	return "ip"
}

// Handle identifies a pending request.
// The zero Handle is never returned for a pending request.
type Handle uint64

// Callback receives the result of a request.
// On failure addr is the zero Addr and err is non-nil.
type Callback func(addr netip.Addr, err error)

// Resolver is a non-blocking host name lookup.
//
// Resolve starts a lookup and returns immediately.
// If it returns an error the callback will never be called.
// After Cancel returns the callback of the canceled request will never be
// called.
type Resolver interface {
	Resolve(host string, f Family, cb Callback) (Handle, error)
	Cancel(h Handle)
}
