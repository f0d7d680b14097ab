// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package resolver

import (
	"context"
	"fmt"
	"net/netip"

	"go.uber.org/zap"
	"golang.org/x/net/idna"
	"golang.org/x/sync/semaphore"

	"mellium.im/imcore/watch"
)

// Blocking runs the system resolver on a bounded pool of goroutines and hands
// exactly one result back to the loop.
//
// Resolve and Cancel must only be called from the loop goroutine.
type Blocking struct {
	reg     watch.Registry
	logger  *zap.Logger
	sem     *semaphore.Weighted
	lookup  LookupFunc
	next    Handle
	pending map[Handle]context.CancelFunc
}

// NewBlocking creates a blocking-lookup resolver that posts results to reg.
func NewBlocking(reg watch.Registry, opts ...Option) *Blocking {
	o := getOpts(opts...)
	return &Blocking{
		reg:     reg,
		logger:  o.logger,
		sem:     semaphore.NewWeighted(o.workers),
		lookup:  o.lookup,
		pending: make(map[Handle]context.CancelFunc),
	}
}

// Resolve implements Resolver.
func (b *Blocking) Resolve(host string, f Family, cb Callback) (Handle, error) {
	if host == "" {
		return 0, ErrEmptyHost
	}
	if f&Any == 0 {
		f = Any
	}
	ctx, cancel := context.WithCancel(context.Background())
	b.next++
	h := b.next
	b.pending[h] = cancel

	go func() {
		addr, err := b.resolve(ctx, host, f)
		b.reg.Post(func() {
			if _, ok := b.pending[h]; !ok {
				return
			}
			delete(b.pending, h)
			cancel()
			if err != nil {
				err = fmt.Errorf("resolving %s: %w", host, err)
			}
			cb(addr, err)
		})
	}()
	return h, nil
}

func (b *Blocking) resolve(ctx context.Context, host string, f Family) (netip.Addr, error) {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return netip.Addr{}, err
	}
	defer b.sem.Release(1)

	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		b.logger.Debug("converting host name failed", zap.String("host", host), zap.Error(err))
		return netip.Addr{}, fmt.Errorf("%w: %v", ErrNoAddress, err)
	}
	if addr, err := netip.ParseAddr(ascii); err == nil {
		if f.Allows(addr) {
			return addr.Unmap(), nil
		}
		return netip.Addr{}, ErrNoAddress
	}

	addrs, err := b.lookup(ctx, f.network(), ascii)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: %v", ErrNoAddress, err)
	}
	for _, a := range addrs {
		if f.Allows(a) {
			return a.Unmap(), nil
		}
	}
	return netip.Addr{}, ErrNoAddress
}

// Cancel implements Resolver.
func (b *Blocking) Cancel(h Handle) {
	cancel, ok := b.pending[h]
	if !ok {
		return
	}
	delete(b.pending, h)
	cancel()
}

// Pending reports the number of lookups whose callback has not run.
func (b *Blocking) Pending() int {
	return len(b.pending)
}
