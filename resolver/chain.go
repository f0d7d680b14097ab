// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package resolver

import (
	"net/netip"
)

type chainReq struct {
	host   string
	family Family
	cb     Callback
	idx    int
	inner  Handle
}

// Chain tries each resolver in turn, moving on to the next one when a resolver
// refuses the request or reports a failure.
// The error of the last resolver tried is the one reported.
type Chain struct {
	rs      []Resolver
	next    Handle
	pending map[Handle]*chainReq
}

// NewChain returns a resolver that falls back through rs in order.
func NewChain(rs ...Resolver) *Chain {
	return &Chain{
		rs:      rs,
		pending: make(map[Handle]*chainReq),
	}
}

// Resolve implements Resolver.
func (c *Chain) Resolve(host string, f Family, cb Callback) (Handle, error) {
	c.next++
	h := c.next
	r := &chainReq{host: host, family: f, cb: cb}
	c.pending[h] = r
	if err := c.start(h, r, 0); err != nil {
		delete(c.pending, h)
		return 0, err
	}
	return h, nil
}

func (c *Chain) start(h Handle, r *chainReq, from int) error {
	err := ErrNoAddress
	for i := from; i < len(c.rs); i++ {
		i := i
		var inner Handle
		inner, err = c.rs[i].Resolve(r.host, r.family, func(addr netip.Addr, err error) {
			if c.pending[h] != r {
				return
			}
			if err != nil && i+1 < len(c.rs) {
				if err = c.start(h, r, i+1); err == nil {
					return
				}
			}
			delete(c.pending, h)
			r.cb(addr, err)
		})
		if err == nil {
			r.idx, r.inner = i, inner
			return nil
		}
	}
	return err
}

// Cancel implements Resolver.
func (c *Chain) Cancel(h Handle) {
	r, ok := c.pending[h]
	if !ok {
		return
	}
	delete(c.pending, h)
	c.rs[r.idx].Cancel(r.inner)
}
