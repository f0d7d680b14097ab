// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package resolver

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"net/netip"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/miekg/dns"
	"go.uber.org/zap"

	"mellium.im/imcore/watch"
)

// maxUDPSize is the largest reply read from the socket.
const maxUDPSize = 512

type cacheKey struct {
	host   string
	family Family
}

type cached struct {
	addr    netip.Addr
	expires time.Time
}

type request struct {
	handle   Handle
	host     string
	family   Family
	qtypes   []uint16
	cb       Callback
	attempts int
	id       uint16
	server   netip.Addr
	timer    watch.ID
	finished bool
	canceled bool
}

// Stub is a UDP stub resolver.
//
// Each send attempt goes to the next slot of the nameserver list, wrapping
// around and skipping absent slots, until every slot has been visited Retries
// times.
// Every query carries a fresh random non-zero 16-bit id and only a reply
// carrying the most recently sent id of a live request, from the nameserver it
// was sent to, is accepted.
//
// A Stub must only be used from the loop goroutine of its registry.
type Stub struct {
	reg     watch.Registry
	logger  *zap.Logger
	clock   clock.Clock
	servers []netip.Addr
	loadErr error
	retries int
	timeout time.Duration
	maxTTL  time.Duration
	dial    func() (Transport, error)

	tr     Transport
	readW  watch.ID
	buf    []byte
	next   Handle
	byH    map[Handle]*request
	byID   map[uint16]*request
	cache  *expirable.LRU[cacheKey, cached]
	closed bool
}

// NewStub creates a stub resolver that registers its socket with reg.
// The nameserver list is loaded once, here; a missing or empty list makes
// every later call to Resolve fail.
func NewStub(reg watch.Registry, opts ...Option) *Stub {
	o := getOpts(opts...)
	s := &Stub{
		reg:     reg,
		logger:  o.logger,
		clock:   o.clock,
		servers: o.nameservers,
		retries: o.retries,
		timeout: o.timeout,
		maxTTL:  o.maxTTL,
		dial:    o.transport,
		buf:     make([]byte, maxUDPSize),
		byH:     make(map[Handle]*request),
		byID:    make(map[uint16]*request),
	}
	if o.confPath != "" {
		s.servers, s.loadErr = ReadConf(o.confPath)
	}
	if o.cacheSize > 0 {
		s.cache = expirable.NewLRU[cacheKey, cached](o.cacheSize, nil, o.maxTTL)
	}
	return s
}

// Nameservers returns a copy of the nameserver list.
func (s *Stub) Nameservers() []netip.Addr {
	return append([]netip.Addr(nil), s.servers...)
}

func (s *Stub) usable() bool {
	for _, ns := range s.servers {
		if ns.IsValid() {
			return true
		}
	}
	return false
}

// Resolve implements Resolver.
func (s *Stub) Resolve(host string, f Family, cb Callback) (Handle, error) {
	host = strings.TrimSuffix(host, ".")
	switch {
	case s.closed:
		return 0, ErrClosed
	case host == "":
		return 0, ErrEmptyHost
	case s.loadErr != nil:
		return 0, fmt.Errorf("%w: %v", ErrNoNameservers, s.loadErr)
	case !s.usable():
		return 0, ErrNoNameservers
	}
	if f&Any == 0 {
		f = Any
	}

	s.next++
	r := &request{handle: s.next, host: host, family: f, cb: cb}
	s.byH[r.handle] = r

	if addr, err := netip.ParseAddr(host); err == nil {
		if f.Allows(addr) {
			s.finish(r, addr.Unmap(), nil)
		} else {
			s.finish(r, netip.Addr{}, ErrNoAddress)
		}
		return r.handle, nil
	}
	if s.cache != nil {
		if c, ok := s.cache.Get(cacheKey{host: host, family: f}); ok && s.clock.Now().Before(c.expires) {
			s.finish(r, c.addr, nil)
			return r.handle, nil
		}
	}

	if s.tr == nil {
		tr, err := s.dial()
		if err != nil {
			delete(s.byH, r.handle)
			return 0, err
		}
		s.tr = tr
		s.readW = s.reg.Watch(tr.FD(), watch.Read, s.onReadable)
	}

	if f&IPv4 != 0 {
		r.qtypes = append(r.qtypes, dns.TypeA)
	}
	if f&IPv6 != 0 {
		r.qtypes = append(r.qtypes, dns.TypeAAAA)
	}
	s.attempt(r)
	return r.handle, nil
}

// attempt sends the query to the next present nameserver or gives up once
// every slot has been visited retries times.
func (s *Stub) attempt(r *request) {
	budget := s.retries * len(s.servers)
	for r.attempts < budget {
		ns := s.servers[r.attempts%len(s.servers)]
		r.attempts++
		if !ns.IsValid() {
			continue
		}
		if err := s.send(r, ns); err != nil {
			s.logger.Debug("sending query failed", zap.String("host", r.host), zap.Stringer("nameserver", ns), zap.Error(err))
			continue
		}
		return
	}
	s.finish(r, netip.Addr{}, ErrExhausted)
}

func (s *Stub) newID() uint16 {
	for {
		id := uint16(rand.Uint32())
		if _, inUse := s.byID[id]; id != 0 && !inUse {
			return id
		}
	}
}

func (s *Stub) send(r *request, ns netip.Addr) error {
	s.reg.Remove(r.timer)
	r.timer = 0
	delete(s.byID, r.id)

	r.id = s.newID()
	r.server = ns
	s.byID[r.id] = r

	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(r.host), r.qtypes[0])
	m.Id = r.id
	pkt, err := m.Pack()
	if err != nil {
		return err
	}
	if err := s.tr.Send(ns, pkt); err != nil {
		return err
	}
	s.logger.Debug("query sent",
		zap.String("host", r.host),
		zap.Stringer("nameserver", ns),
		zap.Uint16("id", r.id),
		zap.Int("attempt", r.attempts),
	)
	r.timer = s.reg.AfterFunc(s.timeout, func() {
		r.timer = 0
		s.attempt(r)
	})
	return nil
}

func (s *Stub) onReadable(int, watch.Dir) {
	for s.tr != nil {
		n, from, err := s.tr.Recv(s.buf)
		if err == ErrWouldBlock {
			return
		}
		if err != nil {
			s.logger.Debug("reading reply failed", zap.Error(err))
			return
		}
		s.handleReply(s.buf[:n], from)
	}
}

func (s *Stub) handleReply(pkt []byte, from netip.Addr) {
	if len(pkt) < 2 {
		return
	}
	id := binary.BigEndian.Uint16(pkt)
	r, ok := s.byID[id]
	if !ok || r.server != from {
		s.logger.Debug("dropping stale reply", zap.Uint16("id", id), zap.Stringer("from", from))
		return
	}

	m := new(dns.Msg)
	if err := m.Unpack(pkt); err != nil || !m.Response {
		s.logger.Debug("dropping malformed reply", zap.Uint16("id", id), zap.Error(err))
		return
	}

	switch m.Rcode {
	case dns.RcodeSuccess:
		addr, ttl, ok := answer(m, r.qtypes[0])
		if ok {
			s.store(r, addr, ttl)
			s.finish(r, addr, nil)
			return
		}
		r.qtypes = r.qtypes[1:]
		if len(r.qtypes) == 0 {
			s.finish(r, netip.Addr{}, ErrNoAddress)
			return
		}
		if err := s.send(r, r.server); err != nil {
			s.attempt(r)
		}
	case dns.RcodeNameError:
		s.finish(r, netip.Addr{}, ErrNotFound)
	default:
		s.logger.Debug("nameserver refused query",
			zap.Stringer("nameserver", from),
			zap.String("rcode", dns.RcodeToString[m.Rcode]),
		)
		s.attempt(r)
	}
}

func answer(m *dns.Msg, qtype uint16) (netip.Addr, time.Duration, bool) {
	for _, rr := range m.Answer {
		var ip []byte
		switch v := rr.(type) {
		case *dns.A:
			if qtype == dns.TypeA {
				ip = v.A.To4()
			}
		case *dns.AAAA:
			if qtype == dns.TypeAAAA {
				ip = v.AAAA.To16()
			}
		}
		if addr, ok := netip.AddrFromSlice(ip); ok {
			return addr.Unmap(), time.Duration(rr.Header().Ttl) * time.Second, true
		}
	}
	return netip.Addr{}, 0, false
}

func (s *Stub) store(r *request, addr netip.Addr, ttl time.Duration) {
	if s.cache == nil || ttl <= 0 {
		return
	}
	if ttl > s.maxTTL {
		ttl = s.maxTTL
	}
	s.cache.Add(cacheKey{host: r.host, family: r.family}, cached{addr: addr, expires: s.clock.Now().Add(ttl)})
}

// finish ends the request and schedules its callback on the loop.
func (s *Stub) finish(r *request, addr netip.Addr, err error) {
	if r.finished {
		return
	}
	r.finished = true
	s.reg.Remove(r.timer)
	r.timer = 0
	delete(s.byID, r.id)
	s.reg.Post(func() {
		delete(s.byH, r.handle)
		if r.canceled {
			return
		}
		if err != nil {
			err = fmt.Errorf("resolving %s: %w", r.host, err)
		}
		r.cb(addr, err)
	})
}

// Cancel implements Resolver.
func (s *Stub) Cancel(h Handle) {
	r, ok := s.byH[h]
	if !ok {
		return
	}
	r.canceled = true
	r.finished = true
	s.reg.Remove(r.timer)
	r.timer = 0
	delete(s.byID, r.id)
	delete(s.byH, h)
}

// Pending reports the number of requests whose callback has not run.
func (s *Stub) Pending() int {
	return len(s.byH)
}

// Close cancels every pending request and closes the socket.
func (s *Stub) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	for h := range s.byH {
		s.Cancel(h)
	}
	if s.tr == nil {
		return nil
	}
	s.reg.Remove(s.readW)
	err := s.tr.Close()
	s.tr = nil
	return err
}
