// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package resolver

import (
	"context"
	"net"
	"net/netip"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// Defaults used when no option overrides them.
const (
	DefaultRetries   = 3
	DefaultTimeout   = 2 * time.Second
	DefaultCacheSize = 128
	DefaultMaxTTL    = 5 * time.Minute
	DefaultWorkers   = 4
)

// LookupFunc is a blocking lookup used by the Blocking resolver.
// The signature matches net.Resolver.LookupNetIP.
type LookupFunc func(ctx context.Context, network, host string) ([]netip.Addr, error)

type options struct {
	logger      *zap.Logger
	clock       clock.Clock
	nameservers []netip.Addr
	confPath    string
	retries     int
	timeout     time.Duration
	cacheSize   int
	maxTTL      time.Duration
	transport   func() (Transport, error)
	workers     int64
	lookup      LookupFunc
}

func getOpts(o ...Option) options {
	opts := options{
		logger:    zap.NewNop(),
		clock:     clock.New(),
		confPath:  DefaultConfPath,
		retries:   DefaultRetries,
		timeout:   DefaultTimeout,
		cacheSize: DefaultCacheSize,
		maxTTL:    DefaultMaxTTL,
		transport: DialUDP,
		workers:   DefaultWorkers,
		lookup:    net.DefaultResolver.LookupNetIP,
	}
	for _, f := range o {
		f(&opts)
	}
	return opts
}

// Option configures a Stub or Blocking resolver.
// Options that do not apply to a resolver are ignored by it.
type Option func(*options)

// Logger sets the logger used by the resolver.
func Logger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Clock sets the time source used to expire cached answers.
func Clock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// Nameservers replaces the system nameserver list.
// Invalid (zero) addresses mark absent slots that are skipped but still count
// towards the retry budget.
func Nameservers(ns ...netip.Addr) Option {
	return func(o *options) {
		if len(ns) > MaxNameservers {
			ns = ns[:MaxNameservers]
		}
		o.nameservers = append([]netip.Addr{}, ns...)
		o.confPath = ""
	}
}

// ConfPath loads nameservers from a resolv.conf file other than
// DefaultConfPath.
func ConfPath(path string) Option {
	return func(o *options) {
		o.confPath = path
	}
}

// Retries sets how many times each nameserver slot is visited.
func Retries(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.retries = n
		}
	}
}

// Timeout sets how long to wait for a reply before moving on to the next
// nameserver.
func Timeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// Cache sets the number of cached answers and the longest time an answer is
// kept regardless of its TTL.
// A size of zero disables caching.
func Cache(size int, maxTTL time.Duration) Option {
	return func(o *options) {
		o.cacheSize = size
		if maxTTL > 0 {
			o.maxTTL = maxTTL
		}
	}
}

// WithTransport replaces the UDP socket used by the stub resolver.
func WithTransport(f func() (Transport, error)) Option {
	return func(o *options) {
		if f != nil {
			o.transport = f
		}
	}
}

// Workers bounds the number of concurrent blocking lookups.
func Workers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = int64(n)
		}
	}
}

// Lookup replaces the blocking lookup function.
func Lookup(f LookupFunc) Option {
	return func(o *options) {
		if f != nil {
			o.lookup = f
		}
	}
}
