// Copyright 2016 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package xmpp

import (
	"crypto/tls"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"mellium.im/imcore/event"
	"mellium.im/imcore/metrics"
	"mellium.im/imcore/roster"
	"mellium.im/imcore/tlsstep"
)

// TLSConn is a TLS client that never blocks.
// Handshake returns tlsstep.WantRead or tlsstep.WantWrite when it must wait
// for the descriptor and tlsstep.Done once it has finished.
// After the handshake Read and Flush return tlsstep.ErrWouldBlock instead of
// blocking.
type TLSConn interface {
	Handshake() (tlsstep.Want, error)
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Flush() error
	Buffered() int
	ConnectionState() tls.ConnectionState
	Close() error
}

// TLSClientFunc starts a TLS client on a connected descriptor.
type TLSClientFunc func(fd int, config *tls.Config) TLSConn

func defaultTLSClient(fd int, config *tls.Config) TLSConn {
	return tlsstep.Client(fd, config)
}

// Option can be used to configure an Engine.
type Option func(*options)

type options struct {
	log       *zap.Logger
	clock     clock.Clock
	bus       event.Bus
	metrics   *metrics.Metrics
	tlsClient TLSClientFunc
	roster    func() roster.Store
}

func getOpts(o ...Option) options {
	var res options
	for _, f := range o {
		f(&res)
	}
	if res.log == nil {
		res.log = zap.NewNop()
	}
	if res.clock == nil {
		res.clock = clock.New()
	}
	if res.bus == nil {
		res.bus = event.Discard
	}
	if res.tlsClient == nil {
		res.tlsClient = defaultTLSClient
	}
	if res.roster == nil {
		res.roster = func() roster.Store { return roster.New() }
	}
	return res
}

// The Logger option can be provided to have the engine log debug messages.
func Logger(l *zap.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// Clock sets the time source used for timestamps and idle tracking.
func Clock(c clock.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// Bus sets the receiver of session events.
// By default events are discarded.
func Bus(b event.Bus) Option {
	return func(o *options) {
		o.bus = b
	}
}

// Metrics records session activity.
// A nil value disables metrics, which is the default.
func Metrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// TLSClient replaces the TLS implementation used for sessions with TLS
// enabled.
func TLSClient(f TLSClientFunc) Option {
	return func(o *options) {
		o.tlsClient = f
	}
}

// RosterFactory sets the constructor of each session's contact list.
func RosterFactory(f func() roster.Store) Option {
	return func(o *options) {
		o.roster = f
	}
}
