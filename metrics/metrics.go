// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package metrics provides Prometheus instrumentation for the session engine.
//
// All methods are safe to call on a nil *Metrics, which records nothing.
package metrics // import "mellium.im/imcore/metrics"

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultNamespace is used when New is called with an empty namespace.
const DefaultNamespace = "imcore"

// Metrics holds the collectors for all sessions of an engine.
type Metrics struct {
	SessionsEstablished prometheus.Gauge
	Connects            *prometheus.CounterVec
	Disconnects         *prometheus.CounterVec
	StanzasReceived     *prometheus.CounterVec
	StanzasSent         prometheus.Counter
	BytesRead           prometheus.Counter
	BytesWritten        prometheus.Counter
	Resolves            *prometheus.CounterVec
	HandshakeDuration   prometheus.Histogram
}

// New registers the collectors with reg.
// If reg is nil the collectors are created but not registered.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	f := promauto.With(reg)

	return &Metrics{
		SessionsEstablished: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_established",
			Help:      "Number of sessions that completed authentication and are online",
		}),
		Connects: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connects_total",
			Help:      "Total number of connection attempts by outcome",
		}, []string{"result"}),
		Disconnects: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "disconnects_total",
			Help:      "Total number of disconnects by class",
		}, []string{"class"}),
		StanzasReceived: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stanzas_received_total",
			Help:      "Total number of top level elements received by name",
		}, []string{"name"}),
		StanzasSent: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stanzas_sent_total",
			Help:      "Total number of stanzas queued for sending",
		}),
		BytesRead: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "read_bytes_total",
			Help:      "Total number of stream bytes read after decryption",
		}),
		BytesWritten: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "written_bytes_total",
			Help:      "Total number of stream bytes written before encryption",
		}),
		Resolves: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolves_total",
			Help:      "Total number of server address lookups by outcome",
		}, []string{"result"}),
		HandshakeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tls_handshake_duration_seconds",
			Help:      "Duration of completed TLS handshakes in seconds",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
	}
}

// Connect records the outcome of a connection attempt.
func (m *Metrics) Connect(ok bool) {
	if m == nil {
		return
	}
	m.Connects.WithLabelValues(result(ok)).Inc()
	if ok {
		m.SessionsEstablished.Inc()
	}
}

// Disconnect records a teardown.
// established reports whether the session had been online.
func (m *Metrics) Disconnect(class string, established bool) {
	if m == nil {
		return
	}
	m.Disconnects.WithLabelValues(class).Inc()
	if established {
		m.SessionsEstablished.Dec()
	}
}

// Received records an inbound top level element.
func (m *Metrics) Received(name string) {
	if m == nil {
		return
	}
	m.StanzasReceived.WithLabelValues(name).Inc()
}

// Sent records an outbound stanza.
func (m *Metrics) Sent() {
	if m == nil {
		return
	}
	m.StanzasSent.Inc()
}

// Read records stream bytes read.
func (m *Metrics) Read(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.BytesRead.Add(float64(n))
}

// Written records stream bytes written.
func (m *Metrics) Written(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.BytesWritten.Add(float64(n))
}

// Resolve records the outcome of an address lookup.
func (m *Metrics) Resolve(ok bool) {
	if m == nil {
		return
	}
	m.Resolves.WithLabelValues(result(ok)).Inc()
}

// Handshake records the duration of a completed TLS handshake.
func (m *Metrics) Handshake(d time.Duration) {
	if m == nil {
		return
	}
	m.HandshakeDuration.Observe(d.Seconds())
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
