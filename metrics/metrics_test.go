// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"mellium.im/imcore/metrics"
)

func TestNilMetrics(t *testing.T) {
	var m *metrics.Metrics
	m.Connect(true)
	m.Disconnect("user", true)
	m.Received("iq")
	m.Sent()
	m.Read(10)
	m.Written(10)
	m.Resolve(false)
	m.Handshake(time.Second)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg, "")

	m.Connect(true)
	m.Connect(true)
	m.Connect(false)
	m.Disconnect("network", true)
	m.Received("iq")
	m.Received("iq")
	m.Received("message")
	m.Read(100)
	m.Read(-1)
	m.Written(42)
	m.Resolve(true)

	if v := testutil.ToFloat64(m.SessionsEstablished); v != 1 {
		t.Errorf("wrong number of established sessions: %v", v)
	}
	if v := testutil.ToFloat64(m.Connects.WithLabelValues("success")); v != 2 {
		t.Errorf("wrong number of successful connects: %v", v)
	}
	if v := testutil.ToFloat64(m.StanzasReceived.WithLabelValues("iq")); v != 2 {
		t.Errorf("wrong number of iqs: %v", v)
	}
	if v := testutil.ToFloat64(m.BytesRead); v != 100 {
		t.Errorf("wrong number of bytes read: %v", v)
	}
	if v := testutil.ToFloat64(m.BytesWritten); v != 42 {
		t.Errorf("wrong number of bytes written: %v", v)
	}

	n, err := testutil.GatherAndCount(reg)
	if err != nil {
		t.Fatalf("error gathering: %v", err)
	}
	if n == 0 {
		t.Errorf("expected registered metrics")
	}
}
