// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package xmpp

import (
	"crypto/tls"
	"errors"
	"strconv"
	"testing"

	"mellium.im/imcore/resolver"
	"mellium.im/imcore/roster"
)

var configTestCases = [...]struct {
	in   Config
	err  error
	fail bool
	want func(Config) bool
}{
	0: {in: Config{UID: "romeo@example.net"}, err: ErrBadUID},
	1: {in: Config{UID: "jid:example.net"}, err: ErrBadUID},
	2: {in: Config{UID: "jid:romeo@example.net", Charset: "klingon"}, fail: true},
	3: {
		in: Config{UID: "jid:Romeo@example.net/orchard"},
		want: func(c Config) bool {
			return c.UID == "jid:romeo@example.net" && c.Server == "example.net" &&
				c.Port == DefaultPort && c.TLSPort == DefaultTLSPort && c.Priority == DefaultPriority &&
				c.Resource == "orchard" && c.Charset == "utf-8" && c.Family == resolver.Any &&
				c.Status == roster.Available && c.ClientName == DefaultResource &&
				c.TLSConfig.ServerName == "example.net" && c.port() == DefaultPort
		},
	},
	4: {
		in: Config{UID: "jid:romeo@example.net", Server: "xmpp.example.net", TLS: true, TLSPort: 443, Resource: "balcony", Priority: -1},
		want: func(c Config) bool {
			return c.Server == "xmpp.example.net" && c.port() == 443 && c.Resource == "balcony" && c.Priority == -1 &&
				c.TLSConfig.ServerName == "example.net"
		},
	},
	5: {
		in: Config{UID: "jid:romeo@example.net", TLSConfig: &tls.Config{ServerName: "other.example"}},
		want: func(c Config) bool {
			return c.TLSConfig.ServerName == "other.example"
		},
	},
}

func TestConfigDefaults(t *testing.T) {
	for i, tc := range configTestCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			c, _, _, err := tc.in.withDefaults()
			switch {
			case tc.err != nil:
				if !errors.Is(err, tc.err) {
					t.Fatalf("wrong error: got %v, want %v", err, tc.err)
				}
				return
			case tc.fail:
				if err == nil {
					t.Fatalf("expected an error")
				}
				return
			case err != nil:
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.want(c) {
				t.Errorf("unexpected config: %+v", c)
			}
		})
	}
}

func TestConfigTLSNotShared(t *testing.T) {
	shared := &tls.Config{}
	c, _, _, err := Config{UID: "jid:romeo@example.net", TLSConfig: shared}.withDefaults()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shared.ServerName != "" || c.TLSConfig == shared {
		t.Errorf("caller's TLS config was modified")
	}
}

func TestStateString(t *testing.T) {
	for st, want := range map[State]string{
		Disconnected: "disconnected",
		StreamOpen:   "stream-open",
		Established:  "established",
		State(42):    "State(42)",
	} {
		if got := st.String(); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
}
