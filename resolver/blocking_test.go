// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package resolver_test

import (
	"context"
	"errors"
	"net/netip"
	"strconv"
	"testing"
	"time"

	"mellium.im/imcore/internal/watchtest"
	"mellium.im/imcore/resolver"
)

// waitPosted waits until the registry has n posted functions queued.
func waitPosted(t *testing.T, reg *watchtest.Registry, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for reg.Pending() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d posted results", n)
		}
		time.Sleep(time.Millisecond)
	}
}

var blockingTestCases = [...]struct {
	host    string
	family  resolver.Family
	addrs   []string
	lookErr error
	want    string
	wantErr error
	lookup  string
}{
	0: {host: "192.0.2.1", family: resolver.Any, want: "192.0.2.1"},
	1: {host: "192.0.2.1", family: resolver.IPv6, wantErr: resolver.ErrNoAddress},
	2: {host: "example.net", family: resolver.IPv4, addrs: []string{"192.0.2.5"}, want: "192.0.2.5", lookup: "example.net"},
	3: {host: "bücher.example", family: resolver.Any, addrs: []string{"2001:db8::5"}, want: "2001:db8::5", lookup: "xn--bcher-kva.example"},
	4: {host: "example.net", family: resolver.IPv6, addrs: []string{"192.0.2.5"}, wantErr: resolver.ErrNoAddress, lookup: "example.net"},
	5: {host: "example.net", family: resolver.Any, lookErr: errors.New("no such host"), wantErr: resolver.ErrNoAddress, lookup: "example.net"},
	6: {host: "example.net", family: resolver.Any, wantErr: resolver.ErrNoAddress, lookup: "example.net"},
}

func TestBlocking(t *testing.T) {
	for i, tc := range blockingTestCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			reg := watchtest.New()
			looked := make(chan string, 1)
			b := resolver.NewBlocking(reg, resolver.Lookup(func(_ context.Context, _, host string) ([]netip.Addr, error) {
				looked <- host
				var addrs []netip.Addr
				for _, a := range tc.addrs {
					addrs = append(addrs, netip.MustParseAddr(a))
				}
				return addrs, tc.lookErr
			}))

			var results []result
			_, err := b.Resolve(tc.host, tc.family, func(addr netip.Addr, err error) {
				results = append(results, result{addr, err})
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			waitPosted(t, reg, 1)
			reg.Drain()

			if len(results) != 1 {
				t.Fatalf("callback should fire exactly once, fired %d times", len(results))
			}
			if !errors.Is(results[0].err, tc.wantErr) {
				t.Errorf("wrong error: got %v, want %v", results[0].err, tc.wantErr)
			}
			if tc.want != "" && results[0].addr != netip.MustParseAddr(tc.want) {
				t.Errorf("wrong address: got %v, want %s", results[0].addr, tc.want)
			}
			if tc.wantErr != nil && results[0].addr.IsValid() {
				t.Errorf("failure carried an address: %v", results[0].addr)
			}
			select {
			case host := <-looked:
				if host != tc.lookup {
					t.Errorf("wrong lookup host: got %q, want %q", host, tc.lookup)
				}
			default:
				if tc.lookup != "" {
					t.Errorf("system lookup was not used")
				}
			}
		})
	}
}

func TestBlockingCancel(t *testing.T) {
	reg := watchtest.New()
	started := make(chan struct{})
	b := resolver.NewBlocking(reg, resolver.Lookup(func(ctx context.Context, _, _ string) ([]netip.Addr, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}))
	h, err := b.Resolve("example.net", resolver.Any, func(netip.Addr, error) {
		t.Error("callback fired after cancel")
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	<-started
	b.Cancel(h)
	waitPosted(t, reg, 1)
	reg.Drain()
	if n := b.Pending(); n != 0 {
		t.Errorf("lookups left after cancel: %d", n)
	}
}

func TestBlockingEmptyHost(t *testing.T) {
	b := resolver.NewBlocking(watchtest.New())
	if _, err := b.Resolve("", resolver.Any, nil); !errors.Is(err, resolver.ErrEmptyHost) {
		t.Errorf("wrong error: got %v, want %v", err, resolver.ErrEmptyHost)
	}
}

type fakeResolver struct {
	syncErr error
	cb      resolver.Callback
	calls   int
	cancels int
}

func (f *fakeResolver) Resolve(_ string, _ resolver.Family, cb resolver.Callback) (resolver.Handle, error) {
	f.calls++
	if f.syncErr != nil {
		return 0, f.syncErr
	}
	f.cb = cb
	return resolver.Handle(f.calls), nil
}

func (f *fakeResolver) Cancel(resolver.Handle) { f.cancels++ }

func TestChain(t *testing.T) {
	first := &fakeResolver{syncErr: resolver.ErrNoNameservers}
	second := &fakeResolver{}
	third := &fakeResolver{}
	c := resolver.NewChain(first, second, third)

	var results []result
	_, err := c.Resolve("example.net", resolver.Any, func(addr netip.Addr, err error) {
		results = append(results, result{addr, err})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.calls != 1 || second.calls != 1 || third.calls != 0 {
		t.Fatalf("wrong resolvers tried: %d %d %d", first.calls, second.calls, third.calls)
	}

	second.cb(netip.Addr{}, resolver.ErrExhausted)
	if third.calls != 1 || len(results) != 0 {
		t.Fatalf("failure did not fall through to the next resolver")
	}
	want := netip.MustParseAddr("192.0.2.8")
	third.cb(want, nil)
	if len(results) != 1 || results[0].addr != want || results[0].err != nil {
		t.Errorf("wrong results: %v", results)
	}
}

func TestChainAllRefuse(t *testing.T) {
	c := resolver.NewChain(&fakeResolver{syncErr: resolver.ErrNoNameservers}, &fakeResolver{syncErr: resolver.ErrEmptyHost})
	if _, err := c.Resolve("", resolver.Any, nil); !errors.Is(err, resolver.ErrEmptyHost) {
		t.Errorf("wrong error: got %v, want %v", err, resolver.ErrEmptyHost)
	}
}

func TestChainCancel(t *testing.T) {
	inner := &fakeResolver{}
	c := resolver.NewChain(inner)
	h, err := c.Resolve("example.net", resolver.Any, func(netip.Addr, error) {
		t.Error("callback fired after cancel")
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.Cancel(h)
	if inner.cancels != 1 {
		t.Errorf("inner request was not canceled")
	}
	inner.cb(netip.MustParseAddr("192.0.2.1"), nil)
}
