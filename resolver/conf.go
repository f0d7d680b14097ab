// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package resolver

import (
	"fmt"
	"io"
	"net/netip"
	"os"

	"github.com/miekg/dns"
)

const (
	// DefaultConfPath is the location of the system resolver configuration.
	DefaultConfPath = "/etc/resolv.conf"

	// MaxNameservers is the maximum number of nameservers taken from the
	// resolver configuration.
	MaxNameservers = 3
)

// ReadConf loads the nameserver list from the resolver configuration at path.
func ReadConf(path string) ([]netip.Addr, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("resolver: reading %s: %w", path, err)
	}
	defer f.Close()
	return ParseConf(f)
}

// ParseConf reads "nameserver" directives from a resolv.conf formatted reader.
// Entries that are not IP addresses or that are unspecified (0.0.0.0, ::) are
// skipped, and at most MaxNameservers entries are returned.
func ParseConf(r io.Reader) ([]netip.Addr, error) {
	cc, err := dns.ClientConfigFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("resolver: parsing configuration: %w", err)
	}
	var servers []netip.Addr
	for _, s := range cc.Servers {
		addr, err := netip.ParseAddr(s)
		if err != nil || addr.IsUnspecified() {
			continue
		}
		servers = append(servers, addr.Unmap())
		if len(servers) == MaxNameservers {
			break
		}
	}
	return servers, nil
}
