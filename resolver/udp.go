// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package resolver

import (
	"errors"
	"fmt"
	"net/netip"

	"golang.org/x/sys/unix"
)

// ErrWouldBlock is returned by Transport.Recv when no datagram is queued.
var ErrWouldBlock = errors.New("resolver: would block")

const dnsPort = 53

// Transport is the datagram socket used by the stub resolver.
// FD is watched for readability; Recv must not block.
type Transport interface {
	FD() int
	Send(ns netip.Addr, pkt []byte) error
	Recv(buf []byte) (n int, from netip.Addr, err error)
	Close() error
}

type udpTransport struct {
	fd int
	v6 bool
}

// DialUDP opens a non-blocking UDP socket.
// A dual stack socket is preferred so that IPv4 and IPv6 nameservers can share
// it; if the host has no IPv6 support an IPv4 socket is used instead.
func DialUDP() (Transport, error) {
	t := &udpTransport{fd: -1, v6: true}
	fd, err := unix.Socket(unix.AF_INET6, unix.SOCK_DGRAM, 0)
	if err == nil {
		if err = unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, 0); err != nil {
			unix.Close(fd)
		}
	}
	if err != nil {
		t.v6 = false
		fd, err = unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0)
		if err != nil {
			return nil, fmt.Errorf("resolver: opening socket: %w", err)
		}
	}
	unix.CloseOnExec(fd)
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("resolver: opening socket: %w", err)
	}
	t.fd = fd
	return t, nil
}

func (t *udpTransport) FD() int { return t.fd }

func (t *udpTransport) Send(ns netip.Addr, pkt []byte) error {
	var sa unix.Sockaddr
	switch {
	case t.v6:
		sa = &unix.SockaddrInet6{Port: dnsPort, Addr: ns.As16()}
	case ns.Is4():
		sa = &unix.SockaddrInet4{Port: dnsPort, Addr: ns.As4()}
	default:
		return fmt.Errorf("resolver: cannot reach %s from an IPv4 socket", ns)
	}
	return unix.Sendto(t.fd, pkt, 0, sa)
}

func (t *udpTransport) Recv(buf []byte) (int, netip.Addr, error) {
	n, from, err := unix.Recvfrom(t.fd, buf, 0)
	switch {
	case err == unix.EAGAIN || err == unix.EWOULDBLOCK:
		return 0, netip.Addr{}, ErrWouldBlock
	case err != nil:
		return 0, netip.Addr{}, err
	}
	var addr netip.Addr
	switch sa := from.(type) {
	case *unix.SockaddrInet4:
		addr = netip.AddrFrom4(sa.Addr)
	case *unix.SockaddrInet6:
		addr = netip.AddrFrom16(sa.Addr).Unmap()
	}
	return n, addr, nil
}

func (t *udpTransport) Close() error {
	return unix.Close(t.fd)
}
