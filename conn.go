// Copyright 2016 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package xmpp

import (
	"fmt"
	"net/netip"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"mellium.im/imcore/event"
	"mellium.im/imcore/tlsstep"
	"mellium.im/imcore/watch"
)

// Connect starts connecting the session and returns immediately.
// Progress is reported through events: a Connected event once the session is
// authenticated, a Disconnected event if an opened connection fails, or a
// conn_failed notice if the server could not be resolved.
func (s *Session) Connect() error {
	switch {
	case s.e.closed:
		return ErrClosed
	case s.state != Disconnected:
		return ErrConnected
	}
	s.touch()
	s.setState(Resolving)
	gen := s.gen
	h, err := s.e.res.Resolve(s.cfg.Server, s.cfg.Family, func(addr netip.Addr, err error) {
		if gen != s.gen || s.state != Resolving {
			return
		}
		s.resolve = 0
		if err != nil {
			s.resolveFailed(err)
			return
		}
		s.e.opts.metrics.Resolve(true)
		s.dial(addr)
	})
	if err != nil {
		s.resolveFailed(err)
		return err
	}
	s.resolve = h
	return nil
}

// resolveFailed returns to Disconnected without a Disconnected event since no
// connection was ever opened.
func (s *Session) resolveFailed(err error) {
	s.log.Warn("resolving server failed", zap.String("server", s.cfg.Server), zap.Error(err))
	s.e.opts.metrics.Resolve(false)
	s.e.opts.metrics.Connect(false)
	s.gen++
	s.setState(Disconnected)
	s.notice(event.NoticeConnFailed, err.Error())
}

func sockaddr(addr netip.Addr, port int) (int, unix.Sockaddr) {
	addr = addr.Unmap()
	if addr.Is4() {
		return unix.AF_INET, &unix.SockaddrInet4{Port: port, Addr: addr.As4()}
	}
	return unix.AF_INET6, &unix.SockaddrInet6{Port: port, Addr: addr.As16()}
}

func (s *Session) dial(addr netip.Addr) {
	port := s.cfg.port()
	domain, sa := sockaddr(addr, port)
	fd, err := unix.Socket(domain, unix.SOCK_STREAM, 0)
	if err != nil {
		s.teardown(fmt.Sprintf("opening socket: %v", err), event.ClassFailure)
		return
	}
	s.fd = fd
	s.setState(Connecting)
	s.log.Debug("connecting", zap.Stringer("addr", addr), zap.Int("port", port), zap.Int("fd", fd))
	unix.CloseOnExec(fd)
	if err := unix.SetNonblock(fd, true); err != nil {
		s.teardown(fmt.Sprintf("opening socket: %v", err), event.ClassFailure)
		return
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1); err != nil {
		s.log.Debug("enabling keepalive failed", zap.Error(err))
	}
	if err := unix.Connect(fd, sa); err != nil && err != unix.EINPROGRESS {
		s.teardown(err.Error(), event.ClassFailure)
		return
	}
	s.writeW = s.e.reg.Watch(fd, watch.Write, s.onConnectReady)
}

func (s *Session) onConnectReady(fd int, _ watch.Dir) {
	s.e.reg.Remove(s.writeW)
	s.writeW = 0
	errno, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	switch {
	case err != nil:
		s.teardown(err.Error(), event.ClassFailure)
		return
	case errno != 0:
		s.teardown(unix.Errno(errno).Error(), event.ClassFailure)
		return
	}
	if s.cfg.TLS {
		s.setState(Handshaking)
		s.tls = s.e.opts.tlsClient(fd, s.cfg.TLSConfig)
		s.hsStart = s.e.opts.clock.Now()
		s.handshake()
		return
	}
	s.openStream()
}

// handshake advances the TLS handshake by one step.
// While the handshake is waiting exactly one watch is registered for it, in
// the direction it asked for.
func (s *Session) handshake() {
	s.e.reg.Remove(s.hsW)
	s.hsW = 0
	want, err := s.tls.Handshake()
	if err != nil {
		s.teardown(fmt.Sprintf("TLS handshake failed: %v", err), event.ClassFailure)
		return
	}
	switch want {
	case tlsstep.WantRead:
		s.hsW = s.e.reg.Watch(s.fd, watch.Read, s.onHandshakeReady)
	case tlsstep.WantWrite:
		s.hsW = s.e.reg.Watch(s.fd, watch.Write, s.onHandshakeReady)
	default:
		s.e.opts.metrics.Handshake(s.e.opts.clock.Since(s.hsStart))
		cs := s.tls.ConnectionState()
		s.log.Debug("TLS established", zap.Uint16("version", cs.Version), zap.Uint16("cipher", cs.CipherSuite))
		s.openStream()
	}
}

func (s *Session) onHandshakeReady(int, watch.Dir) {
	s.handshake()
}

// teardown closes everything the session holds and returns it to
// Disconnected.
func (s *Session) teardown(reason string, class event.Class) {
	prev := s.state
	if prev == Disconnected {
		return
	}
	s.gen++

	for _, id := range []watch.ID{s.readW, s.writeW, s.hsW} {
		s.e.reg.Remove(id)
	}
	s.readW, s.writeW, s.hsW = 0, 0, 0
	if s.resolve != 0 {
		s.e.res.Cancel(s.resolve)
		s.resolve = 0
	}

	var err error
	if s.tls != nil {
		err = multierr.Append(err, s.tls.Close())
		s.tls = nil
	}
	if s.fd >= 0 {
		err = multierr.Append(err, unix.Close(s.fd))
		s.fd = -1
	}
	if err != nil {
		s.log.Error("closing connection", zap.Error(err))
	}

	s.out = nil
	s.enc = nil
	s.tok = nil
	s.queue = nil
	s.streamID = ""
	s.sasl = nil
	s.saslMore = false
	s.authed = false
	s.bound = ""
	s.newPassword = ""

	s.setState(Disconnected)
	s.lastConn = s.e.opts.clock.Now()
	s.roster.ClearPresence()
	s.rooms.Clear()
	s.nicks = nil

	s.log.Info("disconnected", zap.String("reason", reason), zap.Stringer("class", class), zap.Stringer("state", prev))
	if prev != Established {
		s.e.opts.metrics.Connect(false)
	}
	s.e.opts.metrics.Disconnect(class.String(), prev == Established)
	s.e.emit(event.Disconnected{Header: s.header(), Reason: reason, Class: class})
}
