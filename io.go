// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package xmpp

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
	"mellium.im/xmlstream"

	"mellium.im/imcore/event"
	"mellium.im/imcore/internal/ns"
	"mellium.im/imcore/internal/xmltok"
	"mellium.im/imcore/stanza"
	"mellium.im/imcore/tlsstep"
	"mellium.im/imcore/watch"
)

// readSize is the most read from the connection per readiness notification.
const readSize = 4096

// maxTokenSize bounds a single tag or run of character data from the server.
const maxTokenSize = 1 << 20

var errWouldBlock = errors.New("xmpp: read would block")

// outBuffer collects encoder output in the session write buffer.
type outBuffer []byte

func (b *outBuffer) Write(p []byte) (int, error) {
	*b = append(*b, p...)
	return len(p), nil
}

func (s *Session) streamHeader() string {
	version := ""
	if s.cfg.Auth == AuthSASL {
		version = ` version="1.0"`
	}
	return `<?xml version="1.0" encoding="utf-8"?><stream:stream to="` +
		s.codec.Escape(s.addr.Domainpart()) + `"` + version +
		` xmlns="` + ns.Client + `" xmlns:stream="` + ns.Stream + `">`
}

// openStream writes the stream header on a fresh tokenizer and starts
// authenticating.
func (s *Session) openStream() {
	s.setState(StreamOpen)
	s.resetStream()
	if s.readW == 0 {
		s.readW = s.e.reg.Watch(s.fd, watch.Read, s.onReadable)
	}
	if err := s.writeRaw(s.streamHeader()); err != nil {
		return
	}
	s.setState(Authenticating)
}

// resetStream discards the parser state of the current stream, including any
// stanzas not yet dispatched.
func (s *Session) resetStream() {
	s.streamID = ""
	s.queue = nil
	s.tok = xmltok.New(stanza.NewBuilder(streamHandler{s}))
	s.tok.SetMaxTokenSize(maxTokenSize)
	s.enc = xml.NewEncoder((*outBuffer)(&s.out))
}

// send encodes r into the write buffer and flushes as much as possible.
func (s *Session) send(r xml.TokenReader) error {
	if s.enc == nil || s.state < StreamOpen {
		return ErrNotConnected
	}
	mark := len(s.out)
	if _, err := xmlstream.Copy(s.enc, r); err != nil {
		s.out = s.out[:mark]
		return err
	}
	if err := s.enc.Flush(); err != nil {
		s.out = s.out[:mark]
		return err
	}
	if ce := s.log.Check(zap.DebugLevel, "sending"); ce != nil {
		ce.Write(zap.ByteString("xml", s.out[mark:]))
	}
	s.e.opts.metrics.Sent()
	return s.write()
}

func (s *Session) writeRaw(raw string) error {
	if s.fd < 0 {
		return ErrNotConnected
	}
	s.out = append(s.out, raw...)
	return s.write()
}

// write flushes the buffer and tears the session down if that fails.
func (s *Session) write() error {
	if err := s.flush(); err != nil {
		s.teardown(err.Error(), event.ClassNetwork)
		return err
	}
	return nil
}

// flush writes buffered output until the descriptor would block.
// A write watch stays registered for as long as output remains.
func (s *Session) flush() error {
	if s.tls != nil {
		if len(s.out) > 0 {
			if _, err := s.tls.Write(s.out); err != nil {
				return err
			}
			s.e.opts.metrics.Written(len(s.out))
			s.out = s.out[:0]
		}
		err := s.tls.Flush()
		switch {
		case errors.Is(err, tlsstep.ErrWouldBlock):
			s.armWrite()
			return nil
		case err != nil:
			return err
		}
		s.disarmWrite()
		return nil
	}

	for len(s.out) > 0 {
		n, err := unix.Write(s.fd, s.out)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN:
			s.armWrite()
			return nil
		case err != nil:
			return err
		}
		s.e.opts.metrics.Written(n)
		s.out = s.out[n:]
	}
	s.out = s.out[:0]
	s.disarmWrite()
	return nil
}

func (s *Session) armWrite() {
	if s.writeW == 0 {
		s.writeW = s.e.reg.Watch(s.fd, watch.Write, s.onWritable)
	}
}

func (s *Session) disarmWrite() {
	s.e.reg.Remove(s.writeW)
	s.writeW = 0
}

func (s *Session) onWritable(int, watch.Dir) {
	s.write()
}

func (s *Session) read(p []byte) (int, error) {
	if s.tls != nil {
		n, err := s.tls.Read(p)
		if errors.Is(err, tlsstep.ErrWouldBlock) {
			return n, errWouldBlock
		}
		return n, err
	}
	for {
		n, err := unix.Read(s.fd, p)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN:
			return 0, errWouldBlock
		case err != nil:
			return 0, err
		case n == 0:
			return 0, io.EOF
		}
		return n, nil
	}
}

// onReadable reads one chunk and feeds it to the tokenizer.
// TLS may hold decrypted data that will never make the descriptor readable
// again, so while TLS is in use another read is posted until it would block.
func (s *Session) onReadable(int, watch.Dir) {
	var buf [readSize]byte
	n, err := s.read(buf[:])
	switch {
	case errors.Is(err, errWouldBlock) && n == 0:
		return
	case errors.Is(err, io.EOF):
		s.teardown("connection closed by server", event.ClassNetwork)
		return
	case err != nil && !errors.Is(err, errWouldBlock):
		s.teardown(err.Error(), event.ClassNetwork)
		return
	}
	s.e.opts.metrics.Read(n)
	gen := s.gen
	s.feed(buf[:n])
	if s.gen == gen && s.tls != nil {
		s.e.reg.Post(func() {
			if s.gen == gen && s.readW != 0 {
				s.onReadable(s.fd, watch.Read)
			}
		})
	}
}

// feed tokenizes p and then dispatches the stanzas it completed, in order.
// Dispatch stops if a handler restarts or tears down the stream.
func (s *Session) feed(p []byte) {
	tok := s.tok
	_, err := tok.Write(p)
	for len(s.queue) > 0 && s.tok == tok {
		f := s.queue[0]
		s.queue = s.queue[1:]
		f()
	}
	if err != nil && s.tok == tok {
		s.log.Warn("malformed stream", zap.Error(err))
		s.notice(event.NoticeXMLError, err.Error())
		s.teardown(fmt.Sprintf("XML error: %v", err), event.ClassProtocol)
	}
}
