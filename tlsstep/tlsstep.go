// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package tlsstep drives a TLS client over a non-blocking descriptor one step
// at a time.
//
// The handshake is performed by crypto/tls.
// Each call to Handshake runs it until it either completes or would block, in
// which case the direction it is waiting on is reported and the caller is
// expected to call Handshake again once the descriptor is ready in that
// direction.
// The goroutine running the handshake only makes progress while Handshake is
// being called, so a Conn is never touched by two goroutines at once.
package tlsstep // import "mellium.im/imcore/tlsstep"

import (
	"crypto/tls"
	"errors"
	"io"
	"net"
	"time"

	"golang.org/x/sys/unix"
)

// Want is the outcome of a handshake step.
type Want int

// A list of handshake step outcomes.
const (
	Done Want = iota
	WantRead
	WantWrite
)

// String returns "done", "read" or "write".
func (w Want) String() string {
	switch w {
	case WantRead:
		return "read"
	case WantWrite:
		return "write"
	}
	return "done"
}

type wouldBlock struct{}

func (wouldBlock) Error() string   { return "tlsstep: operation would block" }
func (wouldBlock) Timeout() bool   { return true }
func (wouldBlock) Temporary() bool { return true }

// ErrWouldBlock is returned by Read when no complete record is available and
// by Flush when the descriptor cannot accept more data.
// It is a temporary net.Error, which crypto/tls does not treat as fatal.
var ErrWouldBlock net.Error = wouldBlock{}

// ErrClosed is returned by operations on a closed Conn.
var ErrClosed = errors.New("tlsstep: use of closed connection")

// Conn is a TLS client connection over a raw descriptor.
// It does not own the descriptor: Close sends a close notification but leaves
// the descriptor open.
type Conn struct {
	raw     *rawConn
	tls     *tls.Conn
	started bool
	done    bool
	closed  bool
	err     error
}

// Client returns a TLS client on the connected non-blocking descriptor fd.
func Client(fd int, config *tls.Config) *Conn {
	raw := &rawConn{
		fd:     fd,
		step:   make(chan struct{}),
		want:   make(chan Want, 1),
		quit:   make(chan struct{}),
		hshake: true,
	}
	return &Conn{
		raw: raw,
		tls: tls.Client(raw, config),
	}
}

// Handshake runs the handshake until it completes or would block.
// Once the handshake has finished, further calls return its result again.
func (c *Conn) Handshake() (Want, error) {
	if c.closed {
		return Done, ErrClosed
	}
	if c.done {
		return Done, c.err
	}
	if !c.started {
		c.started = true
		go c.run()
	} else {
		c.raw.step <- struct{}{}
	}
	w := <-c.raw.want
	if w == Done {
		c.done = true
		c.raw.hshake = false
		return Done, c.err
	}
	return w, nil
}

func (c *Conn) run() {
	c.err = c.tls.Handshake()
	c.raw.want <- Done
}

// Read reads decrypted application data.
// It returns ErrWouldBlock if no complete record could be read.
// Because records are buffered, callers should keep reading until
// ErrWouldBlock is returned rather than waiting for the descriptor to become
// readable again.
func (c *Conn) Read(p []byte) (int, error) {
	if c.closed {
		return 0, ErrClosed
	}
	return c.tls.Read(p)
}

// Write encrypts p.
// The ciphertext is buffered until Flush is called, so Write never blocks.
func (c *Conn) Write(p []byte) (int, error) {
	if c.closed {
		return 0, ErrClosed
	}
	return c.tls.Write(p)
}

// Flush writes buffered ciphertext to the descriptor.
// It returns ErrWouldBlock if some of it remains buffered.
func (c *Conn) Flush() error {
	return c.raw.flush()
}

// Buffered returns the number of ciphertext bytes waiting for Flush.
func (c *Conn) Buffered() int {
	return len(c.raw.out)
}

// ConnectionState returns the state of the connection.
func (c *Conn) ConnectionState() tls.ConnectionState {
	return c.tls.ConnectionState()
}

// Close sends a close notification if the handshake completed, makes a single
// attempt to flush it, and stops the handshake goroutine if it is still
// running.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.started && !c.done {
		close(c.raw.quit)
		return nil
	}
	if !c.done {
		return nil
	}
	err := c.tls.Close()
	if ferr := c.raw.flush(); err == nil && !errors.Is(ferr, ErrWouldBlock) {
		err = ferr
	}
	return err
}

// rawConn is the net.Conn given to crypto/tls.
// While the handshake runs it parks the handshake goroutine whenever the
// descriptor would block; afterwards reads fail with ErrWouldBlock and writes
// are buffered.
type rawConn struct {
	fd     int
	out    []byte
	hshake bool
	step   chan struct{}
	want   chan Want
	quit   chan struct{}
}

func (r *rawConn) park(w Want) error {
	r.want <- w
	select {
	case <-r.step:
		return nil
	case <-r.quit:
		return net.ErrClosed
	}
}

func (r *rawConn) Read(p []byte) (int, error) {
	for {
		n, err := unix.Read(r.fd, p)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN:
			if !r.hshake {
				return 0, ErrWouldBlock
			}
			if err := r.park(WantRead); err != nil {
				return 0, err
			}
			continue
		case err != nil:
			return 0, err
		case n == 0:
			return 0, io.EOF
		}
		return n, nil
	}
}

func (r *rawConn) Write(p []byte) (int, error) {
	r.out = append(r.out, p...)
	if !r.hshake {
		return len(p), nil
	}
	for len(r.out) > 0 {
		err := r.flush()
		if err == nil {
			break
		}
		if !errors.Is(err, ErrWouldBlock) {
			return 0, err
		}
		if err := r.park(WantWrite); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func (r *rawConn) flush() error {
	for len(r.out) > 0 {
		n, err := unix.Write(r.fd, r.out)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN:
			return ErrWouldBlock
		case err != nil:
			return err
		}
		r.out = r.out[n:]
	}
	r.out = nil
	return nil
}

func (r *rawConn) Close() error                       { return nil }
func (r *rawConn) LocalAddr() net.Addr                { return nil }
func (r *rawConn) RemoteAddr() net.Addr               { return nil }
func (r *rawConn) SetDeadline(t time.Time) error      { return nil }
func (r *rawConn) SetReadDeadline(t time.Time) error  { return nil }
func (r *rawConn) SetWriteDeadline(t time.Time) error { return nil }
