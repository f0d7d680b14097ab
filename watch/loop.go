// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package watch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// ErrClosed is returned when running a loop that has been closed.
var ErrClosed = errors.New("watch: loop closed")

type fdWatch struct {
	fd  int
	dir Dir
	h   Handler
}

type timer struct {
	at time.Time
	f  func()
}

// Loop is a Registry backed by poll(2).
// The zero value is not usable, create loops with New.
type Loop struct {
	logger *zap.Logger
	clock  clock.Clock

	mu     sync.Mutex
	posted []func()
	closed bool
	wakeR  int
	wakeW  int

	next    ID
	watches map[ID]fdWatch
	timers  map[ID]timer
}

// New creates a loop and its wake pipe.
func New(opts ...Option) (*Loop, error) {
	l := &Loop{
		logger:  zap.NewNop(),
		clock:   clock.New(),
		watches: make(map[ID]fdWatch),
		timers:  make(map[ID]timer),
	}
	for _, o := range opts {
		o(l)
	}

	var p [2]int
	if err := unix.Pipe(p[:]); err != nil {
		return nil, fmt.Errorf("watch: creating wake pipe: %w", err)
	}
	for _, fd := range p {
		unix.CloseOnExec(fd)
		if err := unix.SetNonblock(fd, true); err != nil {
			return nil, multierr.Combine(
				fmt.Errorf("watch: wake pipe: %w", err),
				unix.Close(p[0]),
				unix.Close(p[1]),
			)
		}
	}
	l.wakeR, l.wakeW = p[0], p[1]
	return l, nil
}

func (l *Loop) nextID() ID {
	l.next++
	return l.next
}

// Watch implements Registry.
func (l *Loop) Watch(fd int, d Dir, h Handler) ID {
	id := l.nextID()
	l.watches[id] = fdWatch{fd: fd, dir: d, h: h}
	l.logger.Debug("watch added", zap.Uint64("id", uint64(id)), zap.Int("fd", fd), zap.Stringer("dir", d))
	return id
}

// AfterFunc implements Registry.
func (l *Loop) AfterFunc(d time.Duration, f func()) ID {
	id := l.nextID()
	l.timers[id] = timer{at: l.clock.Now().Add(d), f: f}
	return id
}

// Remove implements Registry.
func (l *Loop) Remove(id ID) {
	if id == 0 {
		return
	}
	delete(l.watches, id)
	delete(l.timers, id)
}

// Post implements Registry.
// Functions posted after the loop is closed are dropped.
func (l *Loop) Post(f func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.posted = append(l.posted, f)
	_, err := unix.Write(l.wakeW, []byte{0})
	if err != nil && err != unix.EAGAIN {
		l.logger.Warn("waking loop failed", zap.Error(err))
	}
}

// Len reports the number of registered watches and timers.
func (l *Loop) Len() int {
	return len(l.watches) + len(l.timers)
}

// Run drives the loop until ctx is canceled or polling fails.
func (l *Loop) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { l.Post(func() {}) })
	defer stop()
	for ctx.Err() == nil {
		if err := l.RunOnce(-1); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// RunOnce waits at most max for readiness (forever if max is negative), then
// runs posted functions, ready handlers and expired timers in that order.
func (l *Loop) RunOnce(max time.Duration) error {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return ErrClosed
	}

	ids := make([]ID, 0, len(l.watches))
	for id := range l.watches {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	fds := make([]unix.PollFd, 0, len(ids)+1)
	fds = append(fds, unix.PollFd{Fd: int32(l.wakeR), Events: unix.POLLIN})
	for _, id := range ids {
		w := l.watches[id]
		var events int16
		if w.dir&Read != 0 {
			events |= unix.POLLIN
		}
		if w.dir&Write != 0 {
			events |= unix.POLLOUT
		}
		fds = append(fds, unix.PollFd{Fd: int32(w.fd), Events: events})
	}

	_, err := unix.Poll(fds, l.timeout(max))
	switch {
	case err == unix.EINTR:
		return nil
	case err != nil:
		return fmt.Errorf("watch: poll: %w", err)
	}

	if fds[0].Revents != 0 {
		l.drainWake()
	}
	l.runPosted()

	for i, id := range ids {
		revents := fds[i+1].Revents
		if revents == 0 {
			continue
		}
		w, ok := l.watches[id]
		if !ok {
			// Removed by an earlier handler in this round.
			continue
		}
		if revents&unix.POLLNVAL != 0 {
			l.logger.Warn("dropping watch on invalid descriptor", zap.Uint64("id", uint64(id)), zap.Int("fd", w.fd))
			delete(l.watches, id)
			continue
		}
		var ready Dir
		if revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			ready |= Read
		}
		if revents&(unix.POLLOUT|unix.POLLHUP|unix.POLLERR) != 0 {
			ready |= Write
		}
		if ready &= w.dir; ready != 0 {
			w.h(w.fd, ready)
		}
	}

	l.runTimers()
	return nil
}

func (l *Loop) timeout(max time.Duration) int {
	wait := max
	if len(l.timers) > 0 {
		now := l.clock.Now()
		for _, t := range l.timers {
			d := t.at.Sub(now)
			if d < 0 {
				d = 0
			}
			if wait < 0 || d < wait {
				wait = d
			}
		}
	}
	if wait < 0 {
		return -1
	}
	return int((wait + time.Millisecond - 1) / time.Millisecond)
}

func (l *Loop) drainWake() {
	var buf [64]byte
	for {
		n, err := unix.Read(l.wakeR, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

func (l *Loop) runPosted() {
	l.mu.Lock()
	posted := l.posted
	l.posted = nil
	l.mu.Unlock()
	for _, f := range posted {
		f()
	}
}

func (l *Loop) runTimers() {
	now := l.clock.Now()
	type due struct {
		id ID
		timer
	}
	var fire []due
	for id, t := range l.timers {
		if !t.at.After(now) {
			fire = append(fire, due{id: id, timer: t})
		}
	}
	sort.Slice(fire, func(i, j int) bool {
		if fire[i].at.Equal(fire[j].at) {
			return fire[i].id < fire[j].id
		}
		return fire[i].at.Before(fire[j].at)
	})
	for _, t := range fire {
		if _, ok := l.timers[t.id]; !ok {
			continue
		}
		delete(l.timers, t.id)
		t.f()
	}
}

// Close releases the wake pipe and drops every watch and timer.
// It does not close watched descriptors.
func (l *Loop) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	l.posted = nil
	l.watches = make(map[ID]fdWatch)
	l.timers = make(map[ID]timer)
	return multierr.Combine(unix.Close(l.wakeR), unix.Close(l.wakeW))
}
