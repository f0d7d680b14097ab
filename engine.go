// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package xmpp

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"mellium.im/imcore/event"
	"mellium.im/imcore/muc"
	"mellium.im/imcore/resolver"
	"mellium.im/imcore/watch"
)

// Engine owns a set of sessions that share an event loop and a resolver.
//
// An Engine and its sessions are not safe for concurrent use: every method
// must be called from the goroutine that runs the watch.Registry, for instance
// from a function passed to Post.
type Engine struct {
	opts     options
	reg      watch.Registry
	res      resolver.Resolver
	sessions map[string]*Session
	closed   bool
}

// NewEngine returns an engine that waits on reg and looks up servers with res.
func NewEngine(reg watch.Registry, res resolver.Resolver, opts ...Option) *Engine {
	return &Engine{
		opts:     getOpts(opts...),
		reg:      reg,
		res:      res,
		sessions: make(map[string]*Session),
	}
}

// AddSession creates a disconnected session for the account in c.
func (e *Engine) AddSession(c Config) (*Session, error) {
	if e.closed {
		return nil, ErrClosed
	}
	c, addr, codec, err := c.withDefaults()
	if err != nil {
		return nil, err
	}
	if _, ok := e.sessions[c.UID]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicate, c.UID)
	}
	s := &Session{
		e:       e,
		cfg:     c,
		addr:    addr,
		codec:   codec,
		fd:      -1,
		roster:  e.opts.roster(),
		rooms:   &muc.Rooms{},
		status:  c.Status,
		desc:    c.Description,
		log:     e.opts.log.With(zap.String("uid", c.UID)),
		created: e.opts.clock.Now(),
	}
	s.lastActivity = s.created
	e.sessions[c.UID] = s
	s.log.Debug("session added", zap.String("server", c.Server), zap.Int("port", c.port()), zap.Bool("tls", c.TLS))
	return s, nil
}

// RemoveSession disconnects and forgets the session with the given uid.
func (e *Engine) RemoveSession(uid string) error {
	s, ok := e.sessions[uid]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSession, uid)
	}
	s.teardown("session removed", event.ClassUser)
	delete(e.sessions, uid)
	return nil
}

// Session returns the session with the given uid.
func (e *Engine) Session(uid string) (*Session, bool) {
	s, ok := e.sessions[uid]
	return s, ok
}

// Sessions returns every session ordered by uid.
func (e *Engine) Sessions() []*Session {
	out := make([]*Session, 0, len(e.sessions))
	for _, s := range e.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].cfg.UID < out[j].cfg.UID })
	return out
}

// Close disconnects every session.
// Sessions remain readable but may not be connected again.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	for _, s := range e.Sessions() {
		s.Disconnect("")
	}
	return nil
}

func (e *Engine) emit(ev event.Event) {
	e.opts.bus.Emit(ev)
}
