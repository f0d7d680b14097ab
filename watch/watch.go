// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package watch is a single threaded event notification loop.
//
// Everything in the engine that waits (connect completion, TLS handshake
// readiness, stream reads, resolver replies and timeouts) does so by
// registering a watch with a Registry and returning.
// Handlers are always run on the goroutine that drives the loop, so state
// touched only from handlers needs no locking.
package watch // import "mellium.im/imcore/watch"

import (
	"time"
)

// Dir is the readiness direction of a descriptor watch.
type Dir uint8

// A list of possible directions.
const (
	Read Dir = 1 << iota
	Write
)

func (d Dir) String() string {
	switch d {
	case Read:
		return "read"
	case Write:
		return "write"
	case Read | Write:
		return "read|write"
	}
	return "none"
}

// ID identifies a registered watch or timer.
// The zero ID is never returned by a Registry and removing it is a no-op.
type ID uint64

// Handler is called on the loop goroutine when the descriptor is ready in
// direction d.
// Watches are persistent: the handler keeps firing until the watch is removed.
type Handler func(fd int, d Dir)

// Registry is the set of operations used by code that must wait without
// blocking.
//
// Watch, AfterFunc and Remove must only be called from the loop goroutine.
// Post is safe to call from any goroutine and is the only way other goroutines
// may hand work to the loop.
type Registry interface {
	Watch(fd int, d Dir, h Handler) ID
	AfterFunc(d time.Duration, f func()) ID
	Remove(id ID)
	Post(f func())
}
