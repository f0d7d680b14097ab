// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package watchtest provides a recording watch.Registry for tests.
package watchtest // import "mellium.im/imcore/internal/watchtest"

import (
	"sort"
	"sync"
	"time"

	"mellium.im/imcore/watch"
)

// Watch is a registered descriptor watch.
type Watch struct {
	ID  watch.ID
	FD  int
	Dir watch.Dir
	H   watch.Handler
}

// Timer is a registered timer.
type Timer struct {
	ID    watch.ID
	After time.Duration
	F     func()
}

// Registry records registrations instead of polling.
// Nothing runs until the test fires a watch or timer, or drains posts.
type Registry struct {
	next    watch.ID
	watches map[watch.ID]Watch
	timers  map[watch.ID]Timer

	// Added counts every Watch call per direction, including watches that
	// were later removed.
	Added map[watch.Dir]int

	mu     sync.Mutex
	posted []func()
}

// New returns an empty recording registry.
func New() *Registry {
	return &Registry{
		watches: make(map[watch.ID]Watch),
		timers:  make(map[watch.ID]Timer),
		Added:   make(map[watch.Dir]int),
	}
}

// Watch implements watch.Registry.
func (r *Registry) Watch(fd int, d watch.Dir, h watch.Handler) watch.ID {
	r.next++
	r.watches[r.next] = Watch{ID: r.next, FD: fd, Dir: d, H: h}
	r.Added[d]++
	return r.next
}

// AfterFunc implements watch.Registry.
func (r *Registry) AfterFunc(d time.Duration, f func()) watch.ID {
	r.next++
	r.timers[r.next] = Timer{ID: r.next, After: d, F: f}
	return r.next
}

// Remove implements watch.Registry.
func (r *Registry) Remove(id watch.ID) {
	delete(r.watches, id)
	delete(r.timers, id)
}

// Post implements watch.Registry.
func (r *Registry) Post(f func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posted = append(r.posted, f)
}

// Watches returns the live descriptor watches ordered by ID.
func (r *Registry) Watches() []Watch {
	w := make([]Watch, 0, len(r.watches))
	for _, v := range r.watches {
		w = append(w, v)
	}
	sort.Slice(w, func(i, j int) bool { return w[i].ID < w[j].ID })
	return w
}

// Timers returns the pending timers ordered by ID.
func (r *Registry) Timers() []Timer {
	t := make([]Timer, 0, len(r.timers))
	for _, v := range r.timers {
		t = append(t, v)
	}
	sort.Slice(t, func(i, j int) bool { return t[i].ID < t[j].ID })
	return t
}

// Len reports the number of live watches and timers.
func (r *Registry) Len() int {
	return len(r.watches) + len(r.timers)
}

// Fire runs the handler of every live watch on fd that includes d.
func (r *Registry) Fire(fd int, d watch.Dir) int {
	var n int
	for _, w := range r.Watches() {
		if w.FD != fd || w.Dir&d == 0 {
			continue
		}
		if _, ok := r.watches[w.ID]; !ok {
			continue
		}
		w.H(fd, w.Dir&d)
		n++
	}
	return n
}

// FireTimer runs and removes the oldest pending timer.
// It reports false if no timer was pending.
func (r *Registry) FireTimer() bool {
	t := r.Timers()
	if len(t) == 0 {
		return false
	}
	delete(r.timers, t[0].ID)
	t[0].F()
	return true
}

// Drain runs posted functions until none are left and returns how many ran.
func (r *Registry) Drain() int {
	var n int
	for {
		r.mu.Lock()
		posted := r.posted
		r.posted = nil
		r.mu.Unlock()
		if len(posted) == 0 {
			return n
		}
		for _, f := range posted {
			f()
			n++
		}
	}
}

// Pending reports the number of posted functions not yet drained.
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.posted)
}
