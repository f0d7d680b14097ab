// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package watch

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// Option configures a Loop.
type Option func(*Loop)

// Logger sets the logger used for debug output and dropped watches.
// By default nothing is logged.
func Logger(l *zap.Logger) Option {
	return func(loop *Loop) {
		if l != nil {
			loop.logger = l
		}
	}
}

// Clock sets the time source used to schedule timers.
func Clock(c clock.Clock) Option {
	return func(loop *Loop) {
		if c != nil {
			loop.clock = c
		}
	}
}
