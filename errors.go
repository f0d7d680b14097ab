// Copyright 2016 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package xmpp

import (
	"errors"
)

// Errors returned by the XMPP package.
var (
	ErrBadUID          = errors.New("xmpp: invalid session uid")
	ErrDuplicate       = errors.New("xmpp: session already exists")
	ErrNoSession       = errors.New("xmpp: no such session")
	ErrConnected       = errors.New("xmpp: session is already connected or connecting")
	ErrNotConnected    = errors.New("xmpp: session is not connected")
	ErrUnknownResource = errors.New("xmpp: no known resource for contact")
	ErrNotJoined       = errors.New("xmpp: not in that room")
	ErrClosed          = errors.New("xmpp: engine closed")
)
