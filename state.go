// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

//go:generate go run -tags=tools golang.org/x/tools/cmd/stringer -type=State -linecomment

package xmpp

// State is the connection state of a session.
// States are ordered: a session only moves forward until it is torn down and
// returns to Disconnected.
type State uint8

// A list of session states.
const (
	Disconnected   State = iota // disconnected
	Resolving                   // resolving
	Connecting                  // connecting
	Handshaking                 // handshaking
	StreamOpen                  // stream-open
	Authenticating              // authenticating
	Established                 // established
)
