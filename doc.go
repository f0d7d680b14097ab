// Copyright 2014 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package xmpp is an asynchronous XMPP client engine.
//
// An Engine drives any number of client sessions from a single event loop.
// Sockets are non-blocking and server names are looked up with the stub
// resolver in package resolver.
// TLS handshakes advance one step per readiness notification.
// Every method of an Engine and its sessions must be called from the
// goroutine running the loop, for example:
//
//	loop, err := watch.New()
//	if err != nil {
//		// handle error
//	}
//	e := xmpp.NewEngine(loop, resolver.NewStub(loop), xmpp.Bus(bus))
//	s, err := e.AddSession(xmpp.Config{UID: "jid:romeo@example.net", Password: "secret"})
//	if err != nil {
//		// handle error
//	}
//	loop.Post(func() { s.Connect() })
//	loop.Run(ctx)
//
// Sessions report progress and everything the server sends through the
// events in package event.
// Contacts and other users are identified by uids, addresses prefixed with
// "jid:".
// Text passed to and from a session is in the session's configured local
// charset and is converted to and from UTF-8 on the wire.
//
// Two login methods are supported: the legacy jabber:iq:auth exchange with a
// plaintext or digest password, and SASL followed by resource binding.
// Direct TLS on a separate port is supported, STARTTLS is not.
package xmpp // import "mellium.im/imcore"
