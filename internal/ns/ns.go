// Copyright 2016 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package ns provides namespace constants that are used by the xmpp package and
// other internal packages.
package ns // import "mellium.im/imcore/internal/ns"

// List of commonly used namespaces.
const (
	Client  = "jabber:client"
	Stream  = "http://etherx.jabber.org/streams"
	Bind    = "urn:ietf:params:xml:ns:xmpp-bind"
	SASL    = "urn:ietf:params:xml:ns:xmpp-sasl"
	Stanzas = "urn:ietf:params:xml:ns:xmpp-stanzas"

	Auth     = "jabber:iq:auth"
	Roster   = "jabber:iq:roster"
	Register = "jabber:iq:register"
	Version  = "jabber:iq:version"
	Last     = "jabber:iq:last"
	VCard    = "vcard-temp"
	Items    = "http://jabber.org/protocol/disco#items"

	Event       = "jabber:x:event"
	OOB         = "jabber:x:oob"
	Data        = "jabber:x:data"
	Delay       = "urn:xmpp:delay"
	LegacyDelay = "jabber:x:delay"
	MUC         = "http://jabber.org/protocol/muc"
	MUCUser     = "http://jabber.org/protocol/muc#user"
	Receipts    = "urn:xmpp:receipts"
	ChatState   = "http://jabber.org/protocol/chatstates"
)
