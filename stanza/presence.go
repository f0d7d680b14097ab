// Copyright 2016 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package stanza

import (
	"encoding/xml"

	"mellium.im/xmlstream"
)

// Presence is the header of an outbound presence stanza.
// Addresses must already be in wire form.
type Presence struct {
	ID   string
	To   string
	Type PresenceType
}

// StartElement converts the Presence into an XML token.
func (p Presence) StartElement() xml.StartElement {
	return start("presence", p.ID, p.To, string(p.Type))
}

// Wrap wraps the payload in a presence stanza.
func (p Presence) Wrap(payload xml.TokenReader) xml.TokenReader {
	return xmlstream.Wrap(payload, p.StartElement())
}

// PresenceType is the type of a presence stanza.
type PresenceType string

const (
	// AvailablePresence signals that the entity is available for
	// communication.
	AvailablePresence PresenceType = ""

	// ErrorPresence reports a failure to process a presence we sent.
	ErrorPresence PresenceType = "error"

	// ProbePresence asks for an entity's current presence.
	ProbePresence PresenceType = "probe"

	// SubscribePresence asks for a subscription to the recipient's presence.
	SubscribePresence PresenceType = "subscribe"

	// SubscribedPresence grants a subscription.
	SubscribedPresence PresenceType = "subscribed"

	// UnavailablePresence signals that the entity is no longer available.
	UnavailablePresence PresenceType = "unavailable"

	// UnsubscribePresence cancels our subscription to the recipient.
	UnsubscribePresence PresenceType = "unsubscribe"

	// UnsubscribedPresence denies or revokes a subscription.
	UnsubscribedPresence PresenceType = "unsubscribed"

	// InvisiblePresence is the pre-privacy-lists way of being online without
	// being seen, understood by some older servers.
	InvisiblePresence PresenceType = "invisible"
)

func start(name, id, to, typ string) xml.StartElement {
	attr := make([]xml.Attr, 0, 3)
	if id != "" {
		attr = append(attr, xml.Attr{Name: xml.Name{Local: "id"}, Value: id})
	}
	if to != "" {
		attr = append(attr, xml.Attr{Name: xml.Name{Local: "to"}, Value: to})
	}
	if typ != "" {
		attr = append(attr, xml.Attr{Name: xml.Name{Local: "type"}, Value: typ})
	}
	return xml.StartElement{Name: xml.Name{Local: name}, Attr: attr}
}

// Text returns a token stream for an element containing only character data.
// The element is in the namespace of its parent.
func Text(name, text string) xml.TokenReader {
	return xmlstream.Wrap(
		xmlstream.Token(xml.CharData(text)),
		xml.StartElement{Name: xml.Name{Local: name}},
	)
}

// Element returns a token stream for an element in namespace xmlns (or the
// parent's namespace if xmlns is empty) containing the given children.
func Element(name, xmlns string, children ...xml.TokenReader) xml.TokenReader {
	var inner xml.TokenReader
	if len(children) > 0 {
		inner = xmlstream.MultiReader(children...)
	}
	return xmlstream.Wrap(inner, xml.StartElement{Name: xml.Name{Space: xmlns, Local: name}})
}
