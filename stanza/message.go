// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package stanza

import (
	"encoding/xml"

	"mellium.im/xmlstream"
)

// Message is the header of an outbound message stanza.
type Message struct {
	ID   string
	To   string
	Type MessageType
}

// MessageType is the type of a message stanza.
type MessageType string

// A list of message types.
const (
	NormalMessage    MessageType = ""
	ChatMessage      MessageType = "chat"
	GroupChatMessage MessageType = "groupchat"
	HeadlineMessage  MessageType = "headline"
	ErrorMessage     MessageType = "error"
)

// StartElement converts the Message into an XML token.
func (m Message) StartElement() xml.StartElement {
	return start("message", m.ID, m.To, string(m.Type))
}

// Wrap wraps the payload in a message stanza.
func (m Message) Wrap(payload xml.TokenReader) xml.TokenReader {
	return xmlstream.Wrap(payload, m.StartElement())
}
