// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

//go:generate go run -tags=tools golang.org/x/tools/cmd/stringer -type=Class -linecomment

// Package event contains the protocol neutral events emitted by sessions.
//
// Events carry structured data and never preformatted text; turning them into
// something a user can read is left to the consumer.
package event // import "mellium.im/imcore/event"

import (
	"sync"
	"time"

	"mellium.im/imcore/disco"
	"mellium.im/imcore/form"
	"mellium.im/imcore/muc"
	"mellium.im/imcore/roster"
	"mellium.im/imcore/vcard"
	"mellium.im/imcore/version"
)

// Event is implemented by every event type in this package.
type Event interface {
	// SessionUID returns the uid of the session that emitted the event.
	SessionUID() string
}

// Bus receives events.
// Emit is always called from the event loop goroutine.
type Bus interface {
	Emit(Event)
}

// BusFunc adapts a function to the Bus interface.
type BusFunc func(Event)

// Emit implements Bus.
func (f BusFunc) Emit(e Event) {
	f(e)
}

// Discard is a Bus that drops every event.
var Discard Bus = BusFunc(func(Event) {})

// Header identifies the session an event belongs to.
type Header struct {
	Session string
}

// SessionUID implements Event.
func (h Header) SessionUID() string {
	return h.Session
}

// Class classifies the cause of a disconnect.
type Class int

// A list of disconnect classes.
const (
	ClassUser     Class = iota // user
	ClassNetwork               // network
	ClassFailure               // failure
	ClassProtocol              // protocol
)

// Connected is emitted when a session finishes authenticating.
type Connected struct {
	Header
}

// Disconnected is emitted when an open or opening connection is torn down.
type Disconnected struct {
	Header
	Reason string
	Class  Class
}

// Message is an inbound chat, groupchat, normal or headline message.
type Message struct {
	Header
	// From is the uid of the sender, or of the room for groupchat messages.
	From     string
	Resource string
	ID       string
	Type     string
	Text     string
	Sent     time.Time
	// Formatted is set when Text already includes the speaker, as in room
	// messages.
	Formatted bool
	Beep      bool
	// ReceiptRequested is set when the sender asked for a delivery receipt.
	ReceiptRequested bool
}

// Status is emitted when a contact's presence changes.
type Status struct {
	Header
	UID         string
	Resource    string
	Status      roster.Status
	Description string
	When        time.Time
}

// Ack is the kind of message acknowledgement.
type Ack string

// A list of acknowledgement kinds.
const (
	Delivered Ack = "delivered"
	Queued    Ack = "queued"
)

// MessageAck is emitted when a peer confirms a message.
type MessageAck struct {
	Header
	UID string
	ID  string
	Ack Ack
}

// Notice codes.
const (
	NoticeConnFailed        = "conn_failed"
	NoticeGenericConnFailed = "generic_conn_failed"
	NoticeXMLError          = "xml_error"
	NoticeMsgFailed         = "msg_failed"
	NoticeSubscribe         = "auth_subscribe"
	NoticeUnsubscribe       = "auth_unsubscribe"
	NoticeTyping            = "typing"
	NoticePasswd            = "passwd"
	NoticePasswdFailed      = "passwd_failed"
	NoticeStreamError       = "stream_error"
	NoticeRosterUpdated     = "roster_updated"
)

// Notice is a user visible message identified by a stable code.
// Args are the values the code's message template is filled with.
type Notice struct {
	Header
	Code string
	Args []string
}

// VCard is a profile received in response to a query.
type VCard struct {
	Header
	From string
	Card vcard.Card
}

// Version is a software version response.
type Version struct {
	Header
	From  string
	Query version.Query
}

// LastActivity is a last activity response.
type LastActivity struct {
	Header
	From    string
	Seconds int64
	// Text is the rendered idle time.
	Text string
}

// Items is a service discovery items response.
type Items struct {
	Header
	From  string
	Items []disco.Item
}

// Registration is a registration form received from a service.
type Registration struct {
	Header
	From string
	Form form.Data
}

// RoomPresence is emitted when a room occupant joins, changes, or leaves.
type RoomPresence struct {
	Header
	Room   string
	Member muc.Member
	Part   bool
}

// Recorder is a Bus that keeps every event.
// It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements Bus.
func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Reset forgets all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
