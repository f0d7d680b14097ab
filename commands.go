// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package xmpp

import (
	"encoding/xml"
	"strings"

	"github.com/google/uuid"
	"mellium.im/xmlstream"

	"mellium.im/imcore/disco"
	"mellium.im/imcore/event"
	"mellium.im/imcore/form"
	"mellium.im/imcore/internal/ns"
	"mellium.im/imcore/jid"
	"mellium.im/imcore/receipts"
	"mellium.im/imcore/roster"
	"mellium.im/imcore/stanza"
	"mellium.im/imcore/vcard"
	"mellium.im/imcore/version"
)

// online checks that commands may be sent and marks the user active.
func (s *Session) online() error {
	if s.state != Established {
		return ErrNotConnected
	}
	s.touch()
	return nil
}

// fullAddr returns the wire address of to, completing a bare address with the
// resource the contact is currently visible at.
func (s *Session) fullAddr(to string) (string, error) {
	addr := s.wireAddr(to)
	if strings.Contains(addr, "/") {
		return addr, nil
	}
	uid, _ := s.uidOf(addr)
	if e, ok := s.roster.Find(uid); ok && e.Resource != "" {
		return addr + "/" + s.codec.Prepare(e.Resource), nil
	}
	return "", ErrUnknownResource
}

// Disconnect tears down the session.
// If the session is online an unavailable presence carrying reason and the
// end of the stream are sent first.
func (s *Session) Disconnect(reason string) error {
	if s.state == Disconnected {
		return ErrNotConnected
	}
	if s.state == Established {
		s.send(s.presence("", roster.NotAvail, reason))
	}
	if s.state >= StreamOpen {
		s.writeRaw("</stream:stream>")
	}
	s.teardown(reason, event.ClassUser)
	return nil
}

// SetStatus changes the local presence.
// It is sent immediately if the session is online and after login otherwise.
func (s *Session) SetStatus(st roster.Status, desc string) error {
	s.status = st
	s.desc = desc
	if s.state != Established {
		return nil
	}
	s.touch()
	return s.sendPresence()
}

// SendMessage sends body to the given uid or address and returns the id of
// the message.
// Chat and normal messages ask for delivery events and receipts.
func (s *Session) SendMessage(to string, typ stanza.MessageType, body string) (string, error) {
	if err := s.online(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	payload := []xml.TokenReader{stanza.Text("body", s.codec.Prepare(body))}
	if typ != stanza.GroupChatMessage {
		payload = append(payload,
			stanza.Element("x", ns.Event,
				stanza.Element("offline", ""),
				stanza.Element("delivered", ""),
				stanza.Element("composing", ""),
			),
			receipts.Request(),
		)
	}
	err := s.send(stanza.Message{ID: id, To: s.wireAddr(to), Type: typ}.Wrap(xmlstream.MultiReader(payload...)))
	return id, err
}

func (s *Session) sendPresenceTo(to string, typ stanza.PresenceType) error {
	if err := s.online(); err != nil {
		return err
	}
	return s.send(stanza.Presence{To: s.wireAddr(to), Type: typ}.Wrap(nil))
}

// Subscribe asks to see the presence of a contact.
func (s *Session) Subscribe(to string) error {
	return s.sendPresenceTo(to, stanza.SubscribePresence)
}

// Unsubscribe stops receiving the presence of a contact.
func (s *Session) Unsubscribe(to string) error {
	return s.sendPresenceTo(to, stanza.UnsubscribePresence)
}

// Authorize grants or revokes a contact's subscription to our presence.
func (s *Session) Authorize(to string, allow bool) error {
	if allow {
		return s.sendPresenceTo(to, stanza.SubscribedPresence)
	}
	return s.sendPresenceTo(to, stanza.UnsubscribedPresence)
}

// Probe asks the server for the current presence of a contact.
func (s *Session) Probe(to string) error {
	return s.sendPresenceTo(to, stanza.ProbePresence)
}

func (s *Session) query(to string, typ stanza.IQType, payload xml.TokenReader) (string, error) {
	if err := s.online(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	return id, s.send(stanza.IQ{ID: id, To: to, Type: typ}.Wrap(payload))
}

// QueryVersion asks for the software version of a contact.
// A bare address is completed with the contact's known resource.
func (s *Session) QueryVersion(to string) (string, error) {
	addr, err := s.fullAddr(to)
	if err != nil {
		return "", err
	}
	return s.query(addr, stanza.GetIQ, version.Query{}.TokenReader())
}

// QueryLast asks how long a contact has been idle or offline.
func (s *Session) QueryLast(to string) (string, error) {
	return s.query(s.wireAddr(to), stanza.GetIQ, stanza.Element("query", ns.Last))
}

// QueryVCard asks for the profile of a contact.
func (s *Session) QueryVCard(to string) (string, error) {
	return s.query(s.wireAddr(to), stanza.GetIQ, vcard.Query())
}

// QueryItems asks a service for its items under node.
func (s *Session) QueryItems(to, node string) (string, error) {
	return s.query(s.wireAddr(to), stanza.GetIQ, disco.ItemsQuery(s.codec.Prepare(node)))
}

// QueryRegister asks a service for its registration form.
func (s *Session) QueryRegister(to string) (string, error) {
	return s.query(s.wireAddr(to), stanza.GetIQ, stanza.Element("query", ns.Register))
}

// Register submits a registration form received from a service.
func (s *Session) Register(to string, d form.Data, values map[string]string) (string, error) {
	prepared := make(map[string]string, len(values))
	for k, v := range values {
		prepared[s.codec.Prepare(k)] = s.codec.Prepare(v)
	}
	return s.query(s.wireAddr(to), stanza.SetIQ, d.Submit(prepared))
}

// ChangePassword asks the server to change the account password.
// The configured password is updated once the server confirms.
func (s *Session) ChangePassword(password string) error {
	if err := s.online(); err != nil {
		return err
	}
	s.newPassword = password
	return s.send(stanza.IQ{ID: passwdIDPre + uuid.NewString(), To: s.addr.Domainpart(), Type: stanza.SetIQ}.Wrap(
		stanza.Element("query", ns.Register,
			stanza.Text("username", s.addr.Localpart()),
			stanza.Text("password", s.codec.Prepare(password)),
		),
	))
}

// UpdateContact adds a contact to the server side roster or changes its name
// and groups.
func (s *Session) UpdateContact(uid, name string, groups []string) error {
	if err := s.online(); err != nil {
		return err
	}
	prepared := make([]string, 0, len(groups))
	for _, g := range groups {
		prepared = append(prepared, s.codec.Prepare(g))
	}
	_, err := s.query("", stanza.SetIQ, roster.Item{
		JID:    s.wireAddr(uid),
		Name:   s.codec.Prepare(name),
		Groups: prepared,
	}.TokenReader())
	return err
}

// RemoveContact removes a contact from the server side roster.
func (s *Session) RemoveContact(uid string) error {
	_, err := s.query("", stanza.SetIQ, roster.Item{
		JID:          s.wireAddr(uid),
		Subscription: roster.SubRemove,
	}.TokenReader())
	return err
}

// JoinRoom enters a multi-user chat room under nick.
func (s *Session) JoinRoom(room, nick string) error {
	if err := s.online(); err != nil {
		return err
	}
	room = strings.TrimPrefix(room, jid.UIDPrefix)
	if s.nicks == nil {
		s.nicks = make(map[string]string)
	}
	s.nicks[room] = nick
	return s.send(stanza.Presence{To: s.wireAddr(room) + "/" + s.codec.Prepare(nick)}.Wrap(
		stanza.Element("x", ns.MUC),
	))
}

// LeaveRoom leaves a multi-user chat room.
func (s *Session) LeaveRoom(room string) error {
	if err := s.online(); err != nil {
		return err
	}
	room = strings.TrimPrefix(room, jid.UIDPrefix)
	nick, ok := s.nicks[room]
	if !ok {
		return ErrNotJoined
	}
	delete(s.nicks, room)
	s.rooms.Leave(room)
	return s.send(stanza.Presence{
		To:   s.wireAddr(room) + "/" + s.codec.Prepare(nick),
		Type: stanza.UnavailablePresence,
	}.Wrap(nil))
}
