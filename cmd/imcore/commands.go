// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	xmpp "mellium.im/imcore"
	"mellium.im/imcore/event"
	"mellium.im/imcore/roster"
	"mellium.im/imcore/stanza"
	"mellium.im/imcore/watch"
)

var errQuit = errors.New("quit")

// printer is an event.Bus that writes one line per event.
type printer struct {
	w io.Writer
}

func (p printer) Emit(ev event.Event) {
	if line := describe(ev); line != "" {
		fmt.Fprintln(p.w, line)
	}
}

func describe(ev event.Event) string {
	switch ev := ev.(type) {
	case event.Connected:
		return "connected"
	case event.Disconnected:
		return fmt.Sprintf("disconnected (%v): %s", ev.Class, ev.Reason)
	case event.Message:
		from := ev.From
		if ev.Resource != "" && !ev.Formatted {
			from += "/" + ev.Resource
		}
		return fmt.Sprintf("[%s] %s: %s", ev.Sent.Local().Format("15:04"), from, ev.Text)
	case event.MessageAck:
		return fmt.Sprintf("%s %s message %s", ev.UID, ev.Ack, ev.ID)
	case event.Status:
		line := fmt.Sprintf("%s is %v", ev.UID, ev.Status)
		if ev.Description != "" {
			line += ": " + ev.Description
		}
		return line
	case event.Notice:
		if len(ev.Args) == 0 {
			return ev.Code
		}
		return ev.Code + ": " + strings.Join(ev.Args, ", ")
	case event.Version:
		return fmt.Sprintf("%s runs %s %s on %s", ev.From, ev.Query.Name, ev.Query.Version, ev.Query.OS)
	case event.LastActivity:
		return fmt.Sprintf("%s idle: %s", ev.From, ev.Text)
	case event.VCard:
		return fmt.Sprintf("%s is %s (%s)", ev.From, ev.Card.FullName, ev.Card.Nickname)
	case event.Items:
		var b strings.Builder
		fmt.Fprintf(&b, "%s has %d items", ev.From, len(ev.Items))
		for _, it := range ev.Items {
			fmt.Fprintf(&b, "\n  %s %s", it.JID, it.Name)
		}
		return b.String()
	case event.Registration:
		var b strings.Builder
		fmt.Fprintf(&b, "%s registration: %s", ev.From, ev.Form.Instructions)
		for _, f := range ev.Form.Fields {
			fmt.Fprintf(&b, "\n  %s %s", f.Var, f.Label)
		}
		return b.String()
	case event.RoomPresence:
		if ev.Part {
			return fmt.Sprintf("%s left %s", ev.Member.Nick, ev.Room)
		}
		return fmt.Sprintf("%s is in %s as %v", ev.Member.Nick, ev.Room, ev.Member.Role)
	}
	return ""
}

// readCommands reads commands from r and runs them on the loop goroutine.
// quit is closed when the user asks to quit.
func readCommands(r io.Reader, loop watch.Registry, s *xmpp.Session, quit chan<- struct{}, errOut io.Writer) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" {
			close(quit)
			return
		}
		done := make(chan error, 1)
		loop.Post(func() {
			done <- runCommand(s, line)
		})
		if err := <-done; err != nil {
			fmt.Fprintf(errOut, "%s: %v\n", line, err)
		}
	}
}

func runCommand(s *xmpp.Session, line string) error {
	cmd, rest, _ := strings.Cut(line, " ")
	switch cmd {
	case "msg":
		to, text, ok := strings.Cut(rest, " ")
		if !ok {
			return errors.New("usage: msg <uid> <text>")
		}
		_, err := s.SendMessage(to, stanza.ChatMessage, text)
		return err
	case "status":
		name, desc, _ := strings.Cut(rest, " ")
		st, ok := roster.ParseStatus(name)
		if !ok {
			return fmt.Errorf("unknown status %q", name)
		}
		return s.SetStatus(st, desc)
	case "version":
		_, err := s.QueryVersion(rest)
		return err
	case "join":
		room, nick, ok := strings.Cut(rest, " ")
		if !ok {
			return errors.New("usage: join <room uid> <nick>")
		}
		return s.JoinRoom(room, nick)
	case "leave":
		return s.LeaveRoom(rest)
	}
	return fmt.Errorf("unknown command %q", cmd)
}
