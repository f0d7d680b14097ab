// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package event_test

import (
	"strconv"
	"sync"
	"testing"

	"mellium.im/imcore/event"
)

var (
	_ event.Event = event.Connected{}
	_ event.Event = event.Disconnected{}
	_ event.Event = event.Message{}
	_ event.Event = event.Status{}
	_ event.Event = event.MessageAck{}
	_ event.Event = event.Notice{}
	_ event.Event = event.VCard{}
	_ event.Event = event.Version{}
	_ event.Event = event.LastActivity{}
	_ event.Event = event.Items{}
	_ event.Event = event.Registration{}
	_ event.Event = event.RoomPresence{}
	_ event.Bus   = (*event.Recorder)(nil)
)

func TestRecorder(t *testing.T) {
	r := &event.Recorder{}
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Emit(event.Connected{Header: event.Header{Session: strconv.Itoa(i)}})
		}(i)
	}
	wg.Wait()
	if n := len(r.Events()); n != 10 {
		t.Errorf("wrong number of events: %d", n)
	}
	r.Reset()
	if n := len(r.Events()); n != 0 {
		t.Errorf("events not reset: %d", n)
	}
}

func TestBusFunc(t *testing.T) {
	var got event.Event
	bus := event.BusFunc(func(e event.Event) { got = e })
	bus.Emit(event.Notice{Header: event.Header{Session: "jid:a@b"}, Code: event.NoticeTyping})
	if got == nil || got.SessionUID() != "jid:a@b" {
		t.Errorf("wrong event: %+v", got)
	}
	event.Discard.Emit(got)
}

func TestClassString(t *testing.T) {
	for c, want := range map[event.Class]string{
		event.ClassUser:     "user",
		event.ClassNetwork:  "network",
		event.ClassFailure:  "failure",
		event.ClassProtocol: "protocol",
		event.Class(7):      "Class(7)",
	} {
		if s := c.String(); s != want {
			t.Errorf("got %q, want %q", s, want)
		}
	}
}
