// Copyright 2014 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jid_test

import (
	"errors"
	"strconv"
	"testing"

	"mellium.im/imcore/jid"
)

var parseTestCases = [...]struct {
	jid, lp, dp, rp string
	err             error
	invalid         bool
}{
	0:  {jid: "example.net", dp: "example.net"},
	1:  {jid: "example.net/rp", dp: "example.net", rp: "rp"},
	2:  {jid: "mercutio@example.net", lp: "mercutio", dp: "example.net"},
	3:  {jid: "mercutio@example.net/rp", lp: "mercutio", dp: "example.net", rp: "rp"},
	4:  {jid: "mercutio@example.net/rp@rp", lp: "mercutio", dp: "example.net", rp: "rp@rp"},
	5:  {jid: "mercutio@example.net/rp@rp/rp", lp: "mercutio", dp: "example.net", rp: "rp@rp/rp"},
	6:  {jid: "mercutio@example.net.", lp: "mercutio", dp: "example.net"},
	7:  {jid: "Mercutio@example.net", lp: "mercutio", dp: "example.net"},
	8:  {jid: "mercutio@xn--bcher-kva.example", lp: "mercutio", dp: "bücher.example"},
	9:  {jid: "mercutio@[::1]", lp: "mercutio", dp: "[::1]"},
	10: {jid: "@example.net", err: jid.ErrEmptyLocal},
	11: {jid: "example.net/", err: jid.ErrEmptyResource},
	12: {jid: "", err: jid.ErrDomainLength},
	13: {jid: "mer\"cutio@example.net", invalid: true},
	14: {jid: "mercutio@[127.0.0.1]", err: jid.ErrBadIPv6},
	15: {jid: "mer\xffcutio@example.net", err: jid.ErrInvalidUTF8},
}

func TestParse(t *testing.T) {
	for i, tc := range parseTestCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			j, err := jid.Parse(tc.jid)
			switch {
			case tc.err != nil:
				if !errors.Is(err, tc.err) {
					t.Fatalf("wrong error: got %v, want %v", err, tc.err)
				}
				return
			case tc.invalid:
				if err == nil {
					t.Fatalf("expected %q to be invalid", tc.jid)
				}
				return
			case err != nil:
				t.Fatalf("unexpected error: %v", err)
			}
			if j.Localpart() != tc.lp || j.Domainpart() != tc.dp || j.Resourcepart() != tc.rp {
				t.Errorf("got parts %q %q %q, want %q %q %q", j.Localpart(), j.Domainpart(), j.Resourcepart(), tc.lp, tc.dp, tc.rp)
			}
		})
	}
}

func TestUID(t *testing.T) {
	j, err := jid.ParseUID("jid:Romeo@example.net/orchard")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uid := j.UID(); uid != "jid:romeo@example.net" {
		t.Errorf("wrong uid: %q", uid)
	}
	if s := j.String(); s != "romeo@example.net/orchard" {
		t.Errorf("wrong string: %q", s)
	}
	if !j.Bare().Equal(jid.MustParse("romeo@example.net")) {
		t.Errorf("bare address differs")
	}
	if _, err := jid.ParseUID("gg:1234"); !errors.Is(err, jid.ErrNotUID) {
		t.Errorf("wrong error for foreign uid: %v", err)
	}
}

func TestWithResource(t *testing.T) {
	j, err := jid.MustParse("romeo@example.net").WithResource("balcony")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s := j.String(); s != "romeo@example.net/balcony" {
		t.Errorf("wrong string: %q", s)
	}
}

var splitTestCases = [...]struct {
	in, bare, res string
}{
	0: {in: "a@b/c", bare: "a@b", res: "c"},
	1: {in: "a@b", bare: "a@b"},
	2: {in: "room@muc/nick/with/slashes", bare: "room@muc", res: "nick/with/slashes"},
	3: {in: "", bare: ""},
}

func TestSplit(t *testing.T) {
	for i, tc := range splitTestCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			bare, res := jid.Split(tc.in)
			if bare != tc.bare || res != tc.res {
				t.Errorf("got %q %q, want %q %q", bare, res, tc.bare, tc.res)
			}
		})
	}
}
