// Copyright 2020 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package xtime_test

import (
	"strconv"
	"testing"
	"time"

	"mellium.im/imcore/xtime"
)

var idleTestCases = [...]struct {
	in   int64
	want string
}{
	0: {in: 0, want: "000d 00h 00m 00s ago"},
	1: {in: 59, want: "000d 00h 00m 59s ago"},
	2: {in: 93784, want: "001d 02h 03m 04s ago"},
	3: {in: 999*86400 - 2, want: "998d 23h 59m 58s ago"},
	4: {in: 999*86400 - 1, want: xtime.VeryLongAgo},
	5: {in: -1, want: xtime.VeryLongAgo},
}

func TestFormatIdle(t *testing.T) {
	for i, tc := range idleTestCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			if got := xtime.FormatIdle(tc.in); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

var parseTestCases = [...]struct {
	in   string
	want time.Time
	err  bool
}{
	0: {in: "20020910T23:41:07", want: time.Date(2002, 9, 10, 23, 41, 7, 0, time.UTC)},
	1: {in: "2002-09-10T23:41:07Z", want: time.Date(2002, 9, 10, 23, 41, 7, 0, time.UTC)},
	2: {in: "2002-09-10T23:41:07-07:00", want: time.Date(2002, 9, 11, 6, 41, 7, 0, time.UTC)},
	3: {in: "yesterday", err: true},
	4: {in: "", err: true},
}

func TestParse(t *testing.T) {
	for i, tc := range parseTestCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			got, err := xtime.Parse(tc.in)
			if tc.err {
				if err == nil {
					t.Errorf("expected error parsing %q", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFormatLegacy(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	if s := xtime.FormatLegacy(time.Date(2002, 9, 11, 1, 41, 7, 0, loc)); s != "20020910T23:41:07" {
		t.Errorf("wrong legacy stamp: %q", s)
	}
}
