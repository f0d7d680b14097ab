// Copyright 2020 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package xtime implements the XMPP date and time formats and idle time
// rendering.
package xtime // import "mellium.im/imcore/xtime"

import (
	"fmt"
	"time"
)

const (
	// LegacyDateTime implements the legacy profile mentioned in XEP-0082.
	// Legacy stamps carry no zone and are always UTC.
	//
	// Unless you are implementing an older XEP that specifically calls for this
	// format, time.RFC3339 should be used instead.
	LegacyDateTime = "20060102T15:04:05"

	// VeryLongAgo is the rendering of idle times too long for FormatIdle's
	// day counter.
	VeryLongAgo = "very long ago"
)

// maxIdle is the first idle time that no longer fits in three day digits.
const maxIdle = 999*24*60*60 - 1

// ParseLegacy parses a LegacyDateTime stamp.
func ParseLegacy(s string) (time.Time, error) {
	return time.ParseInLocation(LegacyDateTime, s, time.UTC)
}

// Parse parses a stamp in either the RFC 3339 profile or the legacy one.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, legacyErr := ParseLegacy(s)
	if legacyErr != nil {
		return time.Time{}, err
	}
	return t, nil
}

// FormatLegacy formats t as a LegacyDateTime stamp in UTC.
func FormatLegacy(t time.Time) string {
	return t.UTC().Format(LegacyDateTime)
}

// FormatIdle renders a number of idle seconds as days, hours, minutes and
// seconds, for example "001d 02h 03m 04s ago".
// Negative values and values of 999 days or more render as VeryLongAgo.
func FormatIdle(seconds int64) string {
	if seconds < 0 || seconds >= maxIdle {
		return VeryLongAgo
	}
	return fmt.Sprintf("%03dd %02dh %02dm %02ds ago",
		seconds/86400, (seconds/3600)%24, (seconds/60)%60, seconds%60)
}
