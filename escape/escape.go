// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package escape is the boundary between text as it appears on the stream and
// text as it is shown to the user.
//
// Every value taken off the wire goes through Unescape and every value put on
// the wire goes through Prepare (when an encoder will escape it) or Escape
// (when it is written as raw markup).
// The local side may use a legacy console charset such as ISO-8859-2; the wire
// side is always UTF-8.
package escape // import "mellium.im/imcore/escape"

import (
	"encoding/xml"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"

	"mellium.im/imcore/internal/xmltok"
)

// DefaultCharset is the local charset used when none is configured.
const DefaultCharset = "utf-8"

// Codec converts text between the wire and the local charset.
// The zero value treats the local charset as UTF-8.
type Codec struct {
	enc encoding.Encoding
}

// New returns a codec for the named local charset.
// Names are WHATWG encoding labels such as "utf-8" or "iso-8859-2".
func New(charset string) (Codec, error) {
	if charset == "" {
		charset = DefaultCharset
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return Codec{}, fmt.Errorf("escape: unknown charset %q: %w", charset, err)
	}
	if enc == unicode.UTF8 {
		return Codec{}, nil
	}
	return Codec{enc: enc}, nil
}

// Charset returns the canonical name of the local charset.
func (c Codec) Charset() string {
	if c.enc == nil {
		return DefaultCharset
	}
	name, err := htmlindex.Name(c.enc)
	if err != nil {
		return DefaultCharset
	}
	return name
}

// clean drops characters that may not appear in XML and replaces invalid
// UTF-8.
func clean(s string) string {
	if !strings.ContainsFunc(s, func(r rune) bool { return r == utf8.RuneError || !xmltok.IsChar(r) }) && utf8.ValidString(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToValidUTF8(s, "�") {
		if xmltok.IsChar(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Unescape converts character data taken from the wire (already free of
// entity references) to the local charset.
// Characters that cannot be represented locally are replaced.
func (c Codec) Unescape(s string) string {
	s = clean(s)
	if c.enc == nil {
		return s
	}
	out, err := encoding.ReplaceUnsupported(c.enc.NewEncoder()).String(s)
	if err != nil {
		return s
	}
	return out
}

// Prepare converts local text to UTF-8 suitable for an XML encoder, dropping
// characters that may not appear in XML.
// It does not escape markup.
func (c Codec) Prepare(s string) string {
	if c.enc != nil {
		if out, err := c.enc.NewDecoder().String(s); err == nil {
			s = out
		}
	}
	return clean(s)
}

// Escape is Prepare followed by escaping of the XML reserved characters so
// that the result can be written as raw markup in character data or in a
// quoted attribute value.
func (c Codec) Escape(s string) string {
	var b strings.Builder
	xml.EscapeText(&b, []byte(c.Prepare(s)))
	return b.String()
}
