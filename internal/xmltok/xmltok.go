// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package xmltok is an incremental push tokenizer for XML streams.
//
// Bytes are written to the tokenizer as they arrive from the network and
// start-element, end-element and character data events are delivered to a
// Handler as soon as a token is complete.
// Incomplete tokens are kept until more input arrives, so the events produced
// do not depend on how the input was split into writes.
//
// Only the restricted XML allowed on an XMPP stream is accepted: no document
// type declarations, no entity declarations, and only the predefined and
// numeric character references.
// Names are reported exactly as written ("stream:stream") and namespace
// declarations are ordinary attributes.
package xmltok // import "mellium.im/imcore/internal/xmltok"

import (
	"bytes"
	"fmt"
	"strconv"
	"unicode/utf8"
)

// DefaultMaxTokenSize is the largest token (tag or run of character data)
// accepted before the stream is considered malformed.
const DefaultMaxTokenSize = 1 << 20

// Attr is an attribute exactly as it appeared in a start tag, with character
// references decoded.
type Attr struct {
	Name  string
	Value string
}

// Handler receives tokens in document order.
// The data passed to CharData is not retained by the tokenizer.
type Handler interface {
	StartElement(name string, attr []Attr)
	EndElement(name string)
	CharData(data []byte)
}

// SyntaxError is returned for malformed input.
type SyntaxError struct {
	Offset int64
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("xml: syntax error at byte %d: %s", e.Offset, e.Msg)
}

var bom = []byte{0xef, 0xbb, 0xbf}

// Tokenizer is an incremental tokenizer.
// Once Write has returned an error every later Write returns the same error.
type Tokenizer struct {
	h          Handler
	buf        []byte
	off        int64
	stack      []string
	started    bool
	rootClosed bool
	err        error
	max        int
}

// New returns a tokenizer that delivers events to h.
func New(h Handler) *Tokenizer {
	return &Tokenizer{h: h, max: DefaultMaxTokenSize}
}

// SetMaxTokenSize changes the largest token accepted.
func (t *Tokenizer) SetMaxTokenSize(n int) {
	if n > 0 {
		t.max = n
	}
}

// Depth is the number of open elements.
func (t *Tokenizer) Depth() int {
	return len(t.stack)
}

// Write feeds p to the tokenizer.
// Events for every complete token in the input so far are delivered before
// Write returns.
func (t *Tokenizer) Write(p []byte) (int, error) {
	if t.err != nil {
		return 0, t.err
	}
	t.buf = append(t.buf, p...)

	if !t.started {
		if len(t.buf) < len(bom) && bytes.HasPrefix(bom, t.buf) {
			return len(p), nil
		}
		if bytes.HasPrefix(t.buf, bom) {
			t.buf = t.buf[len(bom):]
			t.off += int64(len(bom))
		}
		t.started = true
	}

	var consumed int
	for consumed < len(t.buf) {
		n, err := t.next(t.buf[consumed:])
		if err != nil {
			t.err = err
			return 0, err
		}
		if n == 0 {
			break
		}
		consumed += n
		t.off += int64(n)
	}
	rest := copy(t.buf, t.buf[consumed:])
	t.buf = t.buf[:rest]
	if len(t.buf) > t.max {
		t.err = t.errorf("token exceeds %d bytes", t.max)
		return 0, t.err
	}
	return len(p), nil
}

func (t *Tokenizer) errorf(format string, v ...interface{}) error {
	return &SyntaxError{Offset: t.off, Msg: fmt.Sprintf(format, v...)}
}

var (
	commentStart = []byte("<!--")
	commentEnd   = []byte("-->")
	cdataStart   = []byte("<![CDATA[")
	cdataEnd     = []byte("]]>")
	piEnd        = []byte("?>")
)

// next lexes one token at the start of b and returns the number of bytes it
// used, or zero if the token is not complete yet.
func (t *Tokenizer) next(b []byte) (int, error) {
	if b[0] != '<' {
		i := bytes.IndexByte(b, '<')
		if i < 0 {
			return 0, nil
		}
		return i, t.text(b[:i])
	}
	if len(b) < 2 {
		return 0, nil
	}

	switch b[1] {
	case '?':
		end := bytes.Index(b, piEnd)
		if end < 0 {
			return 0, nil
		}
		return end + len(piEnd), nil
	case '!':
		switch {
		case len(b) < len(cdataStart) && (bytes.HasPrefix(commentStart, b) || bytes.HasPrefix(cdataStart, b)):
			return 0, nil
		case bytes.HasPrefix(b, commentStart):
			end := bytes.Index(b[len(commentStart):], commentEnd)
			if end < 0 {
				return 0, nil
			}
			return len(commentStart) + end + len(commentEnd), nil
		case bytes.HasPrefix(b, cdataStart):
			end := bytes.Index(b[len(cdataStart):], cdataEnd)
			if end < 0 {
				return 0, nil
			}
			data := b[len(cdataStart) : len(cdataStart)+end]
			if len(t.stack) == 0 {
				return 0, t.errorf("character data outside of the root element")
			}
			if err := t.checkChars(data); err != nil {
				return 0, err
			}
			t.h.CharData(append([]byte(nil), data...))
			return len(cdataStart) + end + len(cdataEnd), nil
		}
		return 0, t.errorf("markup declarations are not allowed")
	case '/':
		end := bytes.IndexByte(b, '>')
		if end < 0 {
			return 0, nil
		}
		name := string(bytes.TrimRight(b[2:end], " \t\r\n"))
		if !validName(name) {
			return 0, t.errorf("invalid end tag name %q", name)
		}
		if len(t.stack) == 0 || t.stack[len(t.stack)-1] != name {
			return 0, t.errorf("unexpected end element </%s>", name)
		}
		t.stack = t.stack[:len(t.stack)-1]
		if len(t.stack) == 0 {
			t.rootClosed = true
		}
		t.h.EndElement(name)
		return end + 1, nil
	}

	end := -1
	var quote byte
scan:
	for i := 1; i < len(b); i++ {
		c := b[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			end = i
			break scan
		case c == '<':
			return 0, t.errorf("unexpected < in tag")
		}
	}
	if end < 0 {
		return 0, nil
	}
	body := b[1:end]
	selfClose := len(body) > 0 && body[len(body)-1] == '/'
	if selfClose {
		body = body[:len(body)-1]
	}
	name, attr, err := t.parseTag(body)
	if err != nil {
		return 0, err
	}
	if t.rootClosed {
		return 0, t.errorf("element <%s> after the root element", name)
	}
	t.h.StartElement(name, attr)
	if selfClose {
		if len(t.stack) == 0 {
			t.rootClosed = true
		}
		t.h.EndElement(name)
	} else {
		t.stack = append(t.stack, name)
	}
	return end + 1, nil
}

func (t *Tokenizer) text(raw []byte) error {
	if len(t.stack) == 0 {
		if len(bytes.TrimLeft(raw, " \t\r\n")) != 0 {
			return t.errorf("character data outside of the root element")
		}
		return nil
	}
	data, err := t.decode(raw, false)
	if err != nil {
		return err
	}
	t.h.CharData(data)
	return nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func (t *Tokenizer) parseTag(b []byte) (string, []Attr, error) {
	i := 0
	for i < len(b) && !isSpace(b[i]) {
		i++
	}
	name := string(b[:i])
	if !validName(name) {
		return "", nil, t.errorf("invalid element name %q", name)
	}

	var attr []Attr
	for {
		start := i
		for i < len(b) && isSpace(b[i]) {
			i++
		}
		if i == len(b) {
			return name, attr, nil
		}
		if i == start {
			return "", nil, t.errorf("missing whitespace between attributes of <%s>", name)
		}

		nameStart := i
		for i < len(b) && b[i] != '=' && !isSpace(b[i]) {
			i++
		}
		attrName := string(b[nameStart:i])
		if !validName(attrName) {
			return "", nil, t.errorf("invalid attribute name %q", attrName)
		}
		for i < len(b) && isSpace(b[i]) {
			i++
		}
		if i == len(b) || b[i] != '=' {
			return "", nil, t.errorf("attribute %q has no value", attrName)
		}
		i++
		for i < len(b) && isSpace(b[i]) {
			i++
		}
		if i == len(b) || (b[i] != '"' && b[i] != '\'') {
			return "", nil, t.errorf("unquoted value for attribute %q", attrName)
		}
		quote := b[i]
		i++
		valStart := i
		for i < len(b) && b[i] != quote {
			i++
		}
		if i == len(b) {
			return "", nil, t.errorf("unterminated value for attribute %q", attrName)
		}
		raw := b[valStart:i]
		i++

		if bytes.IndexByte(raw, '<') >= 0 {
			return "", nil, t.errorf("< in value of attribute %q", attrName)
		}
		val, err := t.decode(raw, true)
		if err != nil {
			return "", nil, err
		}
		for _, a := range attr {
			if a.Name == attrName {
				return "", nil, t.errorf("duplicate attribute %q", attrName)
			}
		}
		attr = append(attr, Attr{Name: attrName, Value: string(val)})
	}
}

// decode resolves character references and, for attribute values, normalizes
// literal whitespace to spaces.
func (t *Tokenizer) decode(raw []byte, attr bool) ([]byte, error) {
	if err := t.checkChars(raw); err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case attr && (c == '\t' || c == '\n' || c == '\r'):
			out = append(out, ' ')
			continue
		case c != '&':
			out = append(out, c)
			continue
		}
		semi := bytes.IndexByte(raw[i:], ';')
		if semi < 0 {
			return nil, t.errorf("unterminated character reference")
		}
		ref := string(raw[i+1 : i+semi])
		switch ref {
		case "lt":
			out = append(out, '<')
		case "gt":
			out = append(out, '>')
		case "amp":
			out = append(out, '&')
		case "quot":
			out = append(out, '"')
		case "apos":
			out = append(out, '\'')
		default:
			r, ok := charRef(ref)
			if !ok {
				return nil, t.errorf("invalid character reference &%s;", ref)
			}
			out = utf8.AppendRune(out, r)
		}
		i += semi
	}
	return out, nil
}

func charRef(ref string) (rune, bool) {
	if len(ref) < 2 || ref[0] != '#' {
		return 0, false
	}
	var n uint64
	var err error
	if ref[1] == 'x' {
		n, err = strconv.ParseUint(ref[2:], 16, 32)
	} else {
		n, err = strconv.ParseUint(ref[1:], 10, 32)
	}
	if err != nil || !IsChar(rune(n)) {
		return 0, false
	}
	return rune(n), true
}

func (t *Tokenizer) checkChars(b []byte) error {
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			return t.errorf("invalid UTF-8")
		}
		if !IsChar(r) {
			return t.errorf("illegal character %U", r)
		}
		b = b[size:]
	}
	return nil
}

// IsChar reports whether r may appear in an XML document.
func IsChar(r rune) bool {
	return r == 0x09 || r == 0x0a || r == 0x0d ||
		r >= 0x20 && r <= 0xd7ff ||
		r >= 0xe000 && r <= 0xfffd ||
		r >= 0x10000 && r <= 0x10ffff
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r == ':', r >= 0x80:
		case i > 0 && (r >= '0' && r <= '9' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}
