// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package escape_test

import (
	"strconv"
	"testing"
	"testing/quick"

	"mellium.im/imcore/escape"
)

var roundTripTestCases = [...]string{
	0: ``,
	1: `<>&"'`,
	2: `a < b && c > "d" 'e'`,
	3: `&amp; &lt;already&gt; escaped`,
	4: "ctrl\x00\x01\x1fchars\ttab\nnl",
	5: "invalid \xff\xfe utf-8",
	6: "zażółć gęślą jaźń ☺",
	7: "]]>",
}

func TestRoundTrip(t *testing.T) {
	codecs := map[string]escape.Codec{}
	for _, name := range []string{"utf-8", "iso-8859-2"} {
		c, err := escape.New(name)
		if err != nil {
			t.Fatalf("error creating codec %s: %v", name, err)
		}
		codecs[name] = c
	}
	for i, tc := range roundTripTestCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			c := codecs["utf-8"]
			if got, want := c.Escape(c.Unescape(tc)), c.Escape(tc); got != want {
				t.Errorf("utf-8: got %q, want %q", got, want)
			}
		})
	}

	// Arbitrary ASCII is identical in both charsets.
	for name, c := range codecs {
		c := c
		f := func(b []byte) bool {
			for i := range b {
				b[i] &= 0x7f
			}
			s := string(b) + `<>&"'`
			return c.Escape(c.Unescape(s)) == c.Escape(s)
		}
		if err := quick.Check(f, nil); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}

	utf8 := codecs["utf-8"]
	if err := quick.Check(func(s string) bool {
		return utf8.Escape(utf8.Unescape(s)) == utf8.Escape(s)
	}, nil); err != nil {
		t.Error(err)
	}
}

var escapeTestCases = [...]struct {
	in, want string
}{
	0: {in: `<b>&"'`, want: `&lt;b&gt;&amp;&#34;&#39;`},
	1: {in: "a\x00b", want: "ab"},
	2: {in: "line\nbreak", want: "line&#xA;break"},
	3: {in: "\xffx", want: "�x"},
}

func TestEscape(t *testing.T) {
	var c escape.Codec
	for i, tc := range escapeTestCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			if got := c.Escape(tc.in); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCharset(t *testing.T) {
	c, err := escape.New("iso-8859-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// "ł" is 0xb3 in ISO-8859-2.
	if got := c.Unescape("ł"); got != "\xb3" {
		t.Errorf("wrong local text: got %q", got)
	}
	if got := c.Prepare("\xb3"); got != "ł" {
		t.Errorf("wrong wire text: got %q", got)
	}
	if name := c.Charset(); name != "iso-8859-2" {
		t.Errorf("wrong charset name: %q", name)
	}
	if _, err := escape.New("no-such-charset"); err == nil {
		t.Error("expected an error for an unknown charset")
	}
	var zero escape.Codec
	if name := zero.Charset(); name != escape.DefaultCharset {
		t.Errorf("wrong default charset: %q", name)
	}
}
