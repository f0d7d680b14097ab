// Copyright 2014 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jid

import (
	"errors"
	"net/netip"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
	"golang.org/x/text/secure/precis"
)

// UIDPrefix is the prefix of user ids that refer to XMPP addresses.
const UIDPrefix = "jid:"

// Errors returned when parsing addresses.
var (
	ErrEmptyLocal    = errors.New("jid: the localpart must be larger than 0 bytes")
	ErrEmptyResource = errors.New("jid: the resourcepart must be larger than 0 bytes")
	ErrDomainLength  = errors.New("jid: the domainpart must be between 1 and 1023 bytes")
	ErrPartLength    = errors.New("jid: localpart and resourcepart must be smaller than 1024 bytes")
	ErrForbidden     = errors.New("jid: localpart contains forbidden characters")
	ErrInvalidUTF8   = errors.New("jid: invalid UTF-8")
	ErrBadIPv6       = errors.New("jid: domainpart is not a valid IPv6 address")
	ErrNotUID        = errors.New("jid: user id does not start with " + UIDPrefix)
)

// JID is a prepared and validated XMPP address.
// The zero value is the empty address.
type JID struct {
	local    string
	domain   string
	resource string
}

// Parse constructs a new JID from its string representation.
func Parse(s string) (JID, error) {
	localpart, domainpart, resourcepart, err := SplitString(s)
	if err != nil {
		return JID{}, err
	}
	return New(localpart, domainpart, resourcepart)
}

// MustParse is like Parse but panics if the address cannot be parsed.
// It simplifies safe initialization of JIDs from known-good constant strings.
func MustParse(s string) JID {
	j, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return j
}

// ParseUID parses a "jid:" prefixed user id.
func ParseUID(uid string) (JID, error) {
	if !strings.HasPrefix(uid, UIDPrefix) {
		return JID{}, ErrNotUID
	}
	return Parse(uid[len(UIDPrefix):])
}

// New constructs a new JID from the given localpart, domainpart, and
// resourcepart, applying the PRECIS and IDNA preparation and enforcement
// rules.
func New(localpart, domainpart, resourcepart string) (JID, error) {
	if !utf8.ValidString(localpart) || !utf8.ValidString(resourcepart) {
		return JID{}, ErrInvalidUTF8
	}

	// Domainparts are stored as U-labels so that A-label and U-label forms of
	// the same address compare equal.
	var err error
	if _, ipErr := netip.ParseAddr(strings.Trim(domainpart, "[]")); ipErr != nil {
		domainpart, err = idna.ToUnicode(domainpart)
		if err != nil {
			return JID{}, err
		}
	}
	if !utf8.ValidString(domainpart) {
		return JID{}, ErrInvalidUTF8
	}

	if localpart != "" {
		localpart, err = precis.UsernameCaseMapped.String(localpart)
		if err != nil {
			return JID{}, err
		}
	}
	if resourcepart != "" {
		resourcepart, err = precis.OpaqueString.String(resourcepart)
		if err != nil {
			return JID{}, err
		}
	}

	if err := commonChecks(localpart, domainpart, resourcepart); err != nil {
		return JID{}, err
	}
	return JID{local: localpart, domain: domainpart, resource: resourcepart}, nil
}

// SplitString splits a string on the '@' and '/' separators without applying
// any preparation.
// A trailing dot on the domainpart is removed.
func SplitString(s string) (localpart, domainpart, resourcepart string, err error) {
	// The separators must be matched before any transformation, which might
	// decompose other code points into '@' or '/'.
	if sep := strings.IndexByte(s, '/'); sep != -1 {
		if sep == len(s)-1 {
			return "", "", "", ErrEmptyResource
		}
		resourcepart = s[sep+1:]
		s = s[:sep]
	}

	switch sep := strings.IndexByte(s, '@'); sep {
	case -1:
		domainpart = s
	case 0:
		return "", "", "", ErrEmptyLocal
	default:
		localpart = s[:sep]
		domainpart = s[sep+1:]
	}
	domainpart = strings.TrimSuffix(domainpart, ".")
	return localpart, domainpart, resourcepart, nil
}

// Bare returns a copy of the JID without a resourcepart.
func (j JID) Bare() JID {
	j.resource = ""
	return j
}

// Localpart gets the localpart of a JID (eg "username").
func (j JID) Localpart() string {
	return j.local
}

// Domainpart gets the domainpart of a JID (eg. "example.net").
func (j JID) Domainpart() string {
	return j.domain
}

// Resourcepart gets the resourcepart of a JID.
func (j JID) Resourcepart() string {
	return j.resource
}

// WithResource returns a copy of the JID with a new resourcepart.
func (j JID) WithResource(resourcepart string) (JID, error) {
	return New(j.local, j.domain, resourcepart)
}

// String converts the JID to its string representation.
func (j JID) String() string {
	s := j.domain
	if j.local != "" {
		s = j.local + "@" + s
	}
	if j.resource != "" {
		s = s + "/" + j.resource
	}
	return s
}

// UID returns the bare address as a "jid:" prefixed user id.
func (j JID) UID() string {
	return UIDPrefix + j.Bare().String()
}

// Equal performs an octet-for-octet comparison with the given JID.
func (j JID) Equal(j2 JID) bool {
	return j == j2
}

func commonChecks(localpart, domainpart, resourcepart string) error {
	if len(localpart) > 1023 || len(resourcepart) > 1023 {
		return ErrPartLength
	}

	// RFC 7622 §3.3.1 lists characters that are still not allowed in
	// localparts even though the UsernameCaseMapped profile allows them.
	if strings.ContainsAny(localpart, `"&'/:<>@`) {
		return ErrForbidden
	}

	if l := len(domainpart); l < 1 || l > 1023 {
		return ErrDomainLength
	}

	if l := len(domainpart); l > 2 && domainpart[0] == '[' && domainpart[l-1] == ']' {
		if ip, err := netip.ParseAddr(domainpart[1 : l-1]); err != nil || !ip.Is6() || ip.Is4In6() {
			return ErrBadIPv6
		}
	}
	return nil
}

// Split separates an address as received on the wire into its bare part and
// resourcepart without validating it.
// It is meant for attacker controlled input that only needs to be used as a
// lookup key.
func Split(s string) (bare, resource string) {
	if i := strings.IndexByte(s, '/'); i != -1 {
		return s[:i], s[i+1:]
	}
	return s, ""
}
