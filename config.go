// Copyright 2016 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package xmpp

import (
	"crypto/tls"
	"fmt"

	"mellium.im/imcore/escape"
	"mellium.im/imcore/jid"
	"mellium.im/imcore/resolver"
	"mellium.im/imcore/roster"
)

// Default values used for zero fields of a Config.
const (
	DefaultPort     = 5222
	DefaultTLSPort  = 5223
	DefaultPriority = 5
	DefaultResource = "imcore"
)

// AuthMode selects how a session authenticates after opening the stream.
type AuthMode int

// A list of authentication modes.
const (
	// AuthLegacy authenticates with a single jabber:iq:auth request, sending a
	// SHA-1 digest of the stream id and password unless PlaintextPassword is
	// set.
	AuthLegacy AuthMode = iota

	// AuthSASL negotiates a SASL mechanism from the stream features, restarts
	// the stream and binds a resource.
	AuthSASL
)

// Config represents the configuration of an XMPP session.
type Config struct {
	// UID is the "jid:" prefixed bare address of the account.
	UID      string
	Password string

	// Server is the host to connect to.
	// By default the domainpart of UID is used.
	Server  string
	Port    int
	TLSPort int

	// TLS connects to TLSPort and performs a TLS handshake before opening the
	// stream.
	TLS       bool
	TLSConfig *tls.Config

	Resource string
	Priority int

	// Charset is the local charset of text passed to and from the session.
	Charset string

	// DisableTyping suppresses typing notices.
	DisableTyping     bool
	PlaintextPassword bool
	Auth              AuthMode
	Family            resolver.Family

	// Status and Description are the presence sent after connecting.
	Status      roster.Status
	Description string

	// Values reported in replies to software version queries.
	// ClientOS defaults to the name of the running kernel.
	ClientName    string
	ClientVersion string
	ClientOS      string
}

// withDefaults validates the config and fills zero fields.
func (c Config) withDefaults() (Config, jid.JID, escape.Codec, error) {
	addr, err := jid.ParseUID(c.UID)
	if err != nil {
		return c, addr, escape.Codec{}, fmt.Errorf("%w: %v", ErrBadUID, err)
	}
	if addr.Localpart() == "" {
		return c, addr, escape.Codec{}, fmt.Errorf("%w: missing username", ErrBadUID)
	}
	if c.Resource == "" {
		c.Resource = addr.Resourcepart()
	}
	addr = addr.Bare()
	c.UID = addr.UID()
	codec, err := escape.New(c.Charset)
	if err != nil {
		return c, addr, codec, err
	}
	c.Charset = codec.Charset()
	if c.Server == "" {
		c.Server = addr.Domainpart()
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.TLSPort == 0 {
		c.TLSPort = DefaultTLSPort
	}
	if c.Priority == 0 {
		c.Priority = DefaultPriority
	}
	if c.Resource == "" {
		c.Resource = DefaultResource
	}
	if c.Family&resolver.Any == 0 {
		c.Family = resolver.Any
	}
	if c.Status == 0 {
		c.Status = roster.Available
	}
	if c.ClientName == "" {
		c.ClientName = DefaultResource
	}
	if c.TLSConfig == nil {
		c.TLSConfig = &tls.Config{}
	}
	if c.TLSConfig.ServerName == "" {
		c.TLSConfig = c.TLSConfig.Clone()
		c.TLSConfig.ServerName = addr.Domainpart()
	}
	return c, addr, codec, nil
}

// port returns the port the session connects to.
func (c Config) port() int {
	if c.TLS {
		return c.TLSPort
	}
	return c.Port
}
