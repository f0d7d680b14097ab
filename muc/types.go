// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

//go:generate go run -tags=tools golang.org/x/tools/cmd/stringer -type=Affiliation,Role -linecomment

package muc

// Affiliation indicates a users affiliation to the room.
type Affiliation uint8

// A list of room affiliations.
const (
	AffiliationNone Affiliation = iota // none

	// Support for the owner affiliation is required.
	AffiliationOwner // owner

	// Support for these affiliations is recommended, but optional.
	AffiliationAdmin   // admin
	AffiliationMember  // member
	AffiliationOutcast // outcast
)

// ParseAffiliation returns the affiliation named by s.
// Unknown and empty values map to AffiliationNone.
func ParseAffiliation(s string) Affiliation {
	for a := AffiliationOwner; a <= AffiliationOutcast; a++ {
		if a.String() == s {
			return a
		}
	}
	return AffiliationNone
}

// Role indicates a users role in the room.
type Role uint8

// A list of user roles.
const (
	RoleNone Role = iota // none

	// Support for these roles is required.
	RoleModerator   // moderator
	RoleParticipant // participant

	// Support for these roles is recommended, but optional.
	RoleVisitor // visitor
)

// ParseRole returns the role named by s.
// Unknown and empty values map to RoleNone.
func ParseRole(s string) Role {
	for r := RoleModerator; r <= RoleVisitor; r++ {
		if r.String() == s {
			return r
		}
	}
	return RoleNone
}
