package identity

import (
	"strings"
	"unicode"

	"go.mau.fi/whatsmeow/types"
)

// ID is a canonical participant identity. The zero value is the empty
// identity, which matches nothing.
type ID string

// IsEmpty reports whether the identity is the empty identity.
func (id ID) IsEmpty() bool { return id == "" }

// Matches reports whether two identities denote the same participant.
// Empty identities never match, not even each other.
func (id ID) Matches(other ID) bool {
	return id != "" && id == other
}

func (id ID) String() string { return string(id) }

// Normalize canonicalizes a raw participant address. It never fails.
//
//	"+91 99999-99999"                  -> "919999999999"
//	"919999999999:3@s.whatsapp.net"    -> "919999999999"
//	"  Some.Handle "                   -> "some.handle"
func Normalize(raw string) ID {
	s := trim(raw)
	if s == "" {
		return ""
	}
	if user, ok := whatsAppUser(strings.ToLower(s)); ok {
		s = trim(user)
	}
	if digits, ok := phoneDigits(s); ok {
		return ID(digits)
	}
	return ID(strings.ToLower(s))
}

// Equal reports whether two raw addresses normalize to the same participant.
func Equal(a, b string) bool {
	return Normalize(a).Matches(Normalize(b))
}

func trim(s string) string {
	s = strings.TrimLeftFunc(s, func(r rune) bool { return r == '+' || unicode.IsSpace(r) })
	return strings.TrimRightFunc(s, unicode.IsSpace)
}

// whatsAppUser extracts the user part of a phone-number JID. s must be
// lower-cased, as JID servers are matched exactly. Group, LID and newsletter
// JIDs are left alone.
func whatsAppUser(s string) (string, bool) {
	if !strings.Contains(s, "@") {
		return "", false
	}
	jid, err := types.ParseJID(s)
	if err != nil {
		return "", false
	}
	switch jid.Server {
	case types.DefaultUserServer, types.LegacyUserServer:
		return jid.ToNonAD().User, true
	default:
		return "", false
	}
}

// phoneDigits returns the digits of s when s only consists of digits and
// phone formatting characters.
func phoneDigits(s string) (string, bool) {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '.', r == '(', r == ')', r == '+':
		default:
			return "", false
		}
	}
	if b.Len() == 0 {
		return "", false
	}
	return b.String(), true
}

// Set is a small collection of identities, used for "which endpoint is us".
type Set map[ID]struct{}

// NewSet normalizes every raw address and drops empty results.
func NewSet(raw ...string) Set {
	s := make(Set, len(raw))
	for _, r := range raw {
		s.Add(r)
	}
	return s
}

// Add normalizes raw and inserts it.
func (s Set) Add(raw string) {
	if id := Normalize(raw); !id.IsEmpty() {
		s[id] = struct{}{}
	}
}

// Contains reports whether id is in the set.
func (s Set) Contains(id ID) bool {
	if id.IsEmpty() {
		return false
	}
	_, ok := s[id]
	return ok
}
