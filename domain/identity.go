// Package domain contains core concepts of the chat system.
// This file defines participant identities and their lookup rules.
// No runtime, network, or UI logic should be added here.
package domain

import "golang.org/x/text/cases"

// Identity is a participant handle as seen on the wire.
// Two identities designate the same principal when their keys match,
// Display keeps the casing the participant last presented.
type Identity struct {
	Key     string
	Display string
}

func NewIdentity(raw string) Identity {
	return Identity{Key: Normalize(raw), Display: raw}
}

// Normalize returns the case-folded lookup key of an identity.
// A Caser holds state, so a fresh one is built per call.
func Normalize(raw string) string {
	return cases.Fold().String(raw)
}

// SamePrincipal reports whether two raw identities resolve to the same key.
func SamePrincipal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

func (i Identity) String() string {
	return i.Display
}
