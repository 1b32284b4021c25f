// Package id mints and checks the 32-char identifiers carried by
// collaterals, applications, loans, transactions and users.
package id

import (
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var reID = regexp.MustCompile(`^[a-f0-9]{32}$`)

// New returns a random UUID as 32 lowercase hex characters.
func New() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// Valid reports whether s is already in compact form.
func Valid(s string) bool { return reID.MatchString(s) }

// Normalize folds a dashed UUID into the compact form. ok is false when raw
// is neither.
func Normalize(raw string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if Valid(s) {
		return s, true
	}
	if len(s) != 36 {
		return "", false
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return "", false
	}
	return hex.EncodeToString(u[:]), true
}
