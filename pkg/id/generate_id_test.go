package id

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNew_IsCompactUUID(t *testing.T) {
	got := New()
	if !Valid(got) {
		t.Fatalf("not 32-char lowercase hex: %q", got)
	}
	b, err := hex.DecodeString(got)
	if err != nil {
		t.Fatalf("hex.DecodeString error: %v", err)
	}
	u, err := uuid.FromBytes(b)
	if err != nil {
		t.Fatalf("uuid.FromBytes: %v", err)
	}
	if u.Version() != 4 {
		t.Fatalf("version = %d, want 4", u.Version())
	}
}

func TestNew_Uniqueness(t *testing.T) {
	const n = 200
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		v := New()
		if _, ok := seen[v]; ok {
			t.Fatalf("duplicate id after %d iterations: %q", i, v)
		}
		seen[v] = struct{}{}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
		ok       bool
	}{
		{"3f9a6a1b3d544fbe8b3a6b3e8d6b2c88", "3f9a6a1b3d544fbe8b3a6b3e8d6b2c88", true},
		{"  3F9A6A1B3D544FBE8B3A6B3E8D6B2C88 ", "3f9a6a1b3d544fbe8b3a6b3e8d6b2c88", true},
		{"3f9a6a1b-3d54-4fbe-8b3a-6b3e8d6b2c88", "3f9a6a1b3d544fbe8b3a6b3e8d6b2c88", true},
		{"", "", false},
		{"3f9a6a1b3d544fbe8b3a6b3e8d6b2c8", "", false},
		{"zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz", "", false},
		{"3f9a6a1b_3d54_4fbe_8b3a_6b3e8d6b2c88", "", false},
		{"urn:uuid:3f9a6a1b-3d54-4fbe-8b3a-6b3e8d6b2c88", "", false},
	}
	for _, tt := range tests {
		got, ok := Normalize(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("Normalize(%q) = %q,%v want %q,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
	if Valid(strings.Repeat("A", 32)) {
		t.Fatal("Valid must reject uppercase")
	}
}
