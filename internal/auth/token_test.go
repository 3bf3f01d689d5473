package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/meridianhq/meridian/internal/shared"
)

func TestCodecRoundTrip(t *testing.T) {
	codec := NewCodec([]byte("secret"), time.Hour)

	cases := []struct {
		subject string
		role    string
	}{
		{"alice@example.com", "USER"},
		{"admin@example.com", "ADMIN"},
		{"both@example.com", "ADMIN,USER"},
	}
	for _, tc := range cases {
		token, err := codec.Issue(tc.subject, tc.role)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		claims, err := codec.Parse(token)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if claims.Subject != tc.subject {
			t.Fatalf("expected subject %q, got %q", tc.subject, claims.Subject)
		}
		if claims.Role != tc.role {
			t.Fatalf("expected role %q, got %q", tc.role, claims.Role)
		}
	}
}

func TestCodecExpiryBoundary(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := issued
	codec := NewCodec([]byte("secret"), time.Hour).WithClock(func() time.Time { return now })

	token, err := codec.Issue("alice@example.com", "USER")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	now = issued.Add(time.Hour - time.Second)
	if !codec.Validate(token) {
		t.Fatal("token should validate just before expiry")
	}

	// No leeway: the token dies at exactly exp.
	now = issued.Add(time.Hour)
	if codec.Validate(token) {
		t.Fatal("token should fail validation at the expiry instant")
	}
	if _, err := codec.Parse(token); !errors.Is(err, shared.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestCodecRejectsTamperedToken(t *testing.T) {
	codec := NewCodec([]byte("secret"), time.Hour)
	token, err := codec.Issue("alice@example.com", "USER")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected compact three-part token, got %d parts", len(parts))
	}
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
	if _, err := codec.Parse(tampered); !errors.Is(err, shared.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for tampered signature, got %v", err)
	}
}

func TestCodecRejectsForeignKey(t *testing.T) {
	codec := NewCodec([]byte("secret"), time.Hour)
	other := NewCodec([]byte("rotated"), time.Hour)

	token, err := codec.Issue("alice@example.com", "USER")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if other.Validate(token) {
		t.Fatal("rotating the secret must invalidate outstanding tokens")
	}
}

func TestCodecRejectsMalformed(t *testing.T) {
	codec := NewCodec([]byte("secret"), time.Hour)
	for _, raw := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		if codec.Validate(raw) {
			t.Fatalf("expected %q to be invalid", raw)
		}
	}
}
