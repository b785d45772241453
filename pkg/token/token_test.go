package token

import (
	"errors"
	"testing"
	"time"
)

func TestIssueVerify_RoundTrip(t *testing.T) {
	t.Parallel()

	m, err := New("super-secret", time.Hour)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	before := time.Now()
	tok, err := m.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	claims, err := m.Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if claims.UserID != "user-123" {
		t.Fatalf("userID mismatch: got %q want %q", claims.UserID, "user-123")
	}
	if claims.IssuedAt.Before(before.Truncate(time.Second)) {
		t.Fatalf("issuedAt %v earlier than issuance %v", claims.IssuedAt, before)
	}
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	m, _ := New("secret", time.Hour)
	expired := &Manager{secret: []byte("secret"), validity: -time.Minute}

	tok, err := expired.Issue("u1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if _, err := m.Verify(tok); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	issuer, _ := New("right-secret", time.Hour)
	verifier, _ := New("wrong-secret", time.Hour)

	tok, err := issuer.Issue("u2")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if _, err := verifier.Verify(tok); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	m, _ := New("k", time.Hour)
	if _, err := m.Verify("not.a.jwt"); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestNew_RequiresSecret(t *testing.T) {
	t.Parallel()

	if _, err := New("", time.Hour); err == nil {
		t.Fatalf("expected error for empty secret, got nil")
	}
}
