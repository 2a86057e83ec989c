package auth

import (
	"errors"
	"testing"
	"time"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	i := NewTokenIssuer("secret", time.Hour)

	token, err := i.Issue("user_42")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	subject, err := i.Verify(token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if subject != "user_42" {
		t.Fatalf("expected subject user_42, got %q", subject)
	}
}

func TestTokenIssuer_Expired(t *testing.T) {
	i := NewTokenIssuer("secret", time.Hour)

	issuedAt := time.Now().Add(-2 * time.Hour)
	i.now = func() time.Time { return issuedAt }
	token, err := i.Issue("user_42")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	i.now = time.Now
	if _, err := i.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenIssuer_ValidUntilExpiry(t *testing.T) {
	i := NewTokenIssuer("secret", time.Hour)

	issuedAt := time.Now()
	i.now = func() time.Time { return issuedAt }
	token, err := i.Issue("user_42")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	// Just inside the window.
	i.now = func() time.Time { return issuedAt.Add(time.Hour - time.Second) }
	if _, err := i.Verify(token); err != nil {
		t.Fatalf("expected token still valid, got %v", err)
	}
}

func TestTokenIssuer_BadSignature(t *testing.T) {
	a := NewTokenIssuer("secret-a", time.Hour)
	b := NewTokenIssuer("secret-b", time.Hour)

	token, err := a.Issue("user_42")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if _, err := b.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokenIssuer_Malformed(t *testing.T) {
	i := NewTokenIssuer("secret", time.Hour)

	if _, err := i.Verify("not-a-token"); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}
	if _, err := i.Verify(""); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed for empty input, got %v", err)
	}
}

func TestTokenIssuer_DefaultTTL(t *testing.T) {
	i := NewTokenIssuer("secret", 0)
	if i.TTL() != DefaultTokenTTL {
		t.Fatalf("expected default TTL, got %v", i.TTL())
	}
}
