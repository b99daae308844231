package token

import (
	"errors"
	"testing"
	"time"

	"github.com/MarziehKaviani/IranianPooshesh/internal/config"
	"github.com/MarziehKaviani/IranianPooshesh/internal/directory"
)

func testIssuer() *Issuer {
	return NewIssuer(config.Config{
		JWTSecret:       "access-secret",
		RefreshSecret:   "refresh-secret",
		AnonSecret:      "anon-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		AnonTokenTTL:    30 * time.Minute,
	})
}

func verifiedUser() directory.User {
	return directory.User{
		ID:          "7b5a2c8e-0000-4000-8000-000000000001",
		PhoneNumber: "+989123456789",
		State:       directory.StatePhoneVerified,
		IsActive:    true,
	}
}

func TestIssueAndParseAnonymous(t *testing.T) {
	issuer := testIssuer()

	tok, err := issuer.IssueAnonymous()
	if err != nil {
		t.Fatalf("issue anonymous: %v", err)
	}
	if err := issuer.ParseAnonymous(tok); err != nil {
		t.Fatalf("parse anonymous: %v", err)
	}
	// An anonymous token carries no user identity.
	if _, err := issuer.ParseAccess(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected anonymous token to fail access parsing, got %v", err)
	}
}

func TestIssueSessionPair(t *testing.T) {
	issuer := testIssuer()
	user := verifiedUser()

	pair, err := issuer.IssueSession(user)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", pair)
	}
	if pair.ExpiresIn != int64((15 * time.Minute).Seconds()) {
		t.Fatalf("unexpected expires_in %d", pair.ExpiresIn)
	}

	identity, err := issuer.ParseAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if identity.UserID != user.ID || identity.PhoneNumber != user.PhoneNumber {
		t.Fatalf("unexpected identity %+v", identity)
	}

	// The refresh token is signed with a different secret.
	if _, err := issuer.ParseAccess(pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected refresh token to fail access parsing, got %v", err)
	}
}

func TestIssueSessionEligibility(t *testing.T) {
	issuer := testIssuer()

	blocked := verifiedUser()
	blocked.IsBlocked = true
	if _, err := issuer.IssueSession(blocked); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible for blocked user, got %v", err)
	}

	pending := verifiedUser()
	pending.State = directory.StatePending
	if _, err := issuer.IssueSession(pending); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible for pending user, got %v", err)
	}

	inactive := verifiedUser()
	inactive.IsActive = false
	if _, err := issuer.IssueSession(inactive); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible for inactive user, got %v", err)
	}
}

func TestRefresh(t *testing.T) {
	issuer := testIssuer()

	pair, err := issuer.IssueSession(verifiedUser())
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}

	access, expiresIn, err := issuer.Refresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if expiresIn != int64((15 * time.Minute).Seconds()) {
		t.Fatalf("unexpected expires_in %d", expiresIn)
	}

	identity, err := issuer.ParseAccess(access)
	if err != nil {
		t.Fatalf("parse refreshed access: %v", err)
	}
	if identity.UserID != verifiedUser().ID {
		t.Fatalf("refreshed token lost identity: %+v", identity)
	}

	// Access tokens must not work as refresh tokens.
	if _, _, err := issuer.Refresh(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected access token to fail refresh, got %v", err)
	}
	if _, _, err := issuer.Refresh("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected garbage to fail refresh, got %v", err)
	}
}
