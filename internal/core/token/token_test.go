package token

import (
	"errors"
	"testing"
	"time"

	"github.com/shingo/auth-api/internal/core/domain"
)

var testEpoch = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func serviceAt(at time.Time, opts ...Option) *Service {
	opts = append([]Option{WithClock(func() time.Time { return at })}, opts...)
	return NewService("test-secret", "auth-api", nil, opts...)
}

func TestService_SessionRoundTrip(t *testing.T) {
	s := serviceAt(testEpoch)

	raw, err := s.IssueSession("alice@example.com", "ext-1")
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}

	claims, err := s.VerifySession(raw)
	if err != nil {
		t.Fatalf("verify session: %v", err)
	}
	if claims.Email != "alice@example.com" || claims.ExtID != "ext-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ID == "" {
		t.Fatalf("expected a token id claim")
	}
	if got := claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time); got != 48*time.Hour {
		t.Fatalf("default session lifetime = %v, want 48h", got)
	}
}

func TestService_ResetRoundTrip(t *testing.T) {
	lastLogin := testEpoch.Add(-24 * time.Hour)
	s := serviceAt(testEpoch)

	raw, err := s.IssueReset(7, "bob@example.com", lastLogin)
	if err != nil {
		t.Fatalf("issue reset: %v", err)
	}

	claims, err := s.VerifyReset(raw)
	if err != nil {
		t.Fatalf("verify reset: %v", err)
	}
	if claims.UserID != 7 || claims.Email != "bob@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.LastLogin != lastLogin.Unix() {
		t.Fatalf("lastLogin snapshot = %d, want %d", claims.LastLogin, lastLogin.Unix())
	}
	if got := claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time); got != 2*time.Hour {
		t.Fatalf("default reset lifetime = %v, want 2h", got)
	}
}

func TestService_Expiry(t *testing.T) {
	issued, err := serviceAt(testEpoch).IssueSession("carol@example.com", "")
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}

	late := serviceAt(testEpoch.Add(49 * time.Hour))
	if _, err := late.VerifySession(issued); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestService_NotYetValid(t *testing.T) {
	issued, err := serviceAt(testEpoch).IssueSession("carol@example.com", "")
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}

	early := serviceAt(testEpoch.Add(-time.Hour))
	if _, err := early.VerifySession(issued); !errors.Is(err, domain.ErrTokenNotYetValid) {
		t.Fatalf("expected ErrTokenNotYetValid, got %v", err)
	}
}

func TestService_MalformedInputs(t *testing.T) {
	s := serviceAt(testEpoch)

	for _, raw := range []string{"", "garbage", "a.b.c"} {
		if _, err := s.VerifySession(raw); !errors.Is(err, domain.ErrTokenMalformed) {
			t.Fatalf("input %q: expected ErrTokenMalformed, got %v", raw, err)
		}
	}
}

func TestService_WrongSecret(t *testing.T) {
	issued, err := serviceAt(testEpoch).IssueSession("dave@example.com", "")
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}

	other := NewService("different-secret", "auth-api", nil, WithClock(func() time.Time { return testEpoch }))
	if _, err := other.VerifySession(issued); !errors.Is(err, domain.ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed for wrong secret, got %v", err)
	}
}

func TestService_WrongIssuer(t *testing.T) {
	foreign := NewService("test-secret", "someone-else", nil, WithClock(func() time.Time { return testEpoch }))
	issued, err := foreign.IssueSession("eve@example.com", "")
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}

	if _, err := serviceAt(testEpoch).VerifySession(issued); !errors.Is(err, domain.ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed for wrong issuer, got %v", err)
	}
}

func TestService_KindsAreNotInterchangeable(t *testing.T) {
	s := serviceAt(testEpoch)

	session, err := s.IssueSession("frank@example.com", "")
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	if _, err := s.VerifyReset(session); !errors.Is(err, domain.ErrTokenMalformed) {
		t.Fatalf("expected session token to fail reset verification, got %v", err)
	}

	// A reset token carries an email claim too, so only the typ check keeps
	// it from authenticating as a session.
	reset, err := s.IssueReset(7, "frank@example.com", testEpoch.Add(-time.Hour))
	if err != nil {
		t.Fatalf("issue reset: %v", err)
	}
	if _, err := s.VerifySession(reset); !errors.Is(err, domain.ErrTokenMalformed) {
		t.Fatalf("expected reset token to fail session verification, got %v", err)
	}
}

func TestService_TTLOverrides(t *testing.T) {
	s := serviceAt(testEpoch, WithSessionTTL(time.Minute), WithResetTTL(30*time.Second))

	session, err := s.IssueSession("grace@example.com", "")
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	claims, err := s.VerifySession(session)
	if err != nil {
		t.Fatalf("verify session: %v", err)
	}
	if got := claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time); got != time.Minute {
		t.Fatalf("session lifetime = %v, want 1m", got)
	}
}
