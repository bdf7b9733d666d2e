// Package token issues and verifies the two signed-claim token kinds: long
// lived session tokens asserting an authenticated identity, and short lived
// reset tokens authorizing one password change.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/shingo/auth-api/internal/audit"
	"github.com/shingo/auth-api/internal/core/domain"
)

const (
	defaultSessionTTL = 48 * time.Hour
	defaultResetTTL   = 2 * time.Hour

	kindSession = "session"
	kindReset   = "reset"
)

// SessionClaims is the identity assertion carried by a session token.
type SessionClaims struct {
	Kind  string `json:"typ"`
	Email string `json:"email"`
	ExtID string `json:"extId,omitempty"`
	jwt.RegisteredClaims
}

// ResetClaims authorizes a single password change. LastLogin carries the
// user's last-login timestamp (unix seconds) at issue time; a login after
// issuance makes the snapshot stale and the token unusable.
type ResetClaims struct {
	Kind      string `json:"typ"`
	UserID    int64  `json:"id"`
	Email     string `json:"email"`
	LastLogin int64  `json:"lastLogin"`
	jwt.RegisteredClaims
}

// Service signs and verifies tokens with a single shared HS256 secret.
// Issue has no side effects and no persistence; verification failures are
// audit-logged with the original token value and the failure reason.
type Service struct {
	secret     []byte
	issuer     string
	sessionTTL time.Duration
	resetTTL   time.Duration
	auditLog   *audit.Logger
	now        func() time.Time
}

// Option configures Service behaviour.
type Option func(*Service)

// WithSessionTTL overrides the session token lifetime.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithResetTTL overrides the reset token lifetime.
func WithResetTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.resetTTL = ttl
		}
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService builds a token Service signing with secret on behalf of issuer.
func NewService(secret, issuer string, auditLog *audit.Logger, opts ...Option) *Service {
	s := &Service{
		secret:     []byte(secret),
		issuer:     issuer,
		sessionTTL: defaultSessionTTL,
		resetTTL:   defaultResetTTL,
		auditLog:   auditLog,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssueSession signs a session token for the given identity.
func (s *Service) IssueSession(email, extID string) (string, error) {
	now := s.now().UTC()
	claims := SessionClaims{
		Kind:  kindSession,
		Email: email,
		ExtID: extID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// IssueReset signs a reset token embedding the lastLogin snapshot.
func (s *Service) IssueReset(userID int64, email string, lastLogin time.Time) (string, error) {
	now := s.now().UTC()
	claims := ResetClaims{
		Kind:      kindReset,
		UserID:    userID,
		Email:     email,
		LastLogin: lastLogin.Unix(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.resetTTL)),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// VerifySession runs the verify pipeline for a session token. The subject
// existence check is the caller's responsibility; everything up to and
// including claim-shape validation happens here.
func (s *Service) VerifySession(raw string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := s.verify(raw, claims); err != nil {
		return nil, err
	}
	if claims.Kind != kindSession || claims.Email == "" {
		s.auditFailure(raw, "not a session token")
		return nil, domain.ErrTokenMalformed
	}
	return claims, nil
}

// VerifyReset runs the verify pipeline for a reset token.
func (s *Service) VerifyReset(raw string) (*ResetClaims, error) {
	claims := &ResetClaims{}
	if err := s.verify(raw, claims); err != nil {
		return nil, err
	}
	if claims.Kind != kindReset || claims.UserID == 0 || claims.Email == "" {
		s.auditFailure(raw, "not a reset token")
		return nil, domain.ErrTokenMalformed
	}
	return claims, nil
}

// verify performs the shared structural, signature, issuer, not-before, and
// expiry checks, mapping each failure to its own sentinel.
func (s *Service) verify(raw string, claims jwt.Claims) error {
	if raw == "" {
		s.auditFailure(raw, "token was empty")
		return domain.ErrTokenMalformed
	}

	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithTimeFunc(func() time.Time { return s.now() }))

	switch {
	case err == nil && parsed.Valid:
		return nil
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		s.auditFailure(raw, "token not yet valid")
		return domain.ErrTokenNotYetValid
	case errors.Is(err, jwt.ErrTokenExpired):
		s.auditFailure(raw, "token expired")
		return domain.ErrTokenExpired
	default:
		s.auditFailure(raw, "token malformed or signature invalid")
		return domain.ErrTokenMalformed
	}
}

func (s *Service) auditFailure(raw, reason string) {
	if s.auditLog == nil {
		return
	}
	s.auditLog.Record(audit.Entry{
		Kind:    audit.KindInvalidToken,
		Outcome: audit.OutcomeDenied,
		Detail:  reason + ": " + raw,
	})
}
