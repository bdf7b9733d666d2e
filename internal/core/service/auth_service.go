package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/shingo/auth-api/internal/api/metrics"
	"github.com/shingo/auth-api/internal/audit"
	"github.com/shingo/auth-api/internal/core/domain"
	"github.com/shingo/auth-api/internal/core/ports"
	"github.com/shingo/auth-api/internal/core/token"
)

// affiliateManagerRole grants login-as unconditionally. Legacy carve-out for
// consumers created before per-user permissions existed; do not generalize.
const affiliateManagerRole = "Affiliate Manager"

// ResetMarker abstracts the single-use reset token store (Redis).
type ResetMarker interface {
	IsUsed(ctx context.Context, jti string) (bool, error)
	MarkUsed(ctx context.Context, jti string) error
}

// AuthService implements the user-facing authentication and authorization
// operations by coordinating the hasher, token service, evaluator, and grant
// manager. It holds no mutable state of its own.
type AuthService struct {
	users    ports.UserRepository
	hasher   *Hasher
	tokens   *token.Service
	eval     *Evaluator
	grants   *GrantManager
	resets   ResetMarker
	auditLog *audit.Logger
	log      zerolog.Logger
	now      func() time.Time
}

// NewAuthService wires the orchestrator. resets may be nil, in which case
// reset tokens are only invalidated by the lastLogin snapshot check.
func NewAuthService(
	users ports.UserRepository,
	hasher *Hasher,
	tokens *token.Service,
	eval *Evaluator,
	grants *GrantManager,
	resets ResetMarker,
	auditLog *audit.Logger,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		eval:     eval,
		grants:   grants,
		resets:   resets,
		auditLog: auditLog,
		log:      log,
		now:      time.Now,
	}
}

// Login verifies credentials and issues a session token. The user's
// lastLogin timestamp is bumped on success, which also invalidates any
// outstanding reset token.
func (s *AuthService) Login(ctx context.Context, creds domain.Credentials) (string, error) {
	user, err := s.users.FindByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.auditLog.Record(audit.Entry{
				Kind:    audit.KindEmailNotFound,
				Subject: creds.Email,
				Outcome: audit.OutcomeDenied,
				Detail:  "invalid log in attempt: " + creds.Email + "@" + creds.Services,
			})
			metrics.LoginsTotal.WithLabelValues("email_not_found").Inc()
			return "", domain.ErrEmailNotFound
		}
		return "", fmt.Errorf("login: %w", err)
	}

	start := s.now()
	ok, err := s.hasher.Verify(user.PasswordDigest, creds.Password)
	metrics.PasswordVerifyDuration.Observe(s.now().Sub(start).Seconds())
	if err != nil {
		// Malformed stored digest: surface the integrity fault, never treat
		// it as a non-match.
		return "", err
	}
	if !ok {
		s.auditLog.Record(audit.Entry{
			Kind:    audit.KindInvalidPassword,
			Subject: creds.Email,
			Outcome: audit.OutcomeDenied,
			Detail:  "invalid log in attempt: " + creds.Email + "@" + creds.Services,
		})
		metrics.LoginsTotal.WithLabelValues("invalid_password").Inc()
		return "", domain.ErrInvalidPassword
	}

	tok, err := s.tokens.IssueSession(user.Email, user.ExtID)
	if err != nil {
		return "", fmt.Errorf("login: issue token: %w", err)
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, s.now().UTC()); err != nil {
		return "", fmt.Errorf("login: update last login: %w", err)
	}

	s.auditLog.Record(audit.Entry{
		Kind:    audit.KindLogin,
		Subject: creds.Email,
		Outcome: audit.OutcomeAccepted,
		Detail:  "successful login: " + creds.Email + "@" + creds.Services,
	})
	metrics.LoginsTotal.WithLabelValues("accepted").Inc()
	return tok, nil
}

// IsValid verifies a session token and confirms its subject still exists.
func (s *AuthService) IsValid(ctx context.Context, tok string) (*token.SessionClaims, error) {
	claims, err := s.tokens.VerifySession(tok)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.auditLog.Record(audit.Entry{
				Kind:    audit.KindInvalidToken,
				Subject: claims.Email,
				Outcome: audit.OutcomeDenied,
				Detail:  "subject not found: " + tok,
			})
			return nil, domain.ErrTokenSubjectNotFound
		}
		return nil, fmt.Errorf("isValid: %w", err)
	}

	s.auditLog.Record(audit.Entry{
		Kind:    audit.KindTokenValid,
		Subject: user.Email,
		Outcome: audit.OutcomeAccepted,
		Detail:  "user authenticated",
	})
	return claims, nil
}

// CanAccess decides an authorization request. An unknown user yields false,
// not an error: authorization checks must not leak account existence.
func (s *AuthService) CanAccess(ctx context.Context, req domain.AccessRequest) (bool, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.auditLog.Record(audit.Entry{
				Kind:     audit.KindUserNotFound,
				Subject:  req.Email,
				Resource: req.Resource,
				Level:    req.Level.String(),
				Outcome:  audit.OutcomeDenied,
			})
			metrics.AccessDecisionsTotal.WithLabelValues("denied").Inc()
			return false, nil
		}
		return false, fmt.Errorf("canAccess: %w", err)
	}

	allowed := s.eval.Can(user, req)
	if allowed {
		metrics.AccessDecisionsTotal.WithLabelValues("accepted").Inc()
	} else {
		metrics.AccessDecisionsTotal.WithLabelValues("denied").Inc()
	}
	return allowed, nil
}

// GrantToUser attaches a permission to a user.
func (s *AuthService) GrantToUser(ctx context.Context, req domain.GrantRequest) (domain.PermissionSet, error) {
	return s.grants.Grant(ctx, domain.AccessorUser, req)
}

// GrantToRole attaches a permission to a role.
func (s *AuthService) GrantToRole(ctx context.Context, req domain.GrantRequest) (domain.PermissionSet, error) {
	return s.grants.Grant(ctx, domain.AccessorRole, req)
}

// RevokeFromUser detaches a permission from a user.
func (s *AuthService) RevokeFromUser(ctx context.Context, req domain.GrantRequest) (domain.PermissionSet, error) {
	return s.grants.Revoke(ctx, domain.AccessorUser, req)
}

// RevokeFromRole detaches a permission from a role.
func (s *AuthService) RevokeFromRole(ctx context.Context, req domain.GrantRequest) (domain.PermissionSet, error) {
	return s.grants.Revoke(ctx, domain.AccessorRole, req)
}

// GenerateResetToken issues a short-lived reset token for the user,
// embedding the current lastLogin snapshot.
func (s *AuthService) GenerateResetToken(ctx context.Context, email string) (string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrEmailNotFound
		}
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return s.tokens.IssueReset(user.ID, user.Email, user.LastLogin)
}

// ResetPassword consumes a reset token, stores the new password digest, and
// returns a fresh session token via a regular login. The token is single
// use: its lastLogin snapshot must still match the user's current value, and
// its id is marked consumed once the password is changed.
func (s *AuthService) ResetPassword(ctx context.Context, tok, newPassword string) (string, error) {
	claims, err := s.tokens.VerifyReset(tok)
	if err != nil {
		return "", err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", fmt.Errorf("%w: user %d not found", domain.ErrResetFailed, claims.UserID)
		}
		return "", fmt.Errorf("reset password: %w", err)
	}

	if user.LastLogin.Unix() != claims.LastLogin {
		s.auditLog.Record(audit.Entry{
			Kind:    audit.KindInvalidToken,
			Subject: claims.Email,
			Outcome: audit.OutcomeDenied,
			Detail:  "reset token stale: login occurred after issuance",
		})
		return "", domain.ErrTokenExpired
	}

	if s.resets != nil {
		used, err := s.resets.IsUsed(ctx, claims.ID)
		if err != nil {
			s.log.Warn().Err(err).Msg("reset marker check failed, relying on snapshot only")
		} else if used {
			s.auditLog.Record(audit.Entry{
				Kind:    audit.KindInvalidToken,
				Subject: claims.Email,
				Outcome: audit.OutcomeDenied,
				Detail:  "reset token already consumed",
			})
			return "", domain.ErrTokenExpired
		}
	}

	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		return "", fmt.Errorf("reset password: %w", err)
	}
	if err := s.users.Patch(ctx, domain.UserPatch{ID: claims.UserID, Password: &digest}); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrResetFailed, err)
	}

	if s.resets != nil {
		if err := s.resets.MarkUsed(ctx, claims.ID); err != nil {
			s.log.Warn().Err(err).Msg("failed to mark reset token consumed")
		}
	}

	s.auditLog.Record(audit.Entry{
		Kind:    audit.KindPasswordReset,
		Subject: claims.Email,
		Outcome: audit.OutcomeAccepted,
	})

	return s.Login(ctx, domain.Credentials{Email: claims.Email, Password: newPassword})
}

// LoginAs issues a session token for an arbitrary user to an admin holding
// Read access to that user (or to all users). Unlike CanAccess, a missing
// admin record here is a hard failure.
func (s *AuthService) LoginAs(ctx context.Context, req domain.LoginAsRequest) (string, error) {
	admin, err := s.users.FindByID(ctx, req.AdminID)
	if err != nil {
		return "", fmt.Errorf("loginAs: admin lookup: %w", err)
	}

	requests := []domain.AccessRequest{
		{Resource: fmt.Sprintf("user -- %d", req.UserID), Level: domain.LevelRead, Email: admin.Email},
		{Resource: "user -- all_users", Level: domain.LevelRead, Email: admin.Email},
	}

	allowed := admin.HasRoleNamed(affiliateManagerRole)
	for _, r := range requests {
		if allowed {
			break
		}
		allowed = s.eval.Can(admin, r)
	}

	if !allowed {
		s.log.Error().
			Int64("admin_id", req.AdminID).
			Int64("user_id", req.UserID).
			Msg("insufficient permission for login-as")
		return "", domain.ErrInsufficientPermission
	}

	target, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrUserNotFound
		}
		return "", fmt.Errorf("loginAs: target lookup: %w", err)
	}

	tok, err := s.tokens.IssueSession(target.Email, target.ExtID)
	if err != nil {
		return "", fmt.Errorf("loginAs: issue token: %w", err)
	}

	s.auditLog.Record(audit.Entry{
		Kind:    audit.KindLoginAs,
		Subject: admin.Email,
		Outcome: audit.OutcomeAccepted,
		Detail:  fmt.Sprintf("admin %d logged in as user %d", req.AdminID, req.UserID),
	})
	return tok, nil
}
