package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/shingo/auth-api/internal/core/domain"
	"github.com/shingo/auth-api/internal/core/token"
)

type stubAuthService struct {
	loginFn    func(ctx context.Context, creds domain.Credentials) (string, error)
	isValidFn  func(ctx context.Context, tok string) (*token.SessionClaims, error)
	canFn      func(ctx context.Context, req domain.AccessRequest) (bool, error)
	grantFn    func(ctx context.Context, req domain.GrantRequest) (domain.PermissionSet, error)
	loginAsFn  func(ctx context.Context, req domain.LoginAsRequest) (string, error)
	resetTokFn func(ctx context.Context, email string) (string, error)
	resetPwFn  func(ctx context.Context, tok, newPassword string) (string, error)
}

func (s *stubAuthService) Login(ctx context.Context, creds domain.Credentials) (string, error) {
	return s.loginFn(ctx, creds)
}

func (s *stubAuthService) IsValid(ctx context.Context, tok string) (*token.SessionClaims, error) {
	return s.isValidFn(ctx, tok)
}

func (s *stubAuthService) CanAccess(ctx context.Context, req domain.AccessRequest) (bool, error) {
	return s.canFn(ctx, req)
}

func (s *stubAuthService) GrantToUser(ctx context.Context, req domain.GrantRequest) (domain.PermissionSet, error) {
	return s.grantFn(ctx, req)
}

func (s *stubAuthService) GrantToRole(ctx context.Context, req domain.GrantRequest) (domain.PermissionSet, error) {
	return s.grantFn(ctx, req)
}

func (s *stubAuthService) RevokeFromUser(ctx context.Context, req domain.GrantRequest) (domain.PermissionSet, error) {
	return s.grantFn(ctx, req)
}

func (s *stubAuthService) RevokeFromRole(ctx context.Context, req domain.GrantRequest) (domain.PermissionSet, error) {
	return s.grantFn(ctx, req)
}

func (s *stubAuthService) GenerateResetToken(ctx context.Context, email string) (string, error) {
	return s.resetTokFn(ctx, email)
}

func (s *stubAuthService) ResetPassword(ctx context.Context, tok, newPassword string) (string, error) {
	return s.resetPwFn(ctx, tok, newPassword)
}

func (s *stubAuthService) LoginAs(ctx context.Context, req domain.LoginAsRequest) (string, error) {
	return s.loginAsFn(ctx, req)
}

func postJSON(e *echo.Echo, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		loginFn: func(_ context.Context, creds domain.Credentials) (string, error) {
			if creds.Email != "alice@example.com" || creds.Password != "secret-pw" {
				t.Fatalf("unexpected credentials: %+v", creds)
			}
			return "signed-token", nil
		},
	}
	h := NewAuthHandler(stub)

	c, rec := postJSON(e, "/auth/login", `{"email":"alice@example.com","password":"secret-pw"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp tokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Token != "signed-token" {
		t.Fatalf("unexpected token: %s", resp.Token)
	}
}

func TestAuthHandler_Login_RejectsBadPayload(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{
		loginFn: func(context.Context, domain.Credentials) (string, error) {
			t.Fatalf("service must not be called on invalid payload")
			return "", nil
		},
	})

	c, _ := postJSON(e, "/auth/login", `{"email":"not-an-email","password":""}`)
	err := h.Login(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAuthHandler_Valid(t *testing.T) {
	e := newTestEcho()
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	h := NewAuthHandler(&stubAuthService{
		isValidFn: func(_ context.Context, tok string) (*token.SessionClaims, error) {
			if tok != "raw-token" {
				t.Fatalf("unexpected token: %s", tok)
			}
			return &token.SessionClaims{
				Email: "bob@example.com",
				ExtID: "ext-9",
				RegisteredClaims: jwt.RegisteredClaims{
					IssuedAt:  jwt.NewNumericDate(now),
					ExpiresAt: jwt.NewNumericDate(now.Add(48 * time.Hour)),
				},
			}, nil
		},
	})

	c, rec := postJSON(e, "/auth/valid", `{"token":"raw-token"}`)
	if err := h.Valid(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp claimsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Email != "bob@example.com" || resp.ExtID != "ext-9" {
		t.Fatalf("unexpected claims: %+v", resp)
	}
	if resp.ExpiresAt-resp.IssuedAt != int64((48 * time.Hour).Seconds()) {
		t.Fatalf("unexpected lifetime: %+v", resp)
	}
}

func TestAuthHandler_Access(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{
		canFn: func(_ context.Context, req domain.AccessRequest) (bool, error) {
			if req.Resource != "reports" || req.Level != domain.LevelWrite || req.Email != "carol@example.com" {
				t.Fatalf("unexpected access request: %+v", req)
			}
			return true, nil
		},
	})

	c, rec := postJSON(e, "/auth/access", `{"resource":"reports","level":2,"email":"carol@example.com"}`)
	if err := h.Access(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp accessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !resp.Accessible {
		t.Fatalf("expected accessible=true")
	}
}

func TestAuthHandler_GrantToUser(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{
		grantFn: func(_ context.Context, req domain.GrantRequest) (domain.PermissionSet, error) {
			return domain.PermissionSet{PermissionID: 11, AccessorID: req.AccessorID}, nil
		},
	})

	c, rec := postJSON(e, "/auth/grant/user", `{"resource":"reports","level":1,"accessor_id":42}`)
	if err := h.GrantToUser(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp domain.PermissionSet
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.PermissionID != 11 || resp.AccessorID != 42 {
		t.Fatalf("unexpected permission set: %+v", resp)
	}
}

func TestAuthHandler_LoginAs(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{
		loginAsFn: func(_ context.Context, req domain.LoginAsRequest) (string, error) {
			if req.AdminID != 1 || req.UserID != 2 {
				t.Fatalf("unexpected request: %+v", req)
			}
			return "impersonation-token", nil
		},
	})

	c, rec := postJSON(e, "/auth/login-as", `{"admin_id":1,"user_id":2}`)
	if err := h.LoginAs(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp tokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Token != "impersonation-token" {
		t.Fatalf("unexpected token: %s", resp.Token)
	}
}

func TestAuthHandler_ResetPassword(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{
		resetPwFn: func(_ context.Context, tok, newPassword string) (string, error) {
			if tok != "reset-token" || newPassword != "fresh-password" {
				t.Fatalf("unexpected args: %s %s", tok, newPassword)
			}
			return "new-session", nil
		},
	})

	c, rec := postJSON(e, "/auth/reset-password", `{"token":"reset-token","password":"fresh-password"}`)
	if err := h.ResetPassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp tokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Token != "new-session" {
		t.Fatalf("unexpected token: %s", resp.Token)
	}
}

func TestAuthHandler_ErrorsPropagate(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{
		loginFn: func(context.Context, domain.Credentials) (string, error) {
			return "", domain.ErrInvalidPassword
		},
	})

	c, _ := postJSON(e, "/auth/login", `{"email":"dave@example.com","password":"wrong-pass"}`)
	if err := h.Login(c); err != domain.ErrInvalidPassword {
		t.Fatalf("expected raw domain error for the error handler, got %v", err)
	}
}
