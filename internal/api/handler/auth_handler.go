package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shingo/auth-api/internal/core/domain"
	"github.com/shingo/auth-api/internal/core/ports"
)

type AuthHandler struct {
	auth ports.AuthService
}

func NewAuthHandler(auth ports.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Services string `json:"services"`
}

type tokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type accessRequest struct {
	Resource string `json:"resource" validate:"required"`
	Level    int    `json:"level" validate:"oneof=0 1 2"`
	Email    string `json:"email" validate:"required,email"`
}

type grantRequest struct {
	Resource   string `json:"resource" validate:"required"`
	Level      int    `json:"level" validate:"oneof=0 1 2"`
	AccessorID int64  `json:"accessor_id" validate:"required"`
}

type loginAsRequest struct {
	AdminID int64 `json:"admin_id" validate:"required"`
	UserID  int64 `json:"user_id" validate:"required"`
}

type resetTokenRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type accessResponse struct {
	Accessible bool `json:"accessible"`
}

type claimsResponse struct {
	Email     string `json:"email"`
	ExtID     string `json:"ext_id,omitempty"`
	IssuedAt  int64  `json:"issued_at"`
	ExpiresAt int64  `json:"expires_at"`
}

// Login verifies credentials and issues a session token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tok, err := h.auth.Login(c.Request().Context(), domain.Credentials{
		Email:    req.Email,
		Password: req.Password,
		Services: req.Services,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tokenResponse{Token: tok})
}

// Valid checks a session token and returns its claims.
//
// @Summary      Validate a session token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      tokenRequest  true  "Session token"
// @Success      200   {object}  claimsResponse
// @Failure      401   {object}  map[string]string
// @Router       /auth/valid [post]
func (h *AuthHandler) Valid(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	claims, err := h.auth.IsValid(c.Request().Context(), req.Token)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, claimsResponse{
		Email:     claims.Email,
		ExtID:     claims.ExtID,
		IssuedAt:  claims.IssuedAt.Unix(),
		ExpiresAt: claims.ExpiresAt.Unix(),
	})
}

// Access answers whether a user may act on a resource at a level.
//
// @Summary      Check resource access
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      accessRequest  true  "Access query"
// @Success      200   {object}  accessResponse
// @Failure      400   {object}  map[string]string
// @Router       /auth/access [post]
func (h *AuthHandler) Access(c echo.Context) error {
	var req accessRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ok, err := h.auth.CanAccess(c.Request().Context(), domain.AccessRequest{
		Resource: req.Resource,
		Level:    domain.Level(req.Level),
		Email:    req.Email,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, accessResponse{Accessible: ok})
}

// GrantToUser attaches a permission to a user.
//
// @Summary      Grant a permission to a user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      grantRequest  true  "Permission grant"
// @Success      200   {object}  domain.PermissionSet
// @Failure      400   {object}  map[string]string
// @Router       /auth/grant/user [post]
func (h *AuthHandler) GrantToUser(c echo.Context) error {
	return h.permissionOp(c, h.auth.GrantToUser)
}

// GrantToRole attaches a permission to a role.
//
// @Summary      Grant a permission to a role
// @Tags         auth
// @Router       /auth/grant/role [post]
func (h *AuthHandler) GrantToRole(c echo.Context) error {
	return h.permissionOp(c, h.auth.GrantToRole)
}

// RevokeFromUser detaches a permission from a user.
//
// @Summary      Revoke a permission from a user
// @Tags         auth
// @Router       /auth/revoke/user [post]
func (h *AuthHandler) RevokeFromUser(c echo.Context) error {
	return h.permissionOp(c, h.auth.RevokeFromUser)
}

// RevokeFromRole detaches a permission from a role.
//
// @Summary      Revoke a permission from a role
// @Tags         auth
// @Router       /auth/revoke/role [post]
func (h *AuthHandler) RevokeFromRole(c echo.Context) error {
	return h.permissionOp(c, h.auth.RevokeFromRole)
}

// LoginAs lets an administrator obtain a session token for another user.
//
// @Summary      Impersonate a user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginAsRequest  true  "Admin and target user ids"
// @Success      200   {object}  tokenResponse
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /auth/login-as [post]
func (h *AuthHandler) LoginAs(c echo.Context) error {
	var req loginAsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tok, err := h.auth.LoginAs(c.Request().Context(), domain.LoginAsRequest{
		AdminID: req.AdminID,
		UserID:  req.UserID,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tokenResponse{Token: tok})
}

// ResetToken issues a short-lived password reset token.
//
// @Summary      Request a password reset token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resetTokenRequest  true  "Account email"
// @Success      200   {object}  tokenResponse
// @Failure      404   {object}  map[string]string
// @Router       /auth/reset-token [post]
func (h *AuthHandler) ResetToken(c echo.Context) error {
	var req resetTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tok, err := h.auth.GenerateResetToken(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tokenResponse{Token: tok})
}

// ResetPassword consumes a reset token, stores the new password, and returns
// a fresh session token.
//
// @Summary      Reset a password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resetPasswordRequest  true  "Reset token and new password"
// @Success      200   {object}  tokenResponse
// @Failure      401   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tok, err := h.auth.ResetPassword(c.Request().Context(), req.Token, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tokenResponse{Token: tok})
}

func (h *AuthHandler) permissionOp(c echo.Context, op func(ctx context.Context, req domain.GrantRequest) (domain.PermissionSet, error)) error {
	var req grantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	set, err := op(c.Request().Context(), domain.GrantRequest{
		Resource:   req.Resource,
		Level:      domain.Level(req.Level),
		AccessorID: req.AccessorID,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, set)
}
