package domain

import "errors"

var (
	// Request validation.
	ErrInvalidInput = errors.New("invalid input")

	// Credential and identity lookups.
	ErrEmailNotFound   = errors.New("email not found")
	ErrInvalidPassword = errors.New("invalid password")
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrRoleNotFound    = errors.New("role not found")

	// Token verification, one sentinel per observable failure mode.
	ErrTokenMalformed       = errors.New("token malformed")
	ErrTokenExpired         = errors.New("token expired")
	ErrTokenNotYetValid     = errors.New("token not yet valid")
	ErrTokenSubjectNotFound = errors.New("token subject not found")

	// Permission graph mutation and evaluation.
	ErrPermissionNotFound     = errors.New("permission not found")
	ErrInsufficientPermission = errors.New("insufficient permission")

	// Password reset.
	ErrResetFailed = errors.New("password reset failed")

	// A stored digest that cannot be parsed is a data-integrity fault,
	// never a silent non-match.
	ErrDataIntegrity = errors.New("data integrity error")
)
