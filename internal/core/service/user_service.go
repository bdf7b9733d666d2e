package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/shingo/auth-api/internal/audit"
	"github.com/shingo/auth-api/internal/core/domain"
	"github.com/shingo/auth-api/internal/core/ports"
)

// UserService manages user records. Passwords are hashed here, before they
// ever reach a repository.
type UserService struct {
	users    ports.UserRepository
	roles    ports.RoleRepository
	hasher   *Hasher
	auditLog *audit.Logger
	log      zerolog.Logger
}

func NewUserService(users ports.UserRepository, roles ports.RoleRepository, hasher *Hasher, auditLog *audit.Logger, log zerolog.Logger) *UserService {
	return &UserService{users: users, roles: roles, hasher: hasher, auditLog: auditLog, log: log}
}

// Create registers a new user with a hashed password.
func (s *UserService) Create(ctx context.Context, email, password, extID string, services []string) (*domain.User, error) {
	if email == "" || password == "" || len(services) == 0 {
		return nil, fmt.Errorf("%w: email, password and services are required", domain.ErrInvalidInput)
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	user := &domain.User{
		ExtID:          extID,
		Email:          email,
		PasswordDigest: digest,
		Services:       services,
		IsEnabled:      true,
	}
	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.auditLog.Record(audit.Entry{
		Kind:    audit.KindUserChange,
		Subject: email,
		Outcome: audit.OutcomeAccepted,
		Detail:  "user created",
	})
	return created, nil
}

// Update applies a partial user update, re-hashing the password when one is
// supplied.
func (s *UserService) Update(ctx context.Context, patch domain.UserPatch) error {
	if patch.ID == 0 && patch.ExtID == "" {
		return fmt.Errorf("%w: one of id or ext_id must identify the user", domain.ErrInvalidInput)
	}
	if patch.Password != nil {
		digest, err := s.hasher.Hash(*patch.Password)
		if err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		patch.Password = &digest
	}
	if err := s.users.Patch(ctx, patch); err != nil {
		return err
	}

	s.auditLog.Record(audit.Entry{
		Kind:    audit.KindUserChange,
		Subject: strconv.FormatInt(patch.ID, 10),
		Outcome: audit.OutcomeAccepted,
		Detail:  "user updated",
	})
	return nil
}

// Delete removes a user record.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.auditLog.Record(audit.Entry{
		Kind:    audit.KindUserChange,
		Subject: strconv.FormatInt(id, 10),
		Outcome: audit.OutcomeAccepted,
		Detail:  "user deleted",
	})
	return nil
}

// AddRole makes the user identified by email a member of the role.
func (s *UserService) AddRole(ctx context.Context, op domain.RoleOperation) error {
	return s.changeRole(ctx, op, true)
}

// RemoveRole revokes the user's membership of the role.
func (s *UserService) RemoveRole(ctx context.Context, op domain.RoleOperation) error {
	return s.changeRole(ctx, op, false)
}

func (s *UserService) changeRole(ctx context.Context, op domain.RoleOperation, add bool) error {
	user, err := s.users.FindByEmail(ctx, op.UserEmail)
	if err != nil {
		return fmt.Errorf("role operation: %w", err)
	}
	if _, err := s.roles.FindByID(ctx, op.RoleID); err != nil {
		return fmt.Errorf("role operation: %w", err)
	}

	if add {
		err = s.users.AddRole(ctx, user.ID, op.RoleID)
	} else {
		err = s.users.RemoveRole(ctx, user.ID, op.RoleID)
	}
	if err != nil {
		return fmt.Errorf("role operation: %w", err)
	}

	detail := "role removed"
	if add {
		detail = "role added"
	}
	s.auditLog.Record(audit.Entry{
		Kind:     audit.KindRoleChange,
		Subject:  op.UserEmail,
		Resource: strconv.FormatInt(op.RoleID, 10),
		Outcome:  audit.OutcomeAccepted,
		Detail:   detail,
	})
	return nil
}

// RoleService manages role records.
type RoleService struct {
	roles    ports.RoleRepository
	auditLog *audit.Logger
}

func NewRoleService(roles ports.RoleRepository, auditLog *audit.Logger) *RoleService {
	return &RoleService{roles: roles, auditLog: auditLog}
}

// Create registers a new role scoped to the given service.
func (s *RoleService) Create(ctx context.Context, name, service string) (*domain.Role, error) {
	if name == "" || service == "" {
		return nil, fmt.Errorf("%w: role name and service are required", domain.ErrInvalidInput)
	}
	created, err := s.roles.Create(ctx, &domain.Role{Name: name, Service: service})
	if err != nil {
		return nil, err
	}
	s.auditLog.Record(audit.Entry{
		Kind:    audit.KindRoleChange,
		Subject: name + "@" + service,
		Outcome: audit.OutcomeAccepted,
		Detail:  "role created",
	})
	return created, nil
}

// Delete removes a role record.
func (s *RoleService) Delete(ctx context.Context, id int64) error {
	if err := s.roles.Delete(ctx, id); err != nil {
		return err
	}
	s.auditLog.Record(audit.Entry{
		Kind:    audit.KindRoleChange,
		Subject: strconv.FormatInt(id, 10),
		Outcome: audit.OutcomeAccepted,
		Detail:  "role deleted",
	})
	return nil
}
