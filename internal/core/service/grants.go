package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/shingo/auth-api/internal/api/metrics"
	"github.com/shingo/auth-api/internal/audit"
	"github.com/shingo/auth-api/internal/core/domain"
	"github.com/shingo/auth-api/internal/core/ports"
)

// GrantManager mutates the permission-to-accessor association graph. Grants
// find-or-create the permission record by its (resource, level) natural key;
// revokes require it to already exist.
type GrantManager struct {
	perms    ports.PermissionRepository
	auditLog *audit.Logger
}

// NewGrantManager returns a GrantManager backed by the permission repository.
func NewGrantManager(perms ports.PermissionRepository, auditLog *audit.Logger) *GrantManager {
	return &GrantManager{perms: perms, auditLog: auditLog}
}

// Grant attaches the accessor to the (resource, level) permission, creating
// the permission record if absent. Attaching an accessor that already holds
// the permission is a no-op.
func (m *GrantManager) Grant(ctx context.Context, kind domain.AccessorKind, req domain.GrantRequest) (domain.PermissionSet, error) {
	perm, err := m.perms.FindByResourceAndLevel(ctx, req.Resource, req.Level)
	if errors.Is(err, domain.ErrPermissionNotFound) {
		perm, err = m.perms.Create(ctx, &domain.Permission{Resource: req.Resource, Level: req.Level})
	}
	if err != nil {
		return domain.PermissionSet{}, fmt.Errorf("grant: %w", err)
	}

	switch kind {
	case domain.AccessorUser:
		if !perm.HasUser(req.AccessorID) {
			perm.UserIDs = append(perm.UserIDs, req.AccessorID)
		}
	case domain.AccessorRole:
		if !perm.HasRole(req.AccessorID) {
			perm.RoleIDs = append(perm.RoleIDs, req.AccessorID)
		}
	}

	if err := m.perms.Save(ctx, perm); err != nil {
		return domain.PermissionSet{}, fmt.Errorf("grant: save permission: %w", err)
	}

	m.record(audit.KindGrant, kind, req)
	return domain.PermissionSet{PermissionID: perm.ID, AccessorID: req.AccessorID}, nil
}

// Revoke detaches the accessor from the (resource, level) permission.
// A missing permission record fails with domain.ErrPermissionNotFound;
// removing an accessor that was never attached succeeds and changes nothing.
// A permission left with no accessors is deleted; a later grant re-creates it.
func (m *GrantManager) Revoke(ctx context.Context, kind domain.AccessorKind, req domain.GrantRequest) (domain.PermissionSet, error) {
	perm, err := m.perms.FindByResourceAndLevel(ctx, req.Resource, req.Level)
	if err != nil {
		return domain.PermissionSet{}, fmt.Errorf("revoke: %w", err)
	}

	switch kind {
	case domain.AccessorUser:
		perm.UserIDs = removeID(perm.UserIDs, req.AccessorID)
	case domain.AccessorRole:
		perm.RoleIDs = removeID(perm.RoleIDs, req.AccessorID)
	}

	if len(perm.UserIDs) == 0 && len(perm.RoleIDs) == 0 {
		if err := m.perms.Delete(ctx, perm.ID); err != nil {
			return domain.PermissionSet{}, fmt.Errorf("revoke: delete empty permission: %w", err)
		}
	} else if err := m.perms.Save(ctx, perm); err != nil {
		return domain.PermissionSet{}, fmt.Errorf("revoke: save permission: %w", err)
	}

	m.record(audit.KindRevoke, kind, req)
	return domain.PermissionSet{PermissionID: perm.ID, AccessorID: req.AccessorID}, nil
}

func (m *GrantManager) record(action string, kind domain.AccessorKind, req domain.GrantRequest) {
	metrics.GrantOperationsTotal.WithLabelValues(actionLabel(action), string(kind)).Inc()
	if m.auditLog == nil {
		return
	}
	m.auditLog.Record(audit.Entry{
		Kind:     action,
		Subject:  string(kind) + ":" + strconv.FormatInt(req.AccessorID, 10),
		Resource: req.Resource,
		Level:    req.Level.String(),
		Outcome:  audit.OutcomeAccepted,
	})
}

func actionLabel(kind string) string {
	if kind == audit.KindRevoke {
		return "revoke"
	}
	return "grant"
}

func removeID(ids []int64, id int64) []int64 {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
