package service

import (
	"github.com/shingo/auth-api/internal/audit"
	"github.com/shingo/auth-api/internal/core/domain"
)

// Evaluator decides authorization requests against a user's effective
// permission set. It is a total function over loaded state: it never errors,
// and "user not found" is the caller's concern.
type Evaluator struct {
	auditLog *audit.Logger
}

// NewEvaluator returns an Evaluator recording decisions on auditLog.
func NewEvaluator(auditLog *audit.Logger) *Evaluator {
	return &Evaluator{auditLog: auditLog}
}

// Can reports whether any permission in the user's effective set (direct
// grants plus every role's grants) exactly matches the requested resource at
// a level >= the requested level. A Deny entry is simply a grant that
// satisfies nothing above level zero; it does not veto a separately held
// higher grant for the same resource.
func (e *Evaluator) Can(user *domain.User, req domain.AccessRequest) bool {
	for _, p := range user.EffectivePermissions() {
		if p.Resource == req.Resource && p.Level >= req.Level {
			e.record(audit.KindAccessGranted, audit.OutcomeAccepted, req)
			return true
		}
	}
	e.record(audit.KindNoPermissionFound, audit.OutcomeDenied, req)
	return false
}

func (e *Evaluator) record(kind, outcome string, req domain.AccessRequest) {
	if e.auditLog == nil {
		return
	}
	e.auditLog.Record(audit.Entry{
		Kind:     kind,
		Subject:  req.Email,
		Resource: req.Resource,
		Level:    req.Level.String(),
		Outcome:  outcome,
	})
}
