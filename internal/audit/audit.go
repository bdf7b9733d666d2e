// Package audit emits the append-only trail of security decisions: every
// login attempt, token verification, authorization decision, grant, and
// revoke produces exactly one structured line, and optionally one persisted
// entry when a store-backed sink is attached.
package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Entry kinds. Denial kinds match the bracket tags the trail is grepped by.
const (
	KindEmailNotFound     = "EMAIL_NOT_FOUND"
	KindInvalidPassword   = "INVALID_PASSWORD"
	KindInvalidToken      = "INVALID_TOKEN"
	KindUserNotFound      = "USER_NOT_FOUND"
	KindNoPermissionFound = "NO_PERMISSION_FOUND"
	KindAccessGranted     = "ACCESS_GRANTED"
	KindLogin             = "LOGIN"
	KindLoginAs           = "LOGIN_AS"
	KindTokenValid        = "TOKEN_VALID"
	KindGrant             = "GRANT"
	KindRevoke            = "REVOKE"
	KindUserChange        = "USER_CHANGE"
	KindRoleChange        = "ROLE_CHANGE"
	KindPasswordReset     = "PASSWORD_RESET"
)

// Entry is one audit record.
type Entry struct {
	Kind     string    `json:"kind"`
	Subject  string    `json:"subject,omitempty"`
	Resource string    `json:"resource,omitempty"`
	Level    string    `json:"level,omitempty"`
	Outcome  string    `json:"outcome"`
	Detail   string    `json:"detail,omitempty"`
	At       time.Time `json:"at"`
}

// Sink receives entries for asynchronous persistence.
type Sink interface {
	Enqueue(e Entry)
}

// Logger writes audit entries to a zerolog stream and, when a sink is
// configured, hands them off for persistence. The zerolog write is
// synchronous so the line exists before the guarded operation returns.
type Logger struct {
	log  zerolog.Logger
	sink Sink
}

// New builds an audit Logger. sink may be nil, in which case entries are
// only written to the log stream.
func New(log zerolog.Logger, sink Sink) *Logger {
	return &Logger{log: log.With().Bool("audit", true).Logger(), sink: sink}
}

// Record writes the entry. Denials and failures log at warn level so they
// stand out in the stream; accepted outcomes log at info.
func (l *Logger) Record(e Entry) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	ev := l.log.Info()
	if e.Outcome == OutcomeDenied {
		ev = l.log.Warn()
	}
	ev = ev.Str("kind", e.Kind).Str("outcome", e.Outcome)
	if e.Subject != "" {
		ev = ev.Str("subject", e.Subject)
	}
	if e.Resource != "" {
		ev = ev.Str("resource", e.Resource)
	}
	if e.Level != "" {
		ev = ev.Str("level", e.Level)
	}
	ev.Msg(e.Detail)

	if l.sink != nil {
		l.sink.Enqueue(e)
	}
}

// Outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeDenied   = "denied"
)

// Store appends entries to durable storage.
type Store interface {
	Append(ctx context.Context, e *Entry) error
}
