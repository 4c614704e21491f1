// Package approval holds the approval ledger: one decision record per
// required approver per statement cycle, and the fold that turns those
// records into a statement-level status.
package approval

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/obralink/portal-pagos/internal/domain/statement"
)

// Decision is one approver's verdict on a statement
type Decision string

const (
	DecisionPendiente Decision = "Pendiente"
	DecisionAprobado  Decision = "Aprobado"
	DecisionRechazado Decision = "Rechazado"
)

// IsValid returns true for the two verdicts an approver may record.
// Pendiente is a seeded state, never a recordable decision.
func (d Decision) IsValid() bool {
	return d == DecisionAprobado || d == DecisionRechazado
}

// String returns the string representation of the decision
func (d Decision) String() string {
	return string(d)
}

// Entry is one approver's record for one statement cycle. At most one entry
// exists per (statement, approver email). Entries are seeded Pendiente when
// the statement is sent and become immutable once DecidedAt is set.
type Entry struct {
	ID            string
	StatementID   string
	ApproverEmail string
	ApproverName  string
	Status        Decision
	DecidedAt     *time.Time
	Reason        *string
}

// Decided reports whether the entry carries a recorded decision
func (e *Entry) Decided() bool {
	return e.DecidedAt != nil
}

// Decide records a write-once verdict on the entry
func (e *Entry) Decide(decision Decision, reason string, at time.Time) error {
	if e.Decided() {
		return fmt.Errorf("%w: %s already decided at %s", statement.ErrConflict, e.ApproverEmail, e.DecidedAt)
	}
	if !decision.IsValid() {
		return fmt.Errorf("%w: decision %q", statement.ErrInvalidInput, decision)
	}
	if decision == DecisionRechazado && strings.TrimSpace(reason) == "" {
		return fmt.Errorf("%w: a rejection requires a reason", statement.ErrInvalidInput)
	}

	e.Status = decision
	e.DecidedAt = &at
	if strings.TrimSpace(reason) != "" {
		e.Reason = &reason
	}
	return nil
}

// Seed builds fresh Pendiente entries for every required approver, in order.
// Used when a statement enters Enviado and again after a resubmission.
func Seed(statementID string, approvers []statement.Approver) []*Entry {
	entries := make([]*Entry, 0, len(approvers))
	for _, a := range approvers {
		entries = append(entries, &Entry{
			ID:            uuid.NewString(),
			StatementID:   statementID,
			ApproverEmail: a.Email,
			ApproverName:  a.Name,
			Status:        DecisionPendiente,
		})
	}
	return entries
}
