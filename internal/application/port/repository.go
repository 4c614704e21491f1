package port

import (
	"context"
	"time"

	"github.com/obralink/portal-pagos/internal/domain/approval"
	"github.com/obralink/portal-pagos/internal/domain/statement"
)

// StatementRepository defines persistence operations for PaymentStatement
type StatementRepository interface {
	Create(ctx context.Context, st *statement.PaymentStatement) error
	GetByID(ctx context.Context, id string) (*statement.PaymentStatement, error)
	GetByProjectAndPeriod(ctx context.Context, projectID string, period statement.Period) (*statement.PaymentStatement, error)
	ListByProject(ctx context.Context, projectID string) ([]*statement.PaymentStatement, error)
	UpdateStatus(ctx context.Context, id string, status statement.Status) error
	UpdateFinancials(ctx context.Context, id string, st *statement.PaymentStatement) error
	// MarkOpen persists the scheduling reconciler's pick: status Pendiente
	// with the completion flag cleared, in one write
	MarkOpen(ctx context.Context, id string) error
	// FreezeApprovers persists the required approver list captured at send time
	FreezeApprovers(ctx context.Context, id string, approvers []statement.Approver) error
}

// LedgerRepository defines persistence operations for approval ledger entries
type LedgerRepository interface {
	// SeedPending inserts fresh Pendiente entries for a statement cycle
	SeedPending(ctx context.Context, entries []*approval.Entry) error

	GetByStatement(ctx context.Context, statementID string) ([]*approval.Entry, error)
	GetEntry(ctx context.Context, statementID, approverEmail string) (*approval.Entry, error)

	// ClaimDecision atomically records a decision on an undecided entry.
	// The update is a compare-and-swap on decided_at IS NULL; a lost race
	// reports zero affected rows and the caller maps that to a conflict.
	ClaimDecision(ctx context.Context, entryID string, decision approval.Decision, reason *string, decidedAt time.Time) (bool, error)

	// DeleteByStatement clears all entries for a statement before reseeding
	// a resubmission cycle
	DeleteByStatement(ctx context.Context, statementID string) error
}

// HistoryRepository defines persistence operations for the transition trail
type HistoryRepository interface {
	Create(ctx context.Context, h *TransitionRecord) error
	GetByStatement(ctx context.Context, statementID string) ([]*TransitionRecord, error)
}

// TransitionRecord is one audited status transition
type TransitionRecord struct {
	ID             int64
	StatementID    string
	PreviousStatus statement.Status
	NewStatus      statement.Status
	ActorEmail     string
	Note           string
	At             time.Time
}

// RosterRepository defines persistence operations for a project's approver roster.
// The roster only feeds new send cycles; in-flight statements keep the list
// frozen at send time.
type RosterRepository interface {
	GetByProject(ctx context.Context, projectID string) ([]statement.Approver, error)
	Replace(ctx context.Context, projectID string, approvers []statement.Approver) error
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
