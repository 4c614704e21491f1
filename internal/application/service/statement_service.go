package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/obralink/portal-pagos/internal/application/dispatcher"
	"github.com/obralink/portal-pagos/internal/application/port"
	"github.com/obralink/portal-pagos/internal/domain/approval"
	"github.com/obralink/portal-pagos/internal/domain/event"
	"github.com/obralink/portal-pagos/internal/domain/schedule"
	"github.com/obralink/portal-pagos/internal/domain/statement"
	"github.com/obralink/portal-pagos/pkg/utils"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// TransitionResult reports a status transition together with the outcome of
// the notification dispatch. A failed notification never rolls the
// transition back; the caller retries notification independently.
type TransitionResult struct {
	Transitioned bool
	NewStatus    statement.Status
	Notified     bool
	NotifyError  string
}

// ApproverProgress is the read-only "pending approvers" projection: the
// frozen approver list merged with the current ledger entries.
type ApproverProgress struct {
	Email     string
	Name      string
	Order     int
	Status    approval.Decision
	DecidedAt string
	Reason    string
}

// StatementService manages the payment statement lifecycle. All status
// writes flow through here; nothing else may set a statement status.
type StatementService interface {
	Get(ctx context.Context, id string) (*statement.PaymentStatement, error)
	// ListByProject returns a project's statements with the scheduling
	// reconciler applied: at most one statement forced open for action.
	ListByProject(ctx context.Context, projectID string) ([]*statement.PaymentStatement, error)
	UpdateFinancials(ctx context.Context, id string, total decimal.Decimal, progressPercent float64) (*statement.PaymentStatement, error)
	MarkSent(ctx context.Context, id string, actorEmail string) (*TransitionResult, error)
	Resubmit(ctx context.Context, id string, actorEmail string) (*TransitionResult, error)
	PendingApprovers(ctx context.Context, id string) ([]ApproverProgress, error)
	// UpdateRoster replaces the project's approver roster. The new list only
	// feeds the next send cycle; in-flight statements keep their frozen list.
	UpdateRoster(ctx context.Context, projectID string, approvers []statement.Approver) ([]statement.Approver, error)
}

type statementServiceImpl struct {
	statements port.StatementRepository
	ledger     port.LedgerRepository
	history    port.HistoryRepository
	roster     port.RosterRepository
	txManager  port.TransactionManager
	events     dispatcher.Dispatcher
	clock      port.Clock
	logger     Logger
}

// NewStatementService creates a new StatementService
func NewStatementService(
	statements port.StatementRepository,
	ledger port.LedgerRepository,
	history port.HistoryRepository,
	roster port.RosterRepository,
	txManager port.TransactionManager,
	events dispatcher.Dispatcher,
	clock port.Clock,
	logger Logger,
) StatementService {
	return &statementServiceImpl{
		statements: statements,
		ledger:     ledger,
		history:    history,
		roster:     roster,
		txManager:  txManager,
		events:     events,
		clock:      clock,
		logger:     logger,
	}
}

// Get retrieves a statement by ID
func (s *statementServiceImpl) Get(ctx context.Context, id string) (*statement.PaymentStatement, error) {
	st, err := s.statements.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get statement", "error", err, "statement_id", id)
		return nil, err
	}
	if st == nil {
		return nil, fmt.Errorf("%w: statement %s", statement.ErrNotFound, id)
	}
	return st, nil
}

// ListByProject returns the project's statements after running the
// scheduling reconciler. When the reconciler changes the selected
// statement's status the change is written back, so every reader sees the
// same active statement.
func (s *statementServiceImpl) ListByProject(ctx context.Context, projectID string) ([]*statement.PaymentStatement, error) {
	statements, err := s.statements.ListByProject(ctx, projectID)
	if err != nil {
		s.logger.Error("Failed to list statements", "error", err, "project_id", projectID)
		return nil, err
	}

	selected := schedule.Reconcile(statements, s.clock.Now())
	if selected != nil {
		if err := s.openForAction(ctx, selected); err != nil {
			return nil, err
		}
	}

	return statements, nil
}

// openForAction applies the reconciler's pick: the statement moves to
// Pendiente through the state machine and its completion flag is cleared,
// both persisted in one write so the stored row matches what readers see.
// A pick that is already open is left alone.
func (s *statementServiceImpl) openForAction(ctx context.Context, st *statement.PaymentStatement) error {
	changed := st.Completed
	if st.Status != statement.StatusPendiente {
		machine := statement.Lifecycle(st.Status)
		if err := machine.Fire(ctx, statement.TriggerActivate); err != nil {
			return fmt.Errorf("%w: %v", statement.ErrInvalidState, err)
		}
		st.Status = machine.Status()
		changed = true
	}
	st.Completed = false
	if !changed {
		return nil
	}

	if err := s.statements.MarkOpen(ctx, st.ID); err != nil {
		s.logger.Error("Failed to persist reconciled opening", "error", err, "statement_id", st.ID)
		return err
	}
	return nil
}

// UpdateRoster validates and replaces the project's approver roster
func (s *statementServiceImpl) UpdateRoster(ctx context.Context, projectID string, approvers []statement.Approver) ([]statement.Approver, error) {
	if len(approvers) == 0 {
		return nil, fmt.Errorf("%w: roster must name at least one approver", statement.ErrInvalidInput)
	}

	seen := make(map[string]bool, len(approvers))
	normalized := make([]statement.Approver, 0, len(approvers))
	for i, a := range approvers {
		email := strings.ToLower(strings.TrimSpace(a.Email))
		if err := utils.ValidateEmail(email); err != nil {
			return nil, fmt.Errorf("%w: %v", statement.ErrInvalidInput, err)
		}
		if seen[email] {
			return nil, fmt.Errorf("%w: duplicate approver %s", statement.ErrInvalidInput, email)
		}
		seen[email] = true
		normalized = append(normalized, statement.Approver{
			Email: email,
			Name:  utils.SanitizeString(strings.TrimSpace(a.Name)),
			Order: i + 1,
		})
	}

	if err := s.roster.Replace(ctx, projectID, normalized); err != nil {
		s.logger.Error("Failed to replace roster", "error", err, "project_id", projectID)
		return nil, err
	}

	s.logger.Info("Roster replaced", "project_id", projectID, "approvers", len(normalized))
	return normalized, nil
}

// UpdateFinancials changes total and progress on a not-yet-sent statement
func (s *statementServiceImpl) UpdateFinancials(ctx context.Context, id string, total decimal.Decimal, progressPercent float64) (*statement.PaymentStatement, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := st.UpdateFinancials(total, progressPercent); err != nil {
		return nil, err
	}

	if err := s.statements.UpdateFinancials(ctx, id, st); err != nil {
		s.logger.Error("Failed to update financials", "error", err, "statement_id", id)
		return nil, err
	}

	s.logger.Info("Financials updated", "statement_id", id, "total", st.Total.String(), "progress", progressPercent)
	return st, nil
}

// MarkSent submits the statement to its approvers. The required approver
// list is frozen from the project roster at this moment and the ledger is
// seeded with one Pendiente entry per approver, in order.
func (s *statementServiceImpl) MarkSent(ctx context.Context, id string, actorEmail string) (*TransitionResult, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	machine := statement.Lifecycle(st.Status)
	if err := machine.Fire(ctx, statement.TriggerSend); err != nil {
		return nil, fmt.Errorf("%w: %v", statement.ErrInvalidState, err)
	}
	from := st.Status

	approvers := st.RequiredApprovers
	if len(approvers) == 0 {
		approvers, err = s.roster.GetByProject(ctx, st.ProjectID)
		if err != nil {
			s.logger.Error("Failed to load approver roster", "error", err, "project_id", st.ProjectID)
			return nil, fmt.Errorf("%w: load roster: %v", statement.ErrDependencyFailure, err)
		}
	}
	if len(approvers) == 0 {
		return nil, fmt.Errorf("%w: project %s has no approvers", statement.ErrInvalidState, st.ProjectID)
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.statements.FreezeApprovers(txCtx, id, approvers); err != nil {
			return fmt.Errorf("freeze approvers: %w", err)
		}
		if err := s.ledger.DeleteByStatement(txCtx, id); err != nil {
			return fmt.Errorf("clear ledger: %w", err)
		}
		if err := s.ledger.SeedPending(txCtx, approval.Seed(id, approvers)); err != nil {
			return fmt.Errorf("seed ledger: %w", err)
		}
		if err := s.statements.UpdateStatus(txCtx, id, machine.Status()); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		return s.history.Create(txCtx, &port.TransitionRecord{
			StatementID:    id,
			PreviousStatus: from,
			NewStatus:      machine.Status(),
			ActorEmail:     actorEmail,
			Note:           "statement sent for approval",
			At:             s.clock.Now(),
		})
	})
	if err != nil {
		s.logger.Error("Failed to mark statement sent", "error", err, "statement_id", id)
		return nil, err
	}

	st.Status = machine.Status()
	st.RequiredApprovers = approvers
	s.logger.Info("Statement sent", "statement_id", id, "approvers", len(approvers))

	return s.dispatchTransition(ctx, event.TypeStatementSent, st, from), nil
}

// Resubmit restarts the approval cycle of a rejected statement. All ledger
// entries are cleared and reseeded Pendiente for the unchanged frozen
// approver list, so no decision from the rejected cycle survives.
func (s *statementServiceImpl) Resubmit(ctx context.Context, id string, actorEmail string) (*TransitionResult, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	machine := statement.Lifecycle(st.Status)
	if err := machine.Fire(ctx, statement.TriggerResubmit); err != nil {
		return nil, fmt.Errorf("%w: %v", statement.ErrInvalidState, err)
	}
	from := st.Status

	if len(st.RequiredApprovers) == 0 {
		return nil, fmt.Errorf("%w: statement %s has no frozen approvers", statement.ErrInvalidState, id)
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.ledger.DeleteByStatement(txCtx, id); err != nil {
			return fmt.Errorf("clear ledger: %w", err)
		}
		if err := s.ledger.SeedPending(txCtx, approval.Seed(id, st.RequiredApprovers)); err != nil {
			return fmt.Errorf("reseed ledger: %w", err)
		}
		if err := s.statements.UpdateStatus(txCtx, id, machine.Status()); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		return s.history.Create(txCtx, &port.TransitionRecord{
			StatementID:    id,
			PreviousStatus: from,
			NewStatus:      machine.Status(),
			ActorEmail:     actorEmail,
			Note:           "statement resubmitted after rejection",
			At:             s.clock.Now(),
		})
	})
	if err != nil {
		s.logger.Error("Failed to resubmit statement", "error", err, "statement_id", id)
		return nil, err
	}

	st.Status = machine.Status()
	s.logger.Info("Statement resubmitted", "statement_id", id)

	return s.dispatchTransition(ctx, event.TypeStatementResubmitted, st, from), nil
}

// PendingApprovers merges the frozen approver list with the current ledger
// entries into a display projection
func (s *statementServiceImpl) PendingApprovers(ctx context.Context, id string) ([]ApproverProgress, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	entries, err := s.ledger.GetByStatement(ctx, id)
	if err != nil {
		s.logger.Error("Failed to load ledger", "error", err, "statement_id", id)
		return nil, err
	}

	byEmail := make(map[string]*approval.Entry, len(entries))
	for _, e := range entries {
		byEmail[e.ApproverEmail] = e
	}

	progress := make([]ApproverProgress, 0, len(st.RequiredApprovers))
	for _, a := range st.RequiredApprovers {
		p := ApproverProgress{
			Email:  a.Email,
			Name:   a.Name,
			Order:  a.Order,
			Status: approval.DecisionPendiente,
		}
		if e, ok := byEmail[a.Email]; ok {
			p.Status = e.Status
			if e.DecidedAt != nil {
				p.DecidedAt = e.DecidedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
			}
			if e.Reason != nil {
				p.Reason = *e.Reason
			}
		}
		progress = append(progress, p)
	}

	return progress, nil
}

// dispatchTransition emits the transition event and folds the notification
// outcome into the result without undoing the committed transition
func (s *statementServiceImpl) dispatchTransition(ctx context.Context, eventType event.Type, st *statement.PaymentStatement, from statement.Status) *TransitionResult {
	result := &TransitionResult{
		Transitioned: true,
		NewStatus:    st.Status,
		Notified:     true,
	}

	if err := s.events.Dispatch(ctx, event.NewEvent(eventType, st, from, st.Status)); err != nil {
		s.logger.Error("Notification dispatch failed", "error", err, "statement_id", st.ID, "event_type", eventType)
		result.Notified = false
		result.NotifyError = err.Error()
	}

	return result
}
