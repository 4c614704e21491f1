package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/obralink/portal-pagos/internal/application/dispatcher"
	"github.com/obralink/portal-pagos/internal/application/port"
	"github.com/obralink/portal-pagos/internal/domain/approval"
	"github.com/obralink/portal-pagos/internal/domain/event"
	"github.com/obralink/portal-pagos/internal/domain/statement"
)

// DecisionResult reports a recorded decision and the recomputed aggregate
type DecisionResult struct {
	AggregateStatus statement.Status
	ApprovedCount   int
	RequiredCount   int
	Notified        bool
	NotifyError     string
}

// DecisionService records approver decisions against the approval ledger
type DecisionService interface {
	// RecordDecision writes one approver's verdict. Write-once per entry:
	// a second decision for the same approver fails with a conflict. The
	// statement aggregate is recomputed from the full ledger inside the
	// same transaction.
	RecordDecision(ctx context.Context, statementID, approverEmail string, decision approval.Decision, reason string) (*DecisionResult, error)
}

type decisionServiceImpl struct {
	statements port.StatementRepository
	ledger     port.LedgerRepository
	history    port.HistoryRepository
	txManager  port.TransactionManager
	events     dispatcher.Dispatcher
	clock      port.Clock
	logger     Logger
}

// NewDecisionService creates a new DecisionService
func NewDecisionService(
	statements port.StatementRepository,
	ledger port.LedgerRepository,
	history port.HistoryRepository,
	txManager port.TransactionManager,
	events dispatcher.Dispatcher,
	clock port.Clock,
	logger Logger,
) DecisionService {
	return &decisionServiceImpl{
		statements: statements,
		ledger:     ledger,
		history:    history,
		txManager:  txManager,
		events:     events,
		clock:      clock,
		logger:     logger,
	}
}

func (s *decisionServiceImpl) RecordDecision(ctx context.Context, statementID, approverEmail string, decision approval.Decision, reason string) (*DecisionResult, error) {
	if !decision.IsValid() {
		return nil, fmt.Errorf("%w: decision %q", statement.ErrInvalidInput, decision)
	}
	if decision == approval.DecisionRechazado && strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: a rejection requires a reason", statement.ErrInvalidInput)
	}

	var (
		st        *statement.PaymentStatement
		from      statement.Status
		aggregate statement.Status
		approved  int
		required  int
	)

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		st, err = s.statements.GetByID(txCtx, statementID)
		if err != nil {
			return err
		}
		if st == nil {
			return fmt.Errorf("%w: statement %s", statement.ErrNotFound, statementID)
		}
		from = st.Status

		entry, err := s.ledger.GetEntry(txCtx, statementID, approverEmail)
		if err != nil {
			return err
		}
		if entry == nil {
			return fmt.Errorf("%w: no ledger entry for %s on statement %s", statement.ErrNotFound, approverEmail, statementID)
		}
		if entry.Decided() {
			return fmt.Errorf("%w: %s already decided this statement", statement.ErrConflict, approverEmail)
		}

		var reasonPtr *string
		if trimmed := strings.TrimSpace(reason); trimmed != "" {
			reasonPtr = &trimmed
		}

		claimed, err := s.ledger.ClaimDecision(txCtx, entry.ID, decision, reasonPtr, s.clock.Now())
		if err != nil {
			return err
		}
		if !claimed {
			// Lost the race against a concurrent decision for the same entry
			return fmt.Errorf("%w: decision already recorded for %s", statement.ErrConflict, approverEmail)
		}

		entries, err := s.ledger.GetByStatement(txCtx, statementID)
		if err != nil {
			return err
		}

		aggregate = approval.Aggregate(entries, st.Status)
		approved, required = approval.Progress(entries, len(st.RequiredApprovers))

		if aggregate == st.Status {
			return nil
		}

		// A rejected statement stays Rechazado while stragglers record
		// their entries; only a genuine lifecycle transition is persisted.
		machine := statement.Lifecycle(st.Status)
		switch aggregate {
		case statement.StatusAprobado:
			if err := machine.Fire(txCtx, statement.TriggerApprove); err != nil {
				return fmt.Errorf("%w: %v", statement.ErrInvalidState, err)
			}
		case statement.StatusRechazado:
			if err := machine.Fire(txCtx, statement.TriggerReject); err != nil {
				return fmt.Errorf("%w: %v", statement.ErrInvalidState, err)
			}
		default:
			return nil
		}

		if err := s.statements.UpdateStatus(txCtx, statementID, machine.Status()); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		if err := s.history.Create(txCtx, &port.TransitionRecord{
			StatementID:    statementID,
			PreviousStatus: from,
			NewStatus:      machine.Status(),
			ActorEmail:     approverEmail,
			Note:           fmt.Sprintf("aggregate reached %s", machine.Status()),
			At:             s.clock.Now(),
		}); err != nil {
			return fmt.Errorf("create history: %w", err)
		}

		st.Status = machine.Status()
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to record decision",
			"error", err,
			"statement_id", statementID,
			"approver", approverEmail,
			"decision", decision,
		)
		return nil, err
	}

	s.logger.Info("Decision recorded",
		"statement_id", statementID,
		"approver", approverEmail,
		"decision", decision,
		"aggregate", aggregate,
		"progress", fmt.Sprintf("%d/%d", approved, required),
	)

	result := &DecisionResult{
		AggregateStatus: aggregate,
		ApprovedCount:   approved,
		RequiredCount:   required,
		Notified:        true,
	}

	evt := event.NewEvent(event.TypeDecisionRecorded, st, from, st.Status).
		WithPayload("approver", approverEmail).
		WithPayload("decision", decision.String())
	if err := s.events.Dispatch(ctx, evt); err != nil {
		result.Notified = false
		result.NotifyError = err.Error()
	}

	switch {
	case from != st.Status && st.Status == statement.StatusAprobado:
		s.dispatchOutcome(ctx, event.TypeStatementApproved, st, from, result)
	case from != st.Status && st.Status == statement.StatusRechazado:
		evt := event.NewEvent(event.TypeStatementRejected, st, from, st.Status).
			WithPayload("reason", reason)
		if err := s.events.Dispatch(ctx, evt); err != nil {
			result.Notified = false
			result.NotifyError = err.Error()
		}
	}

	return result, nil
}

func (s *decisionServiceImpl) dispatchOutcome(ctx context.Context, eventType event.Type, st *statement.PaymentStatement, from statement.Status, result *DecisionResult) {
	if err := s.events.Dispatch(ctx, event.NewEvent(eventType, st, from, st.Status)); err != nil {
		s.logger.Error("Notification dispatch failed", "error", err, "statement_id", st.ID, "event_type", eventType)
		result.Notified = false
		result.NotifyError = err.Error()
	}
}
