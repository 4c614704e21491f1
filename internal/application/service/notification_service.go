package service

import (
	"context"
	"fmt"

	"github.com/obralink/portal-pagos/internal/application/dispatcher"
	"github.com/obralink/portal-pagos/internal/application/port"
	"github.com/obralink/portal-pagos/internal/domain/event"
	"github.com/obralink/portal-pagos/internal/domain/statement"
)

// NotificationConfig names the recipients that are not part of the frozen
// approver list: the contractor inbox and optional read-only copies.
type NotificationConfig struct {
	ContractorEmail string
	CCEmails        []string
}

// NotificationService turns statement transition events into notification
// requests for the dispatcher port. Register wires it onto the event
// dispatcher; the services emitting events never talk to the notifier
// directly.
type NotificationService struct {
	statements port.StatementRepository
	notifier   port.Notifier
	config     NotificationConfig
	logger     Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	statements port.StatementRepository,
	notifier port.Notifier,
	config NotificationConfig,
	logger Logger,
) *NotificationService {
	return &NotificationService{
		statements: statements,
		notifier:   notifier,
		config:     config,
		logger:     logger,
	}
}

// Register subscribes the service's handlers on the event dispatcher
func (s *NotificationService) Register(d dispatcher.Dispatcher) {
	d.SubscribeNamed(event.TypeStatementSent, "notify-approvers", s.handleSent)
	d.SubscribeNamed(event.TypeStatementResubmitted, "notify-approvers-resubmit", s.handleResubmitted)
	d.SubscribeNamed(event.TypeStatementApproved, "notify-contractor-approved", s.handleApproved)
	d.SubscribeNamed(event.TypeStatementRejected, "notify-contractor-rejected", s.handleRejected)
	d.SubscribeNamed(event.TypeDecisionRecorded, "notify-cc-decision", s.handleDecision)
}

func (s *NotificationService) handleSent(ctx context.Context, evt *event.Event) error {
	return s.notifyApprovers(ctx, evt, port.TemplateEnviado)
}

func (s *NotificationService) handleResubmitted(ctx context.Context, evt *event.Event) error {
	return s.notifyApprovers(ctx, evt, port.TemplateReenviado)
}

func (s *NotificationService) handleApproved(ctx context.Context, evt *event.Event) error {
	return s.notifyContractor(ctx, evt, port.TemplateAprobado, nil)
}

func (s *NotificationService) handleRejected(ctx context.Context, evt *event.Event) error {
	extra := map[string]string{"reason": evt.GetPayloadString("reason")}
	return s.notifyContractor(ctx, evt, port.TemplateRechazado, extra)
}

// handleDecision keeps the cc recipients informed of individual decisions.
// Best effort: a cc failure is logged, never surfaced to the approver.
func (s *NotificationService) handleDecision(ctx context.Context, evt *event.Event) error {
	for _, cc := range s.config.CCEmails {
		n := port.Notification{
			StatementID:    evt.StatementID,
			RecipientEmail: cc,
			TemplateKind:   port.TemplateDecision,
			Context: map[string]string{
				"period":   evt.GetPayloadString("period"),
				"approver": evt.GetPayloadString("approver"),
				"decision": evt.GetPayloadString("decision"),
			},
		}
		if err := s.notifier.Send(ctx, n); err != nil {
			s.logger.Error("CC notification failed", "error", err, "statement_id", evt.StatementID, "recipient", cc)
		}
	}
	return nil
}

func (s *NotificationService) notifyApprovers(ctx context.Context, evt *event.Event, kind port.TemplateKind) error {
	st, err := s.statements.GetByID(ctx, evt.StatementID)
	if err != nil {
		return fmt.Errorf("%w: load statement: %v", statement.ErrDependencyFailure, err)
	}
	if st == nil {
		return fmt.Errorf("%w: statement %s", statement.ErrNotFound, evt.StatementID)
	}

	var firstErr error
	for _, a := range st.RequiredApprovers {
		n := port.Notification{
			StatementID:    st.ID,
			RecipientEmail: a.Email,
			TemplateKind:   kind,
			Context: map[string]string{
				"period":   st.Period.String(),
				"project":  st.ProjectID,
				"approver": a.Name,
			},
		}
		if err := s.notifier.Send(ctx, n); err != nil {
			s.logger.Error("Approver notification failed", "error", err, "statement_id", st.ID, "recipient", a.Email)
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: notify %s: %v", statement.ErrDependencyFailure, a.Email, err)
			}
		}
	}
	return firstErr
}

func (s *NotificationService) notifyContractor(ctx context.Context, evt *event.Event, kind port.TemplateKind, extra map[string]string) error {
	if s.config.ContractorEmail == "" {
		return nil
	}

	context := map[string]string{
		"period":  evt.GetPayloadString("period"),
		"project": evt.ProjectID,
	}
	for k, v := range extra {
		context[k] = v
	}

	n := port.Notification{
		StatementID:    evt.StatementID,
		RecipientEmail: s.config.ContractorEmail,
		TemplateKind:   kind,
		Context:        context,
	}
	if err := s.notifier.Send(ctx, n); err != nil {
		s.logger.Error("Contractor notification failed", "error", err, "statement_id", evt.StatementID)
		return fmt.Errorf("%w: notify contractor: %v", statement.ErrDependencyFailure, err)
	}
	return nil
}
