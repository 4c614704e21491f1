package port

import "context"

// TemplateKind selects the notification template for a transition
type TemplateKind string

const (
	TemplateEnviado    TemplateKind = "enviado"
	TemplateAprobado   TemplateKind = "aprobado"
	TemplateRechazado  TemplateKind = "rechazado"
	TemplateReenviado  TemplateKind = "reenviado"
	TemplateDecision   TemplateKind = "decision"
)

// Notification is one outbound message request. Delivery is the
// collaborator's concern; a failed send never rolls back a transition.
type Notification struct {
	StatementID    string            `json:"statement_id"`
	RecipientEmail string            `json:"recipient_email"`
	TemplateKind   TemplateKind      `json:"template_kind"`
	Context        map[string]string `json:"context"`
}

// Notifier is the outbound notification dispatcher contract
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}
