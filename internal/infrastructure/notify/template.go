package notify

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/obralink/portal-pagos/internal/application/port"
)

// Per-kind message bodies. Context keys come from the notification
// payload assembled by the application layer.
var defaultTemplates = map[port.TemplateKind]string{
	port.TemplateEnviado: `El estado de pago {{.period}} fue enviado y espera tu aprobación.
Proyecto: {{.project}}`,
	port.TemplateReenviado: `El estado de pago {{.period}} fue corregido y reenviado para una nueva revisión.
Proyecto: {{.project}}`,
	port.TemplateAprobado: `El estado de pago {{.period}} fue aprobado por todos los revisores.
Proyecto: {{.project}}`,
	port.TemplateRechazado: `El estado de pago {{.period}} fue rechazado.
Proyecto: {{.project}}
Motivo: {{.reason}}`,
	port.TemplateDecision: `{{.approver}} registró su decisión ({{.decision}}) sobre el estado de pago {{.period}}.
Proyecto: {{.project}}`,
}

// TemplateSet renders notification bodies per template kind.
type TemplateSet struct {
	templates map[port.TemplateKind]*template.Template
}

// NewTemplateSet parses the built-in message templates, with optional
// per-kind overrides.
func NewTemplateSet(overrides map[port.TemplateKind]string) (*TemplateSet, error) {
	set := &TemplateSet{templates: make(map[port.TemplateKind]*template.Template)}
	for kind, body := range defaultTemplates {
		if override, ok := overrides[kind]; ok && override != "" {
			body = override
		}
		parsed, err := template.New(string(kind)).Option("missingkey=zero").Parse(body)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", kind, err)
		}
		set.templates[kind] = parsed
	}
	return set, nil
}

// Render applies the template for kind to the notification context.
func (s *TemplateSet) Render(kind port.TemplateKind, context map[string]string) (string, error) {
	tpl, ok := s.templates[kind]
	if !ok {
		return "", fmt.Errorf("no template for kind %s", kind)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, context); err != nil {
		return "", fmt.Errorf("render template %s: %w", kind, err)
	}
	return buf.String(), nil
}
