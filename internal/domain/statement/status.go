package statement

// Status represents a payment statement status in its approval lifecycle
type Status string

const (
	StatusProgramado Status = "Programado"
	StatusPendiente  Status = "Pendiente"
	StatusEnviado    Status = "Enviado"
	StatusAprobado   Status = "Aprobado"
	StatusRechazado  Status = "Rechazado"
)

var validStatuses = map[Status]bool{
	StatusProgramado: true,
	StatusPendiente:  true,
	StatusEnviado:    true,
	StatusAprobado:   true,
	StatusRechazado:  true,
}

// IsTerminal returns true if the status has no forward transition.
// Rechazado is not terminal: a contractor may resubmit a rejected statement.
func (s Status) IsTerminal() bool {
	return s == StatusAprobado
}

// IsEditable returns true if the statement's financial fields may still be changed
func (s Status) IsEditable() bool {
	return s == StatusProgramado || s == StatusPendiente
}

// IsValid returns true if the status is a valid lifecycle status
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}
