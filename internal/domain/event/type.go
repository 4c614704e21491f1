package event

// Type identifies the type of domain event
type Type string

const (
	TypeStatementSent        Type = "statement.sent"
	TypeStatementApproved    Type = "statement.approved"
	TypeStatementRejected    Type = "statement.rejected"
	TypeStatementResubmitted Type = "statement.resubmitted"
	TypeDecisionRecorded     Type = "statement.decision_recorded"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeStatementSent,
		TypeStatementApproved,
		TypeStatementRejected,
		TypeStatementResubmitted,
		TypeDecisionRecorded:
		return true
	default:
		return false
	}
}
