package statement

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Period identifies the month a statement covers. Immutable once created.
type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// Valid reports whether the period is a real calendar month
func (p Period) Valid() bool {
	return p.Month >= 1 && p.Month <= 12 && p.Year >= 2000
}

// String renders the period as YYYY-MM
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Approver is one required sign-off for a statement. The list is frozen at
// the moment the statement is sent; roster edits never reach an in-flight
// statement.
type Approver struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// PaymentStatement is one monthly payment submission ("Estado de Pago") for
// a project. Exactly one exists per (project, period). Statements are never
// physically deleted; approved and rejected ones remain as history.
type PaymentStatement struct {
	ID                string
	ProjectID         string
	Period            Period
	Total             decimal.Decimal
	ProgressPercent   float64
	Completed         bool
	ExpiryDate        time.Time
	Status            Status
	RequiredApprovers []Approver
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TransitionEvent records one successful status transition for downstream
// consumers (history trail, notification dispatch)
type TransitionEvent struct {
	StatementID string    `json:"statement_id"`
	ProjectID   string    `json:"project_id"`
	From        Status    `json:"from"`
	To          Status    `json:"to"`
	At          time.Time `json:"at"`
}

// UpdateFinancials changes the statement's total and progress percentage.
// Only legal while the statement has not been sent.
func (s *PaymentStatement) UpdateFinancials(total decimal.Decimal, progressPercent float64) error {
	if !s.Status.IsEditable() {
		return fmt.Errorf("%w: financials are frozen once status is %s", ErrInvalidState, s.Status)
	}
	if progressPercent < 0 || progressPercent > 100 {
		return fmt.Errorf("%w: progress percent %.2f outside [0,100]", ErrInvalidInput, progressPercent)
	}
	if total.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: total %s must be positive", ErrInvalidInput, total)
	}

	s.Total = total
	s.ProgressPercent = progressPercent
	return nil
}

// ApproverByEmail returns the required approver with the given email, if any
func (s *PaymentStatement) ApproverByEmail(email string) (Approver, bool) {
	for _, a := range s.RequiredApprovers {
		if a.Email == email {
			return a, true
		}
	}
	return Approver{}, false
}
