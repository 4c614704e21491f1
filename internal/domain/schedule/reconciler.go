// Package schedule selects which of a project's payment statements is
// currently actionable by the contractor. The selection runs on every read
// of the project's statements instead of keeping a persisted "current" flag,
// so out-of-band data edits cannot leave a stale flag behind.
package schedule

import (
	"time"

	"github.com/obralink/portal-pagos/internal/domain/statement"
)

// Reconcile picks the statement whose expiry date is closest to today
// (ties broken by input order, first minimal element wins) and reports it
// as the one to open for contractor action. The pick itself is never
// mutated here; the caller moves it to Pendiente through the state machine
// and clears its completion flag.
//
// Statements already past Enviado never qualify; their status is a
// function of the approval ledger alone. Idempotent: running twice over
// unchanged input yields the same pick. Empty input is a no-op.
//
// Returns the statement to open, or nil when none qualifies.
func Reconcile(statements []*statement.PaymentStatement, today time.Time) *statement.PaymentStatement {
	if len(statements) == 0 {
		return nil
	}

	var selected *statement.PaymentStatement
	var best time.Duration
	for _, st := range statements {
		d := st.ExpiryDate.Sub(today)
		if d < 0 {
			d = -d
		}
		if selected == nil || d < best {
			selected = st
			best = d
		}
	}

	if !selected.Status.IsEditable() {
		return nil
	}
	return selected
}
