package approval

import "github.com/obralink/portal-pagos/internal/domain/statement"

// Aggregate folds the ledger entries of one statement into its statement-level
// status. The fold is pure and order-independent:
//
//   - any Rechazado entry dominates, the statement is Rechazado
//   - otherwise all entries Aprobado (and at least one approver required)
//     means Aprobado
//   - otherwise the statement is still Enviado, awaiting approvers
//   - with no entries at all the statement keeps its pre-send status
func Aggregate(entries []*Entry, preSend statement.Status) statement.Status {
	if len(entries) == 0 {
		return preSend
	}

	allApproved := true
	for _, e := range entries {
		switch e.Status {
		case DecisionRechazado:
			return statement.StatusRechazado
		case DecisionAprobado:
		default:
			allApproved = false
		}
	}

	if allApproved {
		return statement.StatusAprobado
	}
	return statement.StatusEnviado
}

// Progress reports how many of the required approvals have been granted.
// Display only; transitions depend on Aggregate, never on this ratio.
func Progress(entries []*Entry, requiredCount int) (approved, required int) {
	for _, e := range entries {
		if e.Status == DecisionAprobado {
			approved++
		}
	}
	return approved, requiredCount
}
