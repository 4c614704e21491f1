package statement

import "context"

// StateMachine tracks a statement's current status and validates transitions
type StateMachine interface {
	// Status returns the current status
	Status() Status

	// CanFire returns true if the trigger is permitted in the current status
	CanFire(trigger Trigger) bool

	// Fire attempts to execute the trigger, transitioning to the new status if allowed
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers returns all triggers that can be fired in the current status
	PermittedTriggers() []Trigger
}

// Lifecycle returns the statement state machine positioned at the given status:
//
//	Programado -> Pendiente -> Enviado -> {Aprobado | Rechazado}
//	Rechazado  -> Enviado (resubmission, ledger reseeded by the caller)
//
// Aprobado has no forward transition. Any correction of an approved statement
// is an administrative operation outside this machine and must leave its own
// audit trail.
func Lifecycle(current Status) StateMachine {
	b := NewBuilder()

	b.Configure(StatusProgramado).
		Permit(TriggerActivate, StatusPendiente).
		Permit(TriggerSend, StatusEnviado)

	b.Configure(StatusPendiente).
		Permit(TriggerSend, StatusEnviado)

	b.Configure(StatusEnviado).
		Permit(TriggerApprove, StatusAprobado).
		Permit(TriggerReject, StatusRechazado)

	b.Configure(StatusRechazado).
		Permit(TriggerResubmit, StatusEnviado)

	return b.Build(current)
}
