package statement

// Trigger represents an event that can cause a status transition
type Trigger string

const (
	// TriggerActivate opens a scheduled statement for contractor action
	TriggerActivate Trigger = "ACTIVATE"

	// TriggerSend submits the statement to the required approvers
	TriggerSend Trigger = "SEND"

	// TriggerApprove fires when the ledger aggregate reaches Aprobado
	TriggerApprove Trigger = "APPROVE"

	// TriggerReject fires when any approver rejects
	TriggerReject Trigger = "REJECT"

	// TriggerResubmit restarts the approval cycle after a rejection
	TriggerResubmit Trigger = "RESUBMIT"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
