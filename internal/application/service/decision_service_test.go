package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obralink/portal-pagos/internal/application/dispatcher"
	"github.com/obralink/portal-pagos/internal/domain/approval"
	"github.com/obralink/portal-pagos/internal/domain/statement"
)

type decisionFixture struct {
	service    DecisionService
	statements *memStatements
	ledger     *memLedger
	history    *memHistory
	notifier   *memNotifier
	statement  *statement.PaymentStatement
}

// newDecisionFixture builds a statement already sent to two approvers
func newDecisionFixture(t *testing.T) *decisionFixture {
	t.Helper()

	st := pendingStatement("ep-1")
	st.Status = statement.StatusEnviado
	st.RequiredApprovers = []statement.Approver{
		{Email: "a@x.com", Name: "Ana", Order: 1},
		{Email: "b@x.com", Name: "Benito", Order: 2},
	}

	f := &decisionFixture{
		statements: newMemStatements(st),
		ledger:     &memLedger{},
		history:    &memHistory{},
		notifier:   &memNotifier{},
		statement:  st,
	}
	f.ledger.entries = approval.Seed("ep-1", st.RequiredApprovers)

	events := dispatcher.NewDispatcher()
	notifications := NewNotificationService(f.statements, f.notifier, NotificationConfig{
		ContractorEmail: "obra@constructora.cl",
		CCEmails:        []string{"copia@x.com"},
	}, nopLogger{})
	notifications.Register(events)

	f.service = NewDecisionService(
		f.statements, f.ledger, f.history,
		memTx{}, events, fixedClock{testNow}, nopLogger{},
	)
	return f
}

func TestRecordDecision_FullApprovalFlow(t *testing.T) {
	f := newDecisionFixture(t)
	ctx := context.Background()

	// First approver: aggregate stays Enviado
	result, err := f.service.RecordDecision(ctx, "ep-1", "a@x.com", approval.DecisionAprobado, "")
	require.NoError(t, err)
	assert.Equal(t, statement.StatusEnviado, result.AggregateStatus)
	assert.Equal(t, 1, result.ApprovedCount)
	assert.Equal(t, 2, result.RequiredCount)
	assert.Equal(t, statement.StatusEnviado, f.statement.Status)

	// Second approver: aggregate becomes Aprobado
	result, err = f.service.RecordDecision(ctx, "ep-1", "b@x.com", approval.DecisionAprobado, "")
	require.NoError(t, err)
	assert.Equal(t, statement.StatusAprobado, result.AggregateStatus)
	assert.Equal(t, 2, result.ApprovedCount)
	assert.Equal(t, statement.StatusAprobado, f.statement.Status)

	// Transition recorded in the trail
	require.Len(t, f.history.records, 1)
	assert.Equal(t, statement.StatusEnviado, f.history.records[0].PreviousStatus)
	assert.Equal(t, statement.StatusAprobado, f.history.records[0].NewStatus)
}

func TestRecordDecision_RejectionDominates(t *testing.T) {
	f := newDecisionFixture(t)
	ctx := context.Background()

	result, err := f.service.RecordDecision(ctx, "ep-1", "a@x.com", approval.DecisionRechazado, "faltan documentos")
	require.NoError(t, err)
	assert.Equal(t, statement.StatusRechazado, result.AggregateStatus)
	assert.Equal(t, statement.StatusRechazado, f.statement.Status)

	// A straggler approval still persists its entry but cannot change the aggregate
	result, err = f.service.RecordDecision(ctx, "ep-1", "b@x.com", approval.DecisionAprobado, "")
	require.NoError(t, err)
	assert.Equal(t, statement.StatusRechazado, result.AggregateStatus)
	assert.Equal(t, statement.StatusRechazado, f.statement.Status)

	entry, _ := f.ledger.GetEntry(ctx, "ep-1", "b@x.com")
	require.NotNil(t, entry)
	assert.Equal(t, approval.DecisionAprobado, entry.Status)
	assert.NotNil(t, entry.DecidedAt)
}

func TestRecordDecision_RejectionRequiresReason(t *testing.T) {
	f := newDecisionFixture(t)

	for _, reason := range []string{"", "   ", "\t"} {
		_, err := f.service.RecordDecision(context.Background(), "ep-1", "a@x.com", approval.DecisionRechazado, reason)
		assert.ErrorIs(t, err, statement.ErrInvalidInput)
	}

	entry, _ := f.ledger.GetEntry(context.Background(), "ep-1", "a@x.com")
	assert.Nil(t, entry.DecidedAt, "refused decision must not touch the entry")

	_, err := f.service.RecordDecision(context.Background(), "ep-1", "a@x.com", approval.DecisionRechazado, "montos no cuadran")
	assert.NoError(t, err)
}

func TestRecordDecision_WriteOnce(t *testing.T) {
	f := newDecisionFixture(t)
	ctx := context.Background()

	_, err := f.service.RecordDecision(ctx, "ep-1", "a@x.com", approval.DecisionAprobado, "")
	require.NoError(t, err)

	entry, _ := f.ledger.GetEntry(ctx, "ep-1", "a@x.com")
	decidedAt := *entry.DecidedAt

	_, err = f.service.RecordDecision(ctx, "ep-1", "a@x.com", approval.DecisionRechazado, "cambio de opinion")
	assert.ErrorIs(t, err, statement.ErrConflict)

	entry, _ = f.ledger.GetEntry(ctx, "ep-1", "a@x.com")
	assert.Equal(t, approval.DecisionAprobado, entry.Status, "second decision must not change the entry")
	assert.True(t, entry.DecidedAt.Equal(decidedAt))
}

func TestRecordDecision_UnknownApprover(t *testing.T) {
	f := newDecisionFixture(t)

	_, err := f.service.RecordDecision(context.Background(), "ep-1", "intruso@x.com", approval.DecisionAprobado, "")
	assert.ErrorIs(t, err, statement.ErrNotFound)
}

func TestRecordDecision_UnknownStatement(t *testing.T) {
	f := newDecisionFixture(t)

	_, err := f.service.RecordDecision(context.Background(), "missing", "a@x.com", approval.DecisionAprobado, "")
	assert.ErrorIs(t, err, statement.ErrNotFound)
}

func TestRecordDecision_InvalidDecisionValue(t *testing.T) {
	f := newDecisionFixture(t)

	_, err := f.service.RecordDecision(context.Background(), "ep-1", "a@x.com", approval.DecisionPendiente, "")
	assert.ErrorIs(t, err, statement.ErrInvalidInput)

	_, err = f.service.RecordDecision(context.Background(), "ep-1", "a@x.com", approval.Decision("Tal vez"), "")
	assert.ErrorIs(t, err, statement.ErrInvalidInput)
}

func TestRecordDecision_NotifyFailureDoesNotBlock(t *testing.T) {
	f := newDecisionFixture(t)
	f.notifier.fail = true

	result, err := f.service.RecordDecision(context.Background(), "ep-1", "a@x.com", approval.DecisionAprobado, "")
	require.NoError(t, err)

	entry, _ := f.ledger.GetEntry(context.Background(), "ep-1", "a@x.com")
	assert.NotNil(t, entry.DecidedAt, "decision persists despite notify failure")
	assert.Equal(t, statement.StatusEnviado, result.AggregateStatus)
}

func TestRecordDecision_NotifiesContractorOnOutcome(t *testing.T) {
	f := newDecisionFixture(t)
	ctx := context.Background()

	_, err := f.service.RecordDecision(ctx, "ep-1", "a@x.com", approval.DecisionRechazado, "faltan documentos")
	require.NoError(t, err)

	var contractorNotified bool
	for _, n := range f.notifier.sent {
		if n.RecipientEmail == "obra@constructora.cl" && n.TemplateKind == "rechazado" {
			contractorNotified = true
			assert.Equal(t, "faltan documentos", n.Context["reason"])
		}
	}
	assert.True(t, contractorNotified, "contractor must hear about the rejection")
}

func TestRecordDecision_ConcurrentClaimLoss(t *testing.T) {
	f := newDecisionFixture(t)
	ctx := context.Background()

	// Simulate a concurrent writer winning the CAS between read and claim
	entry, _ := f.ledger.GetEntry(ctx, "ep-1", "a@x.com")
	raceTime := testNow.Add(-time.Second)
	claimed, err := f.ledger.ClaimDecision(ctx, entry.ID, approval.DecisionAprobado, nil, raceTime)
	require.NoError(t, err)
	require.True(t, claimed)

	_, err = f.service.RecordDecision(ctx, "ep-1", "a@x.com", approval.DecisionAprobado, "")
	assert.ErrorIs(t, err, statement.ErrConflict)
}
