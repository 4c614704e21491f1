package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/obralink/portal-pagos/internal/application/port"
	"github.com/obralink/portal-pagos/internal/domain/approval"
	"github.com/obralink/portal-pagos/internal/domain/statement"
)

// In-memory fakes shared by the service tests.

type memStatements struct {
	byID    map[string]*statement.PaymentStatement
	opened  []string
	failGet error
}

func newMemStatements(statements ...*statement.PaymentStatement) *memStatements {
	m := &memStatements{byID: make(map[string]*statement.PaymentStatement)}
	for _, st := range statements {
		m.byID[st.ID] = st
	}
	return m
}

func (m *memStatements) Create(ctx context.Context, st *statement.PaymentStatement) error {
	if _, exists := m.byID[st.ID]; exists {
		return fmt.Errorf("%w: statement %s", statement.ErrConflict, st.ID)
	}
	m.byID[st.ID] = st
	return nil
}

func (m *memStatements) GetByID(ctx context.Context, id string) (*statement.PaymentStatement, error) {
	if m.failGet != nil {
		return nil, m.failGet
	}
	return m.byID[id], nil
}

func (m *memStatements) GetByProjectAndPeriod(ctx context.Context, projectID string, period statement.Period) (*statement.PaymentStatement, error) {
	for _, st := range m.byID {
		if st.ProjectID == projectID && st.Period == period {
			return st, nil
		}
	}
	return nil, nil
}

func (m *memStatements) ListByProject(ctx context.Context, projectID string) ([]*statement.PaymentStatement, error) {
	var out []*statement.PaymentStatement
	for _, st := range m.byID {
		if st.ProjectID == projectID {
			out = append(out, st)
		}
	}
	return out, nil
}

func (m *memStatements) UpdateStatus(ctx context.Context, id string, status statement.Status) error {
	st, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("%w: statement %s", statement.ErrNotFound, id)
	}
	st.Status = status
	return nil
}

func (m *memStatements) MarkOpen(ctx context.Context, id string) error {
	st, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("%w: statement %s", statement.ErrNotFound, id)
	}
	st.Status = statement.StatusPendiente
	st.Completed = false
	m.opened = append(m.opened, id)
	return nil
}

func (m *memStatements) UpdateFinancials(ctx context.Context, id string, st *statement.PaymentStatement) error {
	stored, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("%w: statement %s", statement.ErrNotFound, id)
	}
	stored.Total = st.Total
	stored.ProgressPercent = st.ProgressPercent
	return nil
}

func (m *memStatements) FreezeApprovers(ctx context.Context, id string, approvers []statement.Approver) error {
	st, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("%w: statement %s", statement.ErrNotFound, id)
	}
	st.RequiredApprovers = approvers
	return nil
}

type memLedger struct {
	entries []*approval.Entry
}

func (m *memLedger) SeedPending(ctx context.Context, entries []*approval.Entry) error {
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *memLedger) GetByStatement(ctx context.Context, statementID string) ([]*approval.Entry, error) {
	var out []*approval.Entry
	for _, e := range m.entries {
		if e.StatementID == statementID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memLedger) GetEntry(ctx context.Context, statementID, approverEmail string) (*approval.Entry, error) {
	for _, e := range m.entries {
		if e.StatementID == statementID && e.ApproverEmail == approverEmail {
			return e, nil
		}
	}
	return nil, nil
}

func (m *memLedger) ClaimDecision(ctx context.Context, entryID string, decision approval.Decision, reason *string, decidedAt time.Time) (bool, error) {
	for _, e := range m.entries {
		if e.ID != entryID {
			continue
		}
		if e.DecidedAt != nil {
			return false, nil
		}
		e.Status = decision
		e.DecidedAt = &decidedAt
		e.Reason = reason
		return true, nil
	}
	return false, nil
}

func (m *memLedger) DeleteByStatement(ctx context.Context, statementID string) error {
	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.StatementID != statementID {
			kept = append(kept, e)
		}
	}
	m.entries = kept
	return nil
}

type memHistory struct {
	records []*port.TransitionRecord
}

func (m *memHistory) Create(ctx context.Context, h *port.TransitionRecord) error {
	m.records = append(m.records, h)
	return nil
}

func (m *memHistory) GetByStatement(ctx context.Context, statementID string) ([]*port.TransitionRecord, error) {
	var out []*port.TransitionRecord
	for _, h := range m.records {
		if h.StatementID == statementID {
			out = append(out, h)
		}
	}
	return out, nil
}

type memRoster struct {
	byProject map[string][]statement.Approver
}

func (m *memRoster) GetByProject(ctx context.Context, projectID string) ([]statement.Approver, error) {
	return m.byProject[projectID], nil
}

func (m *memRoster) Replace(ctx context.Context, projectID string, approvers []statement.Approver) error {
	if m.byProject == nil {
		m.byProject = make(map[string][]statement.Approver)
	}
	m.byProject[projectID] = approvers
	return nil
}

// memTx runs the function directly; the fakes have no real transactions
type memTx struct{}

func (memTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

type memNotifier struct {
	sent []port.Notification
	fail bool
}

func (m *memNotifier) Send(ctx context.Context, n port.Notification) error {
	if m.fail {
		return errors.New("smtp relay unavailable")
	}
	m.sent = append(m.sent, n)
	return nil
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}
