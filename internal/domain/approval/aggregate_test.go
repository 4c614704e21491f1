package approval

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/obralink/portal-pagos/internal/domain/statement"
)

func entry(email string, status Decision) *Entry {
	e := &Entry{
		ID:            "entry-" + email,
		StatementID:   "ep-1",
		ApproverEmail: email,
		Status:        status,
	}
	if status != DecisionPendiente {
		now := time.Now()
		e.DecidedAt = &now
	}
	return e
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name     string
		entries  []*Entry
		expected statement.Status
	}{
		{
			"no entries keeps pre-send status",
			nil,
			statement.StatusPendiente,
		},
		{
			"all pending stays sent",
			[]*Entry{entry("a@x.com", DecisionPendiente), entry("b@x.com", DecisionPendiente)},
			statement.StatusEnviado,
		},
		{
			"partial approval stays sent",
			[]*Entry{entry("a@x.com", DecisionAprobado), entry("b@x.com", DecisionPendiente)},
			statement.StatusEnviado,
		},
		{
			"all approved",
			[]*Entry{entry("a@x.com", DecisionAprobado), entry("b@x.com", DecisionAprobado)},
			statement.StatusAprobado,
		},
		{
			"single approver approved",
			[]*Entry{entry("a@x.com", DecisionAprobado)},
			statement.StatusAprobado,
		},
		{
			"one rejection dominates pending",
			[]*Entry{entry("a@x.com", DecisionRechazado), entry("b@x.com", DecisionPendiente)},
			statement.StatusRechazado,
		},
		{
			"one rejection dominates approvals",
			[]*Entry{
				entry("a@x.com", DecisionAprobado),
				entry("b@x.com", DecisionAprobado),
				entry("c@x.com", DecisionRechazado),
			},
			statement.StatusRechazado,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Aggregate(tt.entries, statement.StatusPendiente); got != tt.expected {
				t.Errorf("Aggregate() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestAggregate_OrderIndependent(t *testing.T) {
	entries := []*Entry{
		entry("a@x.com", DecisionAprobado),
		entry("b@x.com", DecisionRechazado),
		entry("c@x.com", DecisionPendiente),
		entry("d@x.com", DecisionAprobado),
	}

	want := Aggregate(entries, statement.StatusPendiente)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		rng.Shuffle(len(entries), func(i, j int) {
			entries[i], entries[j] = entries[j], entries[i]
		})
		if got := Aggregate(entries, statement.StatusPendiente); got != want {
			t.Fatalf("Aggregate() = %s after shuffle %d, want %s", got, i, want)
		}
	}
}

func TestEntry_Decide(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	t.Run("approve", func(t *testing.T) {
		e := entry("a@x.com", DecisionPendiente)
		if err := e.Decide(DecisionAprobado, "", now); err != nil {
			t.Fatalf("Decide() error: %v", err)
		}
		if e.Status != DecisionAprobado || e.DecidedAt == nil || !e.DecidedAt.Equal(now) {
			t.Errorf("entry after approve = %+v", e)
		}
	})

	t.Run("reject with reason", func(t *testing.T) {
		e := entry("a@x.com", DecisionPendiente)
		if err := e.Decide(DecisionRechazado, "faltan documentos", now); err != nil {
			t.Fatalf("Decide() error: %v", err)
		}
		if e.Reason == nil || *e.Reason != "faltan documentos" {
			t.Errorf("Reason = %v, want faltan documentos", e.Reason)
		}
	})

	t.Run("reject with blank reason", func(t *testing.T) {
		e := entry("a@x.com", DecisionPendiente)
		err := e.Decide(DecisionRechazado, "   ", now)
		if !errors.Is(err, statement.ErrInvalidInput) {
			t.Errorf("Decide() error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("pendiente is not a decision", func(t *testing.T) {
		e := entry("a@x.com", DecisionPendiente)
		err := e.Decide(DecisionPendiente, "", now)
		if !errors.Is(err, statement.ErrInvalidInput) {
			t.Errorf("Decide() error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("write once", func(t *testing.T) {
		e := entry("a@x.com", DecisionPendiente)
		if err := e.Decide(DecisionAprobado, "", now); err != nil {
			t.Fatalf("first Decide() error: %v", err)
		}
		err := e.Decide(DecisionRechazado, "cambio de opinion", now.Add(time.Hour))
		if !errors.Is(err, statement.ErrConflict) {
			t.Fatalf("second Decide() error = %v, want ErrConflict", err)
		}
		if e.Status != DecisionAprobado || !e.DecidedAt.Equal(now) {
			t.Error("failed second decision must not mutate the entry")
		}
	})
}

func TestSeed(t *testing.T) {
	approvers := []statement.Approver{
		{Email: "a@x.com", Name: "Ana", Order: 1},
		{Email: "b@x.com", Name: "Benito", Order: 2},
	}

	entries := Seed("ep-1", approvers)
	if len(entries) != 2 {
		t.Fatalf("Seed() produced %d entries, want 2", len(entries))
	}
	for i, e := range entries {
		if e.StatementID != "ep-1" {
			t.Errorf("entry %d StatementID = %s", i, e.StatementID)
		}
		if e.ApproverEmail != approvers[i].Email {
			t.Errorf("entry %d email = %s, want %s", i, e.ApproverEmail, approvers[i].Email)
		}
		if e.Status != DecisionPendiente || e.DecidedAt != nil || e.Reason != nil {
			t.Errorf("entry %d not seeded clean: %+v", i, e)
		}
		if e.ID == "" {
			t.Errorf("entry %d missing id", i)
		}
	}
}

func TestProgress(t *testing.T) {
	entries := []*Entry{
		entry("a@x.com", DecisionAprobado),
		entry("b@x.com", DecisionPendiente),
		entry("c@x.com", DecisionRechazado),
	}

	approved, required := Progress(entries, 3)
	if approved != 1 || required != 3 {
		t.Errorf("Progress() = %d/%d, want 1/3", approved, required)
	}
}
