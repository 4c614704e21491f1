package statement

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPaymentStatement_UpdateFinancials(t *testing.T) {
	tests := []struct {
		name     string
		status   Status
		total    string
		progress float64
		wantErr  error
	}{
		{"editable scheduled", StatusProgramado, "1500000.50", 42.5, nil},
		{"editable pending", StatusPendiente, "980000", 100, nil},
		{"zero progress ok", StatusPendiente, "1", 0, nil},
		{"frozen after send", StatusEnviado, "1500000", 50, ErrInvalidState},
		{"frozen after approval", StatusAprobado, "1500000", 50, ErrInvalidState},
		{"frozen after rejection", StatusRechazado, "1500000", 50, ErrInvalidState},
		{"negative progress", StatusPendiente, "1500000", -0.1, ErrInvalidInput},
		{"progress over 100", StatusPendiente, "1500000", 100.1, ErrInvalidInput},
		{"zero total", StatusPendiente, "0", 50, ErrInvalidInput},
		{"negative total", StatusPendiente, "-100", 50, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &PaymentStatement{
				ID:     "ep-1",
				Status: tt.status,
				Total:  decimal.NewFromInt(1),
			}

			total := decimal.RequireFromString(tt.total)
			err := st.UpdateFinancials(total, tt.progress)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("UpdateFinancials() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("UpdateFinancials() unexpected error: %v", err)
			}
			if !st.Total.Equal(total) {
				t.Errorf("Total = %s, want %s", st.Total, total)
			}
			if st.ProgressPercent != tt.progress {
				t.Errorf("ProgressPercent = %v, want %v", st.ProgressPercent, tt.progress)
			}
		})
	}
}

func TestPaymentStatement_UpdateFinancialsLeavesFieldsOnError(t *testing.T) {
	st := &PaymentStatement{
		ID:              "ep-1",
		Status:          StatusPendiente,
		Total:           decimal.NewFromInt(500),
		ProgressPercent: 10,
	}

	if err := st.UpdateFinancials(decimal.Zero, 50); err == nil {
		t.Fatal("expected error for zero total")
	}
	if !st.Total.Equal(decimal.NewFromInt(500)) || st.ProgressPercent != 10 {
		t.Error("failed update must not mutate the statement")
	}
}

func TestPeriod_Valid(t *testing.T) {
	tests := []struct {
		name     string
		period   Period
		expected bool
	}{
		{"valid", Period{Month: 6, Year: 2026}, true},
		{"month zero", Period{Month: 0, Year: 2026}, false},
		{"month thirteen", Period{Month: 13, Year: 2026}, false},
		{"ancient year", Period{Month: 6, Year: 1999}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.period.Valid(); got != tt.expected {
				t.Errorf("Period.Valid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestPaymentStatement_ApproverByEmail(t *testing.T) {
	st := &PaymentStatement{
		RequiredApprovers: []Approver{
			{Email: "a@x.com", Name: "Ana", Order: 1},
			{Email: "b@x.com", Name: "Benito", Order: 2},
		},
	}

	if a, ok := st.ApproverByEmail("b@x.com"); !ok || a.Name != "Benito" {
		t.Errorf("ApproverByEmail(b@x.com) = %+v, %v", a, ok)
	}
	if _, ok := st.ApproverByEmail("c@x.com"); ok {
		t.Error("ApproverByEmail(c@x.com) should not be found")
	}
}
