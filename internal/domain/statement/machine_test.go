package statement

import (
	"context"
	"errors"
	"testing"
)

func TestStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   Status
		expected bool
	}{
		{StatusProgramado, false},
		{StatusPendiente, false},
		{StatusEnviado, false},
		{StatusRechazado, false},
		{StatusAprobado, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsTerminal(); got != tt.expected {
				t.Errorf("Status.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStatus_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		status   Status
		expected bool
	}{
		{"valid status", StatusProgramado, true},
		{"valid status", StatusAprobado, true},
		{"invalid status", Status("ENVIADO"), false},
		{"empty status", Status(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.IsValid(); got != tt.expected {
				t.Errorf("Status.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStatus_IsEditable(t *testing.T) {
	tests := []struct {
		status   Status
		expected bool
	}{
		{StatusProgramado, true},
		{StatusPendiente, true},
		{StatusEnviado, false},
		{StatusAprobado, false},
		{StatusRechazado, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsEditable(); got != tt.expected {
				t.Errorf("Status.IsEditable() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuilder_ConfigurePanicsOnInvalidStatus(t *testing.T) {
	b := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on invalid status")
		}
	}()

	b.Configure(Status("INVALID"))
}

func TestLifecycle_PermittedTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		trigger Trigger
		to      Status
	}{
		{"activate scheduled", StatusProgramado, TriggerActivate, StatusPendiente},
		{"send scheduled", StatusProgramado, TriggerSend, StatusEnviado},
		{"send pending", StatusPendiente, TriggerSend, StatusEnviado},
		{"approve sent", StatusEnviado, TriggerApprove, StatusAprobado},
		{"reject sent", StatusEnviado, TriggerReject, StatusRechazado},
		{"resubmit rejected", StatusRechazado, TriggerResubmit, StatusEnviado},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Lifecycle(tt.from)
			if !m.CanFire(tt.trigger) {
				t.Fatalf("CanFire(%s) = false from %s", tt.trigger, tt.from)
			}
			if err := m.Fire(context.Background(), tt.trigger); err != nil {
				t.Fatalf("Fire(%s) error: %v", tt.trigger, err)
			}
			if m.Status() != tt.to {
				t.Errorf("Status() = %s, want %s", m.Status(), tt.to)
			}
		})
	}
}

func TestLifecycle_ForbiddenTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		trigger Trigger
	}{
		{"approve unsent", StatusPendiente, TriggerApprove},
		{"reject unsent", StatusProgramado, TriggerReject},
		{"send sent", StatusEnviado, TriggerSend},
		{"resubmit sent", StatusEnviado, TriggerResubmit},
		{"approve approved", StatusAprobado, TriggerApprove},
		{"send approved", StatusAprobado, TriggerSend},
		{"resubmit approved", StatusAprobado, TriggerResubmit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Lifecycle(tt.from)
			if m.CanFire(tt.trigger) {
				t.Errorf("CanFire(%s) = true from %s, want false", tt.trigger, tt.from)
			}
			err := m.Fire(context.Background(), tt.trigger)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("Fire(%s) error = %v, want ErrInvalidTransition", tt.trigger, err)
			}
			if m.Status() != tt.from {
				t.Errorf("Status() changed to %s after failed fire", m.Status())
			}
		})
	}
}

func TestLifecycle_GuardBlocksTransition(t *testing.T) {
	b := NewBuilder()
	b.Configure(StatusEnviado).
		PermitIf(TriggerApprove, StatusAprobado, func(ctx context.Context) bool { return false })

	m := b.Build(StatusEnviado)

	err := m.Fire(context.Background(), TriggerApprove)
	if !errors.Is(err, ErrGuardFailed) {
		t.Errorf("Fire() error = %v, want ErrGuardFailed", err)
	}
	if m.Status() != StatusEnviado {
		t.Errorf("Status() = %s, want Enviado", m.Status())
	}
}

func TestLifecycle_ApprovedHasNoPermittedTriggers(t *testing.T) {
	m := Lifecycle(StatusAprobado)
	if got := m.PermittedTriggers(); len(got) != 0 {
		t.Errorf("PermittedTriggers() = %v, want none", got)
	}
}
