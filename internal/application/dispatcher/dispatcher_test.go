package dispatcher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/obralink/portal-pagos/internal/domain/event"
	"github.com/obralink/portal-pagos/internal/domain/statement"
)

func sentEvent() *event.Event {
	st := &statement.PaymentStatement{ID: "ep-1", ProjectID: "obra-1"}
	return event.NewEvent(event.TypeStatementSent, st, statement.StatusPendiente, statement.StatusEnviado)
}

func TestDispatch_RunsHandlersInOrder(t *testing.T) {
	d := NewDispatcher()
	var order []string

	d.SubscribeNamed(event.TypeStatementSent, "first", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "first")
		return nil
	})
	d.SubscribeNamed(event.TypeStatementSent, "second", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "second")
		return nil
	})

	if err := d.Dispatch(context.Background(), sentEvent()); err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("handler order = %v", order)
	}
}

func TestDispatch_StopsOnFirstError(t *testing.T) {
	d := NewDispatcher()
	handlerErr := errors.New("notifier down")
	var secondRan bool

	d.SubscribeNamed(event.TypeStatementSent, "failing", func(ctx context.Context, evt *event.Event) error {
		return handlerErr
	})
	d.SubscribeNamed(event.TypeStatementSent, "after", func(ctx context.Context, evt *event.Event) error {
		secondRan = true
		return nil
	})

	err := d.Dispatch(context.Background(), sentEvent())
	if !errors.Is(err, handlerErr) {
		t.Fatalf("Dispatch() error = %v, want wrapped handler error", err)
	}
	if secondRan {
		t.Error("handlers after a failure must not run")
	}
}

func TestDispatch_RecoversHandlerPanic(t *testing.T) {
	d := NewDispatcher()

	d.Subscribe(event.TypeStatementSent, func(ctx context.Context, evt *event.Event) error {
		panic("boom")
	})

	if err := d.Dispatch(context.Background(), sentEvent()); err == nil {
		t.Error("Dispatch() should surface a panicking handler as an error")
	}
}

func TestDispatch_IgnoresUnregisteredTypes(t *testing.T) {
	d := NewDispatcher()

	d.Subscribe(event.TypeStatementApproved, func(ctx context.Context, evt *event.Event) error {
		t.Error("handler for another type must not run")
		return nil
	})

	if err := d.Dispatch(context.Background(), sentEvent()); err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}
}

func TestDispatchAsync_CloseWaitsForHandlers(t *testing.T) {
	d := NewDispatcher()
	var completed atomic.Int32

	d.Subscribe(event.TypeStatementSent, func(ctx context.Context, evt *event.Event) error {
		time.Sleep(20 * time.Millisecond)
		completed.Add(1)
		return nil
	})

	d.DispatchAsync(context.Background(), sentEvent())
	d.DispatchAsync(context.Background(), sentEvent())

	if err := d.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if got := completed.Load(); got != 2 {
		t.Errorf("completed handlers = %d, want 2", got)
	}
}

func TestDispatch_AfterCloseFails(t *testing.T) {
	d := NewDispatcher()
	if err := d.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	if err := d.Dispatch(context.Background(), sentEvent()); err == nil {
		t.Error("Dispatch() after Close() should fail")
	}
	if err := d.Close(); err == nil {
		t.Error("second Close() should fail")
	}
}
