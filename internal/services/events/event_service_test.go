package events

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ternarybob/appforge/internal/interfaces"
	"github.com/ternarybob/arbor"
)

func TestPublishSyncDeliversToAllHandlers(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	var calls int32
	handler := func(ctx context.Context, event interfaces.Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}

	if err := svc.Subscribe(interfaces.EventSessionStarted, handler); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if err := svc.Subscribe(interfaces.EventSessionStarted, handler); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	err := svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventSessionStarted})
	if err != nil {
		t.Fatalf("PublishSync failed: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("Expected 2 handler calls, got %d", got)
	}
}

func TestPublishSyncReportsHandlerErrors(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	svc.Subscribe(interfaces.EventSessionFailed, func(ctx context.Context, event interfaces.Event) error {
		return fmt.Errorf("boom")
	})

	err := svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventSessionFailed})
	if err == nil {
		t.Error("Expected error from failing handler")
	}
}

func TestPublishAsyncDoesNotBlock(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	done := make(chan struct{})
	svc.Subscribe(interfaces.EventStepProgress, func(ctx context.Context, event interfaces.Event) error {
		close(done)
		return nil
	})

	if err := svc.Publish(context.Background(), interfaces.Event{Type: interfaces.EventStepProgress}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("Handler was never invoked")
	}
}

func TestSubscribeAfterCloseFails(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	svc.Close()

	err := svc.Subscribe(interfaces.EventSessionStarted, func(ctx context.Context, event interfaces.Event) error {
		return nil
	})
	if err == nil {
		t.Error("Expected error subscribing after close")
	}
}

func TestUnsubscribeDropsHandlers(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	var calls int32
	svc.Subscribe(interfaces.EventSessionCancelled, func(ctx context.Context, event interfaces.Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	if err := svc.Unsubscribe(interfaces.EventSessionCancelled); err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}

	svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventSessionCancelled})
	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Errorf("Expected 0 calls after unsubscribe, got %d", got)
	}

	if err := svc.Unsubscribe(interfaces.EventSessionCancelled); err == nil {
		t.Error("Expected error unsubscribing unknown event type")
	}
}
