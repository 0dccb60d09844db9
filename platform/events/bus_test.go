package events

import (
	"context"
	"testing"
	"time"

	"propscan_backend/platform/logger"
)

type testEvent struct {
	BaseEvent
}

func (testEvent) EventName() string { return "test.event" }

func TestPublishDetachesFromPublisherCancellation(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))

	got := make(chan error, 1)
	bus.Subscribe(testEvent{}.EventName(), HandlerFunc(
		func(ctx context.Context, _ Event) error {
			got <- ctx.Err()
			return nil
		}))

	ctx, cancel := context.WithCancel(context.Background())
	bus.Publish(ctx, testEvent{BaseEvent: NewBaseEvent()})
	cancel()

	select {
	case err := <-got:
		if err != nil {
			t.Fatalf("handler context should survive publisher cancellation, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler was never invoked")
	}
}

func TestPublishSyncJoinsHandlerErrors(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))

	calls := 0
	bus.Subscribe(testEvent{}.EventName(), HandlerFunc(
		func(context.Context, Event) error {
			calls++
			return nil
		}))
	bus.Subscribe(testEvent{}.EventName(), HandlerFunc(
		func(context.Context, Event) error {
			calls++
			return context.DeadlineExceeded
		}))

	err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent()})
	if err == nil {
		t.Fatal("expected joined handler error")
	}
	if calls != 2 {
		t.Fatalf("expected both handlers to run, got %d", calls)
	}
}
