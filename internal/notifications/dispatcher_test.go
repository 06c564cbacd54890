package notifications

import (
	"context"
	"errors"
	"testing"
)

type failingSink struct {
	calls int
}

func (f *failingSink) Send(ctx context.Context, n Notification) error {
	f.calls++
	return errors.New("sink down")
}

func TestDispatcherDeliversOnClose(t *testing.T) {
	sink := NewMemoryNotifier()
	d := NewDispatcher(sink)

	for i := 0; i < 5; i++ {
		if err := d.Send(context.Background(), Notification{
			RecipientID:   "user123",
			Event:         EventWorkflowUpdate,
			ApplicationID: "APP-1",
		}); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}
	d.Close()

	sent := sink.Sent()
	if len(sent) != 5 {
		t.Fatalf("delivered %d, want 5", len(sent))
	}
	for _, n := range sent {
		if n.SentAt.IsZero() {
			t.Error("SentAt not stamped")
		}
	}
}

func TestDispatcherSwallowsSinkFailures(t *testing.T) {
	sink := &failingSink{}
	d := NewDispatcher(sink)

	// Send never surfaces sink errors; delivery is best-effort.
	if err := d.Send(context.Background(), Notification{Event: EventLoanApproved}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	d.Close()

	if sink.calls != 1 {
		t.Fatalf("sink called %d times, want 1", sink.calls)
	}
}

func TestDispatcherSendAfterCloseDoesNotBlock(t *testing.T) {
	sink := NewMemoryNotifier()
	d := NewDispatcher(sink)
	d.Close()

	done := make(chan struct{})
	go func() {
		_ = d.Send(context.Background(), Notification{Event: EventWorkflowUpdate})
		close(done)
	}()
	<-done

	if got := len(sink.Sent()); got != 0 {
		t.Fatalf("delivered %d after close, want 0", got)
	}
}
