package notifications

import (
	"context"
	"sync"
	"time"

	"loanflow-backend/internal/shared/metrics"
	"loanflow-backend/internal/shared/telemetry"
)

const defaultBuffer = 256

// Dispatcher decouples notification delivery from request handling. Send
// enqueues and returns immediately; a single worker goroutine drains the queue
// so a slow or broken sink can never stall application processing. When the
// queue is full the notification is dropped and logged — delivery is
// best-effort by contract.
type Dispatcher struct {
	sink Notifier

	ch       chan Notification
	done     chan struct{}
	wg       sync.WaitGroup
	closeOne sync.Once
}

// NewDispatcher starts a dispatcher draining into sink.
func NewDispatcher(sink Notifier) *Dispatcher {
	d := &Dispatcher{
		sink: sink,
		ch:   make(chan Notification, defaultBuffer),
		done: make(chan struct{}),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Send enqueues the notification without blocking the caller.
func (d *Dispatcher) Send(ctx context.Context, n Notification) error {
	if n.SentAt.IsZero() {
		n.SentAt = time.Now().UTC()
	}
	select {
	case <-d.done:
		telemetry.Error("notification.dropped", map[string]any{
			"reason": "dispatcher closed",
			"event":  string(n.Event),
		})
	case d.ch <- n:
	default:
		telemetry.Error("notification.dropped", map[string]any{
			"reason":         "queue full",
			"event":          string(n.Event),
			"application_id": n.ApplicationID,
			"workflow_id":    n.WorkflowID,
		})
		metrics.IncNotificationFailed()
	}
	return nil
}

// Close stops the worker after draining queued notifications.
func (d *Dispatcher) Close() {
	d.closeOne.Do(func() { close(d.done) })
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case n := <-d.ch:
			d.deliver(n)
		case <-d.done:
			// Drain whatever was enqueued before Close.
			for {
				select {
				case n := <-d.ch:
					d.deliver(n)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(n Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := d.sink.Send(ctx, n); err != nil {
		telemetry.Error("notification.send_failed", map[string]any{
			"event":          string(n.Event),
			"recipient_id":   n.RecipientID,
			"application_id": n.ApplicationID,
			"workflow_id":    n.WorkflowID,
			"error":          err.Error(),
		})
		metrics.IncNotificationFailed()
		return
	}
	metrics.IncNotificationSent()
}

var _ Notifier = (*Dispatcher)(nil)
