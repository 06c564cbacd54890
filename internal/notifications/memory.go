package notifications

import (
	"context"
	"sync"
)

// MemoryNotifier retains sent notifications in memory. It backs tests and the
// dev-only event log endpoint.
type MemoryNotifier struct {
	mu   sync.Mutex
	sent []Notification
}

// NewMemoryNotifier constructs an empty MemoryNotifier.
func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{}
}

// Send records the notification.
func (m *MemoryNotifier) Send(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, n)
	return nil
}

// Sent returns a copy of everything recorded so far, in send order.
func (m *MemoryNotifier) Sent() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Notification, len(m.sent))
	copy(out, m.sent)
	return out
}

var _ Notifier = (*MemoryNotifier)(nil)
