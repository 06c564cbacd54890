package notifications

import (
	"context"

	"loanflow-backend/internal/shared/telemetry"
)

// LogNotifier writes each notification to the structured log. It is the default
// sink when no queue is configured.
type LogNotifier struct{}

// Send logs the notification.
func (LogNotifier) Send(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	telemetry.Info("notification.sent", map[string]any{
		"recipient_id":   n.RecipientID,
		"event":          string(n.Event),
		"application_id": n.ApplicationID,
		"workflow_id":    n.WorkflowID,
		"document_id":    n.DocumentID,
		"status":         n.Status,
	})
	return nil
}

var _ Notifier = LogNotifier{}
