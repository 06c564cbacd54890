// Package notifications is the fire-and-forget side-effect sink for workflow
// events. Delivery is best-effort: the engine persists state first, then
// notifies, and never rolls back a persisted change because a notification
// failed.
package notifications

import (
	"context"
	"time"
)

// EventType enumerates the fixed set of events the engine emits.
type EventType string

const (
	EventLoanApplicationCreated   EventType = "LOAN_APPLICATION_CREATED"
	EventLoanApplicationSubmitted EventType = "LOAN_APPLICATION_SUBMITTED"
	EventRiskAssessmentCompleted  EventType = "RISK_ASSESSMENT_COMPLETED"
	EventLoanApproved             EventType = "LOAN_APPROVED"
	EventLoanRejected             EventType = "LOAN_REJECTED"
	EventWorkflowUpdate           EventType = "WORKFLOW_UPDATE"
	EventWorkflowAssigned         EventType = "WORKFLOW_ASSIGNED"
	EventDocumentUploaded         EventType = "DOCUMENT_UPLOADED"
	EventDocumentVerified         EventType = "DOCUMENT_VERIFIED"
)

// SystemRecipient receives workflow events when no assignee is set.
const SystemRecipient = "system"

// Notification is the closed payload for one event. Consumers get named fields
// instead of a free-form map; ApplicationID or WorkflowID is always set.
type Notification struct {
	RecipientID   string    `json:"recipientId"`
	Event         EventType `json:"event"`
	ApplicationID string    `json:"applicationId,omitempty"`
	WorkflowID    string    `json:"workflowId,omitempty"`
	DocumentID    string    `json:"documentId,omitempty"`
	Status        string    `json:"status,omitempty"`
	Comment       string    `json:"comment,omitempty"`
	SentAt        time.Time `json:"sentAt"`
}

// Notifier delivers a single notification to a downstream channel.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}
