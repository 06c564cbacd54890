package workflows

import "time"

// Status describes a workflow's position in the loan processing pipeline.
type Status string

const (
	StatusSubmitted            Status = "SUBMITTED"
	StatusDocumentVerification Status = "DOCUMENT_VERIFICATION"
	StatusCreditCheck          Status = "CREDIT_CHECK"
	StatusUnderwriting         Status = "UNDERWRITING"
	StatusApproved             Status = "APPROVED"
	StatusRejected             Status = "REJECTED"
	StatusCancelled            Status = "CANCELLED"
)

// Priority orders workflows in an assignee's queue.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// HistoryEntry is one immutable, append-only record of a workflow mutation.
// Entries are ordered by append order, which matches call arrival order for a
// single workflow.
type HistoryEntry struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Comment   string    `json:"comment,omitempty"`
}

// Workflow is the audit and assignment shadow of one loan application's
// progress. CurrentStatus always equals the status of the most recently
// appended history entry, or the initial SUBMITTED when history is empty.
type Workflow struct {
	ID            string         `json:"id"`
	ApplicationID string         `json:"applicationId"`
	CurrentStatus Status         `json:"currentStatus"`
	History       []HistoryEntry `json:"history"`
	AssignedTo    string         `json:"assignedTo,omitempty"`
	Priority      Priority       `json:"priority"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// Terminal reports whether the workflow has left active management.
func (w Workflow) Terminal() bool {
	return IsTerminal(w.CurrentStatus)
}
