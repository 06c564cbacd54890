package workflows

import (
	"context"
	"fmt"
	"time"

	"loanflow-backend/internal/notifications"
	"loanflow-backend/internal/shared/locks"
	"loanflow-backend/internal/shared/metrics"
	"loanflow-backend/internal/shared/telemetry"
	"loanflow-backend/internal/shared/util"
)

// Service owns the workflow state machine. Every mutating operation on one
// workflow runs inside that workflow's critical section: the legality check,
// the history append, and the persist are not interleaved with concurrent
// calls for the same workflow ID. State is persisted before any notification
// is sent; notification failures never roll anything back.
type Service struct {
	repo     Repo
	notifier notifications.Notifier
	locks    *locks.KeyedMutex
}

// NewService constructs a Service.
func NewService(repo Repo, notifier notifications.Notifier) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		locks:    locks.NewKeyedMutex(),
	}
}

// Create starts a workflow shadowing the given application. The initial status
// is SUBMITTED with an empty history; no notification is sent on creation.
func (s *Service) Create(ctx context.Context, applicationID string) (Workflow, error) {
	if applicationID == "" {
		return Workflow{}, ErrInvalidInput
	}

	now := time.Now().UTC()
	w := Workflow{
		ID:            util.NewID("WF"),
		ApplicationID: applicationID,
		CurrentStatus: StatusSubmitted,
		History:       []HistoryEntry{},
		Priority:      PriorityMedium,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, w); err != nil {
		return Workflow{}, fmt.Errorf("create workflow: %w", err)
	}
	return w, nil
}

// UpdateStatus moves the workflow to newStatus if the transition is legal,
// appending a history entry. Illegal targets, including same-state updates,
// leave the workflow untouched.
func (s *Service) UpdateStatus(ctx context.Context, workflowID string, newStatus Status, actor, comment string) (Workflow, error) {
	if workflowID == "" || actor == "" || !ValidStatus(newStatus) {
		return Workflow{}, ErrInvalidInput
	}

	unlock := s.locks.Lock(workflowID)
	defer unlock()

	w, err := s.repo.GetByID(ctx, workflowID)
	if err != nil {
		return Workflow{}, fmt.Errorf("update status: %w", err)
	}

	if !CanTransition(w.CurrentStatus, newStatus) {
		metrics.IncTransitionRejected()
		return Workflow{}, fmt.Errorf("update status %s -> %s: %w", w.CurrentStatus, newStatus, ErrInvalidTransition)
	}

	now := time.Now().UTC()
	w.History = append(w.History, HistoryEntry{
		Status:    newStatus,
		Timestamp: now,
		Actor:     actor,
		Comment:   comment,
	})
	w.CurrentStatus = newStatus
	w.UpdatedAt = now

	if err := s.repo.Update(ctx, w); err != nil {
		return Workflow{}, fmt.Errorf("update status: %w", err)
	}

	recipient := w.AssignedTo
	if recipient == "" {
		recipient = notifications.SystemRecipient
	}
	s.notify(ctx, notifications.Notification{
		RecipientID:   recipient,
		Event:         notifications.EventWorkflowUpdate,
		ApplicationID: w.ApplicationID,
		WorkflowID:    w.ID,
		Status:        string(newStatus),
		Comment:       comment,
	})

	return w, nil
}

// Assign hands the workflow to an assignee. CurrentStatus never changes; the
// assignment is recorded as a history entry carrying the unchanged status.
func (s *Service) Assign(ctx context.Context, workflowID, assignee, assigner string) (Workflow, error) {
	if workflowID == "" || assignee == "" || assigner == "" {
		return Workflow{}, ErrInvalidInput
	}

	unlock := s.locks.Lock(workflowID)
	defer unlock()

	w, err := s.repo.GetByID(ctx, workflowID)
	if err != nil {
		return Workflow{}, fmt.Errorf("assign workflow: %w", err)
	}

	now := time.Now().UTC()
	w.AssignedTo = assignee
	w.History = append(w.History, HistoryEntry{
		Status:    w.CurrentStatus,
		Timestamp: now,
		Actor:     assigner,
		Comment:   fmt.Sprintf("Assigned to %s", assignee),
	})
	w.UpdatedAt = now

	if err := s.repo.Update(ctx, w); err != nil {
		return Workflow{}, fmt.Errorf("assign workflow: %w", err)
	}

	s.notify(ctx, notifications.Notification{
		RecipientID:   assignee,
		Event:         notifications.EventWorkflowAssigned,
		ApplicationID: w.ApplicationID,
		WorkflowID:    w.ID,
		Status:        string(w.CurrentStatus),
		Comment:       fmt.Sprintf("Assigned by %s", assigner),
	})

	return w, nil
}

// Get returns a workflow by ID.
func (s *Service) Get(ctx context.Context, workflowID string) (Workflow, error) {
	if workflowID == "" {
		return Workflow{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, workflowID)
}

// GetByApplication returns the workflow shadowing an application.
func (s *Service) GetByApplication(ctx context.Context, applicationID string) (Workflow, error) {
	if applicationID == "" {
		return Workflow{}, ErrInvalidInput
	}
	return s.repo.GetByApplicationID(ctx, applicationID)
}

// Pending returns workflows still under active management, oldest first,
// optionally filtered to one assignee.
func (s *Service) Pending(ctx context.Context, assignee string) ([]Workflow, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("pending workflows: %w", err)
	}
	out := make([]Workflow, 0, len(all))
	for _, w := range all {
		if w.Terminal() {
			continue
		}
		if assignee != "" && w.AssignedTo != assignee {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

// History returns the workflow's history in append order, oldest first.
func (s *Service) History(ctx context.Context, workflowID string) ([]HistoryEntry, error) {
	w, err := s.repo.GetByID(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("workflow history: %w", err)
	}
	return w.History, nil
}

func (s *Service) notify(ctx context.Context, n notifications.Notification) {
	if s.notifier == nil {
		return
	}
	// Best-effort: the state change is already persisted.
	if err := s.notifier.Send(ctx, n); err != nil {
		telemetry.Error("workflow.notification_failed", map[string]any{
			"workflow_id": n.WorkflowID,
			"event":       string(n.Event),
			"error":       err.Error(),
		})
	}
}
