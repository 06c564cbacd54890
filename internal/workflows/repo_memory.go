package workflows

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu    sync.RWMutex
	data  map[string]Workflow // workflowID -> workflow
	byApp map[string]string   // applicationID -> workflowID
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data:  make(map[string]Workflow),
		byApp: make(map[string]string),
	}
}

// Create stores a new workflow, one per application.
func (r *MemoryRepo) Create(ctx context.Context, w Workflow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byApp[w.ApplicationID]; ok {
		return ErrAlreadyExists
	}
	r.data[w.ID] = cloneWorkflow(w)
	r.byApp[w.ApplicationID] = w.ID
	return nil
}

// GetByID returns a workflow by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, workflowID string) (Workflow, error) {
	if err := ctx.Err(); err != nil {
		return Workflow{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.data[workflowID]
	if !ok {
		return Workflow{}, ErrNotFound
	}
	return cloneWorkflow(w), nil
}

// GetByApplicationID returns the workflow shadowing an application.
func (r *MemoryRepo) GetByApplicationID(ctx context.Context, applicationID string) (Workflow, error) {
	if err := ctx.Err(); err != nil {
		return Workflow{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byApp[applicationID]
	if !ok {
		return Workflow{}, ErrNotFound
	}
	return cloneWorkflow(r.data[id]), nil
}

// Update overwrites an existing workflow.
func (r *MemoryRepo) Update(ctx context.Context, w Workflow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[w.ID]; !ok {
		return ErrNotFound
	}
	r.data[w.ID] = cloneWorkflow(w)
	return nil
}

// List returns all workflows ordered by creation time, oldest first.
func (r *MemoryRepo) List(ctx context.Context) ([]Workflow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Workflow, 0, len(r.data))
	for _, w := range r.data {
		out = append(out, cloneWorkflow(w))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// cloneWorkflow keeps callers from aliasing the stored history slice.
func cloneWorkflow(w Workflow) Workflow {
	out := w
	out.History = make([]HistoryEntry, len(w.History))
	copy(out.History, w.History)
	return out
}

var _ Repo = (*MemoryRepo)(nil)
