package applications

import (
	"context"
	"sort"
	"sync"

	"loanflow-backend/internal/documents"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Application
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Application)}
}

// Create stores a new application.
func (r *MemoryRepo) Create(ctx context.Context, app Application) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[app.ID] = cloneApplication(app)
	return nil
}

// GetByID returns an application by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, applicationID string) (Application, error) {
	if err := ctx.Err(); err != nil {
		return Application{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	app, ok := r.data[applicationID]
	if !ok {
		return Application{}, ErrNotFound
	}
	return cloneApplication(app), nil
}

// Update overwrites an existing application.
func (r *MemoryRepo) Update(ctx context.Context, app Application) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[app.ID]; !ok {
		return ErrNotFound
	}
	r.data[app.ID] = cloneApplication(app)
	return nil
}

// ListByUser returns a user's applications, newest first, honoring limit/offset.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	var apps []Application
	for _, app := range r.data {
		if app.UserID == userID {
			apps = append(apps, cloneApplication(app))
		}
	}
	r.mu.RUnlock()

	sort.Slice(apps, func(i, j int) bool {
		return apps[i].CreatedAt.After(apps[j].CreatedAt)
	})

	if offset >= len(apps) {
		return []Application{}, nil
	}
	end := len(apps)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return apps[offset:end], nil
}

// cloneApplication keeps callers from aliasing the stored documents slice.
func cloneApplication(app Application) Application {
	out := app
	out.Documents = make([]documents.Document, len(app.Documents))
	copy(out.Documents, app.Documents)
	if app.RiskAssessment != nil {
		assessment := *app.RiskAssessment
		out.RiskAssessment = &assessment
	}
	return out
}

var _ Repo = (*MemoryRepo)(nil)
