package workflows

import "context"

// Repo defines persistence operations for workflows. Implementations must give
// a caller read-your-writes consistency: a Get after a successful Create or
// Update observes that write.
type Repo interface {
	Create(ctx context.Context, w Workflow) error
	GetByID(ctx context.Context, workflowID string) (Workflow, error)
	GetByApplicationID(ctx context.Context, applicationID string) (Workflow, error)
	Update(ctx context.Context, w Workflow) error
	List(ctx context.Context) ([]Workflow, error)
}
