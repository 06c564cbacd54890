package applications

import "context"

// Repo defines persistence operations for loan applications. Implementations
// must give a caller read-your-writes consistency: a Get after a successful
// Create or Update observes that write.
type Repo interface {
	Create(ctx context.Context, app Application) error
	GetByID(ctx context.Context, applicationID string) (Application, error)
	Update(ctx context.Context, app Application) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Application, error)
}
