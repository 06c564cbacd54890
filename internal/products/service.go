package products

import (
	"context"
	"time"

	"loanflow-backend/internal/documents"
)

// Service exposes read access to the product catalog.
type Service struct {
	repo Repo
}

// NewService constructs a Service over the given repo.
func NewService(repo Repo) *Service {
	return &Service{repo: repo}
}

// Get returns a product by ID.
func (s *Service) Get(ctx context.Context, productID string) (Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// List returns the catalog.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

// SeedDefaults inserts the default catalog when running without a database.
// Existing entries are overwritten, which is fine for dev.
func (s *Service) SeedDefaults(ctx context.Context) error {
	now := time.Now().UTC()
	defaults := []Product{
		{
			ID:            "personal-loan",
			Name:          "Personal Loan",
			MinAmount:     1000,
			MaxAmount:     50000,
			MinTermMonths: 6,
			MaxTermMonths: 60,
			BaseRate:      0.08,
			RequiredDocumentTypes: []documents.Type{
				documents.TypeIDProof,
				documents.TypeIncomeProof,
			},
			Active:    true,
			CreatedAt: now,
		},
		{
			ID:            "home-improvement",
			Name:          "Home Improvement Loan",
			MinAmount:     5000,
			MaxAmount:     200000,
			MinTermMonths: 12,
			MaxTermMonths: 120,
			BaseRate:      0.06,
			RequiredDocumentTypes: []documents.Type{
				documents.TypeIDProof,
				documents.TypeIncomeProof,
				documents.TypeBankStatement,
			},
			Active:    true,
			CreatedAt: now,
		},
	}
	for _, p := range defaults {
		if err := s.repo.Put(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
