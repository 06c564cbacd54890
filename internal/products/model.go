package products

import (
	"time"

	"loanflow-backend/internal/documents"
)

// Product is one loan product from the catalog. Amount and term bounds gate
// application creation; RequiredDocumentTypes gates submission.
type Product struct {
	ID                    string           `json:"id"`
	Name                  string           `json:"name"`
	MinAmount             float64          `json:"minAmount"`
	MaxAmount             float64          `json:"maxAmount"`
	MinTermMonths         int              `json:"minTermMonths"`
	MaxTermMonths         int              `json:"maxTermMonths"`
	BaseRate              float64          `json:"baseRate"`
	RequiredDocumentTypes []documents.Type `json:"requiredDocumentTypes"`
	Active                bool             `json:"active"`
	CreatedAt             time.Time        `json:"createdAt"`
}

// AllowsAmount reports whether the requested amount fits the product's bounds.
func (p Product) AllowsAmount(amount float64) bool {
	return amount >= p.MinAmount && amount <= p.MaxAmount
}

// AllowsTerm reports whether the requested term fits the product's bounds.
func (p Product) AllowsTerm(termMonths int) bool {
	return termMonths >= p.MinTermMonths && termMonths <= p.MaxTermMonths
}
