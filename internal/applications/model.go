package applications

import (
	"time"

	"loanflow-backend/internal/documents"
	"loanflow-backend/internal/risk"
)

// Status describes where a loan application sits in its lifecycle.
// Progression is forward-only: DRAFT -> SUBMITTED -> CREDIT_CHECK ->
// UNDERWRITING -> APPROVED or REJECTED. Document verification is an implicit
// sub-phase of SUBMITTED; the application advances to CREDIT_CHECK only once
// every attached document is verified.
type Status string

const (
	StatusDraft        Status = "DRAFT"
	StatusSubmitted    Status = "SUBMITTED"
	StatusCreditCheck  Status = "CREDIT_CHECK"
	StatusUnderwriting Status = "UNDERWRITING"
	StatusApproved     Status = "APPROVED"
	StatusRejected     Status = "REJECTED"
)

// Application is one loan application for one product by one user. It is
// mutated only through the orchestrator's operations and never deleted;
// approved and rejected applications are retained for audit.
type Application struct {
	ID              string               `json:"id"`
	UserID          string               `json:"userId"`
	ProductID       string               `json:"productId"`
	Amount          float64              `json:"amount"`
	TermMonths      int                  `json:"termMonths"`
	Purpose         string               `json:"purpose"`
	Status          Status               `json:"status"`
	Documents       []documents.Document `json:"documents"`
	RiskAssessment  *risk.Assessment     `json:"riskAssessment,omitempty"`
	ApprovedAmount  *float64             `json:"approvedAmount,omitempty"`
	ApprovedRate    *float64             `json:"approvedRate,omitempty"`
	RejectionReason string               `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
	SubmittedAt     *time.Time           `json:"submittedAt,omitempty"`
	ApprovedAt      *time.Time           `json:"approvedAt,omitempty"`
	RejectedAt      *time.Time           `json:"rejectedAt,omitempty"`
}

// Terminal reports whether the application has reached a final decision.
func (a Application) Terminal() bool {
	return a.Status == StatusApproved || a.Status == StatusRejected
}

// Decision carries the outcome fields for makeDecision. Amount and Rate apply
// on approval, RejectionReason on rejection.
type Decision struct {
	Amount          float64 `json:"amount"`
	Rate            float64 `json:"rate"`
	RejectionReason string  `json:"rejectionReason"`
}
