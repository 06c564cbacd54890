// Package risk defines the assessment record the engine accepts from an
// external scorer. The engine never computes scores itself.
package risk

import "time"

// Level buckets an assessment's overall risk.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Assessment is the immutable result delivered by the risk scorer for one
// application. It is attached to the application exactly once.
type Assessment struct {
	CreditScore       int       `json:"creditScore"`
	RiskLevel         Level     `json:"riskLevel"`
	Factors           []string  `json:"factors,omitempty"`
	RecommendedAmount float64   `json:"recommendedAmount"`
	RecommendedRate   float64   `json:"recommendedRate"`
	AssessedBy        string    `json:"assessedBy"`
	AssessedAt        time.Time `json:"assessedAt"`
}

// Valid reports whether the assessment carries the minimum fields the engine
// requires before attaching it.
func (a Assessment) Valid() bool {
	switch a.RiskLevel {
	case LevelLow, LevelMedium, LevelHigh:
	default:
		return false
	}
	return a.CreditScore > 0
}
