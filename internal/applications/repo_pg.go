package applications

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"loanflow-backend/internal/documents"
	"loanflow-backend/internal/risk"
)

// PGRepo implements Repo using Postgres. Documents and the risk assessment are
// stored as JSONB alongside the scalar columns; the aggregate is always read
// and written whole.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new application.
func (r *PGRepo) Create(ctx context.Context, app Application) error {
	const query = `
INSERT INTO applications (
	id, user_id, product_id, amount, term_months, purpose, status, documents, risk_assessment,
	approved_amount, approved_rate, rejection_reason, created_at, updated_at, submitted_at, approved_at, rejected_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	docs, assessment, err := marshalAggregates(app)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		app.ID,
		app.UserID,
		app.ProductID,
		app.Amount,
		app.TermMonths,
		app.Purpose,
		string(app.Status),
		docs,
		assessment,
		app.ApprovedAmount,
		app.ApprovedRate,
		nullString(app.RejectionReason),
		app.CreatedAt,
		app.UpdatedAt,
		app.SubmittedAt,
		app.ApprovedAt,
		app.RejectedAt,
	)
	return err
}

// GetByID returns an application by ID.
func (r *PGRepo) GetByID(ctx context.Context, applicationID string) (Application, error) {
	const query = selectColumns + ` WHERE id = $1 LIMIT 1`
	app, err := scanApplication(r.DB.QueryRowContext(ctx, query, applicationID))
	if errors.Is(err, sql.ErrNoRows) {
		return Application{}, ErrNotFound
	}
	return app, err
}

// Update overwrites the mutable fields of an existing application.
func (r *PGRepo) Update(ctx context.Context, app Application) error {
	const query = `
UPDATE applications
SET status = $2, documents = $3, risk_assessment = $4, approved_amount = $5, approved_rate = $6,
    rejection_reason = $7, updated_at = $8, submitted_at = $9, approved_at = $10, rejected_at = $11
WHERE id = $1`
	docs, assessment, err := marshalAggregates(app)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query,
		app.ID,
		string(app.Status),
		docs,
		assessment,
		app.ApprovedAmount,
		app.ApprovedRate,
		nullString(app.RejectionReason),
		app.UpdatedAt,
		app.SubmittedAt,
		app.ApprovedAt,
		app.RejectedAt,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser returns a user's applications, newest first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Application, error) {
	const query = selectColumns + `
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, rows.Err()
}

const selectColumns = `
SELECT id, user_id, product_id, amount, term_months, purpose, status, documents, risk_assessment,
       approved_amount, approved_rate, rejection_reason, created_at, updated_at, submitted_at, approved_at, rejected_at
FROM applications`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (Application, error) {
	var app Application
	var status string
	var docs, assessment []byte
	var approvedAmount, approvedRate sql.NullFloat64
	var rejectionReason sql.NullString
	var submittedAt, approvedAt, rejectedAt sql.NullTime
	err := row.Scan(
		&app.ID,
		&app.UserID,
		&app.ProductID,
		&app.Amount,
		&app.TermMonths,
		&app.Purpose,
		&status,
		&docs,
		&assessment,
		&approvedAmount,
		&approvedRate,
		&rejectionReason,
		&app.CreatedAt,
		&app.UpdatedAt,
		&submittedAt,
		&approvedAt,
		&rejectedAt,
	)
	if err != nil {
		return Application{}, err
	}

	app.Status = Status(status)
	app.RejectionReason = rejectionReason.String
	if approvedAmount.Valid {
		app.ApprovedAmount = &approvedAmount.Float64
	}
	if approvedRate.Valid {
		app.ApprovedRate = &approvedRate.Float64
	}
	if submittedAt.Valid {
		app.SubmittedAt = &submittedAt.Time
	}
	if approvedAt.Valid {
		app.ApprovedAt = &approvedAt.Time
	}
	if rejectedAt.Valid {
		app.RejectedAt = &rejectedAt.Time
	}
	if len(docs) > 0 {
		if err := json.Unmarshal(docs, &app.Documents); err != nil {
			return Application{}, fmt.Errorf("decode documents: %w", err)
		}
	}
	if app.Documents == nil {
		app.Documents = []documents.Document{}
	}
	if len(assessment) > 0 && string(assessment) != "null" {
		var a risk.Assessment
		if err := json.Unmarshal(assessment, &a); err != nil {
			return Application{}, fmt.Errorf("decode risk assessment: %w", err)
		}
		app.RiskAssessment = &a
	}
	return app, nil
}

func marshalAggregates(app Application) (docs []byte, assessment any, err error) {
	if app.Documents == nil {
		app.Documents = []documents.Document{}
	}
	docs, err = json.Marshal(app.Documents)
	if err != nil {
		return nil, nil, err
	}
	if app.RiskAssessment == nil {
		return docs, nil, nil
	}
	raw, err := json.Marshal(app.RiskAssessment)
	if err != nil {
		return nil, nil, err
	}
	return docs, raw, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var _ Repo = (*PGRepo)(nil)
