package workflows

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// PGRepo implements Repo using Postgres. History is stored as a JSONB array in
// append order.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new workflow.
func (r *PGRepo) Create(ctx context.Context, w Workflow) error {
	const query = `
INSERT INTO workflows (id, application_id, current_status, history, assigned_to, priority, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	history, err := marshalHistory(w.History)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		w.ID,
		w.ApplicationID,
		string(w.CurrentStatus),
		history,
		nullString(w.AssignedTo),
		string(w.Priority),
		w.CreatedAt,
		w.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		// application_id carries a unique constraint: one workflow per application
		return ErrAlreadyExists
	}
	return err
}

// GetByID returns a workflow by ID.
func (r *PGRepo) GetByID(ctx context.Context, workflowID string) (Workflow, error) {
	const query = selectColumns + ` WHERE id = $1 LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, workflowID))
}

// GetByApplicationID returns the workflow shadowing an application.
func (r *PGRepo) GetByApplicationID(ctx context.Context, applicationID string) (Workflow, error) {
	const query = selectColumns + ` WHERE application_id = $1 LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, applicationID))
}

// Update overwrites the mutable fields of an existing workflow.
func (r *PGRepo) Update(ctx context.Context, w Workflow) error {
	const query = `
UPDATE workflows
SET current_status = $2, history = $3, assigned_to = $4, priority = $5, updated_at = $6
WHERE id = $1`
	history, err := marshalHistory(w.History)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query,
		w.ID,
		string(w.CurrentStatus),
		history,
		nullString(w.AssignedTo),
		string(w.Priority),
		w.UpdatedAt,
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

// List returns all workflows, oldest first.
func (r *PGRepo) List(ctx context.Context) ([]Workflow, error) {
	const query = selectColumns + ` ORDER BY created_at ASC`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Workflow
	for rows.Next() {
		w, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

const selectColumns = `
SELECT id, application_id, current_status, history, assigned_to, priority, created_at, updated_at
FROM workflows`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PGRepo) scanOne(row *sql.Row) (Workflow, error) {
	w, err := scanWorkflow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Workflow{}, ErrNotFound
	}
	return w, err
}

func scanWorkflow(row rowScanner) (Workflow, error) {
	var w Workflow
	var status, priority string
	var history []byte
	var assignedTo sql.NullString
	if err := row.Scan(&w.ID, &w.ApplicationID, &status, &history, &assignedTo, &priority, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return Workflow{}, err
	}
	w.CurrentStatus = Status(status)
	w.Priority = Priority(priority)
	w.AssignedTo = assignedTo.String
	if len(history) > 0 {
		if err := json.Unmarshal(history, &w.History); err != nil {
			return Workflow{}, fmt.Errorf("decode history: %w", err)
		}
	}
	return w, nil
}

func marshalHistory(history []HistoryEntry) ([]byte, error) {
	if history == nil {
		history = []HistoryEntry{}
	}
	return json.Marshal(history)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var _ Repo = (*PGRepo)(nil)
