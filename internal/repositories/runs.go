package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/cmx/internal/models"
	"github.com/desertthunder/cmx/internal/shared"
	"github.com/desertthunder/cmx/internal/tasks"
)

// SyncRun is the persisted summary of one reconciliation run.
type SyncRun struct {
	ID                string
	StartedAt         time.Time
	FinishedAt        time.Time
	TargetDomain      string
	CopperToMailchimp int
	MailchimpToCopper int
	Identical         int
	Excluded          int
	Marked            int
	Failed            int
}

// RunRepository persists run results and their per-record operations.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new [RunRepository] with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// SaveRun inserts a run summary and all of its operations in one transaction.
func (r *RunRepository) SaveRun(result *tasks.SyncRunResult) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO sync_runs (id, started_at, finished_at, target_domain, copper_to_mailchimp, mailchimp_to_copper, identical, excluded, marked, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, result.RunID, result.StartedAt, result.FinishedAt, result.TargetDomain,
		result.CopperToMailchimp, result.MailchimpToCopper, result.Identical,
		result.Excluded, len(result.Marked), result.Failed)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, op := range result.Operations {
		_, err = tx.Exec(`
			INSERT INTO sync_operations (id, run_id, email, name, direction, outcome, error, tags)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, shared.GenerateID(), result.RunID, op.Email, op.Name,
			string(op.Direction), string(op.Outcome), op.Error, strings.Join(op.Tags, ","))
		if err != nil {
			return fmt.Errorf("failed to insert operation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	return nil
}

// ListRuns returns run summaries, most recent first.
func (r *RunRepository) ListRuns(limit int) ([]SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(`
		SELECT id, started_at, finished_at, target_domain, copper_to_mailchimp, mailchimp_to_copper, identical, excluded, marked, failed
		FROM sync_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []SyncRun
	for rows.Next() {
		var run SyncRun
		var finished sql.NullTime
		err := rows.Scan(&run.ID, &run.StartedAt, &finished, &run.TargetDomain,
			&run.CopperToMailchimp, &run.MailchimpToCopper, &run.Identical,
			&run.Excluded, &run.Marked, &run.Failed)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if finished.Valid {
			run.FinishedAt = finished.Time
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// GetRun retrieves one run summary together with its recorded operations.
func (r *RunRepository) GetRun(id string) (*SyncRun, []models.SyncOperation, error) {
	var run SyncRun
	var finished sql.NullTime
	err := r.db.QueryRow(`
		SELECT id, started_at, finished_at, target_domain, copper_to_mailchimp, mailchimp_to_copper, identical, excluded, marked, failed
		FROM sync_runs
		WHERE id = ?
	`, id).Scan(&run.ID, &run.StartedAt, &finished, &run.TargetDomain,
		&run.CopperToMailchimp, &run.MailchimpToCopper, &run.Identical,
		&run.Excluded, &run.Marked, &run.Failed)
	if err == sql.ErrNoRows {
		return nil, nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query run: %w", err)
	}
	if finished.Valid {
		run.FinishedAt = finished.Time
	}

	rows, err := r.db.Query(`
		SELECT email, name, direction, outcome, error, tags
		FROM sync_operations
		WHERE run_id = ?
		ORDER BY created_at
	`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query operations: %w", err)
	}
	defer rows.Close()

	var ops []models.SyncOperation
	for rows.Next() {
		var op models.SyncOperation
		var direction, outcome, tags string
		if err := rows.Scan(&op.Email, &op.Name, &direction, &outcome, &op.Error, &tags); err != nil {
			return nil, nil, fmt.Errorf("failed to scan operation: %w", err)
		}
		op.Direction = models.Direction(direction)
		op.Outcome = models.Outcome(outcome)
		if tags != "" {
			op.Tags = strings.Split(tags, ",")
		}
		ops = append(ops, op)
	}

	return &run, ops, rows.Err()
}
