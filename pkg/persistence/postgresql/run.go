package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caldera-io/relay/pkg/models"
	"github.com/caldera-io/relay/pkg/persistence"
)

// RunRepository handles execution-ledger database operations.
type RunRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRunRepository creates a new run repository.
func NewRunRepository(db *sql.DB, logger *slog.Logger) *RunRepository {
	return &RunRepository{db: db, logger: logger}
}

const runColumns = `
	id
  , workflow_id
  , workflow_name
  , trigger_type
  , trigger_data
  , status
  , started_at
  , completed_at
  , duration_ms
  , action_logs
  , error
  , error_stack
`

func scanRun(row rowScanner) (*models.ExecutionRun, error) {
	var (
		run             models.ExecutionRun
		triggerDataJSON []byte
		actionLogsJSON  []byte
	)

	err := row.Scan(
		&run.ID,
		&run.WorkflowID,
		&run.WorkflowName,
		&run.TriggerType,
		&triggerDataJSON,
		&run.Status,
		&run.StartedAt,
		&run.CompletedAt,
		&run.DurationMs,
		&actionLogsJSON,
		&run.Error,
		&run.ErrorStack,
	)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(triggerDataJSON, &run.TriggerData)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal trigger data: %w", err)
	}

	err = json.Unmarshal(actionLogsJSON, &run.ActionLogs)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal action logs: %w", err)
	}

	return &run, nil
}

func (rr *RunRepository) upsert(ctx context.Context, run *models.ExecutionRun) error {
	triggerDataJSON, err := json.Marshal(run.TriggerData)
	if err != nil {
		return fmt.Errorf("failed to marshal trigger data: %w", err)
	}

	actionLogsJSON, err := json.Marshal(run.ActionLogs)
	if err != nil {
		return fmt.Errorf("failed to marshal action logs: %w", err)
	}

	query := `
		INSERT INTO execution_runs (id, workflow_id, workflow_name, trigger_type,
			trigger_data, status, started_at, completed_at, duration_ms,
			action_logs, error, error_stack)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			completed_at = EXCLUDED.completed_at,
			duration_ms = EXCLUDED.duration_ms,
			action_logs = EXCLUDED.action_logs,
			error = EXCLUDED.error,
			error_stack = EXCLUDED.error_stack
	`

	_, err = rr.db.ExecContext(ctx, query,
		run.ID,
		run.WorkflowID,
		run.WorkflowName,
		run.TriggerType,
		triggerDataJSON,
		run.Status,
		run.StartedAt,
		run.CompletedAt,
		run.DurationMs,
		actionLogsJSON,
		run.Error,
		run.ErrorStack,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	return nil
}

// Save writes a new run record.
func (rr *RunRepository) Save(ctx context.Context, run *models.ExecutionRun) error {
	return rr.upsert(ctx, run)
}

// Update rewrites a run record; the dispatcher calls this after every action.
func (rr *RunRepository) Update(ctx context.Context, run *models.ExecutionRun) error {
	return rr.upsert(ctx, run)
}

// GetByID returns a run by its ID.
func (rr *RunRepository) GetByID(ctx context.Context, id string) (*models.ExecutionRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM execution_runs
		WHERE id = $1
	`

	run, err := scanRun(rr.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewNotFoundError("GetByID", id, persistence.ErrRunNotFound)
		}

		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	return run, nil
}

func (rr *RunRepository) queryRuns(ctx context.Context, query string, args ...any) ([]*models.ExecutionRun, error) {
	rows, err := rr.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			rr.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	runs := make([]*models.ExecutionRun, 0)

	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		runs = append(runs, run)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// ListByWorkflow returns the newest runs for one workflow.
func (rr *RunRepository) ListByWorkflow(ctx context.Context, workflowID string, limit int) ([]*models.ExecutionRun, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT ` + runColumns + `
		FROM execution_runs
		WHERE workflow_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`

	return rr.queryRuns(ctx, query, workflowID, limit)
}

// ListByStatus returns the newest runs in the given state.
func (rr *RunRepository) ListByStatus(ctx context.Context, status models.RunStatus, limit int) ([]*models.ExecutionRun, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT ` + runColumns + `
		FROM execution_runs
		WHERE status = $1
		ORDER BY started_at DESC
		LIMIT $2
	`

	return rr.queryRuns(ctx, query, string(status), limit)
}

// PurgeBefore removes runs that started before the cutoff.
func (rr *RunRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := rr.db.ExecContext(ctx, "DELETE FROM execution_runs WHERE started_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge runs: %w", err)
	}

	purged, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged runs: %w", err)
	}

	return purged, nil
}
