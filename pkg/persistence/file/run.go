package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/caldera-io/relay/pkg/models"
	"github.com/caldera-io/relay/pkg/persistence"
)

// RunRepository stores the execution ledger as one JSON file per run.
type RunRepository struct {
	root string
	mu   sync.Mutex
}

func NewRunRepository(root string) *RunRepository {
	return &RunRepository{root: root}
}

func (rr *RunRepository) dir() string {
	return path.Join(rr.root, "runs")
}

// Save writes a new run record.
func (rr *RunRepository) Save(_ context.Context, run *models.ExecutionRun) error {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	return rr.write(run)
}

// Update rewrites an existing run record. The dispatcher persists the run
// after every action so the ledger survives a crash mid-run.
func (rr *RunRepository) Update(_ context.Context, run *models.ExecutionRun) error {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	filePath := path.Join(rr.dir(), run.ID+".json")
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return persistence.NewNotFoundError("Update", run.ID, persistence.ErrRunNotFound)
	}

	return rr.write(run)
}

func (rr *RunRepository) write(run *models.ExecutionRun) error {
	err := os.MkdirAll(rr.dir(), 0750)
	if err != nil {
		return fmt.Errorf("failed to create runs directory: %w", err)
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run %s: %w", run.ID, err)
	}

	return os.WriteFile(path.Join(rr.dir(), run.ID+".json"), data, 0600)
}

// GetByID retrieves a run by its ID.
func (rr *RunRepository) GetByID(_ context.Context, id string) (*models.ExecutionRun, error) {
	filePath := filepath.Clean(path.Join(rr.dir(), id+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewNotFoundError("GetByID", id, persistence.ErrRunNotFound)
		}

		return nil, fmt.Errorf("failed to fetch run %s: %w", id, err)
	}

	var run models.ExecutionRun

	err = json.Unmarshal(body, &run)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal run %s: %w", id, err)
	}

	return &run, nil
}

func (rr *RunRepository) list(ctx context.Context) ([]*models.ExecutionRun, error) {
	root := os.DirFS(rr.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list run files: %w", err)
	}

	runs := make([]*models.ExecutionRun, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		runID := file[:len(file)-5]

		run, err := rr.GetByID(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
		}

		runs = append(runs, run)
	}

	// Newest first.
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})

	return runs, nil
}

// ListByWorkflow returns the newest runs for one workflow.
func (rr *RunRepository) ListByWorkflow(ctx context.Context, workflowID string, limit int) ([]*models.ExecutionRun, error) {
	all, err := rr.list(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]*models.ExecutionRun, 0)

	for _, run := range all {
		if run.WorkflowID != workflowID {
			continue
		}

		matched = append(matched, run)
		if limit > 0 && len(matched) >= limit {
			break
		}
	}

	return matched, nil
}

// ListByStatus returns the newest runs in the given state.
func (rr *RunRepository) ListByStatus(ctx context.Context, status models.RunStatus, limit int) ([]*models.ExecutionRun, error) {
	all, err := rr.list(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]*models.ExecutionRun, 0)

	for _, run := range all {
		if run.Status != status {
			continue
		}

		matched = append(matched, run)
		if limit > 0 && len(matched) >= limit {
			break
		}
	}

	return matched, nil
}

// PurgeBefore removes runs that started before the cutoff.
func (rr *RunRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	all, err := rr.list(ctx)
	if err != nil {
		return 0, err
	}

	var purged int64

	for _, run := range all {
		if !run.StartedAt.Before(cutoff) {
			continue
		}

		err := os.Remove(path.Join(rr.dir(), run.ID+".json"))
		if err != nil && !os.IsNotExist(err) {
			return purged, fmt.Errorf("failed to purge run %s: %w", run.ID, err)
		}

		purged++
	}

	return purged, nil
}
