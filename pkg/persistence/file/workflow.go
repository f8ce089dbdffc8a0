package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/caldera-io/relay/pkg/models"
	"github.com/caldera-io/relay/pkg/persistence"
)

// WorkflowRepository handles workflow-related file operations. A single mutex
// serializes writes so read-modify-write sequences like IncrementUsage stay
// consistent within the process.
type WorkflowRepository struct {
	root string
	mu   sync.Mutex
}

func NewWorkflowRepository(root string) *WorkflowRepository {
	return &WorkflowRepository{root: root}
}

func (wr *WorkflowRepository) dir() string {
	return path.Join(wr.root, "workflows")
}

// List returns every stored workflow.
func (wr *WorkflowRepository) List(ctx context.Context) ([]*models.Workflow, error) {
	root := os.DirFS(wr.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		workflowID := file[:len(file)-5] // Remove .json extension

		workflow, err := wr.GetByID(ctx, workflowID)
		if err != nil {
			return nil, fmt.Errorf("failed to load workflow %s: %w", workflowID, err)
		}

		workflows = append(workflows, workflow)
	}

	return workflows, nil
}

// GetByID retrieves a workflow by its ID from the file system.
func (wr *WorkflowRepository) GetByID(_ context.Context, id string) (*models.Workflow, error) {
	filePath := filepath.Clean(path.Join(wr.dir(), id+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewNotFoundError("GetByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, fmt.Errorf("failed to fetch workflow %s: %w", id, err)
	}

	var workflow models.Workflow

	err = json.Unmarshal(body, &workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow %s: %w", id, err)
	}

	return &workflow, nil
}

// Save writes a workflow to the file system, stamping timestamps.
func (wr *WorkflowRepository) Save(_ context.Context, workflow *models.Workflow) error {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	if workflow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate workflow ID: %w", err)
		}

		workflow.ID = id.String()
	}

	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	return wr.write(workflow)
}

func (wr *WorkflowRepository) write(workflow *models.Workflow) error {
	err := os.MkdirAll(wr.dir(), 0750)
	if err != nil {
		return fmt.Errorf("failed to create workflows directory: %w", err)
	}

	data, err := json.MarshalIndent(workflow, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal workflow %s: %w", workflow.ID, err)
	}

	return os.WriteFile(path.Join(wr.dir(), workflow.ID+".json"), data, 0600)
}

// Delete removes a workflow by its ID. Deleting a missing workflow is a no-op.
func (wr *WorkflowRepository) Delete(_ context.Context, id string) error {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	err := os.Remove(path.Join(wr.dir(), id+".json"))
	if err != nil && os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	return nil
}

// FindByTriggerType returns the active workflows listening for the trigger.
func (wr *WorkflowRepository) FindByTriggerType(ctx context.Context, triggerType models.TriggerType) ([]*models.Workflow, error) {
	all, err := wr.List(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]*models.Workflow, 0)

	for _, workflow := range all {
		if workflow.IsActive() && workflow.Trigger.Type == triggerType {
			matched = append(matched, workflow)
		}
	}

	return matched, nil
}

// IncrementUsage bumps the execution counter and last-executed stamp.
func (wr *WorkflowRepository) IncrementUsage(ctx context.Context, id string, at time.Time) error {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	workflow, err := wr.GetByID(ctx, id)
	if err != nil {
		return err
	}

	workflow.ExecutionCount++
	workflow.LastExecutedAt = &at
	workflow.UpdatedAt = time.Now().UTC()

	return wr.write(workflow)
}
