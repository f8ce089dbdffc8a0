// Package file provides a file-based persistence implementation. Intended for
// development and single-process deployments; each record is one JSON file.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/caldera-io/relay/pkg/persistence"
)

// Persistence implements persistence.Persistence on the local file system.
type Persistence struct {
	root             string
	workflowRepo     *WorkflowRepository
	runRepo          *RunRepository
	subscriptionRepo *SubscriptionRepository
}

// NewPersistence creates a file-backed persistence rooted at the given
// directory. Accepts either a plain path or a file:// URL.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:             cleanRoot,
		workflowRepo:     NewWorkflowRepository(cleanRoot),
		runRepo:          NewRunRepository(cleanRoot),
		subscriptionRepo: NewSubscriptionRepository(cleanRoot),
	}
}

func (fp *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return fp.workflowRepo
}

func (fp *Persistence) RunRepository() persistence.RunRepository {
	return fp.runRepo
}

func (fp *Persistence) SubscriptionRepository() persistence.SubscriptionRepository {
	return fp.subscriptionRepo
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. Nothing to do for files.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}
