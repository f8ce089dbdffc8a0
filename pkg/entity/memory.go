package entity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/caldera-io/relay/pkg/models"
	"github.com/google/uuid"
)

// MemoryStore is an in-process Service implementation. It backs local
// development and the engine's test suites; production deployments inject
// the CRM's own entity service instead.
type MemoryStore struct {
	mu         sync.RWMutex
	records    map[models.EntityType]map[string]map[string]any
	tasks      map[string]*Task
	activities map[string]*Activity
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:    make(map[models.EntityType]map[string]map[string]any),
		tasks:      make(map[string]*Task),
		activities: make(map[string]*Activity),
	}
}

// Put inserts or replaces a record. Used by tests and the seed loader.
func (s *MemoryStore) Put(entityType models.EntityType, id string, data map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.records[entityType] == nil {
		s.records[entityType] = make(map[string]map[string]any)
	}

	s.records[entityType][id] = data
}

func (s *MemoryStore) Get(_ context.Context, entityType models.EntityType, id string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[entityType][id]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, entityType, id)
	}

	// Copy so callers never mutate stored state behind the lock.
	snapshot := make(map[string]any, len(record))
	for k, v := range record {
		snapshot[k] = v
	}

	return snapshot, nil
}

func (s *MemoryStore) UpdateField(_ context.Context, entityType models.EntityType, id, field string, value any) error {
	return s.mutate(entityType, id, func(record map[string]any) {
		record[field] = value
	})
}

func (s *MemoryStore) MoveStage(_ context.Context, entityType models.EntityType, id, stageID string) error {
	return s.mutate(entityType, id, func(record map[string]any) {
		record["stageId"] = stageID
	})
}

func (s *MemoryStore) AssignOwner(_ context.Context, entityType models.EntityType, id, ownerID string) error {
	return s.mutate(entityType, id, func(record map[string]any) {
		record["ownerId"] = ownerID
	})
}

func (s *MemoryStore) AddTags(_ context.Context, entityType models.EntityType, id string, tags []string) error {
	return s.mutate(entityType, id, func(record map[string]any) {
		record["tags"] = unionTags(currentTags(record), tags)
	})
}

func (s *MemoryStore) RemoveTags(_ context.Context, entityType models.EntityType, id string, tags []string) error {
	return s.mutate(entityType, id, func(record map[string]any) {
		record["tags"] = subtractTags(currentTags(record), tags)
	})
}

func (s *MemoryStore) CreateTask(_ context.Context, task *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if task.ID == "" {
		task.ID = uuid.New().String()
	}

	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}

	s.tasks[task.ID] = task

	return nil
}

func (s *MemoryStore) CreateActivity(_ context.Context, activity *Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if activity.ID == "" {
		activity.ID = uuid.New().String()
	}

	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC()
	}

	s.activities[activity.ID] = activity

	return nil
}

func (s *MemoryStore) OverdueTasks(_ context.Context, now time.Time) ([]*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var overdue []*Task

	for _, task := range s.tasks {
		if !task.Completed && task.DueAt != nil && task.DueAt.Before(now) {
			overdue = append(overdue, task)
		}
	}

	return overdue, nil
}

// Tasks returns all stored tasks. Test helper.
func (s *MemoryStore) Tasks() []*Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]*Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		tasks = append(tasks, task)
	}

	return tasks
}

// Activities returns all stored activities. Test helper.
func (s *MemoryStore) Activities() []*Activity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	activities := make([]*Activity, 0, len(s.activities))
	for _, activity := range s.activities {
		activities = append(activities, activity)
	}

	return activities
}

func (s *MemoryStore) mutate(entityType models.EntityType, id string, apply func(record map[string]any)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[entityType][id]
	if !ok {
		return fmt.Errorf("%w: %s %s", ErrNotFound, entityType, id)
	}

	apply(record)

	return nil
}

func currentTags(record map[string]any) []string {
	switch v := record["tags"].(type) {
	case []string:
		return v
	case []any:
		tags := make([]string, 0, len(v))

		for _, item := range v {
			if s, ok := item.(string); ok {
				tags = append(tags, s)
			}
		}

		return tags
	default:
		return nil
	}
}

func unionTags(existing, added []string) []string {
	seen := make(map[string]bool, len(existing))
	result := make([]string, 0, len(existing)+len(added))

	for _, tag := range existing {
		if !seen[tag] {
			seen[tag] = true
			result = append(result, tag)
		}
	}

	for _, tag := range added {
		if !seen[tag] {
			seen[tag] = true
			result = append(result, tag)
		}
	}

	return result
}

func subtractTags(existing, removed []string) []string {
	drop := make(map[string]bool, len(removed))
	for _, tag := range removed {
		drop[tag] = true
	}

	result := make([]string, 0, len(existing))

	for _, tag := range existing {
		if !drop[tag] {
			result = append(result, tag)
		}
	}

	return result
}
