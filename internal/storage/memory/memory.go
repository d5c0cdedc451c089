package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/slok/duely/internal/log"
	"github.com/slok/duely/internal/model"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.Repository.
type Repository struct {
	tasks    []model.Task
	hasTasks bool
	progress []model.DailyProgressEntry
	mu       sync.RWMutex
	logger   log.Logger
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{logger: cfg.Logger}, nil
}

// LoadTasks returns a copy of the stored tasks.
func (r *Repository) LoadTasks(ctx context.Context) ([]model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]model.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		tasks = append(tasks, t.Clone())
	}
	return tasks, nil
}

// SaveTasks replaces the stored tasks.
func (r *Repository) SaveTasks(ctx context.Context, tasks []model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(tasks) == 0 {
		r.tasks = nil
		r.hasTasks = false
		r.logger.Debugf("Removed tasks from repository")
		return nil
	}

	r.tasks = make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		r.tasks = append(r.tasks, t.Clone())
	}
	r.hasTasks = true
	r.logger.Debugf("Saved %d tasks in repository", len(tasks))

	return nil
}

// HasTasks returns true if the repository holds task data.
func (r *Repository) HasTasks() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hasTasks
}

// LoadProgress returns a copy of the stored progress history.
func (r *Repository) LoadProgress(ctx context.Context) ([]model.DailyProgressEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]model.DailyProgressEntry{}, r.progress...), nil
}

// SaveProgress replaces the stored progress history.
func (r *Repository) SaveProgress(ctx context.Context, entries []model.DailyProgressEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.progress = append([]model.DailyProgressEntry{}, entries...)
	r.logger.Debugf("Saved %d progress entries in repository", len(entries))

	return nil
}

// ClearProgress removes all the progress history.
func (r *Repository) ClearProgress(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.progress = nil
	r.logger.Debugf("Cleared progress history")

	return nil
}
