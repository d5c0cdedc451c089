package jsonfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/moby/sys/atomicwriter"

	"github.com/slok/duely/internal/log"
	"github.com/slok/duely/internal/model"
)

const (
	// TasksFile is the file name of the task list.
	TasksFile = "tasks.json"
	// ProgressFile is the file name of the daily progress history.
	ProgressFile = "progress.json"
)

// RepositoryConfig is the configuration for the JSON file repository.
type RepositoryConfig struct {
	// Dir is the directory holding the JSON files.
	Dir string
	// Location is used to parse the persisted calendar dates.
	Location *time.Location
	Logger   log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Dir == "" {
		return fmt.Errorf("dir is required")
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.JSONFile"})
	return nil
}

// Repository is a JSON file implementation of storage.Repository. Each collection
// lives in its own file, written atomically.
type Repository struct {
	tasksPath    string
	progressPath string
	loc          *time.Location
	logger       log.Logger
}

// NewRepository creates a new JSON file repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create data directory: %w", err)
	}

	return &Repository{
		tasksPath:    filepath.Join(cfg.Dir, TasksFile),
		progressPath: filepath.Join(cfg.Dir, ProgressFile),
		loc:          cfg.Location,
		logger:       cfg.Logger,
	}, nil
}

// LoadTasks loads the task list. Missing or corrupt files load as an empty list.
func (r *Repository) LoadTasks(ctx context.Context) ([]model.Task, error) {
	data, ok := r.read(r.tasksPath)
	if !ok {
		return []model.Task{}, nil
	}

	tasks, warnings, err := DecodeTasks(bytes.NewReader(data), r.loc)
	if err != nil {
		r.logger.Warningf("Ignoring corrupt tasks file %s: %s", r.tasksPath, err)
		return []model.Task{}, nil
	}
	for _, w := range warnings {
		r.logger.Warningf("Skipping invalid task: %s", w)
	}

	r.logger.Debugf("Loaded %d tasks from %s", len(tasks), r.tasksPath)
	return tasks, nil
}

// SaveTasks writes the task list. An empty list removes the file.
func (r *Repository) SaveTasks(ctx context.Context, tasks []model.Task) error {
	if len(tasks) == 0 {
		return r.remove(r.tasksPath)
	}

	var buf bytes.Buffer
	if err := EncodeTasks(&buf, tasks); err != nil {
		return fmt.Errorf("could not encode tasks: %w", err)
	}

	if err := atomicwriter.WriteFile(r.tasksPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("could not write tasks file: %w", err)
	}

	r.logger.Debugf("Saved %d tasks on %s", len(tasks), r.tasksPath)
	return nil
}

// LoadProgress loads the progress history. Missing or corrupt files load as an
// empty history.
func (r *Repository) LoadProgress(ctx context.Context) ([]model.DailyProgressEntry, error) {
	data, ok := r.read(r.progressPath)
	if !ok {
		return []model.DailyProgressEntry{}, nil
	}

	entries, warnings, err := DecodeProgress(bytes.NewReader(data), r.loc)
	if err != nil {
		r.logger.Warningf("Ignoring corrupt progress file %s: %s", r.progressPath, err)
		return []model.DailyProgressEntry{}, nil
	}
	for _, w := range warnings {
		r.logger.Warningf("Skipping invalid progress entry: %s", w)
	}

	return entries, nil
}

// SaveProgress writes the progress history.
func (r *Repository) SaveProgress(ctx context.Context, entries []model.DailyProgressEntry) error {
	if len(entries) == 0 {
		return r.remove(r.progressPath)
	}

	var buf bytes.Buffer
	if err := EncodeProgress(&buf, entries); err != nil {
		return fmt.Errorf("could not encode progress: %w", err)
	}

	if err := atomicwriter.WriteFile(r.progressPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("could not write progress file: %w", err)
	}

	r.logger.Debugf("Saved %d progress entries on %s", len(entries), r.progressPath)
	return nil
}

// ClearProgress removes the progress history.
func (r *Repository) ClearProgress(ctx context.Context) error {
	return r.remove(r.progressPath)
}

func (r *Repository) read(path string) ([]byte, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.logger.Warningf("Could not read %s: %s", path, err)
		}
		return nil, false
	}
	return data, true
}

func (r *Repository) remove(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not remove %s: %w", path, err)
	}

	r.logger.Debugf("Removed %s", path)
	return nil
}
