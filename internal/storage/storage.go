package storage

import (
	"context"

	"github.com/slok/duely/internal/model"
)

// TaskRepository is the interface for the ordered task list persistence.
//
// Loading never fails because of missing or corrupt data, an empty list is
// returned instead. Saving an empty list removes the backing data.
type TaskRepository interface {
	LoadTasks(ctx context.Context) ([]model.Task, error)
	SaveTasks(ctx context.Context, tasks []model.Task) error
}

// ProgressRepository is the interface for the daily progress history persistence.
type ProgressRepository interface {
	LoadProgress(ctx context.Context) ([]model.DailyProgressEntry, error)
	SaveProgress(ctx context.Context, entries []model.DailyProgressEntry) error
	ClearProgress(ctx context.Context) error
}

// Repository groups all the repositories a backend provides.
type Repository interface {
	TaskRepository
	ProgressRepository
}
