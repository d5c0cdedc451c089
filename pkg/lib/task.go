package lib

import (
	"context"
	"fmt"
	"io"

	"github.com/slok/duely/internal/app/tracker"
	"github.com/slok/duely/internal/storage/jsonfile"
)

// AddTask appends a new task at the bottom of the list.
//
// A weekday is only kept on weekly tasks. Returns [ErrNotValid] if the title is
// empty.
func (c *Client) AddTask(ctx context.Context, opts AddTaskOpts) (*Task, error) {
	t, err := c.svc.Add(ctx, toInternalAddRequest(opts))
	if err != nil {
		return nil, mapError(err)
	}

	out := fromInternalTask(t)
	return &out, nil
}

// GetTask returns a task by its ID.
//
// Returns [ErrNotFound] if the task does not exist.
func (c *Client) GetTask(ctx context.Context, id string) (*Task, error) {
	t, err := c.svc.Task(id)
	if err != nil {
		return nil, mapError(err)
	}

	out := fromInternalTask(t)
	return &out, nil
}

// ListTasks returns the tasks in the configured [SortOrder].
func (c *Client) ListTasks(ctx context.Context) ([]Task, error) {
	return fromInternalTaskList(c.svc.View()), nil
}

// UpdateTask changes the title or the schedule of a task, its position is kept.
//
// Returns [ErrNotFound] if the task does not exist, or [ErrNotValid] if the
// result is not a valid task.
func (c *Client) UpdateTask(ctx context.Context, id string, opts UpdateTaskOpts) (*Task, error) {
	current, err := c.svc.Task(id)
	if err != nil {
		return nil, mapError(err)
	}

	t, err := c.svc.Update(ctx, applyUpdate(current, opts))
	if err != nil {
		return nil, mapError(err)
	}

	out := fromInternalTask(t)
	return &out, nil
}

// RemoveTask removes a task without completing it.
//
// Returns [ErrNotFound] if the task does not exist.
func (c *Client) RemoveTask(ctx context.Context, id string) error {
	return mapError(c.svc.Delete(ctx, id))
}

// CompleteTask completes a task. Repeating tasks move to their next occurrence,
// the rest are removed.
//
// Returns [ErrNotFound] if the task does not exist.
func (c *Client) CompleteTask(ctx context.Context, id string) (CompletionOutcome, error) {
	outcome, err := c.svc.MarkDone(ctx, id)
	if err != nil {
		return "", mapError(err)
	}

	return fromInternalOutcome(outcome), nil
}

// ResetTask moves a daily task that has been completed today (so it's due
// tomorrow) back to today. Returns false when the task is not eligible, in that
// case nothing changes.
//
// Returns [ErrNotFound] if the task does not exist.
func (c *Client) ResetTask(ctx context.Context, id string) (bool, error) {
	ok, err := c.svc.ResetDaily(ctx, id)
	if err != nil {
		return false, mapError(err)
	}

	return ok, nil
}

// MoveTask moves a task to a position of the stored list, 0 being the top.
// Positions out of range are clamped.
//
// Returns [ErrNotFound] if the task does not exist.
func (c *Client) MoveTask(ctx context.Context, id string, position int) error {
	return mapError(c.svc.Move(ctx, id, position))
}

// ExportTasks writes the tasks in their stored order as a JSON array, the same
// format the JSON storage uses.
func (c *Client) ExportTasks(ctx context.Context, w io.Writer) error {
	if err := jsonfile.EncodeTasks(w, c.svc.Tasks()); err != nil {
		return fmt.Errorf("could not export tasks: %w", err)
	}

	return nil
}

// ImportTasks reads a JSON array of tasks (see [Client.ExportTasks]) and adds
// them at the bottom of the list, or replaces the list when replace is set.
// Invalid records are skipped and logged. Tasks whose ID is already in use get
// a new one. Returns the number of imported tasks.
func (c *Client) ImportTasks(ctx context.Context, r io.Reader, replace bool) (int, error) {
	tasks, warnings, err := jsonfile.DecodeTasks(r, c.svc.Settings().Location)
	if err != nil {
		return 0, mapError(fmt.Errorf("could not read tasks: %w", err))
	}
	for _, w := range warnings {
		c.logger.Warningf("Skipping task: %s", w)
	}

	n, err := c.svc.Import(ctx, tracker.ImportRequest{Tasks: tasks, Replace: replace})
	if err != nil {
		return 0, mapError(err)
	}

	return n, nil
}
