package lib

import (
	"context"
)

// Progress returns the share of tasks that are not due today.
func (c *Client) Progress(ctx context.Context) Progress {
	return fromInternalProgress(c.svc.Progress())
}

// ProgressHistory returns the recorded progress per day, oldest first. Today's
// entry is kept up to date with every change.
func (c *Client) ProgressHistory(ctx context.Context) ([]ProgressEntry, error) {
	return fromInternalProgressEntries(c.svc.ProgressHistory()), nil
}

// ClearProgress deletes the whole progress history, including the stored one.
func (c *Client) ClearProgress(ctx context.Context) error {
	return mapError(c.svc.ClearProgress(ctx))
}
