package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/duely/internal/model"
)

type ResetCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	ref string
}

// NewResetCommand returns the reset command.
func NewResetCommand(rootCmd *RootCommand, app *kingpin.Application) *ResetCommand {
	c := &ResetCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("reset", "Move a daily task due tomorrow back to today.")
	c.Cmd.Arg("task", "Task position, ID or ID prefix.").Required().StringVar(&c.ref)

	return c
}

func (c ResetCommand) Name() string { return c.Cmd.FullCommand() }

func (c ResetCommand) Run(ctx context.Context) error {
	return withTracker(ctx, c.rootCmd, func(t *Tracker) error {
		task, err := resolveTask(t.View(), c.ref)
		if err != nil {
			return err
		}

		ok, err := t.ResetDaily(ctx, task.ID)
		if err != nil {
			return fmt.Errorf("could not reset task: %w", err)
		}
		if !ok {
			return fmt.Errorf("task %q is not a daily task due tomorrow: %w", task.Title, model.ErrNotValid)
		}

		if err := c.rootCmd.NewPrinter(formatTable).PrintMessage(fmt.Sprintf("Task due today again: %s", task.Title)); err != nil {
			return fmt.Errorf("could not print message: %w", err)
		}

		return nil
	})
}
