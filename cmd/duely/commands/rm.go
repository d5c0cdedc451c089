package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"
)

type RemoveCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	ref string
}

// NewRemoveCommand returns the remove command.
func NewRemoveCommand(rootCmd *RootCommand, app *kingpin.Application) *RemoveCommand {
	c := &RemoveCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("rm", "Remove a task without completing it.")
	c.Cmd.Arg("task", "Task position, ID or ID prefix.").Required().StringVar(&c.ref)

	return c
}

func (c RemoveCommand) Name() string { return c.Cmd.FullCommand() }

func (c RemoveCommand) Run(ctx context.Context) error {
	return withTracker(ctx, c.rootCmd, func(t *Tracker) error {
		task, err := resolveTask(t.View(), c.ref)
		if err != nil {
			return err
		}

		if err := t.Delete(ctx, task.ID); err != nil {
			return fmt.Errorf("could not remove task: %w", err)
		}

		if err := c.rootCmd.NewPrinter(formatTable).PrintMessage(fmt.Sprintf("Removed task: %s", task.Title)); err != nil {
			return fmt.Errorf("could not print message: %w", err)
		}

		return nil
	})
}
