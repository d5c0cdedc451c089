package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"
)

type MoveCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	ref      string
	position int
}

// NewMoveCommand returns the move command.
func NewMoveCommand(rootCmd *RootCommand, app *kingpin.Application) *MoveCommand {
	c := &MoveCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("mv", "Move a task to another position of the list.")
	c.Cmd.Arg("task", "Task position, ID or ID prefix.").Required().StringVar(&c.ref)
	c.Cmd.Arg("position", "New position, 0 is the top of the list.").Required().IntVar(&c.position)

	return c
}

func (c MoveCommand) Name() string { return c.Cmd.FullCommand() }

func (c MoveCommand) Run(ctx context.Context) error {
	return withTracker(ctx, c.rootCmd, func(t *Tracker) error {
		// Moves always work on the manual order, whatever the sort setting.
		task, err := resolveTask(t.Tasks(), c.ref)
		if err != nil {
			return err
		}

		if err := t.Move(ctx, task.ID, c.position); err != nil {
			return fmt.Errorf("could not move task: %w", err)
		}

		return c.rootCmd.NewPrinter(formatTable).PrintTasks(t.Tasks(), t.Today())
	})
}
