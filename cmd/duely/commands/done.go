package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/duely/internal/model"
	"github.com/slok/duely/internal/recurrence"
)

type DoneCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	ref string
}

// NewDoneCommand returns the done command.
func NewDoneCommand(rootCmd *RootCommand, app *kingpin.Application) *DoneCommand {
	c := &DoneCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("done", "Complete a task, repeating tasks move to their next occurrence.")
	c.Cmd.Arg("task", "Task position, ID or ID prefix.").Required().StringVar(&c.ref)

	return c
}

func (c DoneCommand) Name() string { return c.Cmd.FullCommand() }

func (c DoneCommand) Run(ctx context.Context) error {
	return withTracker(ctx, c.rootCmd, func(t *Tracker) error {
		task, err := resolveTask(t.View(), c.ref)
		if err != nil {
			return err
		}

		outcome, err := t.MarkDone(ctx, task.ID)
		if err != nil {
			return fmt.Errorf("could not complete task: %w", err)
		}

		msg := fmt.Sprintf("Completed task: %s", task.Title)
		if outcome == recurrence.OutcomeUpdated {
			next, err := t.Task(task.ID)
			if err != nil {
				return fmt.Errorf("could not get task: %w", err)
			}
			msg = fmt.Sprintf("Completed task: %s (next on %s)", task.Title, next.DueDate.Format(model.DateLayout))
		}

		p := c.rootCmd.NewPrinter(formatTable)
		if err := p.PrintMessage(msg); err != nil {
			return fmt.Errorf("could not print message: %w", err)
		}

		return nil
	})
}
