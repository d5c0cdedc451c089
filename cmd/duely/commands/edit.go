package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/duely/internal/model"
)

type EditCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	ref      string
	title    string
	schedule scheduleFlags
	noDate   bool
	format   string
}

// NewEditCommand returns the edit command.
func NewEditCommand(rootCmd *RootCommand, app *kingpin.Application) *EditCommand {
	c := &EditCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("edit", "Edit a task.")
	c.Cmd.Arg("task", "Task position, ID or ID prefix.").Required().StringVar(&c.ref)
	c.Cmd.Flag("title", "New task title.").StringVar(&c.title)
	c.schedule.register(c.Cmd)
	c.Cmd.Flag("no-date", "Remove the due date and the repetition of the task.").BoolVar(&c.noDate)
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)

	return c
}

func (c EditCommand) Name() string { return c.Cmd.FullCommand() }

func (c EditCommand) Run(ctx context.Context) error {
	if c.noDate && c.schedule.set() {
		return fmt.Errorf("--no-date can't be used with schedule flags: %w", model.ErrNotValid)
	}

	return withTracker(ctx, c.rootCmd, func(t *Tracker) error {
		task, err := resolveTask(t.View(), c.ref)
		if err != nil {
			return err
		}

		today := t.Today()
		if c.title != "" {
			task.Title = strings.TrimSpace(c.title)
		}
		if c.noDate {
			task.TimeType = model.TimeTypeNone
		}
		if err := c.schedule.apply(&task, today); err != nil {
			return err
		}

		task, err = t.Update(ctx, task)
		if err != nil {
			return fmt.Errorf("could not update task: %w", err)
		}

		if err := c.rootCmd.NewPrinter(c.format).PrintTask(task, today); err != nil {
			return fmt.Errorf("could not print task: %w", err)
		}

		return nil
	})
}
