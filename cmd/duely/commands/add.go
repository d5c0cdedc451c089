package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/duely/internal/app/tracker"
	"github.com/slok/duely/internal/model"
)

type AddCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	title    []string
	schedule scheduleFlags
	format   string
}

// NewAddCommand returns the add command.
func NewAddCommand(rootCmd *RootCommand, app *kingpin.Application) *AddCommand {
	c := &AddCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("add", "Add a task at the end of the list.")
	c.Cmd.Arg("title", "Task title.").Required().StringsVar(&c.title)
	c.schedule.register(c.Cmd)
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)

	return c
}

func (c AddCommand) Name() string { return c.Cmd.FullCommand() }

func (c AddCommand) Run(ctx context.Context) error {
	return withTracker(ctx, c.rootCmd, func(t *Tracker) error {
		today := t.Today()

		draft := model.Task{TimeType: model.TimeTypeNone}
		if err := c.schedule.apply(&draft, today); err != nil {
			return err
		}

		task, err := t.Add(ctx, tracker.AddRequest{
			Title:             strings.Join(c.title, " "),
			TimeType:          draft.TimeType,
			DueDate:           draft.DueDate,
			RepetitionRule:    draft.RepetitionRule,
			RepetitionWeekday: draft.RepetitionWeekday,
		})
		if err != nil {
			return fmt.Errorf("could not add task: %w", err)
		}

		if err := c.rootCmd.NewPrinter(c.format).PrintTask(task, today); err != nil {
			return fmt.Errorf("could not print task: %w", err)
		}

		return nil
	})
}
