package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/duely/internal/model"
)

type ListCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	dueToday bool
	format   string
}

// NewListCommand returns the list command.
func NewListCommand(rootCmd *RootCommand, app *kingpin.Application) *ListCommand {
	c := &ListCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("list", "List the tasks.").Alias("ls")
	c.Cmd.Flag("today", "Only show the tasks due today.").BoolVar(&c.dueToday)
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)

	return c
}

func (c ListCommand) Name() string { return c.Cmd.FullCommand() }

func (c ListCommand) Run(ctx context.Context) error {
	return withTracker(ctx, c.rootCmd, func(t *Tracker) error {
		today := t.Today()

		tasks := t.View()
		if c.dueToday {
			filtered := []model.Task{}
			for _, task := range tasks {
				if task.IsDueOn(today) {
					filtered = append(filtered, task)
				}
			}
			tasks = filtered
		}

		if err := c.rootCmd.NewPrinter(c.format).PrintTasks(tasks, today); err != nil {
			return fmt.Errorf("could not print tasks: %w", err)
		}

		return nil
	})
}
