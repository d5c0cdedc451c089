package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"
)

// NewProgressCommand returns the progress parent command.
func NewProgressCommand(app *kingpin.Application) *kingpin.CmdClause {
	return app.Command("progress", "Manage the daily progress history.")
}

// ProgressListCommand shows the current progress and its history.
type ProgressListCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	days   int
	format string
}

// NewProgressListCommand returns the progress list command.
func NewProgressListCommand(rootCmd *RootCommand, progressCmd *kingpin.CmdClause) *ProgressListCommand {
	c := &ProgressListCommand{rootCmd: rootCmd}

	c.Cmd = progressCmd.Command("list", "Show the progress history.").Default()
	c.Cmd.Flag("days", "Only show the last N days, 0 shows all.").Default("14").IntVar(&c.days)
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)

	return c
}

func (c ProgressListCommand) Name() string { return c.Cmd.FullCommand() }

func (c ProgressListCommand) Run(ctx context.Context) error {
	return withTracker(ctx, c.rootCmd, func(t *Tracker) error {
		history := t.ProgressHistory()
		if c.days > 0 && len(history) > c.days {
			history = history[len(history)-c.days:]
		}

		if err := c.rootCmd.NewPrinter(c.format).PrintProgress(t.Progress(), history); err != nil {
			return fmt.Errorf("could not print progress: %w", err)
		}

		return nil
	})
}

// ProgressClearCommand deletes the progress history.
type ProgressClearCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand
}

// NewProgressClearCommand returns the progress clear command.
func NewProgressClearCommand(rootCmd *RootCommand, progressCmd *kingpin.CmdClause) *ProgressClearCommand {
	c := &ProgressClearCommand{rootCmd: rootCmd}

	c.Cmd = progressCmd.Command("clear", "Delete the whole progress history.")

	return c
}

func (c ProgressClearCommand) Name() string { return c.Cmd.FullCommand() }

func (c ProgressClearCommand) Run(ctx context.Context) error {
	return withTracker(ctx, c.rootCmd, func(t *Tracker) error {
		if err := t.ClearProgress(ctx); err != nil {
			return fmt.Errorf("could not clear progress: %w", err)
		}

		return c.rootCmd.NewPrinter(formatTable).PrintMessage("Progress history cleared")
	})
}
