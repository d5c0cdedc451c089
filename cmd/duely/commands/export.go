package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/alecthomas/kingpin/v2"
	"github.com/moby/sys/atomicwriter"

	"github.com/slok/duely/internal/model"
	"github.com/slok/duely/internal/storage/jsonfile"
)

type ExportCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	output string
}

// NewExportCommand returns the export command.
func NewExportCommand(rootCmd *RootCommand, app *kingpin.Application) *ExportCommand {
	c := &ExportCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("export", "Export the tasks as JSON.")
	c.Cmd.Flag("output", "File to write the tasks to, - writes to stdout.").Short('o').Default("-").StringVar(&c.output)

	return c
}

func (c ExportCommand) Name() string { return c.Cmd.FullCommand() }

func (c ExportCommand) Run(ctx context.Context) error {
	return withTracker(ctx, c.rootCmd, func(t *Tracker) error {
		tasks := t.Tasks()

		if c.output == "-" {
			if err := jsonfile.EncodeTasks(c.rootCmd.Stdout, tasks); err != nil {
				return fmt.Errorf("could not export tasks: %w", err)
			}
			return nil
		}

		// The file is only replaced once the export is complete.
		f, err := atomicwriter.New(c.output, 0o644)
		if err != nil {
			return fmt.Errorf("could not create export file: %w", err)
		}
		if err := exportTo(f, tasks); err != nil {
			return err
		}

		c.rootCmd.Logger.Infof("%d tasks exported", len(tasks))
		return nil
	})
}

func exportTo(w io.WriteCloser, tasks []model.Task) error {
	if err := jsonfile.EncodeTasks(w, tasks); err != nil {
		_ = w.Close()
		return fmt.Errorf("could not export tasks: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("could not write export file: %w", err)
	}
	return nil
}
