package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/duely/internal/app/tracker"
	"github.com/slok/duely/internal/storage/jsonfile"
)

type ImportCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	input   string
	replace bool
}

// NewImportCommand returns the import command.
func NewImportCommand(rootCmd *RootCommand, app *kingpin.Application) *ImportCommand {
	c := &ImportCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("import", "Import tasks from a JSON export.")
	c.Cmd.Arg("file", "File to read the tasks from, - reads from stdin.").Required().StringVar(&c.input)
	c.Cmd.Flag("replace", "Replace the current tasks instead of appending.").BoolVar(&c.replace)

	return c
}

func (c ImportCommand) Name() string { return c.Cmd.FullCommand() }

func (c ImportCommand) Run(ctx context.Context) error {
	var r io.Reader = c.rootCmd.Stdin
	if c.input != "-" {
		f, err := os.Open(c.input)
		if err != nil {
			return fmt.Errorf("could not open import file: %w", err)
		}
		defer f.Close()
		r = f
	}

	return withTracker(ctx, c.rootCmd, func(t *Tracker) error {
		tasks, warnings, err := jsonfile.DecodeTasks(r, t.Settings().Location)
		if err != nil {
			return fmt.Errorf("could not read tasks: %w", err)
		}
		for _, w := range warnings {
			c.rootCmd.Logger.Warningf("Skipping task: %s", w)
		}

		n, err := t.Import(ctx, tracker.ImportRequest{Tasks: tasks, Replace: c.replace})
		if err != nil {
			return fmt.Errorf("could not import tasks: %w", err)
		}

		return c.rootCmd.NewPrinter(formatTable).PrintMessage(fmt.Sprintf("Imported %d tasks", n))
	})
}
