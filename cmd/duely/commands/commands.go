package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"
	"k8s.io/client-go/util/homedir"

	"github.com/slok/duely/internal/app/tracker"
	"github.com/slok/duely/internal/clock"
	"github.com/slok/duely/internal/conventions"
	"github.com/slok/duely/internal/log"
	"github.com/slok/duely/internal/model"
	"github.com/slok/duely/internal/printer"
	"github.com/slok/duely/internal/storage"
	storageio "github.com/slok/duely/internal/storage/io"
	"github.com/slok/duely/internal/storage/jsonfile"
	"github.com/slok/duely/internal/storage/sqlite"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"

	// StorageJSON stores the data on JSON files.
	StorageJSON = "json"
	// StorageSQLite stores the data on a SQLite database.
	StorageSQLite = "sqlite"

	formatTable = "table"
	formatJSON  = "json"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug        bool
	NoLog        bool
	NoColor      bool
	LoggerType   string
	DataDir      string
	Storage      string
	SettingsPath string

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable colors.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)

	defaultDataDir := filepath.Join(homedir.HomeDir(), conventions.DefaultDataDir)
	app.Flag("data-dir", "Directory where the tasks and progress are stored.").Default(defaultDataDir).StringVar(&c.DataDir)
	app.Flag("storage", "Storage backend.").Default(StorageJSON).EnumVar(&c.Storage, StorageJSON, StorageSQLite)
	app.Flag("settings", "Path to a YAML or TOML settings file, by default looked up on the data directory.").StringVar(&c.SettingsPath)

	return c
}

// Tracker is a loaded tracker service bound to its storage.
type Tracker struct {
	*tracker.Service
	close func() error
}

// Close flushes the pending changes and releases the storage. The flush is not
// cancelled with ctx so a terminated command still persists its changes.
func (t *Tracker) Close(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)

	var errs []error
	if err := t.Flush(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := t.close(); err != nil {
		errs = append(errs, fmt.Errorf("could not close storage: %w", err))
	}
	return errors.Join(errs...)
}

// NewTracker loads the settings and the configured storage, and returns a ready
// tracker. It must be closed so pending changes are persisted.
func (c *RootCommand) NewTracker(ctx context.Context) (*Tracker, error) {
	settings, err := c.loadSettings(ctx)
	if err != nil {
		return nil, err
	}

	var repo storage.Repository
	closeRepo := func() error { return nil }
	switch c.Storage {
	case StorageSQLite:
		r, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
			DBPath:   conventions.DBPath(c.DataDir),
			Location: settings.Location,
			Logger:   c.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create repository: %w", err)
		}
		repo, closeRepo = r, r.Close
	default:
		r, err := jsonfile.NewRepository(jsonfile.RepositoryConfig{
			Dir:      c.DataDir,
			Location: settings.Location,
			Logger:   c.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create repository: %w", err)
		}
		repo = r
	}

	svc, err := tracker.NewService(ctx, tracker.ServiceConfig{
		TaskRepository:     repo,
		ProgressRepository: repo,
		Settings:           settings,
		Clock:              clock.Real{},
		Logger:             c.Logger,
	})
	if err != nil {
		_ = closeRepo()
		return nil, fmt.Errorf("could not create tracker: %w", err)
	}

	return &Tracker{Service: svc, close: closeRepo}, nil
}

func (c *RootCommand) loadSettings(ctx context.Context) (model.Settings, error) {
	path := c.SettingsPath
	if path == "" {
		for _, candidate := range conventions.SettingsCandidates(c.DataDir) {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path == "" {
		c.Logger.Debugf("No settings file found, using defaults")
		return model.DefaultSettings(), nil
	}

	path, err := filepath.Abs(path)
	if err != nil {
		return model.Settings{}, fmt.Errorf("could not resolve settings path: %w", err)
	}

	repo := storageio.NewSettingsRepository(os.DirFS(filepath.Dir(path)))
	settings, err := repo.GetSettings(ctx, filepath.Base(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.Settings{}, fmt.Errorf("settings file %s not found: %w", path, model.ErrNotFound)
		}
		return model.Settings{}, fmt.Errorf("could not load settings: %w", err)
	}

	c.Logger.Debugf("Settings loaded from %s", path)
	return settings, nil
}

// NewPrinter returns the printer for an output format.
func (c *RootCommand) NewPrinter(format string) printer.Printer {
	switch format {
	case formatJSON:
		return printer.NewJSONPrinter(c.Stdout)
	default:
		return printer.NewTablePrinter(c.Stdout, !c.NoColor)
	}
}
