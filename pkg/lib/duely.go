package lib

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/slok/duely/internal/app/tracker"
	"github.com/slok/duely/internal/clock"
	"github.com/slok/duely/internal/conventions"
	"github.com/slok/duely/internal/log"
	"github.com/slok/duely/internal/model"
	"github.com/slok/duely/internal/storage"
	"github.com/slok/duely/internal/storage/jsonfile"
	"github.com/slok/duely/internal/storage/memory"
	"github.com/slok/duely/internal/storage/sqlite"
)

// Config configures the SDK client.
//
// All fields are optional and have sensible defaults. At minimum, an empty
// Config{} will use the JSON files on ~/.duely with the default settings.
type Config struct {
	// DataDir is the directory where tasks and progress are stored.
	// Default: ~/.duely.
	DataDir string

	// Storage selects the storage backend.
	// Default: [StorageJSON].
	Storage StorageType

	// Settings are the tracker settings. Nil or unset fields use the defaults
	// (local time zone, manual order, 500ms/2s save delays).
	Settings *Settings

	// Logger receives structured log output from the SDK.
	// Default: noop (silent). See the log sub-package for the interface.
	Logger log.Logger

	// Now returns the current time, dates are derived from it.
	// Default: time.Now.
	Now func() time.Time

	// OnChange is called once per successful change, after it has been applied.
	// It must not call the client. Optional.
	OnChange func(Change)
}

func (c *Config) defaults() error {
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("could not get user home dir: %w", err)
		}
		c.DataDir = filepath.Join(home, conventions.DefaultDataDir)
	}

	if c.Storage == "" {
		c.Storage = StorageJSON
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Client is the main SDK entry point for managing tasks programmatically.
//
// Create a Client with [New] and release its resources with [Client.Close].
// A Client is safe for concurrent use.
type Client struct {
	svc     *tracker.Service
	logger  log.Logger
	closeFn func() error
}

// New creates a new SDK client, loading the stored tasks and progress. Repeating
// tasks whose due date is in the past are moved to their next occurrence.
//
// The caller must call [Client.Close] when done so pending changes are
// persisted. Typically used with defer:
//
//	client, err := lib.New(ctx, lib.Config{})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	settings := model.DefaultSettings()
	if cfg.Settings != nil {
		settings = toInternalSettings(*cfg.Settings).WithDefaults()
	}
	if err := settings.Validate(); err != nil {
		return nil, mapError(fmt.Errorf("invalid settings: %w", err))
	}

	repo, closeFn, err := newRepository(ctx, cfg, settings.Location)
	if err != nil {
		return nil, mapError(err)
	}

	var clk clock.Clock = clock.Real{}
	if cfg.Now != nil {
		clk = clockFunc(cfg.Now)
	}

	var listener tracker.Listener
	if cfg.OnChange != nil {
		listener = tracker.ListenerFunc(func(ev tracker.Event) {
			cfg.OnChange(fromInternalEvent(ev))
		})
	}

	svc, err := tracker.NewService(ctx, tracker.ServiceConfig{
		TaskRepository:     repo,
		ProgressRepository: repo,
		Settings:           settings,
		Clock:              clk,
		Listener:           listener,
		Logger:             cfg.Logger,
	})
	if err != nil {
		_ = closeFn()
		return nil, mapError(fmt.Errorf("could not create tracker: %w", err))
	}

	return &Client{
		svc:     svc,
		logger:  cfg.Logger,
		closeFn: closeFn,
	}, nil
}

func newRepository(ctx context.Context, cfg Config, loc *time.Location) (storage.Repository, func() error, error) {
	noClose := func() error { return nil }

	switch cfg.Storage {
	case StorageJSON:
		repo, err := jsonfile.NewRepository(jsonfile.RepositoryConfig{
			Dir:      cfg.DataDir,
			Location: loc,
			Logger:   cfg.Logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("could not create repository: %w", err)
		}
		return repo, noClose, nil
	case StorageSQLite:
		repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
			DBPath:   conventions.DBPath(cfg.DataDir),
			Location: loc,
			Logger:   cfg.Logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("could not create repository: %w", err)
		}
		return repo, repo.Close, nil
	case StorageMemory:
		repo, err := memory.NewRepository(memory.RepositoryConfig{Logger: cfg.Logger})
		if err != nil {
			return nil, nil, fmt.Errorf("could not create repository: %w", err)
		}
		return repo, noClose, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage type: %s: %w", cfg.Storage, ErrNotValid)
	}
}

// Flush persists the pending changes now, waiting for any write in progress.
func (c *Client) Flush(ctx context.Context) error {
	return c.svc.Flush(ctx)
}

// Close persists the pending changes and releases the storage.
// After Close returns, the client must not be used.
func (c *Client) Close() error {
	flushErr := c.svc.Flush(context.Background())

	if c.closeFn != nil {
		if err := c.closeFn(); err != nil {
			return fmt.Errorf("could not close storage: %w", err)
		}
	}

	return flushErr
}

type clockFunc func() time.Time

func (f clockFunc) Now() time.Time { return f() }
