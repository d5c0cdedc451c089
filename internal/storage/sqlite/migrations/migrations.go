// Package migrations holds the schema of the tracker database.
//
// Schema versions:
//   - 1: the tasks table. The stored list order lives on the position column,
//     repetition_weekday is the Go weekday number (0 is sunday).
//   - 2: the daily_progress table, one row per calendar date.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/slok/duely/internal/log"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

// LatestVersion is the schema version of the last embedded migration.
const LatestVersion = 2

// ErrNewerSchema is returned when the database was migrated by a newer release
// of the tracker, its tables can't be trusted by this one.
var ErrNewerSchema = errors.New("database schema is newer than supported")

// Migrator keeps the tracker tables on the embedded schema.
type Migrator struct {
	db     *sql.DB
	logger log.Logger
}

// NewMigrator creates a new migrator for the tracker database.
func NewMigrator(db *sql.DB, logger log.Logger) (*Migrator, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if logger == nil {
		logger = log.Noop
	}

	return &Migrator{
		db:     db,
		logger: logger.WithValues(log.Kv{"svc": "tracker.Migrator"}),
	}, nil
}

// Up brings the tasks and daily_progress tables to LatestVersion. A database on
// a newer version is refused with ErrNewerSchema and left untouched.
func (m *Migrator) Up(ctx context.Context) error {
	inst, close, err := m.instance(ctx)
	defer close()
	if err != nil {
		return err
	}

	current, _, err := version(inst)
	if err != nil {
		return err
	}
	if current > LatestVersion {
		return fmt.Errorf("schema version %d, latest known is %d: %w", current, LatestVersion, ErrNewerSchema)
	}

	err = inst.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	current, dirty, err := version(inst)
	if err != nil {
		return err
	}
	if dirty {
		return fmt.Errorf("schema version %d is dirty", current)
	}

	if current < LatestVersion {
		m.logger.Warningf("Schema at version %d, expected %d", current, LatestVersion)
	} else {
		m.logger.Debugf("Schema at version %d", current)
	}
	return nil
}

// Down drops the tracker tables, stored tasks and progress are lost.
func (m *Migrator) Down(ctx context.Context) error {
	inst, close, err := m.instance(ctx)
	defer close()
	if err != nil {
		return err
	}

	err = inst.Down()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not revert migrations: %w", err)
	}

	m.logger.Debugf("Tracker tables dropped")
	return nil
}

// Version returns the current schema version, 0 on a database never migrated.
func (m *Migrator) Version(ctx context.Context) (v uint, dirty bool, err error) {
	inst, close, err := m.instance(ctx)
	defer close()
	if err != nil {
		return 0, false, err
	}

	return version(inst)
}

func version(inst *migrate.Migrate) (uint, bool, error) {
	v, dirty, err := inst.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("could not get schema version: %w", err)
	}
	return v, dirty, nil
}

func (m *Migrator) instance(ctx context.Context) (instance *migrate.Migrate, close func(), err error) {
	close = func() {}

	driver, err := sqlite3.WithInstance(m.db, &sqlite3.Config{})
	if err != nil {
		return nil, close, fmt.Errorf("could not create driver: %w", err)
	}

	src, err := iofs.New(migrationFiles, "sql")
	if err != nil {
		return nil, close, fmt.Errorf("could not open embedded migrations: %w", err)
	}
	close = func() {
		if err := src.Close(); err != nil {
			m.logger.Errorf("could not close embedded migrations: %s", err)
		}
	}

	instance, err = migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return nil, close, fmt.Errorf("could not create migration instance: %w", err)
	}

	return instance, close, nil
}
