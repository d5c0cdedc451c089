package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/slok/duely/internal/log"
	"github.com/slok/duely/internal/model"
	"github.com/slok/duely/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	DBPath string
	// Location is used to parse the persisted calendar dates.
	Location *time.Location
	Logger   log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.Repository.
type Repository struct {
	db     *sql.DB
	loc    *time.Location
	logger log.Logger
}

// NewRepository creates a new SQLite repository.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	migrator, err := migrations.NewMigrator(db, cfg.Logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	if err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite repository initialized at %s", cfg.DBPath)

	return &Repository{db: db, loc: cfg.Location, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

// LoadTasks returns the task list ordered by position. Malformed rows are skipped,
// unreadable tables load as an empty list.
func (r *Repository) LoadTasks(ctx context.Context) ([]model.Task, error) {
	query := `
		SELECT
			id, title, time_type,
			due_date, repetition_rule, repetition_weekday,
			position
		FROM tasks
		ORDER BY position ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Warningf("Ignoring unreadable tasks table: %s", err)
		return []model.Task{}, nil
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := r.scanTask(rows)
		if err != nil {
			r.logger.Warningf("Skipping invalid task row: %s", err)
			continue
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		r.logger.Warningf("Ignoring unreadable tasks table: %s", err)
		return []model.Task{}, nil
	}

	return tasks, nil
}

// SaveTasks replaces the stored task list. An empty list deletes every task row.
func (r *Repository) SaveTasks(ctx context.Context, tasks []model.Task) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("could not delete tasks: %w", err)
	}

	query := `
		INSERT INTO tasks (
			id, title, time_type,
			due_date, repetition_rule, repetition_weekday,
			position
		)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("could not prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range tasks {
		var dueDate, rule sql.NullString
		var weekday sql.NullInt64
		if t.DueDate != nil {
			dueDate = sql.NullString{String: t.DueDate.Format(model.DateLayout), Valid: true}
		}
		if t.RepetitionRule != nil {
			rule = sql.NullString{String: string(*t.RepetitionRule), Valid: true}
		}
		if t.RepetitionWeekday != nil {
			weekday = sql.NullInt64{Int64: int64(*t.RepetitionWeekday), Valid: true}
		}

		_, err := stmt.ExecContext(ctx, t.ID, t.Title, string(t.TimeType), dueDate, rule, weekday, t.Order)
		if err != nil {
			return fmt.Errorf("could not insert task %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit tasks: %w", err)
	}

	r.logger.Debugf("Saved %d tasks", len(tasks))
	return nil
}

// LoadProgress returns the progress history ordered by date.
func (r *Repository) LoadProgress(ctx context.Context) ([]model.DailyProgressEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT date, percent_completed FROM daily_progress ORDER BY date ASC`)
	if err != nil {
		r.logger.Warningf("Ignoring unreadable progress table: %s", err)
		return []model.DailyProgressEntry{}, nil
	}
	defer rows.Close()

	entries := []model.DailyProgressEntry{}
	for rows.Next() {
		var date string
		var percent float64
		if err := rows.Scan(&date, &percent); err != nil {
			r.logger.Warningf("Skipping invalid progress row: %s", err)
			continue
		}

		d, err := model.ParseDate(date, r.loc)
		if err != nil {
			r.logger.Warningf("Skipping invalid progress row %q: %s", date, err)
			continue
		}
		e := model.DailyProgressEntry{Date: d, PercentCompleted: percent}
		if err := e.Validate(); err != nil {
			r.logger.Warningf("Skipping invalid progress row %q: %s", date, err)
			continue
		}
		entries = model.UpsertProgress(entries, e)
	}

	if err := rows.Err(); err != nil {
		r.logger.Warningf("Ignoring unreadable progress table: %s", err)
		return []model.DailyProgressEntry{}, nil
	}

	return entries, nil
}

// SaveProgress replaces the stored progress history.
func (r *Repository) SaveProgress(ctx context.Context, entries []model.DailyProgressEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM daily_progress`); err != nil {
		return fmt.Errorf("could not delete progress: %w", err)
	}

	for _, e := range entries {
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO daily_progress (date, percent_completed) VALUES (?, ?)`,
			e.Date.Format(model.DateLayout), e.PercentCompleted,
		)
		if err != nil {
			return fmt.Errorf("could not insert progress entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit progress: %w", err)
	}

	r.logger.Debugf("Saved %d progress entries", len(entries))
	return nil
}

// ClearProgress deletes the whole progress history.
func (r *Repository) ClearProgress(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM daily_progress`); err != nil {
		return fmt.Errorf("could not clear progress: %w", err)
	}

	r.logger.Debugf("Cleared progress history")
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanTask(s scanner) (model.Task, error) {
	var t model.Task
	var timeType string
	var dueDate, rule sql.NullString
	var weekday sql.NullInt64

	err := s.Scan(&t.ID, &t.Title, &timeType, &dueDate, &rule, &weekday, &t.Order)
	if err != nil {
		return model.Task{}, err
	}
	t.TimeType = model.TimeType(timeType)

	if dueDate.Valid && dueDate.String != "" {
		d, err := model.ParseDate(dueDate.String, r.loc)
		if err != nil {
			return model.Task{}, fmt.Errorf("task %s due date %q: %w", t.ID, dueDate.String, model.ErrNotValid)
		}
		t.DueDate = &d
	}
	if rule.Valid && rule.String != "" {
		rr := model.RepetitionRule(rule.String)
		t.RepetitionRule = &rr
	}
	if weekday.Valid {
		wd := time.Weekday(weekday.Int64)
		t.RepetitionWeekday = &wd
	}

	// Unknown rules and weekdays are kept out of validation, scheduling falls back on them.
	t.DropStrayRepetition()
	if err := t.ValidateStored(); err != nil {
		return model.Task{}, fmt.Errorf("task %s: %w", t.ID, err)
	}

	return t, nil
}
