package io

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/slok/duely/internal/model"
)

// SettingsRepository loads the user settings from YAML or TOML files, the format
// is selected by the file extension.
type SettingsRepository struct {
	fs fs.FS
}

// NewSettingsRepository creates a new settings repository.
func NewSettingsRepository(filesystem fs.FS) *SettingsRepository {
	return &SettingsRepository{fs: filesystem}
}

// GetSettings loads the settings file and returns validated settings. Missing
// fields keep their default value.
func (r *SettingsRepository) GetSettings(ctx context.Context, path string) (model.Settings, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return model.Settings{}, fmt.Errorf("reading settings file: %w", err)
	}

	if ctx.Err() != nil {
		return model.Settings{}, ctx.Err()
	}

	var cfg SettingsConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return model.Settings{}, fmt.Errorf("parsing YAML: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return model.Settings{}, fmt.Errorf("parsing TOML: %w", err)
		}
	default:
		return model.Settings{}, fmt.Errorf("unsupported settings format %q: %w", ext, model.ErrNotValid)
	}

	settings, err := cfg.toModel()
	if err != nil {
		return model.Settings{}, fmt.Errorf("invalid settings: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return model.Settings{}, fmt.Errorf("invalid settings: %w", err)
	}

	return settings, nil
}

// SettingsConfig represents the settings file structure.
type SettingsConfig struct {
	// Timezone is an IANA location name, `Local` or empty uses the system one.
	Timezone          string `yaml:"timezone" toml:"timezone"`
	SortOrder         string `yaml:"sort_order" toml:"sort_order"`
	TaskSaveDelay     string `yaml:"task_save_delay" toml:"task_save_delay"`
	ProgressSaveDelay string `yaml:"progress_save_delay" toml:"progress_save_delay"`
}

func (c SettingsConfig) toModel() (model.Settings, error) {
	s := model.DefaultSettings()

	if c.Timezone != "" {
		loc, err := time.LoadLocation(c.Timezone)
		if err != nil {
			return model.Settings{}, fmt.Errorf("timezone %q: %w", c.Timezone, model.ErrNotValid)
		}
		s.Location = loc
	}

	if c.SortOrder != "" {
		s.SortOrder = model.SortOrder(c.SortOrder)
	}

	var err error
	if c.TaskSaveDelay != "" {
		s.TaskSaveDelay, err = time.ParseDuration(c.TaskSaveDelay)
		if err != nil {
			return model.Settings{}, fmt.Errorf("task save delay %q: %w", c.TaskSaveDelay, model.ErrNotValid)
		}
	}
	if c.ProgressSaveDelay != "" {
		s.ProgressSaveDelay, err = time.ParseDuration(c.ProgressSaveDelay)
		if err != nil {
			return model.Settings{}, fmt.Errorf("progress save delay %q: %w", c.ProgressSaveDelay, model.ErrNotValid)
		}
	}

	return s, nil
}
