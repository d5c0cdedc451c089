package conventions

import "path/filepath"

const (
	// DefaultDataDir is the default duely data directory name (relative to home).
	DefaultDataDir = ".duely"

	// DBFile is the SQLite database filename.
	DBFile = "duely.db"

	// Settings files, looked up in order on the data directory when no
	// settings file is set explicitly.

	// SettingsYAMLFile is the YAML settings filename.
	SettingsYAMLFile = "settings.yaml"
	// SettingsTOMLFile is the TOML settings filename.
	SettingsTOMLFile = "settings.toml"
)

// DBPath returns the path of the SQLite database inside a data directory.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, DBFile)
}

// SettingsCandidates returns the settings file paths looked up on a data directory.
func SettingsCandidates(dataDir string) []string {
	return []string{
		filepath.Join(dataDir, SettingsYAMLFile),
		filepath.Join(dataDir, SettingsTOMLFile),
	}
}
