package config

import "os"

// PathSource represents where a configured path comes from.
type PathSource string

const (
	PathSourceEnv     PathSource = "env"
	PathSourceConfig  PathSource = "config"
	PathSourceDefault PathSource = "embedded"
)

// PathStatus reports whether a configured input file is usable.
type PathStatus struct {
	Name   string     `json:"name"`
	Path   string     `json:"path,omitempty"`
	Source PathSource `json:"source"`
	Exists bool       `json:"exists"`
}

// CheckPaths returns the status of the data files the pipeline reads.
func CheckPaths(cfg *Config) []PathStatus {
	return []PathStatus{
		checkPath("History", cfg.Data.HistoryPath, EnvPrefix+"_DATA_HISTORY_PATH"),
		checkPath("Override tables", cfg.Data.TablesPath, EnvPrefix+"_DATA_TABLES_PATH"),
	}
}

// checkPath checks if a path is set, where it came from and whether it exists.
func checkPath(name, path, envVar string) PathStatus {
	status := PathStatus{Name: name, Path: path}
	if path == "" {
		// Empty tables path selects the compiled-in defaults.
		status.Source = PathSourceDefault
		status.Exists = true
		return status
	}

	if os.Getenv(envVar) != "" {
		status.Source = PathSourceEnv
	} else {
		status.Source = PathSourceConfig
	}
	if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
		status.Exists = true
	}
	return status
}
