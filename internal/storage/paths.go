// Package storage persists analysis results and command-line preferences in
// a Badger key-value store.
package storage

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "chesssearch"

// GetDataDir returns the platform-specific data directory for the application.
// - macOS: ~/Library/Application Support/chesssearch/
// - Linux: ~/.local/share/chesssearch/
// - Windows: %APPDATA%/chesssearch/
func GetDataDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		baseDir = filepath.Join(homeDir, "Library", "Application Support")

	case "windows":
		baseDir = os.Getenv("APPDATA")
		if baseDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(homeDir, "AppData", "Roaming")
		}

	default:
		// XDG_DATA_HOME wins over ~/.local/share
		baseDir = os.Getenv("XDG_DATA_HOME")
		if baseDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(homeDir, ".local", "share")
		}
	}

	dataDir := filepath.Join(baseDir, appName)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}
	return dataDir, nil
}

// GetDatabaseDir returns the directory holding the Badger database,
// creating it if needed.
func GetDatabaseDir() (string, error) {
	return subDir("db")
}

// GetDiagramDir returns the default output directory for board diagrams.
func GetDiagramDir() (string, error) {
	return subDir("diagrams")
}

func subDir(name string) (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(dataDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}
