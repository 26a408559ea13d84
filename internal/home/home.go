// Package home locates syncread's on-disk working directory: persisted
// config, the blob store root, and per-session scratch space for audio
// chunks.
package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the syncread home directory.
	DefaultDirName = ".syncread"

	// DataDirName is the subdirectory the blob store keeps its objects in.
	DataDirName = "data"

	// WorkDirName is the subdirectory holding transient per-session
	// working files (extracted audio chunks awaiting transcription).
	WorkDirName = "work"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir represents the syncread home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.syncread).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// DataPath returns the path to the blob store's data directory.
func (d *Dir) DataPath() string {
	return filepath.Join(d.path, DataDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// SessionWorkDir returns the scratch directory a sync session's audio
// chunker writes into. Callers are responsible for removing it once the
// session's transcription step finishes with a chunk, and for removing
// the whole directory when the session reaches a terminal state.
func (d *Dir) SessionWorkDir(sessionID string) string {
	return filepath.Join(d.path, WorkDirName, sessionID)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	if err := os.MkdirAll(d.DataPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(d.path, WorkDirName), 0o755); err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}
	return nil
}

// EnsureSessionWorkDir creates (and returns) the scratch directory for a
// given sync session.
func (d *Dir) EnsureSessionWorkDir(sessionID string) (string, error) {
	dir := d.SessionWorkDir(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create session work directory: %w", err)
	}
	return dir, nil
}

// RemoveSessionWorkDir removes a session's scratch directory and
// everything in it.
func (d *Dir) RemoveSessionWorkDir(sessionID string) error {
	return os.RemoveAll(d.SessionWorkDir(sessionID))
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
