package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// DBFileName is the database file inside the cable directory.
const DBFileName = "cable.db"

// GlobalCablePath returns the path to the global .cable directory.
// On Unix: ~/.cable
// On Windows: %USERPROFILE%\.cable
func GlobalCablePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".cable"), nil
}

// DefaultDBPath returns ~/.cable/cable.db.
func DefaultDBPath() (string, error) {
	dir, err := GlobalCablePath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DBFileName), nil
}

// EnsureGlobalCableDir creates the global .cable directory if it doesn't exist.
// Returns nil if the directory already exists or was successfully created.
func EnsureGlobalCableDir() error {
	globalPath, err := GlobalCablePath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(globalPath, 0755); err != nil {
		return fmt.Errorf("failed to create global .cable directory: %w", err)
	}

	return nil
}
