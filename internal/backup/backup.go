// Package backup writes and restores compressed snapshots of the run store.
package backup

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/nvandessel/cable/internal/store"
)

// Backup file names are "cable-backup-<timestamp>.bak"; the timestamp sorts
// lexically.
const (
	filePrefix      = "cable-backup-"
	fileExt         = ".bak"
	timestampLayout = "20060102-150405"
)

// Snapshot is the payload of a backup file: every stored run with samples.
type Snapshot struct {
	CreatedAt time.Time         `json:"created_at"`
	Runs      []store.RunRecord `json:"runs"`
}

// DefaultBackupDir returns the default backup directory (~/.cable/backups/).
func DefaultBackupDir() (string, error) {
	base, err := store.GlobalCablePath()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "backups"), nil
}

// GenerateBackupPath creates a timestamped backup filename in dir.
func GenerateBackupPath(dir string, now time.Time) string {
	return filepath.Join(dir, filePrefix+now.UTC().Format(timestampLayout)+fileExt)
}

func isBackupFile(name string) bool {
	return strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileExt)
}

// Backup writes every run in s to path.
func Backup(ctx context.Context, s store.ResultStore, path string, now time.Time) (*Header, error) {
	summaries, err := s.ListRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	snap := &Snapshot{CreatedAt: now.UTC(), Runs: make([]store.RunRecord, 0, len(summaries))}
	for _, sum := range summaries {
		run, err := s.GetRun(ctx, sum.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to read run %s: %w", sum.ID, err)
		}
		snap.Runs = append(snap.Runs, *run)
	}

	return Write(path, snap)
}

// RestoreResult contains statistics about a restore.
type RestoreResult struct {
	Restored int `json:"restored"`
	Skipped  int `json:"skipped"`
}

// Restore saves every run of the backup at path into s. Runs whose id is
// already stored are skipped.
func Restore(ctx context.Context, s store.ResultStore, path string) (*RestoreResult, error) {
	snap, err := Read(path)
	if err != nil {
		return nil, err
	}

	result := &RestoreResult{}
	for _, run := range snap.Runs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		_, err := s.GetRun(ctx, run.ID)
		if err == nil {
			result.Skipped++
			continue
		}
		if !errors.Is(err, store.ErrRunNotFound) {
			return result, fmt.Errorf("failed to check run %s: %w", run.ID, err)
		}
		if _, err := s.SaveRun(ctx, run); err != nil {
			return result, fmt.Errorf("failed to restore run %s: %w", run.ID, err)
		}
		result.Restored++
	}

	return result, nil
}
