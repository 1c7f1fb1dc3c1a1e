package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Entry is one backup file found on disk.
type Entry struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	Runs      int       `json:"runs"`
	Traces    int       `json:"traces"`

	// Damaged is set when the header could not be read. CreatedAt then
	// falls back to the file modification time and the counts are zero.
	Damaged bool `json:"damaged,omitempty"`
}

// Policy selects the backups to keep from entries sorted newest first.
type Policy interface {
	Keep(entries []Entry) []Entry
}

// KeepNewest keeps the N most recent backups.
type KeepNewest struct {
	N int
}

// Keep implements Policy.
func (p KeepNewest) Keep(entries []Entry) []Entry {
	return entries[:min(p.N, len(entries))]
}

// KeepYounger keeps backups created less than Age before Now.
type KeepYounger struct {
	Age time.Duration
	Now func() time.Time // nil means time.Now
}

// Keep implements Policy.
func (p KeepYounger) Keep(entries []Entry) []Entry {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	cutoff := now().Add(-p.Age)

	var keep []Entry
	for _, e := range entries {
		if e.CreatedAt.After(cutoff) {
			keep = append(keep, e)
		}
	}
	return keep
}

// KeepAny keeps a backup when at least one of its policies keeps it.
// The result preserves input order.
type KeepAny []Policy

// Keep implements Policy.
func (p KeepAny) Keep(entries []Entry) []Entry {
	kept := make(map[string]bool, len(entries))
	for _, policy := range p {
		for _, e := range policy.Keep(entries) {
			kept[e.Path] = true
		}
	}
	return slices.DeleteFunc(slices.Clone(entries), func(e Entry) bool {
		return !kept[e.Path]
	})
}

// List returns the backups in dir, newest first. A missing directory
// yields no entries and no error.
func List(dir string) ([]Entry, error) {
	files, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	var entries []Entry
	for _, f := range files {
		if f.IsDir() || !isBackupFile(f.Name()) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		entries = append(entries, describe(filepath.Join(dir, f.Name()), info))
	}

	slices.SortStableFunc(entries, func(a, b Entry) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.Path, a.Path)
	})
	return entries, nil
}

func describe(path string, info os.FileInfo) Entry {
	e := Entry{Path: path, Size: info.Size(), CreatedAt: info.ModTime()}
	h, err := ReadHeader(path)
	if err != nil {
		e.Damaged = true
		return e
	}
	if !h.CreatedAt.IsZero() {
		e.CreatedAt = h.CreatedAt
	}
	e.Runs, e.Traces = h.Runs, h.Traces
	return e
}

// Prune deletes the backups in dir that policy does not keep and returns
// their paths. Damaged backups are left in place for inspection.
func Prune(dir string, policy Policy) ([]string, error) {
	entries, err := List(dir)
	if err != nil {
		return nil, err
	}

	var candidates []Entry
	for _, e := range entries {
		if !e.Damaged {
			candidates = append(candidates, e)
		}
	}

	keep := make(map[string]bool, len(candidates))
	for _, e := range policy.Keep(candidates) {
		keep[e.Path] = true
	}

	var deleted []string
	for _, e := range candidates {
		if keep[e.Path] {
			continue
		}
		if err := os.Remove(e.Path); err != nil {
			return deleted, fmt.Errorf("removing %s: %w", filepath.Base(e.Path), err)
		}
		deleted = append(deleted, e.Path)
	}
	return deleted, nil
}

// ageUnits are the suffixes ParseAge accepts beyond time.ParseDuration.
var ageUnits = map[byte]time.Duration{
	'd': 24 * time.Hour,
	'w': 7 * 24 * time.Hour,
}

// ParseAge parses a retention age such as "36h", "30d" or "2w".
func ParseAge(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty age")
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	unit, ok := ageUnits[s[len(s)-1]]
	if !ok {
		return 0, fmt.Errorf("invalid age %q: use h, d or w", s)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid age %q", s)
	}
	return time.Duration(n) * unit, nil
}
