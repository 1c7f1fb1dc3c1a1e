package backup

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nvandessel/cable/internal/sections"
	"github.com/nvandessel/cable/internal/store"
)

var fixedTime = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func sampleRun(source string, created time.Time) store.RunRecord {
	return store.RunRecord{
		Source:     source,
		Nodes:      2,
		Resolution: 1,
		Ra:         35.4,
		Cm:         1,
		Duration:   0.025,
		VInit:      -65,
		Dt:         0.025,
		Sections: []sections.Geometry{{
			Index: 0, Name: "segment_0", Length: 1, Diameter: 2, NSeg: 1,
			Parent: sections.NoParent, Nodes: []int64{1, 2},
		}},
		Time: []float64{0, 0.025},
		Traces: []store.TraceRecord{
			{Key: "2", Node: 2, Variable: "v", Section: 0, Pos: 1, Values: []float64{-65, -64.5}},
		},
		CreatedAt: created,
	}
}

func seededStore(t *testing.T, n int) *store.InMemoryResultStore {
	t.Helper()
	s := store.NewInMemoryResultStore()
	for i := 0; i < n; i++ {
		run := sampleRun("neuron.swc", fixedTime.Add(time.Duration(i)*time.Minute))
		if _, err := s.SaveRun(context.Background(), run); err != nil {
			t.Fatalf("SaveRun() error = %v", err)
		}
	}
	return s
}

func TestBackupRestore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := seededStore(t, 3)
	path := GenerateBackupPath(t.TempDir(), fixedTime)

	header, err := Backup(ctx, src, path, fixedTime)
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	if header.Runs != 3 || header.Traces != 3 {
		t.Errorf("header = %+v, want 3 runs and 3 traces", header)
	}
	if !strings.HasPrefix(header.Checksum, "sha256:") {
		t.Errorf("checksum = %q", header.Checksum)
	}

	dst := store.NewInMemoryResultStore()
	result, err := Restore(ctx, dst, path)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if result.Restored != 3 || result.Skipped != 0 {
		t.Errorf("result = %+v, want 3 restored", result)
	}

	want, _ := src.ListRuns(ctx)
	got, _ := dst.ListRuns(ctx)
	if len(got) != len(want) {
		t.Fatalf("restored %d runs, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i].ID {
			t.Errorf("run %d id = %s, want %s", i, got[i].ID, want[i].ID)
		}
	}

	run, err := dst.GetRun(ctx, want[0].ID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if v := run.Traces[0].Values; len(v) != 2 || v[1] != -64.5 {
		t.Errorf("restored samples = %v", v)
	}
}

func TestRestore_SkipsExisting(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t, 2)
	path := filepath.Join(t.TempDir(), "b.bak")

	if _, err := Backup(ctx, s, path, fixedTime); err != nil {
		t.Fatalf("Backup() error = %v", err)
	}

	result, err := Restore(ctx, s, path)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if result.Restored != 0 || result.Skipped != 2 {
		t.Errorf("result = %+v, want 2 skipped", result)
	}
}

func TestBackup_EmptyStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "empty.bak")

	header, err := Backup(ctx, store.NewInMemoryResultStore(), path, fixedTime)
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	if header.Runs != 0 {
		t.Errorf("header.Runs = %d, want 0", header.Runs)
	}

	snap, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(snap.Runs) != 0 || !snap.CreatedAt.Equal(fixedTime) {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestGenerateBackupPath(t *testing.T) {
	path := GenerateBackupPath("/backups", fixedTime)
	if filepath.Base(path) != "cable-backup-20260314-092653.bak" {
		t.Errorf("GenerateBackupPath() = %s", path)
	}
	if !isBackupFile(filepath.Base(path)) {
		t.Error("generated name should be recognized as a backup file")
	}
}

func TestDefaultBackupDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	dir, err := DefaultBackupDir()
	if err != nil {
		t.Fatalf("DefaultBackupDir() error = %v", err)
	}
	if dir != filepath.Join(home, ".cable", "backups") {
		t.Errorf("DefaultBackupDir() = %s", dir)
	}
}
