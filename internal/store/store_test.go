package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/nvandessel/cable/internal/sections"
)

func sampleRun(source string, created time.Time) RunRecord {
	return RunRecord{
		Source:     source,
		ModelID:    "3f1c2a9e-0d4b-4c55-9b7e-2a6d8f0c1e47",
		Nodes:      3,
		Resolution: 1,
		Ra:         35.4,
		Cm:         1,
		Duration:   0.05,
		VInit:      -65,
		Dt:         0.025,
		Sections: []sections.Geometry{{
			Index: 0, Name: "segment_0", Length: 2, Diameter: 2, NSeg: 3,
			Parent: sections.NoParent, Nodes: []int64{1, 2, 3},
		}},
		Time: []float64{0, 0.025, 0.05},
		Traces: []TraceRecord{
			{Key: "soma", Node: 1, Label: "soma", Variable: "v", Section: 0, Pos: 0, Values: []float64{-65, -65, -65}},
			{Key: "3", Node: 3, Variable: "i", Section: 0, Pos: 1, Values: []float64{0, 0, 0}},
		},
		CreatedAt: created,
	}
}

// resultStores returns one fresh instance of every ResultStore implementation.
func resultStores(t *testing.T) map[string]ResultStore {
	t.Helper()
	sq, err := NewSQLiteResultStore(filepath.Join(t.TempDir(), "runs", DBFileName))
	if err != nil {
		t.Fatalf("NewSQLiteResultStore() error = %v", err)
	}
	t.Cleanup(func() { sq.Close() })

	return map[string]ResultStore{
		"memory": NewInMemoryResultStore(),
		"sqlite": sq,
	}
}

func TestResultStore_SaveGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)

	for name, s := range resultStores(t) {
		t.Run(name, func(t *testing.T) {
			want := sampleRun("y.swc", created)
			id, err := s.SaveRun(ctx, want)
			if err != nil {
				t.Fatalf("SaveRun() error = %v", err)
			}
			if id == "" {
				t.Fatal("SaveRun() returned empty id")
			}

			got, err := s.GetRun(ctx, id)
			if err != nil {
				t.Fatalf("GetRun() error = %v", err)
			}
			if got.ID != id || got.Source != "y.swc" || got.Nodes != 3 {
				t.Errorf("GetRun() = %+v", got)
			}
			if !got.CreatedAt.Equal(created) {
				t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
			}
			if len(got.Sections) != 1 || got.Sections[0].NSeg != 3 || len(got.Sections[0].Nodes) != 3 {
				t.Errorf("Sections = %+v", got.Sections)
			}
			if len(got.Time) != 3 || got.Time[2] != 0.05 {
				t.Errorf("Time = %v", got.Time)
			}
			if len(got.Traces) != 2 {
				t.Fatalf("Traces = %d, want 2", len(got.Traces))
			}
			if got.Traces[0].Label != "soma" || got.Traces[0].Values[0] != -65 {
				t.Errorf("Traces[0] = %+v", got.Traces[0])
			}
			if got.Traces[1].Label != "" || got.Traces[1].Key != "3" || got.Traces[1].Pos != 1 {
				t.Errorf("Traces[1] = %+v", got.Traces[1])
			}

			want.ID = id
			if diff := cmp.Diff(want, *got); diff != "" {
				t.Errorf("GetRun() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResultStore_DuplicateID(t *testing.T) {
	ctx := context.Background()
	for name, s := range resultStores(t) {
		t.Run(name, func(t *testing.T) {
			run := sampleRun("a", time.Now())
			run.ID = "run-fixed"
			if _, err := s.SaveRun(ctx, run); err != nil {
				t.Fatalf("SaveRun() error = %v", err)
			}
			if _, err := s.SaveRun(ctx, run); err == nil {
				t.Error("second SaveRun() with the same id should fail")
			}
		})
	}
}

func TestResultStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for name, s := range resultStores(t) {
		t.Run(name, func(t *testing.T) {
			for i, src := range []string{"first", "second", "third"} {
				if _, err := s.SaveRun(ctx, sampleRun(src, base.Add(time.Duration(i)*time.Hour))); err != nil {
					t.Fatalf("SaveRun(%s) error = %v", src, err)
				}
			}

			got, err := s.ListRuns(ctx)
			if err != nil {
				t.Fatalf("ListRuns() error = %v", err)
			}
			if len(got) != 3 {
				t.Fatalf("ListRuns() = %d runs, want 3", len(got))
			}
			order := []string{got[0].Source, got[1].Source, got[2].Source}
			if order[0] != "third" || order[1] != "second" || order[2] != "first" {
				t.Errorf("order = %v, want [third second first]", order)
			}
			if got[0].Traces != 2 || got[0].Sections != 1 {
				t.Errorf("summary = %+v", got[0])
			}
		})
	}
}

func TestResultStore_Delete(t *testing.T) {
	ctx := context.Background()
	for name, s := range resultStores(t) {
		t.Run(name, func(t *testing.T) {
			id, err := s.SaveRun(ctx, sampleRun("gone", time.Now()))
			if err != nil {
				t.Fatalf("SaveRun() error = %v", err)
			}
			if err := s.DeleteRun(ctx, id); err != nil {
				t.Fatalf("DeleteRun() error = %v", err)
			}
			if _, err := s.GetRun(ctx, id); !errors.Is(err, ErrRunNotFound) {
				t.Errorf("GetRun() after delete error = %v, want ErrRunNotFound", err)
			}
			if err := s.DeleteRun(ctx, id); !errors.Is(err, ErrRunNotFound) {
				t.Errorf("second DeleteRun() error = %v, want ErrRunNotFound", err)
			}
		})
	}
}

func TestResultStore_RejectsInvalidRun(t *testing.T) {
	ctx := context.Background()
	for name, s := range resultStores(t) {
		t.Run(name, func(t *testing.T) {
			run := sampleRun("bad", time.Now())
			run.Traces[0].Values = run.Traces[0].Values[:1]
			if _, err := s.SaveRun(ctx, run); !errors.Is(err, ErrInvalidRun) {
				t.Errorf("SaveRun() error = %v, want ErrInvalidRun", err)
			}
			runs, _ := s.ListRuns(ctx)
			if len(runs) != 0 {
				t.Errorf("invalid run was stored")
			}
		})
	}
}

func TestInMemoryResultStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryResultStore()
	id, err := s.SaveRun(ctx, sampleRun("x", time.Now()))
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	got, _ := s.GetRun(ctx, id)
	got.Traces[0].Values[0] = 100
	got.Sections[0].Nodes[0] = 100

	again, _ := s.GetRun(ctx, id)
	if again.Traces[0].Values[0] != -65 || again.Sections[0].Nodes[0] != 1 {
		t.Error("GetRun() exposes stored slices")
	}
}

var fixedTime = time.Date(2026, 2, 2, 2, 2, 2, 0, time.UTC)
