package store

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestExportImportJSONL(t *testing.T) {
	ctx := context.Background()
	src := NewInMemoryResultStore()
	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"a", "b"} {
		if _, err := src.SaveRun(ctx, sampleRun(name, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("SaveRun() error = %v", err)
		}
	}

	var buf bytes.Buffer
	n, err := ExportJSONL(ctx, src, &buf)
	if err != nil {
		t.Fatalf("ExportJSONL() error = %v", err)
	}
	if n != 2 || strings.Count(buf.String(), "\n") != 2 {
		t.Fatalf("exported %d runs, %d lines; want 2, 2", n, strings.Count(buf.String(), "\n"))
	}

	dst, err := NewSQLiteResultStore(t.TempDir() + "/" + DBFileName)
	if err != nil {
		t.Fatalf("NewSQLiteResultStore() error = %v", err)
	}
	defer dst.Close()

	data := buf.String()
	imported, err := ImportJSONL(ctx, dst, strings.NewReader(data))
	if err != nil {
		t.Fatalf("ImportJSONL() error = %v", err)
	}
	if imported != 2 {
		t.Errorf("imported %d runs, want 2", imported)
	}

	again, err := ImportJSONL(ctx, dst, strings.NewReader(data))
	if err != nil {
		t.Fatalf("second ImportJSONL() error = %v", err)
	}
	if again != 0 {
		t.Errorf("re-import added %d runs, want 0", again)
	}

	runs, _ := dst.ListRuns(ctx)
	if len(runs) != 2 || runs[0].Source != "b" {
		t.Errorf("imported runs = %+v", runs)
	}
}

func TestImportJSONL_BadLine(t *testing.T) {
	_, err := ImportJSONL(context.Background(), NewInMemoryResultStore(), strings.NewReader("{not json}\n"))
	if err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Errorf("ImportJSONL() error = %v, want line 1 error", err)
	}
}
