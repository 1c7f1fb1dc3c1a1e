package store

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ExportJSONL writes every run in s, newest first, one JSON object per line.
func ExportJSONL(ctx context.Context, s ResultStore, w io.Writer) (int, error) {
	summaries, err := s.ListRuns(ctx)
	if err != nil {
		return 0, err
	}

	enc := json.NewEncoder(w)
	for i, sum := range summaries {
		run, err := s.GetRun(ctx, sum.ID)
		if err != nil {
			return i, err
		}
		if err := enc.Encode(run); err != nil {
			return i, fmt.Errorf("failed to encode run %s: %w", sum.ID, err)
		}
	}
	return len(summaries), nil
}

// ImportJSONL reads runs written by ExportJSONL into s. Runs whose id is
// already present are skipped. Returns the number imported.
func ImportJSONL(ctx context.Context, s ResultStore, r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	// Traces make long lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 64*1024*1024)

	imported := 0
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var run RunRecord
		if err := json.Unmarshal(line, &run); err != nil {
			return imported, fmt.Errorf("line %d: %w", lineNum, err)
		}
		if run.ID != "" {
			if _, err := s.GetRun(ctx, run.ID); err == nil {
				continue
			} else if !errors.Is(err, ErrRunNotFound) {
				return imported, err
			}
		}
		if _, err := s.SaveRun(ctx, run); err != nil {
			return imported, fmt.Errorf("line %d: %w", lineNum, err)
		}
		imported++
	}
	if err := scanner.Err(); err != nil {
		return imported, fmt.Errorf("scanner error: %w", err)
	}
	return imported, nil
}
