package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteResultStore implements ResultStore using SQLite for persistence.
type SQLiteResultStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// NewSQLiteResultStore opens or creates the database at dbPath. An empty
// path selects DefaultDBPath.
func NewSQLiteResultStore(dbPath string) (*SQLiteResultStore, error) {
	if dbPath == "" {
		p, err := DefaultDBPath()
		if err != nil {
			return nil, err
		}
		dbPath = p
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with single writer
	db.SetMaxOpenConns(1)

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteResultStore{db: db, dbPath: dbPath, now: time.Now}, nil
}

// Path returns the database file path.
func (s *SQLiteResultStore) Path() string {
	return s.dbPath
}

// SaveRun stores the run and its traces in one transaction.
func (s *SQLiteResultStore) SaveRun(ctx context.Context, run RunRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := prepare(&run, s.now); err != nil {
		return "", err
	}

	sectionsJSON, err := json.Marshal(run.Sections)
	if err != nil {
		return "", fmt.Errorf("failed to marshal sections: %w", err)
	}
	timeJSON, err := json.Marshal(nonNil(run.Time))
	if err != nil {
		return "", fmt.Errorf("failed to marshal time trace: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, source, model_id, nodes, section_count, resolution, ra, cm,
			duration, v_init, dt, sections, time_trace, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, nullString(run.Source), nullString(run.ModelID), run.Nodes, len(run.Sections), run.Resolution,
		run.Ra, run.Cm, run.Duration, run.VInit, run.Dt,
		string(sectionsJSON), string(timeJSON), run.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return "", fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	for i, tr := range run.Traces {
		samples, err := json.Marshal(nonNil(tr.Values))
		if err != nil {
			return "", fmt.Errorf("failed to marshal trace %q: %w", tr.Key, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO traces (run_id, seq, key, node_id, label, variable, section, pos, samples)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, tr.Key, tr.Node, nullString(tr.Label), tr.Variable, tr.Section, tr.Pos, string(samples))
		if err != nil {
			return "", fmt.Errorf("failed to insert trace %q: %w", tr.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run %s: %w", run.ID, err)
	}
	return run.ID, nil
}

// GetRun returns a run with all samples.
func (s *SQLiteResultStore) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		run          RunRecord
		source       sql.NullString
		modelID      sql.NullString
		dt           sql.NullFloat64
		sectionsJSON string
		timeJSON     string
		createdAt    string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, source, model_id, nodes, resolution, ra, cm, duration, v_init, dt,
			sections, time_trace, created_at
		FROM runs WHERE id = ?`, id).Scan(
		&run.ID, &source, &modelID, &run.Nodes, &run.Resolution, &run.Ra, &run.Cm,
		&run.Duration, &run.VInit, &dt, &sectionsJSON, &timeJSON, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run %s: %w", id, err)
	}
	run.Source = source.String
	run.ModelID = modelID.String
	run.Dt = dt.Float64
	if err := json.Unmarshal([]byte(sectionsJSON), &run.Sections); err != nil {
		return nil, fmt.Errorf("failed to decode sections of run %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(timeJSON), &run.Time); err != nil {
		return nil, fmt.Errorf("failed to decode time trace of run %s: %w", id, err)
	}
	if run.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at of run %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT key, node_id, label, variable, section, pos, samples
		FROM traces WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query traces of run %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			tr      TraceRecord
			label   sql.NullString
			samples string
		)
		if err := rows.Scan(&tr.Key, &tr.Node, &label, &tr.Variable, &tr.Section, &tr.Pos, &samples); err != nil {
			return nil, fmt.Errorf("failed to scan trace: %w", err)
		}
		tr.Label = label.String
		if err := json.Unmarshal([]byte(samples), &tr.Values); err != nil {
			return nil, fmt.Errorf("failed to decode trace %q: %w", tr.Key, err)
		}
		run.Traces = append(run.Traces, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &run, nil
}

// ListRuns returns summaries, newest first.
func (s *SQLiteResultStore) ListRuns(ctx context.Context) ([]RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.source, r.nodes, r.section_count, r.duration, r.created_at,
			(SELECT COUNT(*) FROM traces t WHERE t.run_id = r.id)
		FROM runs r
		ORDER BY r.created_at DESC, r.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			sum       RunSummary
			source    sql.NullString
			createdAt string
		)
		if err := rows.Scan(&sum.ID, &source, &sum.Nodes, &sum.Sections, &sum.Duration, &createdAt, &sum.Traces); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		sum.Source = source.String
		if sum.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at of run %s: %w", sum.ID, err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// DeleteRun removes a run; its traces go with it.
func (s *SQLiteResultStore) DeleteRun(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteResultStore) Close() error {
	return s.db.Close()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nonNil keeps empty sample slices encoding as [] rather than null.
func nonNil(v []float64) []float64 {
	if v == nil {
		return []float64{}
	}
	return v
}
