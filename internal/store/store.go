// Package store defines the ResultStore interface for persisting simulation
// runs: the section layout a run was built on, the shared time trace and
// every recorder's samples.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/nvandessel/cable/internal/sections"
)

// ErrRunNotFound is returned when a run id is not in the store.
var ErrRunNotFound = errors.New("run not found")

// RunRecord is one persisted simulation run.
type RunRecord struct {
	ID         string              `json:"id"`
	Source     string              `json:"source,omitempty"` // skeleton file or fixture name
	ModelID    string              `json:"model_id,omitempty"`
	Nodes      int                 `json:"nodes"`
	Resolution float64             `json:"resolution"`
	Ra         float64             `json:"ra"`
	Cm         float64             `json:"cm"`
	Duration   float64             `json:"duration"`
	VInit      float64             `json:"v_init"`
	Dt         float64             `json:"dt,omitempty"`
	Sections   []sections.Geometry `json:"sections"`
	Time       []float64           `json:"time"`
	Traces     []TraceRecord       `json:"traces"`
	CreatedAt  time.Time           `json:"created_at"`
}

// TraceRecord is the samples of one recorder.
type TraceRecord struct {
	Key      string    `json:"key"` // label, or node id for unlabeled recorders
	Node     int64     `json:"node"`
	Label    string    `json:"label,omitempty"`
	Variable string    `json:"variable"`
	Section  int       `json:"section"`
	Pos      float64   `json:"pos"`
	Values   []float64 `json:"values"`
}

// RunSummary is the listing form of a run, without samples.
type RunSummary struct {
	ID        string    `json:"id"`
	Source    string    `json:"source,omitempty"`
	Nodes     int       `json:"nodes"`
	Sections  int       `json:"sections"`
	Traces    int       `json:"traces"`
	Duration  float64   `json:"duration"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary returns the listing form of the run.
func (r RunRecord) Summary() RunSummary {
	return RunSummary{
		ID:        r.ID,
		Source:    r.Source,
		Nodes:     r.Nodes,
		Sections:  len(r.Sections),
		Traces:    len(r.Traces),
		Duration:  r.Duration,
		CreatedAt: r.CreatedAt,
	}
}

// ResultStore defines the interface for storing and querying runs.
type ResultStore interface {
	// SaveRun validates and stores a run. An empty ID is assigned from the
	// run's content. Returns the stored ID.
	SaveRun(ctx context.Context, run RunRecord) (string, error)

	// GetRun returns a run with all samples.
	GetRun(ctx context.Context, id string) (*RunRecord, error)

	// ListRuns returns summaries, newest first.
	ListRuns(ctx context.Context) ([]RunSummary, error)

	// DeleteRun removes a run and its traces.
	DeleteRun(ctx context.Context, id string) error

	Close() error
}
