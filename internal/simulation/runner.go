package simulation

import (
	"context"
	"testing"

	"github.com/nvandessel/cable/internal/constants"
	"github.com/nvandessel/cable/internal/model"
	"github.com/nvandessel/cable/internal/skeleton"
	"github.com/nvandessel/cable/internal/solver"
	"github.com/nvandessel/cable/internal/store"
)

// Runner builds and runs scenarios against the in-memory engine and an
// isolated SQLite result store.
type Runner struct {
	t     *testing.T
	store *store.SQLiteResultStore
}

// Result is everything a scenario produced.
type Result struct {
	Scenario Scenario
	Skeleton *skeleton.Skeleton
	Model    *model.Model
	Engine   *solver.MemoryEngine
	Context  *solver.Context
	RunID    string // set when Persist is true
	Store    *store.SQLiteResultStore
}

// NewRunner creates a runner with an isolated SQLite store and sandboxed
// HOME directory.
func NewRunner(t *testing.T) *Runner {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	s, err := store.NewSQLiteResultStore(tmpDir + "/" + store.DBFileName)
	if err != nil {
		t.Fatalf("NewRunner: failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return &Runner{t: t, store: s}
}

// Run executes the scenario on a fresh solver context.
func (r *Runner) Run(scenario Scenario) Result {
	r.t.Helper()
	ctx := solver.NewContext(solver.NewMemoryEngine(scenario.Dt))
	return r.RunOn(ctx, scenario)
}

// RunOn executes the scenario on ctx, which may be shared with other models.
func (r *Runner) RunOn(ctx *solver.Context, scenario Scenario) Result {
	r.t.Helper()

	units := scenario.Units
	if units == "" {
		units = "um"
	}
	s, err := skeleton.New(scenario.Nodes, units)
	if err != nil {
		r.t.Fatalf("%s: skeleton: %v", scenario.Name, err)
	}

	cfg := model.DefaultConfig()
	if scenario.Resolution > 0 {
		cfg.Resolution = scenario.Resolution
	}
	m, err := model.New(s, ctx, cfg)
	if err != nil {
		r.t.Fatalf("%s: build: %v", scenario.Name, err)
	}

	if scenario.Setup != nil {
		if err := scenario.Setup(m); err != nil {
			r.t.Fatalf("%s: setup: %v", scenario.Name, err)
		}
	}

	result := Result{
		Scenario: scenario,
		Skeleton: s,
		Model:    m,
		Context:  ctx,
		Store:    r.store,
	}
	if eng, ok := ctx.Engine().(*solver.MemoryEngine); ok {
		result.Engine = eng
	}

	if scenario.Duration > 0 {
		vInit := scenario.VInit
		if vInit == 0 {
			vInit = constants.DefaultVInit
		}
		if err := m.Run(scenario.Duration, vInit); err != nil {
			r.t.Fatalf("%s: run: %v", scenario.Name, err)
		}

		if scenario.Persist {
			dt := 0.0
			if result.Engine != nil {
				dt = result.Engine.Dt()
			}
			run := store.FromModel(m, store.RunMeta{
				Source:   scenario.Name,
				Duration: scenario.Duration,
				VInit:    vInit,
				Dt:       dt,
			})
			id, err := r.store.SaveRun(context.Background(), run)
			if err != nil {
				r.t.Fatalf("%s: persist: %v", scenario.Name, err)
			}
			result.RunID = id
		}
	}

	return result
}
