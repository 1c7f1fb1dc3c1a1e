package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/nvandessel/cable/internal/config"
	"github.com/nvandessel/cable/internal/logging"
	"github.com/nvandessel/cable/internal/model"
	"github.com/nvandessel/cable/internal/skeleton"
	"github.com/nvandessel/cable/internal/solver"
	"github.com/spf13/cobra"
)

// session is a model built from a skeleton file, plus what it needs to be
// torn down again.
type session struct {
	model   *model.Model
	engine  *solver.MemoryEngine
	logger  *slog.Logger
	journal *logging.RunJournal
}

// Close clears the model and closes the journal.
func (s *session) Close() {
	if s.model.State() != model.Cleared {
		s.model.Clear()
	}
	s.journal.Close()
}

// openSession loads the SWC file at path and builds a model on a fresh
// engine using the model and simulation settings of cfg.
func openSession(cmd *cobra.Command, cfg *config.CableConfig, path string) (*session, error) {
	skel, err := skeleton.LoadSWC(path)
	if err != nil {
		return nil, err
	}

	engine := solver.NewMemoryEngine(cfg.Simulation.Dt)
	logger := newLogger(cmd, cfg)
	journal := openJournal(cfg)
	m, err := model.New(skel, solver.NewContext(engine), model.Config{
		Resolution: cfg.Model.Resolution,
		Ra:         cfg.Model.Ra,
		Cm:         cfg.Model.Cm,
		Logger:     logger,
		Journal:    journal,
	})
	if err != nil {
		journal.Close()
		return nil, fmt.Errorf("building model from %s: %w", path, err)
	}

	if cfg.Model.Preset == config.PresetProjectionNeuron {
		if err := model.ApplyProjectionNeuron(m, cfg.Model.Active); err != nil {
			m.Clear()
			journal.Close()
			return nil, fmt.Errorf("applying preset: %w", err)
		}
	}

	return &session{model: m, engine: engine, logger: logger, journal: journal}, nil
}

// applyModelFlags overrides model settings from --resolution, --preset and
// --active when they were set on the command line.
func applyModelFlags(cmd *cobra.Command, cfg *config.CableConfig) error {
	if cmd.Flags().Changed("resolution") {
		cfg.Model.Resolution, _ = cmd.Flags().GetFloat64("resolution")
	}
	if cmd.Flags().Changed("preset") {
		cfg.Model.Preset, _ = cmd.Flags().GetString("preset")
	}
	if cmd.Flags().Changed("active") {
		cfg.Model.Active, _ = cmd.Flags().GetBool("active")
	}
	return cfg.Validate()
}

// addModelFlags registers the flags read by applyModelFlags.
func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("resolution", 0, "Approximate subdivision length in microns (default from config)")
	cmd.Flags().String("preset", "", "Biophysics preset: projection-neuron")
	cmd.Flags().Bool("active", false, "Add Hodgkin-Huxley channels with --preset")
}

// parseNodeIDs parses node id arguments.
func parseNodeIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid node id %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
