package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/nvandessel/cable/internal/config"
	"github.com/nvandessel/cable/internal/constants"
	"github.com/nvandessel/cable/internal/model"
	"github.com/nvandessel/cable/internal/solver"
	"github.com/nvandessel/cable/internal/store"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <file.swc>",
		Short: "Instrument a model, simulate it and store the traces",
		Long: `Build a model, attach stimuli and recorders, and run it.

Node ids select where instrumentation goes. Recorders without --label are
kept per node; with --label, every target records under the same label and
only the last one is kept.

Examples:
  cable run neuron.swc --record 1,50 --pulse 1
  cable run neuron.swc --record 50 --synapse 120 --syn-weight 0.02 --duration 100
  cable run neuron.swc --record 1 --label soma --preset projection-neuron --active
  cable run neuron.swc --record 1 --no-save --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := applyRunFlags(cmd, cfg); err != nil {
				return err
			}

			sess, err := openSession(cmd, cfg, args[0])
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := instrument(cmd, sess.model); err != nil {
				return err
			}
			if len(sess.model.Records()) == 0 {
				sess.logger.Warn("no recorders attached; only the time trace will be kept")
			}

			if err := sess.model.Run(cfg.Simulation.Duration, cfg.Simulation.VInit); err != nil {
				return fmt.Errorf("run failed: %w", err)
			}

			run := store.FromModel(sess.model, store.RunMeta{
				Source:   filepath.Base(args[0]),
				Duration: cfg.Simulation.Duration,
				VInit:    cfg.Simulation.VInit,
				Dt:       sess.engine.Dt(),
			})

			noSave, _ := cmd.Flags().GetBool("no-save")
			if cfg.Store.Save && !noSave {
				ctx, cancel := signalContext()
				defer cancel()

				s, err := openStore(cfg)
				if err != nil {
					return err
				}
				defer s.Close()

				id, err := s.SaveRun(ctx, run)
				if err != nil {
					return fmt.Errorf("failed to save run: %w", err)
				}
				run.ID = id
				sess.logger.Info("run saved", "id", id, "path", s.Path())
			}

			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				return json.NewEncoder(out).Encode(run)
			}

			fmt.Fprintln(out, sess.model.String())
			fmt.Fprintf(out, "t = 0..%g ms, %d samples\n", cfg.Simulation.Duration, len(run.Time))
			if run.ID != "" {
				fmt.Fprintf(out, "saved as %s\n", run.ID)
			}
			writeTraceTable(out, run.Traces)
			return nil
		},
	}

	addModelFlags(cmd)

	cmd.Flags().Float64("duration", 0, "Simulated time in ms (default from config)")
	cmd.Flags().Float64("v-init", 0, "Initial membrane potential in mV (default from config)")
	cmd.Flags().Float64("dt", 0, "Time step in ms (default from config)")
	cmd.Flags().Bool("no-save", false, "Do not store the run")

	cmd.Flags().Int64Slice("record", nil, "Record membrane potential at these nodes")
	cmd.Flags().Int64Slice("record-current", nil, "Record membrane current at these nodes")
	cmd.Flags().String("label", "", "Store recorders under this label instead of per node")

	cmd.Flags().Int64Slice("pulse", nil, "Inject a current pulse at these nodes")
	cmd.Flags().Float64("pulse-start", constants.DefaultStimOnset, "Pulse onset in ms")
	cmd.Flags().Float64("pulse-dur", constants.DefaultPulseDuration, "Pulse duration in ms")
	cmd.Flags().Float64("pulse-amp", constants.DefaultPulseCurrent, "Pulse amplitude in nA")

	cmd.Flags().Int64Slice("synapse", nil, "Drive a synapse at these nodes from one spike generator")
	cmd.Flags().Float64("syn-start", constants.DefaultStimOnset, "First presynaptic spike in ms")
	cmd.Flags().Int("syn-number", 1, "Number of presynaptic spikes")
	cmd.Flags().Float64("syn-interval", constants.DefaultSpikeInterval, "Interval between presynaptic spikes in ms")
	cmd.Flags().Float64("syn-weight", 0.01, "Connector weight")

	cmd.Flags().Int64Slice("alpha", nil, "Add an alpha synapse at these nodes")
	cmd.Flags().Float64("alpha-onset", constants.DefaultStimOnset, "Alpha synapse onset in ms")
	cmd.Flags().Float64("alpha-tau", 0.1, "Alpha synapse decay in ms")
	cmd.Flags().Float64("alpha-e", 0, "Alpha synapse reversal potential in mV")
	cmd.Flags().Float64("alpha-gmax", 0.001, "Alpha synapse peak conductance in uS")

	return cmd
}

// applyRunFlags overrides model and simulation settings set on the command line.
func applyRunFlags(cmd *cobra.Command, cfg *config.CableConfig) error {
	if cmd.Flags().Changed("duration") {
		cfg.Simulation.Duration, _ = cmd.Flags().GetFloat64("duration")
	}
	if cmd.Flags().Changed("v-init") {
		cfg.Simulation.VInit, _ = cmd.Flags().GetFloat64("v-init")
	}
	if cmd.Flags().Changed("dt") {
		cfg.Simulation.Dt, _ = cmd.Flags().GetFloat64("dt")
	}
	return applyModelFlags(cmd, cfg)
}

// instrument attaches what the run flags ask for.
func instrument(cmd *cobra.Command, m *model.Model) error {
	f := cmd.Flags()
	label, _ := f.GetString("label")

	if ids, _ := f.GetInt64Slice("pulse"); len(ids) > 0 {
		start, _ := f.GetFloat64("pulse-start")
		dur, _ := f.GetFloat64("pulse-dur")
		amp, _ := f.GetFloat64("pulse-amp")
		if err := m.InjectCurrentPulse(ids, start, dur, amp); err != nil {
			return fmt.Errorf("pulse: %w", err)
		}
	}

	if ids, _ := f.GetInt64Slice("synapse"); len(ids) > 0 {
		spikes := solver.DefaultNetStim()
		spikes.Start, _ = f.GetFloat64("syn-start")
		spikes.Number, _ = f.GetInt("syn-number")
		spikes.Interval, _ = f.GetFloat64("syn-interval")
		conn := solver.DefaultNetCon()
		conn.Weight, _ = f.GetFloat64("syn-weight")
		if err := m.AddSynapticInput(ids, spikes, solver.DefaultExp2Syn(), conn); err != nil {
			return fmt.Errorf("synapse: %w", err)
		}
	}

	if ids, _ := f.GetInt64Slice("alpha"); len(ids) > 0 {
		onset, _ := f.GetFloat64("alpha-onset")
		tau, _ := f.GetFloat64("alpha-tau")
		e, _ := f.GetFloat64("alpha-e")
		gmax, _ := f.GetFloat64("alpha-gmax")
		if err := m.AddSynapticCurrent(ids, onset, tau, e, gmax); err != nil {
			return fmt.Errorf("alpha synapse: %w", err)
		}
	}

	if ids, _ := f.GetInt64Slice("record"); len(ids) > 0 {
		if err := m.AddVoltageRecord(ids, label); err != nil {
			return fmt.Errorf("record: %w", err)
		}
	}

	if ids, _ := f.GetInt64Slice("record-current"); len(ids) > 0 {
		if err := m.AddCurrentRecord(ids, label); err != nil {
			return fmt.Errorf("record-current: %w", err)
		}
	}

	return nil
}

// writeTraceTable renders one row per recorder with its range and final value.
func writeTraceTable(w io.Writer, traces []store.TraceRecord) {
	if len(traces) == 0 {
		return
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Key", "Var", "Node", "Section", "Pos", "Min", "Max", "Final"})
	table.SetBorder(false)
	table.SetCenterSeparator("")

	for _, tr := range traces {
		lo, hi, last := traceStats(tr.Values)
		table.Append([]string{
			tr.Key,
			tr.Variable,
			strconv.FormatInt(tr.Node, 10),
			strconv.Itoa(tr.Section),
			fmt.Sprintf("%.4f", tr.Pos),
			fmt.Sprintf("%.4f", lo),
			fmt.Sprintf("%.4f", hi),
			fmt.Sprintf("%.4f", last),
		})
	}

	table.Render()
	fmt.Fprintf(w, "\n%s", buf.String())
}

// traceStats returns the minimum, maximum and last sample. All zero for an
// empty trace.
func traceStats(values []float64) (lo, hi, last float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi, values[len(values)-1]
}
