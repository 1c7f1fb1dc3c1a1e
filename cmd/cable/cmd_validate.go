package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/fatih/color"
	"github.com/nvandessel/cable/internal/skeleton"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// validation is the outcome of checking one skeleton file.
type validation struct {
	Path     string             `json:"path"`
	Valid    bool               `json:"valid"`
	Nodes    int                `json:"nodes,omitempty"`
	Roots    []int64            `json:"roots,omitempty"`
	Units    string             `json:"units,omitempty"`
	Warnings []skeleton.Warning `json:"warnings,omitempty"`
	Error    string             `json:"error,omitempty"`

	err error
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file.swc>...",
		Short: "Check skeletons for construction preconditions",
		Long: `Check skeletons for construction preconditions.

This command fails on:
  - Non-positive radii (including the SWC -1 placeholder)
  - Parents that are not in the skeleton
  - Cycles and self-parented nodes

It warns, without failing, when:
  - Units are neither microns nor dimensionless
  - The skeleton has several roots (disconnected fragments)

Files are checked concurrently; results are reported in argument order.

Examples:
  cable validate neuron.swc
  cable validate morphologies/*.swc --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			results, err := validateFiles(cmd.Context(), args, newLogger(cmd, cfg))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				if err := json.NewEncoder(out).Encode(results); err != nil {
					return err
				}
			} else {
				writeValidations(out, results)
			}

			// A single file fails with its own error so callers can match it.
			if len(results) == 1 && results[0].err != nil {
				return results[0].err
			}
			failed := 0
			for _, r := range results {
				if !r.Valid {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d skeletons failed validation", failed, len(results))
			}
			return nil
		},
	}

	return cmd
}

// validateFiles loads and validates every path with bounded concurrency.
// Per-file problems are recorded in the results; only cancellation is
// returned as an error.
func validateFiles(ctx context.Context, paths []string, logger *slog.Logger) ([]validation, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]validation, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = validateFile(path, logger.With("file", path))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func validateFile(path string, logger *slog.Logger) validation {
	r := validation{Path: path}

	skel, err := skeleton.LoadSWC(path)
	if err != nil {
		r.err = err
		r.Error = err.Error()
		return r
	}
	r.Nodes = skel.Len()
	r.Roots = skel.Roots()
	r.Units = skel.Units()

	r.Warnings, err = skeleton.Validate(skel, logger)
	if err != nil {
		r.err = err
		r.Error = err.Error()
		return r
	}
	r.Valid = true
	return r
}

func writeValidations(w io.Writer, results []validation) {
	ok := color.New(color.FgGreen).SprintFunc()
	warn := color.New(color.FgYellow).SprintFunc()
	fail := color.New(color.FgRed).SprintFunc()

	for _, r := range results {
		if !r.Valid {
			fmt.Fprintf(w, "%s %s: %s\n", fail("FAIL"), r.Path, r.Error)
			continue
		}
		fmt.Fprintf(w, "%s %s: %d nodes, %d root(s), units %q\n", ok("OK"), r.Path, r.Nodes, len(r.Roots), r.Units)
		for _, wn := range r.Warnings {
			fmt.Fprintf(w, "  %s (%s): %s\n", warn("warning"), wn.Kind, wn.Message)
		}
	}
}
