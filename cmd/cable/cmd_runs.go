package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/nvandessel/cable/internal/store"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Manage stored simulation runs",
		Long: `List, inspect, move and delete stored runs.

Runs are stored in ~/.cable/cable.db unless store.path is configured.

Examples:
  cable runs list
  cable runs show run-1a2b3c4d5e6f7a8b
  cable runs export > runs.jsonl
  cable runs import runs.jsonl
  cable runs delete run-1a2b3c4d5e6f7a8b
  cable runs backup --keep 5
  cable runs backups`,
	}

	cmd.AddCommand(
		newRunsListCmd(),
		newRunsShowCmd(),
		newRunsExportCmd(),
		newRunsImportCmd(),
		newRunsDeleteCmd(),
		newRunsBackupCmd(),
		newRunsBackupsCmd(),
		newRunsRestoreCmd(),
	)

	return cmd
}

// withStore loads config, opens the store and hands both to fn.
func withStore(cmd *cobra.Command, fn func(s store.ResultStore) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func newRunsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s store.ResultStore) error {
				runs, err := s.ListRuns(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to list runs: %w", err)
				}

				out := cmd.OutOrStdout()
				if jsonOutput(cmd) {
					if runs == nil {
						runs = []store.RunSummary{}
					}
					return json.NewEncoder(out).Encode(runs)
				}

				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs stored.")
					return nil
				}

				var buf bytes.Buffer
				table := tablewriter.NewWriter(&buf)
				table.SetHeader([]string{"ID", "Source", "Nodes", "Sections", "Traces", "Duration", "Created"})
				table.SetBorder(false)
				table.SetCenterSeparator("")
				for _, r := range runs {
					table.Append([]string{
						r.ID,
						r.Source,
						strconv.Itoa(r.Nodes),
						strconv.Itoa(r.Sections),
						strconv.Itoa(r.Traces),
						fmt.Sprintf("%g ms", r.Duration),
						r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					})
				}
				table.Render()
				fmt.Fprint(out, buf.String())
				return nil
			})
		},
	}
}

func newRunsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s store.ResultStore) error {
				run, err := s.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if jsonOutput(cmd) {
					return json.NewEncoder(out).Encode(run)
				}

				fmt.Fprintf(out, "Run:        %s\n", run.ID)
				fmt.Fprintf(out, "Source:     %s\n", valueOrDefault(run.Source, "(unknown)"))
				fmt.Fprintf(out, "Model:      %s\n", valueOrDefault(run.ModelID, "(unknown)"))
				fmt.Fprintf(out, "Created:    %s\n", run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
				fmt.Fprintf(out, "Nodes:      %d\n", run.Nodes)
				fmt.Fprintf(out, "Resolution: %g um\n", run.Resolution)
				fmt.Fprintf(out, "Ra, Cm:     %g Ohm*cm, %g uF/cm^2\n", run.Ra, run.Cm)
				fmt.Fprintf(out, "Run:        %g ms from %g mV, dt %g ms, %d samples\n", run.Duration, run.VInit, run.Dt, len(run.Time))
				writeSectionTable(out, run.Sections)
				writeTraceTable(out, run.Traces)
				return nil
			})
		},
	}
}

func newRunsExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Export all runs as JSON lines",
		Long: `Export all runs as JSON lines, one run per line.

Writes to stdout unless a file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s store.ResultStore) error {
				ctx, cancel := signalContext()
				defer cancel()

				var w io.Writer = cmd.OutOrStdout()
				if len(args) == 1 {
					f, err := os.Create(args[0])
					if err != nil {
						return fmt.Errorf("failed to create export file: %w", err)
					}
					defer f.Close()
					w = f
				}

				n, err := store.ExportJSONL(ctx, s, w)
				if err != nil {
					return fmt.Errorf("export failed after %d runs: %w", n, err)
				}
				if len(args) == 1 {
					fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d runs to %s\n", n, args[0])
				}
				return nil
			})
		},
	}
}

func newRunsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import runs from a JSON lines export",
		Long: `Import runs from a JSON lines export.

Runs whose id is already stored are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s store.ResultStore) error {
				ctx, cancel := signalContext()
				defer cancel()

				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open import file: %w", err)
				}
				defer f.Close()

				n, err := store.ImportJSONL(ctx, s, f)
				if err != nil {
					return fmt.Errorf("import failed after %d runs: %w", n, err)
				}

				out := cmd.OutOrStdout()
				if jsonOutput(cmd) {
					return json.NewEncoder(out).Encode(map[string]any{"imported": n})
				}
				fmt.Fprintf(out, "Imported %d runs\n", n)
				return nil
			})
		},
	}
}

func newRunsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s store.ResultStore) error {
				err := s.DeleteRun(cmd.Context(), args[0])
				if errors.Is(err, store.ErrRunNotFound) {
					return fmt.Errorf("no run with id %s", args[0])
				}
				if err != nil {
					return fmt.Errorf("failed to delete run: %w", err)
				}

				out := cmd.OutOrStdout()
				if jsonOutput(cmd) {
					return json.NewEncoder(out).Encode(map[string]string{"status": "deleted", "id": args[0]})
				}
				fmt.Fprintf(out, "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}
