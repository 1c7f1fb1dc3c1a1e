package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/nvandessel/cable/internal/backup"
	"github.com/nvandessel/cable/internal/store"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newRunsBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a compressed snapshot of all stored runs",
		Long: `Write a compressed snapshot of all stored runs.

Backups go to ~/.cable/backups/ unless --dir is given. After writing,
older backups are pruned: a backup is kept if it is among the --keep
newest or younger than --max-age.

Examples:
  cable runs backup
  cable runs backup --keep 5 --max-age 30d`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			keep, _ := cmd.Flags().GetInt("keep")
			maxAge, _ := cmd.Flags().GetString("max-age")

			policy, err := retentionPolicy(keep, maxAge)
			if err != nil {
				return err
			}

			if dir == "" {
				dir, err = backup.DefaultBackupDir()
				if err != nil {
					return err
				}
			}

			return withStore(cmd, func(s store.ResultStore) error {
				ctx, cancel := signalContext()
				defer cancel()

				now := time.Now()
				path := backup.GenerateBackupPath(dir, now)
				header, err := backup.Backup(ctx, s, path, now)
				if err != nil {
					return fmt.Errorf("backup failed: %w", err)
				}

				deleted, err := backup.Prune(dir, policy)
				if err != nil {
					return fmt.Errorf("retention failed: %w", err)
				}

				out := cmd.OutOrStdout()
				if jsonOutput(cmd) {
					return json.NewEncoder(out).Encode(map[string]any{
						"path":    path,
						"header":  header,
						"deleted": deleted,
					})
				}
				fmt.Fprintf(out, "Backed up %d runs to %s\n", header.Runs, path)
				if len(deleted) > 0 {
					fmt.Fprintf(out, "Removed %d old backups\n", len(deleted))
				}
				return nil
			})
		},
	}

	cmd.Flags().String("dir", "", "Backup directory (default ~/.cable/backups)")
	cmd.Flags().Int("keep", 10, "Number of most recent backups to keep")
	cmd.Flags().String("max-age", "", "Also keep backups younger than this (e.g. 30d, 2w, 720h)")

	return cmd
}

func newRunsRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Restore runs from a backup",
		Long: `Restore runs from a backup written by 'cable runs backup'.

The checksum is verified first. Runs whose id is already stored are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s store.ResultStore) error {
				ctx, cancel := signalContext()
				defer cancel()

				result, err := backup.Restore(ctx, s, args[0])
				if err != nil {
					return fmt.Errorf("restore failed: %w", err)
				}

				out := cmd.OutOrStdout()
				if jsonOutput(cmd) {
					return json.NewEncoder(out).Encode(result)
				}
				fmt.Fprintf(out, "Restored %d runs (%d already present)\n", result.Restored, result.Skipped)
				return nil
			})
		},
	}
}

// retentionPolicy builds the policy for --keep and --max-age.
func retentionPolicy(keep int, maxAge string) (backup.Policy, error) {
	if keep < 1 {
		return nil, fmt.Errorf("--keep must be at least 1, got %d", keep)
	}
	newest := backup.KeepNewest{N: keep}
	if maxAge == "" {
		return newest, nil
	}

	age, err := backup.ParseAge(maxAge)
	if err != nil {
		return nil, err
	}
	return backup.KeepAny{newest, backup.KeepYounger{Age: age}}, nil
}

func newRunsBackupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backups",
		Short: "List backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			if dir == "" {
				var err error
				if dir, err = backup.DefaultBackupDir(); err != nil {
					return err
				}
			}

			entries, err := backup.List(dir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				if entries == nil {
					entries = []backup.Entry{}
				}
				return json.NewEncoder(out).Encode(entries)
			}
			if len(entries) == 0 {
				fmt.Fprintf(out, "No backups in %s\n", dir)
				return nil
			}

			var buf bytes.Buffer
			table := tablewriter.NewWriter(&buf)
			table.SetHeader([]string{"File", "Created", "Runs", "Traces", "Size"})
			table.SetBorder(false)
			table.SetCenterSeparator("")
			for _, e := range entries {
				runs, traces := strconv.Itoa(e.Runs), strconv.Itoa(e.Traces)
				if e.Damaged {
					runs, traces = color.RedString("damaged"), "-"
				}
				table.Append([]string{
					filepath.Base(e.Path),
					e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					runs,
					traces,
					fmt.Sprintf("%d B", e.Size),
				})
			}
			table.Render()
			fmt.Fprint(out, buf.String())
			return nil
		},
	}

	cmd.Flags().String("dir", "", "Backup directory (default ~/.cable/backups)")

	return cmd
}
