package main

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/nvandessel/cable/internal/backup"
	"github.com/nvandessel/cable/internal/store"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print the cable version together with the on-disk format versions
it reads and writes: the result store schema and the backup format.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				return json.NewEncoder(out).Encode(map[string]any{
					"version":       version,
					"go":            runtime.Version(),
					"store_schema":  store.SchemaVersion,
					"backup_format": backup.FormatVersion,
				})
			}
			fmt.Fprintf(out, "cable version %s (%s)\n", version, runtime.Version())
			fmt.Fprintf(out, "store schema %d, backup format %d\n", store.SchemaVersion, backup.FormatVersion)
			return nil
		},
	}
}
