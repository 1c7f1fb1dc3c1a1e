package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/fatih/color"
	"github.com/nvandessel/cable/internal/sections"
	"github.com/nvandessel/cable/internal/visualization"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <file.swc>",
		Short: "Build a compartment model and print its sections",
		Long: `Build a compartment model from a skeleton and print its sections.

Each section is one unbranched run of nodes. NSEG is the odd number of
subdivisions chosen from the section length and --resolution.

Examples:
  cable build neuron.swc
  cable build neuron.swc --resolution 5
  cable build neuron.swc --json
  cable build neuron.swc --tree dot | dot -Tsvg > tree.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := applyModelFlags(cmd, cfg); err != nil {
				return err
			}

			sess, err := openSession(cmd, cfg, args[0])
			if err != nil {
				return err
			}
			defer sess.Close()

			m := sess.model
			out := cmd.OutOrStdout()

			tree, _ := cmd.Flags().GetString("tree")
			switch visualization.Format(tree) {
			case "":
			case visualization.FormatDOT:
				fmt.Fprint(out, visualization.RenderDOT(filepath.Base(args[0]), m.Sections()))
				return nil
			case visualization.FormatJSON:
				return json.NewEncoder(out).Encode(visualization.RenderJSON(m.Sections()))
			default:
				return fmt.Errorf("invalid --tree format: %s (must be dot or json)", tree)
			}

			if jsonOutput(cmd) {
				return json.NewEncoder(out).Encode(map[string]any{
					"model":      m.String(),
					"resolution": m.Resolution(),
					"ra":         m.Ra(),
					"cm":         m.Cm(),
					"warnings":   m.Warnings(),
					"sections":   m.Sections(),
				})
			}

			fmt.Fprintln(out, m.String())
			for _, w := range m.Warnings() {
				fmt.Fprintf(out, "%s (%s): %s\n", color.YellowString("warning"), w.Kind, w.Message)
			}
			writeSectionTable(out, m.Sections())
			return nil
		},
	}

	addModelFlags(cmd)
	cmd.Flags().String("tree", "", "Render the section tree instead: dot or json")

	return cmd
}

// writeSectionTable renders section geometry as a borderless table.
func writeSectionTable(w io.Writer, secs []sections.Geometry) {
	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Index", "Name", "Parent", "At", "Length", "Diameter", "NSeg", "Nodes"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
	})

	var total float64
	nseg := 0
	for _, g := range secs {
		parent, at := "-", "-"
		if !g.IsRoot() {
			parent = strconv.Itoa(g.Parent)
			at = fmt.Sprintf("%.3f", g.ParentPos)
		}
		table.Append([]string{
			strconv.Itoa(g.Index),
			g.Name,
			parent,
			at,
			fmt.Sprintf("%.3f", g.Length),
			fmt.Sprintf("%.3f", g.Diameter),
			strconv.Itoa(g.NSeg),
			strconv.Itoa(len(g.Nodes)),
		})
		total += g.Length
		nseg += g.NSeg
	}

	table.SetFooter([]string{
		fmt.Sprintf("%d sections", len(secs)), "", "", "",
		fmt.Sprintf("%.3f", total), "",
		strconv.Itoa(nseg), "",
	})

	table.Render()
	fmt.Fprintf(w, "\n%s", buf.String())
}
