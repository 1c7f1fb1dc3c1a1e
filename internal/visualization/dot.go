// Package visualization renders the section tree of a model.
package visualization

import (
	"fmt"
	"strings"

	"github.com/nvandessel/cable/internal/sections"
)

// Format specifies the output format for tree rendering.
type Format string

const (
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
)

// sectionColors maps a section's role in the tree to DOT colors.
var sectionColors = map[string]string{
	"root":     "tomato",
	"branch":   "steelblue",
	"terminal": "mediumseagreen",
}

// role classifies a section as root (no parent), terminal (no children) or
// branch.
func role(g sections.Geometry, children map[int]int) string {
	switch {
	case g.IsRoot():
		return "root"
	case children[g.Index] == 0:
		return "terminal"
	default:
		return "branch"
	}
}

func childCounts(secs []sections.Geometry) map[int]int {
	counts := make(map[int]int, len(secs))
	for _, g := range secs {
		if !g.IsRoot() {
			counts[g.Parent]++
		}
	}
	return counts
}

// RenderDOT produces a Graphviz DOT representation of the section tree.
// Edges run parent to child and are labeled with the attachment position.
func RenderDOT(name string, secs []sections.Geometry) string {
	children := childCounts(secs)

	var b strings.Builder
	fmt.Fprintf(&b, "digraph %q {\n", name)
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, style=filled, fontname=\"Helvetica\"];\n")
	b.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n\n")

	for _, g := range secs {
		label := fmt.Sprintf("%s\\nL=%.2f d=%.2f nseg=%d", g.Name, g.Length, g.Diameter, g.NSeg)
		fmt.Fprintf(&b, "  s%d [label=\"%s\", fillcolor=%q, tooltip=\"nodes %s\"];\n",
			g.Index, label, sectionColors[role(g, children)], nodeSpan(g.Nodes))
	}
	b.WriteString("\n")

	for _, g := range secs {
		if g.IsRoot() {
			continue
		}
		fmt.Fprintf(&b, "  s%d -> s%d [label=\"%.2f\"];\n", g.Parent, g.Index, g.ParentPos)
	}

	b.WriteString("}\n")
	return b.String()
}

// RenderJSON produces a JSON tree representation with nodes and edges arrays.
func RenderJSON(secs []sections.Geometry) map[string]any {
	children := childCounts(secs)

	nodes := make([]map[string]any, 0, len(secs))
	edges := make([]map[string]any, 0, len(secs))
	for _, g := range secs {
		nodes = append(nodes, map[string]any{
			"id":       g.Index,
			"name":     g.Name,
			"role":     role(g, children),
			"length":   g.Length,
			"diameter": g.Diameter,
			"nseg":     g.NSeg,
		})
		if !g.IsRoot() {
			edges = append(edges, map[string]any{
				"source": g.Parent,
				"target": g.Index,
				"pos":    g.ParentPos,
			})
		}
	}

	return map[string]any{
		"nodes":      nodes,
		"edges":      edges,
		"node_count": len(nodes),
		"edge_count": len(edges),
	}
}

// nodeSpan summarizes a section's skeleton nodes as "first..last (n)".
func nodeSpan(ids []int64) string {
	switch len(ids) {
	case 0:
		return "none"
	case 1:
		return fmt.Sprintf("%d", ids[0])
	default:
		return fmt.Sprintf("%d..%d (%d)", ids[0], ids[len(ids)-1], len(ids))
	}
}
