package sections

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/nvandessel/cable/internal/logging"
	"github.com/nvandessel/cable/internal/skeleton"
)

// ErrResolution is returned when the subdivision resolution is not a
// positive finite number.
var ErrResolution = errors.New("resolution must be positive")

// NoParent is the Parent index of a section that starts a fragment.
const NoParent = -1

// Location addresses a skeleton node inside the compartment model.
type Location struct {
	Section int     `json:"section"`
	Pos     float64 `json:"pos"` // normalized position in [0, 1]
}

// Geometry describes one section derived from one segment.
type Geometry struct {
	Index     int     `json:"index"`
	Name      string  `json:"name"`
	Length    float64 `json:"length"`   // sum of edge weights
	Diameter  float64 `json:"diameter"` // 2 x mean node radius
	NSeg      int     `json:"nseg"`     // odd subdivision count
	Parent    int     `json:"parent"`   // NoParent for fragment roots
	ParentPos float64 `json:"parent_pos"`
	Nodes     []int64 `json:"nodes"` // segment nodes parent->child, proximal included
}

// IsRoot returns true if the section is not connected to a parent.
func (g Geometry) IsRoot() bool {
	return g.Parent == NoParent
}

// Layout is the result of a build: sections in index order and the location
// of every reachable skeleton node.
type Layout struct {
	Sections  []Geometry
	Locations map[int64]Location
}

// RootSections returns the indices of all unconnected sections.
func (l Layout) RootSections() []int {
	var roots []int
	for _, g := range l.Sections {
		if g.IsRoot() {
			roots = append(roots, g.Index)
		}
	}
	return roots
}

// NSeg returns the odd subdivision count for a section of the given length:
// 1 + 2*floor(length / (2*resolution)).
func NSeg(length, resolution float64) int {
	if length <= 0 || resolution <= 0 {
		return 1
	}
	return 1 + 2*int(math.Floor(length/(2*resolution)))
}

// Build segments the skeleton and derives section geometry, node locations
// and connectivity. The skeleton is expected to have passed
// skeleton.Validate; nodes not reachable from a root are left unmapped.
// Sibling segments leaving a root connect to the root-owning segment at
// position 0 (see Segments).
func Build(s *skeleton.Skeleton, resolution float64, logger *slog.Logger) (Layout, error) {
	logger = logging.OrDiscard(logger)

	if math.IsNaN(resolution) || math.IsInf(resolution, 0) || resolution <= 0 {
		return Layout{}, fmt.Errorf("%w, got %v", ErrResolution, resolution)
	}

	segs := Segments(s)
	layout := Layout{
		Sections:  make([]Geometry, 0, len(segs)),
		Locations: make(map[int64]Location, s.Len()),
	}

	for i, seg := range segs {
		positions, length := normalizedPositions(s, seg.Nodes)

		var radiusSum float64
		for _, id := range seg.Nodes {
			n, _ := s.Node(id)
			radiusSum += n.Radius
		}

		g := Geometry{
			Index:    i,
			Name:     fmt.Sprintf("segment_%d", i),
			Length:   length,
			Diameter: 2 * radiusSum / float64(len(seg.Nodes)),
			NSeg:     NSeg(length, resolution),
			Parent:   NoParent,
			Nodes:    append([]int64(nil), seg.Nodes...),
		}

		if !seg.OwnsProximal {
			parent, ok := layout.Locations[seg.Proximal()]
			if !ok {
				return Layout{}, fmt.Errorf("segment %d: proximal node %d not placed before its children", i, seg.Proximal())
			}
			g.Parent = parent.Section
			g.ParentPos = parent.Pos
		}

		first := 0
		if !seg.OwnsProximal {
			first = 1
		}
		for k := first; k < len(seg.Nodes); k++ {
			layout.Locations[seg.Nodes[k]] = Location{Section: i, Pos: positions[k]}
			logger.Log(context.Background(), logging.LevelTrace, "node placed",
				"node", seg.Nodes[k], "section", i, "pos", positions[k])
		}

		layout.Sections = append(layout.Sections, g)
	}

	logger.Debug("sections built",
		"sections", len(layout.Sections),
		"nodes", len(layout.Locations),
		"fragments", len(layout.RootSections()),
		"resolution", resolution)

	return layout, nil
}

// normalizedPositions returns each node's cumulative distance from the
// proximal node divided by the chain length, and the chain length. A
// zero-length chain maps every node to 0.
func normalizedPositions(s *skeleton.Skeleton, nodes []int64) ([]float64, float64) {
	cum := make([]float64, len(nodes))
	for k := 1; k < len(nodes); k++ {
		cum[k] = cum[k-1] + s.EdgeWeight(nodes[k], nodes[k-1])
	}
	total := cum[len(cum)-1]

	pos := make([]float64, len(nodes))
	if total <= 0 {
		return pos, 0
	}
	for k := range cum {
		pos[k] = math.Min(1, cum[k]/total)
	}
	return pos, total
}
