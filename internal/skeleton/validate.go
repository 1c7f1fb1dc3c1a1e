package skeleton

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/nvandessel/cable/internal/constants"
	"github.com/nvandessel/cable/internal/logging"
)

var (
	// ErrInvalidRadius is returned when a node has a missing, non-positive or
	// non-finite radius.
	ErrInvalidRadius = errors.New("invalid radius")

	// ErrMalformed is returned when the nodes do not form a forest of rooted trees.
	ErrMalformed = errors.New("malformed skeleton")
)

// ValidationError describes a fatal skeleton problem and the nodes involved.
type ValidationError struct {
	Err     error   // ErrInvalidRadius or ErrMalformed
	Issue   string  // e.g. "non-finite coordinates", "dangling-parent", "cycle", "empty"
	NodeIDs []int64 // offending nodes
}

// Error implements error.
func (e *ValidationError) Error() string {
	if len(e.NodeIDs) == 0 {
		return fmt.Sprintf("%v: %s", e.Err, e.Issue)
	}
	return fmt.Sprintf("%v: %s at nodes %s", e.Err, e.Issue, formatIDs(e.NodeIDs))
}

// Unwrap returns the sentinel error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// WarningKind classifies a non-fatal validation finding.
type WarningKind string

const (
	// WarnUnits means the skeleton is not tagged as microns.
	WarnUnits WarningKind = "units"

	// WarnMultipleRoots means the skeleton consists of disconnected fragments.
	WarnMultipleRoots WarningKind = "multiple-roots"
)

// Warning is a non-fatal validation finding. Construction proceeds.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

// Validate checks the structural preconditions for model construction.
// Fatal problems are returned as a *ValidationError. Warnings are logged
// through logger (which may be nil) and returned.
func Validate(s *Skeleton, logger *slog.Logger) ([]Warning, error) {
	logger = logging.OrDiscard(logger)

	if s == nil || s.Len() == 0 {
		return nil, &ValidationError{Err: ErrMalformed, Issue: "empty"}
	}

	if err := checkStructure(s); err != nil {
		return nil, err
	}

	var badRadius, badCoords []int64
	for _, n := range s.nodes {
		if !finite(n.Radius) || n.Radius <= 0 {
			badRadius = append(badRadius, n.ID)
		}
		if !finite(n.X) || !finite(n.Y) || !finite(n.Z) {
			badCoords = append(badCoords, n.ID)
		}
	}
	if len(badRadius) > 0 {
		return nil, &ValidationError{Err: ErrInvalidRadius, Issue: "radius not a positive finite number", NodeIDs: badRadius}
	}
	if len(badCoords) > 0 {
		return nil, &ValidationError{Err: ErrMalformed, Issue: "non-finite coordinates", NodeIDs: badCoords}
	}

	var warnings []Warning
	if !constants.IsDimensionless(s.units) && !constants.IsMicrons(s.units) {
		warnings = append(warnings, Warning{
			Kind:    WarnUnits,
			Message: fmt.Sprintf("model expects coordinates in microns but skeleton has units %q", s.units),
		})
	}
	if n := len(s.roots); n > 1 {
		warnings = append(warnings, Warning{
			Kind:    WarnMultipleRoots,
			Message: fmt.Sprintf("skeleton has %d roots and consists of disconnected fragments", n),
		})
	}

	for _, w := range warnings {
		logger.Warn(w.Message, "kind", string(w.Kind))
	}

	return warnings, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// checkStructure verifies that every parent exists and every node reaches a root.
func checkStructure(s *Skeleton) error {
	var dangling, selfParent []int64
	for _, n := range s.nodes {
		if n.IsRoot() {
			continue
		}
		if n.ParentID == n.ID {
			selfParent = append(selfParent, n.ID)
			continue
		}
		if !s.Has(n.ParentID) {
			dangling = append(dangling, n.ID)
		}
	}
	if len(selfParent) > 0 {
		return &ValidationError{Err: ErrMalformed, Issue: "self-parent", NodeIDs: selfParent}
	}
	if len(dangling) > 0 {
		return &ValidationError{Err: ErrMalformed, Issue: "dangling-parent", NodeIDs: dangling}
	}

	// Walk up from every node; a node that cannot reach a root sits on a cycle.
	const (
		unvisited = iota
		onPath
		rooted
	)
	state := make(map[int64]int, len(s.nodes))
	var cyclic []int64
	for _, n := range s.nodes {
		if state[n.ID] != unvisited {
			continue
		}
		var path []int64
		cur := n.ID
		reached := false
		for {
			st := state[cur]
			if st == rooted {
				reached = true
				break
			}
			if st == onPath {
				break
			}
			state[cur] = onPath
			path = append(path, cur)
			node := s.nodes[s.index[cur]]
			if node.IsRoot() {
				reached = true
				break
			}
			cur = node.ParentID
		}
		if reached {
			for _, id := range path {
				state[id] = rooted
			}
			continue
		}
		cyclic = append(cyclic, path...)
	}
	if len(cyclic) > 0 {
		return &ValidationError{Err: ErrMalformed, Issue: "cycle", NodeIDs: cyclic}
	}

	return nil
}

func formatIDs(ids []int64) string {
	limit := len(ids)
	if limit > constants.MaxReportedNodes {
		limit = constants.MaxReportedNodes
	}
	parts := make([]string, 0, limit+1)
	for _, id := range ids[:limit] {
		parts = append(parts, fmt.Sprintf("%d", id))
	}
	if extra := len(ids) - limit; extra > 0 {
		parts = append(parts, fmt.Sprintf("... and %d more", extra))
	}
	return strings.Join(parts, ", ")
}
