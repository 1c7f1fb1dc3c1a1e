package model

import (
	"github.com/nvandessel/cable/internal/sections"
	"github.com/nvandessel/cable/internal/solver"
)

// Resolve returns the location of every id, in argument order. If any id is
// unknown the result is nil and the error is a *LookupError listing all of
// them.
func (m *Model) Resolve(ids ...int64) ([]sections.Location, error) {
	if m.state == Cleared {
		return nil, ErrCleared
	}

	locs := make([]sections.Location, len(ids))
	var missing []int64
	for i, id := range ids {
		loc, ok := m.layout.Locations[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		locs[i] = loc
	}
	if len(missing) > 0 {
		return nil, &LookupError{IDs: missing}
	}
	return locs, nil
}

// Locate returns the location of a single node.
func (m *Model) Locate(id int64) (sections.Location, error) {
	locs, err := m.Resolve(id)
	if err != nil {
		return sections.Location{}, err
	}
	return locs[0], nil
}

// target is a resolved instrumentation target.
type target struct {
	node int64
	loc  sections.Location
	site solver.Site
}

// targets resolves where into engine sites. Nothing is mutated on error.
func (m *Model) targets(where []int64) ([]target, error) {
	if m.state == Cleared {
		return nil, ErrCleared
	}
	if len(where) == 0 {
		return nil, ErrNoTargets
	}
	locs, err := m.Resolve(where...)
	if err != nil {
		return nil, err
	}
	out := make([]target, len(where))
	for i, id := range where {
		out[i] = target{
			node: id,
			loc:  locs[i],
			site: solver.Site{Section: m.handles[locs[i].Section], Pos: locs[i].Pos},
		}
	}
	return out, nil
}
