package model

import (
	"fmt"

	"github.com/nvandessel/cable/internal/solver"
)

// InsertMechanism inserts mech into the sections at the given indices, or
// into every section when subset is empty. Parameters are set on every
// subdivision.
func (m *Model) InsertMechanism(mech solver.Mechanism, subset []int) error {
	if mech == nil {
		return fmt.Errorf("%w: nil mechanism", solver.ErrUnknownMechanism)
	}
	if err := mech.Validate(); err != nil {
		return fmt.Errorf("mechanism %s: %w", mech.Name(), err)
	}
	idx, err := m.subset(subset)
	if err != nil {
		return err
	}
	for _, i := range idx {
		if err := m.engine.InsertMechanism(m.handles[i], mech); err != nil {
			return fmt.Errorf("section %d: %w", i, err)
		}
	}
	m.logger.Debug("mechanism inserted", "mechanism", mech.Name(), "sections", len(idx))
	return nil
}

// RemoveMechanism removes the named mechanism from the sections at the given
// indices, or from every section when subset is empty. Sections without the
// mechanism are skipped.
func (m *Model) RemoveMechanism(name string, subset []int) error {
	idx, err := m.subset(subset)
	if err != nil {
		return err
	}
	removed := 0
	for _, i := range idx {
		if !m.engine.HasMechanism(m.handles[i], name) {
			continue
		}
		if err := m.engine.RemoveMechanism(m.handles[i], name); err != nil {
			return fmt.Errorf("section %d: %w", i, err)
		}
		removed++
	}
	m.logger.Debug("mechanism removed", "mechanism", name, "sections", removed)
	return nil
}

// HasMechanism reports whether section i carries the named mechanism.
func (m *Model) HasMechanism(i int, name string) (bool, error) {
	h, err := m.Handle(i)
	if err != nil {
		return false, err
	}
	return m.engine.HasMechanism(h, name), nil
}

// subset checks every index before anything is touched.
func (m *Model) subset(subset []int) ([]int, error) {
	if m.state == Cleared {
		return nil, ErrCleared
	}
	if len(subset) == 0 {
		all := make([]int, len(m.handles))
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	for _, i := range subset {
		if i < 0 || i >= len(m.handles) {
			return nil, fmt.Errorf("%w: %d (model has %d sections)", ErrSectionIndex, i, len(m.handles))
		}
	}
	return subset, nil
}
