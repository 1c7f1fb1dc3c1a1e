package store

import (
	"github.com/nvandessel/cable/internal/model"
)

// RunMeta describes how a run was produced.
type RunMeta struct {
	Source   string
	Duration float64
	VInit    float64
	Dt       float64
}

// FromModel captures the layout, clock and recorder samples of a model that
// has run. Call it before Clear; a cleared model has no sections.
func FromModel(m *model.Model, meta RunMeta) RunRecord {
	run := RunRecord{
		Source:     meta.Source,
		ModelID:    m.ID(),
		Nodes:      m.Skeleton().Len(),
		Resolution: m.Resolution(),
		Ra:         m.Ra(),
		Cm:         m.Cm(),
		Duration:   meta.Duration,
		VInit:      meta.VInit,
		Dt:         meta.Dt,
		Sections:   m.Sections(),
		Time:       m.Time(),
	}
	for _, rec := range m.Records() {
		run.Traces = append(run.Traces, TraceRecord{
			Key:      rec.Key(),
			Node:     rec.Node,
			Label:    rec.Label,
			Variable: rec.Variable,
			Section:  rec.Location.Section,
			Pos:      rec.Location.Pos,
			Values:   rec.Values(),
		})
	}
	return run
}
