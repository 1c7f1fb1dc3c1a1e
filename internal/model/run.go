package model

// Run reinitializes every model on the shared context to vInit [mV] and
// advances the clock to duration [ms]. Recorders of other models on the
// same context are overwritten too.
func (m *Model) Run(duration, vInit float64) error {
	if m.state == Cleared {
		return ErrCleared
	}
	if err := m.ctx.Run(duration, vInit); err != nil {
		return err
	}
	m.state = Simulated

	samples := 0
	if t := m.ctx.Time(); t != nil {
		samples = t.Len()
	}
	m.logger.Debug("run complete", "duration", duration, "v_init", vInit, "samples", samples)
	m.cfg.Journal.Event("run",
		"model", m.id,
		"duration", duration,
		"v_init", vInit,
		"samples", samples,
		"records", m.labeled.Len()+m.byNode.Len(),
	)
	return nil
}

// Time returns a copy of the shared time trace [ms].
func (m *Model) Time() []float64 {
	t := m.ctx.Time()
	if t == nil {
		return nil
	}
	return t.Values()
}

// HasRun reports whether the shared clock holds samples, i.e. whether any
// model on the context has run.
func (m *Model) HasRun() bool {
	t := m.ctx.Time()
	return t != nil && t.Len() > 0
}

// Clear forgets all instrumentation, invalidates every section handle and
// asks the engine to release the sections. Release is best-effort: the
// engine may keep sections that its own point processes or recorders still
// reference, and the notice reports how many it confirmed.
func (m *Model) Clear() ReleaseNotice {
	if m.state == Cleared {
		return ReleaseNotice{}
	}

	m.ClearRecords()
	m.ClearStimuli()
	m.ClearSynapses()

	notice := ReleaseNotice{Requested: len(m.handles)}
	for _, h := range m.handles {
		if m.engine.Release(h) {
			notice.Confirmed++
		}
	}
	m.handles = nil
	m.layout.Sections = nil
	m.layout.Locations = nil
	m.state = Cleared
	m.ctx.Detach()

	if !notice.Complete() {
		m.logger.Info("sections outlive model", "requested", notice.Requested, "confirmed", notice.Confirmed)
	}
	m.cfg.Journal.Event("clear",
		"model", m.id,
		"requested", notice.Requested,
		"confirmed", notice.Confirmed,
	)
	return notice
}
