package solver

import (
	"fmt"
	"math"
	"sync"

	"github.com/nvandessel/cable/internal/constants"
)

// MemoryEngine implements Engine for tests and dry runs. It keeps full
// bookkeeping of sections, mechanisms, point processes and recorders and
// steps a fixed-dt clock, but performs no membrane integration: after Init
// every recorded potential holds vInit and every current holds 0.
type MemoryEngine struct {
	mu sync.Mutex

	dt          float64
	sections    map[SectionID]*MemorySection
	nextSection SectionID
	points      map[PointID]*MemoryPoint
	nextPoint   PointID
	recorders   []*memoryRecorder
	time        *Trace
	t           float64
	vInit       float64
}

// MemorySection is the engine-side state of one section.
type MemorySection struct {
	Name      string
	Length    float64
	Diameter  float64
	NSeg      int
	Ra        float64
	Cm        float64
	Parent    SectionID // -1 when unconnected
	ParentPos float64

	// Mechanisms holds, per mechanism name, one parameter set per subdivision.
	Mechanisms map[string][]map[string]float64
}

// MemoryPoint is the engine-side state of one point process.
type MemoryPoint struct {
	Kind   PointKind
	Site   *Site // nil for spike generators and connectors
	Params PointParams
	Source PointID // connectors only
	Target PointID // connectors only
}

type memoryRecorder struct {
	site     Site
	variable string
	trace    *Trace
}

// NewMemoryEngine creates an engine stepping with dt ms. A non-positive dt
// selects constants.DefaultDt.
func NewMemoryEngine(dt float64) *MemoryEngine {
	if dt <= 0 || math.IsNaN(dt) {
		dt = constants.DefaultDt
	}
	return &MemoryEngine{
		dt:       dt,
		sections: make(map[SectionID]*MemorySection),
		points:   make(map[PointID]*MemoryPoint),
		time:     NewTrace(),
		vInit:    constants.DefaultVInit,
	}
}

// Dt returns the clock step.
func (e *MemoryEngine) Dt() float64 {
	return e.dt
}

// CreateSection implements Engine.
func (e *MemoryEngine) CreateSection(name string) SectionID {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextSection
	e.nextSection++
	e.sections[id] = &MemorySection{
		Name:       name,
		NSeg:       1,
		Ra:         constants.DefaultRa,
		Cm:         constants.DefaultCm,
		Parent:     -1,
		Mechanisms: make(map[string][]map[string]float64),
	}
	return id
}

// SetGeometry implements Engine. Changing nseg resizes mechanism storage,
// copying the first subdivision's values into new subdivisions.
func (e *MemoryEngine) SetGeometry(id SectionID, length, diameter float64, nseg int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	sec, err := e.section(id)
	if err != nil {
		return err
	}
	if nseg < 1 {
		return fmt.Errorf("%w: nseg must be >= 1, got %d", ErrInvalidParameter, nseg)
	}
	sec.Length = length
	sec.Diameter = diameter
	sec.NSeg = nseg
	for name, segs := range sec.Mechanisms {
		sec.Mechanisms[name] = resize(segs, nseg)
	}
	return nil
}

// SetBiophysics implements Engine.
func (e *MemoryEngine) SetBiophysics(id SectionID, ra, cm float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	sec, err := e.section(id)
	if err != nil {
		return err
	}
	if err := positive("Ra", ra); err != nil {
		return err
	}
	if err := positive("cm", cm); err != nil {
		return err
	}
	sec.Ra = ra
	sec.Cm = cm
	return nil
}

// Biophysics implements Engine.
func (e *MemoryEngine) Biophysics(id SectionID) (float64, float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sec, err := e.section(id)
	if err != nil {
		return 0, 0, err
	}
	return sec.Ra, sec.Cm, nil
}

// Connect implements Engine.
func (e *MemoryEngine) Connect(child, parent SectionID, pos float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	sec, err := e.section(child)
	if err != nil {
		return err
	}
	if _, err := e.section(parent); err != nil {
		return err
	}
	if child == parent {
		return fmt.Errorf("%w: section %d cannot connect to itself", ErrInvalidParameter, child)
	}
	if pos < 0 || pos > 1 || math.IsNaN(pos) {
		return fmt.Errorf("%w: connection position must be in [0, 1], got %v", ErrInvalidParameter, pos)
	}
	sec.Parent = parent
	sec.ParentPos = pos
	return nil
}

// InsertMechanism implements Engine. Inserting an existing mechanism
// updates its parameters.
func (e *MemoryEngine) InsertMechanism(id SectionID, m Mechanism) error {
	if m == nil {
		return fmt.Errorf("%w: nil mechanism", ErrUnknownMechanism)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	sec, err := e.section(id)
	if err != nil {
		return err
	}

	segs, ok := sec.Mechanisms[m.Name()]
	if !ok {
		segs = resize(nil, sec.NSeg)
	}
	params := m.Params()
	for _, seg := range segs {
		for k, v := range params {
			seg[k] = v
		}
	}
	sec.Mechanisms[m.Name()] = segs
	return nil
}

// HasMechanism implements Engine.
func (e *MemoryEngine) HasMechanism(id SectionID, name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	sec, ok := e.sections[id]
	if !ok {
		return false
	}
	_, ok = sec.Mechanisms[name]
	return ok
}

// RemoveMechanism implements Engine.
func (e *MemoryEngine) RemoveMechanism(id SectionID, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	sec, err := e.section(id)
	if err != nil {
		return err
	}
	if _, ok := sec.Mechanisms[name]; !ok {
		return fmt.Errorf("%w: section %d has no %q", ErrUnknownMechanism, id, name)
	}
	delete(sec.Mechanisms, name)
	return nil
}

// NewPointProcess implements Engine.
func (e *MemoryEngine) NewPointProcess(at Site, p PointParams) (PointID, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.section(at.Section); err != nil {
		return 0, err
	}
	site := at
	return e.addPoint(&MemoryPoint{Kind: p.Kind(), Site: &site, Params: p}), nil
}

// NewSpikeGenerator implements Engine.
func (e *MemoryEngine) NewSpikeGenerator(p NetStim) (PointID, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.addPoint(&MemoryPoint{Kind: KindNetStim, Params: p}), nil
}

// NewConnector implements Engine.
func (e *MemoryEngine) NewConnector(src, dst PointID, p NetCon) (PointID, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.points[src]; !ok {
		return 0, fmt.Errorf("%w: source %d", ErrUnknownPoint, src)
	}
	if _, ok := e.points[dst]; !ok {
		return 0, fmt.Errorf("%w: target %d", ErrUnknownPoint, dst)
	}
	return e.addPoint(&MemoryPoint{Kind: KindNetCon, Params: p, Source: src, Target: dst}), nil
}

// Record implements Engine. The trace stays empty until the next Init.
func (e *MemoryEngine) Record(at Site, variable string) (*Trace, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.section(at.Section); err != nil {
		return nil, err
	}
	variable = NormalizeVariable(variable)
	if !variables[variable] {
		return nil, fmt.Errorf("%w: cannot record %q", ErrInvalidParameter, variable)
	}
	r := &memoryRecorder{site: at, variable: variable, trace: NewTrace()}
	e.recorders = append(e.recorders, r)
	return r.trace, nil
}

// Init implements Engine.
func (e *MemoryEngine) Init(vInit float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.t = 0
	e.vInit = vInit
	e.time.Reset()
	for _, r := range e.recorders {
		r.trace.Reset()
	}
	e.sample()
}

// Advance implements Engine.
func (e *MemoryEngine) Advance(tstop float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !(tstop > e.t) || math.IsInf(tstop, 0) {
		return
	}
	// Step count is derived from tstop so that float drift in t never adds
	// or drops a final step.
	steps := int(min(math.Round((tstop-e.t)/e.dt), constants.MaxSteps))
	start := e.t
	for i := 1; i <= steps; i++ {
		e.t = start + float64(i)*e.dt
		e.sample()
	}
}

// Time implements Engine.
func (e *MemoryEngine) Time() *Trace {
	return e.time
}

// Release implements Engine. A section stays alive while any point process
// or recorder still sits on it.
func (e *MemoryEngine) Release(id SectionID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.sections[id]; !ok {
		return true
	}
	for _, p := range e.points {
		if p.Site != nil && p.Site.Section == id {
			return false
		}
	}
	for _, r := range e.recorders {
		if r.site.Section == id {
			return false
		}
	}
	delete(e.sections, id)
	for _, sec := range e.sections {
		if sec.Parent == id {
			sec.Parent = -1
			sec.ParentPos = 0
		}
	}
	return true
}

// Sections implements Engine.
func (e *MemoryEngine) Sections() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sections)
}

// Section returns a copy of the engine-side state of a section.
func (e *MemoryEngine) Section(id SectionID) (MemorySection, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sec, ok := e.sections[id]
	if !ok {
		return MemorySection{}, false
	}
	out := *sec
	out.Mechanisms = make(map[string][]map[string]float64, len(sec.Mechanisms))
	for name, segs := range sec.Mechanisms {
		out.Mechanisms[name] = resize(segs, len(segs))
	}
	return out, true
}

// Point returns a copy of the engine-side state of a point process.
func (e *MemoryEngine) Point(id PointID) (MemoryPoint, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.points[id]
	if !ok {
		return MemoryPoint{}, false
	}
	return *p, true
}

// Points returns the number of point processes the engine holds.
func (e *MemoryEngine) Points() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.points)
}

// Recorders returns the number of recorders the engine holds.
func (e *MemoryEngine) Recorders() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.recorders)
}

func (e *MemoryEngine) section(id SectionID) (*MemorySection, error) {
	sec, ok := e.sections[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSection, id)
	}
	return sec, nil
}

func (e *MemoryEngine) addPoint(p *MemoryPoint) PointID {
	id := e.nextPoint
	e.nextPoint++
	e.points[id] = p
	return id
}

// sample appends the current time and every recorded value. Callers hold mu.
func (e *MemoryEngine) sample() {
	e.time.Append(e.t)
	for _, r := range e.recorders {
		if r.variable == "v" {
			r.trace.Append(e.vInit)
			continue
		}
		r.trace.Append(0)
	}
}

// resize returns n parameter maps, copying from segs where present and from
// segs[0] beyond its end.
func resize(segs []map[string]float64, n int) []map[string]float64 {
	out := make([]map[string]float64, n)
	for i := range out {
		var src map[string]float64
		switch {
		case i < len(segs):
			src = segs[i]
		case len(segs) > 0:
			src = segs[0]
		}
		m := make(map[string]float64, len(src))
		for k, v := range src {
			m[k] = v
		}
		out[i] = m
	}
	return out
}
