package solver

import "sync"

// Trace is a growing series of samples of one quantity over the shared clock.
type Trace struct {
	mu      sync.RWMutex
	samples []float64
}

// NewTrace creates an empty trace.
func NewTrace() *Trace {
	return &Trace{}
}

// Append adds a sample.
func (t *Trace) Append(v float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.samples = append(t.samples, v)
}

// Reset drops all samples.
func (t *Trace) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.samples = t.samples[:0]
}

// Len returns the number of samples.
func (t *Trace) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.samples)
}

// Values returns a copy of all samples.
func (t *Trace) Values() []float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]float64, len(t.samples))
	copy(out, t.samples)
	return out
}

// Last returns the most recent sample and whether there is one.
func (t *Trace) Last() (float64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.samples) == 0 {
		return 0, false
	}
	return t.samples[len(t.samples)-1], true
}
