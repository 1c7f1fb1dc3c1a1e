package solver

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrUnknownMechanism is returned for mechanisms without a registered schema.
	ErrUnknownMechanism = errors.New("unknown mechanism")

	// ErrUnknownParameter is returned for parameter names outside a mechanism's schema.
	ErrUnknownParameter = errors.New("unknown mechanism parameter")
)

// Mechanism is a distributed kinetics model applied to every subdivision of
// a section.
type Mechanism interface {
	// Name is the engine-side mechanism name, e.g. "pas" or "hh".
	Name() string

	// Params returns the parameter values to set, keyed by schema name.
	Params() map[string]float64

	// Validate checks the parameters against the mechanism's schema.
	Validate() error
}

var (
	schemaMu sync.RWMutex
	schemas  = map[string][]string{
		"pas": {"e", "g"},
		"hh":  {"el", "gkbar", "gl", "gnabar"},
	}
)

// RegisterSchema declares the allowed parameter names of a mechanism. It
// replaces any earlier schema of the same name.
func RegisterSchema(name string, params ...string) {
	schemaMu.Lock()
	defer schemaMu.Unlock()
	p := append([]string(nil), params...)
	sort.Strings(p)
	schemas[name] = p
}

// Schema returns the allowed parameter names of a mechanism.
func Schema(name string) ([]string, bool) {
	schemaMu.RLock()
	defer schemaMu.RUnlock()
	p, ok := schemas[name]
	if !ok {
		return nil, false
	}
	return append([]string(nil), p...), true
}

// ValidateParams checks every key of params against the schema of name.
func ValidateParams(name string, params map[string]float64) error {
	allowed, ok := Schema(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMechanism, name)
	}
	set := make(map[string]bool, len(allowed))
	for _, p := range allowed {
		set[p] = true
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !set[k] {
			return fmt.Errorf("%w: %s has no parameter %q (allowed: %s)",
				ErrUnknownParameter, name, k, strings.Join(allowed, ", "))
		}
		if err := finite(k, params[k]); err != nil {
			return err
		}
	}
	return nil
}

// Passive is the leak conductance mechanism "pas".
type Passive struct {
	G float64 `json:"g" yaml:"g"` // leak conductance [S/cm^2]
	E float64 `json:"e" yaml:"e"` // leak reversal potential [mV]
}

// Name implements Mechanism.
func (Passive) Name() string { return "pas" }

// Params implements Mechanism.
func (p Passive) Params() map[string]float64 {
	return map[string]float64{"g": p.G, "e": p.E}
}

// Validate implements Mechanism.
func (p Passive) Validate() error {
	if err := nonNegative("g", p.G); err != nil {
		return err
	}
	return finite("e", p.E)
}

// HH is the Hodgkin-Huxley mechanism "hh".
type HH struct {
	GNaBar float64 `json:"gnabar" yaml:"gnabar"` // [S/cm^2]
	GKBar  float64 `json:"gkbar" yaml:"gkbar"`   // [S/cm^2]
	GL     float64 `json:"gl" yaml:"gl"`         // [S/cm^2]
	EL     float64 `json:"el" yaml:"el"`         // [mV]
}

// DefaultHH returns the classic squid axon parameters.
func DefaultHH() HH {
	return HH{GNaBar: 0.12, GKBar: 0.036, GL: 0.0003, EL: -54.3}
}

// Name implements Mechanism.
func (HH) Name() string { return "hh" }

// Params implements Mechanism.
func (p HH) Params() map[string]float64 {
	return map[string]float64{"gnabar": p.GNaBar, "gkbar": p.GKBar, "gl": p.GL, "el": p.EL}
}

// Validate implements Mechanism.
func (p HH) Validate() error {
	for _, kv := range []struct {
		name string
		v    float64
	}{{"gnabar", p.GNaBar}, {"gkbar", p.GKBar}, {"gl", p.GL}} {
		if err := nonNegative(kv.name, kv.v); err != nil {
			return err
		}
	}
	return finite("el", p.EL)
}

// Generic is any mechanism with a registered schema. Only the listed values
// are set; the rest keep engine defaults.
type Generic struct {
	MechName string             `json:"name" yaml:"name"`
	Values   map[string]float64 `json:"params,omitempty" yaml:"params,omitempty"`
}

// Name implements Mechanism.
func (g Generic) Name() string { return g.MechName }

// Params implements Mechanism.
func (g Generic) Params() map[string]float64 {
	out := make(map[string]float64, len(g.Values))
	for k, v := range g.Values {
		out[k] = v
	}
	return out
}

// Validate implements Mechanism.
func (g Generic) Validate() error {
	if g.MechName == "" {
		return fmt.Errorf("%w: empty name", ErrUnknownMechanism)
	}
	return ValidateParams(g.MechName, g.Values)
}
