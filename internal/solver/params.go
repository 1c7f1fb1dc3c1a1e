package solver

import (
	"errors"
	"fmt"
	"math"

	"github.com/nvandessel/cable/internal/constants"
)

// ErrInvalidParameter is returned when a parameter value is out of range.
var ErrInvalidParameter = errors.New("invalid parameter")

// PointKind names a point process type.
type PointKind string

const (
	KindIClamp       PointKind = "IClamp"       // constant current pulse
	KindExp2Syn      PointKind = "Exp2Syn"      // two-exponential synapse
	KindAlphaSynapse PointKind = "AlphaSynapse" // exponential-decay conductance
	KindNetStim      PointKind = "NetStim"      // spike generator
	KindNetCon       PointKind = "NetCon"       // generator-to-process connector
)

// PointParams is implemented by the typed parameter sets of located point
// processes.
type PointParams interface {
	Kind() PointKind
	Validate() error
}

// IClamp injects a constant current for a fixed duration.
type IClamp struct {
	Delay float64 `json:"delay"` // onset [ms]
	Dur   float64 `json:"dur"`   // duration [ms]
	Amp   float64 `json:"amp"`   // current [nA]
}

// Kind implements PointParams.
func (IClamp) Kind() PointKind { return KindIClamp }

// Validate implements PointParams.
func (p IClamp) Validate() error {
	if err := nonNegative("delay", p.Delay); err != nil {
		return err
	}
	if err := nonNegative("dur", p.Dur); err != nil {
		return err
	}
	return finite("amp", p.Amp)
}

// Exp2Syn is a synapse with separate rise and decay time constants.
type Exp2Syn struct {
	Tau1 float64 `json:"tau1"` // rise [ms]
	Tau2 float64 `json:"tau2"` // decay [ms]
	E    float64 `json:"e"`    // reversal potential [mV]
	I    float64 `json:"i"`    // synaptic current [nA]
}

// DefaultExp2Syn returns the default synapse kinetics.
func DefaultExp2Syn() Exp2Syn {
	return Exp2Syn{Tau1: 0.1, Tau2: 10, E: 0, I: 0.1}
}

// Kind implements PointParams.
func (Exp2Syn) Kind() PointKind { return KindExp2Syn }

// Validate implements PointParams.
func (p Exp2Syn) Validate() error {
	if err := positive("tau1", p.Tau1); err != nil {
		return err
	}
	if err := positive("tau2", p.Tau2); err != nil {
		return err
	}
	if err := finite("e", p.E); err != nil {
		return err
	}
	return finite("i", p.I)
}

// AlphaSynapse is a conductance that rises at onset and decays with tau.
type AlphaSynapse struct {
	Onset float64 `json:"onset"` // [ms]
	Tau   float64 `json:"tau"`   // decay [ms]
	E     float64 `json:"e"`     // reversal potential [mV]
	GMax  float64 `json:"gmax"`  // peak conductance [uS]
}

// Kind implements PointParams.
func (AlphaSynapse) Kind() PointKind { return KindAlphaSynapse }

// Validate implements PointParams.
func (p AlphaSynapse) Validate() error {
	if err := nonNegative("onset", p.Onset); err != nil {
		return err
	}
	if err := positive("tau", p.Tau); err != nil {
		return err
	}
	if err := finite("e", p.E); err != nil {
		return err
	}
	return nonNegative("gmax", p.GMax)
}

// NetStim generates a train of presynaptic spikes.
type NetStim struct {
	Start    float64 `json:"start"`    // first spike [ms]
	Number   int     `json:"number"`   // spike count
	Interval float64 `json:"interval"` // between spikes [ms]
	Noise    float64 `json:"noise"`    // timing jitter fraction in [0, 1]
}

// DefaultNetStim returns a single spike at the default onset.
func DefaultNetStim() NetStim {
	return NetStim{
		Start:    constants.DefaultStimOnset,
		Number:   1,
		Interval: constants.DefaultSpikeInterval,
		Noise:    0,
	}
}

// Kind implements PointParams.
func (NetStim) Kind() PointKind { return KindNetStim }

// Validate implements PointParams.
func (p NetStim) Validate() error {
	if err := nonNegative("start", p.Start); err != nil {
		return err
	}
	if p.Number < 0 {
		return fmt.Errorf("%w: number must be >= 0, got %d", ErrInvalidParameter, p.Number)
	}
	if err := positive("interval", p.Interval); err != nil {
		return err
	}
	if math.IsNaN(p.Noise) || p.Noise < 0 || p.Noise > 1 {
		return fmt.Errorf("%w: noise must be in [0, 1], got %v", ErrInvalidParameter, p.Noise)
	}
	return nil
}

// NetCon links a spike source to a target with a trigger threshold, delay
// and weight.
type NetCon struct {
	Threshold float64 `json:"threshold"` // presynaptic trigger [mV]
	Delay     float64 `json:"delay"`     // [ms]
	Weight    float64 `json:"weight"`
}

// DefaultNetCon returns the default connector settings.
func DefaultNetCon() NetCon {
	return NetCon{
		Threshold: constants.DefaultConnectorThreshold,
		Delay:     constants.DefaultConnectorDelay,
		Weight:    0,
	}
}

// Kind implements PointParams.
func (NetCon) Kind() PointKind { return KindNetCon }

// Validate implements PointParams.
func (p NetCon) Validate() error {
	if err := finite("threshold", p.Threshold); err != nil {
		return err
	}
	if err := nonNegative("delay", p.Delay); err != nil {
		return err
	}
	return finite("weight", p.Weight)
}

func finite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be finite, got %v", ErrInvalidParameter, name, v)
	}
	return nil
}

func nonNegative(name string, v float64) error {
	if err := finite(name, v); err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("%w: %s must be >= 0, got %v", ErrInvalidParameter, name, v)
	}
	return nil
}

func positive(name string, v float64) error {
	if err := finite(name, v); err != nil {
		return err
	}
	if v <= 0 {
		return fmt.Errorf("%w: %s must be > 0, got %v", ErrInvalidParameter, name, v)
	}
	return nil
}
