// Package constants provides named constants used throughout the cable codebase.
// This centralizes biophysical defaults and discretization parameters.
package constants

// Discretization constants
const (
	// DefaultResolution is the approximate maximum subdivision length in microns.
	// Lower values yield more subdivisions per section.
	DefaultResolution = 1.0

	// DefaultDt is the fixed integration step of the shared clock in ms.
	DefaultDt = 0.025

	// MaxSteps caps the integration steps of a single run. At DefaultDt
	// this is about 105 s of simulated time.
	MaxSteps = 1 << 22
)

// Biophysical defaults applied to every freshly built section.
const (
	// DefaultRa is the specific axial resistance in Ohm*cm.
	DefaultRa = 35.4

	// DefaultCm is the specific membrane capacitance in uF/cm^2.
	DefaultCm = 1.0
)

// Simulation defaults
const (
	// DefaultDuration is the default simulated time in ms.
	DefaultDuration = 25.0

	// DefaultVInit is the default initial membrane potential in mV.
	DefaultVInit = -65.0
)

// Instrumentation defaults, in ms, mV, nA and uS.
const (
	// DefaultStimOnset is the onset of pulses, alpha synapses and spike trains.
	DefaultStimOnset = 5.0

	// DefaultPulseDuration is the duration of an injected current pulse.
	DefaultPulseDuration = 1.0

	// DefaultPulseCurrent is the amplitude of an injected current pulse.
	DefaultPulseCurrent = 0.1

	// DefaultSpikeInterval is the interval between generated presynaptic spikes.
	DefaultSpikeInterval = 10.0

	// DefaultConnectorThreshold is the presynaptic trigger potential of a connector.
	DefaultConnectorThreshold = 10.0

	// DefaultConnectorDelay is the delay between presynaptic trigger and postsynaptic event.
	DefaultConnectorDelay = 1.0
)

// MaxReportedNodes caps how many offending node ids an error message lists.
const MaxReportedNodes = 10
