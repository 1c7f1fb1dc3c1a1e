package model

import "github.com/nvandessel/cable/internal/solver"

// Projection neuron biophysics (Tobin et al. 2017).
const (
	ProjectionNeuronRa = 266.1         // [Ohm*cm]
	ProjectionNeuronCm = 0.8           // [uF/cm^2]
	ProjectionNeuronG  = 1.0 / 20800.0 // leak conductance 1/Rm [S/cm^2]
	ProjectionNeuronE  = -60.0         // leak reversal [mV]
)

// ApplyProjectionNeuron sets olfactory projection neuron biophysics on every
// section and inserts the passive leak. With active set, Hodgkin-Huxley
// channels are inserted as well. The skeleton must be in microns.
func ApplyProjectionNeuron(m *Model, active bool) error {
	if err := m.SetRa(ProjectionNeuronRa); err != nil {
		return err
	}
	if err := m.SetCm(ProjectionNeuronCm); err != nil {
		return err
	}
	if err := m.InsertMechanism(solver.Passive{G: ProjectionNeuronG, E: ProjectionNeuronE}, nil); err != nil {
		return err
	}
	if active {
		return m.InsertMechanism(solver.DefaultHH(), nil)
	}
	return nil
}
