package simulation

import (
	"github.com/nvandessel/cable/internal/model"
	"github.com/nvandessel/cable/internal/skeleton"
)

// Scenario defines a complete build-instrument-run experiment.
type Scenario struct {
	Name  string
	Nodes []skeleton.Node
	Units string // "" is treated as microns

	// Resolution is the subdivision length; 0 selects the default.
	Resolution float64

	// Setup, when non-nil, instruments the model after it is built.
	Setup func(m *model.Model) error

	// Duration of the run [ms]; 0 skips the run.
	Duration float64
	VInit    float64 // 0 selects the default resting potential
	Dt       float64 // 0 selects the engine default

	// Persist stores the run in the runner's SQLite store.
	Persist bool
}
