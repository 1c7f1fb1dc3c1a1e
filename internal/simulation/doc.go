// Package simulation provides a scenario harness for validating compartment
// models built from skeletons.
//
// The harness exercises the real skeleton validator, section builder, model
// and SQLiteResultStore on top of the in-memory solver engine. Scenarios are
// Go builders that name a skeleton fixture, a resolution, an instrumentation
// setup and a run, and the runner captures the built layout, the recorded
// traces and the persisted run for property-based assertions.
//
// Each test gets an isolated SQLite database via t.TempDir() and a sandboxed
// HOME to prevent touching user data.
//
// Usage:
//
//	func TestYShape(t *testing.T) {
//	    r := simulation.NewRunner(t)
//	    result := r.Run(simulation.Scenario{
//	        Name:     "y-shape",
//	        Nodes:    simulation.YShape(),
//	        Duration: 5,
//	        Setup: func(m *model.Model) error {
//	            return m.AddVoltageRecord([]int64{3}, "")
//	        },
//	    })
//	    simulation.AssertInvariants(t, result)
//	    simulation.AssertSectionCount(t, result, 3)
//	}
package simulation
