package simulation_test

import (
	"fmt"
	"testing"

	"github.com/nvandessel/cable/internal/simulation"
	"github.com/nvandessel/cable/internal/skeleton"
)

func TestInvariants_Fixtures(t *testing.T) {
	fixtures := map[string][]skeleton.Node{
		"single":    simulation.Linear(1),
		"linear":    simulation.Linear(12),
		"y":         simulation.YShape(),
		"root-fork": simulation.RootFork(),
		"fragments": simulation.Fragments(),
		"collapsed": simulation.Collapsed(),
	}

	for name, nodes := range fixtures {
		t.Run(name, func(t *testing.T) {
			r := simulation.NewRunner(t)
			result := r.Run(simulation.Scenario{Name: name, Nodes: nodes})
			simulation.AssertInvariants(t, result)
			simulation.AssertEngineMirrors(t, result)
		})
	}
}

func TestInvariants_RandomTrees(t *testing.T) {
	for seed := int64(1); seed <= 25; seed++ {
		t.Run(fmt.Sprintf("seed-%d", seed), func(t *testing.T) {
			r := simulation.NewRunner(t)
			result := r.Run(simulation.Scenario{
				Name:       "random",
				Nodes:      simulation.RandomTree(seed, 80),
				Resolution: 0.5,
			})
			simulation.AssertInvariants(t, result)
			simulation.AssertEngineMirrors(t, result)
		})
	}
}

func TestCountChains(t *testing.T) {
	tests := []struct {
		name  string
		nodes []skeleton.Node
		want  int
	}{
		{"single node", simulation.Linear(1), 1},
		{"linear", simulation.Linear(5), 1},
		{"y", simulation.YShape(), 3},
		{"root fork", simulation.RootFork(), 2},
		{"fragments", simulation.Fragments(), 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := simulation.CountChains(tt.nodes); got != tt.want {
				t.Errorf("CountChains() = %d, want %d", got, tt.want)
			}
		})
	}
}
