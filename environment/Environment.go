// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	"gonum.org/v1/gonum/mat"

	"github.com/qtraderlab/qtrader/timestep"
)

// Ender determines when an episode in an environment ends
type Ender interface {
	// End takes the most recent timestep in the environment, modifies
	// its StepType to timestep.Last if the episode has ended, and
	// returns whether the episode has ended
	End(*timestep.TimeStep) bool
}

// Environment implements a simulated environment that an agent can
// interact with
type Environment interface {
	// Reset resets the environment between episodes and returns the
	// starting timestep
	Reset() timestep.TimeStep

	// Step takes one environmental step given an action and returns
	// the next timestep and whether it is the last in the episode
	Step(action mat.Vector) (timestep.TimeStep, bool)

	ObservationSpec() Spec
	ActionSpec() Spec
}
