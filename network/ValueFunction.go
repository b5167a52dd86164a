// Package network implements value function approximators backed by
// neural networks
package network

import (
	"gonum.org/v1/gonum/mat"
)

// ValueFunction is an approximator of per-action values. Given an
// environment with N actions, Evaluate predicts N values, one for
// each action, and Update performs one optimization step that moves
// the prediction for a state toward a target vector.
//
// Parameters and SetParameters expose the approximator's parameters
// as a flat snapshot so that a lagging copy of a ValueFunction can be
// synchronized by a full parameter copy. Any implementation honouring
// this contract is substitutable: a lookup table, a linear model, or
// a neural network.
type ValueFunction interface {
	// Evaluate predicts the value of every action in a state. It is
	// side-effect free: parameters do not change.
	Evaluate(state mat.Vector) ([]float64, error)

	// Update performs a single optimization step moving the
	// prediction for state toward target
	Update(state mat.Vector, target []float64) error

	// Parameters returns a point-in-time copy of all parameters
	Parameters() []float64

	// SetParameters overwrites all parameters with a snapshot
	// previously obtained from Parameters()
	SetParameters(params []float64) error

	// Outputs returns the number of predicted action values
	Outputs() int
}
