// Package experiment implements functionality for running an
// experiment
package experiment

import (
	"github.com/qtraderlab/qtrader/experiment/trackers"
)

// Experiment outlines structs that can run experiments. Experiments
// drive the agent-environment interaction, caching data generated
// along the way in RAM to be later saved to disk with Save().
//
// In order to save data, Experiments use Trackers. Trackers determine
// which data generated during the experiment is saved. Experiments
// send each environmental timestep to each Tracker using the
// Tracker's Track() method, and the Tracker caches whichever data it
// is interested in. New Trackers can be registered with an Experiment
// through the constructor or through the Register() method.
type Experiment interface {
	// Run runs all episodes of the experiment
	Run() error

	// RunEpisode runs a single episode of the experiment
	RunEpisode() error

	// Save all tracked data to disk
	Save()

	// Register adds a new Tracker to the (possibly already running)
	// experiment. Useful to track data only after a specified event.
	Register(t trackers.Tracker)
}
