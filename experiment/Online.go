package experiment

import (
	"fmt"
	"log"

	"gonum.org/v1/gonum/mat"

	"github.com/qtraderlab/qtrader/agent"
	env "github.com/qtraderlab/qtrader/environment"
	"github.com/qtraderlab/qtrader/experiment/checkpointer"
	"github.com/qtraderlab/qtrader/experiment/trackers"
	ts "github.com/qtraderlab/qtrader/timestep"
)

// Online is an Experiment that runs an agent online for a fixed
// number of episodes. The agent trains at the end of every episode:
// one batch training round followed by a target synchronization, and
// then a best-effort checkpoint of whatever the experiment's
// Checkpointers track. A failed checkpoint write is logged and never
// interrupts training.
type Online struct {
	env.Environment
	agent.Agent

	episodes       int
	currentEpisode int
	trackers       []trackers.Tracker
	checkpointers  []checkpointer.Checkpointer
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given agent. The episodes parameter determines
// how many episodes the experiment runs. The t parameter determines
// what data is tracked and saved, and the c parameter what state is
// checkpointed between episodes.
func NewOnline(e env.Environment, a agent.Agent, episodes int,
	t []trackers.Tracker, c []checkpointer.Checkpointer) *Online {
	return &Online{
		Environment:   e,
		Agent:         a,
		episodes:      episodes,
		trackers:      t,
		checkpointers: c,
	}
}

// Register registers a Tracker with the Experiment so that data
// generated during the experiment can be tracked and saved
func (o *Online) Register(t trackers.Tracker) {
	o.trackers = append(o.trackers, t)
}

// RunEpisode runs a single episode of the experiment
func (o *Online) RunEpisode() error {
	step := o.Environment.Reset()
	o.Agent.ObserveFirst(step)
	o.track(step)

	for !step.Last() {
		// Select action, step in environment
		action := o.Agent.SelectAction(step)
		o.trackAction(action)
		step, _ = o.Environment.Step(action)

		// Cache the environment step in each Tracker
		o.track(step)

		// Observe the timestep
		o.Agent.Observe(action, step)
	}

	// Train on a replayed batch and refresh the target network, once
	// per episode
	if err := o.Agent.EndEpisode(); err != nil {
		return fmt.Errorf("runepisode: could not train agent: %v", err)
	}
	o.currentEpisode++

	o.checkpoint()

	return nil
}

// Run runs the entire experiment for all episodes
func (o *Online) Run() error {
	for o.currentEpisode < o.episodes {
		if err := o.RunEpisode(); err != nil {
			return fmt.Errorf("run: episode %v: %v", o.currentEpisode+1,
				err)
		}
	}
	return nil
}

// Save saves all the data cached by the Trackers to disk
func (o *Online) Save() {
	for _, tracker := range o.trackers {
		tracker.Save()
	}
}

// track tracks the current timestep by caching its data in each
// Tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tracker := range o.trackers {
		tracker.Track(t)
	}
}

// trackAction sends the selected action to each Tracker that records
// actions
func (o *Online) trackAction(action mat.Vector) {
	for _, tracker := range o.trackers {
		if at, ok := tracker.(trackers.ActionTracker); ok {
			at.TrackAction(action)
		}
	}
}

// checkpoint saves the state tracked by each Checkpointer. Checkpoint
// persistence is a best-effort side channel: failures are reported
// but training continues in memory.
func (o *Online) checkpoint() {
	for _, c := range o.checkpointers {
		if err := c.Checkpoint(); err != nil {
			log.Printf("checkpoint: could not save: %v", err)
		}
	}
}
