// Package deepq implements the deep Q-learning algorithm: an
// epsilon-greedy policy over a learned value function, trained from
// batches of replayed experience against a lagging target network.
package deepq

import (
	"fmt"
	"math/rand"
	"os"

	"gonum.org/v1/gonum/mat"

	env "github.com/qtraderlab/qtrader/environment"
	"github.com/qtraderlab/qtrader/expreplay"
	"github.com/qtraderlab/qtrader/network"
	ts "github.com/qtraderlab/qtrader/timestep"
	"github.com/qtraderlab/qtrader/utils/floatutils"
)

// DeepQ implements the deep Q-learning algorithm with experience
// replay and a target network.
//
// The target network is an independent parameter copy of the online
// network, used only to compute bootstrap targets. It is refreshed by
// SyncTarget as a full, atomic snapshot copy and is never partially
// updated. Training happens once per episode: a batch is drawn from
// the replay buffer, the online network takes one optimization step
// per sampled transition, and the exploration rate decays once for
// the whole round.
type DeepQ struct {
	online network.ValueFunction
	target network.ValueFunction

	replay expreplay.ExperienceReplayer

	numActions int

	gamma        float64
	epsilon      float64
	epsilonMin   float64
	epsilonDecay float64

	rng *rand.Rand

	// Previous state, used to construct transitions for the replay
	// buffer
	prevStep ts.TimeStep

	eval bool // Whether or not in evaluation mode
}

// New creates and returns a new DeepQ agent for an environment. All
// action-selection randomness derives from seed.
func New(e env.Environment, config Config, seed int64) (*DeepQ, error) {
	// Ensure environment has discrete actions
	if e.ActionSpec().Cardinality != env.Discrete {
		return nil, fmt.Errorf("deepq: cannot use non-discrete actions")
	}

	// Ensure actions are one-dimensional
	if e.ActionSpec().LowerBound.Len() > 1 {
		return nil, fmt.Errorf("deepq: actions must be 1-dimensional")
	}

	// Ensure actions are enumerated from 0
	if e.ActionSpec().LowerBound.AtVec(0) != 0.0 {
		return nil, fmt.Errorf("deepq: actions must be enumerated " +
			"starting from 0")
	}

	// Ensure the configuration is valid
	if err := config.Validate(); err != nil {
		return nil, err
	}

	numActions := int(e.ActionSpec().UpperBound.AtVec(0)) + 1
	numFeatures := e.ObservationSpec().Shape.Len()

	// Online network, updated on every training step
	online, err := network.NewQMLP(numFeatures, numActions,
		config.PolicyLayers, config.Biases, config.Activations,
		config.InitWFn, config.LearningRate)
	if err != nil {
		return nil, fmt.Errorf("new: could not create online network: %v",
			err)
	}

	// Target network, a lagging parameter copy of the online network
	target, err := online.Clone()
	if err != nil {
		return nil, fmt.Errorf("new: could not create target network: %v",
			err)
	}

	replay, err := config.ExpReplay.Create(seed)
	if err != nil {
		return nil, fmt.Errorf("new: could not create experience replay "+
			"buffer: %v", err)
	}

	return newFromParts(online, target, replay, numActions, config, seed),
		nil
}

// newFromParts wires a DeepQ agent from already-constructed
// collaborators. The online and target value functions may be any
// ValueFunction implementation.
func newFromParts(online, target network.ValueFunction,
	replay expreplay.ExperienceReplayer, numActions int, config Config,
	seed int64) *DeepQ {
	source := rand.NewSource(seed)

	return &DeepQ{
		online:       online,
		target:       target,
		replay:       replay,
		numActions:   numActions,
		gamma:        config.Gamma,
		epsilon:      config.Epsilon,
		epsilonMin:   config.EpsilonMin,
		epsilonDecay: config.EpsilonDecay,
		rng:          rand.New(source),
	}
}

// ObserveFirst observes and records the first episodic timestep
func (d *DeepQ) ObserveFirst(t ts.TimeStep) {
	if !t.First() {
		fmt.Fprintf(os.Stderr, "Warning: ObserveFirst() should only be "+
			"called on the first timestep (current timestep = %d)\n",
			t.Number)
	}
	d.prevStep = t
}

// Observe observes and records any timestep other than the first
// timestep, adding the completed transition to the replay buffer
func (d *DeepQ) Observe(action mat.Vector, nextStep ts.TimeStep) {
	if action.Len() != 1 {
		fmt.Fprintf(os.Stderr, "Warning: value-based methods should not "+
			"have multi-dimensional actions (action dim = %d)\n",
			action.Len())
	}

	transition := ts.NewTransition(d.prevStep, int(action.AtVec(0)),
		nextStep)
	if err := d.replay.Add(transition); err != nil {
		panic(fmt.Sprintf("observe: could not record transition: %v", err))
	}

	d.prevStep = nextStep
}

// SelectAction returns an action chosen epsilon-greedily with respect
// to the online value function. In evaluation mode the action is
// always greedy. Greedy ties resolve to the lowest action index.
func (d *DeepQ) SelectAction(t ts.TimeStep) *mat.VecDense {
	if !d.eval && d.rng.Float64() < d.epsilon {
		action := d.rng.Intn(d.numActions)
		return mat.NewVecDense(1, []float64{float64(action)})
	}

	actionValues, err := d.online.Evaluate(t.Observation)
	if err != nil {
		panic(fmt.Sprintf("selectaction: %v", err))
	}

	action := floatutils.ArgMax(actionValues)
	return mat.NewVecDense(1, []float64{float64(action)})
}

// TrainBatch performs one training round: it samples a batch of
// transitions from the replay buffer and takes one optimization step
// on the online network per transition, bootstrapping non-terminal
// targets from the target network:
//
//	Q(s, a) <- r                                   if s' is terminal
//	Q(s, a) <- r + γ * max[Q_target(s', a')]       otherwise
//
// The exploration rate decays once per call, regardless of how many
// transitions were sampled, and never drops below its floor.
func (d *DeepQ) TrainBatch() error {
	batch := d.replay.Sample()

	for _, transition := range batch {
		// Only the taken action's value is overwritten; the online
		// estimates for all other actions are the regression targets
		// for themselves
		target, err := d.online.Evaluate(transition.State)
		if err != nil {
			return fmt.Errorf("trainbatch: could not evaluate state: %v",
				err)
		}

		update := transition.Reward
		if !transition.Terminal {
			nextValues, err := d.target.Evaluate(transition.NextState)
			if err != nil {
				return fmt.Errorf("trainbatch: could not evaluate next "+
					"state: %v", err)
			}
			update += d.gamma * floatutils.Max(nextValues...)
		}
		target[transition.Action] = update

		if err := d.online.Update(transition.State, target); err != nil {
			return fmt.Errorf("trainbatch: could not update online "+
				"network: %v", err)
		}
	}

	// One decay per training round, not per transition
	d.epsilon = floatutils.Max(d.epsilonMin, d.epsilon*d.epsilonDecay)

	return nil
}

// SyncTarget synchronizes the target network by overwriting its
// parameters with a full snapshot of the online network's parameters
func (d *DeepQ) SyncTarget() error {
	if err := d.target.SetParameters(d.online.Parameters()); err != nil {
		return fmt.Errorf("synctarget: %v", err)
	}
	return nil
}

// EndEpisode performs one training round followed by a target network
// synchronization
func (d *DeepQ) EndEpisode() error {
	if err := d.TrainBatch(); err != nil {
		return fmt.Errorf("endepisode: %v", err)
	}
	if err := d.SyncTarget(); err != nil {
		return fmt.Errorf("endepisode: %v", err)
	}
	return nil
}

// Epsilon returns the current exploration rate
func (d *DeepQ) Epsilon() float64 {
	return d.epsilon
}

// OnlineNetwork returns the online value function, whose parameters
// are checkpointed between training rounds
func (d *DeepQ) OnlineNetwork() network.ValueFunction {
	return d.online
}

// Eval sets the agent into evaluation mode
func (d *DeepQ) Eval() {
	d.eval = true
}

// Train sets the agent into training mode
func (d *DeepQ) Train() {
	d.eval = false
}

// IsEval returns whether the agent is in evaluation mode
func (d *DeepQ) IsEval() bool {
	return d.eval
}
