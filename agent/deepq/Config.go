package deepq

import (
	"fmt"

	G "gorgonia.org/gorgonia"

	"github.com/qtraderlab/qtrader/expreplay"
	"github.com/qtraderlab/qtrader/network"
)

// Default hyperparameters
const (
	DefaultGamma        float64 = 0.95
	DefaultEpsilon      float64 = 1.0
	DefaultEpsilonMin   float64 = 0.01
	DefaultEpsilonDecay float64 = 0.995
	DefaultLearningRate float64 = 0.001

	DefaultReplayCapacity int = 2000
	DefaultBatchSize      int = 32
)

// Config implements a configuration for a DeepQ agent
type Config struct {
	PolicyLayers []int                 // Layer sizes in neural net
	Biases       []bool                // Whether each layer should have a bias
	Activations  []*network.Activation // Activation of each layer

	// Initialization algorithm for weights
	InitWFn G.InitWFn

	LearningRate float64

	// Exploration schedule. Epsilon decays multiplicatively by
	// EpsilonDecay once per training round and never drops below
	// EpsilonMin.
	Epsilon      float64
	EpsilonMin   float64
	EpsilonDecay float64

	Gamma float64 // Discount factor

	// Experience replay parameters
	ExpReplay expreplay.Config
}

// NewConfig returns a Config with the default DeepQ hyperparameters
// and a two-layer ReLU value network
func NewConfig() Config {
	return Config{
		PolicyLayers: []int{24, 24},
		Biases:       []bool{true, true},
		Activations: []*network.Activation{
			network.ReLU(),
			network.ReLU(),
		},
		InitWFn:      G.GlorotU(1.0),
		LearningRate: DefaultLearningRate,
		Epsilon:      DefaultEpsilon,
		EpsilonMin:   DefaultEpsilonMin,
		EpsilonDecay: DefaultEpsilonDecay,
		Gamma:        DefaultGamma,
		ExpReplay: expreplay.Config{
			MaxReplayCapacity: DefaultReplayCapacity,
			SampleSize:        DefaultBatchSize,
		},
	}
}

// BatchSize returns the batch size of the agent constructed using
// this Config
func (c Config) BatchSize() int {
	return c.ExpReplay.SampleSize
}

// Validate checks a Config to ensure it is a valid configuration of a
// DeepQ agent.
func (c Config) Validate() error {
	if len(c.PolicyLayers) != len(c.Biases) {
		return fmt.Errorf("validate: invalid number of biases\n\twant(%v)"+
			"\n\thave(%v)", len(c.PolicyLayers), len(c.Biases))
	}

	if len(c.PolicyLayers) != len(c.Activations) {
		return fmt.Errorf("validate: invalid number of activations"+
			"\n\twant(%v)\n\thave(%v)", len(c.PolicyLayers),
			len(c.Activations))
	}

	if c.Epsilon < 0 || c.Epsilon > 1 {
		return fmt.Errorf("validate: epsilon must be in [0, 1] "+
			"\n\thave(%v)", c.Epsilon)
	}

	if c.EpsilonMin < 0 || c.EpsilonMin > c.Epsilon {
		return fmt.Errorf("validate: epsilon min must be in [0, epsilon] "+
			"\n\thave(%v)", c.EpsilonMin)
	}

	if c.EpsilonDecay <= 0 || c.EpsilonDecay > 1 {
		return fmt.Errorf("validate: epsilon decay must be in (0, 1] "+
			"\n\thave(%v)", c.EpsilonDecay)
	}

	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("validate: discount must be in [0, 1] "+
			"\n\thave(%v)", c.Gamma)
	}

	if c.LearningRate <= 0 {
		return fmt.Errorf("validate: learning rate must be positive "+
			"\n\thave(%v)", c.LearningRate)
	}

	if c.ExpReplay.MaxReplayCapacity < 1 {
		return fmt.Errorf("validate: replay capacity must be positive "+
			"\n\thave(%v)", c.ExpReplay.MaxReplayCapacity)
	}

	if c.ExpReplay.SampleSize < 1 ||
		c.ExpReplay.SampleSize > c.ExpReplay.MaxReplayCapacity {
		return fmt.Errorf("validate: batch size must be in [1, capacity] "+
			"\n\thave(%v)", c.ExpReplay.SampleSize)
	}

	return nil
}
