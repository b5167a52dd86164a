// Package trading implements a single-asset trading simulator. The
// asset price follows a Gaussian random walk, and an agent interacts
// with the market by buying, selling, or holding one share at a time.
package trading

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	env "github.com/qtraderlab/qtrader/environment"
	ts "github.com/qtraderlab/qtrader/timestep"
)

const (
	// InitialPrice is the asset price at the start of every episode
	InitialPrice float64 = 100.0

	// MinPrice is the price floor. The random walk never takes the
	// asset price below this value.
	MinPrice float64 = 1.0
)

// Discrete actions
const (
	Hold int = iota
	Buy
	Sell

	MinAction int = Hold
	MaxAction int = Sell
)

const (
	// ObservationDims is the number of features in an observation:
	// asset price, cash in hand, and shares held
	ObservationDims int = 3

	DefaultInitialCash float64 = 10_000.0
	DefaultMaxSteps    int     = 200
)

// Recorder is notified of every executed fill. Gated actions that
// degrade to no-ops produce no fill.
type Recorder interface {
	RecordFill(step, action int, price, cashAfter float64, heldAfter int)
}

// Config implements a configuration of the trading environment
type Config struct {
	InitialCash float64 // Cash in hand at the start of every episode
	MaxSteps    int     // Steps per episode
}

// NewConfig returns a Config with the default simulator settings
func NewConfig() Config {
	return Config{
		InitialCash: DefaultInitialCash,
		MaxSteps:    DefaultMaxSteps,
	}
}

// Validate checks the Config to ensure it describes a legal
// environment
func (c Config) Validate() error {
	if c.InitialCash < 0 {
		return fmt.Errorf("validate: initial cash must be non-negative "+
			"\n\twant(>= 0) \n\thave(%v)", c.InitialCash)
	}
	if c.MaxSteps < 1 {
		return fmt.Errorf("validate: episodes must have a positive step "+
			"limit \n\twant(> 0) \n\thave(%v)", c.MaxSteps)
	}
	return nil
}

// Trading implements the environment.Environment interface for the
// single-asset simulator. The environment state is the current asset
// price, the cash in hand, and the number of shares held.
//
// Buy and Sell orders are gated rather than rejected: a Buy without
// sufficient cash and a Sell without holdings silently degrade to
// Hold. Cash and holdings therefore never go negative.
//
// The per-step reward is the total net worth gained since the start of
// the episode, (cash + held*price) - initialCash, recomputed in full
// on every step.
type Trading struct {
	env.Ender

	initialCash float64
	price       float64
	cash        float64
	held        int

	maxSteps int
	walk     distuv.Normal
	lastStep ts.TimeStep
	recorder Recorder
}

// New creates a new trading environment with the argument Config. All
// randomness in the price walk derives from seed.
func New(config Config, seed uint64) (*Trading, ts.TimeStep, error) {
	if err := config.Validate(); err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %v", err)
	}

	walk := distuv.Normal{
		Mu:    0.0,
		Sigma: 1.0,
		Src:   rand.NewSource(seed),
	}

	trading := &Trading{
		Ender:       env.NewStepLimit(config.MaxSteps),
		initialCash: config.InitialCash,
		price:       InitialPrice,
		cash:        config.InitialCash,
		held:        0,
		maxSteps:    config.MaxSteps,
		walk:        walk,
	}

	firstStep := ts.New(ts.First, 0.0, trading.observation(), 0)
	trading.lastStep = firstStep

	return trading, firstStep, nil
}

// Register registers a Recorder to be notified of executed fills
func (t *Trading) Register(r Recorder) {
	t.recorder = r
}

// Reset resets the environment between episodes and returns the
// starting timestep
func (t *Trading) Reset() ts.TimeStep {
	t.price = InitialPrice
	t.cash = t.initialCash
	t.held = 0

	startStep := ts.New(ts.First, 0.0, t.observation(), 0)
	t.lastStep = startStep

	return startStep
}

// Step takes one environmental step given an action and returns the
// next timestep and whether it is the last in the episode. The asset
// price moves before the action executes, so orders fill at the new
// price.
func (t *Trading) Step(action mat.Vector) (ts.TimeStep, bool) {
	a := int(action.AtVec(0))
	if a < MinAction || a > MaxAction {
		panic(fmt.Sprintf("step: illegal action %v ∉ [%v, %v]", a,
			MinAction, MaxAction))
	}

	// Advance the price walk, never letting the price hit zero
	t.price += t.walk.Rand()
	if t.price < MinPrice {
		t.price = MinPrice
	}

	// Execute the order. Orders the account cannot honour degrade to
	// Hold.
	filled := false
	switch a {
	case Buy:
		if t.cash >= t.price {
			t.cash -= t.price
			t.held++
			filled = true
		}
	case Sell:
		if t.held > 0 {
			t.cash += t.price
			t.held--
			filled = true
		}
	}

	reward := t.cash + float64(t.held)*t.price - t.initialCash

	nextStep := ts.New(ts.Mid, reward, t.observation(), t.lastStep.Number+1)
	t.End(&nextStep)
	t.lastStep = nextStep

	if filled && t.recorder != nil {
		t.recorder.RecordFill(nextStep.Number, a, t.price, t.cash, t.held)
	}

	return nextStep, nextStep.Last()
}

// ObservationSpec returns the observation specification of the
// environment
func (t *Trading) ObservationSpec() env.Spec {
	shape := mat.NewVecDense(ObservationDims, nil)
	lowerBound := mat.NewVecDense(ObservationDims, []float64{MinPrice, 0, 0})
	upperBound := mat.NewVecDense(ObservationDims, []float64{
		math.Inf(1), math.Inf(1), math.Inf(1),
	})

	return env.NewSpec(shape, env.Observation, lowerBound, upperBound,
		env.Continuous)
}

// ActionSpec returns the action specification of the environment
func (t *Trading) ActionSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{float64(MinAction)})
	upperBound := mat.NewVecDense(1, []float64{float64(MaxAction)})

	return env.NewSpec(shape, env.Action, lowerBound, upperBound,
		env.Discrete)
}

// String returns a string representation of the environment
func (t *Trading) String() string {
	str := "Trading  |  Price: %.2f  |  Cash: %.2f  |  Held: %v"
	return fmt.Sprintf(str, t.price, t.cash, t.held)
}

// observation returns the current state observation
func (t *Trading) observation() mat.Vector {
	return mat.NewVecDense(ObservationDims, []float64{
		t.price,
		t.cash,
		float64(t.held),
	})
}
