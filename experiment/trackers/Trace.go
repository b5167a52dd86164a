package trackers

import (
	"encoding/gob"
	"log"
	"os"

	"gonum.org/v1/gonum/mat"

	ts "github.com/qtraderlab/qtrader/timestep"
)

// Trace tracks the per-step asset price and the action the agent took
// at that price. The Tracker records every episode but retains only
// the most recently completed one, so after an experiment finishes it
// holds the trading decisions of the final episode.
//
// Trace assumes the asset price is the first feature of the
// observation vector.
type Trace struct {
	prices  []float64
	actions []int

	lastPrices  []float64
	lastActions []int

	filename string
}

// NewTrace creates and returns a new *Trace Tracker
func NewTrace(filename string) *Trace {
	return &Trace{filename: filename}
}

// Track tracks the asset price observed on a timestep. On the last
// timestep of an episode the running trace is finalized and replaces
// the previously retained episode.
func (tr *Trace) Track(step ts.TimeStep) {
	if step.First() {
		tr.prices = tr.prices[:0]
		tr.actions = tr.actions[:0]
	}

	tr.prices = append(tr.prices, step.Observation.AtVec(0))

	if step.Last() {
		tr.lastPrices = append([]float64{}, tr.prices...)
		tr.lastActions = append([]int{}, tr.actions...)
	}
}

// TrackAction tracks the action selected at the most recently tracked
// price
func (tr *Trace) TrackAction(action mat.Vector) {
	tr.actions = append(tr.actions, int(action.AtVec(0)))
}

// Prices returns the ordered asset prices of the last completed
// episode. The slice holds one more entry than Actions(): the price
// observed on the episode's final step, after the last action.
func (tr *Trace) Prices() []float64 {
	out := make([]float64, len(tr.lastPrices))
	copy(out, tr.lastPrices)
	return out
}

// Actions returns the ordered actions of the last completed episode.
// Actions()[i] is the action taken at price Prices()[i].
func (tr *Trace) Actions() []int {
	out := make([]int, len(tr.lastActions))
	copy(out, tr.lastActions)
	return out
}

// Save saves the last completed episode's trace to disk
func (tr *Trace) Save() {
	file, err := os.Create(tr.filename)
	if err != nil {
		log.Fatalf("could not open save file: %v", err)
	}
	defer file.Close()

	en := gob.NewEncoder(file)
	if err = en.Encode(tr.lastPrices); err != nil {
		log.Fatalf("could not encode price trace: %v", err)
	}
	if err = en.Encode(tr.lastActions); err != nil {
		log.Fatalf("could not encode action trace: %v", err)
	}
}

// LoadTrace loads and returns the price and action traces saved by a
// Trace Tracker
func LoadTrace(filename string) ([]float64, []int) {
	file, err := os.Open(filename)
	if err != nil {
		log.Fatalf("could not open data file: %v", err)
	}
	defer file.Close()

	dec := gob.NewDecoder(file)

	var prices []float64
	if err := dec.Decode(&prices); err != nil {
		log.Fatalf("could not decode price trace: %v", err)
	}

	var actions []int
	if err := dec.Decode(&actions); err != nil {
		log.Fatalf("could not decode action trace: %v", err)
	}

	return prices, actions
}
