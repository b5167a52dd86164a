package trading

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	ts "github.com/qtraderlab/qtrader/timestep"
)

// newDriftEnv returns a trading environment whose price walk moves by
// exactly mu on every step, making price trajectories deterministic.
func newDriftEnv(t *testing.T, cash float64, maxSteps int,
	mu float64) *Trading {
	t.Helper()

	config := Config{InitialCash: cash, MaxSteps: maxSteps}
	trading, _, err := New(config, 1)
	if err != nil {
		t.Fatalf("could not create environment: %v", err)
	}

	trading.walk = distuv.Normal{
		Mu:    mu,
		Sigma: 0.0,
		Src:   rand.NewSource(1),
	}
	return trading
}

func action(a int) mat.Vector {
	return mat.NewVecDense(1, []float64{float64(a)})
}

func TestStepClampsPriceAtFloor(t *testing.T) {
	trading := newDriftEnv(t, DefaultInitialCash, 10, -2*InitialPrice)

	step, _ := trading.Step(action(Hold))

	if price := step.Observation.AtVec(0); price != MinPrice {
		t.Errorf("expected price clamped to %v, got %v", MinPrice, price)
	}

	// The floor persists under continued downward drift
	step, _ = trading.Step(action(Hold))
	if price := step.Observation.AtVec(0); price != MinPrice {
		t.Errorf("expected price to stay at %v, got %v", MinPrice, price)
	}
}

func TestBuyWithoutCashDegradesToHold(t *testing.T) {
	trading := newDriftEnv(t, 0.0, 10, 0.0)

	step, _ := trading.Step(action(Buy))

	if cash := step.Observation.AtVec(1); cash != 0.0 {
		t.Errorf("expected cash to remain 0, got %v", cash)
	}
	if held := step.Observation.AtVec(2); held != 0.0 {
		t.Errorf("expected no shares held, got %v", held)
	}
	if step.Reward != 0.0 {
		t.Errorf("expected reward 0 after gated buy, got %v", step.Reward)
	}
}

func TestSellWithoutHoldingsDegradesToHold(t *testing.T) {
	trading := newDriftEnv(t, DefaultInitialCash, 10, 0.0)

	step, _ := trading.Step(action(Sell))

	if cash := step.Observation.AtVec(1); cash != DefaultInitialCash {
		t.Errorf("expected cash to remain %v, got %v", DefaultInitialCash,
			cash)
	}
	if held := step.Observation.AtVec(2); held != 0.0 {
		t.Errorf("expected no shares held, got %v", held)
	}
}

func TestRewardIsNetWorthDelta(t *testing.T) {
	// Price drifts up by 2 per step: 100 -> 102 -> 104
	trading := newDriftEnv(t, DefaultInitialCash, 10, 2.0)

	// Buy one share at 102. Net worth is unchanged by the fill itself.
	step, _ := trading.Step(action(Buy))
	if step.Reward != 0.0 {
		t.Errorf("expected reward 0 immediately after buy, got %v",
			step.Reward)
	}

	// Hold while the price appreciates to 104. The held share is now
	// worth 2 more than was paid for it.
	step, _ = trading.Step(action(Hold))
	if math.Abs(step.Reward-2.0) > 1e-9 {
		t.Errorf("expected reward 2 after appreciation, got %v",
			step.Reward)
	}

	// Sell at 106 locks in a gain of 4
	step, _ = trading.Step(action(Sell))
	if math.Abs(step.Reward-4.0) > 1e-9 {
		t.Errorf("expected reward 4 after sell, got %v", step.Reward)
	}
	if held := step.Observation.AtVec(2); held != 0.0 {
		t.Errorf("expected no shares held after sell, got %v", held)
	}
}

func TestEpisodeEndsAtStepLimit(t *testing.T) {
	maxSteps := 5
	trading := newDriftEnv(t, DefaultInitialCash, maxSteps, 0.0)

	for i := 1; i < maxSteps; i++ {
		step, last := trading.Step(action(Hold))
		if last || step.Last() {
			t.Fatalf("episode ended early at step %v", i)
		}
	}

	step, last := trading.Step(action(Hold))
	if !last || !step.Last() {
		t.Errorf("expected episode to end at step %v", maxSteps)
	}
	if step.StepType != ts.Last {
		t.Errorf("expected step type %v, got %v", ts.Last, step.StepType)
	}
}

func TestResetRestoresStartingState(t *testing.T) {
	trading := newDriftEnv(t, DefaultInitialCash, 10, 2.0)

	trading.Step(action(Buy))
	trading.Step(action(Buy))

	step := trading.Reset()

	if !step.First() {
		t.Errorf("expected a First timestep after reset")
	}
	if step.Number != 0 {
		t.Errorf("expected timestep number 0, got %v", step.Number)
	}

	want := []float64{InitialPrice, DefaultInitialCash, 0.0}
	for i, w := range want {
		if got := step.Observation.AtVec(i); got != w {
			t.Errorf("observation[%v]: expected %v, got %v", i, w, got)
		}
	}
}

type fillLog struct {
	steps   []int
	actions []int
}

func (f *fillLog) RecordFill(step, action int, price, cashAfter float64,
	heldAfter int) {
	f.steps = append(f.steps, step)
	f.actions = append(f.actions, action)
}

func TestRecorderSeesOnlyExecutedFills(t *testing.T) {
	trading := newDriftEnv(t, DefaultInitialCash, 10, 0.0)
	log := &fillLog{}
	trading.Register(log)

	trading.Step(action(Sell)) // gated, no holdings
	trading.Step(action(Buy))  // fills
	trading.Step(action(Hold)) // no order
	trading.Step(action(Sell)) // fills

	if len(log.actions) != 2 {
		t.Fatalf("expected 2 fills, got %v", len(log.actions))
	}
	if log.actions[0] != Buy || log.actions[1] != Sell {
		t.Errorf("expected fills [Buy, Sell], got %v", log.actions)
	}
	if log.steps[0] != 2 || log.steps[1] != 4 {
		t.Errorf("expected fills at steps [2, 4], got %v", log.steps)
	}
}

func TestStepPanicsOnIllegalAction(t *testing.T) {
	trading := newDriftEnv(t, DefaultInitialCash, 10, 0.0)

	defer func() {
		if recover() == nil {
			t.Errorf("expected panic on illegal action")
		}
	}()
	trading.Step(action(MaxAction + 1))
}

func TestConfigValidation(t *testing.T) {
	if _, _, err := New(Config{InitialCash: -1, MaxSteps: 10}, 1); err == nil {
		t.Errorf("expected error for negative initial cash")
	}
	if _, _, err := New(Config{InitialCash: 100, MaxSteps: 0}, 1); err == nil {
		t.Errorf("expected error for non-positive step limit")
	}
}
