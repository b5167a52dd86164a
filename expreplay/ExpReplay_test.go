package expreplay

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	ts "github.com/qtraderlab/qtrader/timestep"
)

// transition returns a Transition tagged with id in its reward so that
// individual transitions can be told apart in a batch.
func transition(id int) ts.Transition {
	state := mat.NewVecDense(1, []float64{float64(id)})
	return ts.Transition{
		State:     state,
		Action:    0,
		Reward:    float64(id),
		NextState: state,
	}
}

func newBuffer(t *testing.T, capacity, batchSize int) ExperienceReplayer {
	t.Helper()

	config := Config{MaxReplayCapacity: capacity, SampleSize: batchSize}
	replay, err := config.Create(1)
	if err != nil {
		t.Fatalf("could not create replay buffer: %v", err)
	}
	return replay
}

func TestSampleEmptyBufferReturnsEmptyBatch(t *testing.T) {
	replay := newBuffer(t, 10, 4)

	if batch := replay.Sample(); len(batch) != 0 {
		t.Errorf("expected empty batch, got %v transitions", len(batch))
	}
}

func TestSampleUnderfullBufferReturnsAllStored(t *testing.T) {
	replay := newBuffer(t, 100, 32)

	for i := 0; i < 10; i++ {
		if err := replay.Add(transition(i)); err != nil {
			t.Fatalf("could not add transition: %v", err)
		}
	}

	batch := replay.Sample()
	if len(batch) != 10 {
		t.Fatalf("expected batch of 10, got %v", len(batch))
	}

	// Each stored transition appears exactly once
	seen := make(map[float64]bool)
	for _, tr := range batch {
		if seen[tr.Reward] {
			t.Errorf("transition %v sampled twice in one batch", tr.Reward)
		}
		seen[tr.Reward] = true
	}
	for i := 0; i < 10; i++ {
		if !seen[float64(i)] {
			t.Errorf("transition %v missing from underfull batch", i)
		}
	}
}

func TestSampleBatchHasNoDuplicates(t *testing.T) {
	replay := newBuffer(t, 50, 8)

	for i := 0; i < 50; i++ {
		if err := replay.Add(transition(i)); err != nil {
			t.Fatalf("could not add transition: %v", err)
		}
	}

	for trial := 0; trial < 20; trial++ {
		batch := replay.Sample()
		if len(batch) != 8 {
			t.Fatalf("expected batch of 8, got %v", len(batch))
		}
		seen := make(map[float64]bool)
		for _, tr := range batch {
			if seen[tr.Reward] {
				t.Fatalf("transition %v sampled twice in one batch",
					tr.Reward)
			}
			seen[tr.Reward] = true
		}
	}
}

func TestAddEvictsOldestWhenFull(t *testing.T) {
	capacity := 5
	replay := newBuffer(t, capacity, 5)

	for i := 0; i < capacity+2; i++ {
		if err := replay.Add(transition(i)); err != nil {
			t.Fatalf("could not add transition: %v", err)
		}
	}

	if replay.Capacity() != capacity {
		t.Fatalf("expected capacity %v after overflow, got %v", capacity,
			replay.Capacity())
	}

	// Transitions 0 and 1 were inserted first and should be gone
	stored := make(map[float64]bool)
	for _, tr := range replay.Sample() {
		stored[tr.Reward] = true
	}
	for i := 0; i < 2; i++ {
		if stored[float64(i)] {
			t.Errorf("expected transition %v to be evicted", i)
		}
	}
	for i := 2; i < capacity+2; i++ {
		if !stored[float64(i)] {
			t.Errorf("expected transition %v to be retained", i)
		}
	}
}

func TestNewRejectsIllegalConfigurations(t *testing.T) {
	if _, err := (Config{MaxReplayCapacity: 0, SampleSize: 1}).Create(1); err == nil {
		t.Errorf("expected error for zero capacity")
	}
	if _, err := (Config{MaxReplayCapacity: 10, SampleSize: 0}).Create(1); err == nil {
		t.Errorf("expected error for zero batch size")
	}
	if _, err := (Config{MaxReplayCapacity: 4, SampleSize: 8}).Create(1); err == nil {
		t.Errorf("expected error for batch size above capacity")
	}
}
