package floatutils

import "testing"

func TestClip(t *testing.T) {
	if got := Clip(5.0, 0.0, 1.0); got != 1.0 {
		t.Errorf("expected 1, got %v", got)
	}
	if got := Clip(-5.0, 0.0, 1.0); got != 0.0 {
		t.Errorf("expected 0, got %v", got)
	}
	if got := Clip(0.5, 0.0, 1.0); got != 0.5 {
		t.Errorf("expected 0.5, got %v", got)
	}
}

func TestMaxSlice(t *testing.T) {
	max, indices := MaxSlice([]float64{1.0, 3.0, 3.0, 2.0})
	if max != 3.0 {
		t.Errorf("expected max 3, got %v", max)
	}
	if len(indices) != 2 || indices[0] != 1 || indices[1] != 2 {
		t.Errorf("expected indices [1 2], got %v", indices)
	}

	max, indices = MaxSlice([]float64{4.0, 1.0})
	if max != 4.0 || len(indices) != 1 || indices[0] != 0 {
		t.Errorf("expected max 4 at index 0, got %v at %v", max, indices)
	}
}

func TestArgMaxBreaksTiesTowardLowestIndex(t *testing.T) {
	if got := ArgMax([]float64{1.0, 2.0, 2.0}); got != 1 {
		t.Errorf("expected index 1, got %v", got)
	}
	if got := ArgMax([]float64{7.0, 7.0, 7.0}); got != 0 {
		t.Errorf("expected index 0, got %v", got)
	}
	if got := ArgMax([]float64{-1.0, -3.0}); got != 0 {
		t.Errorf("expected index 0, got %v", got)
	}
}

func TestMinAndMax(t *testing.T) {
	if got := Min(3.0, 1.0, 2.0); got != 1.0 {
		t.Errorf("expected 1, got %v", got)
	}
	if got := Max(3.0, 1.0, 2.0); got != 3.0 {
		t.Errorf("expected 3, got %v", got)
	}
}
