package checkpointer

import (
	"bytes"
	"encoding/gob"
	"os"
	"path/filepath"
	"testing"
)

// weights is a minimal Serializable for testing
type weights struct {
	Values []float64
}

func (w *weights) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(w.Values); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (w *weights) GobDecode(data []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(data))
	return dec.Decode(&w.Values)
}

func TestFilenameEnumeratorCountsUp(t *testing.T) {
	next := FilenameEnumerator(0, "weights", ".bin")

	want := []string{"weights1.bin", "weights2.bin", "weights3.bin"}
	for _, w := range want {
		if got := next(); got != w {
			t.Errorf("expected filename %v, got %v", w, got)
		}
	}
}

func TestTrainingRoundSavesEveryNRounds(t *testing.T) {
	dir := t.TempDir()
	next := FilenameEnumerator(0, filepath.Join(dir, "weights"), ".bin")

	object := &weights{Values: []float64{1, 2, 3}}
	check := NewTrainingRound(2, object, next)

	for i := 0; i < 5; i++ {
		if err := check.Checkpoint(); err != nil {
			t.Fatalf("checkpoint failed: %v", err)
		}
	}

	// Rounds 2 and 4 save; rounds 1, 3, and 5 do not
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("could not read checkpoint directory: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 checkpoint files, got %v", len(entries))
	}
}

func TestCheckpointAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	next := FilenameEnumerator(0, filepath.Join(dir, "weights"), ".bin")

	object := &weights{Values: []float64{0.5, -1.5, 2.0}}
	check := NewTrainingRound(1, object, next)

	if err := check.Checkpoint(); err != nil {
		t.Fatalf("checkpoint failed: %v", err)
	}

	restored := &weights{}
	filename := filepath.Join(dir, "weights1.bin")
	if err := Load(filename, restored); err != nil {
		t.Fatalf("could not load checkpoint: %v", err)
	}

	if len(restored.Values) != len(object.Values) {
		t.Fatalf("expected %v values, got %v", len(object.Values),
			len(restored.Values))
	}
	for i, v := range object.Values {
		if restored.Values[i] != v {
			t.Errorf("value[%v]: expected %v, got %v", i, v,
				restored.Values[i])
		}
	}
}

func TestCheckpointReportsUnwritableDestination(t *testing.T) {
	object := &weights{Values: []float64{1}}
	check := NewTrainingRound(1, object, func() string {
		return filepath.Join("no", "such", "directory", "weights.bin")
	})

	if err := check.Checkpoint(); err == nil {
		t.Errorf("expected an error for an unwritable destination")
	}
}
