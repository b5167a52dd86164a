package checkpointer

// trainingRound implements checkpointing every N training rounds
type trainingRound struct {
	interval int
	rounds   int
	object   Serializable // Object to save

	// filename returns the string filename of the file to save the
	// object in.
	//
	// If each serialized object should be saved in a separate file
	// with each file having an incremented number as a suffix (e.g.
	// file1.bin, file2.bin, ..., fileK.bin), use the static function
	// FilenameEnumerator, which will return a function that
	// enumerates filenames.
	filename func() string
}

// NewTrainingRound returns a Checkpointer that saves its tracked
// object every n training rounds.
func NewTrainingRound(n int, object Serializable,
	filename func() string) Checkpointer {
	return &trainingRound{
		interval: n,
		object:   object,
		filename: filename,
	}
}

// Checkpoint checkpoints the Checkpointer's tracked object by
// serializing it to the next file in the sequence
func (t *trainingRound) Checkpoint() error {
	t.rounds++
	if t.rounds%t.interval == 0 {
		return save(t.object, t.filename())
	}
	return nil
}
