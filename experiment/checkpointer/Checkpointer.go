// Package checkpointer implements periodic snapshots of the learned
// parameters during training
package checkpointer

import "io"

// Serializable is an object that can be saved/serialized
type Serializable interface {
	Save(w io.Writer) error
}

// Checkpointer checkpoints/saves serializable objects at the end of
// episodes
type Checkpointer interface {
	// Checkpoint is called after the episode with the given index has
	// finished and returns the path written to, or "" if no
	// checkpoint was taken
	Checkpoint(episode int) (string, error)
}
