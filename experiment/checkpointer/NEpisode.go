package checkpointer

import (
	"fmt"
	"os"
	"path/filepath"
)

// nEpisode implements checkpointing every N episodes
type nEpisode struct {
	interval int
	object   Serializable // Object to save

	// filename returns the filename of the next checkpoint. To number
	// the checkpoints use Enumerate.
	filename func() string
}

// NewNEpisode returns a checkpointer that checkpoints after every n
// episodes. It panics if n < 1.
func NewNEpisode(n int, object Serializable,
	filename func() string) Checkpointer {
	if n < 1 {
		panic(fmt.Sprintf("newNEpisode: interval should be positive"+
			"\n\twant(>0)\n\thave(%v)", n))
	}
	return &nEpisode{
		interval: n,
		object:   object,
		filename: filename,
	}
}

// Checkpoint saves the tracked object when episode + 1 is a multiple of
// the interval
func (n *nEpisode) Checkpoint(episode int) (string, error) {
	if (episode+1)%n.interval != 0 {
		return "", nil
	}

	path := n.filename()
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("checkpoint: %v", err)
	}

	if err := n.object.Save(file); err != nil {
		file.Close()
		return "", fmt.Errorf("checkpoint: %v", err)
	}
	return path, file.Close()
}

// Enumerate returns a function returning the paths dir/prefix-0001ext,
// dir/prefix-0002ext and so on, one per call
func Enumerate(dir, prefix, ext string) func() string {
	i := 0
	return func() string {
		i++
		return filepath.Join(dir, fmt.Sprintf("%v-%04d%v", prefix, i, ext))
	}
}
