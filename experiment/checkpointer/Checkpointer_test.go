package checkpointer

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type text string

func (t text) Save(w io.Writer) error {
	if t == "" {
		return errors.New("nothing to save")
	}
	_, err := io.WriteString(w, string(t))
	return err
}

func TestNEpisode(t *testing.T) {
	dir := t.TempDir()
	c := NewNEpisode(3, text("weights"), Enumerate(dir, "model", ".bin"))

	var paths []string
	for episode := 0; episode < 7; episode++ {
		path, err := c.Checkpoint(episode)
		require.NoError(t, err)
		if path != "" {
			paths = append(paths, path)
		}
	}

	require.Equal(t, []string{
		filepath.Join(dir, "model-0001.bin"),
		filepath.Join(dir, "model-0002.bin"),
	}, paths)

	data, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	require.Equal(t, "weights", string(data))
}

func TestNEpisodeSaveError(t *testing.T) {
	c := NewNEpisode(1, text(""), Enumerate(t.TempDir(), "model", ".bin"))
	_, err := c.Checkpoint(0)
	require.Error(t, err)

	require.Panics(t, func() { NewNEpisode(0, text("x"), nil) })
}
