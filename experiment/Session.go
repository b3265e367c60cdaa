package experiment

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/samuelfneumann/navdqn/agent"
	"github.com/samuelfneumann/navdqn/experiment/checkpointer"
)

// Artifact filenames written to a session directory
const (
	ModelFile  = "model.bin"
	ParamsFile = "params.txt"
	ConfigFile = "config.json"
	ArenaFile  = "arena.png"
)

// Session is the directory holding the artifacts of one training run
type Session struct {
	dir string
}

// NewSession creates the directory
// <outDir>/<name>-<timestamp>-<id> where id is the first eight
// characters of a random UUID
func NewSession(outDir, name string, now time.Time) (*Session, error) {
	id := uuid.New().String()[:8]
	dir := filepath.Join(outDir, fmt.Sprintf("%v-%v-%v", name,
		now.Format("2006-01-02-15-04-05"), id))

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("newSession: %v", err)
	}
	return &Session{dir}, nil
}

// Dir returns the session directory
func (s *Session) Dir() string {
	return s.dir
}

// Path returns the path of the named file in the session directory
func (s *Session) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// WriteFile writes data to the named file in the session directory
func (s *Session) WriteFile(name string, data []byte) error {
	if err := os.WriteFile(s.Path(name), data, 0o644); err != nil {
		return fmt.Errorf("writeFile: %v", err)
	}
	return nil
}

// SaveModel saves model to the model file of the session
func (s *Session) SaveModel(model checkpointer.Serializable) error {
	file, err := os.Create(s.Path(ModelFile))
	if err != nil {
		return fmt.Errorf("saveModel: %v", err)
	}

	if err := model.Save(file); err != nil {
		file.Close()
		return fmt.Errorf("saveModel: %v", err)
	}
	return file.Close()
}

// Checkpointer returns a Checkpointer saving model to
// checkpoint-0001.bin, checkpoint-0002.bin, ... in the session
// directory every n episodes
func (s *Session) Checkpointer(n int,
	model checkpointer.Serializable) checkpointer.Checkpointer {
	return checkpointer.NewNEpisode(n, model,
		checkpointer.Enumerate(s.dir, "checkpoint", ".bin"))
}

// LoadModel loads the parameters saved at path into model
func LoadModel(path string, model agent.Persistent) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("loadModel: %v", err)
	}
	defer file.Close()

	if err := model.Load(file); err != nil {
		return fmt.Errorf("loadModel: %v", err)
	}
	return nil
}
