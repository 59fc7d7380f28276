package artifact

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/namnv2496/gameforge/internal/model"
)

// Store owns the single generated program on disk. Every Write replaces the
// previous version; nothing is kept.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Write persists source atomically (temp file + rename) so a crash never
// leaves a half-written program behind.
func (s *Store) Write(source string) (model.SourceArtifact, error) {
	if err := WriteFile(s.path, source); err != nil {
		return model.SourceArtifact{}, err
	}
	return model.SourceArtifact{Path: s.path, Content: source}, nil
}

func (s *Store) Read() (model.SourceArtifact, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return model.SourceArtifact{}, fmt.Errorf("read artifact %s: %w", s.path, err)
	}
	return model.SourceArtifact{Path: s.path, Content: string(data)}, nil
}

// WriteFile creates the parent directory and replaces path with content.
func WriteFile(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), fs.FileMode(0644)); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
