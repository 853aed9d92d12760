package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store persists generated MIDI files and returns the filename clients use
// to fetch them.
type Store interface {
	Save(data []byte) (string, error)
}

// FilesystemStore writes artifacts into a directory served as static files
type FilesystemStore struct {
	dir string
}

// NewFilesystemStore creates the directory if needed
func NewFilesystemStore(dir string) (*FilesystemStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &FilesystemStore{dir: dir}, nil
}

// Save writes the MIDI bytes under a collision-resistant generated name
func (s *FilesystemStore) Save(data []byte) (string, error) {
	name := fmt.Sprintf("generated_%s.mid", strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return name, nil
}

// Dir returns the backing directory
func (s *FilesystemStore) Dir() string {
	return s.dir
}
