package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Store manages a snapshot file.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a store for path. The format follows the extension.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) isJSON() bool {
	return strings.EqualFold(filepath.Ext(s.path), ".json")
}

// Save writes the snapshot, creating parent directories as needed.
func (s *Store) Save(snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	out := *snap
	out.Version = SnapshotVersion

	var (
		data []byte
		err  error
	)
	if s.isJSON() {
		data, err = json.MarshalIndent(&out, "", "  ")
	} else {
		data, err = yaml.Marshal(&out)
	}
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0644)
}

// Load reads the snapshot.
// Returns nil, nil if the file doesn't exist.
func (s *Store) Load() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{}
	if s.isJSON() {
		err = json.Unmarshal(data, snap)
	} else {
		err = yaml.Unmarshal(data, snap)
	}
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Clear removes the snapshot file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
