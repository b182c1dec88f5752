package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Store persists generated scenarios.
type Store interface {
	Save(*GeneratedScenario) error
	Load(id string) (*GeneratedScenario, error)
	List() ([]string, error)
}

// FileStore keeps one JSON document per scenario, named <id>.json.
type FileStore struct {
	Dir string
}

// NewFileStore creates a FileStore rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (s *FileStore) path(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("invalid scenario id %q", id)
	}
	return filepath.Join(s.Dir, id+".json"), nil
}

// Save writes sc to disk, replacing any previous document with the same id.
func (s *FileStore) Save(sc *GeneratedScenario) error {
	p, err := s.path(sc.ID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create scenario dir: %w", err)
	}
	b, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, append(b, '\n'), 0o644)
}

// Load reads the scenario with id. A missing file yields ErrNotFound.
func (s *FileStore) Load(id string) (*GeneratedScenario, error) {
	p, err := s.path(id)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", id, err)
	}
	var sc GeneratedScenario
	if err := json.Unmarshal(b, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", id, err)
	}
	return &sc, nil
}

// List returns the stored scenario ids in lexical order.
func (s *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}
