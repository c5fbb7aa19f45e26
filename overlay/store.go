package overlay

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Store persists named deltas in one file. The format follows the file
// extension: .yaml/.yml use YAML, anything else JSON.
type Store struct {
	mu     sync.Mutex
	path   string
	deltas map[string]Delta
}

// Open loads the store at path. A missing file yields an empty store.
func Open(path string) (*Store, error) {
	s := &Store{path: path, deltas: map[string]Delta{}}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("overlay: read %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return s, nil
	}
	if s.yaml() {
		err = yaml.Unmarshal(b, &s.deltas)
	} else {
		err = json.Unmarshal(b, &s.deltas)
	}
	if err != nil {
		return nil, fmt.Errorf("overlay: decode %s: %w", path, err)
	}
	if s.deltas == nil {
		s.deltas = map[string]Delta{}
	}
	return s, nil
}

func (s *Store) yaml() bool {
	switch strings.ToLower(filepath.Ext(s.path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Names lists stored delta names in sorted order.
func (s *Store) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.deltas))
	for k := range s.deltas {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Get returns the delta stored under name.
func (s *Store) Get(name string) Delta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deltas[name]
}

// All returns a copy of every stored delta.
func (s *Store) All() map[string]Delta {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Delta, len(s.deltas))
	for k, v := range s.deltas {
		out[k] = v
	}
	return out
}

// Put replaces the delta stored under name. Empty deltas are dropped.
func (s *Store) Put(name string, d Delta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.Empty() {
		delete(s.deltas, name)
		return
	}
	s.deltas[name] = d
}

// Edit loads the named delta into a Set against baseline, applies fn and
// stores the result.
func (s *Store) Edit(name string, baseline []string, fn func(*Set)) []string {
	set := NewSet(baseline, s.Get(name))
	fn(set)
	s.Put(name, set.Delta())
	return set.Effective()
}

// Save writes the store atomically (temp file + rename).
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var (
		b   []byte
		err error
	)
	if s.yaml() {
		b, err = yaml.Marshal(s.deltas)
	} else {
		b, err = json.MarshalIndent(s.deltas, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("overlay: encode: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("overlay: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".overlay-*")
	if err != nil {
		return fmt.Errorf("overlay: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("overlay: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("overlay: %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}
