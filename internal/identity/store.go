// Package identity persists privacy profiles. Records are owned by the
// options UI; the core reads them and performs exactly one kind of write:
// merging decoy characteristics after a confirmed pollution send.
package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/januspriv/janus/internal/model"
)

// ErrNotFound is returned when an identity id has no record on disk.
var ErrNotFound = errors.New("identity not found")

// validID matches alphanumeric, dash, underscore, and dot characters only.
var validID = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// validateID rejects ids that could cause path traversal.
func validateID(id string) error {
	if id == "" {
		return fmt.Errorf("id must not be empty")
	}
	if strings.Contains(id, "..") {
		return fmt.Errorf("id must not contain '..'")
	}
	if !validID.MatchString(id) {
		return fmt.Errorf("id contains invalid characters: only alphanumeric, dash, underscore, and dot are allowed")
	}
	return nil
}

// Store manages identity records on disk. Profile metadata lives under
// identities/, avatar binaries under avatars/ — separated so the small synced
// records never carry large blobs.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore creates a Store rooted at the given directory.
func NewStore(dir string) (*Store, error) {
	for _, sub := range []string{"identities", "avatars"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0700); err != nil {
			return nil, fmt.Errorf("cannot create identity directory: %w", err)
		}
	}
	return &Store{dir: dir}, nil
}

// DefaultDir returns the default identity store directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "janus-identities")
	}
	return filepath.Join(home, ".janus", "identities")
}

// Dir returns the record directory, for watchers.
func (s *Store) Dir() string {
	return filepath.Join(s.dir, "identities")
}

// Root returns the store root, which holds the selection pointer.
func (s *Store) Root() string {
	return s.dir
}

func (s *Store) recordPath(id string) string {
	return filepath.Join(s.dir, "identities", id+".json")
}

func (s *Store) selectedPath() string {
	return filepath.Join(s.dir, "selected")
}

// Get returns the identity with the given id.
func (s *Store) Get(id string) (*model.Identity, error) {
	if err := validateID(id); err != nil {
		return nil, fmt.Errorf("invalid identity id: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(id)
}

// List returns all identities sorted by name.
func (s *Store) List() ([]model.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(filepath.Join(s.dir, "identities"))
	if err != nil {
		return nil, fmt.Errorf("identity: read store: %w", err)
	}

	var out []model.Identity
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		id, err := s.read(strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			continue // skip unreadable records, options UI owns repair
		}
		out = append(out, *id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Save writes an identity record. An empty ID is assigned a fresh one.
func (s *Store) Save(id *model.Identity) error {
	if id.ID == "" {
		id.ID = uuid.NewString()
	}
	if err := validateID(id.ID); err != nil {
		return fmt.Errorf("invalid identity id: %w", err)
	}
	if id.CreatedAt.IsZero() {
		id.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeAtomic(s.recordPath(id.ID), id)
}

// Delete removes an identity record and its avatar. Deleting the selected
// identity clears the selection.
func (s *Store) Delete(id string) error {
	if err := validateID(id); err != nil {
		return fmt.Errorf("invalid identity id: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.recordPath(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("identity: delete record: %w", err)
	}
	_ = os.Remove(filepath.Join(s.dir, "avatars", id))

	if sel, _ := s.readSelected(); sel == id {
		_ = os.Remove(s.selectedPath())
	}
	return nil
}

// Select marks an identity as active. An empty id clears the selection.
func (s *Store) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		if err := os.Remove(s.selectedPath()); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("identity: clear selection: %w", err)
		}
		return nil
	}
	if err := validateID(id); err != nil {
		return fmt.Errorf("invalid identity id: %w", err)
	}
	if _, err := s.read(id); err != nil {
		return err
	}
	return os.WriteFile(s.selectedPath(), []byte(id+"\n"), 0600)
}

// Selected returns the active identity, or nil when none is selected.
// A dangling selection pointer behaves as no selection.
func (s *Store) Selected() (*model.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.readSelected()
	if err != nil || id == "" {
		return nil, nil
	}
	rec, err := s.read(id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return rec, err
}

// MergeFakes merges decoy characteristics into an identity by normalized
// name. Existing decoys keep their value; only names not yet decoyed are
// added. This is the single core-triggered mutation of identity state.
func (s *Store) MergeFakes(id string, decoys []model.Characteristic) error {
	if err := validateID(id); err != nil {
		return fmt.Errorf("invalid identity id: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.read(id)
	if err != nil {
		return err
	}

	existing := make(map[string]bool, len(rec.FakeCharacteristics))
	for _, c := range rec.FakeCharacteristics {
		existing[model.NormalizeName(c.Name)] = true
	}

	for _, d := range decoys {
		key := model.NormalizeName(d.Name)
		if key == "" || existing[key] {
			continue
		}
		existing[key] = true
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		d.Name = titleCase(d.Name)
		rec.FakeCharacteristics = append(rec.FakeCharacteristics, d)
	}

	return s.writeAtomic(s.recordPath(id), rec)
}

// SaveAvatar stores an avatar blob for an identity, outside the record file.
func (s *Store) SaveAvatar(id string, data []byte) error {
	if err := validateID(id); err != nil {
		return fmt.Errorf("invalid identity id: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return os.WriteFile(filepath.Join(s.dir, "avatars", id), data, 0600)
}

func (s *Store) read(id string) (*model.Identity, error) {
	data, err := os.ReadFile(s.recordPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("identity: read record: %w", err)
	}
	var rec model.Identity
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("identity: parse record %s: %w", id, err)
	}
	return &rec, nil
}

func (s *Store) readSelected() (string, error) {
	data, err := os.ReadFile(s.selectedPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *Store) writeAtomic(path string, rec *model.Identity) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("identity: marshal record: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("identity: write record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("identity: commit record: %w", err)
	}
	return nil
}

func titleCase(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
