package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cssmith8/rustical-bot/internal/models"
)

const (
	// defaultCommission seeds new stores with the historical per-contract fee.
	defaultCommission = 0.65
	// noSelection is the cursor value meaning "no position selected".
	noSelection = -1
)

// JSONStorage is a file-backed store for one user's data.
type JSONStorage struct {
	mu       sync.RWMutex
	filepath string
	data     *storeData
}

type storeData struct {
	Positions   []models.Position `json:"positions"`
	EditCursor  int               `json:"edit_cursor"`
	Commission  float64           `json:"commission"`
	LastUpdated time.Time         `json:"last_updated"`
}

// NewJSONStorage opens the store at path, creating defaults (no positions,
// cursor -1, commission 0.65) when the file does not exist yet.
func NewJSONStorage(path string) (*JSONStorage, error) {
	s := &JSONStorage{
		filepath: path,
		data: &storeData{
			Positions:  make([]models.Position, 0),
			EditCursor: noSelection,
			Commission: defaultCommission,
		},
	}

	if _, err := os.Stat(path); err == nil {
		if err := s.Load(); err != nil {
			return nil, fmt.Errorf("loading storage: %w", err)
		}
	}

	return s, nil
}

// Load reads and validates the store file. A position that fails validation
// aborts the load: silently repairing it would corrupt financial history.
func (s *JSONStorage) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.filepath)
	if err != nil {
		return err
	}

	var data storeData
	if err := json.Unmarshal(raw, &data); err != nil {
		return err
	}
	for i := range data.Positions {
		if err := data.Positions[i].Validate(); err != nil {
			return fmt.Errorf("position %d: %w", i, err)
		}
	}
	if data.Positions == nil {
		data.Positions = make([]models.Position, 0)
	}

	s.data = &data
	return nil
}

// Save persists the store with a temp-file write and atomic rename.
func (s *JSONStorage) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *JSONStorage) saveLocked() error {
	s.data.LastUpdated = time.Now().UTC()

	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.filepath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmp := s.filepath + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.filepath)
}

// Positions returns a deep copy of the stored list.
func (s *JSONStorage) Positions() ([]models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePositions(s.data.Positions), nil
}

// Position returns a deep copy of the position at index.
func (s *JSONStorage) Position(index int) (models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.data.Positions) {
		return models.Position{}, ErrIndexOutOfRange
	}
	return s.data.Positions[index].Clone(), nil
}

// Len returns the number of stored positions.
func (s *JSONStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data.Positions)
}

// AppendPosition validates and adds a position to the end of the list.
func (s *JSONStorage) AppendPosition(pos models.Position) error {
	if err := pos.Validate(); err != nil {
		return fmt.Errorf("refusing to persist invalid position: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Positions = append(s.data.Positions, pos.Clone())
	return s.saveLocked()
}

// UpdatePositions applies fn to a deep copy of the whole list and swaps the
// result in under one lock with one file rename. The original delete/
// recreate/rewrite triple left a crash window between calls; this does not.
func (s *JSONStorage) UpdatePositions(fn func(positions []models.Position) ([]models.Position, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated, err := fn(clonePositions(s.data.Positions))
	if err != nil {
		return err
	}
	for i := range updated {
		if err := updated[i].Validate(); err != nil {
			return fmt.Errorf("refusing to persist invalid position %d: %w", i, err)
		}
	}

	s.data.Positions = updated
	return s.saveLocked()
}

// Cursor returns the selected position index, or -1 when none.
func (s *JSONStorage) Cursor() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.EditCursor
}

// SetCursor records the selected position index.
func (s *JSONStorage) SetCursor(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.EditCursor = index
	return s.saveLocked()
}

// Commission returns the per-contract commission setting.
func (s *JSONStorage) Commission() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Commission
}

// SetCommission updates the per-contract commission setting.
func (s *JSONStorage) SetCommission(v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Commission = v
	return s.saveLocked()
}

func clonePositions(in []models.Position) []models.Position {
	out := make([]models.Position, 0, len(in))
	for i := range in {
		out = append(out, in[i].Clone())
	}
	return out
}
