package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Manager hands out one store per user id, caching open stores. Storage is
// partitioned per user, so no cross-user locking exists beyond the map.
type Manager struct {
	mu     sync.Mutex
	dir    string
	open   func(path string) (Interface, error)
	stores map[string]Interface
}

// NewManager creates a store manager rooted at dir. The open function builds
// a store for a file path; pass nil to use the plain JSON store.
func NewManager(dir string, open func(path string) (Interface, error)) *Manager {
	if open == nil {
		open = NewStorage
	}
	return &Manager{
		dir:    dir,
		open:   open,
		stores: make(map[string]Interface),
	}
}

// ForUser returns the store for one user id, opening it on first use.
func (m *Manager) ForUser(userID string) (Interface, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("empty user id")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.stores[userID]; ok {
		return s, nil
	}
	s, err := m.open(filepath.Join(m.dir, userID+".json"))
	if err != nil {
		return nil, fmt.Errorf("opening store for user %s: %w", userID, err)
	}
	m.stores[userID] = s
	return s, nil
}

// UserIDs lists every user with a store file on disk.
func (m *Manager) UserIDs() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}
