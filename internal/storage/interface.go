// Package storage persists one user's option positions, edit cursor and
// trading settings to a JSON file.
package storage

import (
	"github.com/cssmith8/rustical-bot/internal/models"
)

// Interface defines the contract for per-user position persistence.
//
// Implementations must be safe for concurrent use within a single user's
// store. Cross-user access is disjoint: each user id maps to its own store,
// so no cross-store coordination is required.
//
// The provided JSONStorage implementation serializes access with a
// sync.RWMutex and performs every mutation as a whole-list read-modify-write
// followed by one atomic file rename, so readers never observe a partially
// rewritten list.
type Interface interface {
	// Positions returns a deep copy of the position list.
	Positions() ([]models.Position, error)
	// Position returns a deep copy of the position at index.
	Position(index int) (models.Position, error)
	// Len returns the number of stored positions.
	Len() int
	// AppendPosition adds a new position to the end of the list.
	AppendPosition(pos models.Position) error
	// UpdatePositions applies fn to a deep copy of the whole list and
	// replaces the list with fn's result in one atomic operation. If fn
	// returns an error nothing is persisted.
	UpdatePositions(fn func(positions []models.Position) ([]models.Position, error)) error

	// Cursor returns the selected position index, or -1 when none.
	Cursor() int
	// SetCursor records the selected position index.
	SetCursor(index int) error

	// Commission returns the per-contract commission setting.
	Commission() float64
	SetCommission(v float64) error

	// Data persistence
	Save() error
	Load() error
}

// NewStorage creates a new storage implementation (currently JSON-based).
func NewStorage(filepath string) (Interface, error) {
	return NewJSONStorage(filepath)
}

// Ensure implementations satisfy Interface.
var (
	_ Interface = (*JSONStorage)(nil)
	_ Interface = (*BreakerStore)(nil)
	_ Interface = (*MockStorage)(nil)
)
