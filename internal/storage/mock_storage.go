package storage

import (
	"github.com/cssmith8/rustical-bot/internal/models"
)

// MockStorage implements Interface in memory for testing.
type MockStorage struct {
	positions  []models.Position
	cursor     int
	commission float64

	// error injection
	ReadErr  error
	WriteErr error

	SaveCallCount   int
	UpdateCallCount int
}

// NewMockStorage creates a mock store with empty defaults.
func NewMockStorage() *MockStorage {
	return &MockStorage{cursor: noSelection, commission: defaultCommission}
}

// SeedPositions replaces the mock's list without counting as a write.
func (m *MockStorage) SeedPositions(positions []models.Position) {
	m.positions = clonePositions(positions)
}

// Positions returns a deep copy of the list.
func (m *MockStorage) Positions() ([]models.Position, error) {
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	return clonePositions(m.positions), nil
}

// Position returns a deep copy of one position.
func (m *MockStorage) Position(index int) (models.Position, error) {
	if m.ReadErr != nil {
		return models.Position{}, m.ReadErr
	}
	if index < 0 || index >= len(m.positions) {
		return models.Position{}, ErrIndexOutOfRange
	}
	return m.positions[index].Clone(), nil
}

// Len returns the stored position count.
func (m *MockStorage) Len() int {
	return len(m.positions)
}

// AppendPosition adds to the list.
func (m *MockStorage) AppendPosition(pos models.Position) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.positions = append(m.positions, pos.Clone())
	m.SaveCallCount++
	return nil
}

// UpdatePositions applies fn to a deep copy and replaces the list.
func (m *MockStorage) UpdatePositions(fn func([]models.Position) ([]models.Position, error)) error {
	m.UpdateCallCount++
	if m.WriteErr != nil {
		return m.WriteErr
	}
	updated, err := fn(clonePositions(m.positions))
	if err != nil {
		return err
	}
	m.positions = updated
	m.SaveCallCount++
	return nil
}

// Cursor returns the selection cursor.
func (m *MockStorage) Cursor() int {
	return m.cursor
}

// SetCursor records the selection cursor.
func (m *MockStorage) SetCursor(index int) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.cursor = index
	return nil
}

// Commission returns the commission setting.
func (m *MockStorage) Commission() float64 {
	return m.commission
}

// SetCommission updates the commission setting.
func (m *MockStorage) SetCommission(v float64) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.commission = v
	return nil
}

// Save counts the call and returns the injected write error, if any.
func (m *MockStorage) Save() error {
	m.SaveCallCount++
	return m.WriteErr
}

// Load returns the injected read error, if any.
func (m *MockStorage) Load() error {
	return m.ReadErr
}
