package storage

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/cssmith8/rustical-bot/internal/models"
)

// BreakerStore wraps a store with circuit breaker functionality: after
// repeated I/O failures (disk full, permissions, corrupted file) it fails
// fast instead of hammering the filesystem on every command.
type BreakerStore struct {
	store   Interface
	breaker *gobreaker.CircuitBreaker
}

// BreakerSettings configures circuit breaker behavior.
type BreakerSettings struct {
	Name                string
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

// NewBreakerStore wraps a store with sensible breaker defaults.
func NewBreakerStore(store Interface, logger *logrus.Logger) *BreakerStore {
	return NewBreakerStoreWithSettings(store, logger, BreakerSettings{
		Name:                "storage",
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	})
}

// NewBreakerStoreWithSettings wraps a store with custom breaker settings.
func NewBreakerStoreWithSettings(store Interface, logger *logrus.Logger, settings BreakerSettings) *BreakerStore {
	gb := gobreaker.Settings{
		Name:    settings.Name,
		Timeout: settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.ConsecutiveFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if logger != nil {
				logger.WithFields(logrus.Fields{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				}).Warn("storage circuit breaker state change")
			}
		},
	}
	return &BreakerStore{
		store:   store,
		breaker: gobreaker.NewCircuitBreaker(gb),
	}
}

func execBreaker[T any](breaker *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	res, err := breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}

func (b *BreakerStore) run(fn func() error) error {
	_, err := execBreaker(b.breaker, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// Positions returns the position list through the breaker.
func (b *BreakerStore) Positions() ([]models.Position, error) {
	return execBreaker(b.breaker, b.store.Positions)
}

// Position returns one position through the breaker.
func (b *BreakerStore) Position(index int) (models.Position, error) {
	return execBreaker(b.breaker, func() (models.Position, error) {
		return b.store.Position(index)
	})
}

// Len reports the stored position count; in-memory, no breaker involved.
func (b *BreakerStore) Len() int {
	return b.store.Len()
}

// AppendPosition adds a position through the breaker.
func (b *BreakerStore) AppendPosition(pos models.Position) error {
	return b.run(func() error { return b.store.AppendPosition(pos) })
}

// UpdatePositions runs an atomic list replacement through the breaker.
func (b *BreakerStore) UpdatePositions(fn func([]models.Position) ([]models.Position, error)) error {
	return b.run(func() error { return b.store.UpdatePositions(fn) })
}

// Cursor reports the selection cursor; in-memory, no breaker involved.
func (b *BreakerStore) Cursor() int {
	return b.store.Cursor()
}

// SetCursor records the cursor through the breaker.
func (b *BreakerStore) SetCursor(index int) error {
	return b.run(func() error { return b.store.SetCursor(index) })
}

// Commission reports the commission setting; in-memory, no breaker involved.
func (b *BreakerStore) Commission() float64 {
	return b.store.Commission()
}

// SetCommission updates the commission setting through the breaker.
func (b *BreakerStore) SetCommission(v float64) error {
	return b.run(func() error { return b.store.SetCommission(v) })
}

// Save persists through the breaker.
func (b *BreakerStore) Save() error {
	return b.run(b.store.Save)
}

// Load reloads through the breaker.
func (b *BreakerStore) Load() error {
	return b.run(b.store.Load)
}
