// Package portfolio implements the position lifecycle: the operations that
// create and mutate a user's option positions, with validation before any
// mutation and atomic whole-list persistence.
package portfolio

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/cssmith8/rustical-bot/internal/models"
	"github.com/cssmith8/rustical-bot/internal/storage"
)

// AssignReportsShares pins a divergence between observed variants: whether
// an assignment reports the delivered share count (quantity x 100) or the
// raw contract quantity. Shares are reported.
const AssignReportsShares = true

// Manager runs lifecycle operations against one user's store. The edit
// cursor is not ambient state: Select persists it and returns it, and every
// mutating operation takes it as an explicit argument and clears it on
// success.
type Manager struct {
	store  storage.Interface
	logger *logrus.Entry
	now    func() time.Time
}

// NewManager creates a lifecycle manager over a user's store.
func NewManager(store storage.Interface, logger *logrus.Entry) *Manager {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Manager{store: store, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock replaces the manager's clock, for deterministic tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Cursor returns the persisted edit cursor (-1 when none).
func (m *Manager) Cursor() int {
	return m.store.Cursor()
}

// OpenParams collects validated input for opening a position.
type OpenParams struct {
	Kind     models.OptionKind
	Ticker   string
	Strike   float64
	Expiry   time.Time
	Premium  float64
	Quantity int
}

func (p *OpenParams) validate() error {
	if !p.Kind.Valid() {
		return invalidf("option type", "%q is not put or call", p.Kind)
	}
	if n := len(strings.TrimSpace(p.Ticker)); n < 1 || n > 16 {
		return invalidf("ticker", "must be 1-16 characters")
	}
	if p.Strike <= 0 {
		return invalidf("strike", "must be a positive amount")
	}
	if p.Premium <= 0 {
		return invalidf("premium", "must be a positive amount")
	}
	if p.Quantity <= 0 {
		return invalidf("quantity", "must be a positive integer")
	}
	if p.Expiry.IsZero() {
		return invalidf("expiration", "must be a valid calendar date")
	}
	return nil
}

// Open appends a new single-contract position.
func (m *Manager) Open(p OpenParams) (models.Position, error) {
	if err := p.validate(); err != nil {
		return models.Position{}, err
	}

	pos := models.Position{
		ID: uuid.New().String(),
		Contracts: []models.Contract{{
			Open: models.OptionLeg{
				OpenedAt:  m.now(),
				Kind:      p.Kind,
				Ticker:    strings.ToUpper(strings.TrimSpace(p.Ticker)),
				Strike:    p.Strike,
				ExpiresAt: midnight(p.Expiry),
				Premium:   p.Premium,
				Quantity:  p.Quantity,
				Status:    models.StatusOpen,
			},
		}},
	}
	if err := m.store.AppendPosition(pos); err != nil {
		return models.Position{}, err
	}
	m.logger.WithFields(logrus.Fields{
		"position": pos.ID,
		"ticker":   pos.Ticker(),
		"kind":     pos.Kind(),
	}).Info("position opened")
	return pos, nil
}

// Select validates the index, persists it as the edit cursor and returns it.
func (m *Manager) Select(index int) (int, error) {
	if index < 0 || index >= m.store.Len() {
		return -1, ErrInvalidSelection
	}
	if err := m.store.SetCursor(index); err != nil {
		return -1, err
	}
	return index, nil
}

// mutate runs fn against a copy of the position at cursor inside one atomic
// list replacement, then clears the cursor. State checks come first so bad
// cursors never touch storage.
func (m *Manager) mutate(cursor int, fn func(pos *models.Position) error) error {
	if cursor < 0 {
		return ErrNoSelection
	}
	if cursor >= m.store.Len() {
		return ErrInvalidSelection
	}
	err := m.store.UpdatePositions(func(list []models.Position) ([]models.Position, error) {
		if cursor >= len(list) {
			return nil, ErrInvalidSelection
		}
		pos := list[cursor].Clone()
		if err := fn(&pos); err != nil {
			return nil, err
		}
		list[cursor] = pos
		return list, nil
	})
	if err != nil {
		return err
	}
	return m.store.SetCursor(-1)
}

// Close buys the final contract back at the given premium and returns the
// realized gain for the whole chain.
func (m *Manager) Close(cursor int, premium float64) (float64, error) {
	if premium < 0 {
		return 0, invalidf("premium", "must not be negative")
	}
	var gain float64
	err := m.mutate(cursor, func(pos *models.Position) error {
		final, err := pos.FinalContract()
		if err != nil {
			return err
		}
		if err := final.Open.Transition(models.StatusClosed); err != nil {
			return err
		}
		final.Close = &models.LegClose{ClosedAt: m.now(), Kind: models.CloseBought, Premium: premium}
		gain = pos.Gain()
		return nil
	})
	if err != nil {
		return 0, err
	}
	m.logger.WithField("gain", gain).Info("position closed")
	return gain, nil
}

// RollParams collects input for rolling a position forward.
type RollParams struct {
	Expiry      time.Time
	PremiumLoss float64
	PremiumGain float64
	// Strike replaces the strike on the new leg; nil keeps it unchanged.
	Strike *float64
}

// Roll closes the final contract as a roll and appends a fresh open contract
// carrying ticker, kind and quantity forward.
func (m *Manager) Roll(cursor int, p RollParams) error {
	if p.Expiry.IsZero() {
		return invalidf("expiration", "must be a valid calendar date")
	}
	if p.PremiumLoss < 0 {
		return invalidf("premium loss", "must not be negative")
	}
	if p.PremiumGain <= 0 {
		return invalidf("premium gain", "must be a positive amount")
	}
	if p.Strike != nil && *p.Strike <= 0 {
		return invalidf("strike", "must be a positive amount")
	}
	return m.mutate(cursor, func(pos *models.Position) error {
		final, err := pos.FinalContract()
		if err != nil {
			return err
		}
		if err := final.Open.Transition(models.StatusRolled); err != nil {
			return err
		}
		final.Close = &models.LegClose{ClosedAt: m.now(), Kind: models.CloseRolled, Premium: p.PremiumLoss}

		strike := final.Open.Strike
		if p.Strike != nil {
			strike = *p.Strike
		}
		pos.Contracts = append(pos.Contracts, models.Contract{
			Open: models.OptionLeg{
				OpenedAt:  m.now(),
				Kind:      final.Open.Kind,
				Ticker:    final.Open.Ticker,
				Strike:    strike,
				ExpiresAt: midnight(p.Expiry),
				Premium:   p.PremiumGain,
				Quantity:  final.Open.Quantity,
				Status:    models.StatusOpen,
			},
		})
		return nil
	})
}

// Assign marks the final leg assigned and returns the share count delivered
// and the ticker, for the confirmation message. No close record is created.
func (m *Manager) Assign(cursor int) (int, string, error) {
	var shares int
	var ticker string
	err := m.mutate(cursor, func(pos *models.Position) error {
		final, err := pos.FinalContract()
		if err != nil {
			return err
		}
		if err := final.Open.Transition(models.StatusAssigned); err != nil {
			return err
		}
		ticker = final.Open.Ticker
		shares = final.Open.Quantity
		if AssignReportsShares {
			shares *= models.SharesPerContract
		}
		return nil
	})
	return shares, ticker, err
}

// Expire marks the final leg expired.
func (m *Manager) Expire(cursor int) error {
	return m.mutate(cursor, func(pos *models.Position) error {
		final, err := pos.FinalContract()
		if err != nil {
			return err
		}
		return final.Open.Transition(models.StatusExpired)
	})
}

// Split partitions the position by quantity: the original keeps quantity-q
// on every contract of the chain, and a clone carrying q is appended to the
// list. Both writes happen in one atomic list replacement. Returns the
// remaining quantity of the original.
func (m *Manager) Split(cursor, quantity int) (int, error) {
	if cursor < 0 {
		return 0, ErrNoSelection
	}
	if cursor >= m.store.Len() {
		return 0, ErrInvalidSelection
	}
	var remaining int
	err := m.store.UpdatePositions(func(list []models.Position) ([]models.Position, error) {
		if cursor >= len(list) {
			return nil, ErrInvalidSelection
		}
		pos := list[cursor].Clone()
		final, err := pos.FinalContract()
		if err != nil {
			return nil, err
		}
		if quantity <= 0 || quantity >= final.Open.Quantity {
			return nil, invalidf("split quantity",
				"must be greater than 0 and less than the original quantity")
		}

		for i := range pos.Contracts {
			pos.Contracts[i].Open.Quantity -= quantity
		}
		split := pos.Clone()
		split.ID = uuid.New().String()
		for i := range split.Contracts {
			split.Contracts[i].Open.Quantity = quantity
		}
		remaining = final.Open.Quantity

		list[cursor] = pos
		return append(list, split), nil
	})
	if err != nil {
		return 0, err
	}
	if err := m.store.SetCursor(-1); err != nil {
		return 0, err
	}
	return remaining, nil
}

// EditParams overwrites any subset of the final leg's fields; nil fields are
// left untouched. Parsing happens at the command boundary so a bad field
// aborts before this is called.
type EditParams struct {
	Ticker   *string
	Strike   *float64
	Expiry   *time.Time
	Premium  *float64
	Quantity *int
}

// Edit applies field corrections to the final contract's open leg.
func (m *Manager) Edit(cursor int, p EditParams) error {
	if p.Ticker != nil {
		if n := len(strings.TrimSpace(*p.Ticker)); n < 1 || n > 16 {
			return invalidf("ticker", "must be 1-16 characters")
		}
	}
	if p.Strike != nil && *p.Strike <= 0 {
		return invalidf("strike", "must be a positive amount")
	}
	if p.Premium != nil && *p.Premium <= 0 {
		return invalidf("premium", "must be a positive amount")
	}
	if p.Quantity != nil && *p.Quantity <= 0 {
		return invalidf("quantity", "must be a positive integer")
	}
	return m.mutate(cursor, func(pos *models.Position) error {
		final, err := pos.FinalContract()
		if err != nil {
			return err
		}
		if p.Ticker != nil {
			final.Open.Ticker = strings.ToUpper(strings.TrimSpace(*p.Ticker))
		}
		if p.Strike != nil {
			final.Open.Strike = *p.Strike
		}
		if p.Expiry != nil {
			final.Open.ExpiresAt = midnight(*p.Expiry)
		}
		if p.Premium != nil {
			final.Open.Premium = *p.Premium
		}
		if p.Quantity != nil {
			final.Open.Quantity = *p.Quantity
		}
		return nil
	})
}

// DateParams overwrites any subset of the final leg's open date components.
type DateParams struct {
	Year  *int
	Month *int
	Day   *int
}

// SetDate recomposes the final leg's open date from the given components,
// preserving the ones not supplied. An impossible composed date is rejected
// before any mutation.
func (m *Manager) SetDate(cursor int, p DateParams) error {
	if p.Month != nil && (*p.Month < 1 || *p.Month > 12) {
		return invalidf("month", "must be between 1 and 12")
	}
	if p.Day != nil && (*p.Day < 1 || *p.Day > 31) {
		return invalidf("day", "must be between 1 and 31")
	}
	return m.mutate(cursor, func(pos *models.Position) error {
		final, err := pos.FinalContract()
		if err != nil {
			return err
		}
		opened := final.Open.OpenedAt.UTC()
		year, month, day := opened.Year(), int(opened.Month()), opened.Day()
		if p.Year != nil {
			year = *p.Year
		}
		if p.Month != nil {
			month = *p.Month
		}
		if p.Day != nil {
			day = *p.Day
		}
		composed := time.Date(year, time.Month(month), day,
			opened.Hour(), opened.Minute(), 0, 0, time.UTC)
		// time.Date normalizes overflow (Feb 30 becomes Mar 1); reject that
		if composed.Year() != year || int(composed.Month()) != month || composed.Day() != day {
			return invalidf("date", "%04d-%02d-%02d is not a real date", year, month, day)
		}
		final.Open.OpenedAt = composed
		return nil
	})
}

// midnight truncates a timestamp to midnight UTC; expiration dates carry no
// intraday component.
func midnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
