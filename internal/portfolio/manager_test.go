package portfolio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cssmith8/rustical-bot/internal/models"
	"github.com/cssmith8/rustical-bot/internal/storage"
)

var testNow = time.Date(2024, time.June, 1, 17, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T) (*Manager, *storage.MockStorage) {
	t.Helper()
	mock := storage.NewMockStorage()
	m := NewManager(mock, nil).WithClock(func() time.Time { return testNow })
	return m, mock
}

func openParams() OpenParams {
	return OpenParams{
		Kind:     models.KindPut,
		Ticker:   "amzn",
		Strike:   10.00,
		Expiry:   time.Date(2024, time.December, 30, 15, 30, 0, 0, time.UTC),
		Premium:  0.50,
		Quantity: 1,
	}
}

func TestOpen_AppendsValidatedPosition(t *testing.T) {
	m, mock := newTestManager(t)

	pos, err := m.Open(openParams())
	require.NoError(t, err)

	assert.Equal(t, 1, mock.Len())
	assert.NotEmpty(t, pos.ID)
	assert.Equal(t, "AMZN", pos.Ticker(), "ticker is upper-cased")
	assert.Equal(t, models.StatusOpen, pos.Status())

	final, err := pos.FinalContract()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.December, 30, 0, 0, 0, 0, time.UTC),
		final.Open.ExpiresAt, "expiry is truncated to midnight")
	assert.Equal(t, testNow, final.Open.OpenedAt)
}

func TestOpen_ValidationBlocksMutation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*OpenParams)
	}{
		{"bad kind", func(p *OpenParams) { p.Kind = "straddle" }},
		{"empty ticker", func(p *OpenParams) { p.Ticker = "   " }},
		{"long ticker", func(p *OpenParams) { p.Ticker = "ABCDEFGHIJKLMNOPQ" }},
		{"zero strike", func(p *OpenParams) { p.Strike = 0 }},
		{"negative premium", func(p *OpenParams) { p.Premium = -0.5 }},
		{"zero quantity", func(p *OpenParams) { p.Quantity = 0 }},
		{"zero expiry", func(p *OpenParams) { p.Expiry = time.Time{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, mock := newTestManager(t)
			p := openParams()
			tt.mutate(&p)

			_, err := m.Open(p)
			require.Error(t, err)
			assert.True(t, IsUserError(err), "validation errors are user errors")
			assert.Equal(t, 0, mock.Len(), "nothing persisted")
		})
	}
}

func TestSelect_PersistsCursor(t *testing.T) {
	m, mock := newTestManager(t)
	_, err := m.Open(openParams())
	require.NoError(t, err)

	got, err := m.Select(0)
	require.NoError(t, err)
	assert.Equal(t, 0, got)
	assert.Equal(t, 0, mock.Cursor())

	_, err = m.Select(3)
	assert.ErrorIs(t, err, ErrInvalidSelection)
	_, err = m.Select(-1)
	assert.ErrorIs(t, err, ErrInvalidSelection)
}

func TestClose_RecordsCloseAndClearsCursor(t *testing.T) {
	m, mock := newTestManager(t)
	_, err := m.Open(openParams())
	require.NoError(t, err)
	cursor, err := m.Select(0)
	require.NoError(t, err)

	gain, err := m.Close(cursor, 0.10)
	require.NoError(t, err)
	assert.InDelta(t, 40.00, gain, 1e-9)
	assert.Equal(t, -1, mock.Cursor(), "cursor cleared after the operation")

	pos, err := mock.Position(0)
	require.NoError(t, err)
	final, err := pos.FinalContract()
	require.NoError(t, err)
	assert.Equal(t, models.StatusClosed, final.Open.Status)
	require.NotNil(t, final.Close)
	assert.Equal(t, models.CloseBought, final.Close.Kind)
	assert.Equal(t, 0.10, final.Close.Premium)
	assert.Equal(t, testNow, final.Close.ClosedAt)

	// closing an already-closed position violates the transition table
	cursor, err = m.Select(0)
	require.NoError(t, err)
	_, err = m.Close(cursor, 0.05)
	assert.Error(t, err)
}

func TestClose_StateErrors(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.Open(openParams())
	require.NoError(t, err)

	_, err = m.Close(-1, 0.10)
	assert.ErrorIs(t, err, ErrNoSelection)

	_, err = m.Close(7, 0.10)
	assert.ErrorIs(t, err, ErrInvalidSelection)
}

func TestRoll_AppendsCarriedForwardContract(t *testing.T) {
	m, mock := newTestManager(t)
	_, err := m.Open(openParams())
	require.NoError(t, err)
	cursor, err := m.Select(0)
	require.NoError(t, err)

	newStrike := 15.0
	err = m.Roll(cursor, RollParams{
		Expiry:      time.Date(2025, time.January, 17, 0, 0, 0, 0, time.UTC),
		PremiumLoss: 0.80,
		PremiumGain: 0.85,
		Strike:      &newStrike,
	})
	require.NoError(t, err)
	assert.Equal(t, -1, mock.Cursor())

	pos, err := mock.Position(0)
	require.NoError(t, err)
	assert.Equal(t, 1, pos.NumRolls())

	first, err := pos.FirstContract()
	require.NoError(t, err)
	assert.Equal(t, models.StatusRolled, first.Open.Status)
	require.NotNil(t, first.Close)
	assert.Equal(t, models.CloseRolled, first.Close.Kind)
	assert.Equal(t, 0.80, first.Close.Premium)

	final, err := pos.FinalContract()
	require.NoError(t, err)
	assert.Equal(t, models.StatusOpen, final.Open.Status)
	assert.Equal(t, "AMZN", final.Open.Ticker)
	assert.Equal(t, 1, final.Open.Quantity)
	assert.Equal(t, 15.0, final.Open.Strike)
	assert.Equal(t, 0.85, final.Open.Premium)

	require.NoError(t, pos.Validate())
}

func TestRoll_NilStrikeKeepsOldStrike(t *testing.T) {
	m, mock := newTestManager(t)
	_, err := m.Open(openParams())
	require.NoError(t, err)
	cursor, err := m.Select(0)
	require.NoError(t, err)

	err = m.Roll(cursor, RollParams{
		Expiry:      time.Date(2025, time.January, 17, 0, 0, 0, 0, time.UTC),
		PremiumLoss: 0.80,
		PremiumGain: 0.85,
	})
	require.NoError(t, err)

	pos, err := mock.Position(0)
	require.NoError(t, err)
	final, err := pos.FinalContract()
	require.NoError(t, err)
	assert.Equal(t, 10.00, final.Open.Strike)
}

func TestAssign_ReportsSharesAndSetsStatus(t *testing.T) {
	m, mock := newTestManager(t)
	p := openParams()
	p.Quantity = 3
	_, err := m.Open(p)
	require.NoError(t, err)
	cursor, err := m.Select(0)
	require.NoError(t, err)

	shares, ticker, err := m.Assign(cursor)
	require.NoError(t, err)
	assert.Equal(t, 300, shares)
	assert.Equal(t, "AMZN", ticker)

	pos, err := mock.Position(0)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, pos.Status())
	final, err := pos.FinalContract()
	require.NoError(t, err)
	assert.Nil(t, final.Close, "assignment creates no close record")
}

func TestExpire_SetsStatus(t *testing.T) {
	m, mock := newTestManager(t)
	_, err := m.Open(openParams())
	require.NoError(t, err)
	cursor, err := m.Select(0)
	require.NoError(t, err)

	require.NoError(t, m.Expire(cursor))

	pos, err := mock.Position(0)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, pos.Status())
	assert.Equal(t, -1, mock.Cursor())
}

func TestSplit_PartitionsQuantity(t *testing.T) {
	m, mock := newTestManager(t)
	p := openParams()
	p.Quantity = 10
	_, err := m.Open(p)
	require.NoError(t, err)
	cursor, err := m.Select(0)
	require.NoError(t, err)

	remaining, err := m.Split(cursor, 3)
	require.NoError(t, err)
	assert.Equal(t, 7, remaining)
	assert.Equal(t, 2, mock.Len())
	assert.Equal(t, -1, mock.Cursor())

	original, err := mock.Position(0)
	require.NoError(t, err)
	split, err := mock.Position(1)
	require.NoError(t, err)

	of, err := original.FinalContract()
	require.NoError(t, err)
	sf, err := split.FinalContract()
	require.NoError(t, err)
	assert.Equal(t, 7, of.Open.Quantity)
	assert.Equal(t, 3, sf.Open.Quantity)
	assert.Equal(t, of.Open.Ticker, sf.Open.Ticker)
	assert.Equal(t, of.Open.Strike, sf.Open.Strike)
	assert.Equal(t, of.Open.ExpiresAt, sf.Open.ExpiresAt)
	assert.Equal(t, of.Open.Kind, sf.Open.Kind)
	assert.NotEqual(t, original.ID, split.ID, "split gets its own id")

	// gains recombine within rounding
	whole := 10.0 * original.AggregatePremium() * models.SharesPerContract
	assert.InDelta(t, whole, original.Gain()+split.Gain(), 1e-9)

	// both halves stay independently closeable
	cursor, err = m.Select(0)
	require.NoError(t, err)
	_, err = m.Close(cursor, 0.10)
	require.NoError(t, err)
	cursor, err = m.Select(1)
	require.NoError(t, err)
	_, err = m.Close(cursor, 0.20)
	require.NoError(t, err)
}

func TestSplit_RewritesEveryContractInTheChain(t *testing.T) {
	m, mock := newTestManager(t)
	p := openParams()
	p.Quantity = 5
	_, err := m.Open(p)
	require.NoError(t, err)
	cursor, err := m.Select(0)
	require.NoError(t, err)
	require.NoError(t, m.Roll(cursor, RollParams{
		Expiry:      time.Date(2025, time.January, 17, 0, 0, 0, 0, time.UTC),
		PremiumLoss: 0.10,
		PremiumGain: 0.20,
	}))

	cursor, err = m.Select(0)
	require.NoError(t, err)
	_, err = m.Split(cursor, 2)
	require.NoError(t, err)

	original, err := mock.Position(0)
	require.NoError(t, err)
	split, err := mock.Position(1)
	require.NoError(t, err)
	for i := range original.Contracts {
		assert.Equal(t, 3, original.Contracts[i].Open.Quantity)
	}
	for i := range split.Contracts {
		assert.Equal(t, 2, split.Contracts[i].Open.Quantity)
	}
}

func TestSplit_RejectsBadQuantity(t *testing.T) {
	m, mock := newTestManager(t)
	p := openParams()
	p.Quantity = 4
	_, err := m.Open(p)
	require.NoError(t, err)

	for _, q := range []int{0, -1, 4, 9} {
		cursor, err := m.Select(0)
		require.NoError(t, err)
		_, err = m.Split(cursor, q)
		require.Error(t, err, "quantity %d", q)
		assert.True(t, IsUserError(err))
		assert.Equal(t, 1, mock.Len(), "no mutation on rejection")
	}
}

func TestEdit_OverwritesOnlySuppliedFields(t *testing.T) {
	m, mock := newTestManager(t)
	_, err := m.Open(openParams())
	require.NoError(t, err)
	cursor, err := m.Select(0)
	require.NoError(t, err)

	strike := 12.0
	qty := 2
	require.NoError(t, m.Edit(cursor, EditParams{Strike: &strike, Quantity: &qty}))

	pos, err := mock.Position(0)
	require.NoError(t, err)
	final, err := pos.FinalContract()
	require.NoError(t, err)
	assert.Equal(t, 12.0, final.Open.Strike)
	assert.Equal(t, 2, final.Open.Quantity)
	assert.Equal(t, "AMZN", final.Open.Ticker, "unsupplied fields untouched")
	assert.Equal(t, 0.50, final.Open.Premium)
}

func TestEdit_BadFieldAbortsBeforeMutation(t *testing.T) {
	m, mock := newTestManager(t)
	_, err := m.Open(openParams())
	require.NoError(t, err)
	cursor, err := m.Select(0)
	require.NoError(t, err)

	strike := -5.0
	qty := 2
	err = m.Edit(cursor, EditParams{Strike: &strike, Quantity: &qty})
	require.Error(t, err)

	pos, err := mock.Position(0)
	require.NoError(t, err)
	final, err := pos.FinalContract()
	require.NoError(t, err)
	assert.Equal(t, 10.00, final.Open.Strike)
	assert.Equal(t, 1, final.Open.Quantity, "no partial application")
	assert.Equal(t, 0, mock.Cursor(), "cursor survives a failed edit")
}

func TestSetDate_ComposesWithExistingComponents(t *testing.T) {
	m, mock := newTestManager(t)
	_, err := m.Open(openParams()) // opened 2024-06-01 17:00 UTC
	require.NoError(t, err)
	cursor, err := m.Select(0)
	require.NoError(t, err)

	day := 15
	require.NoError(t, m.SetDate(cursor, DateParams{Day: &day}))

	pos, err := mock.Position(0)
	require.NoError(t, err)
	final, err := pos.FinalContract()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.June, 15, 17, 0, 0, 0, time.UTC), final.Open.OpenedAt)
}

func TestSetDate_RejectsImpossibleDate(t *testing.T) {
	m, mock := newTestManager(t)
	_, err := m.Open(openParams())
	require.NoError(t, err)
	cursor, err := m.Select(0)
	require.NoError(t, err)

	month := 2
	day := 30
	err = m.SetDate(cursor, DateParams{Month: &month, Day: &day})
	require.Error(t, err)
	assert.True(t, IsUserError(err))

	pos, err := mock.Position(0)
	require.NoError(t, err)
	final, err := pos.FinalContract()
	require.NoError(t, err)
	assert.Equal(t, testNow, final.Open.OpenedAt, "no mutation")
}
