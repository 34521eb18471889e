package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cssmith8/rustical-bot/internal/portfolio"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"0.50", 0.50, false},
		{" $1.25 ", 1.25, false},
		{"0", 0, false},
		{"10", 10, false},
		{"-0.10", -0.10, false},
		{"1.2.3", 0, true},
		{"1,000", 0, true},
		{"ten", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := parseMoney("premium", tt.in)
		if tt.wantErr {
			require.Error(t, err, "input %q", tt.in)
			assert.True(t, portfolio.IsUserError(err))
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestParsePositiveMoney(t *testing.T) {
	_, err := parsePositiveMoney("strike", "0")
	require.Error(t, err)
	assert.True(t, portfolio.IsUserError(err))

	_, err = parsePositiveMoney("strike", "-5")
	require.Error(t, err)

	got, err := parsePositiveMoney("strike", "12.50")
	require.NoError(t, err)
	assert.Equal(t, 12.50, got)
}

func TestParseQuantity(t *testing.T) {
	got, err := parseQuantity("quantity", " 3 ")
	require.NoError(t, err)
	assert.Equal(t, 3, got)

	for _, bad := range []string{"0", "-1", "1.5", "many", ""} {
		_, err := parseQuantity("quantity", bad)
		require.Error(t, err, "input %q", bad)
	}
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("expiration", "2024-12-30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.December, 30, 0, 0, 0, 0, time.UTC), got)

	for _, bad := range []string{"12/30/2024", "2024-13-01", "2024-02-30", "tomorrow"} {
		_, err := parseDate("expiration", bad)
		require.Error(t, err, "input %q", bad)
	}
}

func TestParseInt_Range(t *testing.T) {
	got, err := parseInt("month", "12", 1, 12)
	require.NoError(t, err)
	assert.Equal(t, 12, got)

	_, err = parseInt("month", "13", 1, 12)
	require.Error(t, err)
	_, err = parseInt("month", "0", 1, 12)
	require.Error(t, err)
}
