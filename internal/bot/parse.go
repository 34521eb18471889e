package bot

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cssmith8/rustical-bot/internal/portfolio"
)

// dateLayout is the expected expiration-date input format.
const dateLayout = "2006-01-02"

func invalidInput(field, reason string) error {
	return &portfolio.ValidationError{Field: field, Reason: reason}
}

// parseMoney parses a monetary amount. Decimal parsing rejects garbage like
// "1.2.3" and grouping characters before the value is converted to float64.
func parseMoney(field, s string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$")))
	if err != nil {
		return 0, invalidInput(field, "must be a dollar amount like 0.50")
	}
	v, _ := d.Float64()
	return v, nil
}

// parsePositiveMoney additionally requires the amount to be positive.
func parsePositiveMoney(field, s string) (float64, error) {
	v, err := parseMoney(field, s)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, invalidInput(field, "must be a positive amount")
	}
	return v, nil
}

// parseQuantity parses a positive whole contract count.
func parseQuantity(field, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, invalidInput(field, "must be a positive whole number")
	}
	return n, nil
}

// parseDate parses a YYYY-MM-DD calendar date.
func parseDate(field, s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, invalidInput(field, "must be a date like 2024-12-30")
	}
	return t, nil
}

// parseInt parses a whole number within [min,max].
func parseInt(field, s string, min, max int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < min || n > max {
		return 0, invalidInput(field, "must be a whole number")
	}
	return n, nil
}
