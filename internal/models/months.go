package models

import (
	"fmt"
	"time"
)

// PositionMonth is one month's slice of a position's gain and invested
// capital, produced by the distribution engine. Transient; never persisted.
type PositionMonth struct {
	Year       int
	Month      time.Month
	Position   Position
	Gain       float64
	Investment float64
}

// ID returns the "YYYY-MM" bucket key for this fragment.
func (pm *PositionMonth) ID() string {
	return fmt.Sprintf("%d-%02d", pm.Year, int(pm.Month))
}

// TradingMonth aggregates gain and capital-days across all positions for one
// calendar month. Transient; rebuilt on every query.
type TradingMonth struct {
	Year       int
	Month      time.Month
	Gain       float64
	Investment float64
}

// ID returns the "YYYY-MM" bucket key for this month.
func (tm *TradingMonth) ID() string {
	return fmt.Sprintf("%d-%02d", tm.Year, int(tm.Month))
}

// Combine folds a position fragment into this bucket.
func (tm *TradingMonth) Combine(pm PositionMonth) {
	tm.Gain += pm.Gain
	tm.Investment += pm.Investment
}

// DailyReturnRate returns the blended daily rate for the month: summed gain
// fragments over summed capital-day fragments, as a percentage.
func (tm *TradingMonth) DailyReturnRate() float64 {
	return tm.Gain / tm.Investment * 100
}

// DisplayDailyReturnRate renders "January 2025: `1.23%`".
func (tm *TradingMonth) DisplayDailyReturnRate() string {
	return fmt.Sprintf("%s %d: `%.2f%%`", tm.Month, tm.Year, tm.DailyReturnRate())
}

// DisplayGain renders "January 2025: `$12.34`".
func (tm *TradingMonth) DisplayGain() string {
	return fmt.Sprintf("%s %d: `$%.2f`", tm.Month, tm.Year, tm.Gain)
}

// dateOf truncates a timestamp to its UTC calendar date.
func dateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween returns whole calendar days from a to b, both truncated.
func daysBetween(a, b time.Time) int {
	return int(dateOf(b).Sub(dateOf(a)).Hours() / 24)
}

func minDate(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func maxDate(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// span returns the inclusive calendar range the position covers: from the
// first leg's open date to the final leg's close date, or its expiry if the
// final leg never traded closed (assigned/expired legs have no close event).
func (p *Position) span() (start, end time.Time) {
	start = dateOf(p.mustFirst().Open.OpenedAt)
	final := p.mustFinal()
	if final.Close != nil {
		end = dateOf(final.Close.ClosedAt)
	} else {
		end = dateOf(final.Open.ExpiresAt)
	}
	return start, end
}

// walkMonths visits every calendar month the position spans, reporting the
// inclusive day overlap between that month and the position's range. Month
// boundaries are exact: a month's last day is the day before the next
// month's first, and December rolls into January of the following year.
func (p *Position) walkMonths(visit func(year int, month time.Month, overlapDays, totalDays int)) {
	start, end := p.span()
	totalDays := daysBetween(start, end) + 1
	cur := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cur.After(end) {
		monthEnd := cur.AddDate(0, 1, 0).AddDate(0, 0, -1)
		lo := maxDate(cur, start)
		hi := minDate(monthEnd, end)
		visit(cur.Year(), cur.Month(), daysBetween(lo, hi)+1, totalDays)
		cur = cur.AddDate(0, 1, 0)
	}
}

// DistributedMonths allocates the position's gain across the months it was
// open, weighted by days held in each month. The investment fragment is a
// capital-days figure (investment times days in the month), not a share of
// gain-equivalent capital: TradingMonth.DailyReturnRate divides summed gain
// fragments by summed capital-days to get a blended daily rate.
func (p *Position) DistributedMonths() []PositionMonth {
	var out []PositionMonth
	gain := p.Gain()
	investment := p.Investment()
	p.walkMonths(func(year int, month time.Month, overlapDays, totalDays int) {
		out = append(out, PositionMonth{
			Year:       year,
			Month:      month,
			Position:   p.Clone(),
			Gain:       gain * float64(overlapDays) / float64(totalDays),
			Investment: investment * float64(overlapDays),
		})
	})
	return out
}

// TaxableMonths walks the same months with the same capital-days accounting,
// but attributes the entire gain to the month containing the close: P&L is
// realized, and taxable, only when the position ends.
func (p *Position) TaxableMonths() []PositionMonth {
	var out []PositionMonth
	gain := p.Gain()
	investment := p.Investment()
	_, end := p.span()
	p.walkMonths(func(year int, month time.Month, overlapDays, totalDays int) {
		pm := PositionMonth{
			Year:       year,
			Month:      month,
			Position:   p.Clone(),
			Investment: investment * float64(overlapDays),
		}
		if year == end.Year() && month == end.Month() {
			pm.Gain = gain
		}
		out = append(out, pm)
	})
	return out
}
