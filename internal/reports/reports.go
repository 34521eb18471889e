// Package reports computes the read-only views over a user's positions:
// best-position ranking, realized/unrealized totals, per-ticker assets and
// the month-by-month performance report.
package reports

import (
	"sort"
	"time"

	"github.com/cssmith8/rustical-bot/internal/models"
)

// BestEntry is one ranked closed position.
type BestEntry struct {
	Position       models.Position
	Date           time.Time // close date of the final contract, or open date
	Gain           float64
	Investment     float64
	Days           int
	DailyReturnPct float64 // ROI per day held, as a percentage
}

// Best ranks closed positions by return on investment per day held,
// descending, and returns the top limit entries.
func Best(positions []models.Position, now time.Time, limit int) []BestEntry {
	var entries []BestEntry
	for i := range positions {
		p := &positions[i]
		if !p.IsClosed() {
			continue
		}
		days := p.TimeAt(now)
		final, err := p.FinalContract()
		if err != nil {
			continue
		}
		date := p.Contracts[0].Open.OpenedAt
		if final.Close != nil {
			date = final.Close.ClosedAt
		}
		entries = append(entries, BestEntry{
			Position:       p.Clone(),
			Date:           date,
			Gain:           p.Gain(),
			Investment:     p.Investment(),
			Days:           days,
			DailyReturnPct: p.ReturnOnInvestment() * 100 / float64(days),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].DailyReturnPct > entries[j].DailyReturnPct
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// Stats summarizes a user's positions.
type Stats struct {
	Realized      float64 // summed gain of closed positions
	Unrealized    float64 // summed paper gain of open positions
	ClosedCount   int
	OpenCount     int
	ContractsUsed int     // legs times quantity across all positions
	EstimatedFees float64 // ContractsUsed times the commission setting
}

// ComputeStats totals realized and unrealized gain. For an open position
// Gain reflects premium collected so far, an approximation of paper gain.
func ComputeStats(positions []models.Position, commission float64) Stats {
	var s Stats
	for i := range positions {
		p := &positions[i]
		if p.IsClosed() {
			s.Realized += p.Gain()
			s.ClosedCount++
		} else {
			s.Unrealized += p.Gain()
			s.OpenCount++
		}
		for j := range p.Contracts {
			s.ContractsUsed += p.Contracts[j].Open.Quantity
		}
	}
	s.EstimatedFees = float64(s.ContractsUsed) * commission
	return s
}

// Assets nets the share exposure per ticker across every position that has
// left open status: an assigned put delivers shares, an assigned call calls
// them away, so puts count +100 per contract and calls -100. Zero-net
// tickers are dropped.
func Assets(positions []models.Position) map[string]int {
	out := make(map[string]int)
	for i := range positions {
		p := &positions[i]
		if p.Status() == models.StatusOpen {
			continue
		}
		final, err := p.FinalContract()
		if err != nil {
			continue
		}
		qty := models.SharesPerContract * final.Open.Quantity
		switch p.Kind() {
		case models.KindPut:
			out[p.Ticker()] += qty
		case models.KindCall:
			out[p.Ticker()] -= qty
		}
	}
	for ticker, qty := range out {
		if qty == 0 {
			delete(out, ticker)
		}
	}
	return out
}

// MonthReport carries both gain-attribution views of the same months.
type MonthReport struct {
	Distributed []models.TradingMonth
	Taxable     []models.TradingMonth
}

// BuildMonthReport folds every closed position's month fragments into
// TradingMonth buckets under both policies. Buckets come back in
// chronological order.
func BuildMonthReport(positions []models.Position) MonthReport {
	distributed := make(map[string]*models.TradingMonth)
	taxable := make(map[string]*models.TradingMonth)

	for i := range positions {
		p := &positions[i]
		if !p.IsClosed() {
			continue
		}
		combine(distributed, p.DistributedMonths())
		combine(taxable, p.TaxableMonths())
	}

	return MonthReport{
		Distributed: Chronological(flatten(distributed)),
		Taxable:     Chronological(flatten(taxable)),
	}
}

func combine(buckets map[string]*models.TradingMonth, fragments []models.PositionMonth) {
	for _, pm := range fragments {
		key := pm.ID()
		if tm, ok := buckets[key]; ok {
			tm.Combine(pm)
		} else {
			buckets[key] = &models.TradingMonth{
				Year:       pm.Year,
				Month:      pm.Month,
				Gain:       pm.Gain,
				Investment: pm.Investment,
			}
		}
	}
}

func flatten(buckets map[string]*models.TradingMonth) []models.TradingMonth {
	out := make([]models.TradingMonth, 0, len(buckets))
	for _, tm := range buckets {
		out = append(out, *tm)
	}
	return out
}

// Chronological sorts months by their "YYYY-MM" id, ascending.
func Chronological(months []models.TradingMonth) []models.TradingMonth {
	out := append([]models.TradingMonth(nil), months...)
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID() < out[j].ID()
	})
	return out
}

// ByDailyReturnRate sorts months by blended daily return rate, descending.
func ByDailyReturnRate(months []models.TradingMonth) []models.TradingMonth {
	out := append([]models.TradingMonth(nil), months...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DailyReturnRate() > out[j].DailyReturnRate()
	})
	return out
}

// ByGain sorts months by total gain, descending.
func ByGain(months []models.TradingMonth) []models.TradingMonth {
	out := append([]models.TradingMonth(nil), months...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Gain > out[j].Gain
	})
	return out
}
