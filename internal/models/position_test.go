package models

import (
	"errors"
	"math"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// helper: a single-contract position in the shape the open operation creates
func newOpenPosition(kind OptionKind, ticker string, strike, premium float64, qty int, opened, expiry time.Time) Position {
	return Position{
		Contracts: []Contract{{
			Open: OptionLeg{
				OpenedAt:  opened,
				Kind:      kind,
				Ticker:    ticker,
				Strike:    strike,
				ExpiresAt: expiry,
				Premium:   premium,
				Quantity:  qty,
				Status:    StatusOpen,
			},
		}},
	}
}

func closePosition(p *Position, closedAt time.Time, premium float64) {
	last := len(p.Contracts) - 1
	p.Contracts[last].Close = &LegClose{ClosedAt: closedAt, Kind: CloseBought, Premium: premium}
	p.Contracts[last].Open.Status = StatusClosed
}

func rollPosition(p *Position, rolledAt time.Time, premiumLoss, premiumGain, strike float64, expiry time.Time) {
	last := len(p.Contracts) - 1
	prev := &p.Contracts[last]
	prev.Close = &LegClose{ClosedAt: rolledAt, Kind: CloseRolled, Premium: premiumLoss}
	prev.Open.Status = StatusRolled
	p.Contracts = append(p.Contracts, Contract{
		Open: OptionLeg{
			OpenedAt:  rolledAt,
			Kind:      prev.Open.Kind,
			Ticker:    prev.Open.Ticker,
			Strike:    strike,
			ExpiresAt: expiry,
			Premium:   premiumGain,
			Quantity:  prev.Open.Quantity,
			Status:    StatusOpen,
		},
	})
}

func TestDerivedMetrics_AmznScenario(t *testing.T) {
	p := newOpenPosition(KindPut, "AMZN", 10.00, 0.50, 1,
		date(2024, time.November, 1), date(2024, time.December, 30))
	closePosition(&p, date(2024, time.November, 15), 0.10)

	if got := p.AggregatePremium(); got != 0.40 {
		t.Fatalf("AggregatePremium() = %v, want 0.40", got)
	}
	if got := p.Gain(); got != 40.00 {
		t.Fatalf("Gain() = %v, want 40.00", got)
	}
	if got := p.Investment(); got != 1000.00 {
		t.Fatalf("Investment() = %v, want 1000.00", got)
	}
	if got := p.ReturnOnInvestment(); math.Abs(got-0.04) > 1e-9 {
		t.Fatalf("ReturnOnInvestment() = %v, want 0.04", got)
	}
}

func TestAggregatePremium_RoundsOnceAtTheEnd(t *testing.T) {
	// 0.1+0.2 accumulates binary float error; the final rounding absorbs it.
	p := newOpenPosition(KindPut, "XYZ", 5, 0.1, 1,
		date(2024, time.January, 1), date(2024, time.March, 1))
	rollPosition(&p, date(2024, time.January, 10), 0.0, 0.2, 5, date(2024, time.April, 1))

	raw := 0.1 + 0.2
	if got := p.AggregatePremium(); got != 0.3 {
		t.Fatalf("AggregatePremium() = %v, want 0.3 (raw sum %v)", got, raw)
	}
	if math.Abs(p.AggregatePremium()-raw) > 1e-9 {
		t.Fatalf("rounded value diverged from direct sum by more than float rounding")
	}
	// idempotent under re-rounding
	if math.Round(p.AggregatePremium()*100)/100 != p.AggregatePremium() {
		t.Fatalf("AggregatePremium() not stable under re-rounding")
	}
}

func TestRoll_PreservesChainInvariants(t *testing.T) {
	p := newOpenPosition(KindCall, "TSLA", 250, 1.10, 2,
		date(2024, time.June, 1), date(2024, time.June, 21))
	rollPosition(&p, date(2024, time.June, 20), 0.80, 0.85, 260, date(2024, time.July, 19))

	if got := p.NumRolls(); got != 1 {
		t.Fatalf("NumRolls() = %d, want 1", got)
	}
	final, err := p.FinalContract()
	if err != nil {
		t.Fatalf("FinalContract() error: %v", err)
	}
	if final.Open.Status != StatusOpen {
		t.Fatalf("final leg status = %s, want open", final.Open.Status)
	}
	if final.Open.Ticker != "TSLA" || final.Open.Quantity != 2 || final.Open.Kind != KindCall {
		t.Fatalf("roll did not carry ticker/quantity/kind forward: %+v", final.Open)
	}
	if final.Open.Strike != 260 {
		t.Fatalf("roll should use the new strike, got %v", final.Open.Strike)
	}
	first, _ := p.FirstContract()
	if first.Close == nil || first.Close.Kind != CloseRolled {
		t.Fatalf("non-final contract must carry a roll close, got %+v", first.Close)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() after roll: %v", err)
	}
	// Investment uses the rolled strike, Gain the original quantity.
	if got := p.Investment(); got != 260*2*100 {
		t.Fatalf("Investment() = %v, want %v", got, 260.0*2*100)
	}
	wantAgg := math.Round((1.10-0.80+0.85)*100) / 100
	if got := p.AggregatePremium(); got != wantAgg {
		t.Fatalf("AggregatePremium() = %v, want %v", got, wantAgg)
	}
}

func TestTimeAt_SumsContractsAndFloorsAtOneDay(t *testing.T) {
	now := date(2024, time.August, 1)

	tests := []struct {
		name string
		pos  func() Position
		want int
	}{
		{
			name: "same-day close floors to 1",
			pos: func() Position {
				p := newOpenPosition(KindPut, "A", 1, 0.1, 1, date(2024, time.July, 1), date(2024, time.July, 19))
				closePosition(&p, date(2024, time.July, 1), 0.05)
				return p
			},
			want: 1,
		},
		{
			name: "open contract measured against now",
			pos: func() Position {
				return newOpenPosition(KindPut, "A", 1, 0.1, 1, date(2024, time.July, 22), date(2024, time.August, 16))
			},
			want: 10,
		},
		{
			name: "rolled chain sums every contract",
			pos: func() Position {
				p := newOpenPosition(KindPut, "A", 1, 0.1, 1, date(2024, time.July, 1), date(2024, time.July, 19))
				rollPosition(&p, date(2024, time.July, 11), 0.05, 0.12, 1, date(2024, time.August, 16))
				closePosition(&p, date(2024, time.July, 21), 0.02)
				return p
			},
			want: 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.pos()
			if got := p.TimeAt(now); got != tt.want {
				t.Fatalf("TimeAt() = %d, want %d", got, tt.want)
			}
			// read-only queries are idempotent
			if again := p.TimeAt(now); again != tt.want {
				t.Fatalf("second TimeAt() = %d, want %d", again, tt.want)
			}
		})
	}
}

func TestIsClosed_StatusMatrix(t *testing.T) {
	mk := func(status LegStatus, withClose bool) Position {
		p := newOpenPosition(KindPut, "A", 1, 0.1, 1, date(2024, time.July, 1), date(2024, time.July, 19))
		p.Contracts[0].Open.Status = status
		if withClose {
			p.Contracts[0].Close = &LegClose{ClosedAt: date(2024, time.July, 10), Kind: CloseBought, Premium: 0.05}
		}
		return p
	}

	tests := []struct {
		name string
		pos  Position
		want bool
	}{
		{"open without close", mk(StatusOpen, false), false},
		{"close record present", mk(StatusClosed, true), true},
		{"assigned without close", mk(StatusAssigned, false), true},
		{"expired without close", mk(StatusExpired, false), true},
		{"rolled final leg follows policy", mk(StatusRolled, false), RolledCountsAsClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pos.IsClosed(); got != tt.want {
				t.Fatalf("IsClosed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEmptyPosition_FailsLoudly(t *testing.T) {
	var p Position
	if _, err := p.FirstContract(); !errors.Is(err, ErrEmptyPosition) {
		t.Fatalf("FirstContract() error = %v, want ErrEmptyPosition", err)
	}
	if _, err := p.FinalContract(); !errors.Is(err, ErrEmptyPosition) {
		t.Fatalf("FinalContract() error = %v, want ErrEmptyPosition", err)
	}
	if err := p.Validate(); !errors.Is(err, ErrEmptyPosition) {
		t.Fatalf("Validate() error = %v, want ErrEmptyPosition", err)
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("Gain() on empty position should panic rather than report 0")
		}
	}()
	_ = p.Gain()
}

func TestValidate_RejectsDanglingMiddleContract(t *testing.T) {
	p := newOpenPosition(KindPut, "A", 1, 0.1, 1, date(2024, time.July, 1), date(2024, time.July, 19))
	rollPosition(&p, date(2024, time.July, 10), 0.05, 0.12, 1, date(2024, time.August, 16))
	p.Contracts[0].Close.Kind = CloseBought

	if err := p.Validate(); err == nil {
		t.Fatalf("Validate() accepted a non-final contract closed without a roll")
	}
}

func TestClone_IsDeep(t *testing.T) {
	p := newOpenPosition(KindPut, "A", 1, 0.1, 3, date(2024, time.July, 1), date(2024, time.July, 19))
	closePosition(&p, date(2024, time.July, 10), 0.05)

	c := p.Clone()
	c.Contracts[0].Open.Quantity = 99
	c.Contracts[0].Close.Premium = 99

	if p.Contracts[0].Open.Quantity != 3 || p.Contracts[0].Close.Premium != 0.05 {
		t.Fatalf("Clone() shares state with the original")
	}
}
