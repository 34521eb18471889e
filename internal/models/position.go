package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// SharesPerContract is the share multiplier for standard equity options.
const SharesPerContract = 100

// RolledCountsAsClosed pins an ambiguity between observed behaviors: whether
// a final leg left in rolled status counts as a closed position. A roll
// normally appends a fresh open leg, so a final rolled leg only exists
// transiently or after manual edits; reporting treats it as closed rather
// than dropping the position.
const RolledCountsAsClosed = true

// ErrEmptyPosition is returned when a position has no contracts. This is a
// programmer-error condition: positions are created with one contract and
// never emptied, so encountering it means a prior bug.
var ErrEmptyPosition = errors.New("empty position: no contracts")

// Position is a chain of roll-linked contracts. Index 0 is the original leg;
// the last index is the currently active or final leg. Ticker, kind and
// quantity are invariant across the chain; strike and premium may change on
// a roll.
type Position struct {
	ID        string     `json:"id,omitempty"`
	Contracts []Contract `json:"contracts"`
}

// Validate checks the chain invariants: non-empty, every leg valid, and
// every non-final contract closed by a roll.
func (p *Position) Validate() error {
	if len(p.Contracts) == 0 {
		return ErrEmptyPosition
	}
	for i := range p.Contracts {
		c := &p.Contracts[i]
		if err := c.Open.Validate(); err != nil {
			return fmt.Errorf("contract %d: %w", i, err)
		}
		if i < len(p.Contracts)-1 {
			if c.Close == nil || c.Close.Kind != CloseRolled {
				return fmt.Errorf("contract %d: non-final contract must be closed by a roll", i)
			}
		}
	}
	return nil
}

// FirstContract returns the original contract of the chain.
func (p *Position) FirstContract() (*Contract, error) {
	if len(p.Contracts) == 0 {
		return nil, ErrEmptyPosition
	}
	return &p.Contracts[0], nil
}

// FinalContract returns the currently active or final contract.
func (p *Position) FinalContract() (*Contract, error) {
	if len(p.Contracts) == 0 {
		return nil, ErrEmptyPosition
	}
	return &p.Contracts[len(p.Contracts)-1], nil
}

// mustFirst and mustFinal back the derived metrics, which assume a validated
// non-empty position. Failing fast here beats producing wrong financials.
func (p *Position) mustFirst() *Contract {
	c, err := p.FirstContract()
	if err != nil {
		panic(err)
	}
	return c
}

func (p *Position) mustFinal() *Contract {
	c, err := p.FinalContract()
	if err != nil {
		panic(err)
	}
	return c
}

// Kind returns the put/call kind of the chain.
func (p *Position) Kind() OptionKind {
	return p.mustFirst().Open.Kind
}

// Ticker returns the instrument symbol of the chain.
func (p *Position) Ticker() string {
	return p.mustFinal().Open.Ticker
}

// Status returns the status of the final leg.
func (p *Position) Status() LegStatus {
	return p.mustFinal().Open.Status
}

// IsClosed reports whether the position is finished: the final contract has
// a closing event, or its leg sits in a terminal status. Rolled is included
// per RolledCountsAsClosed.
func (p *Position) IsClosed() bool {
	final := p.mustFinal()
	if final.Close != nil {
		return true
	}
	switch final.Open.Status {
	case StatusAssigned, StatusExpired:
		return true
	case StatusRolled:
		return RolledCountsAsClosed
	default:
		return false
	}
}

// AggregatePremium returns the net premium per share collected across the
// whole roll chain, rounded to cents once at the end so per-contract float
// error does not compound.
func (p *Position) AggregatePremium() float64 {
	var sum float64
	for i := range p.Contracts {
		sum += p.Contracts[i].NetPremium()
	}
	return math.Round(sum*100) / 100
}

// Gain returns the realized (or paper, while open) profit in currency units.
// It uses the first contract's quantity: a split rewrites quantity on every
// contract of the chain, so index 0 always carries the quantity backing the
// tracked capital.
func (p *Position) Gain() float64 {
	return p.AggregatePremium() * float64(p.mustFirst().Open.Quantity) * SharesPerContract
}

// Investment returns the capital at risk, evaluated at the current (most
// recent roll's) strike rather than the original one.
func (p *Position) Investment() float64 {
	final := p.mustFinal()
	return final.Open.Strike * float64(final.Open.Quantity) * SharesPerContract
}

// ReturnOnInvestment returns Gain over Investment.
func (p *Position) ReturnOnInvestment() float64 {
	return p.Gain() / p.Investment()
}

// Time returns the total days the position has been held across all
// contracts, using the current clock for any still-open contract.
func (p *Position) Time() int {
	return p.TimeAt(time.Now().UTC())
}

// TimeAt is Time against an explicit "now", for deterministic callers.
// Never returns less than one day, so downstream rate math cannot divide
// by zero.
func (p *Position) TimeAt(now time.Time) int {
	var held time.Duration
	for i := range p.Contracts {
		c := &p.Contracts[i]
		if c.Close != nil {
			held += c.Close.ClosedAt.Sub(c.Open.OpenedAt)
		} else {
			held += now.Sub(c.Open.OpenedAt)
		}
	}
	days := int(held.Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}

// NumRolls returns how many times the position has been rolled.
func (p *Position) NumRolls() int {
	return len(p.Contracts) - 1
}

// Clone returns a deep copy of the position.
func (p *Position) Clone() Position {
	out := Position{ID: p.ID, Contracts: make([]Contract, 0, len(p.Contracts))}
	for i := range p.Contracts {
		out.Contracts = append(out.Contracts, p.Contracts[i].Clone())
	}
	return out
}
