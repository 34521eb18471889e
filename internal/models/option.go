// Package models provides the data structures and derived financial
// calculations for option positions: single legs, roll-linked contracts,
// whole positions and their month-by-month gain attribution.
package models

import (
	"fmt"
	"strings"
	"time"
)

// OptionKind identifies the side of an option contract.
type OptionKind string

const (
	// KindPut is a written put.
	KindPut OptionKind = "put"
	// KindCall is a written call.
	KindCall OptionKind = "call"
)

// Valid returns true if the OptionKind is one of the defined constants.
func (k OptionKind) Valid() bool {
	return k == KindPut || k == KindCall
}

// ParseOptionKind converts user input into an OptionKind.
func ParseOptionKind(s string) (OptionKind, error) {
	k := OptionKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("invalid option type %q", s)
	}
	return k, nil
}

// LegStatus represents the lifecycle status of a single option leg.
type LegStatus string

const (
	// StatusOpen is an active leg with no closing event.
	StatusOpen LegStatus = "open"
	// StatusClosed is a leg bought back to close.
	StatusClosed LegStatus = "closed"
	// StatusRolled is a leg closed by rolling forward into a new leg.
	StatusRolled LegStatus = "rolled"
	// StatusAssigned is a leg whose shares were assigned.
	StatusAssigned LegStatus = "assigned"
	// StatusExpired is a leg that expired worthless.
	StatusExpired LegStatus = "expired"
)

// Valid returns true if the LegStatus is one of the defined constants.
func (s LegStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusClosed, StatusRolled, StatusAssigned, StatusExpired:
		return true
	default:
		return false
	}
}

// Terminal returns true for statuses a leg cannot leave.
func (s LegStatus) Terminal() bool {
	return s.Valid() && s != StatusOpen
}

// StatusTransition defines a valid leg status transition.
type StatusTransition struct {
	From      LegStatus
	To        LegStatus
	Condition string
}

// ValidStatusTransitions enumerates every legal leg transition. A leg only
// ever moves from open to exactly one terminal status.
var ValidStatusTransitions = []StatusTransition{
	{StatusOpen, StatusClosed, "bought_to_close"},
	{StatusOpen, StatusRolled, "rolled_forward"},
	{StatusOpen, StatusAssigned, "shares_assigned"},
	{StatusOpen, StatusExpired, "expired_worthless"},
}

// CanTransition reports whether the status may move to the given status.
func (s LegStatus) CanTransition(to LegStatus) bool {
	for _, t := range ValidStatusTransitions {
		if t.From == s && t.To == to {
			return true
		}
	}
	return false
}

// CloseKind identifies how a leg was closed. The wire values match the
// original data files ("close" for buy-to-close, "roll" for a roll).
type CloseKind string

const (
	// CloseBought marks a leg bought back on the open market.
	CloseBought CloseKind = "close"
	// CloseRolled marks a leg closed as the first half of a roll.
	CloseRolled CloseKind = "roll"
)

// Valid returns true if the CloseKind is one of the defined constants.
func (k CloseKind) Valid() bool {
	return k == CloseBought || k == CloseRolled
}

// OptionLeg is one option contract as written.
type OptionLeg struct {
	OpenedAt  time.Time  `json:"opened_at"`
	Kind      OptionKind `json:"kind"`
	Ticker    string     `json:"ticker"`
	Strike    float64    `json:"strike"`
	ExpiresAt time.Time  `json:"expires_at"`
	Premium   float64    `json:"premium"`
	Quantity  int        `json:"quantity"`
	Status    LegStatus  `json:"status"`
}

// Validate checks the leg-level invariants.
func (l *OptionLeg) Validate() error {
	if !l.Kind.Valid() {
		return fmt.Errorf("leg kind %q invalid", l.Kind)
	}
	if n := len(strings.TrimSpace(l.Ticker)); n < 1 || n > 16 {
		return fmt.Errorf("ticker %q must be 1-16 characters", l.Ticker)
	}
	if l.Strike <= 0 {
		return fmt.Errorf("strike must be positive (got %v)", l.Strike)
	}
	if l.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive (got %d)", l.Quantity)
	}
	if !l.Status.Valid() {
		return fmt.Errorf("leg status %q invalid", l.Status)
	}
	return nil
}

// Transition moves the leg to a new status, enforcing the transition table.
func (l *OptionLeg) Transition(to LegStatus) error {
	if !l.Status.CanTransition(to) {
		return fmt.Errorf("invalid status transition from %s to %s", l.Status, to)
	}
	l.Status = to
	return nil
}

// LegClose is the closing event for a leg.
type LegClose struct {
	ClosedAt time.Time `json:"closed_at"`
	Kind     CloseKind `json:"close_kind"`
	Premium  float64   `json:"premium"`
}
