package models

// Contract pairs an option leg with its closing event, if any. The close is
// owned exclusively by this contract; it is only ever created by a close or
// roll operation on this exact leg.
type Contract struct {
	Open  OptionLeg `json:"open"`
	Close *LegClose `json:"close,omitempty"`
}

// IsClosed reports whether the contract has a closing event.
func (c *Contract) IsClosed() bool {
	return c.Close != nil
}

// NetPremium returns the net premium per share for this contract: premium
// received at open minus premium paid to close, or the open premium alone
// while the contract is still open.
func (c *Contract) NetPremium() float64 {
	if c.Close != nil {
		return c.Open.Premium - c.Close.Premium
	}
	return c.Open.Premium
}

// Clone returns a deep copy of the contract.
func (c *Contract) Clone() Contract {
	out := Contract{Open: c.Open}
	if c.Close != nil {
		cl := *c.Close
		out.Close = &cl
	}
	return out
}
