package entities

import (
	"fmt"
	"time"
)

// MarketState represents the lifecycle state of a prediction market
type MarketState string

const (
	// MarketStateOpen means the market accepts new stakes
	MarketStateOpen MarketState = "open"
	// MarketStateLocked means stakes are frozen pending resolution
	MarketStateLocked MarketState = "locked"
	// MarketStateResolved means an outcome was declared and payouts computed
	MarketStateResolved MarketState = "resolved"
	// MarketStateCancelled means the market was voided and stakes refunded
	MarketStateCancelled MarketState = "cancelled"
)

// Outcome represents a binary market prediction
type Outcome string

const (
	OutcomeYes Outcome = "yes"
	OutcomeNo  Outcome = "no"
)

// IsValid checks whether the outcome is one of the two recognized values
func (o Outcome) IsValid() bool {
	return o == OutcomeYes || o == OutcomeNo
}

// Opposite returns the other side of a binary outcome
func (o Outcome) Opposite() Outcome {
	if o == OutcomeYes {
		return OutcomeNo
	}
	return OutcomeYes
}

// Market represents a binary prediction market with pari-mutuel pools
type Market struct {
	ID          int64       `db:"id"`
	Title       string      `db:"title"`
	Description string      `db:"description"`
	ChainTag    string      `db:"chain_tag"`
	State       MarketState `db:"state"`
	Resolution  *Outcome    `db:"resolution"`
	YesPool     int64       `db:"yes_pool"`
	NoPool      int64       `db:"no_pool"`
	ExpiresAt   time.Time   `db:"expires_at"`
	CreatedAt   time.Time   `db:"created_at"`
	ResolvedAt  *time.Time  `db:"resolved_at"`
}

// IsOpen checks if the market accepts new stakes
func (m *Market) IsOpen() bool {
	return m.State == MarketStateOpen
}

// IsLocked checks if the market is frozen awaiting resolution
func (m *Market) IsLocked() bool {
	return m.State == MarketStateLocked
}

// IsResolved checks if the market has a declared outcome
func (m *Market) IsResolved() bool {
	return m.State == MarketStateResolved
}

// IsTerminal checks if the market reached a final state
func (m *Market) IsTerminal() bool {
	return m.State == MarketStateResolved || m.State == MarketStateCancelled
}

// IsExpired checks if the market's expiry timestamp has passed
func (m *Market) IsExpired() bool {
	return time.Now().After(m.ExpiresAt)
}

// TotalPool returns the combined stake across both sides
func (m *Market) TotalPool() int64 {
	return m.YesPool + m.NoPool
}

// PoolFor returns the pool backing the given outcome
func (m *Market) PoolFor(outcome Outcome) int64 {
	if outcome == OutcomeYes {
		return m.YesPool
	}
	return m.NoPool
}

// AddStake credits an accepted stake to the pool for its prediction
func (m *Market) AddStake(prediction Outcome, amount int64) {
	if prediction == OutcomeYes {
		m.YesPool += amount
	} else {
		m.NoPool += amount
	}
}

// PotentialPayout returns what a hypothetical stake of the given amount on
// the given side would pay if that side won, assuming pools as they stand
// now plus the new stake. Integer division truncates toward zero.
func (m *Market) PotentialPayout(prediction Outcome, amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	sidePool := m.PoolFor(prediction) + amount
	totalPool := m.TotalPool() + amount
	return (amount * totalPool) / sidePool
}

// Lock freezes the market so no further stakes are accepted
func (m *Market) Lock() error {
	if m.State != MarketStateOpen {
		return fmt.Errorf("%w: cannot lock market in state %s", ErrInvalidTransition, m.State)
	}
	m.State = MarketStateLocked
	return nil
}

// Resolve declares the winning outcome on a locked market
func (m *Market) Resolve(outcome Outcome) error {
	if m.State == MarketStateResolved {
		return fmt.Errorf("%w: market %d resolved as %s", ErrAlreadySettled, m.ID, *m.Resolution)
	}
	if m.State != MarketStateLocked {
		return fmt.Errorf("%w: cannot resolve market in state %s", ErrInvalidTransition, m.State)
	}
	if !outcome.IsValid() {
		return fmt.Errorf("%w: unknown outcome %q", ErrInvalidTransition, outcome)
	}
	now := time.Now()
	m.State = MarketStateResolved
	m.Resolution = &outcome
	m.ResolvedAt = &now
	return nil
}

// Cancel voids the market. Allowed from open or locked states.
func (m *Market) Cancel() error {
	if m.IsTerminal() {
		if m.State == MarketStateResolved {
			return fmt.Errorf("%w: market %d already resolved", ErrAlreadySettled, m.ID)
		}
		return fmt.Errorf("%w: market %d already cancelled", ErrInvalidTransition, m.ID)
	}
	now := time.Now()
	m.State = MarketStateCancelled
	m.ResolvedAt = &now
	return nil
}

// MarketDetail bundles a market with its bets for display and consistency
// checks
type MarketDetail struct {
	Market *Market
	Bets   []*Bet
}

// PoolsMatchBets verifies the stored pools equal the sum of non-refunded
// bets on each side
func (d *MarketDetail) PoolsMatchBets() bool {
	var yes, no int64
	for _, bet := range d.Bets {
		if bet.Refunded {
			continue
		}
		if bet.Prediction == OutcomeYes {
			yes += bet.Amount
		} else {
			no += bet.Amount
		}
	}
	return yes == d.Market.YesPool && no == d.Market.NoPool
}
