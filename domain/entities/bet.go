package entities

import "time"

// Bet represents one user's stake on one market
type Bet struct {
	ID            int64     `db:"id"`
	UserID        int64     `db:"user_id"`
	MarketID      int64     `db:"market_id"`
	Amount        int64     `db:"amount"`
	Prediction    Outcome   `db:"prediction"`
	ExternalTxRef *string   `db:"external_tx_ref"`
	IsPaid        bool      `db:"is_paid"`
	Refunded      bool      `db:"refunded"`
	PayoutAmount  int64     `db:"payout_amount"`
	CreatedAt     time.Time `db:"created_at"`
}

// IsWinner checks whether this bet backed the resolved outcome
func (b *Bet) IsWinner(resolution Outcome) bool {
	return b.Prediction == resolution
}

// Settle records the computed payout and marks the bet paid.
// A bet is settled exactly once; the lifecycle machine rejects a second
// resolution before settlement is ever reached again.
func (b *Bet) Settle(payout int64) {
	b.PayoutAmount = payout
	b.IsPaid = true
}

// MarkRefunded flags the bet for refund on market cancellation.
// Refund execution happens outside the ledger.
func (b *Bet) MarkRefunded() {
	b.Refunded = true
}

// NetProfit returns the net winnings (payout minus principal) for a
// settled bet, negative for a loss.
func (b *Bet) NetProfit() int64 {
	return b.PayoutAmount - b.Amount
}
