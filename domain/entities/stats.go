package entities

// SettlementResult summarizes one market resolution
type SettlementResult struct {
	Market       *Market
	Resolution   Outcome
	Winners      []*Bet
	Losers       []*Bet
	TotalPot     int64
	WinningPool  int64
	LosingPool   int64
	PayoutByUser map[int64]int64 // user ID -> payout amount
}

// HouseRetained returns the amount kept by the house. Non-zero only when
// the winning side had no stakes.
func (r *SettlementResult) HouseRetained() int64 {
	if r.WinningPool == 0 {
		return r.TotalPot
	}
	return 0
}

// AdminStats aggregates platform-wide counts for the admin surface
type AdminStats struct {
	TotalUsers   int64
	ActiveUsers  int64
	TotalMarkets int64
	OpenMarkets  int64
	TotalBets    int64
	TotalVolume  int64
	TotalPaidOut int64
}
