package services

import (
	"chainbet/telegram-client/domain/entities"
)

// ComputeSettlement computes payouts for every bet on a resolved market and
// marks each bet settled in memory. Callers persist the bets afterwards.
//
// Winners receive their principal plus a share of the losing pool
// proportional to their stake in the winning pool:
//
//	payout = amount + amount * losingPool / winningPool
//
// Losers receive zero. When the winning pool is empty there is nobody to
// pay and the house retains the entire pot. Refunded bets are skipped.
func ComputeSettlement(market *entities.Market, bets []*entities.Bet, resolution entities.Outcome) *entities.SettlementResult {
	result := &entities.SettlementResult{
		Market:       market,
		Resolution:   resolution,
		TotalPot:     market.TotalPool(),
		WinningPool:  market.PoolFor(resolution),
		LosingPool:   market.PoolFor(resolution.Opposite()),
		PayoutByUser: make(map[int64]int64),
	}

	for _, bet := range bets {
		if bet.Refunded {
			continue
		}
		if bet.IsWinner(resolution) && result.WinningPool > 0 {
			payout := bet.Amount + (bet.Amount*result.LosingPool)/result.WinningPool
			bet.Settle(payout)
			result.Winners = append(result.Winners, bet)
			result.PayoutByUser[bet.UserID] += payout
		} else {
			bet.Settle(0)
			result.Losers = append(result.Losers, bet)
			if _, seen := result.PayoutByUser[bet.UserID]; !seen {
				result.PayoutByUser[bet.UserID] = 0
			}
		}
	}

	return result
}
