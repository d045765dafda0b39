package services

import (
	"testing"

	"chainbet/telegram-client/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lockedMarket(yesPool, noPool int64) *entities.Market {
	return &entities.Market{
		ID:      1,
		Title:   "Will FLR close above $0.02?",
		State:   entities.MarketStateLocked,
		YesPool: yesPool,
		NoPool:  noPool,
	}
}

func TestComputeSettlement_ProportionalPayout(t *testing.T) {
	// A stakes 100 on yes, B stakes 50 on no, market resolves yes.
	// A receives the full pot of 150, B receives nothing.
	market := lockedMarket(100, 50)
	bets := []*entities.Bet{
		{ID: 1, UserID: 10, MarketID: 1, Amount: 100, Prediction: entities.OutcomeYes},
		{ID: 2, UserID: 20, MarketID: 1, Amount: 50, Prediction: entities.OutcomeNo},
	}

	result := ComputeSettlement(market, bets, entities.OutcomeYes)

	require.Len(t, result.Winners, 1)
	require.Len(t, result.Losers, 1)
	assert.Equal(t, int64(150), result.Winners[0].PayoutAmount)
	assert.True(t, result.Winners[0].IsPaid)
	assert.Equal(t, int64(0), result.Losers[0].PayoutAmount)
	assert.True(t, result.Losers[0].IsPaid)
	assert.Equal(t, int64(150), result.PayoutByUser[10])
	assert.Equal(t, int64(0), result.PayoutByUser[20])
	assert.Equal(t, int64(0), result.HouseRetained())
}

func TestComputeSettlement_SplitsLosingPoolByStake(t *testing.T) {
	// Two winners with 100 and 300 staked split the 200 losing pool 1:3.
	market := lockedMarket(400, 200)
	bets := []*entities.Bet{
		{ID: 1, UserID: 10, Amount: 100, Prediction: entities.OutcomeYes},
		{ID: 2, UserID: 20, Amount: 300, Prediction: entities.OutcomeYes},
		{ID: 3, UserID: 30, Amount: 200, Prediction: entities.OutcomeNo},
	}

	result := ComputeSettlement(market, bets, entities.OutcomeYes)

	require.Len(t, result.Winners, 2)
	assert.Equal(t, int64(150), result.Winners[0].PayoutAmount) // 100 + 100*200/400
	assert.Equal(t, int64(450), result.Winners[1].PayoutAmount) // 300 + 300*200/400

	// Conservation: total paid equals the pot when division is exact
	var paid int64
	for _, w := range result.Winners {
		paid += w.PayoutAmount
	}
	assert.Equal(t, result.TotalPot, paid)
}

func TestComputeSettlement_RoundingNeverOverpays(t *testing.T) {
	// 3 does not divide 100; integer division truncates per winner, so the
	// total paid can fall short of the pot but never exceed it.
	market := lockedMarket(3, 100)
	bets := []*entities.Bet{
		{ID: 1, UserID: 10, Amount: 1, Prediction: entities.OutcomeYes},
		{ID: 2, UserID: 20, Amount: 1, Prediction: entities.OutcomeYes},
		{ID: 3, UserID: 30, Amount: 1, Prediction: entities.OutcomeYes},
		{ID: 4, UserID: 40, Amount: 100, Prediction: entities.OutcomeNo},
	}

	result := ComputeSettlement(market, bets, entities.OutcomeYes)

	var paid int64
	for _, w := range result.Winners {
		paid += w.PayoutAmount
		assert.Equal(t, int64(34), w.PayoutAmount) // 1 + 1*100/3
	}
	assert.LessOrEqual(t, paid, result.TotalPot)
}

func TestComputeSettlement_NoWinnersHouseRetains(t *testing.T) {
	// Everyone staked no, market resolves yes: nobody to pay.
	market := lockedMarket(0, 150)
	bets := []*entities.Bet{
		{ID: 1, UserID: 10, Amount: 100, Prediction: entities.OutcomeNo},
		{ID: 2, UserID: 20, Amount: 50, Prediction: entities.OutcomeNo},
	}

	result := ComputeSettlement(market, bets, entities.OutcomeYes)

	assert.Empty(t, result.Winners)
	require.Len(t, result.Losers, 2)
	assert.Equal(t, int64(150), result.HouseRetained())
	for _, loser := range result.Losers {
		assert.Equal(t, int64(0), loser.PayoutAmount)
		assert.True(t, loser.IsPaid)
	}
}

func TestComputeSettlement_SkipsRefundedBets(t *testing.T) {
	market := lockedMarket(100, 50)
	refunded := &entities.Bet{ID: 3, UserID: 30, Amount: 500, Prediction: entities.OutcomeYes, Refunded: true}
	bets := []*entities.Bet{
		{ID: 1, UserID: 10, Amount: 100, Prediction: entities.OutcomeYes},
		{ID: 2, UserID: 20, Amount: 50, Prediction: entities.OutcomeNo},
		refunded,
	}

	result := ComputeSettlement(market, bets, entities.OutcomeYes)

	require.Len(t, result.Winners, 1)
	assert.False(t, refunded.IsPaid)
	assert.NotContains(t, result.PayoutByUser, int64(30))
}

func TestComputeSettlement_EmptyMarket(t *testing.T) {
	market := lockedMarket(0, 0)

	result := ComputeSettlement(market, nil, entities.OutcomeNo)

	assert.Empty(t, result.Winners)
	assert.Empty(t, result.Losers)
	assert.Equal(t, int64(0), result.TotalPot)
	assert.Equal(t, int64(0), result.HouseRetained())
}
