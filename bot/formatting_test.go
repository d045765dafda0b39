package bot

import (
	"errors"
	"testing"
	"time"

	"chainbet/telegram-client/domain/entities"

	"github.com/stretchr/testify/assert"
)

func TestFormatMarketLine(t *testing.T) {
	market := &entities.Market{
		ID:       7,
		Title:    "ETH above 5k by Friday?",
		ChainTag: "ethereum",
		State:    entities.MarketStateOpen,
		YesPool:  1500,
		NoPool:   500,
	}

	line := formatMarketLine(market)
	assert.Equal(t, "#7 [Ethereum] ETH above 5k by Friday? — pool 2.0k (🟢 Open)", line)
}

func TestFormatMarketDetail(t *testing.T) {
	expires := time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)
	market := &entities.Market{
		ID:        3,
		Title:     "FLR listed on new exchange?",
		ChainTag:  "flare",
		State:     entities.MarketStateOpen,
		YesPool:   300,
		NoPool:    100,
		ExpiresAt: expires,
	}
	detail := &entities.MarketDetail{
		Market: market,
		Bets: []*entities.Bet{
			{Amount: 300, Prediction: entities.OutcomeYes},
			{Amount: 100, Prediction: entities.OutcomeNo},
		},
	}

	text := formatMarketDetail(detail)
	assert.Contains(t, text, "<b>#3 FLR listed on new exchange?</b>")
	assert.Contains(t, text, "Chain: Flare")
	assert.Contains(t, text, "YES pool: 300 (75%, 1.33x)")
	assert.Contains(t, text, "NO pool: 100 (25%, 4.00x)")
	assert.Contains(t, text, "Bets: 2")
	assert.Contains(t, text, "Closes: 2026-09-01 18:00 UTC")

	t.Run("resolved market shows outcome", func(t *testing.T) {
		outcome := entities.OutcomeNo
		market.State = entities.MarketStateResolved
		market.Resolution = &outcome

		text := formatMarketDetail(detail)
		assert.Contains(t, text, "Outcome: <b>NO</b>")
		assert.NotContains(t, text, "Closes:")
	})
}

func TestFormatBetLine(t *testing.T) {
	market := &entities.Market{ID: 5, Title: "BTC halving rally?"}

	t.Run("pending", func(t *testing.T) {
		bet := &entities.Bet{MarketID: 5, Amount: 100, Prediction: entities.OutcomeYes}
		assert.Equal(t, "100 on BTC halving rally?: YES (pending)", formatBetLine(bet, market))
	})

	t.Run("won", func(t *testing.T) {
		bet := &entities.Bet{MarketID: 5, Amount: 100, Prediction: entities.OutcomeYes, IsPaid: true, PayoutAmount: 150}
		assert.Equal(t, "100 on BTC halving rally?: YES (won 150)", formatBetLine(bet, market))
	})

	t.Run("lost", func(t *testing.T) {
		bet := &entities.Bet{MarketID: 5, Amount: 100, Prediction: entities.OutcomeNo, IsPaid: true}
		assert.Equal(t, "100 on BTC halving rally?: NO (lost)", formatBetLine(bet, market))
	})

	t.Run("refunded", func(t *testing.T) {
		bet := &entities.Bet{MarketID: 5, Amount: 100, Prediction: entities.OutcomeNo, Refunded: true}
		assert.Equal(t, "100 on BTC halving rally?: NO (refunded)", formatBetLine(bet, market))
	})

	t.Run("unknown market falls back to id", func(t *testing.T) {
		bet := &entities.Bet{MarketID: 9, Amount: 100, Prediction: entities.OutcomeYes}
		assert.Equal(t, "100 on market #9: YES (pending)", formatBetLine(bet, nil))
	})
}

func TestFormatSettlement(t *testing.T) {
	market := &entities.Market{ID: 2, Title: "Gas under 10 gwei?"}

	t.Run("with winners", func(t *testing.T) {
		result := &entities.SettlementResult{
			Market:      market,
			Resolution:  entities.OutcomeYes,
			Winners:     []*entities.Bet{{}, {}},
			Losers:      []*entities.Bet{{}},
			TotalPot:    150,
			WinningPool: 100,
			LosingPool:  50,
		}

		text := formatSettlement(result)
		assert.Contains(t, text, "<b>Market #2 resolved: YES</b>")
		assert.Contains(t, text, "Total pot: 150")
		assert.Contains(t, text, "Winners: 2, losers: 1")
		assert.NotContains(t, text, "retained")
	})

	t.Run("no winners", func(t *testing.T) {
		result := &entities.SettlementResult{
			Market:     market,
			Resolution: entities.OutcomeNo,
			Losers:     []*entities.Bet{{}},
			TotalPot:   150,
			LosingPool: 150,
		}

		text := formatSettlement(result)
		assert.Contains(t, text, "Winners: 0, losers: 1")
		assert.Contains(t, text, "The pot of 150 is retained.")
	})
}

func TestUserErrorText(t *testing.T) {
	assert.Equal(t, "Not found. Check the id and try again.", userErrorText(entities.ErrNotFound))
	assert.Equal(t, "That market is no longer accepting predictions.", userErrorText(entities.ErrMarketNotOpen))
	assert.Equal(t, "Invalid amount. Check the stake limits with /howto.", userErrorText(entities.ErrInvalidAmount))
	assert.Equal(t, "That market has already been settled.", userErrorText(entities.ErrAlreadySettled))
	assert.Equal(t, "That action is not possible in the market's current state.", userErrorText(entities.ErrInvalidTransition))
	assert.Equal(t, "Something went wrong. Please try again.", userErrorText(errors.New("boom")))
}
