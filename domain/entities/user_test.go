package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_WinStreak(t *testing.T) {
	u := &User{}

	u.RecordWin(50)
	u.RecordWin(30)
	assert.Equal(t, 2, u.WinStreak)
	assert.Equal(t, 2, u.TotalBets)
	assert.Equal(t, int64(80), u.TotalWon)

	u.RecordLoss()
	assert.Equal(t, 0, u.WinStreak)
	assert.Equal(t, 3, u.TotalBets)
	// Losses never subtract from accumulated winnings
	assert.Equal(t, int64(80), u.TotalWon)

	u.RecordWin(10)
	assert.Equal(t, 1, u.WinStreak)
}

func TestUser_HasWallet(t *testing.T) {
	u := &User{}
	assert.False(t, u.HasWallet())

	empty := ""
	u.WalletAddress = &empty
	assert.False(t, u.HasWallet())

	addr := "0xabc"
	u.WalletAddress = &addr
	assert.True(t, u.HasWallet())
}

func TestBet_Settlement(t *testing.T) {
	bet := &Bet{Amount: 100, Prediction: OutcomeYes}

	assert.True(t, bet.IsWinner(OutcomeYes))
	assert.False(t, bet.IsWinner(OutcomeNo))

	bet.Settle(150)
	assert.True(t, bet.IsPaid)
	assert.Equal(t, int64(150), bet.PayoutAmount)
	assert.Equal(t, int64(50), bet.NetProfit())

	losing := &Bet{Amount: 100, Prediction: OutcomeNo}
	losing.Settle(0)
	assert.Equal(t, int64(-100), losing.NetProfit())
}
