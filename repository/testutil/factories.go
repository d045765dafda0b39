package testutil

import (
	"fmt"
	"time"

	"chainbet/telegram-client/domain/entities"
)

// CreateTestUser creates a user entity for testing
func CreateTestUser(telegramID int64, username string) *entities.User {
	return &entities.User{
		TelegramID:   telegramID,
		Username:     username,
		ReferralCode: fmt.Sprintf("ref_test%d", telegramID),
		IsActive:     true,
	}
}

// CreateTestMarket creates an open market entity for testing
func CreateTestMarket(title, chainTag string) *entities.Market {
	return &entities.Market{
		Title:     title,
		ChainTag:  chainTag,
		State:     entities.MarketStateOpen,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
}

// CreateTestBet creates a bet entity for testing
func CreateTestBet(userID, marketID int64, prediction entities.Outcome, amount int64) *entities.Bet {
	return &entities.Bet{
		UserID:     userID,
		MarketID:   marketID,
		Prediction: prediction,
		Amount:     amount,
	}
}
