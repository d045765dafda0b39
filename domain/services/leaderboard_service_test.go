package services

import (
	"context"
	"testing"

	"chainbet/telegram-client/config"
	"chainbet/telegram-client/domain/entities"
	"chainbet/telegram-client/domain/interfaces"
	"chainbet/telegram-client/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestLeaderboardService() (interfaces.LeaderboardService, *testhelpers.MockUserRepository, *testhelpers.MockMarketRepository) {
	config.SetTestConfig(config.NewTestConfig())

	mockUserRepo := new(testhelpers.MockUserRepository)
	mockMarketRepo := new(testhelpers.MockMarketRepository)

	service := NewLeaderboardService(
		mockUserRepo,
		mockMarketRepo,
		new(testhelpers.MockBetRepository),
		new(testhelpers.MockStatsRepository),
	)
	return service, mockUserRepo, mockMarketRepo
}

func TestLeaderboardService_TopByWinnings(t *testing.T) {
	ctx := context.Background()

	t.Run("applies the default limit", func(t *testing.T) {
		service, mockUserRepo, _ := createTestLeaderboardService()
		mockUserRepo.On("TopByWinnings", ctx, defaultLeaderboardLimit).
			Return([]*entities.User{testUser(1)}, nil)

		users, err := service.TopByWinnings(ctx, 0)

		require.NoError(t, err)
		assert.Len(t, users, 1)
		mockUserRepo.AssertExpectations(t)
	})
}

func TestLeaderboardService_UnsettledMarkets(t *testing.T) {
	ctx := context.Background()

	service, _, mockMarketRepo := createTestLeaderboardService()

	open := openMarket(1)
	locked := openMarket(2)
	locked.State = entities.MarketStateLocked
	resolved := openMarket(3)
	resolved.State = entities.MarketStateResolved
	cancelled := openMarket(4)
	cancelled.State = entities.MarketStateCancelled

	mockMarketRepo.On("GetAll", ctx).
		Return([]*entities.Market{open, locked, resolved, cancelled}, nil)

	markets, err := service.UnsettledMarkets(ctx)

	require.NoError(t, err)
	require.Len(t, markets, 2)
	assert.Equal(t, int64(1), markets[0].ID)
	assert.Equal(t, int64(2), markets[1].ID)
}
