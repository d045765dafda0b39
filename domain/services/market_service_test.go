package services

import (
	"context"
	"testing"
	"time"

	"chainbet/telegram-client/config"
	"chainbet/telegram-client/domain/entities"
	"chainbet/telegram-client/domain/events"
	"chainbet/telegram-client/domain/interfaces"
	"chainbet/telegram-client/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Test utilities

func createTestMarketService() (interfaces.MarketService, *testhelpers.MockMarketRepository, *testhelpers.MockBetRepository, *testhelpers.MockUserRepository, *testhelpers.RecordingEventPublisher) {
	config.SetTestConfig(config.NewTestConfig())

	mockMarketRepo := new(testhelpers.MockMarketRepository)
	mockBetRepo := new(testhelpers.MockBetRepository)
	mockUserRepo := new(testhelpers.MockUserRepository)
	publisher := &testhelpers.RecordingEventPublisher{}

	service := NewMarketService(mockMarketRepo, mockBetRepo, mockUserRepo, publisher)
	return service, mockMarketRepo, mockBetRepo, mockUserRepo, publisher
}

func openMarket(id int64) *entities.Market {
	return &entities.Market{
		ID:        id,
		Title:     "Will ETH close above $5k?",
		ChainTag:  "ethereum",
		State:     entities.MarketStateOpen,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
}

func testUser(id int64) *entities.User {
	return &entities.User{
		ID:         id,
		TelegramID: id * 1000,
		Username:   "player",
		IsActive:   true,
	}
}

// Tests

func TestMarketService_CreateMarket(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an open market", func(t *testing.T) {
		service, mockMarketRepo, _, _, _ := createTestMarketService()
		mockMarketRepo.On("Create", ctx, mock.AnythingOfType("*entities.Market")).Return(nil)

		market, err := service.CreateMarket(ctx, "Will BTC hit 100k?", "", "ethereum", time.Now().Add(time.Hour))

		require.NoError(t, err)
		assert.Equal(t, entities.MarketStateOpen, market.State)
		assert.Equal(t, int64(0), market.TotalPool())
		mockMarketRepo.AssertExpectations(t)
	})

	t.Run("rejects empty title", func(t *testing.T) {
		service, _, _, _, _ := createTestMarketService()

		_, err := service.CreateMarket(ctx, "  ", "", "ethereum", time.Now().Add(time.Hour))
		assert.Error(t, err)
	})

	t.Run("rejects past expiry", func(t *testing.T) {
		service, _, _, _, _ := createTestMarketService()

		_, err := service.CreateMarket(ctx, "Too late", "", "ethereum", time.Now().Add(-time.Hour))
		assert.Error(t, err)
	})
}

func TestMarketService_PlaceStake(t *testing.T) {
	ctx := context.Background()

	t.Run("accepts a valid stake and credits the pool", func(t *testing.T) {
		service, mockMarketRepo, mockBetRepo, mockUserRepo, publisher := createTestMarketService()
		market := openMarket(1)

		mockUserRepo.On("GetByID", ctx, int64(10)).Return(testUser(10), nil)
		mockMarketRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(market, nil)
		mockBetRepo.On("Create", ctx, mock.AnythingOfType("*entities.Bet")).Return(nil)
		mockMarketRepo.On("Update", ctx, market).Return(nil)
		mockUserRepo.On("TouchActivity", ctx, int64(10)).Return(nil)

		bet, err := service.PlaceStake(ctx, 1, 10, entities.OutcomeYes, 100, nil)

		require.NoError(t, err)
		assert.Equal(t, int64(100), bet.Amount)
		assert.Equal(t, int64(100), market.YesPool)
		assert.Equal(t, int64(0), market.NoPool)

		placed := publisher.EventsOfType(events.EventTypeStakePlaced)
		require.Len(t, placed, 1)
		assert.Equal(t, int64(100), placed[0].(events.StakePlacedEvent).Amount)
		mockMarketRepo.AssertExpectations(t)
	})

	t.Run("never rewrites aggregate stats from its own snapshot", func(t *testing.T) {
		service, mockMarketRepo, mockBetRepo, mockUserRepo, _ := createTestMarketService()
		market := openMarket(1)

		// Stats read here may predate a settlement committing on another
		// market; a full-row write would wipe those winnings.
		bettor := testUser(10)
		bettor.TotalBets = 4
		bettor.TotalWon = 500
		bettor.WinStreak = 3

		mockUserRepo.On("GetByID", ctx, int64(10)).Return(bettor, nil)
		mockMarketRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(market, nil)
		mockBetRepo.On("Create", ctx, mock.AnythingOfType("*entities.Bet")).Return(nil)
		mockMarketRepo.On("Update", ctx, market).Return(nil)
		mockUserRepo.On("TouchActivity", ctx, int64(10)).Return(nil)

		_, err := service.PlaceStake(ctx, 1, 10, entities.OutcomeYes, 100, nil)

		require.NoError(t, err)
		mockUserRepo.AssertCalled(t, "TouchActivity", ctx, int64(10))
		mockUserRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("rejects amount below minimum", func(t *testing.T) {
		service, _, _, _, _ := createTestMarketService()

		_, err := service.PlaceStake(ctx, 1, 10, entities.OutcomeYes, 5, nil)
		assert.ErrorIs(t, err, entities.ErrInvalidAmount)
	})

	t.Run("rejects amount above maximum", func(t *testing.T) {
		service, _, _, _, _ := createTestMarketService()

		_, err := service.PlaceStake(ctx, 1, 10, entities.OutcomeYes, 10001, nil)
		assert.ErrorIs(t, err, entities.ErrInvalidAmount)
	})

	t.Run("rejects unknown prediction", func(t *testing.T) {
		service, _, _, _, _ := createTestMarketService()

		_, err := service.PlaceStake(ctx, 1, 10, entities.Outcome("maybe"), 100, nil)
		assert.ErrorIs(t, err, entities.ErrInvalidAmount)
	})

	t.Run("rejects unknown user", func(t *testing.T) {
		service, _, _, mockUserRepo, _ := createTestMarketService()
		mockUserRepo.On("GetByID", ctx, int64(99)).Return(nil, nil)

		_, err := service.PlaceStake(ctx, 1, 99, entities.OutcomeYes, 100, nil)
		assert.ErrorIs(t, err, entities.ErrNotFound)
	})

	t.Run("rejects unknown market", func(t *testing.T) {
		service, mockMarketRepo, _, mockUserRepo, _ := createTestMarketService()
		mockUserRepo.On("GetByID", ctx, int64(10)).Return(testUser(10), nil)
		mockMarketRepo.On("GetByIDForUpdate", ctx, int64(404)).Return(nil, nil)

		_, err := service.PlaceStake(ctx, 404, 10, entities.OutcomeYes, 100, nil)
		assert.ErrorIs(t, err, entities.ErrNotFound)
	})

	t.Run("rejects locked market", func(t *testing.T) {
		service, mockMarketRepo, _, mockUserRepo, _ := createTestMarketService()
		market := openMarket(1)
		market.State = entities.MarketStateLocked

		mockUserRepo.On("GetByID", ctx, int64(10)).Return(testUser(10), nil)
		mockMarketRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(market, nil)

		_, err := service.PlaceStake(ctx, 1, 10, entities.OutcomeYes, 100, nil)
		assert.ErrorIs(t, err, entities.ErrMarketNotOpen)
	})

	t.Run("rejects resolved market", func(t *testing.T) {
		service, mockMarketRepo, _, mockUserRepo, _ := createTestMarketService()
		market := openMarket(1)
		market.State = entities.MarketStateResolved

		mockUserRepo.On("GetByID", ctx, int64(10)).Return(testUser(10), nil)
		mockMarketRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(market, nil)

		_, err := service.PlaceStake(ctx, 1, 10, entities.OutcomeYes, 100, nil)
		assert.ErrorIs(t, err, entities.ErrMarketNotOpen)
	})

	t.Run("rejects expired market still marked open", func(t *testing.T) {
		service, mockMarketRepo, _, mockUserRepo, _ := createTestMarketService()
		market := openMarket(1)
		market.ExpiresAt = time.Now().Add(-time.Minute)

		mockUserRepo.On("GetByID", ctx, int64(10)).Return(testUser(10), nil)
		mockMarketRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(market, nil)

		_, err := service.PlaceStake(ctx, 1, 10, entities.OutcomeYes, 100, nil)
		assert.ErrorIs(t, err, entities.ErrMarketNotOpen)
	})
}

func TestMarketService_LockMarket(t *testing.T) {
	ctx := context.Background()

	t.Run("locks an open market", func(t *testing.T) {
		service, mockMarketRepo, _, _, publisher := createTestMarketService()
		market := openMarket(1)

		mockMarketRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(market, nil)
		mockMarketRepo.On("Update", ctx, market).Return(nil)

		locked, err := service.LockMarket(ctx, 1)

		require.NoError(t, err)
		assert.Equal(t, entities.MarketStateLocked, locked.State)

		changes := publisher.EventsOfType(events.EventTypeMarketStateChange)
		require.Len(t, changes, 1)
		change := changes[0].(events.MarketStateChangeEvent)
		assert.Equal(t, entities.MarketStateOpen, change.OldState)
		assert.Equal(t, entities.MarketStateLocked, change.NewState)
	})

	t.Run("rejects locking a locked market", func(t *testing.T) {
		service, mockMarketRepo, _, _, _ := createTestMarketService()
		market := openMarket(1)
		market.State = entities.MarketStateLocked

		mockMarketRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(market, nil)

		_, err := service.LockMarket(ctx, 1)
		assert.ErrorIs(t, err, entities.ErrInvalidTransition)
	})
}

func TestMarketService_ResolveMarket(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves a locked market and settles bets", func(t *testing.T) {
		service, mockMarketRepo, mockBetRepo, mockUserRepo, publisher := createTestMarketService()

		market := openMarket(1)
		market.State = entities.MarketStateLocked
		market.YesPool = 100
		market.NoPool = 50

		winner := testUser(10)
		loser := testUser(20)
		bets := []*entities.Bet{
			{ID: 1, UserID: 10, MarketID: 1, Amount: 100, Prediction: entities.OutcomeYes},
			{ID: 2, UserID: 20, MarketID: 1, Amount: 50, Prediction: entities.OutcomeNo},
		}

		mockMarketRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(market, nil)
		mockBetRepo.On("GetByMarket", ctx, int64(1)).Return(bets, nil)
		mockBetRepo.On("UpdateSettlement", ctx, bets).Return(nil)
		mockUserRepo.On("GetByIDForUpdate", ctx, int64(10)).Return(winner, nil)
		mockUserRepo.On("GetByIDForUpdate", ctx, int64(20)).Return(loser, nil)
		mockUserRepo.On("Update", ctx, winner).Return(nil)
		mockUserRepo.On("Update", ctx, loser).Return(nil)
		mockMarketRepo.On("Update", ctx, market).Return(nil)

		result, err := service.ResolveMarket(ctx, 1, entities.OutcomeYes)

		require.NoError(t, err)
		assert.Equal(t, entities.MarketStateResolved, market.State)
		require.NotNil(t, market.Resolution)
		assert.Equal(t, entities.OutcomeYes, *market.Resolution)

		require.Len(t, result.Winners, 1)
		assert.Equal(t, int64(150), result.Winners[0].PayoutAmount)

		// Winner stats: one more bet, net winnings added, streak extended
		assert.Equal(t, 1, winner.TotalBets)
		assert.Equal(t, int64(50), winner.TotalWon)
		assert.Equal(t, 1, winner.WinStreak)

		// Loser stats: one more bet, streak reset
		assert.Equal(t, 1, loser.TotalBets)
		assert.Equal(t, int64(0), loser.TotalWon)
		assert.Equal(t, 0, loser.WinStreak)

		assert.Len(t, publisher.EventsOfType(events.EventTypePayoutComputed), 1)
		assert.Len(t, publisher.EventsOfType(events.EventTypeMarketStateChange), 1)
		mockBetRepo.AssertExpectations(t)
	})

	t.Run("rejects resolving an open market", func(t *testing.T) {
		service, mockMarketRepo, mockBetRepo, _, _ := createTestMarketService()
		market := openMarket(1)

		mockMarketRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(market, nil)
		mockBetRepo.On("GetByMarket", ctx, int64(1)).Return([]*entities.Bet{}, nil)

		_, err := service.ResolveMarket(ctx, 1, entities.OutcomeYes)
		assert.ErrorIs(t, err, entities.ErrInvalidTransition)
	})

	t.Run("rejects resolving twice", func(t *testing.T) {
		service, mockMarketRepo, mockBetRepo, mockUserRepo, _ := createTestMarketService()
		market := openMarket(1)
		market.State = entities.MarketStateResolved
		yes := entities.OutcomeYes
		market.Resolution = &yes
		market.YesPool = 100
		market.NoPool = 50

		settled := []*entities.Bet{
			{ID: 1, UserID: 10, MarketID: 1, Amount: 100, Prediction: entities.OutcomeYes, PayoutAmount: 150, IsPaid: true},
			{ID: 2, UserID: 20, MarketID: 1, Amount: 50, Prediction: entities.OutcomeNo, PayoutAmount: 0, IsPaid: true},
		}

		mockMarketRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(market, nil)
		mockBetRepo.On("GetByMarket", ctx, int64(1)).Return(settled, nil)

		_, err := service.ResolveMarket(ctx, 1, entities.OutcomeNo)
		assert.ErrorIs(t, err, entities.ErrAlreadySettled)

		// The first settlement stands; the rejection must not re-settle.
		assert.Equal(t, int64(150), settled[0].PayoutAmount)
		assert.True(t, settled[0].IsPaid)
		assert.Equal(t, int64(0), settled[1].PayoutAmount)
		assert.True(t, settled[1].IsPaid)
		mockBetRepo.AssertNotCalled(t, "UpdateSettlement", mock.Anything, mock.Anything)
		mockUserRepo.AssertNotCalled(t, "GetByIDForUpdate", mock.Anything, mock.Anything)
		mockUserRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		mockMarketRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("writes participant stats in ascending user id order", func(t *testing.T) {
		service, mockMarketRepo, mockBetRepo, mockUserRepo, _ := createTestMarketService()

		market := openMarket(1)
		market.State = entities.MarketStateLocked
		market.YesPool = 300
		market.NoPool = 100

		bets := []*entities.Bet{
			{ID: 1, UserID: 30, MarketID: 1, Amount: 100, Prediction: entities.OutcomeYes},
			{ID: 2, UserID: 10, MarketID: 1, Amount: 100, Prediction: entities.OutcomeNo},
			{ID: 3, UserID: 20, MarketID: 1, Amount: 200, Prediction: entities.OutcomeYes},
		}

		mockMarketRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(market, nil)
		mockBetRepo.On("GetByMarket", ctx, int64(1)).Return(bets, nil)
		mockBetRepo.On("UpdateSettlement", ctx, bets).Return(nil)
		mockMarketRepo.On("Update", ctx, market).Return(nil)

		var locked, written []int64
		for _, id := range []int64{10, 20, 30} {
			id := id
			mockUserRepo.On("GetByIDForUpdate", ctx, id).Run(func(mock.Arguments) {
				locked = append(locked, id)
			}).Return(testUser(id), nil)
		}
		mockUserRepo.On("Update", ctx, mock.AnythingOfType("*entities.User")).Run(func(args mock.Arguments) {
			written = append(written, args.Get(1).(*entities.User).ID)
		}).Return(nil)

		_, err := service.ResolveMarket(ctx, 1, entities.OutcomeYes)

		require.NoError(t, err)
		assert.Equal(t, []int64{10, 20, 30}, locked)
		assert.Equal(t, []int64{10, 20, 30}, written)
	})
}

func TestMarketService_CancelMarket(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels and flags bets for refund", func(t *testing.T) {
		service, mockMarketRepo, mockBetRepo, _, publisher := createTestMarketService()
		market := openMarket(1)
		market.YesPool = 100

		mockMarketRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(market, nil)
		mockBetRepo.On("MarkRefundedByMarket", ctx, int64(1)).Return(int64(3), nil)
		mockMarketRepo.On("Update", ctx, market).Return(nil)

		cancelled, err := service.CancelMarket(ctx, 1)

		require.NoError(t, err)
		assert.Equal(t, entities.MarketStateCancelled, cancelled.State)
		assert.Len(t, publisher.EventsOfType(events.EventTypeMarketStateChange), 1)
		mockBetRepo.AssertExpectations(t)
	})

	t.Run("rejects cancelling a resolved market", func(t *testing.T) {
		service, mockMarketRepo, _, _, _ := createTestMarketService()
		market := openMarket(1)
		market.State = entities.MarketStateResolved

		mockMarketRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(market, nil)

		_, err := service.CancelMarket(ctx, 1)
		assert.ErrorIs(t, err, entities.ErrAlreadySettled)
	})
}

func TestMarketService_TransitionExpiredMarkets(t *testing.T) {
	ctx := context.Background()

	t.Run("locks all expired open markets", func(t *testing.T) {
		service, mockMarketRepo, _, _, publisher := createTestMarketService()

		first := openMarket(1)
		second := openMarket(2)
		expired := []*entities.Market{first, second}

		mockMarketRepo.On("GetExpiredOpen", ctx).Return(expired, nil)
		mockMarketRepo.On("Update", ctx, first).Return(nil)
		mockMarketRepo.On("Update", ctx, second).Return(nil)

		locked, err := service.TransitionExpiredMarkets(ctx)

		require.NoError(t, err)
		assert.Equal(t, 2, locked)
		assert.Equal(t, entities.MarketStateLocked, first.State)
		assert.Equal(t, entities.MarketStateLocked, second.State)
		assert.Len(t, publisher.EventsOfType(events.EventTypeMarketStateChange), 2)
	})

	t.Run("skips markets already closed by an admin", func(t *testing.T) {
		service, mockMarketRepo, _, _, _ := createTestMarketService()

		alreadyLocked := openMarket(1)
		alreadyLocked.State = entities.MarketStateLocked

		mockMarketRepo.On("GetExpiredOpen", ctx).Return([]*entities.Market{alreadyLocked}, nil)

		locked, err := service.TransitionExpiredMarkets(ctx)

		require.NoError(t, err)
		assert.Equal(t, 0, locked)
	})
}

func TestMarketService_GetMarketDetail(t *testing.T) {
	ctx := context.Background()

	t.Run("returns market with bets", func(t *testing.T) {
		service, mockMarketRepo, _, _, _ := createTestMarketService()
		detail := &entities.MarketDetail{
			Market: openMarket(1),
			Bets:   []*entities.Bet{{ID: 1, Amount: 100, Prediction: entities.OutcomeYes}},
		}

		mockMarketRepo.On("GetDetailByID", ctx, int64(1)).Return(detail, nil)

		got, err := service.GetMarketDetail(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, got.Bets, 1)
	})

	t.Run("returns ErrNotFound for missing market", func(t *testing.T) {
		service, mockMarketRepo, _, _, _ := createTestMarketService()
		mockMarketRepo.On("GetDetailByID", ctx, int64(404)).Return(nil, nil)

		_, err := service.GetMarketDetail(ctx, 404)
		assert.ErrorIs(t, err, entities.ErrNotFound)
	})
}
