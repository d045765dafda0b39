package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"chainbet/telegram-client/config"
	"chainbet/telegram-client/domain/entities"
	"chainbet/telegram-client/domain/events"
	"chainbet/telegram-client/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

type marketService struct {
	config         *config.Config
	marketRepo     interfaces.MarketRepository
	betRepo        interfaces.BetRepository
	userRepo       interfaces.UserRepository
	eventPublisher interfaces.EventPublisher
}

// NewMarketService creates a new market service. The repositories must all
// be scoped to the same unit of work so that stake placement and settlement
// are atomic.
func NewMarketService(
	marketRepo interfaces.MarketRepository,
	betRepo interfaces.BetRepository,
	userRepo interfaces.UserRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.MarketService {
	return &marketService{
		config:         config.Get(),
		marketRepo:     marketRepo,
		betRepo:        betRepo,
		userRepo:       userRepo,
		eventPublisher: eventPublisher,
	}
}

// CreateMarket creates a new open market
func (s *marketService) CreateMarket(ctx context.Context, title, description, chainTag string, expiresAt time.Time) (*entities.Market, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("title cannot be empty")
	}
	if !time.Now().Before(expiresAt) {
		return nil, fmt.Errorf("expiry time must be in the future")
	}

	market := &entities.Market{
		Title:       title,
		Description: description,
		ChainTag:    chainTag,
		State:       entities.MarketStateOpen,
		YesPool:     0,
		NoPool:      0,
		ExpiresAt:   expiresAt,
	}

	if err := s.marketRepo.Create(ctx, market); err != nil {
		return nil, fmt.Errorf("failed to create market: %w", err)
	}

	return market, nil
}

// PlaceStake creates a bet and adds its amount to the matching pool. The
// market row lock held for the rest of the transaction is the single
// serialization point per market, so concurrent stakes cannot lose updates.
func (s *marketService) PlaceStake(ctx context.Context, marketID, userID int64, prediction entities.Outcome, amount int64, externalTxRef *string) (*entities.Bet, error) {
	if !prediction.IsValid() {
		return nil, fmt.Errorf("%w: unknown prediction %q", entities.ErrInvalidAmount, prediction)
	}
	if amount < s.config.MinStake || amount > s.config.MaxStake {
		return nil, fmt.Errorf("%w: %d is outside [%d, %d]", entities.ErrInvalidAmount, amount, s.config.MinStake, s.config.MaxStake)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %d", entities.ErrNotFound, userID)
	}

	market, err := s.marketRepo.GetByIDForUpdate(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get market: %w", err)
	}
	if market == nil {
		return nil, fmt.Errorf("%w: market %d", entities.ErrNotFound, marketID)
	}
	// An expired market still marked open is already past its lock point;
	// the expiry worker just hasn't caught up yet.
	if !market.IsOpen() || market.IsExpired() {
		return nil, fmt.Errorf("%w: market %d is %s", entities.ErrMarketNotOpen, marketID, market.State)
	}

	bet := &entities.Bet{
		UserID:        userID,
		MarketID:      marketID,
		Amount:        amount,
		Prediction:    prediction,
		ExternalTxRef: externalTxRef,
	}
	if err := s.betRepo.Create(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to create bet: %w", err)
	}

	market.AddStake(prediction, amount)
	if err := s.marketRepo.Update(ctx, market); err != nil {
		return nil, fmt.Errorf("failed to update market pools: %w", err)
	}

	// Targeted update; a full-row write here would rewrite the aggregate
	// stat columns from the pre-lock snapshot read above.
	if err := s.userRepo.TouchActivity(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to update user activity: %w", err)
	}

	if err := s.eventPublisher.Publish(events.StakePlacedEvent{
		BetID:      bet.ID,
		MarketID:   marketID,
		UserID:     userID,
		Amount:     amount,
		Prediction: prediction,
	}); err != nil {
		log.WithError(err).Error("Failed to publish stake placed event")
	}

	return bet, nil
}

// LockMarket transitions an open market to locked
func (s *marketService) LockMarket(ctx context.Context, marketID int64) (*entities.Market, error) {
	market, err := s.marketRepo.GetByIDForUpdate(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get market: %w", err)
	}
	if market == nil {
		return nil, fmt.Errorf("%w: market %d", entities.ErrNotFound, marketID)
	}

	oldState := market.State
	if err := market.Lock(); err != nil {
		return nil, err
	}
	if err := s.marketRepo.Update(ctx, market); err != nil {
		return nil, fmt.Errorf("failed to update market: %w", err)
	}

	s.publishStateChange(market, oldState)
	return market, nil
}

// ResolveMarket resolves a locked market and settles every bet on it within
// the current transaction. Winners receive their principal back plus a
// proportional share of the losing pool. With no winners the house retains
// the entire pool.
func (s *marketService) ResolveMarket(ctx context.Context, marketID int64, outcome entities.Outcome) (*entities.SettlementResult, error) {
	market, err := s.marketRepo.GetByIDForUpdate(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get market: %w", err)
	}
	if market == nil {
		return nil, fmt.Errorf("%w: market %d", entities.ErrNotFound, marketID)
	}

	bets, err := s.betRepo.GetByMarket(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets: %w", err)
	}

	oldState := market.State
	if err := market.Resolve(outcome); err != nil {
		return nil, err
	}

	result := ComputeSettlement(market, bets, outcome)

	if err := s.betRepo.UpdateSettlement(ctx, bets); err != nil {
		return nil, fmt.Errorf("failed to persist settlement: %w", err)
	}

	if err := s.applyUserStats(ctx, result); err != nil {
		return nil, err
	}

	if err := s.marketRepo.Update(ctx, market); err != nil {
		return nil, fmt.Errorf("failed to update resolved market: %w", err)
	}

	s.publishStateChange(market, oldState)
	for _, winner := range result.Winners {
		if err := s.eventPublisher.Publish(events.PayoutComputedEvent{
			BetID:        winner.ID,
			MarketID:     marketID,
			UserID:       winner.UserID,
			PayoutAmount: winner.PayoutAmount,
		}); err != nil {
			log.WithError(err).Error("Failed to publish payout event")
		}
	}

	log.WithFields(log.Fields{
		"marketId":    marketID,
		"resolution":  outcome,
		"totalPot":    result.TotalPot,
		"winnerCount": len(result.Winners),
		"loserCount":  len(result.Losers),
	}).Info("Market resolved")

	return result, nil
}

// applyUserStats updates each participant's aggregates, once per bet. User
// rows are locked and written in ascending id order so concurrent
// settlements sharing bettors cannot deadlock on opposing lock orders.
func (s *marketService) applyUserStats(ctx context.Context, result *entities.SettlementResult) error {
	seen := make(map[int64]bool)
	var userIDs []int64
	for _, bet := range result.Winners {
		if !seen[bet.UserID] {
			seen[bet.UserID] = true
			userIDs = append(userIDs, bet.UserID)
		}
	}
	for _, bet := range result.Losers {
		if !seen[bet.UserID] {
			seen[bet.UserID] = true
			userIDs = append(userIDs, bet.UserID)
		}
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	// Re-read under the row lock; the stats written below must build on the
	// latest committed aggregates, not an earlier unlocked snapshot.
	users := make(map[int64]*entities.User, len(userIDs))
	for _, userID := range userIDs {
		user, err := s.userRepo.GetByIDForUpdate(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to lock user %d: %w", userID, err)
		}
		if user == nil {
			return fmt.Errorf("%w: user %d", entities.ErrNotFound, userID)
		}
		users[userID] = user
	}

	for _, bet := range result.Winners {
		users[bet.UserID].RecordWin(bet.NetProfit())
	}
	for _, bet := range result.Losers {
		users[bet.UserID].RecordLoss()
	}

	for _, userID := range userIDs {
		if err := s.userRepo.Update(ctx, users[userID]); err != nil {
			return fmt.Errorf("failed to update user %d stats: %w", userID, err)
		}
	}
	return nil
}

// CancelMarket transitions a market to cancelled and flags its bets for
// refund. Settlement never runs; refund execution is the caller's concern.
func (s *marketService) CancelMarket(ctx context.Context, marketID int64) (*entities.Market, error) {
	market, err := s.marketRepo.GetByIDForUpdate(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get market: %w", err)
	}
	if market == nil {
		return nil, fmt.Errorf("%w: market %d", entities.ErrNotFound, marketID)
	}

	oldState := market.State
	if err := market.Cancel(); err != nil {
		return nil, err
	}

	flagged, err := s.betRepo.MarkRefundedByMarket(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to flag bets for refund: %w", err)
	}

	if err := s.marketRepo.Update(ctx, market); err != nil {
		return nil, fmt.Errorf("failed to update cancelled market: %w", err)
	}

	s.publishStateChange(market, oldState)

	log.WithFields(log.Fields{
		"marketId":     marketID,
		"refundedBets": flagged,
	}).Info("Market cancelled")

	return market, nil
}

// GetMarketDetail retrieves a market with its bets
func (s *marketService) GetMarketDetail(ctx context.Context, marketID int64) (*entities.MarketDetail, error) {
	detail, err := s.marketRepo.GetDetailByID(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get market detail: %w", err)
	}
	if detail == nil || detail.Market == nil {
		return nil, fmt.Errorf("%w: market %d", entities.ErrNotFound, marketID)
	}
	return detail, nil
}

// TransitionExpiredMarkets locks every open market past its expiry time.
// Called periodically by the expiry worker.
func (s *marketService) TransitionExpiredMarkets(ctx context.Context) (int, error) {
	expired, err := s.marketRepo.GetExpiredOpen(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get expired markets: %w", err)
	}

	locked := 0
	for _, market := range expired {
		oldState := market.State
		if err := market.Lock(); err != nil {
			// Raced with an explicit admin close; nothing to do.
			continue
		}
		if err := s.marketRepo.Update(ctx, market); err != nil {
			return locked, fmt.Errorf("failed to lock expired market %d: %w", market.ID, err)
		}
		s.publishStateChange(market, oldState)
		locked++
	}

	return locked, nil
}

func (s *marketService) publishStateChange(market *entities.Market, oldState entities.MarketState) {
	if err := s.eventPublisher.Publish(events.MarketStateChangeEvent{
		MarketID:   market.ID,
		OldState:   oldState,
		NewState:   market.State,
		Resolution: market.Resolution,
	}); err != nil {
		log.WithError(err).Error("Failed to publish market state change event")
	}
}
