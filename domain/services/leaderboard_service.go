package services

import (
	"context"
	"fmt"

	"chainbet/telegram-client/domain/entities"
	"chainbet/telegram-client/domain/interfaces"
)

const defaultLeaderboardLimit = 10

type leaderboardService struct {
	userRepo   interfaces.UserRepository
	marketRepo interfaces.MarketRepository
	betRepo    interfaces.BetRepository
	statsRepo  interfaces.StatsRepository
}

// NewLeaderboardService creates the read-only query facade
func NewLeaderboardService(
	userRepo interfaces.UserRepository,
	marketRepo interfaces.MarketRepository,
	betRepo interfaces.BetRepository,
	statsRepo interfaces.StatsRepository,
) interfaces.LeaderboardService {
	return &leaderboardService{
		userRepo:   userRepo,
		marketRepo: marketRepo,
		betRepo:    betRepo,
		statsRepo:  statsRepo,
	}
}

// TopByWinnings ranks users by total winnings descending. Ties are broken
// by earliest last activity so the ordering is deterministic.
func (s *leaderboardService) TopByWinnings(ctx context.Context, limit int) ([]*entities.User, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	users, err := s.userRepo.TopByWinnings(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	return users, nil
}

// ActiveMarkets returns all open markets
func (s *leaderboardService) ActiveMarkets(ctx context.Context) ([]*entities.Market, error) {
	markets, err := s.marketRepo.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active markets: %w", err)
	}
	return markets, nil
}

// UnsettledMarkets returns markets still awaiting an outcome. Locked
// markets show up here until an admin declares a result.
func (s *leaderboardService) UnsettledMarkets(ctx context.Context) ([]*entities.Market, error) {
	all, err := s.marketRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get markets: %w", err)
	}
	unsettled := make([]*entities.Market, 0, len(all))
	for _, market := range all {
		if !market.IsTerminal() {
			unsettled = append(unsettled, market)
		}
	}
	return unsettled, nil
}

// MarketsByChain returns all markets carrying a chain tag
func (s *leaderboardService) MarketsByChain(ctx context.Context, chainTag string) ([]*entities.Market, error) {
	markets, err := s.marketRepo.GetByChain(ctx, chainTag)
	if err != nil {
		return nil, fmt.Errorf("failed to get markets for chain %s: %w", chainTag, err)
	}
	return markets, nil
}

// BetsForUser returns a user's bets in insertion order
func (s *leaderboardService) BetsForUser(ctx context.Context, userID int64) ([]*entities.Bet, error) {
	bets, err := s.betRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets for user %d: %w", userID, err)
	}
	return bets, nil
}

// AdminStats returns platform-wide aggregates
func (s *leaderboardService) AdminStats(ctx context.Context) (*entities.AdminStats, error) {
	stats, err := s.statsRepo.AdminStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get admin stats: %w", err)
	}
	return stats, nil
}
