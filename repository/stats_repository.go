package repository

import (
	"context"
	"fmt"

	"chainbet/telegram-client/database"
	"chainbet/telegram-client/domain/entities"
)

// StatsRepository implements the StatsRepository interface
type StatsRepository struct {
	q Queryable
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *database.DB) *StatsRepository {
	return &StatsRepository{q: db.Pool}
}

// NewStatsRepositoryScoped creates a new stats repository bound to a transaction
func NewStatsRepositoryScoped(tx Queryable) *StatsRepository {
	return &StatsRepository{q: tx}
}

// AdminStats returns platform-wide user, market, bet and volume aggregates
func (r *StatsRepository) AdminStats(ctx context.Context) (*entities.AdminStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE is_active),
			(SELECT COUNT(*) FROM markets),
			(SELECT COUNT(*) FROM markets WHERE state = 'open'),
			(SELECT COUNT(*) FROM bets),
			(SELECT COALESCE(SUM(amount), 0) FROM bets WHERE NOT refunded),
			(SELECT COALESCE(SUM(payout_amount), 0) FROM bets WHERE is_paid)
	`

	var stats entities.AdminStats
	err := r.q.QueryRow(ctx, query).Scan(
		&stats.TotalUsers,
		&stats.ActiveUsers,
		&stats.TotalMarkets,
		&stats.OpenMarkets,
		&stats.TotalBets,
		&stats.TotalVolume,
		&stats.TotalPaidOut,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query admin stats: %w", err)
	}
	return &stats, nil
}
