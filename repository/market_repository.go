package repository

import (
	"context"
	"fmt"

	"chainbet/telegram-client/database"
	"chainbet/telegram-client/domain/entities"

	"github.com/jackc/pgx/v5"
)

const marketColumns = `
	id, title, description, chain_tag, state, resolution,
	yes_pool, no_pool, expires_at, created_at, resolved_at`

// MarketRepository implements the MarketRepository interface
type MarketRepository struct {
	q Queryable
}

// NewMarketRepository creates a new market repository
func NewMarketRepository(db *database.DB) *MarketRepository {
	return &MarketRepository{q: db.Pool}
}

// NewMarketRepositoryScoped creates a new market repository bound to a transaction
func NewMarketRepositoryScoped(tx Queryable) *MarketRepository {
	return &MarketRepository{q: tx}
}

func scanMarket(row pgx.Row) (*entities.Market, error) {
	var market entities.Market
	err := row.Scan(
		&market.ID,
		&market.Title,
		&market.Description,
		&market.ChainTag,
		&market.State,
		&market.Resolution,
		&market.YesPool,
		&market.NoPool,
		&market.ExpiresAt,
		&market.CreatedAt,
		&market.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return &market, nil
}

// Create persists a new market and assigns its id
func (r *MarketRepository) Create(ctx context.Context, market *entities.Market) error {
	query := `
		INSERT INTO markets (title, description, chain_tag, state, yes_pool, no_pool, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		market.Title,
		market.Description,
		market.ChainTag,
		market.State,
		market.YesPool,
		market.NoPool,
		market.ExpiresAt,
	).Scan(&market.ID, &market.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create market: %w", err)
	}
	return nil
}

// GetByID retrieves a market by id
func (r *MarketRepository) GetByID(ctx context.Context, id int64) (*entities.Market, error) {
	query := `SELECT` + marketColumns + ` FROM markets WHERE id = $1`

	market, err := scanMarket(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get market %d: %w", id, err)
	}
	return market, nil
}

// GetByIDForUpdate retrieves a market and holds its row lock until the
// surrounding transaction ends. Stake placement and settlement serialize
// on this lock, so pool updates on one market can never interleave.
func (r *MarketRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Market, error) {
	query := `SELECT` + marketColumns + ` FROM markets WHERE id = $1 FOR UPDATE`

	market, err := scanMarket(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock market %d: %w", id, err)
	}
	return market, nil
}

// GetDetailByID retrieves a market together with all of its bets
func (r *MarketRepository) GetDetailByID(ctx context.Context, id int64) (*entities.MarketDetail, error) {
	market, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if market == nil {
		return nil, nil
	}

	betRepo := &BetRepository{q: r.q}
	bets, err := betRepo.GetByMarket(ctx, id)
	if err != nil {
		return nil, err
	}

	return &entities.MarketDetail{Market: market, Bets: bets}, nil
}

// GetActive returns all open markets, newest first
func (r *MarketRepository) GetActive(ctx context.Context) ([]*entities.Market, error) {
	query := `SELECT` + marketColumns + ` FROM markets WHERE state = $1 ORDER BY created_at DESC`
	return r.queryMarkets(ctx, query, entities.MarketStateOpen)
}

// GetByChain returns all markets carrying a chain tag
func (r *MarketRepository) GetByChain(ctx context.Context, chainTag string) ([]*entities.Market, error) {
	query := `SELECT` + marketColumns + ` FROM markets WHERE chain_tag = $1 ORDER BY created_at DESC`
	return r.queryMarkets(ctx, query, chainTag)
}

// GetExpiredOpen returns open markets past their expiry time, with their
// row locks held so the expiry worker cannot race a concurrent stake
func (r *MarketRepository) GetExpiredOpen(ctx context.Context) ([]*entities.Market, error) {
	query := `SELECT` + marketColumns + `
		FROM markets
		WHERE state = $1 AND expires_at <= NOW()
		ORDER BY expires_at ASC
		FOR UPDATE`
	return r.queryMarkets(ctx, query, entities.MarketStateOpen)
}

// GetAll returns every market
func (r *MarketRepository) GetAll(ctx context.Context) ([]*entities.Market, error) {
	query := `SELECT` + marketColumns + ` FROM markets ORDER BY id ASC`
	return r.queryMarkets(ctx, query)
}

// Update persists state, resolution and pool totals
func (r *MarketRepository) Update(ctx context.Context, market *entities.Market) error {
	query := `
		UPDATE markets
		SET title = $1, description = $2, chain_tag = $3, state = $4,
		    resolution = $5, yes_pool = $6, no_pool = $7,
		    expires_at = $8, resolved_at = $9
		WHERE id = $10
	`

	result, err := r.q.Exec(ctx, query,
		market.Title,
		market.Description,
		market.ChainTag,
		market.State,
		market.Resolution,
		market.YesPool,
		market.NoPool,
		market.ExpiresAt,
		market.ResolvedAt,
		market.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update market %d: %w", market.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("market %d: %w", market.ID, entities.ErrNotFound)
	}
	return nil
}

func (r *MarketRepository) queryMarkets(ctx context.Context, query string, args ...any) ([]*entities.Market, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query markets: %w", err)
	}
	defer rows.Close()

	var markets []*entities.Market
	for rows.Next() {
		market, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan market: %w", err)
		}
		markets = append(markets, market)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate markets: %w", err)
	}
	return markets, nil
}
