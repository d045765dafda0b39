package repository

import (
	"context"
	"fmt"

	"chainbet/telegram-client/database"
	"chainbet/telegram-client/domain/entities"

	"github.com/jackc/pgx/v5"
)

const betColumns = `
	id, user_id, market_id, amount, prediction, external_tx_ref,
	is_paid, refunded, payout_amount, created_at`

// BetRepository implements the BetRepository interface
type BetRepository struct {
	q Queryable
}

// NewBetRepository creates a new bet repository
func NewBetRepository(db *database.DB) *BetRepository {
	return &BetRepository{q: db.Pool}
}

// NewBetRepositoryScoped creates a new bet repository bound to a transaction
func NewBetRepositoryScoped(tx Queryable) *BetRepository {
	return &BetRepository{q: tx}
}

func scanBet(row pgx.Row) (*entities.Bet, error) {
	var bet entities.Bet
	err := row.Scan(
		&bet.ID,
		&bet.UserID,
		&bet.MarketID,
		&bet.Amount,
		&bet.Prediction,
		&bet.ExternalTxRef,
		&bet.IsPaid,
		&bet.Refunded,
		&bet.PayoutAmount,
		&bet.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &bet, nil
}

// Create persists a new bet and assigns its id
func (r *BetRepository) Create(ctx context.Context, bet *entities.Bet) error {
	query := `
		INSERT INTO bets (user_id, market_id, amount, prediction, external_tx_ref)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_paid, refunded, payout_amount, created_at
	`

	err := r.q.QueryRow(ctx, query,
		bet.UserID,
		bet.MarketID,
		bet.Amount,
		bet.Prediction,
		bet.ExternalTxRef,
	).Scan(&bet.ID, &bet.IsPaid, &bet.Refunded, &bet.PayoutAmount, &bet.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create bet: %w", err)
	}
	return nil
}

// GetByID retrieves a bet by id
func (r *BetRepository) GetByID(ctx context.Context, id int64) (*entities.Bet, error) {
	query := `SELECT` + betColumns + ` FROM bets WHERE id = $1`

	bet, err := scanBet(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bet %d: %w", id, err)
	}
	return bet, nil
}

// GetByUser returns a user's bets in insertion order
func (r *BetRepository) GetByUser(ctx context.Context, userID int64) ([]*entities.Bet, error) {
	query := `SELECT` + betColumns + ` FROM bets WHERE user_id = $1 ORDER BY id ASC`
	return r.queryBets(ctx, query, userID)
}

// GetByMarket returns all bets on a market in insertion order
func (r *BetRepository) GetByMarket(ctx context.Context, marketID int64) ([]*entities.Bet, error) {
	query := `SELECT` + betColumns + ` FROM bets WHERE market_id = $1 ORDER BY id ASC`
	return r.queryBets(ctx, query, marketID)
}

// UpdateSettlement persists payout amount and paid flag for settled bets
func (r *BetRepository) UpdateSettlement(ctx context.Context, bets []*entities.Bet) error {
	query := `
		UPDATE bets
		SET is_paid = $1, payout_amount = $2
		WHERE id = $3
	`
	for _, bet := range bets {
		result, err := r.q.Exec(ctx, query, bet.IsPaid, bet.PayoutAmount, bet.ID)
		if err != nil {
			return fmt.Errorf("failed to settle bet %d: %w", bet.ID, err)
		}
		if result.RowsAffected() == 0 {
			return fmt.Errorf("bet %d: %w", bet.ID, entities.ErrNotFound)
		}
	}
	return nil
}

// MarkRefundedByMarket flags every bet on a market for refund and returns
// the number of bets flagged
func (r *BetRepository) MarkRefundedByMarket(ctx context.Context, marketID int64) (int64, error) {
	query := `UPDATE bets SET refunded = TRUE WHERE market_id = $1 AND NOT refunded`

	result, err := r.q.Exec(ctx, query, marketID)
	if err != nil {
		return 0, fmt.Errorf("failed to flag bets for refund on market %d: %w", marketID, err)
	}
	return result.RowsAffected(), nil
}

func (r *BetRepository) queryBets(ctx context.Context, query string, args ...any) ([]*entities.Bet, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bets: %w", err)
	}
	defer rows.Close()

	var bets []*entities.Bet
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, bet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bets: %w", err)
	}
	return bets, nil
}
