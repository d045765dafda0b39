package repository

import (
	"context"
	"fmt"

	"chainbet/telegram-client/database"
	"chainbet/telegram-client/domain/entities"

	"github.com/jackc/pgx/v5"
)

// ReferralRepository implements the ReferralRepository interface
type ReferralRepository struct {
	q Queryable
}

// NewReferralRepository creates a new referral repository
func NewReferralRepository(db *database.DB) *ReferralRepository {
	return &ReferralRepository{q: db.Pool}
}

// NewReferralRepositoryScoped creates a new referral repository bound to a transaction
func NewReferralRepositoryScoped(tx Queryable) *ReferralRepository {
	return &ReferralRepository{q: tx}
}

// Create persists a new referral. The referee's unique constraint ensures
// at most one referral per referee.
func (r *ReferralRepository) Create(ctx context.Context, referral *entities.Referral) error {
	query := `
		INSERT INTO referrals (referrer_id, referee_id, bonus_amount)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		referral.ReferrerID,
		referral.RefereeID,
		referral.BonusAmount,
	).Scan(&referral.ID, &referral.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create referral for referee %d: %w", referral.RefereeID, err)
	}
	return nil
}

// GetByReferee returns the referral that registered a user, if any
func (r *ReferralRepository) GetByReferee(ctx context.Context, refereeID int64) (*entities.Referral, error) {
	query := `
		SELECT id, referrer_id, referee_id, bonus_amount, created_at
		FROM referrals
		WHERE referee_id = $1
	`

	var referral entities.Referral
	err := r.q.QueryRow(ctx, query, refereeID).Scan(
		&referral.ID,
		&referral.ReferrerID,
		&referral.RefereeID,
		&referral.BonusAmount,
		&referral.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get referral for referee %d: %w", refereeID, err)
	}
	return &referral, nil
}

// GetByReferrer returns all referrals credited to a referrer
func (r *ReferralRepository) GetByReferrer(ctx context.Context, referrerID int64) ([]*entities.Referral, error) {
	query := `
		SELECT id, referrer_id, referee_id, bonus_amount, created_at
		FROM referrals
		WHERE referrer_id = $1
		ORDER BY id ASC
	`

	rows, err := r.q.Query(ctx, query, referrerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query referrals for referrer %d: %w", referrerID, err)
	}
	defer rows.Close()

	var referrals []*entities.Referral
	for rows.Next() {
		var referral entities.Referral
		err := rows.Scan(
			&referral.ID,
			&referral.ReferrerID,
			&referral.RefereeID,
			&referral.BonusAmount,
			&referral.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan referral: %w", err)
		}
		referrals = append(referrals, &referral)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate referrals: %w", err)
	}
	return referrals, nil
}
