package repository

import (
	"context"
	"fmt"

	"chainbet/telegram-client/database"
	"chainbet/telegram-client/domain/entities"

	"github.com/jackc/pgx/v5"
)

const userColumns = `
	id, telegram_id, username, wallet_address, referral_code, referred_by,
	total_bets, total_won, win_streak, last_active_at, is_active,
	created_at, updated_at`

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q Queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// NewUserRepositoryScoped creates a new user repository bound to a transaction
func NewUserRepositoryScoped(tx Queryable) *UserRepository {
	return &UserRepository{q: tx}
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var user entities.User
	err := row.Scan(
		&user.ID,
		&user.TelegramID,
		&user.Username,
		&user.WalletAddress,
		&user.ReferralCode,
		&user.ReferredBy,
		&user.TotalBets,
		&user.TotalWon,
		&user.WinStreak,
		&user.LastActiveAt,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID retrieves a user by their store-assigned id
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return user, nil
}

// GetByIDForUpdate retrieves a user and acquires their row lock for the
// duration of the current transaction
func (r *UserRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`

	user, err := scanUser(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock user %d: %w", id, err)
	}
	return user, nil
}

// GetByTelegramID retrieves a user by their Telegram id
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*entities.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE telegram_id = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, telegramID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by telegram id %d: %w", telegramID, err)
	}
	return user, nil
}

// GetByTelegramIDForUpdate retrieves a user by Telegram id holding their
// row lock
func (r *UserRepository) GetByTelegramIDForUpdate(ctx context.Context, telegramID int64) (*entities.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE telegram_id = $1 FOR UPDATE`

	user, err := scanUser(r.q.QueryRow(ctx, query, telegramID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock user by telegram id %d: %w", telegramID, err)
	}
	return user, nil
}

// GetByReferralCode retrieves the user owning a referral code
func (r *UserRepository) GetByReferralCode(ctx context.Context, code string) (*entities.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE referral_code = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, code))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by referral code %s: %w", code, err)
	}
	return user, nil
}

// Create persists a new user and assigns its id
func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	query := `
		INSERT INTO users (telegram_id, username, wallet_address, referral_code, referred_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, total_bets, total_won, win_streak, last_active_at, is_active, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		user.TelegramID,
		user.Username,
		user.WalletAddress,
		user.ReferralCode,
		user.ReferredBy,
	).Scan(
		&user.ID,
		&user.TotalBets,
		&user.TotalWon,
		&user.WinStreak,
		&user.LastActiveAt,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user for telegram id %d: %w", user.TelegramID, err)
	}
	return nil
}

// Update persists all mutable user fields
func (r *UserRepository) Update(ctx context.Context, user *entities.User) error {
	query := `
		UPDATE users
		SET username = $1, wallet_address = $2, referred_by = $3,
		    total_bets = $4, total_won = $5, win_streak = $6,
		    last_active_at = $7, is_active = $8, updated_at = NOW()
		WHERE id = $9
	`

	result, err := r.q.Exec(ctx, query,
		user.Username,
		user.WalletAddress,
		user.ReferredBy,
		user.TotalBets,
		user.TotalWon,
		user.WinStreak,
		user.LastActiveAt,
		user.IsActive,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user %d: %w", user.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", user.ID, entities.ErrNotFound)
	}
	return nil
}

// TouchActivity bumps only the user's last activity timestamp. The targeted
// update leaves the aggregate stat columns alone, so it is safe without
// holding the row lock beforehand.
func (r *UserRepository) TouchActivity(ctx context.Context, id int64) error {
	query := `UPDATE users SET last_active_at = NOW(), updated_at = NOW() WHERE id = $1`

	result, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to touch user %d activity: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", id, entities.ErrNotFound)
	}
	return nil
}

// TopByWinnings returns users ranked by total winnings descending, ties
// broken by earliest last activity for a deterministic ordering
func (r *UserRepository) TopByWinnings(ctx context.Context, limit int) ([]*entities.User, error) {
	query := `SELECT` + userColumns + `
		FROM users
		WHERE is_active
		ORDER BY total_won DESC, last_active_at ASC, id ASC
		LIMIT $1`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var users []*entities.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}
