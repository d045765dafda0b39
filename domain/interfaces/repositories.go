package interfaces

import (
	"context"

	"chainbet/telegram-client/domain/entities"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user by their store-assigned id
	GetByID(ctx context.Context, id int64) (*entities.User, error)

	// GetByIDForUpdate retrieves a user and acquires their row lock for the
	// duration of the current transaction. Aggregate stat writes must read
	// through this so concurrent settlements cannot clobber each other.
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.User, error)

	// GetByTelegramID retrieves a user by their Telegram id
	GetByTelegramID(ctx context.Context, telegramID int64) (*entities.User, error)

	// GetByTelegramIDForUpdate retrieves a user by Telegram id holding their
	// row lock, for profile mutations done via a full Update
	GetByTelegramIDForUpdate(ctx context.Context, telegramID int64) (*entities.User, error)

	// GetByReferralCode retrieves the user owning a referral code
	GetByReferralCode(ctx context.Context, code string) (*entities.User, error)

	// Create persists a new user and assigns its id
	Create(ctx context.Context, user *entities.User) error

	// Update persists all mutable user fields. Callers must hold the user's
	// row lock; an unlocked read-modify-write would rewrite the aggregate
	// stat columns from a stale snapshot.
	Update(ctx context.Context, user *entities.User) error

	// TouchActivity bumps only the user's last activity timestamp
	TouchActivity(ctx context.Context, id int64) error

	// TopByWinnings returns users ranked by total winnings descending,
	// ties broken by earliest last activity
	TopByWinnings(ctx context.Context, limit int) ([]*entities.User, error)
}

// MarketRepository defines the interface for market data access
type MarketRepository interface {
	// Create persists a new market and assigns its id
	Create(ctx context.Context, market *entities.Market) error

	// GetByID retrieves a market by id
	GetByID(ctx context.Context, id int64) (*entities.Market, error)

	// GetByIDForUpdate retrieves a market and acquires its row lock for
	// the duration of the current transaction. This is the per-market
	// serialization point for stake placement and settlement.
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.Market, error)

	// GetDetailByID retrieves a market together with all of its bets
	GetDetailByID(ctx context.Context, id int64) (*entities.MarketDetail, error)

	// GetActive returns all markets in the open state
	GetActive(ctx context.Context) ([]*entities.Market, error)

	// GetByChain returns all markets carrying a chain tag
	GetByChain(ctx context.Context, chainTag string) ([]*entities.Market, error)

	// GetExpiredOpen returns open markets whose expiry time has passed
	GetExpiredOpen(ctx context.Context) ([]*entities.Market, error)

	// GetAll returns every market
	GetAll(ctx context.Context) ([]*entities.Market, error)

	// Update persists state, resolution and pool totals
	Update(ctx context.Context, market *entities.Market) error
}

// BetRepository defines the interface for bet data access
type BetRepository interface {
	// Create persists a new bet and assigns its id
	Create(ctx context.Context, bet *entities.Bet) error

	// GetByID retrieves a bet by id
	GetByID(ctx context.Context, id int64) (*entities.Bet, error)

	// GetByUser returns a user's bets in insertion order
	GetByUser(ctx context.Context, userID int64) ([]*entities.Bet, error)

	// GetByMarket returns all bets on a market in insertion order
	GetByMarket(ctx context.Context, marketID int64) ([]*entities.Bet, error)

	// UpdateSettlement persists payout amount and paid flag for settled bets
	UpdateSettlement(ctx context.Context, bets []*entities.Bet) error

	// MarkRefundedByMarket flags every bet on a market for refund
	MarkRefundedByMarket(ctx context.Context, marketID int64) (int64, error)
}

// ReferralRepository defines the interface for referral data access
type ReferralRepository interface {
	// Create persists a new referral. Fails if the referee already has one.
	Create(ctx context.Context, referral *entities.Referral) error

	// GetByReferee returns the referral that registered a user, if any
	GetByReferee(ctx context.Context, refereeID int64) (*entities.Referral, error)

	// GetByReferrer returns all referrals credited to a referrer
	GetByReferrer(ctx context.Context, referrerID int64) ([]*entities.Referral, error)
}

// StatsRepository defines the interface for platform-wide aggregates
type StatsRepository interface {
	// AdminStats returns user, market, bet and volume counts
	AdminStats(ctx context.Context) (*entities.AdminStats, error)
}
