package interfaces

import (
	"context"
	"time"

	"chainbet/telegram-client/domain/entities"
	"chainbet/telegram-client/domain/events"
)

// MarketService governs market lifecycle, pool accounting and settlement
type MarketService interface {
	// CreateMarket creates a new open market. Expiry must be strictly in
	// the future.
	CreateMarket(ctx context.Context, title, description, chainTag string, expiresAt time.Time) (*entities.Market, error)

	// PlaceStake atomically creates a bet and adds its amount to the
	// matching pool. Fails with ErrMarketNotOpen or ErrInvalidAmount.
	PlaceStake(ctx context.Context, marketID, userID int64, prediction entities.Outcome, amount int64, externalTxRef *string) (*entities.Bet, error)

	// LockMarket transitions an open market to locked
	LockMarket(ctx context.Context, marketID int64) (*entities.Market, error)

	// ResolveMarket transitions a locked market to resolved and runs
	// settlement synchronously in the same transaction
	ResolveMarket(ctx context.Context, marketID int64, outcome entities.Outcome) (*entities.SettlementResult, error)

	// CancelMarket transitions a market to cancelled and flags its bets
	// for refund. No settlement runs.
	CancelMarket(ctx context.Context, marketID int64) (*entities.Market, error)

	// GetMarketDetail retrieves a market with its bets
	GetMarketDetail(ctx context.Context, marketID int64) (*entities.MarketDetail, error)

	// TransitionExpiredMarkets locks every open market past its expiry
	// time and returns how many were locked
	TransitionExpiredMarkets(ctx context.Context) (int, error)
}

// UserService manages user registration and identity
type UserService interface {
	// GetOrCreateUser returns the user for a Telegram id, creating them on
	// first interaction. A referral code registers the referral once.
	GetOrCreateUser(ctx context.Context, telegramID int64, username string, referredByCode string) (*entities.User, error)

	// LinkWallet sets the wallet address on first successful wallet link
	LinkWallet(ctx context.Context, telegramID int64, walletAddress string) (*entities.User, error)

	// TouchActivity updates the user's last activity timestamp
	TouchActivity(ctx context.Context, telegramID int64) error

	// Deactivate soft-deactivates a user. Users are never hard-deleted.
	Deactivate(ctx context.Context, telegramID int64) error
}

// LeaderboardService is the read-only query facade over the ledger
type LeaderboardService interface {
	// TopByWinnings ranks users by total winnings descending with
	// deterministic tie-breaking
	TopByWinnings(ctx context.Context, limit int) ([]*entities.User, error)

	// ActiveMarkets returns all open markets
	ActiveMarkets(ctx context.Context) ([]*entities.Market, error)

	// UnsettledMarkets returns markets still awaiting an outcome, open
	// or locked
	UnsettledMarkets(ctx context.Context) ([]*entities.Market, error)

	// MarketsByChain returns all markets for a chain tag
	MarketsByChain(ctx context.Context, chainTag string) ([]*entities.Market, error)

	// BetsForUser returns a user's bets in insertion order
	BetsForUser(ctx context.Context, userID int64) ([]*entities.Bet, error)

	// AdminStats returns platform-wide aggregates
	AdminStats(ctx context.Context) (*entities.AdminStats, error)
}

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher buffers events until the surrounding
// transaction commits
type TransactionalEventPublisher interface {
	EventPublisher

	// Flush publishes all pending events after a successful commit
	Flush(ctx context.Context) error

	// Discard drops all pending events on rollback
	Discard()
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	MarketRepository() MarketRepository
	BetRepository() BetRepository
	ReferralRepository() ReferralRepository
	StatsRepository() StatsRepository

	// EventBus returns the transactional event publisher tied to this
	// unit of work
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
