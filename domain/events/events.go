package events

import "chainbet/telegram-client/domain/entities"

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeUserCreated        EventType = "user_created"
	EventTypeStakePlaced        EventType = "stake_placed"
	EventTypeMarketStateChange  EventType = "market_state_change"
	EventTypePayoutComputed     EventType = "payout_computed"
	EventTypeReferralRegistered EventType = "referral_registered"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// UserCreatedEvent represents a new user registration
type UserCreatedEvent struct {
	UserID     int64
	TelegramID int64
	Username   string
}

func (e UserCreatedEvent) Type() EventType {
	return EventTypeUserCreated
}

// StakePlacedEvent represents a stake accepted into a market pool
type StakePlacedEvent struct {
	BetID      int64
	MarketID   int64
	UserID     int64
	Amount     int64
	Prediction entities.Outcome
}

func (e StakePlacedEvent) Type() EventType {
	return EventTypeStakePlaced
}

// MarketStateChangeEvent represents a market lifecycle transition
type MarketStateChangeEvent struct {
	MarketID   int64
	OldState   entities.MarketState
	NewState   entities.MarketState
	Resolution *entities.Outcome
}

func (e MarketStateChangeEvent) Type() EventType {
	return EventTypeMarketStateChange
}

// PayoutComputedEvent represents a settled bet's payout
type PayoutComputedEvent struct {
	BetID        int64
	MarketID     int64
	UserID       int64
	PayoutAmount int64
}

func (e PayoutComputedEvent) Type() EventType {
	return EventTypePayoutComputed
}

// ReferralRegisteredEvent represents a referral bonus accrual
type ReferralRegisteredEvent struct {
	ReferrerID  int64
	RefereeID   int64
	BonusAmount int64
}

func (e ReferralRegisteredEvent) Type() EventType {
	return EventTypeReferralRegistered
}
