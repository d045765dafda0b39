package infrastructure

import (
	"fmt"

	"chainbet/telegram-client/domain/events"
)

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeUserCreated:
		return "users.created"
	case events.EventTypeStakePlaced:
		return "markets.stake_placed"
	case events.EventTypeMarketStateChange:
		return "markets.state_changed"
	case events.EventTypePayoutComputed:
		return "markets.payout_computed"
	case events.EventTypeReferralRegistered:
		return "users.referral_registered"
	default:
		// Fallback for unknown event types
		return fmt.Sprintf("unknown.%s", event.Type())
	}
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		"users.created",
		"markets.stake_placed",
		"markets.state_changed",
		"markets.payout_computed",
		"users.referral_registered",
	}
}
