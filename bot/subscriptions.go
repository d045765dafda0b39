package bot

import (
	"context"
	"fmt"
	"strings"

	"chainbet/telegram-client/domain/entities"
	"chainbet/telegram-client/domain/events"
	"chainbet/telegram-client/domain/interfaces"
	"chainbet/telegram-client/domain/services"

	log "github.com/sirupsen/logrus"
)

// EventRegistrar registers local handlers invoked after events are
// published to the bus
type EventRegistrar interface {
	RegisterLocalHandler(eventType events.EventType, handler func(context.Context, events.Event) error)
}

// RegisterBotSubscriptions wires market lifecycle announcements to the
// configured announcement chat. A zero chat id disables announcements.
func RegisterBotSubscriptions(registrar EventRegistrar, bot *Bot) {
	if bot.cfg.AnnounceChatID == 0 {
		log.Info("Announcement chat not configured, skipping bot subscriptions")
		return
	}

	registrar.RegisterLocalHandler(events.EventTypeMarketStateChange,
		func(ctx context.Context, event events.Event) error {
			return handleMarketStateChangeAnnouncement(ctx, event, bot)
		})

	log.Info("Bot event subscriptions registered successfully")
}

// handleMarketStateChangeAnnouncement announces terminal market transitions
func handleMarketStateChangeAnnouncement(ctx context.Context, event events.Event, bot *Bot) error {
	stateEvent, ok := event.(events.MarketStateChangeEvent)
	if !ok {
		return fmt.Errorf("received non-MarketStateChangeEvent in state change handler")
	}

	log.WithFields(log.Fields{
		"marketId": stateEvent.MarketID,
		"oldState": stateEvent.OldState,
		"newState": stateEvent.NewState,
	}).Debug("Processing market state change announcement")

	var text string
	err := bot.withUow(ctx, func(uow interfaces.UnitOfWork) error {
		marketService := services.NewMarketService(
			uow.MarketRepository(),
			uow.BetRepository(),
			uow.UserRepository(),
			uow.EventBus(),
		)
		detail, err := marketService.GetMarketDetail(ctx, stateEvent.MarketID)
		if err != nil {
			return err
		}

		switch {
		case detail.Market.IsResolved() && detail.Market.Resolution != nil:
			text = fmt.Sprintf("📣 Market #%d \"%s\" resolved: <b>%s</b>",
				detail.Market.ID, detail.Market.Title,
				strings.ToUpper(string(*detail.Market.Resolution)))
		case stateEvent.NewState == entities.MarketStateCancelled:
			text = fmt.Sprintf("📣 Market #%d \"%s\" was cancelled. Stakes will be refunded.",
				detail.Market.ID, detail.Market.Title)
		case stateEvent.NewState == entities.MarketStateLocked:
			text = fmt.Sprintf("🔒 Market #%d \"%s\" is closed for new predictions.",
				detail.Market.ID, detail.Market.Title)
		}
		return nil
	})
	if err != nil {
		log.WithError(err).WithField("marketId", stateEvent.MarketID).
			Error("Failed to load market for announcement")
		return err
	}

	if text != "" {
		bot.sendHTML(bot.cfg.AnnounceChatID, text)
	}
	return nil
}
