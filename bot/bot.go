package bot

import (
	"context"
	"fmt"

	"chainbet/telegram-client/config"
	"chainbet/telegram-client/domain/entities"
	"chainbet/telegram-client/domain/interfaces"
	"chainbet/telegram-client/domain/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Bot handles Telegram interactions for the prediction market ledger.
// It is a pure consumer of the domain services: parse intent, call the
// ledger, render the result.
type Bot struct {
	api        *tgbotapi.BotAPI
	cfg        *config.Config
	uowFactory interfaces.UnitOfWorkFactory

	stopCh chan struct{}
}

// New creates a new Telegram bot
func New(cfg *config.Config, uowFactory interfaces.UnitOfWorkFactory) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	log.WithField("username", api.Self.UserName).Info("Telegram bot connected")

	return &Bot{
		api:        api,
		cfg:        cfg,
		uowFactory: uowFactory,
		stopCh:     make(chan struct{}),
	}, nil
}

// Start begins the bot's update listener
func (b *Bot) Start(ctx context.Context) {
	go b.listenForUpdates(ctx)
}

// Stop stops the bot
func (b *Bot) Stop() {
	close(b.stopCh)
	b.api.StopReceivingUpdates()
}

func (b *Bot) listenForUpdates(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case update := <-updates:
			if update.Message != nil {
				go b.handleMessage(ctx, update.Message)
			}
			if update.CallbackQuery != nil {
				go b.handleCallback(ctx, update.CallbackQuery)
			}
		case <-ctx.Done():
			return
		case <-b.stopCh:
			return
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		return
	}

	chatID := msg.Chat.ID
	log.WithFields(log.Fields{
		"telegramId": msg.From.ID,
		"command":    msg.Command(),
	}).Debug("Handling command")

	switch msg.Command() {
	case "start":
		b.cmdStart(ctx, msg)
	case "predict", "bet":
		b.cmdPredict(ctx, msg)
	case "listmarkets", "markets":
		b.cmdListMarkets(ctx, msg)
	case "marketinfo":
		b.cmdMarketInfo(ctx, msg)
	case "mybets":
		b.cmdMyBets(ctx, msg)
	case "leaderboard":
		b.cmdLeaderboard(ctx, msg)
	case "invite":
		b.cmdInvite(ctx, msg)
	case "howto", "help":
		b.cmdHowTo(chatID)
	case "addmarket":
		b.cmdAddMarket(ctx, msg)
	case "closemarket":
		b.cmdCloseMarket(ctx, msg)
	case "adminmarkets":
		b.cmdAdminMarkets(ctx, msg)
	case "adminstats":
		b.cmdAdminStats(ctx, msg)
	default:
		b.sendText(chatID, "Unknown command. Use /howto")
	}
}

// requireAdmin replies with a refusal and returns false if the sender may
// not manage markets
func (b *Bot) requireAdmin(msg *tgbotapi.Message) bool {
	if !b.cfg.IsAdmin(msg.From.ID) {
		b.sendText(msg.Chat.ID, "This command is restricted to admins.")
		return false
	}
	return true
}

// withUow runs fn inside a unit of work, committing on success
func (b *Bot) withUow(ctx context.Context, fn func(uow interfaces.UnitOfWork) error) error {
	uow := b.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := fn(uow); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// resolveUser returns the ledger user for the message sender, creating them
// on first contact. Referral codes only apply on /start, so none is passed
// here.
func (b *Bot) resolveUser(ctx context.Context, uow interfaces.UnitOfWork, from *tgbotapi.User) (*entities.User, error) {
	userService := services.NewUserService(
		uow.UserRepository(),
		uow.ReferralRepository(),
		uow.EventBus(),
	)
	return userService.GetOrCreateUser(ctx, from.ID, from.UserName, "")
}

func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).Error("Failed to send Telegram message")
	}
}

func (b *Bot) sendHTML(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).Error("Failed to send Telegram message")
	}
}

func (b *Bot) sendHTMLWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).Error("Failed to send Telegram message")
	}
}
