package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"chainbet/telegram-client/domain/entities"
	"chainbet/telegram-client/domain/interfaces"
	"chainbet/telegram-client/domain/services"
	"chainbet/telegram-client/domain/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Callback data prefixes for the admin inline keyboards
const (
	cbResolvePrefix = "resolve:" // resolve:<marketID>:<yes|no>
	cbCancelPrefix  = "cancel:"  // cancel:<marketID>
)

// cmdAddMarket creates a market:
// /addmarket <chain> <hours> <title> | <description>
func (b *Bot) cmdAddMarket(ctx context.Context, msg *tgbotapi.Message) {
	if !b.requireAdmin(msg) {
		return
	}

	args := strings.SplitN(msg.CommandArguments(), " ", 3)
	if len(args) < 3 {
		b.sendText(msg.Chat.ID, "Usage: /addmarket <chain> <hours> <title> | <description>")
		return
	}

	chainTag := strings.ToLower(strings.TrimSpace(args[0]))
	if !b.isKnownChain(chainTag) {
		b.sendText(msg.Chat.ID, fmt.Sprintf(
			"Unknown chain %q. Supported: %s", chainTag, strings.Join(b.cfg.ChainTags, ", ")))
		return
	}

	hours, err := strconv.ParseInt(strings.TrimSpace(args[1]), 10, 64)
	if err != nil || hours <= 0 {
		b.sendText(msg.Chat.ID, "Hours until close must be a positive number.")
		return
	}

	title := strings.TrimSpace(args[2])
	description := ""
	if idx := strings.Index(title, "|"); idx >= 0 {
		description = strings.TrimSpace(title[idx+1:])
		title = strings.TrimSpace(title[:idx])
	}

	var market *entities.Market
	err = b.withUow(ctx, func(uow interfaces.UnitOfWork) error {
		marketService := services.NewMarketService(
			uow.MarketRepository(),
			uow.BetRepository(),
			uow.UserRepository(),
			uow.EventBus(),
		)
		var err error
		market, err = marketService.CreateMarket(ctx, title, description, chainTag,
			time.Now().Add(time.Duration(hours)*time.Hour))
		return err
	})
	if err != nil {
		b.sendText(msg.Chat.ID, fmt.Sprintf("Failed to create market: %v", err))
		return
	}

	b.sendHTML(msg.Chat.ID, fmt.Sprintf(
		"Market <b>#%d</b> created on %s, closes %s.",
		market.ID, chainDisplayName(market.ChainTag),
		market.ExpiresAt.UTC().Format("2006-01-02 15:04 UTC")))
}

// cmdCloseMarket locks a market and offers resolution buttons:
// /closemarket <marketID>
func (b *Bot) cmdCloseMarket(ctx context.Context, msg *tgbotapi.Message) {
	if !b.requireAdmin(msg) {
		return
	}

	marketID, err := strconv.ParseInt(strings.TrimSpace(msg.CommandArguments()), 10, 64)
	if err != nil {
		b.sendText(msg.Chat.ID, "Usage: /closemarket <market id>")
		return
	}

	var market *entities.Market
	err = b.withUow(ctx, func(uow interfaces.UnitOfWork) error {
		marketService := services.NewMarketService(
			uow.MarketRepository(),
			uow.BetRepository(),
			uow.UserRepository(),
			uow.EventBus(),
		)
		var err error
		market, err = lockForResolution(ctx, marketService, marketID)
		return err
	})
	if err != nil {
		b.sendText(msg.Chat.ID, userErrorText(err))
		return
	}

	b.sendHTMLWithKeyboard(msg.Chat.ID,
		fmt.Sprintf("Market <b>#%d</b> locked. Declare the outcome:", market.ID),
		resolveKeyboard(market.ID))
}

// lockForResolution locks an open market, or returns one the expiry
// worker has already locked. Either way the caller gets a market ready
// for an outcome declaration.
func lockForResolution(ctx context.Context, marketService interfaces.MarketService, marketID int64) (*entities.Market, error) {
	market, err := marketService.LockMarket(ctx, marketID)
	if err == nil {
		return market, nil
	}
	if !errors.Is(err, entities.ErrInvalidTransition) {
		return nil, err
	}

	detail, detailErr := marketService.GetMarketDetail(ctx, marketID)
	if detailErr != nil {
		return nil, detailErr
	}
	if detail.Market.IsLocked() {
		return detail.Market, nil
	}
	return nil, err
}

// cmdAdminMarkets lists markets still awaiting an outcome:
// /adminmarkets
func (b *Bot) cmdAdminMarkets(ctx context.Context, msg *tgbotapi.Message) {
	if !b.requireAdmin(msg) {
		return
	}

	var markets []*entities.Market
	err := b.withUow(ctx, func(uow interfaces.UnitOfWork) error {
		leaderboard := services.NewLeaderboardService(
			uow.UserRepository(),
			uow.MarketRepository(),
			uow.BetRepository(),
			uow.StatsRepository(),
		)
		var err error
		markets, err = leaderboard.UnsettledMarkets(ctx)
		return err
	})
	if err != nil {
		b.sendText(msg.Chat.ID, userErrorText(err))
		return
	}

	if len(markets) == 0 {
		b.sendText(msg.Chat.ID, "No markets awaiting an outcome.")
		return
	}

	var sb strings.Builder
	sb.WriteString("<b>Unsettled markets</b>\n\n")
	for _, market := range markets {
		sb.WriteString(formatMarketLine(market))
		if market.IsLocked() {
			sb.WriteString(" — resolve with /closemarket ")
			sb.WriteString(strconv.FormatInt(market.ID, 10))
		}
		sb.WriteString("\n")
	}
	b.sendHTML(msg.Chat.ID, sb.String())
}

// cmdAdminStats shows platform-wide aggregates
func (b *Bot) cmdAdminStats(ctx context.Context, msg *tgbotapi.Message) {
	if !b.requireAdmin(msg) {
		return
	}

	var stats *entities.AdminStats
	err := b.withUow(ctx, func(uow interfaces.UnitOfWork) error {
		leaderboard := services.NewLeaderboardService(
			uow.UserRepository(),
			uow.MarketRepository(),
			uow.BetRepository(),
			uow.StatsRepository(),
		)
		var err error
		stats, err = leaderboard.AdminStats(ctx)
		return err
	})
	if err != nil {
		b.sendText(msg.Chat.ID, userErrorText(err))
		return
	}

	b.sendHTML(msg.Chat.ID, fmt.Sprintf(
		"<b>Platform stats</b>\n\n"+
			"Users: %d (%d active)\n"+
			"Markets: %d (%d open)\n"+
			"Bets: %d\n"+
			"Volume: %s\n"+
			"Paid out: %s",
		stats.TotalUsers, stats.ActiveUsers,
		stats.TotalMarkets, stats.OpenMarkets,
		stats.TotalBets,
		utils.FormatShortNotation(stats.TotalVolume),
		utils.FormatShortNotation(stats.TotalPaidOut)))
}

// handleCallback routes inline keyboard presses
func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// Acknowledge immediately so the client stops its spinner
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.WithError(err).Warn("Failed to acknowledge callback")
	}

	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	if !b.cfg.IsAdmin(cb.From.ID) {
		b.sendText(chatID, "Only admins can resolve markets.")
		return
	}

	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbResolvePrefix):
		b.handleResolveCallback(ctx, chatID, strings.TrimPrefix(data, cbResolvePrefix))
	case strings.HasPrefix(data, cbCancelPrefix):
		b.handleCancelCallback(ctx, chatID, strings.TrimPrefix(data, cbCancelPrefix))
	default:
		log.WithField("data", data).Warn("Unknown callback data")
	}
}

func (b *Bot) handleResolveCallback(ctx context.Context, chatID int64, data string) {
	parts := strings.Split(data, ":")
	if len(parts) != 2 {
		return
	}
	marketID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return
	}
	outcome := entities.Outcome(parts[1])
	if !outcome.IsValid() {
		return
	}

	var result *entities.SettlementResult
	err = b.withUow(ctx, func(uow interfaces.UnitOfWork) error {
		marketService := services.NewMarketService(
			uow.MarketRepository(),
			uow.BetRepository(),
			uow.UserRepository(),
			uow.EventBus(),
		)
		var err error
		result, err = marketService.ResolveMarket(ctx, marketID, outcome)
		return err
	})
	if err != nil {
		b.sendText(chatID, userErrorText(err))
		return
	}

	b.sendHTML(chatID, formatSettlement(result))
}

func (b *Bot) handleCancelCallback(ctx context.Context, chatID int64, data string) {
	marketID, err := strconv.ParseInt(data, 10, 64)
	if err != nil {
		return
	}

	var market *entities.Market
	err = b.withUow(ctx, func(uow interfaces.UnitOfWork) error {
		marketService := services.NewMarketService(
			uow.MarketRepository(),
			uow.BetRepository(),
			uow.UserRepository(),
			uow.EventBus(),
		)
		var err error
		market, err = marketService.CancelMarket(ctx, marketID)
		return err
	})
	if err != nil {
		b.sendText(chatID, userErrorText(err))
		return
	}

	b.sendHTML(chatID, fmt.Sprintf(
		"Market <b>#%d</b> cancelled. All stakes flagged for refund.", market.ID))
}

// resolveKeyboard builds the outcome declaration keyboard for a market
func resolveKeyboard(marketID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ YES",
				fmt.Sprintf("%s%d:yes", cbResolvePrefix, marketID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ NO",
				fmt.Sprintf("%s%d:no", cbResolvePrefix, marketID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚫 Cancel market",
				fmt.Sprintf("%s%d", cbCancelPrefix, marketID)),
		),
	)
}

func (b *Bot) isKnownChain(tag string) bool {
	for _, known := range b.cfg.ChainTags {
		if known == tag {
			return true
		}
	}
	return false
}
