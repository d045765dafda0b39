package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"chainbet/telegram-client/domain/entities"
	"chainbet/telegram-client/domain/interfaces"
	"chainbet/telegram-client/domain/services"
	"chainbet/telegram-client/domain/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// cmdStart registers the user on first contact. A deep-link payload
// (t.me/<bot>?start=<code>) carries a referral code.
func (b *Bot) cmdStart(ctx context.Context, msg *tgbotapi.Message) {
	referralCode := strings.TrimSpace(msg.CommandArguments())

	var user *entities.User
	err := b.withUow(ctx, func(uow interfaces.UnitOfWork) error {
		userService := services.NewUserService(
			uow.UserRepository(),
			uow.ReferralRepository(),
			uow.EventBus(),
		)
		var err error
		user, err = userService.GetOrCreateUser(ctx, msg.From.ID, msg.From.UserName, referralCode)
		return err
	})
	if err != nil {
		log.WithError(err).Error("Failed to register user")
		b.sendText(msg.Chat.ID, userErrorText(err))
		return
	}

	b.sendHTML(msg.Chat.ID, fmt.Sprintf(
		"Welcome to the prediction markets, <b>%s</b>!\n\n"+
			"Use /listmarkets to see what's open and /predict to place a stake.\n"+
			"Full instructions: /howto",
		user.Username))
}

// cmdPredict places a stake: /predict <marketID> <yes|no> <amount>
func (b *Bot) cmdPredict(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 3 {
		b.sendText(msg.Chat.ID, "Usage: /predict <market id> <yes|no> <amount>")
		return
	}

	marketID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.sendText(msg.Chat.ID, "Market id must be a number.")
		return
	}

	prediction := entities.Outcome(strings.ToLower(args[1]))
	if !prediction.IsValid() {
		b.sendText(msg.Chat.ID, "Prediction must be yes or no.")
		return
	}

	amount, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil || amount <= 0 {
		b.sendText(msg.Chat.ID, "Amount must be a positive number.")
		return
	}

	var bet *entities.Bet
	var market *entities.Market
	err = b.withUow(ctx, func(uow interfaces.UnitOfWork) error {
		user, err := b.resolveUser(ctx, uow, msg.From)
		if err != nil {
			return err
		}

		marketService := services.NewMarketService(
			uow.MarketRepository(),
			uow.BetRepository(),
			uow.UserRepository(),
			uow.EventBus(),
		)
		bet, err = marketService.PlaceStake(ctx, marketID, user.ID, prediction, amount, nil)
		if err != nil {
			return err
		}

		market, err = uow.MarketRepository().GetByID(ctx, marketID)
		return err
	})
	if err != nil {
		b.sendText(msg.Chat.ID, userErrorText(err))
		return
	}

	// Pools already include this stake, so the payout if this side wins is
	// the stake's share of the total pot.
	potential := (bet.Amount * market.TotalPool()) / market.PoolFor(prediction)
	b.sendHTML(msg.Chat.ID, fmt.Sprintf(
		"Stake accepted: <b>%s on %s</b> for market #%d.\n"+
			"Potential payout if %s wins: <b>%s</b>",
		utils.FormatShortNotation(bet.Amount),
		strings.ToUpper(string(prediction)),
		market.ID,
		strings.ToUpper(string(prediction)),
		utils.FormatShortNotation(potential)))
}

// cmdListMarkets lists open markets: /listmarkets [chain]
func (b *Bot) cmdListMarkets(ctx context.Context, msg *tgbotapi.Message) {
	chainTag := strings.ToLower(strings.TrimSpace(msg.CommandArguments()))

	var markets []*entities.Market
	err := b.withUow(ctx, func(uow interfaces.UnitOfWork) error {
		leaderboard := services.NewLeaderboardService(
			uow.UserRepository(),
			uow.MarketRepository(),
			uow.BetRepository(),
			uow.StatsRepository(),
		)
		var err error
		if chainTag != "" {
			markets, err = leaderboard.MarketsByChain(ctx, chainTag)
		} else {
			markets, err = leaderboard.ActiveMarkets(ctx)
		}
		return err
	})
	if err != nil {
		b.sendText(msg.Chat.ID, userErrorText(err))
		return
	}

	if len(markets) == 0 {
		b.sendText(msg.Chat.ID, "No markets found. Check back later!")
		return
	}

	var sb strings.Builder
	sb.WriteString("<b>Markets</b>\n\n")
	for _, m := range markets {
		sb.WriteString(formatMarketLine(m))
		sb.WriteString("\n")
	}
	sb.WriteString("\nDetails: /marketinfo <id>")
	b.sendHTML(msg.Chat.ID, sb.String())
}

// cmdMarketInfo shows one market with pools and odds: /marketinfo <id>
func (b *Bot) cmdMarketInfo(ctx context.Context, msg *tgbotapi.Message) {
	marketID, err := strconv.ParseInt(strings.TrimSpace(msg.CommandArguments()), 10, 64)
	if err != nil {
		b.sendText(msg.Chat.ID, "Usage: /marketinfo <market id>")
		return
	}

	var detail *entities.MarketDetail
	err = b.withUow(ctx, func(uow interfaces.UnitOfWork) error {
		marketService := services.NewMarketService(
			uow.MarketRepository(),
			uow.BetRepository(),
			uow.UserRepository(),
			uow.EventBus(),
		)
		var err error
		detail, err = marketService.GetMarketDetail(ctx, marketID)
		return err
	})
	if err != nil {
		b.sendText(msg.Chat.ID, userErrorText(err))
		return
	}

	b.sendHTML(msg.Chat.ID, formatMarketDetail(detail))
}

// cmdMyBets lists the sender's bets in the order they were placed
func (b *Bot) cmdMyBets(ctx context.Context, msg *tgbotapi.Message) {
	var bets []*entities.Bet
	marketsByID := make(map[int64]*entities.Market)

	err := b.withUow(ctx, func(uow interfaces.UnitOfWork) error {
		user, err := b.resolveUser(ctx, uow, msg.From)
		if err != nil {
			return err
		}

		leaderboard := services.NewLeaderboardService(
			uow.UserRepository(),
			uow.MarketRepository(),
			uow.BetRepository(),
			uow.StatsRepository(),
		)
		bets, err = leaderboard.BetsForUser(ctx, user.ID)
		if err != nil {
			return err
		}

		for _, bet := range bets {
			if _, seen := marketsByID[bet.MarketID]; seen {
				continue
			}
			market, err := uow.MarketRepository().GetByID(ctx, bet.MarketID)
			if err != nil {
				return err
			}
			marketsByID[bet.MarketID] = market
		}
		return nil
	})
	if err != nil {
		b.sendText(msg.Chat.ID, userErrorText(err))
		return
	}

	if len(bets) == 0 {
		b.sendText(msg.Chat.ID, "You haven't placed any predictions yet. Try /listmarkets")
		return
	}

	var sb strings.Builder
	sb.WriteString("<b>Your predictions</b>\n\n")
	for _, bet := range bets {
		sb.WriteString(formatBetLine(bet, marketsByID[bet.MarketID]))
		sb.WriteString("\n")
	}
	b.sendHTML(msg.Chat.ID, sb.String())
}

// cmdLeaderboard shows the top users by total winnings
func (b *Bot) cmdLeaderboard(ctx context.Context, msg *tgbotapi.Message) {
	var users []*entities.User
	err := b.withUow(ctx, func(uow interfaces.UnitOfWork) error {
		leaderboard := services.NewLeaderboardService(
			uow.UserRepository(),
			uow.MarketRepository(),
			uow.BetRepository(),
			uow.StatsRepository(),
		)
		var err error
		users, err = leaderboard.TopByWinnings(ctx, 10)
		return err
	})
	if err != nil {
		b.sendText(msg.Chat.ID, userErrorText(err))
		return
	}

	if len(users) == 0 {
		b.sendText(msg.Chat.ID, "No players on the board yet.")
		return
	}

	var sb strings.Builder
	sb.WriteString("<b>🏆 Leaderboard</b>\n\n")
	for i, user := range users {
		streak := ""
		if user.WinStreak > 1 {
			streak = fmt.Sprintf(" 🔥%d", user.WinStreak)
		}
		fmt.Fprintf(&sb, "%d. %s — %s won (%d bets)%s\n",
			i+1, user.Username,
			utils.FormatShortNotation(user.TotalWon),
			user.TotalBets, streak)
	}
	b.sendHTML(msg.Chat.ID, sb.String())
}

// cmdInvite shares the sender's referral deep-link
func (b *Bot) cmdInvite(ctx context.Context, msg *tgbotapi.Message) {
	var user *entities.User
	err := b.withUow(ctx, func(uow interfaces.UnitOfWork) error {
		var err error
		user, err = b.resolveUser(ctx, uow, msg.From)
		return err
	})
	if err != nil {
		b.sendText(msg.Chat.ID, userErrorText(err))
		return
	}

	link := fmt.Sprintf("https://t.me/%s?start=%s", b.api.Self.UserName, user.ReferralCode)
	b.sendHTML(msg.Chat.ID, fmt.Sprintf(
		"Invite friends and earn a bonus when they join:\n%s", link))
}

func (b *Bot) cmdHowTo(chatID int64) {
	b.sendHTML(chatID, fmt.Sprintf(
		"<b>How it works</b>\n\n"+
			"Markets are yes/no questions about onchain events. Stakes on each side "+
			"form two pools; when the market resolves, the losing pool is shared among "+
			"winners in proportion to their stakes.\n\n"+
			"/listmarkets — open markets (optionally by chain)\n"+
			"/marketinfo <id> — pools and odds for one market\n"+
			"/predict <id> <yes|no> <amount> — place a stake (%d to %d)\n"+
			"/mybets — your predictions\n"+
			"/leaderboard — top players by winnings\n"+
			"/invite — your referral link",
		b.cfg.MinStake, b.cfg.MaxStake))
}
