package bot

import (
	"errors"
	"fmt"
	"strings"

	"chainbet/telegram-client/domain/entities"
	"chainbet/telegram-client/domain/utils"
)

// chainDisplayNames maps chain tags to human-readable labels
var chainDisplayNames = map[string]string{
	"ethereum": "Ethereum",
	"polygon":  "Polygon",
	"flare":    "Flare",
	"songbird": "Songbird",
	"base":     "Base",
}

func chainDisplayName(tag string) string {
	if name, ok := chainDisplayNames[tag]; ok {
		return name
	}
	return tag
}

func stateLabel(state entities.MarketState) string {
	switch state {
	case entities.MarketStateOpen:
		return "🟢 Open"
	case entities.MarketStateLocked:
		return "🔒 Locked"
	case entities.MarketStateResolved:
		return "✅ Resolved"
	case entities.MarketStateCancelled:
		return "🚫 Cancelled"
	default:
		return string(state)
	}
}

// formatMarketLine renders a one-line market summary for list views
func formatMarketLine(m *entities.Market) string {
	return fmt.Sprintf("#%d [%s] %s — pool %s (%s)",
		m.ID, chainDisplayName(m.ChainTag), m.Title,
		utils.FormatShortNotation(m.TotalPool()), stateLabel(m.State))
}

// formatMarketDetail renders the full market view with pools and odds
func formatMarketDetail(d *entities.MarketDetail) string {
	m := d.Market
	var sb strings.Builder

	fmt.Fprintf(&sb, "<b>#%d %s</b>\n", m.ID, m.Title)
	if m.Description != "" {
		fmt.Fprintf(&sb, "%s\n", m.Description)
	}
	fmt.Fprintf(&sb, "Chain: %s\n", chainDisplayName(m.ChainTag))
	fmt.Fprintf(&sb, "Status: %s\n", stateLabel(m.State))
	if m.IsResolved() && m.Resolution != nil {
		fmt.Fprintf(&sb, "Outcome: <b>%s</b>\n", strings.ToUpper(string(*m.Resolution)))
	}
	fmt.Fprintf(&sb, "\nYES pool: %s (%s, %s)\n",
		utils.FormatShortNotation(m.YesPool),
		utils.FormatPercent(m.YesPool, m.TotalPool()),
		utils.FormatOdds(m.YesPool, m.TotalPool()))
	fmt.Fprintf(&sb, "NO pool: %s (%s, %s)\n",
		utils.FormatShortNotation(m.NoPool),
		utils.FormatPercent(m.NoPool, m.TotalPool()),
		utils.FormatOdds(m.NoPool, m.TotalPool()))
	fmt.Fprintf(&sb, "Bets: %d\n", len(d.Bets))
	if m.IsOpen() {
		fmt.Fprintf(&sb, "Closes: %s\n", m.ExpiresAt.UTC().Format("2006-01-02 15:04 UTC"))
	}

	return sb.String()
}

// formatBetLine renders one of a user's bets for the /mybets view
func formatBetLine(bet *entities.Bet, market *entities.Market) string {
	title := fmt.Sprintf("market #%d", bet.MarketID)
	if market != nil {
		title = market.Title
	}

	status := "pending"
	switch {
	case bet.Refunded:
		status = "refunded"
	case bet.IsPaid && bet.PayoutAmount > 0:
		status = fmt.Sprintf("won %s", utils.FormatShortNotation(bet.PayoutAmount))
	case bet.IsPaid:
		status = "lost"
	}

	return fmt.Sprintf("%s on %s: %s (%s)",
		utils.FormatShortNotation(bet.Amount),
		title,
		strings.ToUpper(string(bet.Prediction)),
		status)
}

// formatSettlement renders the settlement summary after a market resolves
func formatSettlement(result *entities.SettlementResult) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "<b>Market #%d resolved: %s</b>\n",
		result.Market.ID, strings.ToUpper(string(result.Resolution)))
	fmt.Fprintf(&sb, "Total pot: %s\n", utils.FormatShortNotation(result.TotalPot))
	fmt.Fprintf(&sb, "Winners: %d, losers: %d\n", len(result.Winners), len(result.Losers))
	if retained := result.HouseRetained(); retained > 0 {
		fmt.Fprintf(&sb, "No winning stakes. The pot of %s is retained.\n",
			utils.FormatShortNotation(retained))
	}

	return sb.String()
}

// userErrorText maps domain errors to user-facing replies
func userErrorText(err error) string {
	switch {
	case errors.Is(err, entities.ErrNotFound):
		return "Not found. Check the id and try again."
	case errors.Is(err, entities.ErrMarketNotOpen):
		return "That market is no longer accepting predictions."
	case errors.Is(err, entities.ErrInvalidAmount):
		return "Invalid amount. Check the stake limits with /howto."
	case errors.Is(err, entities.ErrAlreadySettled):
		return "That market has already been settled."
	case errors.Is(err, entities.ErrInvalidTransition):
		return "That action is not possible in the market's current state."
	default:
		return "Something went wrong. Please try again."
	}
}
