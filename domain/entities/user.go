package entities

import "time"

// User represents a bettor identified by their Telegram account
type User struct {
	ID            int64     `db:"id"`
	TelegramID    int64     `db:"telegram_id"`
	Username      string    `db:"username"`
	WalletAddress *string   `db:"wallet_address"`
	ReferralCode  string    `db:"referral_code"`
	ReferredBy    *string   `db:"referred_by"`
	TotalBets     int       `db:"total_bets"`
	TotalWon      int64     `db:"total_won"`
	WinStreak     int       `db:"win_streak"`
	LastActiveAt  time.Time `db:"last_active_at"`
	IsActive      bool      `db:"is_active"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// HasWallet checks if the user has linked a wallet address
func (u *User) HasWallet() bool {
	return u.WalletAddress != nil && *u.WalletAddress != ""
}

// RecordWin applies the stats changes for one settled winning bet.
// TotalWon accumulates net winnings only, not returned principal.
func (u *User) RecordWin(netWinnings int64) {
	u.TotalBets++
	u.TotalWon += netWinnings
	u.WinStreak++
}

// RecordLoss applies the stats changes for one settled losing bet
func (u *User) RecordLoss() {
	u.TotalBets++
	u.WinStreak = 0
}

// Touch updates the last activity timestamp
func (u *User) Touch() {
	u.LastActiveAt = time.Now()
}

// Deactivate soft-deactivates the user. Users are never hard-deleted.
func (u *User) Deactivate() {
	u.IsActive = false
}
