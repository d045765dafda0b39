package entities

import "time"

// Referral records a referrer/referee relationship and the accrued bonus.
// At most one referral exists per referee; the reference is informational
// and owns neither user's lifecycle.
type Referral struct {
	ID          int64     `db:"id"`
	ReferrerID  int64     `db:"referrer_id"`
	RefereeID   int64     `db:"referee_id"`
	BonusAmount int64     `db:"bonus_amount"`
	CreatedAt   time.Time `db:"created_at"`
}
