package application

import (
	"context"
	"fmt"

	"chainbet/telegram-client/domain/entities"
	"chainbet/telegram-client/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// PoolConsistencyCheck verifies at startup that every market's stored pools
// equal the sum of its non-refunded bets. A mismatch means a previous run
// died between writes, which the transactional ledger should make
// impossible, so mismatches are reported loudly rather than silently
// repaired.
type PoolConsistencyCheck struct {
	uowFactory interfaces.UnitOfWorkFactory
}

// NewPoolConsistencyCheck creates a new startup consistency check
func NewPoolConsistencyCheck(uowFactory interfaces.UnitOfWorkFactory) *PoolConsistencyCheck {
	return &PoolConsistencyCheck{uowFactory: uowFactory}
}

// Run checks every non-terminal market and returns the ids of markets whose
// pools disagree with their bets
func (c *PoolConsistencyCheck) Run(ctx context.Context) ([]int64, error) {
	uow := c.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	markets, err := uow.MarketRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list markets: %w", err)
	}

	var mismatched []int64
	for _, market := range markets {
		if market.IsTerminal() {
			continue
		}

		detail, err := uow.MarketRepository().GetDetailByID(ctx, market.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load market %d detail: %w", market.ID, err)
		}

		if !detail.PoolsMatchBets() {
			mismatched = append(mismatched, market.ID)
			log.WithFields(log.Fields{
				"marketId": market.ID,
				"yesPool":  market.YesPool,
				"noPool":   market.NoPool,
				"bets":     len(detail.Bets),
			}).Error("Market pools do not match bet sums")
		}
	}

	if len(mismatched) == 0 {
		log.WithField("markets", countNonTerminal(markets)).Info("Pool consistency check passed")
	}
	return mismatched, nil
}

func countNonTerminal(markets []*entities.Market) int {
	n := 0
	for _, m := range markets {
		if !m.IsTerminal() {
			n++
		}
	}
	return n
}
