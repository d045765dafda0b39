package application

import (
	"context"
	"fmt"
	"time"

	"chainbet/telegram-client/domain/interfaces"
	"chainbet/telegram-client/domain/services"

	log "github.com/sirupsen/logrus"
)

// MarketExpiryWorker periodically locks open markets whose expiry time has
// passed so no stakes land after the deadline
type MarketExpiryWorker struct {
	uowFactory interfaces.UnitOfWorkFactory
	interval   time.Duration
}

// NewMarketExpiryWorker creates a new market expiry worker
func NewMarketExpiryWorker(uowFactory interfaces.UnitOfWorkFactory, interval time.Duration) *MarketExpiryWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &MarketExpiryWorker{
		uowFactory: uowFactory,
		interval:   interval,
	}
}

// Start begins the expiry worker and returns a cleanup function
func (w *MarketExpiryWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})

	go func() {
		log.WithField("interval", w.interval).Info("Market expiry worker started")

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			if err := w.lockExpiredMarkets(ctx); err != nil {
				log.WithError(err).Error("Error locking expired markets")
			}

			select {
			case <-ctx.Done():
				log.Info("Market expiry worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Market expiry worker shutting down (stop requested)...")
				return
			case <-ticker.C:
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

// lockExpiredMarkets runs one expiry sweep in its own transaction
func (w *MarketExpiryWorker) lockExpiredMarkets(ctx context.Context) error {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	marketService := services.NewMarketService(
		uow.MarketRepository(),
		uow.BetRepository(),
		uow.UserRepository(),
		uow.EventBus(),
	)

	locked, err := marketService.TransitionExpiredMarkets(ctx)
	if err != nil {
		return fmt.Errorf("failed to transition expired markets: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	if locked > 0 {
		log.WithField("locked", locked).Info("Locked expired markets")
	}
	return nil
}
