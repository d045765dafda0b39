package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"chainbet/telegram-client/application"
	"chainbet/telegram-client/bot"
	"chainbet/telegram-client/config"
	"chainbet/telegram-client/database"
	"chainbet/telegram-client/infrastructure"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting prediction market bot...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize NATS
	log.Println("Connecting to NATS...")
	natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
	if err := natsClient.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	subjectMapper := infrastructure.NewEventSubjectMapper()
	eventPublisher := infrastructure.NewNATSEventPublisher(natsClient, subjectMapper)
	if err := eventPublisher.EnsureLedgerEventStream(); err != nil {
		return fmt.Errorf("failed to ensure event stream: %w", err)
	}

	// Initialize unit of work factory
	uowFactory := infrastructure.NewUnitOfWorkFactory(db, eventPublisher)

	// Verify pools against bets before taking traffic
	check := application.NewPoolConsistencyCheck(uowFactory)
	mismatched, err := check.Run(ctx)
	if err != nil {
		return fmt.Errorf("pool consistency check failed: %w", err)
	}
	if len(mismatched) > 0 {
		return fmt.Errorf("pool consistency check found %d inconsistent markets: %v", len(mismatched), mismatched)
	}

	// Start the expiry worker
	expiryWorker := application.NewMarketExpiryWorker(uowFactory, time.Minute)
	stopExpiryWorker := expiryWorker.Start(ctx)
	defer stopExpiryWorker()

	// Initialize Telegram bot
	log.Println("Initializing Telegram bot...")
	tgBot, err := bot.New(cfg, uowFactory)
	if err != nil {
		return fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	bot.RegisterBotSubscriptions(uowFactory, tgBot)
	tgBot.Start(ctx)
	log.Println("Telegram bot initialized successfully")

	// Wait for context cancellation
	log.Printf("Bot is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Println("Shutting down bot...")
	tgBot.Stop()

	if err := natsClient.Close(); err != nil {
		log.Printf("Error closing NATS client: %v", err)
	}

	// Give cleanup operations time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Println("Closing database connection...")
	db.Close()

	select {
	case <-shutdownCtx.Done():
		log.Println("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Println("Shutdown completed")
	}

	return nil
}
