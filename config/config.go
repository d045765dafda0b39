package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"chainbet/telegram-client/database"
)

// Config holds all application configuration
type Config struct {
	// Telegram configuration
	TelegramToken  string
	AnnounceChatID int64 // Chat for market lifecycle announcements, 0 disables

	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// Stake policy bounds, in whole currency units
	MinStake int64
	MaxStake int64

	// Referral configuration
	ReferralBonus int64

	// Admin configuration
	AdminTelegramIDs []int64 // Telegram IDs allowed to manage markets

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated)

	// Supported chain tags (labels only, no live chain dependency)
	ChainTags []string

	// Environment
	Environment string // "development" or "production"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// IsAdmin checks if a Telegram user may manage markets
func (c *Config) IsAdmin(telegramID int64) bool {
	for _, id := range c.AdminTelegramIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),

		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		MinStake:      10,
		MaxStake:      10000,
		ReferralBonus: 50,

		NATSServers: getEnvWithDefault("NATS_SERVERS", "nats://nats:4222"),

		ChainTags: []string{"ethereum", "polygon", "flare", "songbird", "base"},

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if v := os.Getenv("ANNOUNCE_CHAT_ID"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.AnnounceChatID = parsed
		}
	}
	if v := os.Getenv("MIN_STAKE"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.MinStake = parsed
		}
	}
	if v := os.Getenv("MAX_STAKE"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.MaxStake = parsed
		}
	}
	if v := os.Getenv("REFERRAL_BONUS"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.ReferralBonus = parsed
		}
	}
	if chains := os.Getenv("CHAIN_TAGS"); chains != "" {
		config.ChainTags = nil
		for _, tag := range strings.Split(chains, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				config.ChainTags = append(config.ChainTags, tag)
			}
		}
	}

	// Parse admin Telegram IDs
	if adminIDs := os.Getenv("ADMIN_TELEGRAM_IDS"); adminIDs != "" {
		for _, idStr := range strings.Split(adminIDs, ",") {
			idStr = strings.TrimSpace(idStr)
			if idStr == "" {
				continue
			}
			if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
				config.AdminTelegramIDs = append(config.AdminTelegramIDs, id)
			}
		}
	}

	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.TelegramToken == "" {
			return nil, fmt.Errorf("TELEGRAM_TOKEN is required")
		}
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.MinStake <= 0 || config.MaxStake < config.MinStake {
			return nil, fmt.Errorf("invalid stake bounds [%d, %d]", config.MinStake, config.MaxStake)
		}
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:      "test",
		MinStake:         10,
		MaxStake:         10000,
		ReferralBonus:    50,
		AdminTelegramIDs: []int64{999999},
		ChainTags:        []string{"ethereum", "polygon", "flare"},
	}
}
