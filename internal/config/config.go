package config

import (
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tradeplusonline/accessbot/models"
)

// Config holds all application configuration
type Config struct {
	TelegramBotToken    string
	TelegramBotUsername string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// OwnerID is the privileged identity: always treated as active,
	// never swept.
	OwnerID       int64
	ChannelChatID int64
	ChannelLink   string

	CryptoPayToken    string
	CryptoPanicAPIKey string
	OpenWeatherAPIKey string
	OpenAIAPIKey      string

	Tariffs       map[string]models.Tariff
	TrialDuration time.Duration
	SweepInterval time.Duration
	NotifyTimeout time.Duration
	GPTDailyLimit int

	LogLevel       string
	RequestTimeout int // seconds
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	cfg := &Config{
		TelegramBotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramBotUsername: os.Getenv("TELEGRAM_BOT_USERNAME"),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  os.Getenv("DB_SSLMODE"),

		OwnerID:       getEnvInt64WithDefault("OWNER_ID", 0),
		ChannelChatID: getEnvInt64WithDefault("CHANNEL_CHAT_ID", 0),
		ChannelLink:   getEnvWithDefault("CHANNEL_LINK", "https://t.me/TradeAnalitAcces"),

		CryptoPayToken:    os.Getenv("CRYPTO_PAY_TOKEN"),
		CryptoPanicAPIKey: os.Getenv("CRYPTOPANIC_API_KEY"),
		OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),

		Tariffs:       defaultTariffs(),
		TrialDuration: getEnvDurationWithDefault("TRIAL_DURATION", time.Hour),
		SweepInterval: getEnvDurationWithDefault("SWEEP_INTERVAL", time.Hour),
		NotifyTimeout: getEnvDurationWithDefault("NOTIFY_TIMEOUT", 10*time.Second),
		GPTDailyLimit: getEnvIntWithDefault("GPT_DAILY_LIMIT", 10),

		LogLevel:       getEnvWithDefault("LOG_LEVEL", "info"),
		RequestTimeout: getEnvIntWithDefault("REQUEST_TIMEOUT", 30),
	}

	return cfg, nil
}

// ZerologLevel maps LogLevel onto a zerolog level. An unknown value falls back
// to info with a warning instead of silently disabling level filtering.
func (c *Config) ZerologLevel() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		log.Warn().Str("log_level", c.LogLevel).Msg("Unknown LOG_LEVEL, falling back to info")
		return zerolog.InfoLevel
	}
	return lvl
}

// defaultTariffs mirrors the hardcoded tariff table the payment layer keys
// invoices against. Keys are what invoice payloads carry.
func defaultTariffs() map[string]models.Tariff {
	return map[string]models.Tariff{
		"30":  {Key: "30", Days: 30, AmountCents: 599},
		"365": {Key: "365", Days: 365, AmountCents: 3999},
	}
}

// TariffKeys returns the tariff keys sorted by duration, for stable keyboard
// ordering.
func (c *Config) TariffKeys() []string {
	keys := make([]string, 0, len(c.Tariffs))
	for k := range c.Tariffs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return c.Tariffs[keys[i]].Days < c.Tariffs[keys[j]].Days
	})
	return keys
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
