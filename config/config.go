package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"crypto-signal-bot/models"
)

// Load initializes configuration from environment variables
func Load() (*models.Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	cfg := &models.Config{
		TelegramBotToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:    getEnvInt64WithDefault("TELEGRAM_CHAT_ID", 0),
		APIBaseURL:        getEnvWithDefault("API_BASE_URL", "https://api.bybit.com"),
		Symbols:           getEnvWithDefault("SYMBOLS", "BTCUSDT"),
		CandleLimit:       getEnvIntWithDefault("CANDLE_LIMIT", 500),
		UpdateInterval:    getEnvIntWithDefault("UPDATE_INTERVAL", 30),
		RSIPeriod:         getEnvIntWithDefault("RSI_PERIOD", 14),
		RSIOversold:       getEnvFloatWithDefault("RSI_OVERSOLD", 30),
		RSIOverbought:     getEnvFloatWithDefault("RSI_OVERBOUGHT", 70),
		MACDFastPeriod:    getEnvIntWithDefault("MACD_FAST_PERIOD", 12),
		MACDSlowPeriod:    getEnvIntWithDefault("MACD_SLOW_PERIOD", 26),
		MACDSignalPeriod:  getEnvIntWithDefault("MACD_SIGNAL_PERIOD", 9),
		EMAShortPeriod:    getEnvIntWithDefault("EMA_SHORT", 9),
		EMAMediumPeriod:   getEnvIntWithDefault("EMA_MEDIUM", 21),
		EMALongPeriod:     getEnvIntWithDefault("EMA_LONG", 50),
		VolumeAvgPeriod:   getEnvIntWithDefault("VOLUME_AVG_PERIOD", 20),
		VolumeMultiplier:  getEnvFloatWithDefault("VOLUME_MULTIPLIER", 1.5),
		StopLossPercent:   getEnvFloatWithDefault("STOP_LOSS_PERCENT", 3),
		TakeProfitPercent: getEnvFloatWithDefault("TAKE_PROFIT_PERCENT", 10),
		LevelLookback:     getEnvIntWithDefault("LEVEL_LOOKBACK", 200),
		ShortConfidence:   getEnvFloatWithDefault("SHORT_CONFIDENCE", 0.6),
		LongConfidence:    getEnvFloatWithDefault("LONG_CONFIDENCE", 0.5),
		AllConfidence:     getEnvFloatWithDefault("ALL_CONFIDENCE", 0.6),
		LogLevel:          getEnvWithDefault("LOG_LEVEL", "info"),
		RequestTimeout:    getEnvIntWithDefault("REQUEST_TIMEOUT", 30),
	}

	return cfg, nil
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

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
