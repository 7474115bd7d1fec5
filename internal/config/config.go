package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	WhatsApp  WhatsAppConfig
	Bot       BotConfig
	Parser    ParserConfig
	Speech    SpeechConfig
	Responder ResponderConfig
	Storage   StorageConfig
	Security  SecurityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// WhatsAppConfig holds WhatsApp connection configuration
type WhatsAppConfig struct {
	DBPath   string
	LogLevel string
}

// BotConfig holds conversation behavior configuration
type BotConfig struct {
	DisplayName   string
	VoiceEnabled  bool
	SessionExpiry time.Duration
	StoreTimeout  time.Duration
	SweepInterval time.Duration
}

// ParserConfig holds the external NLP transaction parser configuration
type ParserConfig struct {
	URL                 string
	Timeout             time.Duration
	ConfidenceThreshold float64
}

// SpeechConfig holds the speech synthesis service configuration
type SpeechConfig struct {
	URL        string
	Timeout    time.Duration
	Voice      string
	RetryCount int
}

// ResponderConfig holds the external reply generator configuration. The
// generator handles small talk with no transaction intent; when no URL is
// set, the built-in guidance reply is used instead.
type ResponderConfig struct {
	URL     string
	Timeout time.Duration
}

// StorageConfig holds transaction store configuration
type StorageConfig struct {
	TransactionDBPath string
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	APIKey string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "0.0.0.0"),
		},
		WhatsApp: WhatsAppConfig{
			DBPath:   getEnv("WA_DB_PATH", "./db/whatsmeow.db"),
			LogLevel: getEnv("WA_LOG_LEVEL", "INFO"),
		},
		Bot: BotConfig{
			DisplayName:   getEnv("BOT_DISPLAY_NAME", "CatatHutang"),
			VoiceEnabled:  parseBool(getEnv("VOICE_REPLY_ENABLED", "true"), true),
			SessionExpiry: parseDuration(getEnv("SESSION_EXPIRY", "10m"), 10*time.Minute),
			StoreTimeout:  parseDuration(getEnv("STORE_TIMEOUT", "5s"), 5*time.Second),
			SweepInterval: parseDuration(getEnv("SESSION_SWEEP_INTERVAL", "1m"), time.Minute),
		},
		Parser: ParserConfig{
			URL:                 getEnv("PARSER_URL", ""),
			Timeout:             parseDuration(getEnv("PARSER_TIMEOUT", "8s"), 8*time.Second),
			ConfidenceThreshold: parseFloat(getEnv("PARSER_CONFIDENCE_THRESHOLD", "0.75"), 0.75),
		},
		Speech: SpeechConfig{
			URL:        getEnv("SPEECH_URL", ""),
			Timeout:    parseDuration(getEnv("SPEECH_TIMEOUT", "20s"), 20*time.Second),
			Voice:      getEnv("SPEECH_VOICE", "id-ID-standard"),
			RetryCount: parseInt(getEnv("SPEECH_RETRY_COUNT", "2"), 2),
		},
		Responder: ResponderConfig{
			URL:     getEnv("RESPONDER_URL", ""),
			Timeout: parseDuration(getEnv("RESPONDER_TIMEOUT", "10s"), 10*time.Second),
		},
		Storage: StorageConfig{
			TransactionDBPath: getEnv("TRANSACTION_DB_PATH", "./db/transactions.db"),
		},
		Security: SecurityConfig{
			APIKey: getEnv("API_KEY", ""),
		},
	}

	// Validate required fields
	if config.Bot.VoiceEnabled && config.Speech.URL == "" {
		return nil, fmt.Errorf("SPEECH_URL is required when VOICE_REPLY_ENABLED is true")
	}
	if config.Parser.ConfidenceThreshold < 0 || config.Parser.ConfidenceThreshold > 1 {
		return nil, fmt.Errorf("PARSER_CONFIDENCE_THRESHOLD must be between 0 and 1")
	}

	return config, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// parseInt parses string to int with default value
func parseInt(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// parseFloat parses string to float64 with default value
func parseFloat(value string, defaultValue float64) float64 {
	if value == "" {
		return defaultValue
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return floatValue
}

// parseBool parses string to bool with default value
func parseBool(value string, defaultValue bool) bool {
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}

// parseDuration parses string to time.Duration with default value
func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
