package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds all configuration for the application
type Config struct {
	LogLevel   string
	HTTPAddr   string
	MaxRetries int
	RetryDelay time.Duration
	Ledger     LedgerConfig
	Session    SessionConfig
	Wallet     WalletConfig
	Mint       MintConfig
	Kafka      KafkaConfig
	Database   DatabaseConfig
}

// LedgerConfig holds the remote ledger API configuration
type LedgerConfig struct {
	Environment          string
	DevelopmentURL       string
	ProductionURL        string
	ApiKey               string
	RateLimit            float64
	HTTPTimeout          time.Duration
	ConnectivityInterval time.Duration
	TransactionHistory   int
}

// SessionConfig holds the persisted session configuration
type SessionConfig struct {
	File   string
	Secret string
}

// WalletConfig holds transaction orchestration settings
type WalletConfig struct {
	RequestTimeout time.Duration
	// SecretPolicy is "retain" (keep the entered secret after a failed submit) or "clear".
	SecretPolicy string
}

// MintConfig holds the credentials used for privileged mint requests.
// Minting is disabled when either value is empty.
type MintConfig struct {
	AdminAddress  string
	AdminPassword string
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Enabled       bool
	BrokerAddress string
	Topic         string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// BaseURL returns the ledger base URL for the configured environment.
func (l LedgerConfig) BaseURL() string {
	if l.Environment == EnvDevelopment {
		return l.DevelopmentURL
	}
	return l.ProductionURL
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// Not fatal, as env vars might be set externally
	}

	config := &Config{
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		HTTPAddr:   getEnv("HTTP_ADDR", ":8080"),
		MaxRetries: getEnvAsInt("MAX_RETRIES", 1),
		RetryDelay: time.Duration(getEnvAsInt("RETRY_DELAY", 2)) * time.Second,
		Ledger: LedgerConfig{
			Environment:          strings.ToLower(getEnv("LEDGER_ENV", EnvProduction)),
			DevelopmentURL:       getEnv("LEDGER_DEV_URL", "http://testnet.toronet.org/api"),
			ProductionURL:        getEnv("LEDGER_PROD_URL", "https://testnet.toronet.org/api"),
			ApiKey:               getEnv("LEDGER_API_KEY", ""),
			RateLimit:            getEnvAsFloat("LEDGER_RATE_LIMIT", 4),
			HTTPTimeout:          time.Duration(getEnvAsInt("HTTP_TIMEOUT", 30)) * time.Second,
			ConnectivityInterval: time.Duration(getEnvAsInt("CONNECTIVITY_INTERVAL", 10)) * time.Second,
			TransactionHistory:   getEnvAsInt("TRANSACTION_HISTORY_COUNT", 10),
		},
		Session: SessionConfig{
			File:   getEnv("SESSION_FILE", "data/toronet-user.enc"),
			Secret: getEnv("SESSION_SECRET", "toronet-wallet-local"),
		},
		Wallet: WalletConfig{
			RequestTimeout: time.Duration(getEnvAsInt("REQUEST_TIMEOUT", 20)) * time.Second,
			SecretPolicy:   strings.ToLower(getEnv("SECRET_POLICY", "retain")),
		},
		Mint: MintConfig{
			AdminAddress:  getEnv("MINT_ADMIN_ADDRESS", ""),
			AdminPassword: getEnv("MINT_ADMIN_PASSWORD", ""),
		},
		Kafka: KafkaConfig{
			Enabled:       getEnvAsBool("KAFKA_ENABLED", false),
			BrokerAddress: getEnv("KAFKA_BROKER_ADDRESS", "localhost:9092"),
			Topic:         getEnv("KAFKA_TOPIC", "wallet-transactions"),
		},
		Database: DatabaseConfig{
			Enabled:  getEnvAsBool("JOURNAL_ENABLED", false),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "toronet_wallet"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
	}

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as int or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsFloat gets an environment variable as float64 or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsBool gets an environment variable as bool or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
