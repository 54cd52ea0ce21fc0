package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Security   SecurityConfig
	PayU       PayUConfig
	OrderStore OrderStoreConfig
	Jobs       JobsConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	PASSWORD string
}

// JWTConfig holds JWT configuration for the admin API
type JWTConfig struct {
	Secret       string
	AccessExpiry time.Duration
}

// SecurityConfig holds the master key used to seal merchant client secrets
type SecurityConfig struct {
	CredentialEncryptionKey string
}

// PayUConfig holds OneAPI endpoints and link defaults
type PayUConfig struct {
	UATAccountsURL  string
	ProdAccountsURL string
	UATAPIURL       string
	ProdAPIURL      string
	HTTPTimeout     time.Duration
	TokenBuffer     time.Duration
	CallbackBaseURL string
	InvoiceLength   int
}

// OrderStoreConfig points at the host shop's REST API
type OrderStoreConfig struct {
	URL    string
	Key    string
	Secret string
}

// JobsConfig holds background job intervals
type JobsConfig struct {
	LinkExpiryInterval time.Duration
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("SERVER_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "payment_links"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			PASSWORD: getEnv("REDIS_PASSWORD", ""),
		},
		JWT: JWTConfig{
			Secret:       getEnv("JWT_SECRET", "change-this-in-production"),
			AccessExpiry: getEnvAsDuration("JWT_ACCESS_EXPIRY", 12*time.Hour),
		},
		Security: SecurityConfig{
			CredentialEncryptionKey: getEnv("CREDENTIAL_ENCRYPTION_KEY", "change-this-credential-key-in-production"),
		},
		PayU: PayUConfig{
			UATAccountsURL:  getEnv("PAYU_UAT_ACCOUNTS_URL", "https://uat-accounts.payu.in"),
			ProdAccountsURL: getEnv("PAYU_PROD_ACCOUNTS_URL", "https://accounts.payu.in"),
			UATAPIURL:       getEnv("PAYU_UAT_API_URL", "https://uatoneapi.payu.in"),
			ProdAPIURL:      getEnv("PAYU_PROD_API_URL", "https://oneapi.payu.in"),
			HTTPTimeout:     getEnvAsDuration("PAYU_HTTP_TIMEOUT", 15*time.Second),
			TokenBuffer:     getEnvAsDuration("PAYU_TOKEN_BUFFER", 60*time.Second),
			CallbackBaseURL: getEnv("PAYU_CALLBACK_BASE_URL", "http://localhost:8080"),
			InvoiceLength:   getEnvAsInt("PAYU_INVOICE_LENGTH", 16),
		},
		OrderStore: OrderStoreConfig{
			URL:    getEnv("ORDER_STORE_URL", ""),
			Key:    getEnv("ORDER_STORE_KEY", ""),
			Secret: getEnv("ORDER_STORE_SECRET", ""),
		},
		Jobs: JobsConfig{
			LinkExpiryInterval: getEnvAsDuration("LINK_EXPIRY_INTERVAL", time.Minute),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
