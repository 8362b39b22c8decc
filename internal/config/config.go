package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string
	BaseURL     string // public base URL used to build tracking links in emails
	Database    DatabaseConfig
	Redis       RedisConfig
	Stripe      StripeConfig
	Checkout    CheckoutConfig
	SMTP        SMTPConfig
	SessionTTL  time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// StripeConfig holds payment processor credentials. WebhookSecret verifies
// incoming Stripe-Signature headers; it must be set for fulfillment to work.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

type CheckoutConfig struct {
	SuccessURL       string
	CancelURL        string
	Currency         string
	ShippingFeeCents int64
}

// SMTPConfig is the outbound mail sink; empty Host disables notifications.
type SMTPConfig struct {
	Host     string
	Port     string
	From     string
	Username string
	Password string
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("CHECKOUT_CURRENCY", "eur")
	viper.SetDefault("SHIPPING_FEE_CENTS", "500")
	viper.SetDefault("SESSION_TTL_HOURS", "336")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		LogLevel:    getEnvOrViper("LOG_LEVEL", "info"),
		BaseURL:     strings.TrimRight(getEnvOrViper("BASE_URL", "http://localhost:8080"), "/"),
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "webshop"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrViper("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrViper("REDIS_PASSWORD", ""),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Stripe: StripeConfig{
			SecretKey:     strings.TrimSpace(getEnvOrViper("STRIPE_SECRET_KEY", "")),
			WebhookSecret: strings.TrimSpace(getEnvOrViper("STRIPE_WEBHOOK_SECRET", "")),
		},
		Checkout: CheckoutConfig{
			SuccessURL:       getEnvOrViper("CHECKOUT_SUCCESS_URL", "http://localhost:8080/checkout/success"),
			CancelURL:        getEnvOrViper("CHECKOUT_CANCEL_URL", "http://localhost:8080/checkout/cancel"),
			Currency:         strings.ToLower(getEnvOrViper("CHECKOUT_CURRENCY", "eur")),
			ShippingFeeCents: viper.GetInt64("SHIPPING_FEE_CENTS"),
		},
		SMTP: SMTPConfig{
			Host:     strings.TrimSpace(getEnvOrViper("SMTP_HOST", "")),
			Port:     getEnvOrViper("SMTP_PORT", "587"),
			From:     getEnvOrViper("SMTP_FROM", ""),
			Username: getEnvOrViper("SMTP_USERNAME", ""),
			Password: getEnvOrViper("SMTP_PASSWORD", ""),
		},
		SessionTTL: time.Duration(viper.GetInt("SESSION_TTL_HOURS")) * time.Hour,
	}

	if cfg.Checkout.ShippingFeeCents == 0 {
		cfg.Checkout.ShippingFeeCents = 500
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 14 * 24 * time.Hour
	}

	// Validate required fields
	if cfg.Stripe.SecretKey == "" {
		return nil, fmt.Errorf("STRIPE_SECRET_KEY is required")
	}

	return cfg, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}
