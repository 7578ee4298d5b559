package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Port                         string        `mapstructure:"PORT"`
	GinMode                      string        `mapstructure:"GIN_MODE"`
	ClientURL                    string        `mapstructure:"CLIENT_URL"`
	FirestoreProjectID           string        `mapstructure:"FIRESTORE_PROJECT_ID"`
	GoogleApplicationCredentials string        `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	JWTSecret                    string        `mapstructure:"JWT_SECRET"`
	JWTExpire                    time.Duration `mapstructure:"JWT_EXPIRE"`
	OpenAIAPIKey                 string        `mapstructure:"OPENAI_API_KEY"`
	OCRBaseURL                   string        `mapstructure:"OCR_BASE_URL"`
	PlaidClientID                string        `mapstructure:"PLAID_CLIENT_ID"`
	PlaidSecret                  string        `mapstructure:"PLAID_SECRET"`
	PlaidEnv                     string        `mapstructure:"PLAID_ENV"`
	EncryptionKey                string        `mapstructure:"ENCRYPTION_KEY"` // Base64 encoded, 32 bytes
	AuthRateLimit                int           `mapstructure:"AUTH_RATE_LIMIT"`
	UploadRateLimit              int           `mapstructure:"UPLOAD_RATE_LIMIT"`
}

// LoadConfig loads configuration from environment variables using Viper.
func LoadConfig() (*Config, error) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("CLIENT_URL", "http://localhost:3000")
	viper.SetDefault("JWT_EXPIRE", "720h")
	viper.SetDefault("OCR_BASE_URL", "http://localhost:8600")
	viper.SetDefault("PLAID_ENV", "sandbox")
	viper.SetDefault("AUTH_RATE_LIMIT", 20)
	viper.SetDefault("UPLOAD_RATE_LIMIT", 30)

	// Bind environment variables
	viper.BindEnv("PORT")
	viper.BindEnv("GIN_MODE")
	viper.BindEnv("CLIENT_URL")
	viper.BindEnv("FIRESTORE_PROJECT_ID")
	viper.BindEnv("GOOGLE_APPLICATION_CREDENTIALS")
	viper.BindEnv("JWT_SECRET")
	viper.BindEnv("JWT_EXPIRE")
	viper.BindEnv("OPENAI_API_KEY")
	viper.BindEnv("OCR_BASE_URL")
	viper.BindEnv("PLAID_CLIENT_ID")
	viper.BindEnv("PLAID_SECRET")
	viper.BindEnv("PLAID_ENV")
	viper.BindEnv("ENCRYPTION_KEY")
	viper.BindEnv("AUTH_RATE_LIMIT")
	viper.BindEnv("UPLOAD_RATE_LIMIT")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}

	// Validate required fields
	if cfg.FirestoreProjectID == "" {
		return nil, errors.New("FIRESTORE_PROJECT_ID is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, errors.New("OPENAI_API_KEY is required")
	}
	if cfg.EncryptionKey == "" {
		return nil, errors.New("ENCRYPTION_KEY is required")
	}
	if cfg.JWTExpire <= 0 {
		return nil, errors.New("JWT_EXPIRE must be a positive duration")
	}

	return &cfg, nil
}
