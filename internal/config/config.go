package config

import (
	"errors"
	"fmt"
	"strings"

	"carbon-ledger/internal/domain"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env            string
	Port           string
	LogLevel       string
	SessionSecret  string
	DatabaseURL    string
	RedisURL       string
	HealthAdminKey string
	EventsChannel  string

	// CORSOriginSuffix and DevPassword gate cross-origin browser access.
	CORSOriginSuffix string
	DevPassword      string

	// AdminAccount is the governance identity; AdminPassword seeds its login on first start.
	AdminAccount  string
	AdminPassword string

	MinPrice              domain.Amount
	PlatformFeeBps        int64
	CarbonCreditThreshold int64
	GenerationRate        int64
	TokenDecimals         int
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	_ = v.ReadInConfig()
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_URL", "file:carbon-ledger.db")
	v.SetDefault("EVENTS_CHANNEL", "carbon:events")
	v.SetDefault("MIN_PRICE", "1000000000000000")
	v.SetDefault("PLATFORM_FEE_BPS", 250)
	v.SetDefault("CARBON_CREDIT_THRESHOLD", 1000)
	v.SetDefault("GENERATION_RATE", 1)
	v.SetDefault("TOKEN_DECIMALS", 18)

	minPrice, err := domain.ParseAmount(v.GetString("MIN_PRICE"))
	if err != nil {
		return nil, fmt.Errorf("MIN_PRICE: %w", err)
	}

	cfg := &Config{
		Env:                   v.GetString("APP_ENV"),
		Port:                  v.GetString("PORT"),
		LogLevel:              v.GetString("LOG_LEVEL"),
		SessionSecret:         v.GetString("SESSION_SECRET"),
		DatabaseURL:           v.GetString("DATABASE_URL"),
		RedisURL:              v.GetString("REDIS_URL"),
		HealthAdminKey:        v.GetString("HEALTH_ADMIN_KEY"),
		EventsChannel:         v.GetString("EVENTS_CHANNEL"),
		CORSOriginSuffix:      v.GetString("CORS_ORIGIN_SUFFIX"),
		DevPassword:           v.GetString("DEV_PASSWORD"),
		AdminAccount:          strings.TrimSpace(v.GetString("ADMIN_ACCOUNT")),
		AdminPassword:         v.GetString("ADMIN_PASSWORD"),
		MinPrice:              minPrice,
		PlatformFeeBps:        v.GetInt64("PLATFORM_FEE_BPS"),
		CarbonCreditThreshold: v.GetInt64("CARBON_CREDIT_THRESHOLD"),
		GenerationRate:        v.GetInt64("GENERATION_RATE"),
		TokenDecimals:         v.GetInt("TOKEN_DECIMALS"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the ledger cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if domain.IsZeroAddress(c.AdminAccount) {
		errs = append(errs, errors.New("ADMIN_ACCOUNT must be set to a non-zero address"))
	}
	if c.CarbonCreditThreshold <= 0 {
		errs = append(errs, errors.New("CARBON_CREDIT_THRESHOLD must be positive"))
	}
	if c.GenerationRate <= 0 {
		errs = append(errs, errors.New("GENERATION_RATE must be positive"))
	}
	if c.TokenDecimals < 0 || c.TokenDecimals > 36 {
		errs = append(errs, errors.New("TOKEN_DECIMALS must be between 0 and 36"))
	}
	if c.PlatformFeeBps < 0 || c.PlatformFeeBps > domain.MaxFeeBps {
		errs = append(errs, fmt.Errorf("PLATFORM_FEE_BPS must be between 0 and %d", domain.MaxFeeBps))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
