package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"three-card-game/utils"
)

// Config is everything the service reads from the environment.
type Config struct {
	Port             string   `env:"PORT" envDefault:"5200"`
	GameServiceToken string   `env:"GAME_SERVICE_TOKEN,required"`
	DatabaseURL      string   `env:"DATABASE_URL,required"`
	AppEnv           string   `env:"APP_ENV" envDefault:"production"`
	LogLevel         string   `env:"LOG_LEVEL" envDefault:"info"`
	AllowedOrigins   []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	// Game rules
	MaxRounds         int           `env:"MAX_ROUNDS" envDefault:"3"`
	ChallengeTTL      time.Duration `env:"CHALLENGE_TTL" envDefault:"2h"`
	DisallowedUserIDs []string      `env:"DISALLOWED_USER_IDS" envSeparator:","`

	// Stats pipeline
	FinalizeQueueSize int           `env:"FINALIZE_QUEUE_SIZE" envDefault:"256"`
	FinalizeTimeout   time.Duration `env:"FINALIZE_TIMEOUT" envDefault:"10s"`
	LeaderboardSize   int           `env:"LEADERBOARD_SIZE" envDefault:"5"`
	ProfileServiceURL string        `env:"PROFILE_SERVICE_URL"`

	// Discord bot, disabled without a token
	DiscordToken   string `env:"DISCORD_TOKEN"`
	DiscordAppID   string `env:"DISCORD_APP_ID"`
	DiscordGuildID string `env:"DISCORD_GUILD_ID"`

	// Match history archive, disabled without a bucket
	R2AccountID       string `env:"R2_ACCOUNT_ID"`
	R2AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	R2AccessKeySecret string `env:"R2_ACCESS_KEY_SECRET"`
	R2BucketName      string `env:"R2_BUCKET_NAME"`
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}
	return parse(env.Options{})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.MaxRounds < 1 {
		errs = append(errs, fmt.Errorf("MAX_ROUNDS must be positive, got %d", c.MaxRounds))
	}
	if c.ChallengeTTL <= 0 {
		errs = append(errs, fmt.Errorf("CHALLENGE_TTL must be positive, got %s", c.ChallengeTTL))
	}
	if c.FinalizeQueueSize < 1 {
		errs = append(errs, fmt.Errorf("FINALIZE_QUEUE_SIZE must be positive, got %d", c.FinalizeQueueSize))
	}
	if c.FinalizeTimeout <= 0 {
		errs = append(errs, fmt.Errorf("FINALIZE_TIMEOUT must be positive, got %s", c.FinalizeTimeout))
	}
	return errors.Join(errs...)
}

func (c *Config) DiscordEnabled() bool {
	return c.DiscordToken != ""
}

func (c *Config) Development() bool {
	return c.AppEnv == "development"
}

func (c *Config) R2() utils.R2Config {
	return utils.R2Config{
		AccountID:       c.R2AccountID,
		AccessKeyID:     c.R2AccessKeyID,
		AccessKeySecret: c.R2AccessKeySecret,
		Bucket:          c.R2BucketName,
	}
}
