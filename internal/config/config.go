package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Addr string `env:"SIGNALFIRE_ADDR" envDefault:":8080"`

	StorageDriver string `env:"SIGNALFIRE_STORAGE_DRIVER" envDefault:"memory"`
	StorageDSN    string `env:"SIGNALFIRE_STORAGE_DSN" envDefault:"signalfire.db"`
	Seed          bool   `env:"SIGNALFIRE_SEED" envDefault:"true"`

	StaticDir string `env:"SIGNALFIRE_STATIC_DIR" envDefault:"./static"`

	JWTSecret   string        `env:"SIGNALFIRE_JWT_SECRET"`
	SessionTTL  time.Duration `env:"SIGNALFIRE_SESSION_TTL" envDefault:"168h"`
	ReferralTTL time.Duration `env:"SIGNALFIRE_REFERRAL_TTL" envDefault:"720h"`
	AdminEmails []string      `env:"SIGNALFIRE_ADMIN_EMAILS" envSeparator:","`

	LogLevel  string `env:"SIGNALFIRE_LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"SIGNALFIRE_LOG_PRETTY" envDefault:"false"`

	Dev bool `env:"SIGNALFIRE_DEV" envDefault:"false"`
}

// Load parses the environment and validates the result. In dev mode a
// missing JWT secret is replaced with a random one, so sessions do not
// survive restarts.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.JWTSecret == "" && cfg.Dev {
		secret, err := randomSecret()
		if err != nil {
			return Config{}, err
		}
		cfg.JWTSecret = secret
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StorageDriver {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("SIGNALFIRE_STORAGE_DRIVER must be memory, sqlite or postgres, got %q", c.StorageDriver)
	}
	if c.StorageDriver != "memory" && strings.TrimSpace(c.StorageDSN) == "" {
		return fmt.Errorf("SIGNALFIRE_STORAGE_DSN is required for %s", c.StorageDriver)
	}
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("SIGNALFIRE_JWT_SECRET must be at least 16 bytes")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SIGNALFIRE_SESSION_TTL must be positive")
	}
	if c.ReferralTTL <= 0 {
		return fmt.Errorf("SIGNALFIRE_REFERRAL_TTL must be positive")
	}
	return nil
}

// IsAdminEmail reports whether email is listed in SIGNALFIRE_ADMIN_EMAILS.
func (c Config) IsAdminEmail(email string) bool {
	for _, e := range c.AdminEmails {
		if strings.EqualFold(strings.TrimSpace(e), email) {
			return true
		}
	}
	return false
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate dev secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
