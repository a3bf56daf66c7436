package config

import (
	"context"
	"fmt"
	"os"
)

// LoadProfile returns the configuration for a named deployment profile.
// Environment variables still override profile values.
func LoadProfile(name string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Profile = name

	switch Environment(name) {
	case EnvDevelopment:
		cfg.Environment = EnvDevelopment
		cfg.Logging.Level = "debug"
		cfg.Logging.Format = "text"
	case EnvTesting:
		cfg.Environment = EnvTesting
		cfg.Logging.Level = "warn"
	case EnvStaging:
		cfg.Environment = EnvStaging
		cfg.Metrics.Enabled = true
	case EnvProduction:
		cfg.Environment = EnvProduction
		cfg.Metrics.Enabled = true
		cfg.Security.EnableRateLimit = true
	default:
		return nil, fmt.Errorf("unknown profile %q", name)
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// SecretStore retrieves secrets such as ledger tokens and API keys.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	GetWithDefault(ctx context.Context, key, fallback string) string
}

// EnvironmentSecretStore reads secrets from environment variables.
type EnvironmentSecretStore struct{}

func NewEnvironmentSecretStore() *EnvironmentSecretStore {
	return &EnvironmentSecretStore{}
}

func (s *EnvironmentSecretStore) Get(_ context.Context, key string) (string, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", fmt.Errorf("secret %s not set", key)
	}
	return value, nil
}

func (s *EnvironmentSecretStore) GetWithDefault(ctx context.Context, key, fallback string) string {
	value, err := s.Get(ctx, key)
	if err != nil {
		return fallback
	}
	return value
}
