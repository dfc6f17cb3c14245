// Package secrets resolves credentials from the environment or Azure Key Vault.
package secrets

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// SecretSource defines where secrets are loaded from
type SecretSource string

const (
	SourceEnvironment SecretSource = "environment"
	SourceVault       SecretSource = "vault"
	// SourceAuto uses environment in development and vault everywhere else
	SourceAuto SecretSource = "auto"
)

// Fetcher reads a single named secret from a remote store
type Fetcher interface {
	Fetch(ctx context.Context, name string) (string, error)
}

// ProviderConfig holds configuration for the secrets provider
type ProviderConfig struct {
	Source       SecretSource
	VaultName    string
	Environment  string
	CacheEnabled bool
	CacheTTL     time.Duration
}

// Provider resolves secrets from the configured source
type Provider struct {
	source SecretSource
	vault  Fetcher
	cache  *ttlCache
	logger *zap.Logger
}

// ResolveSource turns SourceAuto into a concrete source for the environment
func ResolveSource(source SecretSource, environment string) SecretSource {
	if source != SourceAuto {
		return source
	}
	switch environment {
	case "development", "local", "":
		return SourceEnvironment
	default:
		return SourceVault
	}
}

// NewProvider creates a provider. A vault source connects to Azure Key Vault.
func NewProvider(cfg *ProviderConfig, logger *zap.Logger) (*Provider, error) {
	source := ResolveSource(cfg.Source, cfg.Environment)
	if source != SourceVault {
		return NewProviderWithFetcher(source, nil, cfg, logger), nil
	}
	if cfg.VaultName == "" {
		return nil, fmt.Errorf("vault name required when using vault secret source")
	}
	vault, err := NewKeyVaultFetcher(cfg.VaultName, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vault client: %w", err)
	}
	return NewProviderWithFetcher(source, vault, cfg, logger), nil
}

// NewProviderWithFetcher builds a provider around an existing fetcher
func NewProviderWithFetcher(source SecretSource, vault Fetcher, cfg *ProviderConfig, logger *zap.Logger) *Provider {
	p := &Provider{source: source, vault: vault, logger: logger}
	if cfg != nil && cfg.CacheEnabled {
		ttl := cfg.CacheTTL
		if ttl == 0 {
			ttl = 5 * time.Minute
		}
		p.cache = newTTLCache(ttl, time.Now)
	}
	logger.Info("Secrets provider initialized", zap.String("source", string(source)))
	return p
}

// GetSecret retrieves a secret by name. For the environment source the name
// is an environment variable.
func (p *Provider) GetSecret(ctx context.Context, name string) (string, error) {
	switch p.source {
	case SourceEnvironment:
		value := os.Getenv(name)
		if value == "" {
			return "", fmt.Errorf("environment variable '%s' not set", name)
		}
		return value, nil
	case SourceVault:
		if p.vault == nil {
			return "", fmt.Errorf("vault client not initialized")
		}
		if p.cache != nil {
			if v, ok := p.cache.get(name); ok {
				return v, nil
			}
		}
		value, err := p.vault.Fetch(ctx, name)
		if err != nil {
			return "", err
		}
		if p.cache != nil {
			p.cache.put(name, value)
		}
		return value, nil
	default:
		return "", fmt.Errorf("unknown secret source: %s", p.source)
	}
}

// GetSecretOrEnv prefers an explicitly set environment variable over the configured source
func (p *Provider) GetSecretOrEnv(ctx context.Context, secretName, envName string) (string, error) {
	if envValue := os.Getenv(envName); envValue != "" {
		p.logger.Debug("Using environment variable override", zap.String("env_name", envName))
		return envValue, nil
	}
	return p.GetSecret(ctx, secretName)
}

// Source returns the current secret source
func (p *Provider) Source() SecretSource {
	return p.source
}
