// Package vault reads drdb secrets from a HashiCorp Vault KV version 2 mount.
//
// Each secret identifier maps to one KV entry at <path_prefix>/<secret id>,
// and the secret value is read from a single field of that entry ("value" by
// default):
//
//	vault kv put secret/drdb/orcatest-drdb-host value=aws.postgresrds.host
package vault

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	vaultapi "github.com/hashicorp/vault/api"
	"github.com/systmms/drdb/internal/config"
	"github.com/systmms/drdb/pkg/provider"
)

const (
	DefaultMount = "secret"
	DefaultField = "value"
)

// KVReader is implemented by *vaultapi.KVv2.
type KVReader interface {
	Get(ctx context.Context, secretPath string) (*vaultapi.KVSecret, error)
}

// Provider implements provider.Provider for Vault.
type Provider struct {
	kv     KVReader
	client *vaultapi.Client
	prefix string
	field  string
}

// Option configures a Provider.
type Option func(*Provider)

// WithKV injects a KV reader (for testing). No Vault client is created.
func WithKV(kv KVReader) Option {
	return func(p *Provider) {
		p.kv = kv
	}
}

// New creates a Vault provider. Address and token fall back to VAULT_ADDR and
// VAULT_TOKEN through the Vault client's own environment handling.
func New(settings config.VaultSettings, opts ...Option) (*Provider, error) {
	p := &Provider{
		prefix: strings.Trim(settings.PathPrefix, "/"),
		field:  settings.Field,
	}
	if p.field == "" {
		p.field = DefaultField
	}

	for _, opt := range opts {
		opt(p)
	}
	if p.kv != nil {
		return p, nil
	}

	cfg := vaultapi.DefaultConfig()
	if cfg.Error != nil {
		return nil, fmt.Errorf("failed to read Vault environment: %w", cfg.Error)
	}
	if settings.Address != "" {
		cfg.Address = settings.Address
	}

	client, err := vaultapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if settings.Token != "" {
		client.SetToken(settings.Token)
	}

	mount := settings.Mount
	if mount == "" {
		mount = DefaultMount
	}

	p.client = client
	p.kv = client.KVv2(mount)
	return p, nil
}

// Name returns the provider name
func (p *Provider) Name() string {
	return config.StoreVault
}

func (p *Provider) secretPath(secretID string) string {
	if p.prefix == "" {
		return secretID
	}
	return p.prefix + "/" + secretID
}

// GetSecret reads the configured field of the entry for secretID
func (p *Provider) GetSecret(ctx context.Context, secretID string) (string, error) {
	path := p.secretPath(secretID)

	secret, err := p.kv.Get(ctx, path)
	if err != nil {
		if errors.Is(err, vaultapi.ErrSecretNotFound) {
			return "", &provider.NotFoundError{Provider: p.Name(), Key: path}
		}
		var respErr *vaultapi.ResponseError
		if errors.As(err, &respErr) && (respErr.StatusCode == http.StatusForbidden || respErr.StatusCode == http.StatusUnauthorized) {
			return "", provider.AuthError{Provider: p.Name(), Message: respErr.Error()}
		}
		return "", fmt.Errorf("vault read %s: %w", path, err)
	}

	if secret == nil || secret.Data == nil {
		return "", &provider.NotFoundError{Provider: p.Name(), Key: path}
	}

	raw, ok := secret.Data[p.field]
	if !ok || raw == nil {
		return "", fmt.Errorf("vault secret %s has no field %q", path, p.field)
	}

	if s, ok := raw.(string); ok {
		return s, nil
	}
	return fmt.Sprintf("%v", raw), nil
}

// Validate looks up the client's own token
func (p *Provider) Validate(ctx context.Context) error {
	if p.client == nil {
		return nil
	}
	if _, err := p.client.Auth().Token().LookupSelfWithContext(ctx); err != nil {
		return provider.AuthError{
			Provider: p.Name(),
			Message:  fmt.Sprintf("token lookup failed: %v", err),
		}
	}
	return nil
}
