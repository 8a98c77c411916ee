package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/systmms/drdb/internal/config"
	"github.com/systmms/drdb/pkg/provider"
	"github.com/zalando/go-keyring"
)

// KeyringProvider reads secrets from the operating system keyring
// (macOS Keychain, Secret Service on Linux, Windows Credential Manager).
// The secret identifier is the account name under the configured service.
type KeyringProvider struct {
	service string
}

// NewKeyringProvider creates a keyring provider for service
func NewKeyringProvider(settings config.KeyringSettings) *KeyringProvider {
	service := settings.Service
	if service == "" {
		service = "drdb"
	}
	return &KeyringProvider{service: service}
}

// Name returns the provider name
func (p *KeyringProvider) Name() string {
	return config.StoreKeyring
}

// GetSecret returns the password stored for secretID
func (p *KeyringProvider) GetSecret(ctx context.Context, secretID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	value, err := keyring.Get(p.service, secretID)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", &provider.NotFoundError{Provider: p.Name(), Key: secretID}
		}
		return "", fmt.Errorf("keyring error for %s/%s: %w", p.service, secretID, err)
	}
	return value, nil
}
