package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"github.com/systmms/drdb/internal/config"
	"github.com/systmms/drdb/pkg/provider"
)

// AzureKeyVaultClientAPI defines the interface for Azure Key Vault operations
type AzureKeyVaultClientAPI interface {
	GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
}

// AzureKeyVaultProvider reads the current version of a Key Vault secret
type AzureKeyVaultProvider struct {
	client   AzureKeyVaultClientAPI
	vaultURL string
}

// AzureProviderOption is a functional option for configuring Azure providers
type AzureProviderOption func(*AzureKeyVaultProvider)

// WithAzureKeyVaultClient sets a custom Key Vault client (for testing)
func WithAzureKeyVaultClient(client AzureKeyVaultClientAPI) AzureProviderOption {
	return func(p *AzureKeyVaultProvider) {
		p.client = client
	}
}

// NewAzureKeyVaultProvider creates a new Azure Key Vault provider
func NewAzureKeyVaultProvider(settings config.AzureSettings, opts ...AzureProviderOption) (*AzureKeyVaultProvider, error) {
	p := &AzureKeyVaultProvider{vaultURL: settings.VaultURL}
	for _, opt := range opts {
		opt(p)
	}

	if p.client == nil {
		if settings.VaultURL == "" {
			return nil, fmt.Errorf("vault_url is required for Azure Key Vault")
		}
		client, err := createAzureKeyVaultClient(settings)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Key Vault client: %w", err)
		}
		p.client = client
	}

	return p, nil
}

// createAzureKeyVaultClient authenticates with a user-assigned managed
// identity when configured, otherwise with the default credential chain.
func createAzureKeyVaultClient(settings config.AzureSettings) (*azsecrets.Client, error) {
	var cred azcore.TokenCredential
	var err error

	if settings.ManagedIdentityClientID != "" {
		cred, err = azidentity.NewManagedIdentityCredential(&azidentity.ManagedIdentityCredentialOptions{
			ID: azidentity.ClientID(settings.ManagedIdentityClientID),
		})
	} else {
		cred, err = azidentity.NewDefaultAzureCredential(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	client, err := azsecrets.NewClient(settings.VaultURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Key Vault client: %w", err)
	}
	return client, nil
}

// Name returns the provider name
func (p *AzureKeyVaultProvider) Name() string {
	return config.StoreAzureKeyVault
}

// GetSecret returns the latest version of secretID
func (p *AzureKeyVaultProvider) GetSecret(ctx context.Context, secretID string) (string, error) {
	// An empty version selects the latest one.
	resp, err := p.client.GetSecret(ctx, secretID, "", nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) {
			switch respErr.StatusCode {
			case http.StatusNotFound:
				return "", &provider.NotFoundError{Provider: p.Name(), Key: secretID}
			case http.StatusUnauthorized, http.StatusForbidden:
				return "", provider.AuthError{Provider: p.Name(), Message: respErr.Error()}
			}
		}
		return "", fmt.Errorf("Azure Key Vault error: %w", err)
	}

	if resp.Value == nil {
		return "", fmt.Errorf("secret '%s' has no value", secretID)
	}
	return *resp.Value, nil
}
