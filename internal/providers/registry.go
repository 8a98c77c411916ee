package providers

import (
	"fmt"
	"sort"

	"github.com/systmms/drdb/internal/config"
	"github.com/systmms/drdb/internal/providers/vault"
	"github.com/systmms/drdb/pkg/provider"
)

// Registry manages provider creation and registration
type Registry struct {
	factories map[string]ProviderFactory
}

// ProviderFactory creates a provider instance from the secret store settings
type ProviderFactory func(settings config.SecretStore) (provider.Provider, error)

// NewRegistry creates a new provider registry with built-in providers
func NewRegistry() *Registry {
	registry := &Registry{
		factories: make(map[string]ProviderFactory),
	}

	registry.RegisterFactory(config.StoreAWSSecretsManager, NewAWSSecretsManagerProviderFactory)
	registry.RegisterFactory(config.StoreAWSSSM, NewAWSSSMProviderFactory)
	registry.RegisterFactory(config.StoreGCPSecretManager, NewGCPSecretManagerProviderFactory)
	registry.RegisterFactory(config.StoreAzureKeyVault, NewAzureKeyVaultProviderFactory)
	registry.RegisterFactory(config.StoreVault, NewVaultProviderFactory)
	registry.RegisterFactory(config.StoreKeyring, NewKeyringProviderFactory)

	return registry
}

// RegisterFactory registers a provider factory for a given type
func (r *Registry) RegisterFactory(providerType string, factory ProviderFactory) {
	r.factories[providerType] = factory
}

// CreateProvider creates the provider selected by settings.Type
func (r *Registry) CreateProvider(settings config.SecretStore) (provider.Provider, error) {
	factory, exists := r.factories[settings.Type]
	if !exists {
		return nil, fmt.Errorf("unknown secret store type: %s", settings.Type)
	}

	return factory(settings)
}

// GetSupportedTypes returns the supported provider types in sorted order
func (r *Registry) GetSupportedTypes() []string {
	types := make([]string, 0, len(r.factories))
	for providerType := range r.factories {
		types = append(types, providerType)
	}
	sort.Strings(types)
	return types
}

// IsSupported checks if a provider type is supported
func (r *Registry) IsSupported(providerType string) bool {
	_, exists := r.factories[providerType]
	return exists
}

// Factory functions for built-in providers

// NewAWSSecretsManagerProviderFactory creates an AWS Secrets Manager provider
func NewAWSSecretsManagerProviderFactory(settings config.SecretStore) (provider.Provider, error) {
	return NewAWSSecretsManagerProvider(settings.AWS)
}

// NewAWSSSMProviderFactory creates an AWS SSM Parameter Store provider
func NewAWSSSMProviderFactory(settings config.SecretStore) (provider.Provider, error) {
	return NewAWSSSMProvider(settings.AWS, settings.SSM)
}

// NewGCPSecretManagerProviderFactory creates a GCP Secret Manager provider
func NewGCPSecretManagerProviderFactory(settings config.SecretStore) (provider.Provider, error) {
	return NewGCPSecretManagerProvider(settings.GCP)
}

// NewAzureKeyVaultProviderFactory creates an Azure Key Vault provider
func NewAzureKeyVaultProviderFactory(settings config.SecretStore) (provider.Provider, error) {
	return NewAzureKeyVaultProvider(settings.Azure)
}

// NewVaultProviderFactory creates a HashiCorp Vault provider
func NewVaultProviderFactory(settings config.SecretStore) (provider.Provider, error) {
	return vault.New(settings.Vault)
}

// NewKeyringProviderFactory creates an OS keyring provider
func NewKeyringProviderFactory(settings config.SecretStore) (provider.Provider, error) {
	return NewKeyringProvider(settings.Keyring), nil
}
