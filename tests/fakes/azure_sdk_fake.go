package fakes

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
)

// FakeAzureKeyVaultClient is an in-memory Key Vault
type FakeAzureKeyVaultClient struct {
	mu sync.Mutex

	// Secrets maps secret names to their current value
	Secrets map[string]string
	// Errors maps secret names to errors to return
	Errors map[string]error

	// LastVersion records the version argument of the most recent call
	LastVersion string
}

// NewFakeAzureKeyVaultClient creates an empty fake client
func NewFakeAzureKeyVaultClient() *FakeAzureKeyVaultClient {
	return &FakeAzureKeyVaultClient{
		Secrets: make(map[string]string),
		Errors:  make(map[string]error),
	}
}

// AddSecretString creates or replaces a secret
func (f *FakeAzureKeyVaultClient) AddSecretString(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Secrets[name] = value
}

// AddError configures the fake to return err for a specific secret
func (f *FakeAzureKeyVaultClient) AddError(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errors[name] = err
}

// GetSecret implements the azsecrets operation of the same name
func (f *FakeAzureKeyVaultClient) GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.LastVersion = version

	if err, ok := f.Errors[name]; ok {
		return azsecrets.GetSecretResponse{}, err
	}

	value, ok := f.Secrets[name]
	if !ok {
		return azsecrets.GetSecretResponse{}, &azcore.ResponseError{
			ErrorCode:  "SecretNotFound",
			StatusCode: http.StatusNotFound,
		}
	}

	id := azsecrets.ID(fmt.Sprintf("https://test-vault.vault.azure.net/secrets/%s/0123456789abcdef", name))
	return azsecrets.GetSecretResponse{
		Secret: azsecrets.Secret{
			ID:    &id,
			Value: to.Ptr(value),
		},
	}, nil
}
