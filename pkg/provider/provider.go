package provider

import (
	"context"
)

// Provider retrieves secret values from a secret store.
//
// Example usage:
//
//	value, err := p.GetSecret(ctx, "orcatest-drdb-host")
//	if err != nil {
//	    return fmt.Errorf("failed to resolve secret: %w", err)
//	}
type Provider interface {
	// Name returns the provider's identifier, e.g. "aws.secretsmanager".
	Name() string

	// GetSecret returns the current string payload of secretID.
	//
	// Implementations should:
	//   - Support context cancellation
	//   - Return *NotFoundError for missing or deleted secrets
	//   - Return AuthError for authentication failures
	//   - Never log the secret value
	GetSecret(ctx context.Context, secretID string) (string, error)
}

// Validator is implemented by providers that can check their credentials and
// connectivity without reading a secret.
type Validator interface {
	Validate(ctx context.Context) error
}

// Func adapts a plain function to the Provider interface.
type Func struct {
	ProviderName string
	Fn           func(ctx context.Context, secretID string) (string, error)
}

func (f Func) Name() string { return f.ProviderName }

func (f Func) GetSecret(ctx context.Context, secretID string) (string, error) {
	return f.Fn(ctx, secretID)
}

// NotFoundError indicates that a requested secret does not exist.
//
// This error should be returned when the secret has never existed, has been
// deleted, or is scheduled for deletion.
type NotFoundError struct {
	// Provider is the name of the provider where the secret was not found.
	Provider string

	// Key is the secret identifier that could not be found.
	Key string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return "secret not found: " + e.Key + " in " + e.Provider
}

// AuthError indicates that authentication to the provider failed.
//
// This error should be returned when:
//   - Credentials are invalid or expired
//   - Permission is denied for the requested operation
type AuthError struct {
	// Provider is the name of the provider that failed authentication.
	Provider string

	// Message provides details about the authentication failure.
	Message string
}

// Error implements the error interface.
func (e AuthError) Error() string {
	return "authentication failed for " + e.Provider + ": " + e.Message
}
