package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/systmms/drdb/internal/config"
	"github.com/systmms/drdb/pkg/provider"
)

// SecretsManagerClientAPI defines the interface for AWS Secrets Manager operations
// This allows for mocking in tests
type SecretsManagerClientAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	ListSecrets(ctx context.Context, params *secretsmanager.ListSecretsInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.ListSecretsOutput, error)
}

// AWSSecretsManagerProvider reads the current version of a secret from AWS Secrets Manager
type AWSSecretsManagerProvider struct {
	client SecretsManagerClientAPI
	region string
}

// ProviderOption is a functional option for configuring providers
type ProviderOption func(*AWSSecretsManagerProvider)

// WithSecretsManagerClient sets a custom Secrets Manager client (for testing)
func WithSecretsManagerClient(client SecretsManagerClientAPI) ProviderOption {
	return func(p *AWSSecretsManagerProvider) {
		p.client = client
	}
}

// NewAWSSecretsManagerProvider creates a new AWS Secrets Manager provider.
// Without an injected client it uses the SDK's default credential chain.
func NewAWSSecretsManagerProvider(settings config.AWSSettings, opts ...ProviderOption) (*AWSSecretsManagerProvider, error) {
	p := &AWSSecretsManagerProvider{
		region: settings.Region,
	}

	// Apply options (allows fake client injection)
	for _, opt := range opts {
		opt(p)
	}

	if p.client == nil {
		cfg, err := loadAWSConfig(context.Background(), settings)
		if err != nil {
			return nil, err
		}
		p.region = cfg.Region

		var clientOpts []func(*secretsmanager.Options)
		if settings.Endpoint != "" {
			endpoint := settings.Endpoint
			clientOpts = append(clientOpts, func(o *secretsmanager.Options) {
				o.BaseEndpoint = &endpoint
			})
		}
		p.client = secretsmanager.NewFromConfig(cfg, clientOpts...)
	}

	return p, nil
}

// loadAWSConfig builds an SDK config from settings. Static credentials are
// only used when both halves are present (LocalStack and tests).
func loadAWSConfig(ctx context.Context, settings config.AWSSettings) (aws.Config, error) {
	var configOpts []func(*awsconfig.LoadOptions) error
	if settings.Region != "" {
		configOpts = append(configOpts, awsconfig.WithRegion(settings.Region))
	}
	if settings.AccessKeyID != "" && settings.SecretAccessKey != "" {
		configOpts = append(configOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(settings.AccessKeyID, settings.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}

// Name returns the provider name
func (p *AWSSecretsManagerProvider) Name() string {
	return config.StoreAWSSecretsManager
}

// Region returns the region requests are sent to, if known
func (p *AWSSecretsManagerProvider) Region() string {
	return p.region
}

// GetSecret returns the AWSCURRENT string value of secretID.
// Binary secrets are returned as their raw bytes.
func (p *AWSSecretsManagerProvider) GetSecret(ctx context.Context, secretID string) (string, error) {
	result, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return "", p.handleError(err, secretID)
	}

	switch {
	case result.SecretString != nil:
		return *result.SecretString, nil
	case result.SecretBinary != nil:
		return string(result.SecretBinary), nil
	default:
		return "", fmt.Errorf("secret '%s' has no value", secretID)
	}
}

// Validate checks if AWS credentials are configured and accessible
func (p *AWSSecretsManagerProvider) Validate(ctx context.Context) error {
	_, err := p.client.ListSecrets(ctx, &secretsmanager.ListSecretsInput{
		MaxResults: aws.Int32(1),
	})
	if err != nil {
		return provider.AuthError{
			Provider: p.Name(),
			Message:  fmt.Sprintf("AWS authentication failed: %v", err),
		}
	}
	return nil
}

// handleError converts AWS errors to provider errors
func (p *AWSSecretsManagerProvider) handleError(err error, secretID string) error {
	if isNotFoundError(err) || isScheduledForDeletion(err) {
		return &provider.NotFoundError{
			Provider: p.Name(),
			Key:      secretID,
		}
	}

	if isAuthError(err) {
		return provider.AuthError{
			Provider: p.Name(),
			Message:  fmt.Sprintf("AWS authentication/authorization failed: %v", err),
		}
	}

	return fmt.Errorf("AWS Secrets Manager error: %w", err)
}

func isNotFoundError(err error) bool {
	var resourceNotFound *types.ResourceNotFoundException
	return errors.As(err, &resourceNotFound)
}

// isScheduledForDeletion matches the InvalidRequestException returned for a
// secret that is pending deletion.
func isScheduledForDeletion(err error) bool {
	var invalid *types.InvalidRequestException
	return errors.As(err, &invalid) && strings.Contains(invalid.ErrorMessage(), "marked for deletion")
}

func isAuthError(err error) bool {
	// Check for common auth-related errors by string matching
	errStr := err.Error()
	return strings.Contains(errStr, "AccessDenied") ||
		strings.Contains(errStr, "UnauthorizedOperation") ||
		strings.Contains(errStr, "InvalidUserID") ||
		strings.Contains(errStr, "UnrecognizedClientException") ||
		strings.Contains(errStr, "ExpiredToken") ||
		strings.Contains(errStr, "Forbidden")
}
