package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/systmms/drdb/internal/config"
	"github.com/systmms/drdb/pkg/provider"
)

// SSMClientAPI defines the interface for AWS SSM Parameter Store operations
// This allows for mocking in tests
type SSMClientAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	DescribeParameters(ctx context.Context, params *ssm.DescribeParametersInput, optFns ...func(*ssm.Options)) (*ssm.DescribeParametersOutput, error)
}

// AWSSSMProvider reads secrets stored as Parameter Store parameters
type AWSSSMProvider struct {
	client SSMClientAPI
	config config.SSMSettings
}

// SSMProviderOption is a functional option for configuring SSM providers
type SSMProviderOption func(*AWSSSMProvider)

// WithSSMClient sets a custom SSM client (for testing)
func WithSSMClient(client SSMClientAPI) SSMProviderOption {
	return func(p *AWSSSMProvider) {
		p.client = client
	}
}

// NewAWSSSMProvider creates a new AWS SSM Parameter Store provider
func NewAWSSSMProvider(awsSettings config.AWSSettings, ssmSettings config.SSMSettings, opts ...SSMProviderOption) (*AWSSSMProvider, error) {
	p := &AWSSSMProvider{
		config: ssmSettings,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.client == nil {
		cfg, err := loadAWSConfig(context.Background(), awsSettings)
		if err != nil {
			return nil, fmt.Errorf("failed to create SSM client: %w", err)
		}

		var clientOpts []func(*ssm.Options)
		if awsSettings.Endpoint != "" {
			endpoint := awsSettings.Endpoint
			clientOpts = append(clientOpts, func(o *ssm.Options) {
				o.BaseEndpoint = &endpoint
			})
		}
		p.client = ssm.NewFromConfig(cfg, clientOpts...)
	}

	return p, nil
}

// Name returns the provider name
func (p *AWSSSMProvider) Name() string {
	return config.StoreAWSSSM
}

// parameterName applies the configured path prefix
func (p *AWSSSMProvider) parameterName(secretID string) string {
	return p.config.PathPrefix + secretID
}

// GetSecret fetches a parameter from SSM Parameter Store
func (p *AWSSSMProvider) GetSecret(ctx context.Context, secretID string) (string, error) {
	name := p.parameterName(secretID)

	result, err := p.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(p.config.WithDecryption),
	})
	if err != nil {
		if isParameterNotFoundError(err) {
			return "", &provider.NotFoundError{Provider: p.Name(), Key: name}
		}
		if isAuthError(err) {
			return "", provider.AuthError{Provider: p.Name(), Message: err.Error()}
		}
		return "", fmt.Errorf("SSM Parameter Store error: %w", err)
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", fmt.Errorf("parameter '%s' has no value", name)
	}

	return *result.Parameter.Value, nil
}

// Validate checks that the caller may describe parameters under the prefix
func (p *AWSSSMProvider) Validate(ctx context.Context) error {
	input := &ssm.DescribeParametersInput{MaxResults: aws.Int32(1)}
	if prefix := strings.TrimSuffix(p.config.PathPrefix, "/"); strings.HasPrefix(prefix, "/") {
		input.ParameterFilters = []types.ParameterStringFilter{
			{
				Key:    aws.String("Path"),
				Option: aws.String("Recursive"),
				Values: []string{prefix},
			},
		}
	}

	if _, err := p.client.DescribeParameters(ctx, input); err != nil {
		return provider.AuthError{
			Provider: p.Name(),
			Message:  fmt.Sprintf("cannot describe parameters: %v", err),
		}
	}
	return nil
}

func isParameterNotFoundError(err error) bool {
	var notFound *types.ParameterNotFound
	if errors.As(err, &notFound) {
		return true
	}
	var versionNotFound *types.ParameterVersionNotFound
	return errors.As(err, &versionNotFound)
}
