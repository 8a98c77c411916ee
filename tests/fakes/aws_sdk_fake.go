package fakes

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// FakeSecretsManagerClient is an in-memory Secrets Manager.
//
// It models the lifecycle the resolver cares about: a secret can be created,
// scheduled for deletion (reads fail with InvalidRequestException), restored,
// removed outright (reads fail with ResourceNotFoundException) and created again.
type FakeSecretsManagerClient struct {
	mu sync.Mutex

	// Secrets maps secret names to their data
	Secrets map[string]*SecretData
	// Errors maps secret names to errors to return
	Errors map[string]error
	// ListSecretsErr is returned by ListSecrets when set
	ListSecretsErr error
	// GetSecretValueFunc allows custom behavior for GetSecretValue
	GetSecretValueFunc func(ctx context.Context, params *secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error)

	calls map[string]int
}

// SecretData holds the data for a fake secret
type SecretData struct {
	SecretString *string
	SecretBinary []byte
	VersionId    *string
	CreatedDate  *time.Time
	DeletedDate  *time.Time
}

// NewFakeSecretsManagerClient creates an empty fake Secrets Manager client
func NewFakeSecretsManagerClient() *FakeSecretsManagerClient {
	return &FakeSecretsManagerClient{
		Secrets: make(map[string]*SecretData),
		Errors:  make(map[string]error),
		calls:   make(map[string]int),
	}
}

// AddSecretString creates or replaces a string secret
func (f *FakeSecretsManagerClient) AddSecretString(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	f.Secrets[name] = &SecretData{
		SecretString: aws.String(value),
		VersionId:    aws.String(fmt.Sprintf("v-%d", now.UnixNano())),
		CreatedDate:  &now,
	}
}

// AddSecretBinary creates or replaces a binary secret
func (f *FakeSecretsManagerClient) AddSecretBinary(name string, value []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	f.Secrets[name] = &SecretData{
		SecretBinary: value,
		VersionId:    aws.String(fmt.Sprintf("v-%d", now.UnixNano())),
		CreatedDate:  &now,
	}
}

// AddError configures the fake to return err for a specific secret
func (f *FakeSecretsManagerClient) AddError(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errors[name] = err
}

// ClearError removes a configured error
func (f *FakeSecretsManagerClient) ClearError(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Errors, name)
}

// ScheduleDeletion marks a secret as pending deletion, like DeleteSecret
// without ForceDeleteWithoutRecovery.
func (f *FakeSecretsManagerClient) ScheduleDeletion(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if data, ok := f.Secrets[name]; ok {
		now := time.Now()
		data.DeletedDate = &now
	}
}

// RestoreSecret cancels a scheduled deletion
func (f *FakeSecretsManagerClient) RestoreSecret(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if data, ok := f.Secrets[name]; ok {
		data.DeletedDate = nil
	}
}

// ForceDelete removes a secret immediately
func (f *FakeSecretsManagerClient) ForceDelete(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Secrets, name)
}

// Calls returns how many times GetSecretValue was invoked for name
func (f *FakeSecretsManagerClient) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

// GetSecretValue implements the Secrets Manager operation of the same name
func (f *FakeSecretsManagerClient) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	secretName := aws.ToString(params.SecretId)

	f.mu.Lock()
	f.calls[secretName]++
	fn := f.GetSecretValueFunc
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, params)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err, exists := f.Errors[secretName]; exists {
		return nil, err
	}

	data, exists := f.Secrets[secretName]
	if !exists {
		return nil, &types.ResourceNotFoundException{
			Message: aws.String("Secrets Manager can't find the specified secret."),
		}
	}

	if data.DeletedDate != nil {
		return nil, &types.InvalidRequestException{
			Message: aws.String("You can't perform this operation on the secret because it was marked for deletion."),
		}
	}

	return &secretsmanager.GetSecretValueOutput{
		ARN:           aws.String(fmt.Sprintf("arn:aws:secretsmanager:us-east-1:123456789012:secret:%s", secretName)),
		Name:          params.SecretId,
		SecretString:  data.SecretString,
		SecretBinary:  data.SecretBinary,
		VersionId:     data.VersionId,
		VersionStages: []string{"AWSCURRENT"},
		CreatedDate:   data.CreatedDate,
	}, nil
}

// ListSecrets returns an empty page, or ListSecretsErr when set
func (f *FakeSecretsManagerClient) ListSecrets(ctx context.Context, params *secretsmanager.ListSecretsInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.ListSecretsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ListSecretsErr != nil {
		return nil, f.ListSecretsErr
	}
	return &secretsmanager.ListSecretsOutput{
		SecretList: []types.SecretListEntry{},
	}, nil
}

// FakeSSMClient is an in-memory Parameter Store
type FakeSSMClient struct {
	mu sync.Mutex

	// Parameters maps parameter names to their data
	Parameters map[string]*ParameterData
	// Errors maps parameter names to errors to return
	Errors map[string]error
	// DescribeErr is returned by DescribeParameters when set
	DescribeErr error

	// LastWithDecryption records the flag of the most recent GetParameter call
	LastWithDecryption bool
}

// ParameterData holds the data for a fake SSM parameter
type ParameterData struct {
	Type    ssmtypes.ParameterType
	Value   string
	Version int64
}

// NewFakeSSMClient creates an empty fake SSM client
func NewFakeSSMClient() *FakeSSMClient {
	return &FakeSSMClient{
		Parameters: make(map[string]*ParameterData),
		Errors:     make(map[string]error),
	}
}

// AddStringParameter adds a String parameter
func (f *FakeSSMClient) AddStringParameter(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Parameters[name] = &ParameterData{Type: ssmtypes.ParameterTypeString, Value: value, Version: 1}
}

// AddSecureStringParameter adds a SecureString parameter
func (f *FakeSSMClient) AddSecureStringParameter(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Parameters[name] = &ParameterData{Type: ssmtypes.ParameterTypeSecureString, Value: value, Version: 1}
}

// AddError configures the fake to return err for a specific parameter
func (f *FakeSSMClient) AddError(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errors[name] = err
}

// GetParameter implements the SSM operation of the same name
func (f *FakeSSMClient) GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	paramName := aws.ToString(params.Name)
	f.LastWithDecryption = aws.ToBool(params.WithDecryption)

	if err, exists := f.Errors[paramName]; exists {
		return nil, err
	}

	data, exists := f.Parameters[paramName]
	if !exists {
		return nil, &ssmtypes.ParameterNotFound{
			Message: aws.String(fmt.Sprintf("Parameter %s not found", paramName)),
		}
	}

	value := data.Value
	if data.Type == ssmtypes.ParameterTypeSecureString && !f.LastWithDecryption {
		value = "AQICAHencrypted=="
	}

	return &ssm.GetParameterOutput{
		Parameter: &ssmtypes.Parameter{
			Name:    aws.String(paramName),
			Type:    data.Type,
			Value:   aws.String(value),
			Version: data.Version,
		},
	}, nil
}

// DescribeParameters returns the metadata of every stored parameter
func (f *FakeSSMClient) DescribeParameters(ctx context.Context, params *ssm.DescribeParametersInput, optFns ...func(*ssm.Options)) (*ssm.DescribeParametersOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.DescribeErr != nil {
		return nil, f.DescribeErr
	}

	var out []ssmtypes.ParameterMetadata
	for name, data := range f.Parameters {
		out = append(out, ssmtypes.ParameterMetadata{
			Name:    aws.String(name),
			Type:    data.Type,
			Version: data.Version,
		})
	}
	return &ssm.DescribeParametersOutput{Parameters: out}, nil
}
