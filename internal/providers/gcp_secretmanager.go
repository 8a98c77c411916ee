package providers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/systmms/drdb/internal/config"
	"github.com/systmms/drdb/pkg/provider"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GCPSecretManagerClientAPI is the subset of the Secret Manager client the provider uses
type GCPSecretManagerClientAPI interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

// gcpClient drops the gax call options from the real client's signature
type gcpClient struct {
	c *secretmanager.Client
}

func (g gcpClient) AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	return g.c.AccessSecretVersion(ctx, req)
}

func (g gcpClient) Close() error {
	return g.c.Close()
}

// GCPSecretManagerProvider reads the latest version of a secret from Google Cloud Secret Manager
type GCPSecretManagerProvider struct {
	client    GCPSecretManagerClientAPI
	projectID string
}

// GCPProviderOption is a functional option for configuring GCP providers
type GCPProviderOption func(*GCPSecretManagerProvider)

// WithGCPSecretManagerClient sets a custom client (for testing)
func WithGCPSecretManagerClient(client GCPSecretManagerClientAPI) GCPProviderOption {
	return func(p *GCPSecretManagerProvider) {
		p.client = client
	}
}

// NewGCPSecretManagerProvider creates a new GCP Secret Manager provider
func NewGCPSecretManagerProvider(settings config.GCPSettings, opts ...GCPProviderOption) (*GCPSecretManagerProvider, error) {
	projectID := settings.ProjectID
	if projectID == "" {
		projectID = getGCPProjectID()
	}
	if projectID == "" {
		return nil, fmt.Errorf("project_id is required for GCP Secret Manager")
	}

	p := &GCPSecretManagerProvider{projectID: projectID}
	for _, opt := range opts {
		opt(p)
	}

	if p.client == nil {
		client, err := createGCPSecretManagerClient(settings)
		if err != nil {
			return nil, fmt.Errorf("failed to create GCP Secret Manager client: %w", err)
		}
		p.client = gcpClient{c: client}
	}

	return p, nil
}

// createGCPSecretManagerClient creates a client using the credentials file
// when given, otherwise Application Default Credentials.
func createGCPSecretManagerClient(settings config.GCPSettings) (*secretmanager.Client, error) {
	var clientOptions []option.ClientOption

	if path := settings.CredentialsFile; path != "" {
		if strings.HasPrefix(path, "~/") {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get home directory: %w", err)
			}
			path = filepath.Join(home, path[2:])
		}
		clientOptions = append(clientOptions, option.WithCredentialsFile(path))
	}

	return secretmanager.NewClient(context.Background(), clientOptions...)
}

// getGCPProjectID reads the project from the usual environment variables
func getGCPProjectID() string {
	for _, name := range []string{"GOOGLE_CLOUD_PROJECT", "GCLOUD_PROJECT", "GCP_PROJECT"} {
		if projectID := os.Getenv(name); projectID != "" {
			return projectID
		}
	}
	return ""
}

// Name returns the provider name
func (p *GCPSecretManagerProvider) Name() string {
	return config.StoreGCPSecretManager
}

// GetSecret returns the payload of the latest enabled version of secretID
func (p *GCPSecretManagerProvider) GetSecret(ctx context.Context, secretID string) (string, error) {
	name := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", p.projectID, secretID)

	resp, err := p.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: name,
	})
	if err != nil {
		switch status.Code(err) {
		case codes.NotFound, codes.FailedPrecondition:
			// FailedPrecondition: the latest version is disabled or destroyed.
			return "", &provider.NotFoundError{Provider: p.Name(), Key: secretID}
		case codes.PermissionDenied, codes.Unauthenticated:
			return "", provider.AuthError{Provider: p.Name(), Message: err.Error()}
		}
		return "", fmt.Errorf("GCP Secret Manager error: %w", err)
	}

	if resp.GetPayload() == nil {
		return "", fmt.Errorf("secret '%s' has no payload", secretID)
	}
	return string(resp.GetPayload().GetData()), nil
}

// Close releases the underlying gRPC connection
func (p *GCPSecretManagerProvider) Close() error {
	return p.client.Close()
}
