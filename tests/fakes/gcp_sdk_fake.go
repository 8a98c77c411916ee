package fakes

import (
	"context"
	"fmt"
	"sync"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FakeGCPSecretManagerClient serves the latest version of each secret from memory.
type FakeGCPSecretManagerClient struct {
	mu sync.Mutex

	// Payloads maps version resource names
	// (projects/P/secrets/S/versions/latest) to their data
	Payloads map[string][]byte
	// Errors maps version resource names to errors to return
	Errors map[string]error

	Closed bool
}

// NewFakeGCPSecretManagerClient creates an empty fake client
func NewFakeGCPSecretManagerClient() *FakeGCPSecretManagerClient {
	return &FakeGCPSecretManagerClient{
		Payloads: make(map[string][]byte),
		Errors:   make(map[string]error),
	}
}

// AddSecret stores value as the latest version of secretID in projectID
func (f *FakeGCPSecretManagerClient) AddSecret(projectID, secretID, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Payloads[latestVersionName(projectID, secretID)] = []byte(value)
}

// AddError configures the fake to fail for secretID in projectID
func (f *FakeGCPSecretManagerClient) AddError(projectID, secretID string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errors[latestVersionName(projectID, secretID)] = err
}

// AccessSecretVersion implements the Secret Manager operation of the same name
func (f *FakeGCPSecretManagerClient) AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.Errors[req.GetName()]; ok {
		return nil, err
	}

	data, ok := f.Payloads[req.GetName()]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "Secret [%s] not found or has no versions.", req.GetName())
	}

	return &secretmanagerpb.AccessSecretVersionResponse{
		Name: req.GetName(),
		Payload: &secretmanagerpb.SecretPayload{
			Data: data,
		},
	}, nil
}

// Close records that the client was closed
func (f *FakeGCPSecretManagerClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

func latestVersionName(projectID, secretID string) string {
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, secretID)
}
