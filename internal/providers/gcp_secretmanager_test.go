package providers_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/drdb/internal/config"
	"github.com/systmms/drdb/internal/providers"
	"github.com/systmms/drdb/pkg/provider"
	"github.com/systmms/drdb/tests/fakes"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func newGCPProvider(t *testing.T, client *fakes.FakeGCPSecretManagerClient) *providers.GCPSecretManagerProvider {
	t.Helper()
	p, err := providers.NewGCPSecretManagerProvider(
		config.GCPSettings{ProjectID: "orca-dr"},
		providers.WithGCPSecretManagerClient(client),
	)
	require.NoError(t, err)
	return p
}

func TestGCPSecretManagerProviderContract(t *testing.T) {
	client := fakes.NewFakeGCPSecretManagerClient()

	provider.RunContractTests(t, provider.ContractTest{
		CreateProvider: func(t *testing.T) provider.Provider {
			return newGCPProvider(t, client)
		},
		SetupTestSecret: func(t *testing.T, p provider.Provider) (string, string, func()) {
			client.AddSecret("orca-dr", "contract-drdb-host", "db.internal")
			return "contract-drdb-host", "db.internal", func() {}
		},
		RequireNotFoundError: true,
	})
}

func TestGCPSecretManagerGetSecret(t *testing.T) {
	t.Parallel()

	client := fakes.NewFakeGCPSecretManagerClient()
	client.AddSecret("orca-dr", "orcatest-drdb-host", "aws.postgresrds.host")
	client.AddSecret("other-project", "orcatest-drdb-admin-pass", "wrong")
	client.AddError("orca-dr", "disabled", status.Error(codes.FailedPrecondition, "version is disabled"))
	client.AddError("orca-dr", "denied", status.Error(codes.PermissionDenied, "caller lacks secretmanager.versions.access"))
	client.AddError("orca-dr", "unavailable", status.Error(codes.Unavailable, "connection reset"))
	p := newGCPProvider(t, client)
	ctx := context.Background()

	got, err := p.GetSecret(ctx, "orcatest-drdb-host")
	require.NoError(t, err)
	assert.Equal(t, "aws.postgresrds.host", got)

	var notFound *provider.NotFoundError
	_, err = p.GetSecret(ctx, "orcatest-drdb-admin-pass")
	assert.ErrorAs(t, err, &notFound, "secrets from other projects are not visible")

	_, err = p.GetSecret(ctx, "disabled")
	assert.ErrorAs(t, err, &notFound)

	var authErr provider.AuthError
	_, err = p.GetSecret(ctx, "denied")
	assert.ErrorAs(t, err, &authErr)

	_, err = p.GetSecret(ctx, "unavailable")
	require.Error(t, err)
	assert.False(t, errors.As(err, &notFound))
	assert.Equal(t, codes.Unavailable, status.Code(errors.Unwrap(err)))
}

func TestGCPSecretManagerProjectFromEnvironment(t *testing.T) {
	t.Setenv("GOOGLE_CLOUD_PROJECT", "env-project")
	client := fakes.NewFakeGCPSecretManagerClient()
	client.AddSecret("env-project", "orcatest-drdb-host", "from-env-project")

	p, err := providers.NewGCPSecretManagerProvider(config.GCPSettings{}, providers.WithGCPSecretManagerClient(client))
	require.NoError(t, err)

	got, err := p.GetSecret(context.Background(), "orcatest-drdb-host")
	require.NoError(t, err)
	assert.Equal(t, "from-env-project", got)

	require.NoError(t, p.Close())
	assert.True(t, client.Closed)
}

func TestGCPSecretManagerRequiresProject(t *testing.T) {
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")
	t.Setenv("GCLOUD_PROJECT", "")
	t.Setenv("GCP_PROJECT", "")

	_, err := providers.NewGCPSecretManagerProvider(config.GCPSettings{},
		providers.WithGCPSecretManagerClient(fakes.NewFakeGCPSecretManagerClient()))
	assert.ErrorContains(t, err, "project_id")
}
