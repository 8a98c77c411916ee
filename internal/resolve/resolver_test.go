package resolve_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/drdb/internal/config"
	"github.com/systmms/drdb/internal/environ"
	dserrors "github.com/systmms/drdb/internal/errors"
	"github.com/systmms/drdb/internal/providers"
	"github.com/systmms/drdb/internal/resolve"
	"github.com/systmms/drdb/tests/fakes"
)

func validEnv() environ.Map {
	return environ.Map{
		"PREFIX":           "orcatest",
		"DATABASE_NAME":    "disaster_recovery",
		"DATABASE_PORT":    "5432",
		"APPLICATION_USER": "orcauser",
		"ROOT_USER":        "postgres",
		"ROOT_DATABASE":    "postgres",
	}
}

func seededSecrets() *fakes.FakeSecretsManagerClient {
	client := fakes.NewFakeSecretsManagerClient()
	client.AddSecretString("orcatest-drdb-host", "aws.postgresrds.host")
	client.AddSecretString("orcatest-drdb-admin-pass", "MySecretAdminPassword")
	client.AddSecretString("orcatest-drdb-user-pass", "MySecretUserPassword")
	return client
}

func newResolver(t *testing.T, env environ.Map, client *fakes.FakeSecretsManagerClient) *resolve.Resolver {
	t.Helper()
	p, err := providers.NewAWSSecretsManagerProvider(config.AWSSettings{Region: "us-east-1"},
		providers.WithSecretsManagerClient(client))
	require.NoError(t, err)
	return resolve.NewResolver(env, p)
}

var wantConfiguration = resolve.Configuration{
	Host:             "aws.postgresrds.host",
	Port:             "5432",
	Database:         "disaster_recovery",
	RootDatabase:     "postgres",
	AppUser:          "orcauser",
	RootUser:         "postgres",
	AppUserPassword:  "MySecretUserPassword",
	RootUserPassword: "MySecretAdminPassword",
}

func TestGetConfiguration(t *testing.T) {
	t.Parallel()

	r := newResolver(t, validEnv(), seededSecrets())

	got, err := r.GetConfiguration(context.Background())
	require.NoError(t, err)
	assert.Equal(t, wantConfiguration, got)
}

func TestGetConfigurationMissingVariable(t *testing.T) {
	t.Parallel()

	variables := []string{"DATABASE_NAME", "DATABASE_PORT", "APPLICATION_USER", "ROOT_USER", "ROOT_DATABASE"}
	states := map[string]func(env environ.Map, name string){
		"absent":     func(env environ.Map, name string) { delete(env, name) },
		"empty":      func(env environ.Map, name string) { env[name] = "" },
		"whitespace": func(env environ.Map, name string) { env[name] = "  \t" },
	}

	for _, variable := range variables {
		for state, apply := range states {
			variable, apply := variable, apply
			t.Run(variable+"/"+state, func(t *testing.T) {
				t.Parallel()

				env := validEnv()
				apply(env, variable)
				client := seededSecrets()
				r := newResolver(t, env, client)

				got, err := r.GetConfiguration(context.Background())
				require.Error(t, err)
				assert.Equal(t, resolve.Configuration{}, got, "no partial record")
				assert.EqualError(t, err, "Environment variable "+variable+" is not set and is required")
				assert.ErrorIs(t, err, dserrors.ErrConfiguration)
				assert.Equal(t, dserrors.KindMissingEnvironmentVariable, dserrors.KindOf(err))

				var cfgErr *dserrors.ConfigurationError
				require.ErrorAs(t, err, &cfgErr)
				assert.Equal(t, variable, cfgErr.Variable)
			})
		}
	}
}

func TestGetConfigurationMissingPrefix(t *testing.T) {
	t.Parallel()

	for _, value := range []*string{nil, strPtr(""), strPtr("   ")} {
		value := value
		name := "absent"
		if value != nil {
			name = "blank " + `"` + *value + `"`
		}
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			env := validEnv()
			delete(env, "PREFIX")
			if value != nil {
				env["PREFIX"] = *value
			}
			client := seededSecrets()
			r := newResolver(t, env, client)

			_, err := r.GetConfiguration(context.Background())
			require.Error(t, err)
			assert.EqualError(t, err, "Environment variable PREFIX is not set.")
			assert.Equal(t, dserrors.KindMissingPrefix, dserrors.KindOf(err))

			for _, id := range resolve.SecretIDs("orcatest").All() {
				assert.Zero(t, client.Calls(id), "no secret lookup before PREFIX is known")
			}
		})
	}
}

func TestGetConfigurationPrefixCheckedBeforeOtherVariables(t *testing.T) {
	t.Parallel()

	r := newResolver(t, environ.Map{}, seededSecrets())

	_, err := r.GetConfiguration(context.Background())
	assert.EqualError(t, err, "Environment variable PREFIX is not set.")
}

func TestGetConfigurationDeletedSecret(t *testing.T) {
	t.Parallel()

	secrets := map[string]string{
		"orcatest-drdb-host":       "aws.postgresrds.host",
		"orcatest-drdb-admin-pass": "MySecretAdminPassword",
		"orcatest-drdb-user-pass":  "MySecretUserPassword",
	}

	deletions := map[string]func(c *fakes.FakeSecretsManagerClient, id string){
		"force deleted":          func(c *fakes.FakeSecretsManagerClient, id string) { c.ForceDelete(id) },
		"scheduled for deletion": func(c *fakes.FakeSecretsManagerClient, id string) { c.ScheduleDeletion(id) },
	}

	for id, value := range secrets {
		for how, del := range deletions {
			id, value, del := id, value, del
			t.Run(id+"/"+how, func(t *testing.T) {
				t.Parallel()

				client := seededSecrets()
				r := newResolver(t, validEnv(), client)
				ctx := context.Background()

				del(client, id)
				got, err := r.GetConfiguration(ctx)
				require.Error(t, err)
				assert.Equal(t, resolve.Configuration{}, got)
				assert.EqualError(t, err, "Failed to retrieve secret manager value.")
				assert.ErrorIs(t, err, dserrors.ErrSecretUnavailable)

				var secretErr *dserrors.SecretRetrievalError
				require.ErrorAs(t, err, &secretErr)
				assert.Equal(t, id, secretErr.SecretID)

				// Recreate (or restore) and resolve again.
				client.RestoreSecret(id)
				client.AddSecretString(id, value)
				got, err = r.GetConfiguration(ctx)
				require.NoError(t, err)
				assert.Equal(t, wantConfiguration, got)
			})
		}
	}
}

func TestGetConfigurationHidesStoreError(t *testing.T) {
	t.Parallel()

	storeErr := errors.New("AccessDeniedException: user arn:aws:iam::123:user/x is not authorized")
	client := seededSecrets()
	client.AddError("orcatest-drdb-admin-pass", storeErr)
	r := newResolver(t, validEnv(), client)

	_, err := r.GetConfiguration(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Failed to retrieve secret manager value.", err.Error())
	assert.NotErrorIs(t, err, storeErr)
	assert.Nil(t, errors.Unwrap(err))
	assert.NotContains(t, err.Error(), "AccessDenied")
}

func TestGetConfigurationBlankSecret(t *testing.T) {
	t.Parallel()

	for _, value := range []string{"", " ", "\n"} {
		client := seededSecrets()
		client.AddSecretString("orcatest-drdb-user-pass", value)
		r := newResolver(t, validEnv(), client)

		_, err := r.GetConfiguration(context.Background())
		assert.EqualError(t, err, "Failed to retrieve secret manager value.")
	}
}

func TestGetConfigurationStopsAtFirstSecretFailure(t *testing.T) {
	t.Parallel()

	client := seededSecrets()
	client.ForceDelete("orcatest-drdb-host")
	r := newResolver(t, validEnv(), client)

	_, err := r.GetConfiguration(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, client.Calls("orcatest-drdb-host"))
	assert.Zero(t, client.Calls("orcatest-drdb-admin-pass"))
	assert.Zero(t, client.Calls("orcatest-drdb-user-pass"))
}

func TestGetConfigurationIsIdempotentAndUncached(t *testing.T) {
	t.Parallel()

	client := seededSecrets()
	r := newResolver(t, validEnv(), client)
	ctx := context.Background()

	first, err := r.GetConfiguration(ctx)
	require.NoError(t, err)
	second, err := r.GetConfiguration(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, client.Calls("orcatest-drdb-host"), "every call reads the store")
}

func TestGetConfigurationPicksUpChangedValues(t *testing.T) {
	t.Parallel()

	env := validEnv()
	client := seededSecrets()
	r := newResolver(t, env, client)
	ctx := context.Background()

	_, err := r.GetConfiguration(ctx)
	require.NoError(t, err)

	env["DATABASE_PORT"] = "6543"
	client.AddSecretString("orcatest-drdb-admin-pass", "Rotated")

	got, err := r.GetConfiguration(ctx)
	require.NoError(t, err)
	assert.Equal(t, "6543", got.Port)
	assert.Equal(t, "Rotated", got.RootUserPassword)
}

func TestGetConfigurationWithFakeProvider(t *testing.T) {
	t.Parallel()

	p := fakes.NewFakeProvider("fake").
		WithSecret("dev-drdb-host", "localhost").
		WithSecret("dev-drdb-admin-pass", "admin").
		WithSecret("dev-drdb-user-pass", "user")
	env := validEnv()
	env["PREFIX"] = "dev"

	got, err := resolve.NewResolver(env, p).GetConfiguration(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "localhost", got.Host)
	assert.Equal(t, []string{"dev-drdb-host", "dev-drdb-admin-pass", "dev-drdb-user-pass"}, p.Requests())
}

func TestSecretIDs(t *testing.T) {
	t.Parallel()

	ids := resolve.SecretIDs("orcatest")
	assert.Equal(t, "orcatest-drdb-host", ids.Host)
	assert.Equal(t, "orcatest-drdb-admin-pass", ids.AdminPassword)
	assert.Equal(t, "orcatest-drdb-user-pass", ids.AppUserPassword)
	assert.Equal(t, []string{"orcatest-drdb-host", "orcatest-drdb-admin-pass", "orcatest-drdb-user-pass"}, ids.All())
}

func TestConfigurationRedaction(t *testing.T) {
	t.Parallel()

	s := wantConfiguration.String()
	assert.NotContains(t, s, "MySecretAdminPassword")
	assert.NotContains(t, s, "MySecretUserPassword")
	assert.Contains(t, s, "aws.postgresrds.host")

	r := wantConfiguration.Redacted()
	assert.Equal(t, "[REDACTED]", r.RootUserPassword)
	assert.Equal(t, "MySecretAdminPassword", wantConfiguration.RootUserPassword, "original untouched")
}

func strPtr(s string) *string { return &s }
