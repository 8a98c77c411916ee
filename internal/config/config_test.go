package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/drdb/internal/environ"
	dserrors "github.com/systmms/drdb/internal/errors"
	"github.com/systmms/drdb/internal/logging"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadSettingsDefaults(t *testing.T) {
	settings, err := LoadSettings("")
	require.NoError(t, err)

	assert.Equal(t, Default(), *settings)
	assert.Equal(t, StoreAWSSecretsManager, settings.SecretStore.Type)
	assert.Equal(t, "require", settings.Database.SSLMode)
	assert.Equal(t, 3, settings.Database.Retry.MaxRetries)
	assert.Equal(t, time.Second, settings.Database.Retry.InitialInterval)
}

func TestLoadSettingsFromFile(t *testing.T) {
	path := writeFile(t, "drdb.yaml", `
secret_store:
  type: vault
  vault:
    address: http://127.0.0.1:8200
    mount: kv
database:
  sslmode: disable
  connect_timeout: 3s
  retry:
    max_retries: 5
log:
  format: json
`)

	settings, err := LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, StoreVault, settings.SecretStore.Type)
	assert.Equal(t, "http://127.0.0.1:8200", settings.SecretStore.Vault.Address)
	assert.Equal(t, "kv", settings.SecretStore.Vault.Mount)
	// Untouched keys keep their defaults.
	assert.Equal(t, "drdb", settings.SecretStore.Vault.PathPrefix)
	assert.Equal(t, "value", settings.SecretStore.Vault.Field)
	assert.Equal(t, "disable", settings.Database.SSLMode)
	assert.Equal(t, 3*time.Second, settings.Database.ConnectTimeout)
	assert.Equal(t, 5, settings.Database.Retry.MaxRetries)
	assert.Equal(t, 2.0, settings.Database.Retry.Multiplier)
	assert.Equal(t, "json", settings.Log.Format)
}

func TestLoadSettingsEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "drdb.yaml", `
secret_store:
  type: aws.secretsmanager
  aws:
    region: eu-west-1
`)
	t.Setenv("DRDB_SECRET_STORE__AWS__REGION", "us-east-2")
	t.Setenv("DRDB_DATABASE__SSLMODE", "verify-full")
	t.Setenv("DRDB_DATABASE__RETRY__MAX_RETRIES", "0")

	settings, err := LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, "us-east-2", settings.SecretStore.AWS.Region)
	assert.Equal(t, "verify-full", settings.Database.SSLMode)
	assert.Equal(t, 0, settings.Database.Retry.MaxRetries)
}

func TestLoadSettingsErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadSettings(filepath.Join(t.TempDir(), "nope.yaml"))

		var userErr dserrors.UserError
		require.ErrorAs(t, err, &userErr)
		assert.Contains(t, userErr.Message, "not found")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeFile(t, "bad.yaml", "secret_store: [unterminated")

		_, err := LoadSettings(path)

		var userErr dserrors.UserError
		require.ErrorAs(t, err, &userErr)
		assert.Contains(t, userErr.Message, "Invalid YAML")
	})
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(s *Settings)
		wantField string
	}{
		{
			name:   "defaults are valid",
			mutate: func(s *Settings) {},
		},
		{
			name:      "unknown store type",
			mutate:    func(s *Settings) { s.SecretStore.Type = "onepassword" },
			wantField: "secret_store.type",
		},
		{
			name:      "empty store type",
			mutate:    func(s *Settings) { s.SecretStore.Type = "" },
			wantField: "secret_store.type",
		},
		{
			name:      "bad sslmode",
			mutate:    func(s *Settings) { s.Database.SSLMode = "sometimes" },
			wantField: "database.sslmode",
		},
		{
			name:      "negative retries",
			mutate:    func(s *Settings) { s.Database.Retry.MaxRetries = -1 },
			wantField: "database.retry.max_retries",
		},
		{
			name:      "multiplier below one",
			mutate:    func(s *Settings) { s.Database.Retry.Multiplier = 0.5 },
			wantField: "database.retry.multiplier",
		},
		{
			name: "azure needs a vault url",
			mutate: func(s *Settings) {
				s.SecretStore.Type = StoreAzureKeyVault
			},
			wantField: "secret_store.azure.vault_url",
		},
		{
			name: "azure with vault url",
			mutate: func(s *Settings) {
				s.SecretStore.Type = StoreAzureKeyVault
				s.SecretStore.Azure.VaultURL = "https://drdb.vault.azure.net/"
			},
		},
		{
			name: "gcp with project",
			mutate: func(s *Settings) {
				s.SecretStore.Type = StoreGCPSecretManager
				s.SecretStore.GCP.ProjectID = "orca-dr"
			},
		},
		{
			name: "vault needs a field",
			mutate: func(s *Settings) {
				s.SecretStore.Type = StoreVault
				s.SecretStore.Vault.Field = ""
			},
			wantField: "secret_store.vault.field",
		},
		{
			name:      "bad log format",
			mutate:    func(s *Settings) { s.Log.Format = "xml" },
			wantField: "log.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(&s)

			err := s.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var cfgErr dserrors.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantField, cfgErr.Field)
			assert.Contains(t, cfgErr.Suggestion, "DRDB_")
		})
	}
}

func TestSettingsValidateGCPProjectFromEnvironment(t *testing.T) {
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")
	s := Default()
	s.SecretStore.Type = StoreGCPSecretManager

	var cfgErr dserrors.ConfigError
	require.ErrorAs(t, s.Validate(), &cfgErr)
	assert.Equal(t, "secret_store.gcp.project_id", cfgErr.Field)

	t.Setenv("GOOGLE_CLOUD_PROJECT", "orca-dr")
	assert.NoError(t, s.Validate())
}

func TestValidateShowsNonCredentialValues(t *testing.T) {
	s := Default()
	s.SecretStore.Type = "onepassword"

	err := s.Validate()
	var cfgErr dserrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "secret_store.type", cfgErr.Field)
	assert.Equal(t, "onepassword", cfgErr.Value)
	assert.Contains(t, err.Error(), "(value: onepassword)")
}

func TestSensitiveField(t *testing.T) {
	assert.True(t, sensitiveField("secret_store.aws.secret_access_key"))
	assert.True(t, sensitiveField("secret_store.vault.token"))
	assert.False(t, sensitiveField("secret_store.type"))
	assert.False(t, sensitiveField("secret_store.aws.endpoint"))
	assert.False(t, sensitiveField("database.sslmode"))
}

func TestValidateHidesSecretValues(t *testing.T) {
	s := Default()
	s.SecretStore.AWS.Endpoint = "not a url"
	s.SecretStore.AWS.SecretAccessKey = "AKIA-super-secret"

	err := s.Validate()
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "AKIA-super-secret")
	assert.Contains(t, err.Error(), "secret_store.aws.endpoint")
}

func TestConfigLoadEnvFile(t *testing.T) {
	path := writeFile(t, ".env", "DRDB_TEST_ENVFILE_MARKER=loaded\nDRDB_LOG__FORMAT=json\n")
	t.Setenv("DRDB_TEST_ENVFILE_MARKER", "")
	require.NoError(t, os.Unsetenv("DRDB_TEST_ENVFILE_MARKER"))
	t.Setenv("DRDB_LOG__FORMAT", "")
	require.NoError(t, os.Unsetenv("DRDB_LOG__FORMAT"))

	cfg := &Config{EnvFile: path}
	require.NoError(t, cfg.Load())

	assert.Equal(t, "loaded", os.Getenv("DRDB_TEST_ENVFILE_MARKER"))
	assert.Equal(t, "json", cfg.Settings.Log.Format)
	assert.NotNil(t, cfg.Logger)
}

func TestConfigLoadMissingEnvFile(t *testing.T) {
	cfg := &Config{EnvFile: filepath.Join(t.TempDir(), "missing.env")}

	err := cfg.Load()
	var userErr dserrors.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, userErr.Suggestion, "--env-file")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestConfigLoadAppliesLogSettings(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "drdb.log")
	path := writeFile(t, "drdb.yaml", "log:\n  format: json\n  file: "+logFile+"\n")

	tests := []struct {
		name     string
		flags    logging.Options
		wantFile string
	}{
		{name: "settings fill empty flags", wantFile: logFile},
		{name: "flags win", flags: logging.Options{File: "/tmp/flag.log"}, wantFile: "/tmp/flag.log"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Path: path, LogOptions: tt.flags}
			require.NoError(t, cfg.Load())

			assert.Equal(t, "json", cfg.LogOptions.Format)
			assert.Equal(t, tt.wantFile, cfg.LogOptions.File)
		})
	}
}

func TestConfigLoadAppliesLogLevel(t *testing.T) {
	path := writeFile(t, "drdb.yaml", "log:\n  level: debug\n")

	cfg := &Config{Path: path}
	require.NoError(t, cfg.Load())
	assert.Equal(t, "debug", cfg.Settings.Log.Level)
	assert.Equal(t, "debug", cfg.LogOptions.Level)

	cfg = &Config{Path: path, LogOptions: logging.Options{Level: "error"}}
	require.NoError(t, cfg.Load())
	assert.Equal(t, "error", cfg.LogOptions.Level)

	_, err := LoadSettings(writeFile(t, "bad.yaml", "log:\n  level: loud\n"))
	var cfgErr dserrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "log.level", cfgErr.Field)
}

func TestConfigLoadKeepsLoggerWithoutLogSettings(t *testing.T) {
	logger := logging.Nop()
	cfg := &Config{Logger: logger}
	require.NoError(t, cfg.Load())

	assert.Same(t, logger, cfg.Logger)
	assert.Empty(t, cfg.LogOptions.File)
}

func TestConfigLookup(t *testing.T) {
	cfg := &Config{}
	t.Setenv("DRDB_TEST_LOOKUP", "from-os")
	v, ok := cfg.Lookup().LookupEnv("DRDB_TEST_LOOKUP")
	assert.True(t, ok)
	assert.Equal(t, "from-os", v)

	cfg.Env = environ.Map(nil)
	v, ok = cfg.Lookup().LookupEnv("DRDB_TEST_LOOKUP")
	assert.True(t, ok, "a nil Map falls back to the process environment")
	assert.Equal(t, "from-os", v)

	cfg.Env = environ.Map{"PREFIX": "orcatest"}
	v, ok = cfg.Lookup().LookupEnv("PREFIX")
	assert.True(t, ok)
	assert.Equal(t, "orcatest", v)
	_, ok = cfg.Lookup().LookupEnv("DRDB_TEST_LOOKUP")
	assert.False(t, ok)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "secret_store.type", envKey("DRDB_SECRET_STORE__TYPE"))
	assert.Equal(t, "database.retry.max_retries", envKey("DRDB_DATABASE__RETRY__MAX_RETRIES"))
	assert.Equal(t, "DATABASE__SSLMODE", envName("database.sslmode"))
}
