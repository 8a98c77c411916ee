package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	dserrors "github.com/systmms/drdb/internal/errors"
)

// Secret store types understood by internal/providers.
const (
	StoreAWSSecretsManager = "aws.secretsmanager"
	StoreAWSSSM            = "aws.ssm"
	StoreGCPSecretManager  = "gcp.secretmanager"
	StoreAzureKeyVault     = "azure.keyvault"
	StoreVault             = "vault"
	StoreKeyring           = "keyring"
)

// Settings is the decoded settings tree.
type Settings struct {
	SecretStore SecretStore `koanf:"secret_store"`
	Database    Database    `koanf:"database"`
	Log         Log         `koanf:"log"`
}

// SecretStore selects and configures the backend holding the drdb secrets.
type SecretStore struct {
	Type    string          `koanf:"type" validate:"required,oneof=aws.secretsmanager aws.ssm gcp.secretmanager azure.keyvault vault keyring"`
	AWS     AWSSettings     `koanf:"aws"`
	SSM     SSMSettings     `koanf:"ssm"`
	GCP     GCPSettings     `koanf:"gcp"`
	Azure   AzureSettings   `koanf:"azure"`
	Vault   VaultSettings   `koanf:"vault"`
	Keyring KeyringSettings `koanf:"keyring"`
}

// AWSSettings apply to both AWS backends. Empty values fall back to the SDK's
// default credential and region chain (AWS_REGION, profiles, IAM roles).
type AWSSettings struct {
	Region          string `koanf:"region"`
	Endpoint        string `koanf:"endpoint" validate:"omitempty,url"`
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
}

type SSMSettings struct {
	// PathPrefix is prepended to every secret identifier, e.g. "/drdb/".
	PathPrefix     string `koanf:"path_prefix"`
	WithDecryption bool   `koanf:"with_decryption"`
}

type GCPSettings struct {
	ProjectID       string `koanf:"project_id"`
	CredentialsFile string `koanf:"credentials_file" validate:"omitempty,file"`
}

type AzureSettings struct {
	VaultURL string `koanf:"vault_url" validate:"omitempty,url"`
	// ManagedIdentityClientID selects a user-assigned managed identity.
	ManagedIdentityClientID string `koanf:"managed_identity_client_id"`
}

type VaultSettings struct {
	// Address overrides VAULT_ADDR.
	Address    string `koanf:"address" validate:"omitempty,url"`
	Token      string `koanf:"token"`
	Mount      string `koanf:"mount"`
	PathPrefix string `koanf:"path_prefix"`
	Field      string `koanf:"field"`
}

type KeyringSettings struct {
	Service string `koanf:"service"`
}

// Database tunes the concrete connection factories.
type Database struct {
	SSLMode         string        `koanf:"sslmode" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout" validate:"gte=0"`
	ApplicationName string        `koanf:"application_name"`
	Retry           Retry         `koanf:"retry"`
}

// Retry mirrors database.RetryPolicy.
type Retry struct {
	MaxRetries      int           `koanf:"max_retries" validate:"gte=0,lte=10"`
	InitialInterval time.Duration `koanf:"initial_interval" validate:"gt=0"`
	Multiplier      float64       `koanf:"multiplier" validate:"gte=1"`
}

type Log struct {
	// Level is the minimum level logged; --debug always lowers it to debug.
	Level  string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=console json"`
	File   string `koanf:"file"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		SecretStore: SecretStore{
			Type: StoreAWSSecretsManager,
			SSM: SSMSettings{
				WithDecryption: true,
			},
			Vault: VaultSettings{
				Mount:      "secret",
				PathPrefix: "drdb",
				Field:      "value",
			},
			Keyring: KeyringSettings{
				Service: "drdb",
			},
		},
		Database: Database{
			SSLMode:         "require",
			ConnectTimeout:  10 * time.Second,
			ApplicationName: "drdb",
			Retry: Retry{
				MaxRetries:      3,
				InitialInterval: time.Second,
				Multiplier:      2,
			},
		},
		Log: Log{
			Level:  "info",
			Format: "console",
		},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report koanf key names so errors match what users typed.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("koanf"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterStructValidation(validateSecretStore, SecretStore{})
	return v
}

// validateSecretStore enforces settings that only matter for one store type.
func validateSecretStore(sl validator.StructLevel) {
	s := sl.Current().Interface().(SecretStore)

	switch s.Type {
	case StoreGCPSecretManager:
		if s.GCP.ProjectID == "" && os.Getenv("GOOGLE_CLOUD_PROJECT") == "" {
			sl.ReportError(s.GCP.ProjectID, "gcp.project_id", "ProjectID", "required_for_store", s.Type)
		}
	case StoreAzureKeyVault:
		if s.Azure.VaultURL == "" {
			sl.ReportError(s.Azure.VaultURL, "azure.vault_url", "VaultURL", "required_for_store", s.Type)
		}
	case StoreVault:
		if s.Vault.Field == "" {
			sl.ReportError(s.Vault.Field, "vault.field", "Field", "required_for_store", s.Type)
		}
	}
}

// Validate checks the settings and returns a ConfigError for the first problem.
func (s *Settings) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("failed to validate settings: %w", err)
	}

	fe := verrs[0]
	field := strings.TrimPrefix(fe.Namespace(), "Settings.")

	msg := fmt.Sprintf("failed %q validation", fe.Tag())
	if fe.Param() != "" {
		msg = fmt.Sprintf("failed %q validation (%s)", fe.Tag(), fe.Param())
	}

	var value interface{}
	if !sensitiveField(field) {
		value = fe.Value()
	}

	return dserrors.ConfigError{
		Field:      field,
		Value:      value,
		Message:    msg,
		Suggestion: fmt.Sprintf("Fix %s in the settings file or set %s%s", field, EnvPrefix, envName(field)),
	}
}

// sensitiveField reports whether the setting at key holds a credential whose
// value must not be echoed back.
func sensitiveField(key string) bool {
	leaf := key[strings.LastIndex(key, ".")+1:]
	switch leaf {
	case "secret_access_key", "token":
		return true
	}
	return strings.Contains(leaf, "password")
}

// envName is the inverse of envKey: secret_store.type → SECRET_STORE__TYPE.
func envName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "__"))
}
