package resolve

import (
	"fmt"

	"github.com/systmms/drdb/internal/logging"
)

// Required environment variables besides PREFIX, in resolution order.
const (
	EnvDatabaseName    = "DATABASE_NAME"
	EnvDatabasePort    = "DATABASE_PORT"
	EnvApplicationUser = "APPLICATION_USER"
	EnvRootUser        = "ROOT_USER"
	EnvRootDatabase    = "ROOT_DATABASE"
)

// RequiredVariables lists every environment variable the resolver reads,
// PREFIX first.
var RequiredVariables = []string{
	"PREFIX",
	EnvDatabaseName,
	EnvDatabasePort,
	EnvApplicationUser,
	EnvRootUser,
	EnvRootDatabase,
}

// Configuration is the fully resolved set of database settings. Every field
// is non-blank; a Configuration is never returned partially filled.
type Configuration struct {
	Host             string `json:"host" yaml:"host"`
	Port             string `json:"port" yaml:"port"`
	Database         string `json:"database" yaml:"database"`
	RootDatabase     string `json:"root_database" yaml:"root_database"`
	AppUser          string `json:"app_user" yaml:"app_user"`
	RootUser         string `json:"root_user" yaml:"root_user"`
	AppUserPassword  string `json:"app_user_password" yaml:"app_user_password"`
	RootUserPassword string `json:"root_user_password" yaml:"root_user_password"`
}

// Redacted returns a copy with both passwords replaced, for display.
func (c Configuration) Redacted() Configuration {
	c.AppUserPassword = logging.Secret(c.AppUserPassword).String()
	c.RootUserPassword = logging.Secret(c.RootUserPassword).String()
	return c
}

// String keeps passwords out of %v and %s output.
func (c Configuration) String() string {
	r := c.Redacted()
	return fmt.Sprintf("{host=%s port=%s database=%s root_database=%s app_user=%s root_user=%s app_user_password=%s root_user_password=%s}",
		r.Host, r.Port, r.Database, r.RootDatabase, r.AppUser, r.RootUser, r.AppUserPassword, r.RootUserPassword)
}

// SecretNames holds the secret identifiers derived from a prefix.
type SecretNames struct {
	Host            string
	AdminPassword   string
	AppUserPassword string
}

// SecretIDs derives the three secret identifiers for prefix.
func SecretIDs(prefix string) SecretNames {
	return SecretNames{
		Host:            prefix + "-drdb-host",
		AdminPassword:   prefix + "-drdb-admin-pass",
		AppUserPassword: prefix + "-drdb-user-pass",
	}
}

// All returns the identifiers in lookup order.
func (s SecretNames) All() []string {
	return []string{s.Host, s.AdminPassword, s.AppUserPassword}
}
