// Package resolve assembles the database Configuration from the process
// environment and the secret store, and derives connection parameters for
// the root and application roles.
//
// The package does no logging and no retrying. Errors are returned exactly as
// described in internal/errors so callers can map them to their own output.
package resolve

import (
	"context"
	"strings"

	"github.com/systmms/drdb/internal/environ"
	dserrors "github.com/systmms/drdb/internal/errors"
	"github.com/systmms/drdb/pkg/provider"
)

// Resolver reads a fresh Configuration on every call. It holds no state
// besides its two lookups.
type Resolver struct {
	env     environ.Lookup
	secrets provider.Provider
}

// NewResolver returns a Resolver reading variables from env and secrets from secrets.
func NewResolver(env environ.Lookup, secrets provider.Provider) *Resolver {
	return &Resolver{
		env:     env,
		secrets: secrets,
	}
}

// GetConfiguration resolves PREFIX, the five required variables and the
// three prefixed secrets, in that order, stopping at the first failure.
func (r *Resolver) GetConfiguration(ctx context.Context) (Configuration, error) {
	prefix, err := environ.RequirePrefix(r.env)
	if err != nil {
		return Configuration{}, err
	}

	var cfg Configuration

	variables := []struct {
		name string
		dst  *string
	}{
		{EnvDatabaseName, &cfg.Database},
		{EnvDatabasePort, &cfg.Port},
		{EnvApplicationUser, &cfg.AppUser},
		{EnvRootUser, &cfg.RootUser},
		{EnvRootDatabase, &cfg.RootDatabase},
	}
	for _, v := range variables {
		value, err := environ.Require(r.env, v.name)
		if err != nil {
			return Configuration{}, err
		}
		*v.dst = value
	}

	ids := SecretIDs(prefix)
	secrets := []struct {
		id  string
		dst *string
	}{
		{ids.Host, &cfg.Host},
		{ids.AdminPassword, &cfg.RootUserPassword},
		{ids.AppUserPassword, &cfg.AppUserPassword},
	}
	for _, s := range secrets {
		value, err := r.secret(ctx, s.id)
		if err != nil {
			return Configuration{}, err
		}
		*s.dst = value
	}

	return cfg, nil
}

// secret reads one secret. Every failure, including a blank value, becomes a
// SecretRetrievalError that does not carry the store's error.
func (r *Resolver) secret(ctx context.Context, id string) (string, error) {
	value, err := r.secrets.GetSecret(ctx, id)
	if err != nil || strings.TrimSpace(value) == "" {
		return "", &dserrors.SecretRetrievalError{SecretID: id}
	}
	return value, nil
}
