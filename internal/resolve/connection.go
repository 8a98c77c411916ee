package resolve

import (
	"context"
	"fmt"

	"github.com/systmms/drdb/internal/logging"
)

// Role selects which credentials a connection uses.
type Role string

const (
	RoleRoot Role = "root"
	RoleApp  Role = "app"
)

// ConnectionParameters is everything a ConnectionFactory receives.
type ConnectionParameters struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

// String keeps the password out of %v and %s output.
func (p ConnectionParameters) String() string {
	return fmt.Sprintf("host=%s port=%s database=%s user=%s password=%s",
		p.Host, p.Port, p.Database, p.User, logging.Secret(p.Password))
}

// ConnectionFactory opens a connection of type C. Factories own any network
// I/O and retry policy; see internal/database for the Postgres ones.
type ConnectionFactory[C any] func(ctx context.Context, params ConnectionParameters) (C, error)

// RootConnectionParameters targets targetDatabase, or cfg.RootDatabase when
// it is empty, always with the root credentials.
func RootConnectionParameters(cfg Configuration, targetDatabase string) ConnectionParameters {
	database := cfg.RootDatabase
	if targetDatabase != "" {
		database = targetDatabase
	}
	return ConnectionParameters{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Database: database,
		User:     cfg.RootUser,
		Password: cfg.RootUserPassword,
	}
}

// AppConnectionParameters targets targetDatabase, or cfg.Database when it is
// empty, always with the application credentials.
func AppConnectionParameters(cfg Configuration, targetDatabase string) ConnectionParameters {
	database := cfg.Database
	if targetDatabase != "" {
		database = targetDatabase
	}
	return ConnectionParameters{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Database: database,
		User:     cfg.AppUser,
		Password: cfg.AppUserPassword,
	}
}

// ParametersFor dispatches to the builder for role.
func ParametersFor(role Role, cfg Configuration, targetDatabase string) (ConnectionParameters, error) {
	switch role {
	case RoleRoot:
		return RootConnectionParameters(cfg, targetDatabase), nil
	case RoleApp:
		return AppConnectionParameters(cfg, targetDatabase), nil
	default:
		return ConnectionParameters{}, fmt.Errorf("unknown connection role %q (want %q or %q)", role, RoleRoot, RoleApp)
	}
}

// RootConnection calls factory once with the root parameters and returns its
// result unchanged.
func RootConnection[C any](ctx context.Context, cfg Configuration, factory ConnectionFactory[C], targetDatabase string) (C, error) {
	return factory(ctx, RootConnectionParameters(cfg, targetDatabase))
}

// AppConnection calls factory once with the application parameters and
// returns its result unchanged.
func AppConnection[C any](ctx context.Context, cfg Configuration, factory ConnectionFactory[C], targetDatabase string) (C, error) {
	return factory(ctx, AppConnectionParameters(cfg, targetDatabase))
}
