// Package provision creates the application database, its roles and schema,
// and the application login user from a resolved configuration.
package provision

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/systmms/drdb/internal/logging"
	"github.com/systmms/drdb/internal/resolve"
)

const (
	// SchemaName is the schema that owns application objects.
	SchemaName = "drdb"
	// OwnerRole owns the schema and its objects.
	OwnerRole = "drdb_dbo"
	// AppRole carries the application user's privileges.
	AppRole = "drdb_app"

	databaseComment = "drdb application database"
)

// statement is one step of the install. desc is safe to log, query may hold
// a password.
type statement struct {
	desc  string
	query string
}

// Installer provisions a database through root connections opened by its
// factory.
type Installer struct {
	open resolve.ConnectionFactory[*sql.DB]
	log  *logging.Logger
}

// NewInstaller returns an Installer that opens connections with factory.
func NewInstaller(factory resolve.ConnectionFactory[*sql.DB], log *logging.Logger) *Installer {
	if log == nil {
		log = logging.Nop()
	}
	return &Installer{open: factory, log: log}
}

// Install creates cfg.Database if it is missing, then its roles, schema and
// application user. Running it again against a provisioned database only
// resets the application user's password.
func (i *Installer) Install(ctx context.Context, cfg resolve.Configuration) error {
	if _, err := i.CreateDatabase(ctx, cfg); err != nil {
		return err
	}
	return i.CreateSchema(ctx, cfg)
}

// CreateDatabase connects to the root database and creates cfg.Database when
// pg_database has no row for it. It reports whether the database was created.
func (i *Installer) CreateDatabase(ctx context.Context, cfg resolve.Configuration) (bool, error) {
	db, err := resolve.RootConnection(ctx, cfg, i.open, "")
	if err != nil {
		return false, err
	}
	defer db.Close()

	var exists bool
	err = db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", cfg.Database).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to look up database %s: %w", cfg.Database, err)
	}
	if exists {
		i.log.Info("Database already exists", "database", cfg.Database)
		return false, nil
	}

	// CREATE DATABASE cannot run inside a transaction block.
	ident := pq.QuoteIdentifier(cfg.Database)
	if _, err := db.ExecContext(ctx, "CREATE DATABASE "+ident); err != nil {
		return false, fmt.Errorf("failed to create database %s: %w", cfg.Database, err)
	}
	if _, err := db.ExecContext(ctx, "COMMENT ON DATABASE "+ident+" IS "+pq.QuoteLiteral(databaseComment)); err != nil {
		return true, fmt.Errorf("failed to comment on database %s: %w", cfg.Database, err)
	}

	i.log.Info("Database created", "database", cfg.Database)
	return true, nil
}

// CreateSchema connects to cfg.Database with the root credentials and, in
// one transaction, creates the roles, schema, grants and application user.
func (i *Installer) CreateSchema(ctx context.Context, cfg resolve.Configuration) error {
	db, err := resolve.RootConnection(ctx, cfg, i.open, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin install transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var steps []statement
	for _, role := range []string{OwnerRole, AppRole} {
		exists, err := roleExists(ctx, tx, role)
		if err != nil {
			return err
		}
		if !exists {
			steps = append(steps, statement{"create role " + role, "CREATE ROLE " + pq.QuoteIdentifier(role) + " NOLOGIN INHERIT"})
		}
	}
	steps = append(steps, databaseGrants(cfg)...)

	userExists, err := roleExists(ctx, tx, cfg.AppUser)
	if err != nil {
		return err
	}
	steps = append(steps, userStatements(cfg, userExists)...)
	steps = append(steps, schemaStatements()...)

	for _, s := range steps {
		i.log.Debug("Provisioning", "step", s.desc)
		if _, err := tx.ExecContext(ctx, s.query); err != nil {
			return fmt.Errorf("failed to %s: %w", s.desc, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit install transaction: %w", err)
	}

	i.log.Info("Database provisioned",
		"database", cfg.Database,
		"schema", SchemaName,
		"app_user", cfg.AppUser)
	return nil
}

func roleExists(ctx context.Context, tx *sql.Tx, role string) (bool, error) {
	var exists bool
	err := tx.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM pg_roles WHERE rolname = $1)", role).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to look up role %s: %w", role, err)
	}
	return exists, nil
}

func databaseGrants(cfg resolve.Configuration) []statement {
	db := pq.QuoteIdentifier(cfg.Database)
	owner := pq.QuoteIdentifier(OwnerRole)

	return []statement{
		{"grant " + OwnerRole + " to " + cfg.RootUser, "GRANT " + owner + " TO " + pq.QuoteIdentifier(cfg.RootUser)},
		{"grant database privileges to " + OwnerRole, "GRANT CONNECT, CREATE ON DATABASE " + db + " TO " + owner},
		{"grant connect to " + AppRole, "GRANT CONNECT ON DATABASE " + db + " TO " + pq.QuoteIdentifier(AppRole)},
	}
}

// schemaStatements run as OwnerRole until the transaction ends, so the
// schema and the default privileges belong to it rather than to root.
func schemaStatements() []statement {
	schema := pq.QuoteIdentifier(SchemaName)
	owner := pq.QuoteIdentifier(OwnerRole)
	app := pq.QuoteIdentifier(AppRole)

	return []statement{
		{"set role " + OwnerRole, "SET LOCAL ROLE " + owner},
		{"set search path", "SET LOCAL search_path TO " + schema + ", public"},
		{"create schema " + SchemaName, "CREATE SCHEMA IF NOT EXISTS " + schema + " AUTHORIZATION " + owner},
		{"grant schema usage to " + AppRole, "GRANT USAGE ON SCHEMA " + schema + " TO " + app},
		{"grant table privileges to " + AppRole,
			"ALTER DEFAULT PRIVILEGES FOR ROLE " + owner + " IN SCHEMA " + schema + " GRANT SELECT, INSERT, UPDATE, DELETE ON TABLES TO " + app},
		{"grant sequence privileges to " + AppRole,
			"ALTER DEFAULT PRIVILEGES FOR ROLE " + owner + " IN SCHEMA " + schema + " GRANT USAGE, SELECT ON SEQUENCES TO " + app},
	}
}

func userStatements(cfg resolve.Configuration, exists bool) []statement {
	user := pq.QuoteIdentifier(cfg.AppUser)
	password := pq.QuoteLiteral(cfg.AppUserPassword)

	var steps []statement
	if exists {
		steps = append(steps,
			statement{"update application user " + cfg.AppUser, "ALTER ROLE " + user + " WITH LOGIN PASSWORD " + password},
			statement{"grant " + AppRole + " to " + cfg.AppUser, "GRANT " + pq.QuoteIdentifier(AppRole) + " TO " + user},
		)
	} else {
		steps = append(steps, statement{"create application user " + cfg.AppUser,
			"CREATE ROLE " + user + " LOGIN INHERIT IN ROLE " + pq.QuoteIdentifier(AppRole) + " PASSWORD " + password})
	}
	return append(steps, statement{"set application user search path",
		"ALTER ROLE " + user + " SET search_path = " + pq.QuoteIdentifier(SchemaName) + ", public"})
}
