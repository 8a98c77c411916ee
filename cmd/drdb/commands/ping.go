package commands

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/systmms/drdb/internal/config"
	dserrors "github.com/systmms/drdb/internal/errors"
	"github.com/systmms/drdb/internal/metrics"
	"github.com/systmms/drdb/internal/resolve"
)

const (
	driverSQL = "sql"
	driverPgx = "pgx"
)

func NewPingCommand(cfg *config.Config) *cobra.Command {
	var (
		role   string
		dbName string
		driver string
	)

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Open a database connection with the resolved credentials",
		Long: `Resolve the configuration, connect with the root or application
credentials and report the server version.

Operational errors (server starting up, connection refused, too many
connections) are retried with backoff as set in the database.retry settings.

Examples:
  # Check the root credentials against ROOT_DATABASE
  drdb ping

  # Check the application credentials against DATABASE_NAME
  drdb ping --role app

  # Check that root can reach the application database
  drdb ping --role root --database disaster_recovery

  # Connect through a pgx pool instead of database/sql
  drdb ping --driver pgx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := resolve.Role(role)
			if r != resolve.RoleRoot && r != resolve.RoleApp {
				return dserrors.UserError{
					Message:    fmt.Sprintf("Unknown role %q", role),
					Suggestion: "Use --role root or --role app",
				}
			}
			if driver != driverSQL && driver != driverPgx {
				return dserrors.UserError{
					Message:    fmt.Sprintf("Unknown driver %q", driver),
					Suggestion: "Use --driver sql or --driver pgx",
				}
			}

			s, err := newSession(cfg)
			if err != nil {
				return err
			}
			defer s.close()

			ctx := cmd.Context()
			c, err := s.configuration(ctx)
			if err != nil {
				return err
			}

			var version string
			if driver == driverPgx {
				factory := metrics.InstrumentFactory(poolFactory(s.databaseOptions(), cfg.Logger), r, s.metrics)
				version, err = pingPool(ctx, factory, r, c, dbName)
			} else {
				factory := metrics.InstrumentFactory(sqlFactory(s.databaseOptions(), cfg.Logger), r, s.metrics)
				version, err = pingSQL(ctx, factory, r, c, dbName)
			}
			if err != nil {
				return err
			}

			params, _ := resolve.ParametersFor(r, c, dbName)
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Connected to %s on %s:%s as %s (PostgreSQL %s)\n",
				params.Database, params.Host, params.Port, params.User, version)
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", string(resolve.RoleRoot), "Credentials to use (root, app)")
	cmd.Flags().StringVar(&driver, "driver", driverSQL, "Connection driver (sql for lib/pq, pgx for a pgx pool)")
	cmd.Flags().StringVar(&dbName, "database", "", "Database to connect to (default: ROOT_DATABASE for root, DATABASE_NAME for app)")

	return cmd
}

func connect[C any](ctx context.Context, factory resolve.ConnectionFactory[C], r resolve.Role, c resolve.Configuration, dbName string) (C, error) {
	if r == resolve.RoleRoot {
		return resolve.RootConnection(ctx, c, factory, dbName)
	}
	return resolve.AppConnection(ctx, c, factory, dbName)
}

func pingSQL(ctx context.Context, factory resolve.ConnectionFactory[*sql.DB], r resolve.Role, c resolve.Configuration, dbName string) (string, error) {
	db, err := connect(ctx, factory, r, c, dbName)
	if err != nil {
		return "", err
	}
	defer db.Close()

	var version string
	if err := db.QueryRowContext(ctx, "SHOW server_version").Scan(&version); err != nil {
		return "", fmt.Errorf("failed to query server version: %w", err)
	}
	return version, nil
}

func pingPool(ctx context.Context, factory resolve.ConnectionFactory[*pgxpool.Pool], r resolve.Role, c resolve.Configuration, dbName string) (string, error) {
	pool, err := connect(ctx, factory, r, c, dbName)
	if err != nil {
		return "", err
	}
	defer pool.Close()

	var version string
	if err := pool.QueryRow(ctx, "SHOW server_version").Scan(&version); err != nil {
		return "", fmt.Errorf("failed to query server version: %w", err)
	}
	return version, nil
}
