package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq" // registers the "postgres" driver
	"github.com/systmms/drdb/internal/logging"
	"github.com/systmms/drdb/internal/resolve"
)

// DriverName is the database/sql driver SQLFactory opens.
const DriverName = "postgres"

// sqlOpen is swapped for sqlmock in tests.
var sqlOpen = sql.Open

// SQLFactory returns a ConnectionFactory that opens a lib/pq *sql.DB and
// pings it under opts.Retry. The handle is closed when the ping never
// succeeds.
func SQLFactory(opts Options, log *logging.Logger) resolve.ConnectionFactory[*sql.DB] {
	if log == nil {
		log = logging.Nop()
	}

	return func(ctx context.Context, params resolve.ConnectionParameters) (*sql.DB, error) {
		log.Debug("Opening database connection", "params", params.String())

		db, err := sqlOpen(DriverName, DSN(params, opts))
		if err != nil {
			return nil, fmt.Errorf("failed to open database connection: %w", err)
		}

		err = Retry(ctx, opts.Retry, log, func(ctx context.Context) error {
			return db.PingContext(ctx)
		})
		if err != nil {
			_ = db.Close()
			log.Error("Failed to connect to database",
				"host", params.Host,
				"port", params.Port,
				"database", params.Database,
				"error", err)
			return nil, fmt.Errorf("failed to connect to database %s on %s:%s: %w",
				params.Database, params.Host, params.Port, err)
		}

		return db, nil
	}
}

// Pool sizing for short-lived commands such as ping --driver pgx.
const (
	poolMaxConns          = 4
	poolMaxConnLifetime   = time.Hour
	poolMaxConnIdleTime   = 5 * time.Minute
	poolHealthCheckPeriod = time.Minute
)

// PoolFactory returns a ConnectionFactory that opens a pgx pool and waits
// for one successful ping under opts.Retry.
func PoolFactory(opts Options, log *logging.Logger) resolve.ConnectionFactory[*pgxpool.Pool] {
	if log == nil {
		log = logging.Nop()
	}

	return func(ctx context.Context, params resolve.ConnectionParameters) (*pgxpool.Pool, error) {
		poolConfig, err := pgxpool.ParseConfig(DSN(params, opts))
		if err != nil {
			// pgx echoes the connection string in parse errors.
			log.Error("Failed to parse connection string", "host", params.Host)
			return nil, fmt.Errorf("failed to parse connection string for %s:%s", params.Host, params.Port)
		}

		poolConfig.MaxConns = poolMaxConns
		poolConfig.MaxConnLifetime = poolMaxConnLifetime
		poolConfig.MaxConnIdleTime = poolMaxConnIdleTime
		poolConfig.HealthCheckPeriod = poolHealthCheckPeriod
		if opts.ApplicationName != "" {
			poolConfig.ConnConfig.RuntimeParams["application_name"] = opts.ApplicationName
		}

		var pool *pgxpool.Pool
		err = Retry(ctx, opts.Retry, log, func(ctx context.Context) error {
			p, err := pgxpool.NewWithConfig(ctx, poolConfig)
			if err != nil {
				return err
			}
			if err := p.Ping(ctx); err != nil {
				p.Close()
				return err
			}
			pool = p
			return nil
		})
		if err != nil {
			log.Error("Failed to create connection pool",
				"host", params.Host,
				"port", params.Port,
				"database", params.Database,
				"error", err)
			return nil, fmt.Errorf("failed to connect to database %s on %s:%s: %w",
				params.Database, params.Host, params.Port, err)
		}

		log.Debug("Connection pool ready", "host", params.Host, "database", params.Database)
		return pool, nil
	}
}
