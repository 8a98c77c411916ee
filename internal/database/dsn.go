// Package database opens PostgreSQL connections from resolved connection
// parameters. It provides the two concrete ConnectionFactory implementations
// used by the CLI: a database/sql handle backed by lib/pq and a pgx pool.
package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/systmms/drdb/internal/config"
	"github.com/systmms/drdb/internal/resolve"
)

// Options are the connection settings that do not come from the resolved
// configuration record.
type Options struct {
	// SSLMode defaults to "require".
	SSLMode         string
	ConnectTimeout  time.Duration
	ApplicationName string
	Retry           RetryPolicy
}

// OptionsFromSettings maps the database section of the settings file.
func OptionsFromSettings(s config.Database) Options {
	return Options{
		SSLMode:         s.SSLMode,
		ConnectTimeout:  s.ConnectTimeout,
		ApplicationName: s.ApplicationName,
		Retry: RetryPolicy{
			MaxRetries:      s.Retry.MaxRetries,
			InitialInterval: s.Retry.InitialInterval,
			Multiplier:      s.Retry.Multiplier,
		},
	}
}

// DSN builds a libpq keyword/value connection string. Both lib/pq and pgx
// accept it.
func DSN(params resolve.ConnectionParameters, opts Options) string {
	sslMode := opts.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	parts := []string{
		"host=" + quoteValue(params.Host),
		"port=" + quoteValue(params.Port),
		"dbname=" + quoteValue(params.Database),
		"user=" + quoteValue(params.User),
		"password=" + quoteValue(params.Password),
		"sslmode=" + quoteValue(sslMode),
	}

	if opts.ConnectTimeout > 0 {
		// libpq only takes whole seconds; round up so 500ms is not "0" (wait forever).
		seconds := int((opts.ConnectTimeout + time.Second - 1) / time.Second)
		parts = append(parts, fmt.Sprintf("connect_timeout=%d", seconds))
	}
	if opts.ApplicationName != "" {
		parts = append(parts, "application_name="+quoteValue(opts.ApplicationName))
	}

	return strings.Join(parts, " ")
}

// quoteValue single-quotes a value when libpq would otherwise misparse it.
func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, " \t\n\r'\\=") {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}
