package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	dserrors "github.com/systmms/drdb/internal/errors"
	"github.com/systmms/drdb/internal/logging"
)

// RetryPolicy controls how operational errors are retried. MaxRetries counts
// retries after the first attempt.
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	Multiplier      float64
}

// DefaultRetryPolicy is 3 retries starting at one second and doubling.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, InitialInterval: time.Second, Multiplier: 2}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.Multiplier >= 1 {
		b.Multiplier = p.Multiplier
	}
	b.MaxElapsedTime = 0

	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// Retry runs op until it succeeds, returns a non-operational error, or the
// policy runs out of retries. The last error is returned unchanged.
func Retry(ctx context.Context, policy RetryPolicy, log *logging.Logger, op func(context.Context) error) error {
	if log == nil {
		log = logging.Nop()
	}

	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !IsOperational(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy.backOff(ctx), func(err error, wait time.Duration) {
		log.Error("Operational error, retrying",
			"attempt", attempt,
			"max_retries", policy.MaxRetries,
			"wait", wait,
			"error", err)
	})

	if err != nil && attempt > policy.MaxRetries && IsOperational(err) {
		log.Error("Retries exhausted", "attempts", attempt, "error", err)
	}
	return err
}

// IsOperational reports whether err is a connection-level or server-state
// failure worth retrying. SQL errors such as syntax or permission failures
// are not.
func IsOperational(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return operationalSQLState(string(pqErr.Code))
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return operationalSQLState(pgErr.Code)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	return dserrors.IsRetryable(err)
}

// operationalSQLState matches SQLSTATE classes that describe server or
// connection state rather than the statement itself.
func operationalSQLState(code string) bool {
	if len(code) < 2 {
		return false
	}
	switch code[:2] {
	case "08", // connection exception
		"40", // transaction rollback
		"53", // insufficient resources
		"54", // program limit exceeded
		"55", // object not in prerequisite state
		"57", // operator intervention
		"58": // system error
		return true
	}
	return strings.HasPrefix(code, "F0") || strings.HasPrefix(code, "HV")
}
