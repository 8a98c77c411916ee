package metrics

import (
	"context"
	"time"

	"github.com/systmms/drdb/internal/logging"
	"github.com/systmms/drdb/internal/resolve"
	"github.com/systmms/drdb/pkg/provider"
)

// instrumentedProvider records a lookup for every GetSecret call.
type instrumentedProvider struct {
	next    provider.Provider
	metrics *Metrics
	log     *logging.Logger
}

// InstrumentProvider wraps p so every lookup is counted and timed. Store
// errors are logged at debug level here because the resolver replaces them
// with a generic failure.
func InstrumentProvider(p provider.Provider, m *Metrics, log *logging.Logger) provider.Provider {
	if log == nil {
		log = logging.Nop()
	}
	return &instrumentedProvider{next: p, metrics: m, log: log}
}

func (p *instrumentedProvider) Name() string {
	return p.next.Name()
}

func (p *instrumentedProvider) GetSecret(ctx context.Context, secretID string) (string, error) {
	start := time.Now()
	value, err := p.next.GetSecret(ctx, secretID)
	elapsed := time.Since(start)

	p.metrics.RecordSecretLookup(p.next.Name(), err, elapsed.Seconds())
	if err != nil {
		p.log.Debug("Secret lookup failed",
			"provider", p.next.Name(),
			"secret_id", secretID,
			"outcome", Outcome(err),
			"error", err)
	} else {
		p.log.Debug("Secret lookup succeeded",
			"provider", p.next.Name(),
			"secret_id", secretID,
			"duration", elapsed)
	}
	return value, err
}

// Validate forwards to the wrapped provider when it supports validation.
func (p *instrumentedProvider) Validate(ctx context.Context) error {
	if v, ok := p.next.(provider.Validator); ok {
		return v.Validate(ctx)
	}
	return nil
}

// InstrumentFactory wraps factory so every call is counted under role.
func InstrumentFactory[C any](factory resolve.ConnectionFactory[C], role resolve.Role, m *Metrics) resolve.ConnectionFactory[C] {
	return func(ctx context.Context, params resolve.ConnectionParameters) (C, error) {
		conn, err := factory(ctx, params)
		m.RecordConnection(string(role), err)
		return conn, err
	}
}
