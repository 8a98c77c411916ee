package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/systmms/drdb/internal/config"
	"github.com/systmms/drdb/internal/database"
	dserrors "github.com/systmms/drdb/internal/errors"
	"github.com/systmms/drdb/internal/metrics"
	"github.com/systmms/drdb/internal/providers"
	"github.com/systmms/drdb/internal/resolve"
	"github.com/systmms/drdb/pkg/provider"
)

// Replaced in tests.
var (
	sqlFactory  = database.SQLFactory
	poolFactory = database.PoolFactory
)

// session is the state one command invocation works with.
type session struct {
	cfg      *config.Config
	metrics  *metrics.Metrics
	store    provider.Provider
	secrets  provider.Provider
	resolver *resolve.Resolver
}

// newSession loads the settings and builds the instrumented secret store and
// resolver. Callers must defer close.
func newSession(cfg *config.Config) (*session, error) {
	if err := cfg.Load(); err != nil {
		return nil, err
	}

	store := cfg.SecretProvider
	if store == nil {
		var err error
		store, err = providers.NewRegistry().CreateProvider(cfg.Settings.SecretStore)
		if err != nil {
			return nil, dserrors.UserError{
				Message:    fmt.Sprintf("Failed to initialize secret store %s", cfg.Settings.SecretStore.Type),
				Details:    err.Error(),
				Suggestion: "Check the secret_store section of the settings file",
				Err:        err,
			}
		}
	}

	m := metrics.New()
	secrets := metrics.InstrumentProvider(store, m, cfg.Logger)
	return &session{
		cfg:      cfg,
		metrics:  m,
		store:    store,
		secrets:  secrets,
		resolver: resolve.NewResolver(cfg.Lookup(), secrets),
	}, nil
}

// configuration resolves the record and explains failures to the operator.
func (s *session) configuration(ctx context.Context) (resolve.Configuration, error) {
	c, err := s.resolver.GetConfiguration(ctx)
	s.metrics.RecordResolution(err)
	if err != nil {
		s.cfg.Logger.Debug("Configuration resolution failed", "kind", dserrors.KindOf(err))
		return resolve.Configuration{}, dserrors.Explain(err)
	}
	return c, nil
}

func (s *session) databaseOptions() database.Options {
	return database.OptionsFromSettings(s.cfg.Settings.Database)
}

// close writes the metrics textfile and releases the secret store.
func (s *session) close() {
	if s.cfg.MetricsTextfile != "" {
		if err := s.metrics.WriteTextfile(s.cfg.MetricsTextfile); err != nil {
			s.cfg.Logger.Warn("Failed to write metrics textfile", "error", err)
		}
	}
	if closer, ok := s.store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			s.cfg.Logger.Debug("Failed to close secret store client", "error", err)
		}
	}
}
