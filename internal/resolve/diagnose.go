package resolve

import (
	"context"
	"errors"
	"strings"

	"github.com/systmms/drdb/internal/environ"
)

var errBlankSecret = errors.New("secret value is blank")

// SecretStatus is the outcome of reading one secret. Err is the store's own
// error, kept for operators running diagnostics.
type SecretStatus struct {
	ID  string
	Err error
}

// Diagnosis reports every problem GetConfiguration could hit instead of
// stopping at the first one.
type Diagnosis struct {
	Prefix           string
	MissingVariables []string
	// Secrets is empty when PREFIX is missing.
	Secrets []SecretStatus
}

// OK reports whether GetConfiguration would succeed.
func (d Diagnosis) OK() bool {
	if len(d.MissingVariables) > 0 {
		return false
	}
	for _, s := range d.Secrets {
		if s.Err != nil {
			return false
		}
	}
	return true
}

// Diagnose checks every required variable and, when PREFIX is set, reads
// every secret.
func (r *Resolver) Diagnose(ctx context.Context) Diagnosis {
	d := Diagnosis{
		MissingVariables: environ.Missing(r.env, RequiredVariables...),
	}

	prefix, err := environ.RequirePrefix(r.env)
	if err != nil {
		return d
	}
	d.Prefix = prefix

	for _, id := range SecretIDs(prefix).All() {
		value, err := r.secrets.GetSecret(ctx, id)
		if err == nil && strings.TrimSpace(value) == "" {
			err = errBlankSecret
		}
		d.Secrets = append(d.Secrets, SecretStatus{ID: id, Err: err})
	}
	return d
}
