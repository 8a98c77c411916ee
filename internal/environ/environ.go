// Package environ reads required settings from process-wide environment state.
//
// Callers receive a Lookup rather than reading os.Getenv directly so tests
// can substitute an in-memory Map.
package environ

import (
	"os"
	"strings"

	dserrors "github.com/systmms/drdb/internal/errors"
)

// PrefixVariable names the deployment prefix used to build secret identifiers.
const PrefixVariable = "PREFIX"

// Lookup is a read-only view of environment variables.
type Lookup interface {
	LookupEnv(name string) (string, bool)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(name string) (string, bool)

func (f LookupFunc) LookupEnv(name string) (string, bool) {
	return f(name)
}

// OS reads the process environment.
var OS Lookup = LookupFunc(os.LookupEnv)

// Map is an in-memory environment.
type Map map[string]string

func (m Map) LookupEnv(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

func isBlank(v string) bool {
	return strings.TrimSpace(v) == ""
}

// Require returns the value of name or a ConfigurationError when the variable
// is absent or blank.
func Require(env Lookup, name string) (string, error) {
	v, ok := env.LookupEnv(name)
	if !ok || isBlank(v) {
		return "", &dserrors.ConfigurationError{
			Kind:     dserrors.KindMissingEnvironmentVariable,
			Variable: name,
		}
	}
	return v, nil
}

// RequirePrefix returns PREFIX. Its absence is reported with its own kind
// since nothing else can be resolved without it.
func RequirePrefix(env Lookup) (string, error) {
	v, ok := env.LookupEnv(PrefixVariable)
	if !ok || isBlank(v) {
		return "", &dserrors.ConfigurationError{
			Kind:     dserrors.KindMissingPrefix,
			Variable: PrefixVariable,
		}
	}
	return v, nil
}

// Missing lists the names that are absent or blank, in the order given.
func Missing(env Lookup, names ...string) []string {
	var missing []string
	for _, name := range names {
		if v, ok := env.LookupEnv(name); !ok || isBlank(v) {
			missing = append(missing, name)
		}
	}
	return missing
}
