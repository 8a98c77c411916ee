package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/systmms/drdb/internal/environ"
)

// ResolverEnv returns the five required variables plus PREFIX for a
// deployment named prefix.
//
// Example usage:
//
//	env := ResolverEnv("orcatest")
//	delete(env, "ROOT_USER")
func ResolverEnv(prefix string) environ.Map {
	return environ.Map{
		"PREFIX":           prefix,
		"DATABASE_NAME":    "disaster_recovery",
		"DATABASE_PORT":    "5432",
		"APPLICATION_USER": "orcauser",
		"ROOT_USER":        "postgres",
		"ROOT_DATABASE":    "postgres",
	}
}

// UnsetTestEnv removes variables for the duration of a test and restores
// them afterwards.
func UnsetTestEnv(t *testing.T, keys ...string) {
	t.Helper()

	for _, key := range keys {
		// t.Setenv registers the restore; the unset follows it.
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("Failed to unset environment variable %s: %v", key, err)
		}
	}
}

// WriteEnvFile writes vars as a dotenv file in a temp dir and returns its path.
func WriteEnvFile(t *testing.T, vars map[string]string) string {
	t.Helper()

	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%q\n", k, vars[k])
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}
	return path
}
