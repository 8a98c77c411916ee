package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/systmms/drdb/internal/resolve"
)

// AssertSecretRedacted verifies that a secret value does not appear in a
// string and that the [REDACTED] marker does.
func AssertSecretRedacted(t *testing.T, output, secretValue string) {
	t.Helper()

	assert.NotContains(t, output, secretValue,
		"Secret value %q should be redacted, but appears in output", secretValue)
	assert.Contains(t, output, "[REDACTED]",
		"Expected [REDACTED] marker when secret is used")
}

// AssertNoSecretLeak verifies that none of secrets appear in output.
func AssertNoSecretLeak(t *testing.T, output string, secrets []string) {
	t.Helper()

	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		assert.NotContains(t, output, secret, "Secret leaked in output")
	}
}

// AssertNoPasswordLeak checks output against both passwords of cfg.
func AssertNoPasswordLeak(t *testing.T, output string, cfg resolve.Configuration) {
	t.Helper()
	AssertNoSecretLeak(t, output, []string{cfg.RootUserPassword, cfg.AppUserPassword})
}
