package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies resolution failures.
type Kind string

const (
	KindMissingPrefix              Kind = "missing-prefix"
	KindMissingEnvironmentVariable Kind = "missing-environment-variable"
	KindSecretUnavailable          Kind = "secret-unavailable"
)

// SecretRetrievalMessage is the uniform message for every secret store failure.
const SecretRetrievalMessage = "Failed to retrieve secret manager value."

var (
	// ErrConfiguration matches any *ConfigurationError via errors.Is.
	ErrConfiguration = errors.New("configuration error")
	// ErrSecretUnavailable matches any *SecretRetrievalError via errors.Is.
	ErrSecretUnavailable = errors.New("secret unavailable")
)

// ConfigurationError reports a required environment variable that is absent or blank.
type ConfigurationError struct {
	Kind     Kind
	Variable string
}

func (e *ConfigurationError) Error() string {
	if e.Kind == KindMissingPrefix {
		return fmt.Sprintf("Environment variable %s is not set.", e.Variable)
	}
	return fmt.Sprintf("Environment variable %s is not set and is required", e.Variable)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// SecretRetrievalError reports that a secret could not be read from the store.
// The underlying store error is intentionally not exposed through Unwrap.
type SecretRetrievalError struct {
	SecretID string
}

func (e *SecretRetrievalError) Error() string {
	return SecretRetrievalMessage
}

func (e *SecretRetrievalError) Is(target error) bool {
	return target == ErrSecretUnavailable
}

// KindOf returns the Kind carried by err, or "" when err is not part of the taxonomy.
func KindOf(err error) Kind {
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return cfgErr.Kind
	}
	var secretErr *SecretRetrievalError
	if errors.As(err, &secretErr) {
		return KindSecretUnavailable
	}
	return ""
}

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents an invalid tool setting with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// Explain wraps taxonomy errors in a UserError carrying a suggestion for the
// operator. Other errors are returned unchanged.
func Explain(err error) error {
	if err == nil {
		return nil
	}

	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return UserError{
			Message:    cfgErr.Error(),
			Suggestion: fmt.Sprintf("export %s=<value> or add it to the file passed with --env-file", cfgErr.Variable),
			Err:        err,
		}
	}

	var secretErr *SecretRetrievalError
	if errors.As(err, &secretErr) {
		return UserError{
			Message:    secretErr.Error(),
			Details:    "secret " + secretErr.SecretID,
			Suggestion: "Verify the secret exists in the configured secret store and that the caller may read it. Run 'drdb doctor --debug' for the store error",
			Err:        err,
		}
	}

	return err
}

// IsRetryable checks if an error looks transient from its message alone.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"timeout",
		"temporary failure",
		"connection reset",
		"connection refused",
		"broken pipe",
		"the database system is starting up",
		"too many connections",
		"too many clients",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}
