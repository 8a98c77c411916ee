// Package provider defines the secret store abstraction used by drdb.
//
// A Provider answers one question: what is the current string value of the
// secret with this identifier? Implementations live in internal/providers
// (AWS Secrets Manager, AWS SSM Parameter Store, Google Cloud Secret Manager,
// Azure Key Vault, HashiCorp Vault, and the OS keyring).
//
// # Error Handling
//
// Providers should use the standard error types defined in this package:
//   - NotFoundError for missing or deleted secrets
//   - AuthError for authentication failures
//   - Standard Go errors for other cases
//
// Callers in internal/resolve collapse every provider error into a single
// uniform error, so the distinction matters for diagnostics (drdb doctor,
// debug logs, metrics) rather than for control flow.
//
// # Security Considerations
//
// Providers must never log secret values (use the logging.Secret wrapper)
// and must honour context cancellation.
//
// # Threading and Concurrency
//
// Provider implementations must be safe for concurrent use.
package provider
