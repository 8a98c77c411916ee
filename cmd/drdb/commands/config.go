package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/systmms/drdb/internal/config"
	dserrors "github.com/systmms/drdb/internal/errors"
	"github.com/systmms/drdb/internal/resolve"
	"github.com/systmms/drdb/internal/schema"
	"gopkg.in/yaml.v3"
)

func NewConfigCommand(cfg *config.Config) *cobra.Command {
	var (
		output      string
		showSecrets bool
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Resolve and print the database configuration",
		Long: `Resolve the database configuration from the environment and the
secret store and print it.

The required variables are PREFIX, DATABASE_NAME, DATABASE_PORT,
APPLICATION_USER, ROOT_USER and ROOT_DATABASE. The host and both passwords are
read from the secrets <PREFIX>-drdb-host, <PREFIX>-drdb-admin-pass and
<PREFIX>-drdb-user-pass.

Passwords are redacted unless --show-secrets is given.

Examples:
  # Print as JSON
  drdb config

  # Print as YAML, loading variables from a dotenv file
  drdb config --output yaml --env-file .env

  # Feed the application password to another tool
  drdb config --show-secrets | jq -r .app_user_password`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "json" && output != "yaml" {
				return dserrors.UserError{
					Message:    fmt.Sprintf("Unsupported output format %q", output),
					Suggestion: "Use --output json or --output yaml",
				}
			}

			s, err := newSession(cfg)
			if err != nil {
				return err
			}
			defer s.close()

			c, err := s.configuration(cmd.Context())
			if err != nil {
				return err
			}
			if err := schema.ValidateConfiguration(c); err != nil {
				return err
			}

			if !showSecrets {
				c = c.Redacted()
			}
			return writeConfiguration(cmd.OutOrStdout(), output, c)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "json", "Output format (json, yaml)")
	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print passwords instead of [REDACTED]")

	return cmd
}

func writeConfiguration(w io.Writer, format string, c resolve.Configuration) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("failed to encode configuration: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("failed to encode configuration: %w", err)
		}
		return nil
	}
}
