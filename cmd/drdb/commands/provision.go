package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/systmms/drdb/internal/config"
	"github.com/systmms/drdb/internal/metrics"
	"github.com/systmms/drdb/internal/provision"
	"github.com/systmms/drdb/internal/resolve"
)

func NewProvisionCommand(cfg *config.Config) *cobra.Command {
	var schemaOnly bool

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create the application database, roles, schema and user",
		Long: `Create DATABASE_NAME if it does not exist, then create the ` + provision.OwnerRole + ` and
` + provision.AppRole + ` roles, the ` + provision.SchemaName + ` schema and the APPLICATION_USER login in it.

Every step connects with the root credentials. Running it again is safe: it
only resets the application user's password to the current secret value.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cfg)
			if err != nil {
				return err
			}
			defer s.close()

			ctx := cmd.Context()
			c, err := s.configuration(ctx)
			if err != nil {
				return err
			}

			factory := metrics.InstrumentFactory(sqlFactory(s.databaseOptions(), cfg.Logger), resolve.RoleRoot, s.metrics)
			installer := provision.NewInstaller(factory, cfg.Logger)

			if schemaOnly {
				err = installer.CreateSchema(ctx, c)
			} else {
				err = installer.Install(ctx, c)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Database %s provisioned; %s can log in\n", c.Database, c.AppUser)
			return nil
		},
	}

	cmd.Flags().BoolVar(&schemaOnly, "schema-only", false, "Skip database creation (the database already exists)")

	return cmd
}
