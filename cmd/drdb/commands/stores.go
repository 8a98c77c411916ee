package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/systmms/drdb/internal/config"
	"github.com/systmms/drdb/internal/providers"
)

func NewStoresCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stores",
		Short: "List supported secret store types",
		Long: `List the secret store types drdb can read from. The one selected by
secret_store.type (or DRDB_SECRET_STORE__TYPE) is marked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TYPE\tSELECTED")
			for _, t := range providers.NewRegistry().GetSupportedTypes() {
				selected := ""
				if t == cfg.Settings.SecretStore.Type {
					selected = "*"
				}
				fmt.Fprintf(w, "%s\t%s\n", t, selected)
			}
			return w.Flush()
		},
	}

	return cmd
}
