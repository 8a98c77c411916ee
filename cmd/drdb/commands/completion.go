package commands

import (
	"github.com/spf13/cobra"
	"github.com/systmms/drdb/internal/config"
)

// NewCompletionCommand prints shell completion scripts.
func NewCompletionCommand(_ *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Print a completion script for drdb to stdout.

  bash:        source <(drdb completion bash)
  zsh:         drdb completion zsh > "${fpath[1]}/_drdb"
  fish:        drdb completion fish > ~/.config/fish/completions/drdb.fish
  powershell:  drdb completion powershell | Out-String | Invoke-Expression

Open a new shell afterwards for the completions to load.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, out := cmd.Root(), cmd.OutOrStdout()
			switch args[0] {
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(out)
			default:
				return root.GenBashCompletion(out)
			}
		},
	}
}
