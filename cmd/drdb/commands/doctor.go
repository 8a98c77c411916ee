package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/systmms/drdb/internal/config"
	dserrors "github.com/systmms/drdb/internal/errors"
	"github.com/systmms/drdb/internal/metrics"
	"github.com/systmms/drdb/internal/resolve"
	"github.com/systmms/drdb/pkg/provider"
)

func NewDoctorCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Report every missing variable and unreadable secret",
		Long: `Check everything 'drdb config' needs without stopping at the first
problem.

This command checks:
- The settings file and DRDB_ overrides
- Secret store credentials and connectivity
- Every required environment variable
- Every secret, when PREFIX is set

Store errors are shown with --debug.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cfg)
			if err != nil {
				return err
			}
			defer s.close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			problems := 0

			var storeErr error
			if v, ok := s.secrets.(provider.Validator); ok {
				storeErr = v.Validate(ctx)
			}
			fmt.Fprintf(out, "Secret store: %s\n", s.store.Name())
			if storeErr != nil {
				problems++
				fmt.Fprintf(out, "  ✗ %s\n", describe(storeErr, cfg.Debug))
			} else {
				fmt.Fprintln(out, "  ✓ reachable")
			}
			fmt.Fprintln(out)

			d := s.resolver.Diagnose(ctx)
			problems += displayDiagnosis(out, d, cfg.Debug)

			fmt.Fprintln(out)
			if problems > 0 {
				fmt.Fprintf(out, "Summary: %d problem(s) found\n", problems)
				return dserrors.UserError{
					Message:    fmt.Sprintf("%d problem(s) found", problems),
					Suggestion: "Fix the items marked ✗ above and run 'drdb doctor' again",
				}
			}
			fmt.Fprintln(out, "Summary: configuration can be resolved")
			return nil
		},
	}

	return cmd
}

// displayDiagnosis prints one row per variable and secret and returns the
// number of problems.
func displayDiagnosis(out io.Writer, d resolve.Diagnosis, debug bool) int {
	problems := 0
	missing := make(map[string]bool, len(d.MissingVariables))
	for _, name := range d.MissingVariables {
		missing[name] = true
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VARIABLE\tSTATUS")
	for _, name := range resolve.RequiredVariables {
		if missing[name] {
			problems++
			fmt.Fprintf(w, "%s\t✗ not set\n", name)
			continue
		}
		fmt.Fprintf(w, "%s\t✓ set\n", name)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "SECRET\tSTATUS")
	if d.Prefix == "" {
		fmt.Fprintln(w, "(all)\t- skipped, PREFIX is not set")
	}
	for _, sec := range d.Secrets {
		if sec.Err != nil {
			problems++
			fmt.Fprintf(w, "%s\t✗ %s\n", sec.ID, describe(sec.Err, debug))
			continue
		}
		fmt.Fprintf(w, "%s\t✓ readable\n", sec.ID)
	}
	_ = w.Flush()

	return problems
}

// describe summarizes a store error. The store's own message is only shown
// in debug mode.
func describe(err error, debug bool) string {
	if debug {
		return err.Error()
	}
	switch metrics.Outcome(err) {
	case metrics.OutcomeNotFound:
		return "not found"
	case metrics.OutcomeAuth:
		return "access denied"
	default:
		return "unavailable"
	}
}
