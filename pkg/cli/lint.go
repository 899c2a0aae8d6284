package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/getspecd/specd/pkg/document"
)

func newLintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint <document>",
		Short: "Check a compiled document against the OpenAPI 3 specification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fatal(err)
			}
			if err := document.Lint(data); err != nil {
				return fatal(fmt.Errorf("lint %s: %w", args[0], err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", args[0])
			return nil
		},
	}
	return cmd
}
