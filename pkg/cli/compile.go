package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getspecd/specd/pkg/specfile"
)

func newCompileCmd() *cobra.Command {
	var (
		specs []string
		out   string
	)

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile the specification document without running scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, _, err := specfile.Load(specs)
			if err != nil {
				return fatal(err)
			}
			if err := reg.Freeze(); err != nil {
				return fatal(err)
			}
			if err := compileTo(reg, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&specs, "spec", "f", nil, "Contract file path (repeatable)")
	cmd.Flags().StringVarP(&out, "out", "o", DefaultOutput, "Output path for the compiled document")
	_ = cmd.MarkFlagRequired("spec")
	return cmd
}
