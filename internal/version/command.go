package version

import (
	"fmt"

	"github.com/spf13/cobra"
)

// AttachCobraVersionCommand sets root.Version for `--version` and adds a
// `version` subcommand; `version --short` prints the bare semantic version.
func AttachCobraVersionCommand(root *cobra.Command) {
	root.Version = Full()

	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			if short {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), Short())

				return
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cmd.Root().Name(), Full())
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "print only the semantic version")
	root.AddCommand(cmd)
}
