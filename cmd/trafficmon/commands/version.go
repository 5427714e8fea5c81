package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "trafficmon %s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "  go:   %s\n", runtime.Version())
			fmt.Fprintf(cmd.OutOrStdout(), "  os:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
