package commands

import (
	"github.com/spf13/cobra"

	"github.com/trafficmon/trafficmon/internal/config"
)

var cfgFile string

func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "trafficmon",
		Short:         "Network security monitoring console",
		Long:          "trafficmon: web and terminal console for a network security monitoring backend. Incidents, filtering rules and traffic in one place.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")

	root.AddCommand(
		newServeCmd(),
		newTUICmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newIncidentsCmd(),
		newRulesCmd(),
		newTrafficCmd(),
		newCaptureCmd(),
		newAuditCmd(),
		newMCPCmd(),
		newVersionCmd(),
	)

	return root
}
