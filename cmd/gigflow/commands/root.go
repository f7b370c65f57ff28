package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gigflow",
	Short: "GigFlow - gig and bid marketplace API",
	Long: `GigFlow serves the marketplace API: clients post gigs, freelancers bid,
and the client hires exactly one freelancer per gig. Hired freelancers who
are online receive a live notification over a websocket.

Configuration is read from the environment (see "gigflow serve --help").`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newIndexesCmd())
}
