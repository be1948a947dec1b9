// Package cmd provides the settleup CLI commands.
package cmd

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/mmynk/settleup/internal/config"
	"github.com/mmynk/settleup/pkg/logging"
)

// options are the persistent flags shared by every command.
type options struct {
	cfgFile string
	debug   bool
	cfg     *config.Config
}

// NewRootCmd builds the settleup command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "settleup",
		Short: "Track shared expenses and settle debts with the fewest payments",
		Long: `settleup records who paid for what and computes the smallest set of
payments that clears everyone's balances.

It can run as a server exposing Connect RPC services, or compute a plan
offline from a file of splits.

Example:
  settleup serve --config settleup.yaml
  settleup plan --splits trip.yaml --viewer alice --currency EUR`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.cfgFile)
			if err != nil {
				return err
			}
			if opts.debug {
				cfg.Log.Level = "debug"
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logging.SetupWith(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
			opts.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", "", "config file (default is ./settleup.yaml)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newPlanCmd(opts))
	root.AddCommand(newVersionCmd())

	return root
}

// Execute runs the root command and reports any error.
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		pterm.Error.WithWriter(os.Stderr).Println(err)
		return err
	}
	return nil
}
