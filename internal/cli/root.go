// Package cli wires the relay's command tree.
package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
}

// NewRootCommand creates the print-relay root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "print-relay",
		Short: "Relay point-of-sale orders to receipt printers",
		Long: `print-relay polls the point-of-sale purchase feed, splits each
order into kitchen and register tickets, assigns recurring ticket
numbers, and prints on the configured network printers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to config file (default: probe config.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}
