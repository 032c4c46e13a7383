package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"exprc/pkg/repl"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Type expressions and see their assembly and value as you type",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return repl.Run(repl.Options{
			Target: appCfg.CompilerTarget(),
			Limits: appCfg.Limits(),
			Color:  colorEnabled(os.Stdout),
		})
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}
