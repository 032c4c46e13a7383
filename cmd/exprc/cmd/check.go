package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"exprc/pkg/check"
)

var checkJobs int

var checkCmd = &cobra.Command{
	Use:   "check <cases.yaml>",
	Short: "Verify a file of expressions against expected results",
	Long: `Compiles and runs every case of a YAML file and compares the outcome.

  cases:
    - name: precedence
      expr: "1+2*3"
      want: 7
    - expr: "1+"
      error: expected a number

Exits with status 1 if any case fails.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().IntVarP(&checkJobs, "jobs", "j", 0, "cases evaluated in parallel (default from config)")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	suite, err := check.Load(args[0])
	if err != nil {
		return err
	}

	jobs := appCfg.Check.Jobs
	if checkJobs > 0 {
		jobs = checkJobs
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := &check.Runner{
		Target: appCfg.CompilerTarget(),
		Limits: appCfg.Limits(),
		Jobs:   jobs,
	}
	results, err := runner.Run(ctx, suite.Cases)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, r := range results {
		fmt.Fprintln(out, r)
	}
	passed, failed := check.Summary(results)
	fmt.Fprintf(out, "\n%d passed, %d failed\n", passed, failed)

	if failed > 0 {
		return &ExitError{Code: 1}
	}
	return nil
}
