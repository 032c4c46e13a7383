package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"exprc/pkg/asm"
	"exprc/pkg/cpu"
)

var (
	showAsm     bool
	traceStages bool
)

var runCmd = &cobra.Command{
	Use:   "run [flags] -- <expr>",
	Short: "Compile an expression and execute it on the built-in emulator",
	Long: `Compiles the expression, assembles the output and runs it on the bundled
x86-64 emulator. Prints the result and exits with its low byte, the status
the native program would report.

Put "--" before expressions starting with "-":

  exprc run -- -5+8`,
	Args: exactlyOneExpr,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&showAsm, "asm", false, "print the generated assembly")
	runCmd.Flags().BoolVar(&traceStages, "trace", false, "log tokens, AST and assembly")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	src := args[0]
	target := appCfg.CompilerTarget()

	code, err := compileTraced(src, target)
	if err != nil {
		return err
	}

	prog, err := asm.Assemble(code)
	if err != nil {
		return fmt.Errorf("assembly error: %w", err)
	}
	entry, err := prog.Entry(target.Entry)
	if err != nil {
		return fmt.Errorf("assembly error: %w", err)
	}

	vm := cpu.NewCPU(prog.Instructions, entry, appCfg.Limits())
	result, err := vm.Run()
	if err != nil {
		return fmt.Errorf("run error: %w", err)
	}
	slog.Debug("executed", "steps", vm.Steps, "stack", len(vm.Stack))

	out := cmd.OutOrStdout()
	if showAsm {
		fmt.Fprintln(out, strings.TrimRight(code, "\n"))
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "result: %d\n", result)

	if status := vm.ExitCode(); status != 0 {
		return &ExitError{Code: int(status)}
	}
	return nil
}
