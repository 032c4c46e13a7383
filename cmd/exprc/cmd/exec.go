package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"exprc/pkg/asm"
	"exprc/pkg/cpu"
)

var execCmd = &cobra.Command{
	Use:   "exec <file.s>",
	Short: "Assemble a saved program and run it on the emulator",
	Long: `Assembles an Intel-syntax file previously written by exprc (or by hand,
within the same instruction subset) and runs its entry routine.

  exprc '2*(3+4)' > prog.s
  exprc exec prog.s`,
	Args: cobra.ExactArgs(1),
	RunE: runExec,
}

func init() {
	rootCmd.AddCommand(execCmd)
}

func runExec(cmd *cobra.Command, args []string) error {
	path := args[0]
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read input file %q: %w", path, err)
	}

	prog, err := asm.Assemble(string(source))
	if err != nil {
		return fmt.Errorf("assembly failed: %w", err)
	}
	entry, err := prog.Entry(appCfg.Target.Entry)
	if err != nil {
		return fmt.Errorf("assembly failed: %w", err)
	}

	vm := cpu.NewCPU(prog.Instructions, entry, appCfg.Limits())
	if _, err := vm.Run(); err != nil {
		return fmt.Errorf("run failed for %q: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(),
		"run complete (%s): steps=%d rax=%d rdi=%d rdx=%d zf=%t sf=%t of=%t\n",
		path,
		vm.Steps,
		vm.Regs[cpu.RAX],
		vm.Regs[cpu.RDI],
		vm.Regs[cpu.RDX],
		vm.ZF,
		vm.SF,
		vm.OF,
	)

	if status := vm.ExitCode(); status != 0 {
		return &ExitError{Code: int(status)}
	}
	return nil
}
