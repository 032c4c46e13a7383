package compiler

import (
	"fmt"

	"exprc/pkg/asm"
	"exprc/pkg/cpu"
)

// Compile runs the whole pipeline over src. Lex and parse failures are
// returned as *diag.Error so the caller can point at the offending byte.
func Compile(src string, target Target) (string, error) {
	tokens, err := Lex(src)
	if err != nil {
		return "", err
	}

	node, err := Parse(tokens)
	if err != nil {
		return "", err
	}

	return Generate(node, target), nil
}

// Execution is the outcome of compiling and emulating one expression.
type Execution struct {
	Assembly string
	Result   int64
	ExitCode uint8 // what a shell would see as $?
	Steps    int
}

// Execute compiles src, assembles the output and runs it on the emulator.
func Execute(src string, target Target, limits cpu.Limits) (*Execution, error) {
	assembly, err := Compile(src, target)
	if err != nil {
		return nil, err
	}

	prog, err := asm.Assemble(assembly)
	if err != nil {
		return nil, fmt.Errorf("assembly error: %w", err)
	}
	entry, err := prog.Entry(target.Entry)
	if err != nil {
		return nil, fmt.Errorf("assembly error: %w", err)
	}

	vm := cpu.NewCPU(prog.Instructions, entry, limits)
	result, err := vm.Run()
	if err != nil {
		return nil, fmt.Errorf("run error: %w", err)
	}

	return &Execution{
		Assembly: assembly,
		Result:   result,
		ExitCode: vm.ExitCode(),
		Steps:    vm.Steps,
	}, nil
}
