package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"exprc/pkg/compiler"
)

var dumpCmd = &cobra.Command{
	Use:   "dump [flags] -- <expr>",
	Short: "Print the tokens, AST and assembly of an expression",
	Args:  exactlyOneExpr,
	RunE:  runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}

func runDump(cmd *cobra.Command, args []string) error {
	src := args[0]
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Source:\n%s\n\n", src)

	tokens, err := compiler.Lex(src)
	if err != nil {
		return withSource(src, err)
	}

	fmt.Fprintf(out, "Tokens (%d)\n", len(tokens))
	for _, tok := range tokens {
		fmt.Fprintln(out, " ", tok)
	}
	fmt.Fprintln(out)

	node, err := compiler.Parse(tokens)
	if err != nil {
		return withSource(src, err)
	}

	fmt.Fprintln(out, "AST")
	fmt.Fprintln(out, " ", node)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Generated Assembly")
	fmt.Fprint(out, compiler.Generate(node, appCfg.CompilerTarget()))
	return nil
}
