package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"exprc/pkg/config"
	"exprc/pkg/diag"
)

var (
	cfgFile string
	appCfg  *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "exprc <expr>",
	Short: "Compile an arithmetic expression to x86-64 assembly",
	Long: `exprc compiles one integer expression into x86-64 assembly for GNU as
(Intel syntax). The program returns the value of the expression from main.

Operators, loosest first: == !=, < <= > >=, + -, * /, unary + -.

  exprc '1+2*3' > tmp.s && cc -o tmp tmp.s && ./tmp; echo $?`,
	Args:               exactlyOneExpr,
	DisableFlagParsing: true,
	SilenceErrors:      true,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	RunE:               runCompile,
}

// Execute runs the command line and reports any error on stderr.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		reportError(os.Stderr, err)
	}
	return err
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $EXPRC_CONFIG or ./exprc.toml)")
}

// setup loads the configuration and installs the logger.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	if cfgFile != "" {
		appCfg, err = config.Load(cfgFile)
	} else {
		appCfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return err
	}

	level, err := appCfg.LogLevel()
	if err != nil {
		return err
	}
	if traceStages {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

func exactlyOneExpr(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return diag.Errorf(diag.Args, diag.NoPos, "%s: want exactly one expression argument, got %d", cmd.Name(), len(args))
	}
	return nil
}

func runCompile(cmd *cobra.Command, args []string) error {
	src := args[0]
	if src == "-h" || src == "--help" {
		return cmd.Help()
	}
	asm, err := compileTraced(src, appCfg.CompilerTarget())
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), asm)
	return nil
}

// sourceError keeps the expression next to a compile error so it can be
// rendered with a caret.
type sourceError struct {
	src string
	err error
}

func (e *sourceError) Error() string { return e.err.Error() }
func (e *sourceError) Unwrap() error { return e.err }

func withSource(src string, err error) error {
	if err == nil {
		return nil
	}
	return &sourceError{src: src, err: err}
}

// ExitError ends the process with Code without printing anything.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string { return fmt.Sprintf("exit status %d", e.Code) }

// ExitCode maps an error returned by Execute to a process exit status.
func ExitCode(err error) int {
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return 1
}

func reportError(w *os.File, err error) {
	var ee *ExitError
	if errors.As(err, &ee) {
		return
	}
	writeError(w, err, colorEnabled(w))
}

func writeError(w io.Writer, err error, color bool) {
	src := ""
	var se *sourceError
	if errors.As(err, &se) {
		src, err = se.src, se.err
	}
	_ = diag.Render(w, src, err, diag.Options{Color: color})
}

func colorEnabled(f *os.File) bool {
	mode := config.ColorAuto
	if appCfg != nil {
		mode = appCfg.Diagnostics.Color
	}
	return mode.Enabled(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
