package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"exprc/pkg/diag"
)

// execute runs the command line with fresh flag state and returns stdout,
// the rendered error (uncoloured) and the error itself.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("EXPRC_CONFIG", "")
	t.Setenv("HOME", t.TempDir())
	cfgFile, showAsm, traceStages, checkJobs = "", false, false, 0

	if args == nil {
		args = []string{}
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	var errOut bytes.Buffer
	if err != nil {
		writeError(&errOut, err, false)
	}
	return out.String(), errOut.String(), err
}

func TestRootCompiles(t *testing.T) {
	out, _, err := execute(t, "1+2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := ".intel_syntax noprefix\n.global main\nmain:\n" +
		"    push 1\n    push 2\n    pop rdi\n    pop rax\n    add rax, rdi\n    push rax\n" +
		"    pop rax\n    ret\n"
	if out != want {
		t.Errorf("got:\n%s\nwant:\n%s", out, want)
	}
}

func TestRootNegativeExpression(t *testing.T) {
	out, _, err := execute(t, "-5+8")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "    push 0\n    push 5\n") {
		t.Errorf("unary minus not compiled as 0-5:\n%s", out)
	}
}

func TestRootArgumentCount(t *testing.T) {
	tests := [][]string{
		{},
		{"1", "2"},
	}
	for _, args := range tests {
		out, errOut, err := execute(t, args...)
		var de *diag.Error
		if !errors.As(err, &de) || de.Kind != diag.Args {
			t.Fatalf("%q: error = %v, want argument error", args, err)
		}
		if out != "" {
			t.Errorf("%q: wrote %q to stdout", args, out)
		}
		if !strings.HasPrefix(errOut, "exprc: want exactly one expression argument") {
			t.Errorf("%q: stderr = %q", args, errOut)
		}
		if ExitCode(err) != 1 {
			t.Errorf("%q: exit code %d, want 1", args, ExitCode(err))
		}
	}
}

func TestRootDiagnostics(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"1&2", "1&2\n ^ invalid token '&'\n"},
		{"1+", "1+\n  ^ expected a number\n"},
		{"(1+2", "(1+2\n    ^ expected ')'\n"},
	}
	for _, tt := range tests {
		out, errOut, err := execute(t, tt.expr)
		if err == nil {
			t.Fatalf("%q: expected an error", tt.expr)
		}
		if out != "" {
			t.Errorf("%q: wrote %q to stdout", tt.expr, out)
		}
		if errOut != tt.want {
			t.Errorf("%q: stderr = %q, want %q", tt.expr, errOut, tt.want)
		}
		if ExitCode(err) != 1 {
			t.Errorf("%q: exit code %d, want 1", tt.expr, ExitCode(err))
		}
	}
}

func TestRun(t *testing.T) {
	tests := []struct {
		args     []string
		wantOut  string
		wantCode int
	}{
		{[]string{"run", "--", "-5+8"}, "result: 3\n", 3},
		{[]string{"run", "1-1"}, "result: 0\n", 0},
		{[]string{"run", "--", "-(2+3)"}, "result: -5\n", 251},
		{[]string{"run", "2>=2"}, "result: 1\n", 1},
	}
	for _, tt := range tests {
		out, _, err := execute(t, tt.args...)
		if out != tt.wantOut {
			t.Errorf("%q: stdout = %q, want %q", tt.args, out, tt.wantOut)
		}
		code := 0
		if err != nil {
			code = ExitCode(err)
		}
		if code != tt.wantCode {
			t.Errorf("%q: exit code %d, want %d", tt.args, code, tt.wantCode)
		}
	}
}

func TestRunShowsAssembly(t *testing.T) {
	out, _, err := execute(t, "run", "--asm", "2*3")
	if ExitCode(err) != 6 {
		t.Fatalf("error = %v, want exit status 6", err)
	}
	if !strings.Contains(out, "imul rax, rdi") || !strings.HasSuffix(out, "result: 6\n") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestRunFault(t *testing.T) {
	_, errOut, err := execute(t, "run", "1/0")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.HasPrefix(errOut, "run error:") || !strings.Contains(errOut, "divide by zero") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestRunConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exprc.toml")
	if err := os.WriteFile(path, []byte("[emulator]\nmax_steps = 3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, errOut, err := execute(t, "run", "--config", path, "1+2")
	if err == nil || !strings.Contains(errOut, "step limit") {
		t.Errorf("error = %v, stderr = %q; want step limit", err, errOut)
	}
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(good, []byte("cases:\n  - expr: \"1+2*3\"\n    want: 7\n  - expr: \"1&2\"\n    error: invalid token\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte("cases:\n  - expr: \"2*2\"\n    want: 5\n"), 0644); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, "check", good)
	if err != nil {
		t.Fatalf("check good: %v", err)
	}
	if !strings.Contains(out, "2 passed, 0 failed") {
		t.Errorf("unexpected output:\n%s", out)
	}

	out, _, err = execute(t, "check", "-j", "1", bad)
	if ExitCode(err) != 1 {
		t.Errorf("check bad: error = %v, want exit status 1", err)
	}
	if !strings.Contains(out, "FAIL 2*2: want 5, got 4") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "exprc v"+Version) {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestDump(t *testing.T) {
	out, _, err := execute(t, "dump", "1>2")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Tokens (4)", `RESERVED ">"`, "(< 2 1)", "setl al"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump output missing %q:\n%s", want, out)
		}
	}
}

func TestExec(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.s")
	asm, _, err := execute(t, "7/2")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(asm), 0644); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, "exec", path)
	if ExitCode(err) != 3 {
		t.Errorf("error = %v, want exit status 3", err)
	}
	if !strings.Contains(out, "rax=3 rdi=2 rdx=1") {
		t.Errorf("unexpected output: %q", out)
	}

	_, errOut, err := execute(t, "exec", filepath.Join(t.TempDir(), "missing.s"))
	if err == nil || !strings.Contains(errOut, "failed to read input file") {
		t.Errorf("missing file: error = %v, stderr = %q", err, errOut)
	}
}
