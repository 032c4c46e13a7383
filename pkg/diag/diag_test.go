package diag

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		src  string
		err  error
		want string
	}{
		{
			name: "Lex error mid line",
			src:  "1&2",
			err:  Errorf(Lex, 1, "invalid token"),
			want: "1&2\n ^ invalid token\n",
		},
		{
			name: "Error at end of input",
			src:  "1+",
			err:  Errorf(Parse, 2, "expected a number"),
			want: "1+\n  ^ expected a number\n",
		},
		{
			name: "Error at start",
			src:  ")",
			err:  Errorf(Parse, 0, "expected a number"),
			want: ")\n^ expected a number\n",
		},
		{
			name: "Formatted arguments",
			src:  "(1",
			err:  Errorf(Parse, 2, "expected '%s'", ")"),
			want: "(1\n  ^ expected ')'\n",
		},
		{
			name: "Only the offending line is printed",
			src:  "1 +\n2 $",
			err:  Errorf(Lex, 6, "invalid token"),
			want: "2 $\n  ^ invalid token\n",
		},
		{
			name: "Tabs are preserved in padding",
			src:  "\t1 @",
			err:  Errorf(Lex, 3, "invalid token"),
			want: "\t1 @\n\t  ^ invalid token\n",
		},
		{
			name: "Unpositioned error",
			src:  "",
			err:  Errorf(Args, NoPos, "invalid number of arguments"),
			want: "invalid number of arguments\n",
		},
		{
			name: "Foreign error",
			src:  "1",
			err:  errors.New("boom"),
			want: "boom\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Render(&buf, tt.src, tt.err, Options{}); err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("Render() =\n%q\nwant\n%q", buf.String(), tt.want)
			}
		})
	}
}

func TestRenderWrapped(t *testing.T) {
	err := fmt.Errorf("compile: %w", Errorf(Parse, 1, "expected a number"))
	var buf bytes.Buffer
	if rerr := Render(&buf, "+", err, Options{}); rerr != nil {
		t.Fatalf("Render failed: %v", rerr)
	}
	if want := "+\n ^ expected a number\n"; buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestRenderColor(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, "1&2", Errorf(Lex, 1, "invalid token"), Options{Color: true}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "\x1b[") {
		t.Errorf("expected ANSI sequences, got %q", out)
	}
	if !strings.HasPrefix(out, "1&2\n ") {
		t.Errorf("source line and padding must stay unstyled, got %q", out)
	}
	if !strings.Contains(out, "invalid token") {
		t.Errorf("message missing from %q", out)
	}
}

func TestErrorString(t *testing.T) {
	if got := Errorf(Lex, 3, "invalid token").Error(); got != "lex error at 3: invalid token" {
		t.Errorf("got %q", got)
	}
	if got := Errorf(Args, NoPos, "want 1 argument").Error(); got != "argument error: want 1 argument" {
		t.Errorf("got %q", got)
	}
	if got := Kind(42).String(); got != "Kind(42)" {
		t.Errorf("got %q", got)
	}
}
