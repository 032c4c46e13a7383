// Package diag carries positioned compile errors and renders them as the
// source line followed by a caret under the offending byte.
package diag

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Kind identifies which stage rejected the input.
type Kind int

const (
	Args  Kind = iota // wrong number of invocation arguments
	Lex               // unrecognised character
	Parse             // grammar violation
)

var kindNames = [...]string{
	Args:  "argument",
	Lex:   "lex",
	Parse: "parse",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// NoPos marks an error that has no source position.
const NoPos = -1

// Error is a fatal compile error. Pos is a byte offset into the source, or
// NoPos for errors raised before any source exists.
type Error struct {
	Kind Kind
	Pos  int
	Msg  string
}

func (e *Error) Error() string {
	if e.Pos == NoPos {
		return fmt.Sprintf("%s error: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s error at %d: %s", e.Kind, e.Pos, e.Msg)
}

// Errorf builds an *Error with a formatted message.
func Errorf(kind Kind, pos int, format string, args ...any) *Error {
	return &Error{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Options controls rendering.
type Options struct {
	// Color styles the caret and message with ANSI sequences.
	Color bool
}

// Render writes err to w. A positioned *Error is written as
//
//	<source line>
//	<padding>^ <message>
//
// where the padding is as wide as the byte offset of the error within its
// line. Any other error is written as its message on one line.
func Render(w io.Writer, src string, err error, opts Options) error {
	var de *Error
	if !errors.As(err, &de) {
		_, werr := fmt.Fprintln(w, err)
		return werr
	}
	if de.Pos == NoPos {
		_, werr := fmt.Fprintln(w, de.Msg)
		return werr
	}

	line, col := lineAt(src, de.Pos)
	caret, msg := "^", de.Msg
	if opts.Color {
		r := lipgloss.NewRenderer(w)
		r.SetColorProfile(termenv.ANSI256)
		caret = r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")).Render(caret)
		msg = r.NewStyle().Bold(true).Render(msg)
	}

	_, werr := fmt.Fprintf(w, "%s\n%s%s %s\n", line, padding(line, col), caret, msg)
	return werr
}

// lineAt returns the line of src containing byte offset pos and the offset
// of pos within that line. pos may equal len(src) (end of input).
func lineAt(src string, pos int) (string, int) {
	if pos > len(src) {
		pos = len(src)
	}
	if pos < 0 {
		pos = 0
	}
	start := strings.LastIndexByte(src[:pos], '\n') + 1
	end := len(src)
	if i := strings.IndexByte(src[pos:], '\n'); i >= 0 {
		end = pos + i
	}
	return src[start:end], pos - start
}

// padding keeps tabs from the source so the caret lines up in a terminal.
func padding(line string, col int) string {
	var b strings.Builder
	for i := 0; i < col; i++ {
		if i < len(line) && line[i] == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}
