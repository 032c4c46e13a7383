// Package check runs suites of expressions, each with an expected value or an
// expected diagnostic, through the compiler and the emulator.
package check

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"exprc/pkg/compiler"
	"exprc/pkg/cpu"
	"exprc/pkg/diag"
)

var ErrInvalidSuite = errors.New("invalid case file")

// Case is one entry of a case file. Exactly one of Want and Error is set;
// Error is a substring of the expected diagnostic message.
type Case struct {
	Name  string `yaml:"name"`
	Expr  string `yaml:"expr"`
	Want  *int64 `yaml:"want,omitempty"`
	Error string `yaml:"error,omitempty"`
}

// Suite is the top level of a case file.
type Suite struct {
	Cases []Case `yaml:"cases"`
}

// Parse decodes a YAML case file.
func Parse(data []byte) (*Suite, error) {
	var s Suite
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSuite, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads and parses a case file.
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data)
}

// Validate checks that every case says what it expects. Unnamed cases are
// named after their expression.
func (s *Suite) Validate() error {
	if len(s.Cases) == 0 {
		return fmt.Errorf("%w: no cases", ErrInvalidSuite)
	}
	for i := range s.Cases {
		c := &s.Cases[i]
		if c.Name == "" {
			c.Name = c.Expr
		}
		if (c.Want == nil) == (c.Error == "") {
			return fmt.Errorf("%w: case %d (%s) must set exactly one of want and error", ErrInvalidSuite, i+1, c.Name)
		}
	}
	return nil
}

// Result is the outcome of one case.
type Result struct {
	Case   Case
	Got    int64
	Err    error // compile or run error, if any
	Passed bool
}

func (r Result) String() string {
	status := "ok  "
	if !r.Passed {
		status = "FAIL"
	}
	switch {
	case r.Passed && r.Err != nil:
		return fmt.Sprintf("%s %s: rejected as expected (%v)", status, r.Case.Name, r.Err)
	case r.Passed:
		return fmt.Sprintf("%s %s = %d", status, r.Case.Name, r.Got)
	case r.Err != nil && r.Case.Want != nil:
		return fmt.Sprintf("%s %s: want %d, got error: %v", status, r.Case.Name, *r.Case.Want, r.Err)
	case r.Err != nil:
		return fmt.Sprintf("%s %s: want error containing %q, got: %v", status, r.Case.Name, r.Case.Error, r.Err)
	case r.Case.Want != nil:
		return fmt.Sprintf("%s %s: want %d, got %d", status, r.Case.Name, *r.Case.Want, r.Got)
	}
	return fmt.Sprintf("%s %s: want error containing %q, got %d", status, r.Case.Name, r.Case.Error, r.Got)
}

// Runner evaluates cases concurrently.
type Runner struct {
	Target compiler.Target
	Limits cpu.Limits
	Jobs   int
	Logger *slog.Logger
}

// Run evaluates every case and returns the results in case order. A failing
// case is reported in its Result; the error is only non-nil when ctx ends.
func (r *Runner) Run(ctx context.Context, cases []Case) ([]Result, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	results := make([]Result, len(cases))
	g, ctx := errgroup.WithContext(ctx)
	if r.Jobs > 0 {
		g.SetLimit(r.Jobs)
	}

	for i, c := range cases {
		i, c := i, c
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = r.evaluate(c)
			logger.Debug("case finished", "name", c.Name, "passed", results[i].Passed)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) evaluate(c Case) Result {
	res := Result{Case: c}
	exec, err := compiler.Execute(c.Expr, r.Target, r.Limits)
	if err != nil {
		res.Err = err
		res.Passed = c.Want == nil && strings.Contains(message(err), c.Error)
		return res
	}
	res.Got = exec.Result
	res.Passed = c.Want != nil && *c.Want == exec.Result
	return res
}

// message is the text a case's error field is matched against.
func message(err error) string {
	var de *diag.Error
	if errors.As(err, &de) {
		return de.Msg
	}
	return err.Error()
}

// Summary counts passed and failed results.
func Summary(results []Result) (passed, failed int) {
	for _, r := range results {
		if r.Passed {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}
