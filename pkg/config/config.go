// Package config loads exprc settings from TOML.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"exprc/pkg/compiler"
	"exprc/pkg/cpu"
)

// Config holds the complete exprc configuration
type Config struct {
	General     GeneralConfig     `toml:"general"`
	Target      TargetConfig      `toml:"target"`
	Diagnostics DiagnosticsConfig `toml:"diagnostics"`
	Emulator    EmulatorConfig    `toml:"emulator"`
	Check       CheckConfig       `toml:"check"`
}

// GeneralConfig holds general settings
type GeneralConfig struct {
	LogLevel string `toml:"log_level"`
}

// TargetConfig holds the framing written around the generated instructions
type TargetConfig struct {
	Syntax string `toml:"syntax"`
	Global string `toml:"global"`
	Entry  string `toml:"entry"`
	Indent string `toml:"indent"`
}

// DiagnosticsConfig controls how compile errors are printed
type DiagnosticsConfig struct {
	Color ColorMode `toml:"color"`
}

// EmulatorConfig bounds runs of the built-in x86-64 emulator
type EmulatorConfig struct {
	MaxSteps   int `toml:"max_steps"`
	StackDepth int `toml:"stack_depth"`
}

// CheckConfig holds settings for batch case files
type CheckConfig struct {
	Jobs int `toml:"jobs"`
}

// ColorMode selects when diagnostics are coloured.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// UnmarshalText parses a colour mode
func (m *ColorMode) UnmarshalText(text []byte) error {
	switch mode := ColorMode(strings.ToLower(string(text))); mode {
	case ColorAuto, ColorAlways, ColorNever:
		*m = mode
		return nil
	}
	return fmt.Errorf("invalid color mode %q (want auto, always or never)", string(text))
}

// Enabled resolves the mode against whether the output is a terminal.
func (m ColorMode) Enabled(isTerminal bool) bool {
	switch m {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	return isTerminal
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	t := compiler.DefaultTarget()
	l := cpu.DefaultLimits()
	return &Config{
		General: GeneralConfig{LogLevel: "warn"},
		Target: TargetConfig{
			Syntax: t.Syntax,
			Global: t.Global,
			Entry:  t.Entry,
			Indent: t.Indent,
		},
		Diagnostics: DiagnosticsConfig{Color: ColorAuto},
		Emulator: EmulatorConfig{
			MaxSteps:   l.MaxSteps,
			StackDepth: l.StackDepth,
		},
		Check: CheckConfig{Jobs: 4},
	}
}

// Load loads configuration from a TOML file. Keys missing from the file keep
// their default values; unknown keys are an error.
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromEnv loads the file named by EXPRC_CONFIG, or the first of the
// default locations that exists. Without any file it returns Default().
func LoadFromEnv() (*Config, error) {
	if path := os.Getenv("EXPRC_CONFIG"); path != "" {
		return Load(path)
	}

	defaultPaths := []string{"./exprc.toml"}
	if home, err := os.UserHomeDir(); err == nil {
		defaultPaths = append(defaultPaths, filepath.Join(home, ".config", "exprc", "config.toml"))
	}
	for _, p := range defaultPaths {
		if _, err := os.Stat(p); err == nil {
			return Load(p)
		}
	}
	return Default(), nil
}

// Validate rejects settings that would produce unusable output.
func (c *Config) Validate() error {
	if c.Target.Syntax == "" {
		return fmt.Errorf("target.syntax must not be empty")
	}
	if c.Target.Global == "" {
		return fmt.Errorf("target.global must not be empty")
	}
	if c.Target.Entry == "" || strings.ContainsAny(c.Target.Entry, " \t:") {
		return fmt.Errorf("target.entry %q is not a valid label", c.Target.Entry)
	}
	if strings.Trim(c.Target.Indent, " \t") != "" {
		return fmt.Errorf("target.indent may only contain spaces and tabs")
	}
	if c.Emulator.MaxSteps < 0 {
		return fmt.Errorf("emulator.max_steps must not be negative")
	}
	if c.Emulator.StackDepth < 0 {
		return fmt.Errorf("emulator.stack_depth must not be negative")
	}
	if c.Check.Jobs < 1 {
		return fmt.Errorf("check.jobs must be at least 1")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// CompilerTarget returns the framing for compiler.Generate.
func (c *Config) CompilerTarget() compiler.Target {
	return compiler.Target{
		Syntax: c.Target.Syntax,
		Global: c.Target.Global,
		Entry:  c.Target.Entry,
		Indent: c.Target.Indent,
	}
}

// Limits returns the emulator bounds.
func (c *Config) Limits() cpu.Limits {
	return cpu.Limits{
		MaxSteps:   c.Emulator.MaxSteps,
		StackDepth: c.Emulator.StackDepth,
	}
}

// LogLevel parses general.log_level ("debug", "info", "warn", "error").
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.General.LogLevel)); err != nil {
		return 0, fmt.Errorf("general.log_level: %w", err)
	}
	return level, nil
}
