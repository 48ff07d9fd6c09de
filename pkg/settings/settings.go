// SPDX-License-Identifier: MIT

// Package settings carries the host-tunable knobs of the filter
// runner: the output-message mode that selects the command-line
// preamble, the host/toolkit tags advertised to the engine, and the
// subprocess engine configuration.
package settings

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// OutputMessageMode controls the verbosity preamble prepended to every
// composed engine command line.
type OutputMessageMode int

const (
	OutputUnspecified OutputMessageMode = iota
	OutputQuiet
	OutputVerboseConsole
	OutputVerboseLogFile
	OutputDebugConsole
	OutputDebugLogFile
)

// PreambleCommand returns the engine command establishing the mode,
// empty for OutputUnspecified.
func (m OutputMessageMode) PreambleCommand() string {
	switch m {
	case OutputQuiet:
		return "v -"
	case OutputVerboseConsole, OutputVerboseLogFile:
		return "v 0"
	case OutputDebugConsole, OutputDebugLogFile:
		return "debug 1"
	default:
		return ""
	}
}

var modeNames = map[string]OutputMessageMode{
	"":                OutputUnspecified,
	"quiet":           OutputQuiet,
	"verbose-console": OutputVerboseConsole,
	"verbose-logfile": OutputVerboseLogFile,
	"debug-console":   OutputDebugConsole,
	"debug-logfile":   OutputDebugLogFile,
}

// ParseOutputMessageMode maps a settings-file value to a mode.
func ParseOutputMessageMode(s string) (OutputMessageMode, error) {
	m, ok := modeNames[s]
	if !ok {
		return OutputUnspecified, fmt.Errorf("unknown output message mode %q", s)
	}
	return m, nil
}

// EngineSettings configures the subprocess engine adapter.
type EngineSettings struct {
	Binary      string   `yaml:"binary,omitempty"`
	Args        []string `yaml:"args,omitempty"`
	KillTimeout string   `yaml:"killTimeout,omitempty"` // e.g. "5s"
}

// KillTimeoutDuration returns the parsed kill timeout, falling back to
// 5s when unset.
func (e EngineSettings) KillTimeoutDuration() time.Duration {
	if e.KillTimeout == "" {
		return 5 * time.Second
	}
	d, err := time.ParseDuration(e.KillTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// Settings is the YAML settings-file structure.
type Settings struct {
	OutputMessages string         `yaml:"outputMessages,omitempty"`
	HostTag        string         `yaml:"hostTag,omitempty"`
	ToolTag        string         `yaml:"toolTag,omitempty"`
	Engine         EngineSettings `yaml:"engine,omitempty"`
}

// Default returns the settings used when no file is present.
func Default() Settings {
	return Settings{
		OutputMessages: "quiet",
		HostTag:        "filterkit",
		ToolTag:        "go",
		Engine: EngineSettings{
			KillTimeout: "5s",
		},
	}
}

// Parse decodes YAML settings over the defaults and validates them.
func Parse(data []byte) (Settings, error) {
	s := Default()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	if _, err := ParseOutputMessageMode(s.OutputMessages); err != nil {
		return Settings{}, err
	}
	if s.Engine.KillTimeout != "" {
		if _, err := time.ParseDuration(s.Engine.KillTimeout); err != nil {
			return Settings{}, fmt.Errorf("invalid engine killTimeout: %w", err)
		}
	}
	return s, nil
}

// Load reads and parses a settings file.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- host-chosen path
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	return Parse(data)
}

// Mode returns the configured output-message mode. Settings produced
// by Parse are always valid; anything else falls back to unspecified.
func (s Settings) Mode() OutputMessageMode {
	m, err := ParseOutputMessageMode(s.OutputMessages)
	if err != nil {
		return OutputUnspecified
	}
	return m
}
