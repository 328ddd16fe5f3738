// Package config loads histedit's optional settings file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/roasbeef/histedit/history"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ColorMode controls colored text output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// Theme is the presentation layer's color scheme.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// UI holds settings that only the presentation layer reads.
type UI struct {
	Theme    Theme `yaml:"theme"`
	FontSize int   `yaml:"font_size"`
}

// Settings is the contents of the settings file.
type Settings struct {
	// GitPath is the git executable. Empty means git on $PATH.
	GitPath string `yaml:"git_path"`

	// Reader picks the commit range backend.
	Reader history.Backend `yaml:"reader"`

	// LogLevel is a logrus level name.
	LogLevel string `yaml:"log_level"`

	// Color controls colored output.
	Color ColorMode `yaml:"color"`

	// Editor, if set, is opened on the terminal for commit messages the
	// command line does not supply.
	Editor string `yaml:"editor"`

	// ScratchDir holds the per-run editor scripts. Empty means the system
	// temp dir.
	ScratchDir string `yaml:"scratch_dir"`

	UI UI `yaml:"ui"`
}

// Default returns the settings used when no file exists.
func Default() Settings {
	return Settings{
		Reader:   history.BackendCLI,
		LogLevel: "warn",
		Color:    ColorAuto,
		UI: UI{
			Theme:    ThemeDark,
			FontSize: 13,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/histedit/config.yaml, falling back
// to the platform's user config directory.
func DefaultPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		var err error
		dir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("failed to locate config dir: %w", err)
		}
	}

	return filepath.Join(dir, "histedit", "config.yaml"), nil
}

// Load reads the settings file at path on top of the defaults. A missing
// file is not an error unless explicit is set.
func Load(path string, explicit bool) (Settings, error) {
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		logrus.WithField("path", path).Debug("No settings file, using " +
			"defaults")

		return Default(), nil

	case err != nil:
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}

	s, err := Parse(data)
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}

	return s, nil
}

// Parse decodes settings from YAML on top of the defaults and validates
// them. Unknown keys are rejected.
func Parse(data []byte) (Settings, error) {
	s := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Settings{}, fmt.Errorf("failed to parse settings: %w", err)
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}

	return s, nil
}

// Validate checks every enumerated and ranged setting.
func (s Settings) Validate() error {
	switch s.Reader {
	case history.BackendCLI, history.BackendNative:
	default:
		return &InvalidSettingError{
			Key: "reader", Value: string(s.Reader),
			Reason: "must be cli or native",
		}
	}

	if _, err := logrus.ParseLevel(s.LogLevel); err != nil {
		return &InvalidSettingError{
			Key: "log_level", Value: s.LogLevel, Reason: err.Error(),
		}
	}

	switch s.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return &InvalidSettingError{
			Key: "color", Value: string(s.Color),
			Reason: "must be auto, always or never",
		}
	}

	return s.UI.Validate()
}

// Validate checks the UI settings.
func (u UI) Validate() error {
	switch u.Theme {
	case ThemeDark, ThemeLight:
	default:
		return &InvalidSettingError{
			Key: "ui.theme", Value: string(u.Theme),
			Reason: "must be dark or light",
		}
	}

	if u.FontSize < 6 || u.FontSize > 72 {
		return &InvalidSettingError{
			Key: "ui.font_size", Value: fmt.Sprint(u.FontSize),
			Reason: "must be between 6 and 72",
		}
	}

	return nil
}

// Level returns the parsed log level. Settings are validated on load, so an
// unparsable level only happens for hand-built values and maps to warn.
func (s Settings) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(s.LogLevel)
	if err != nil {
		return logrus.WarnLevel
	}

	return lvl
}

// InvalidSettingError is returned for a setting with a bad value.
type InvalidSettingError struct {
	Key    string
	Value  string
	Reason string
}

func (e *InvalidSettingError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Key, e.Value, e.Reason)
}
