// Package config loads meshup CLI settings from a TOML file using Viper and
// maps them onto session options and export defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/chazu/meshup/pkg/engine"
	"github.com/chazu/meshup/pkg/meshup"
)

const (
	// AppName is the application name.
	AppName = "meshup"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "toml"
)

// Export formats understood by the CLI.
const (
	FormatSTL   = "stl"
	FormatASCII = "stl-ascii"
	FormatAMF   = "amf"
	FormatGLTF  = "gltf"
	Format3MF   = "3mf"
	FormatSVG   = "svg"
	FormatDXF   = "dxf"
)

// Formats lists every accepted export format.
var Formats = []string{FormatSTL, FormatASCII, FormatAMF, FormatGLTF, Format3MF, FormatSVG, FormatDXF}

var (
	// ErrConfigNotFound is returned when an explicit config path does not exist.
	ErrConfigNotFound = errors.New("config file not found")
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// configDirOverride lets tests point ConfigDir at a temporary directory.
var configDirOverride string

type (
	// Config is the on-disk configuration.
	Config struct {
		Units        string             `toml:"units" mapstructure:"units"`
		Tessellation TessellationConfig `toml:"tessellation" mapstructure:"tessellation"`
		Engine       EngineConfig       `toml:"engine" mapstructure:"engine"`
		Export       ExportConfig       `toml:"export" mapstructure:"export"`
		Log          LogConfig          `toml:"log" mapstructure:"log"`
	}

	// TessellationConfig controls primitive resolution and curve sampling.
	TessellationConfig struct {
		SphereSegments   int     `toml:"sphere_segments" mapstructure:"sphere_segments"`
		SphereStacks     int     `toml:"sphere_stacks" mapstructure:"sphere_stacks"`
		CylinderSegments int     `toml:"cylinder_segments" mapstructure:"cylinder_segments"`
		Tolerance        float64 `toml:"tolerance" mapstructure:"tolerance"`
	}

	// EngineConfig controls script evaluation.
	EngineConfig struct {
		// Timeout is a Go duration string such as "5s".
		Timeout string `toml:"timeout" mapstructure:"timeout"`
	}

	// ExportConfig holds defaults for the eval command's output.
	ExportConfig struct {
		Format    string `toml:"format" mapstructure:"format"`
		UpAxis    string `toml:"up_axis" mapstructure:"up_axis"`
		OutputDir string `toml:"output_dir" mapstructure:"output_dir"`
	}

	// LogConfig selects the log level.
	LogConfig struct {
		Level string `toml:"level" mapstructure:"level"`
	}
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Units: meshup.DefaultUnits,
		Tessellation: TessellationConfig{
			SphereSegments:   meshup.DefaultSphereSegments,
			SphereStacks:     meshup.DefaultSphereStacks,
			CylinderSegments: meshup.DefaultCylinderSegments,
			Tolerance:        meshup.DefaultTessellationTol,
		},
		Engine: EngineConfig{Timeout: engine.EvalTimeout.String()},
		Export: ExportConfig{
			Format:    FormatSTL,
			UpAxis:    string(meshup.AxisZ),
			OutputDir: ".",
		},
		Log: LogConfig{Level: "info"},
	}
}

// ConfigDir returns $XDG_CONFIG_HOME/meshup, defaulting to ~/.config/meshup.
//
//nolint:revive // ConfigDir reads better than Dir at call sites
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, AppName), nil
}

// DefaultPath returns the path of the user config file.
func DefaultPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// Load reads the configuration. An explicit path must exist; with an empty
// path the user config file is used when present and defaults otherwise.
// It returns the resolved file path, or "" when only defaults apply.
func Load(path string) (*Config, string, error) {
	v := viper.New()
	v.SetConfigType(ConfigFileExt)

	defaults := DefaultConfig()
	v.SetDefault("units", defaults.Units)
	v.SetDefault("tessellation.sphere_segments", defaults.Tessellation.SphereSegments)
	v.SetDefault("tessellation.sphere_stacks", defaults.Tessellation.SphereStacks)
	v.SetDefault("tessellation.cylinder_segments", defaults.Tessellation.CylinderSegments)
	v.SetDefault("tessellation.tolerance", defaults.Tessellation.Tolerance)
	v.SetDefault("engine.timeout", defaults.Engine.Timeout)
	v.SetDefault("export.format", defaults.Export.Format)
	v.SetDefault("export.up_axis", defaults.Export.UpAxis)
	v.SetDefault("export.output_dir", defaults.Export.OutputDir)
	v.SetDefault("log.level", defaults.Log.Level)

	resolved := ""
	if path != "" {
		if !fileExists(path) {
			return nil, "", fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		resolved = path
	} else {
		p, err := DefaultPath()
		if err != nil {
			return nil, "", err
		}
		if fileExists(p) {
			resolved = p
		}
	}

	if resolved != "" {
		v.SetConfigFile(resolved)
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("failed to read config file %s: %w", resolved, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, resolved, nil
}

// Validate checks values that the decoder cannot.
func (c *Config) Validate() error {
	if _, err := c.EngineTimeout(); err != nil {
		return err
	}
	if !IsFormat(c.Export.Format) {
		return fmt.Errorf("%w: export.format %q (want one of %s)", ErrInvalidConfig, c.Export.Format, strings.Join(Formats, ", "))
	}
	if _, err := meshup.ParseAxis(c.Export.UpAxis); err != nil {
		return fmt.Errorf("%w: export.up_axis: %w", ErrInvalidConfig, err)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %w", ErrInvalidConfig, err)
	}
	if c.Tessellation.Tolerance < 0 {
		return fmt.Errorf("%w: tessellation.tolerance must not be negative", ErrInvalidConfig)
	}
	return nil
}

// EngineTimeout parses Engine.Timeout.
func (c *Config) EngineTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Engine.Timeout)
	if err != nil {
		return 0, fmt.Errorf("%w: engine.timeout: %w", ErrInvalidConfig, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: engine.timeout must be positive, got %s", ErrInvalidConfig, d)
	}
	return d, nil
}

// UpAxis returns the parsed export up axis, falling back to Z.
func (c *Config) UpAxis() meshup.Axis {
	a, err := meshup.ParseAxis(c.Export.UpAxis)
	if err != nil {
		return meshup.AxisZ
	}
	return a
}

// Options converts the configuration into session options.
func (c *Config) Options() []meshup.Option {
	t := c.Tessellation
	return []meshup.Option{
		meshup.WithSegments(t.SphereSegments, t.SphereStacks, t.CylinderSegments),
		meshup.WithTessellationTolerance(t.Tolerance),
		meshup.WithUnits(c.Units),
	}
}

// IsFormat reports whether f names a supported export format.
func IsFormat(f string) bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// Marshal encodes cfg as TOML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return data, nil
}

// CreateDefaultConfig writes the default config file unless one exists.
// It returns the file path.
func CreateDefaultConfig() (string, error) {
	path, err := DefaultPath()
	if err != nil {
		return "", err
	}
	if fileExists(path) {
		return path, nil
	}
	return path, Save(DefaultConfig())
}

// Save writes cfg to the user config file.
func Save(cfg *Config) error {
	path, err := DefaultPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}
