package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chazu/meshup/pkg/meshup"
)

func useTempConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	configDirOverride = dir
	t.Cleanup(func() { configDirOverride = "" })
	return dir
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "meshup.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Units != "mm" {
		t.Errorf("expected default units mm, got %q", cfg.Units)
	}
	if cfg.Export.Format != FormatSTL {
		t.Errorf("expected default format stl, got %q", cfg.Export.Format)
	}
	if d, err := cfg.EngineTimeout(); err != nil || d != 5*time.Second {
		t.Errorf("EngineTimeout() = %v, %v; want 5s", d, err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/test-xdg-config")
	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir failed: %v", err)
	}
	if want := filepath.Join("/tmp/test-xdg-config", AppName); dir != want {
		t.Errorf("ConfigDir() = %q, want %q", dir, want)
	}

	override := useTempConfigDir(t)
	if dir, _ := ConfigDir(); dir != override {
		t.Errorf("override ignored: %q", dir)
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	useTempConfigDir(t)
	cfg, path, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if path != "" {
		t.Errorf("resolved path = %q, want empty", path)
	}
	if cfg.Tessellation.SphereSegments != meshup.DefaultSphereSegments {
		t.Errorf("sphere segments = %d", cfg.Tessellation.SphereSegments)
	}
}

func TestLoadFile(t *testing.T) {
	dir := useTempConfigDir(t)
	path := writeConfig(t, dir, `
units = "in"

[tessellation]
sphere_segments = 12

[engine]
timeout = "250ms"

[export]
format = "3mf"
up_axis = "y"
`)
	cfg, resolved, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if resolved != path {
		t.Errorf("resolved = %q, want %q", resolved, path)
	}
	if cfg.Units != "in" || cfg.Export.Format != Format3MF {
		t.Errorf("units/format = %q/%q", cfg.Units, cfg.Export.Format)
	}
	if cfg.Tessellation.SphereSegments != 12 {
		t.Errorf("sphere segments = %d, want 12", cfg.Tessellation.SphereSegments)
	}
	// Unset keys keep their defaults.
	if cfg.Tessellation.SphereStacks != meshup.DefaultSphereStacks {
		t.Errorf("sphere stacks = %d, want default", cfg.Tessellation.SphereStacks)
	}
	if d, _ := cfg.EngineTimeout(); d != 250*time.Millisecond {
		t.Errorf("timeout = %v", d)
	}
	if cfg.UpAxis() != meshup.AxisY {
		t.Errorf("UpAxis() = %q", cfg.UpAxis())
	}

	s := meshup.NewSession(nil, cfg.Options()...)
	if o := s.Options(); o.SphereSegments != 12 || o.Units != "in" {
		t.Errorf("session options = %+v", o)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := useTempConfigDir(t)
	if _, _, err := Load(filepath.Join(dir, "missing.toml")); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("missing file error = %v, want ErrConfigNotFound", err)
	}

	tests := []struct {
		name string
		body string
	}{
		{"bad format", "[export]\nformat = \"obj\"\n"},
		{"bad axis", "[export]\nup_axis = \"w\"\n"},
		{"bad timeout", "[engine]\ntimeout = \"soon\"\n"},
		{"negative timeout", "[engine]\ntimeout = \"-1s\"\n"},
		{"bad level", "[log]\nlevel = \"loud\"\n"},
		{"negative tolerance", "[tessellation]\ntolerance = -0.5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.body)
			if _, _, err := Load(path); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error = %v, want ErrInvalidConfig", err)
			}
		})
	}

	path := writeConfig(t, t.TempDir(), "units = [")
	if _, _, err := Load(path); err == nil {
		t.Error("expected parse error for malformed TOML")
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	useTempConfigDir(t)
	path, err := CreateDefaultConfig()
	if err != nil {
		t.Fatalf("CreateDefaultConfig failed: %v", err)
	}
	if !fileExists(path) {
		t.Fatalf("config file not created at %s", path)
	}

	cfg, resolved, err := Load("")
	if err != nil {
		t.Fatalf("Load after create failed: %v", err)
	}
	if resolved != path {
		t.Errorf("resolved = %q, want %q", resolved, path)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("round trip changed config: %+v", cfg)
	}

	// An existing file is left alone.
	if err := os.WriteFile(path, []byte("units = \"cm\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := CreateDefaultConfig(); err != nil {
		t.Fatalf("second CreateDefaultConfig failed: %v", err)
	}
	if cfg, _, _ := Load(""); cfg.Units != "cm" {
		t.Errorf("existing config overwritten, units = %q", cfg.Units)
	}
}
