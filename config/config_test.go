package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig(\"\") error = %v", err)
	}
	if cfg.Scan.Algorithm != "cie2000" || cfg.Scan.SampleStride != 2 || cfg.Select.Ratio != "16x9" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Scan.Threads < 1 {
		t.Errorf("default threads = %d", cfg.Scan.Threads)
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
  storeName: walls
  dir: /tmp/stores
scan:
  topCrop: 0.05
  algorithm: "1"
  threads: 3
  timeout: 90s
select:
  ratio: "21:9"
  ratioDeviation: "5%"
  minWidth: 1280
  collision: rename
log:
  debug: true
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Database.Driver != "sqlite" || cfg.DatabasePath() != filepath.Join("/tmp/stores", "walls.db") {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.Scan.TopCrop != 0.05 || cfg.Scan.BottomCrop != 0.1 {
		t.Errorf("crops = %v/%v, want file value and default", cfg.Scan.TopCrop, cfg.Scan.BottomCrop)
	}
	if cfg.Scan.Threads != 3 || cfg.Scan.Timeout != 90*time.Second {
		t.Errorf("scan = %+v", cfg.Scan)
	}
	if cfg.Select.MinWidth != 1280 || cfg.Select.Collision != "rename" || cfg.Select.MaxDeviation != 5 {
		t.Errorf("select = %+v", cfg.Select)
	}
	if !cfg.Log.Debug {
		t.Error("log.debug not loaded")
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"crop out of range", "scan:\n  topCrop: 1.2\n"},
		{"crops overlap", "scan:\n  topCrop: 0.6\n  bottomCrop: 0.5\n"},
		{"zero stride", "scan:\n  sampleStride: 0\n"},
		{"unknown algorithm", "scan:\n  algorithm: euclid\n"},
		{"unknown driver", "database:\n  driver: postgres\n"},
		{"bad ratio", "select:\n  ratio: wide\n"},
		{"bad deviation", "select:\n  ratioDeviation: lots\n"},
		{"bad collision", "select:\n  collision: merge\n"},
		{"bad select algorithm", "select:\n  algorithm: \"7\"\n"},
		{"negative max deviation", "select:\n  maxDeviation: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.yaml))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("LoadConfig() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoadConfigFileErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should fail")
	}
	if _, err := LoadConfig(writeConfig(t, "scan: [unclosed")); err == nil {
		t.Error("malformed YAML should fail")
	}
}

func TestResolvePath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/etc/wallsieve.yaml")
	if got := ResolvePath("explicit.yaml"); got != "explicit.yaml" {
		t.Errorf("ResolvePath(explicit) = %q", got)
	}
	if got := ResolvePath(""); got != "/etc/wallsieve.yaml" {
		t.Errorf("ResolvePath from env = %q", got)
	}

	t.Setenv("CONFIG_PATH", "")
	t.Chdir(t.TempDir())
	if got := ResolvePath(""); got != "" {
		t.Errorf("ResolvePath with nothing present = %q, want empty", got)
	}
	if err := os.WriteFile(DefaultPath, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := ResolvePath(""); got != DefaultPath {
		t.Errorf("ResolvePath with ./config.yaml = %q", got)
	}
}
