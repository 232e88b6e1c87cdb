package config

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

var configKeys = []string{
	"ENABLE_FILE_LOGGING", "CAPTURE_ON_START", "NOTIFY_ON_COPY",
	"DIM_OPACITY", "HIGHLIGHT_COLOR", EnvPathEnvVar,
}

// clearEnv empties every key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadWithOptions(LoadOptions{})
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.EnableFileLogging || cfg.CaptureOnStart {
		t.Errorf("unexpected flags: %+v", cfg)
	}
	if !cfg.NotifyOnCopy {
		t.Error("Expected NotifyOnCopy to default to true")
	}
	if cfg.DimOpacity != DefaultDimOpacity {
		t.Errorf("DimOpacity = %d, want %d", cfg.DimOpacity, DefaultDimOpacity)
	}
	if want := (color.RGBA{R: 0x00, G: 0x78, B: 0xd7, A: 0xff}); cfg.HighlightColor != want {
		t.Errorf("HighlightColor = %#v, want %#v", cfg.HighlightColor, want)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENABLE_FILE_LOGGING", "true")
	t.Setenv("CAPTURE_ON_START", "1")
	t.Setenv("NOTIFY_ON_COPY", "false")
	t.Setenv("DIM_OPACITY", "200")
	t.Setenv("HIGHLIGHT_COLOR", "#ff8000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	if !cfg.EnableFileLogging || !cfg.CaptureOnStart || cfg.NotifyOnCopy {
		t.Errorf("flags = %+v", cfg)
	}
	if cfg.DimOpacity != 200 {
		t.Errorf("DimOpacity = %d", cfg.DimOpacity)
	}
	if want := (color.RGBA{R: 0xff, G: 0x80, B: 0x00, A: 0xff}); cfg.HighlightColor != want {
		t.Errorf("HighlightColor = %#v", cfg.HighlightColor)
	}
}

func TestLoadFromDotenvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "winshifts.env")
	data := "CAPTURE_ON_START=true\nDIM_OPACITY=64\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv.Load sets variables; make sure they are removed afterwards.
	t.Cleanup(func() {
		os.Unsetenv("CAPTURE_ON_START")
		os.Unsetenv("DIM_OPACITY")
	})

	cfg, err := LoadWithOptions(LoadOptions{EnvPathOverride: path})
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.EnvPath != path || !cfg.CaptureOnStart || cfg.DimOpacity != 64 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestProcessEnvironmentWinsOverDotenv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("DIM_OPACITY=10\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DIM_OPACITY", "99")

	cfg, err := LoadWithOptions(LoadOptions{EnvPathOverride: path})
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.DimOpacity != 99 {
		t.Errorf("DimOpacity = %d, want 99", cfg.DimOpacity)
	}
}

func TestMissingDotenvFile(t *testing.T) {
	clearEnv(t)
	_, err := LoadWithOptions(LoadOptions{EnvPathOverride: filepath.Join(t.TempDir(), "missing.env")})
	if err == nil {
		t.Fatal("expected an error for a missing override file")
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("DIM_OPACITY", "300")
	t.Setenv("HIGHLIGHT_COLOR", "blue")
	t.Setenv("NOTIFY_ON_COPY", "maybe")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.DimOpacity != DefaultDimOpacity || !cfg.NotifyOnCopy {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.HighlightColor.B != 0xd7 {
		t.Errorf("HighlightColor = %#v, want default", cfg.HighlightColor)
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{"#0078D7", color.RGBA{R: 0x00, G: 0x78, B: 0xd7, A: 0xff}, false},
		{"ffffff", color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, false},
		{" #102030 ", color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff}, false},
		{"#fff", color.RGBA{}, true},
		{"#gggggg", color.RGBA{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHexColor(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseHexColor(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}
