package config

import (
	"fmt"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// EnvPathEnvVar names an alternative .env file, used when none sits
	// beside the executable.
	EnvPathEnvVar = "WINSHIFTS_ENV"

	DefaultDimOpacity     = 128
	DefaultHighlightColor = "#0078D7"
)

type LoadOptions struct {
	// EnvPathOverride replaces .env discovery.
	EnvPathOverride string
}

type Config struct {
	EnvPath           string
	EnableFileLogging bool
	CaptureOnStart    bool
	NotifyOnCopy      bool
	DimOpacity        uint8
	HighlightColor    color.RGBA
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Load configuration from sources in priority order:
	// 1) .env in the application (executable) directory
	// 2) If not found, use WINSHIFTS_ENV as a path to a config file
	// Variables already set in the process environment win over the file.
	envPath := strings.TrimSpace(opts.EnvPathOverride)
	if envPath == "" {
		envPath = resolveEnvPath()
	}
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", envPath, err)
		}
	}

	highlight, err := ParseHexColor(getEnvWithDefault("HIGHLIGHT_COLOR", DefaultHighlightColor))
	if err != nil {
		log.Printf("Config: %v; using %s", err, DefaultHighlightColor)
		highlight, _ = ParseHexColor(DefaultHighlightColor)
	}

	cfg := &Config{
		EnvPath:           envPath,
		EnableFileLogging: getEnvBool("ENABLE_FILE_LOGGING", false),
		CaptureOnStart:    getEnvBool("CAPTURE_ON_START", false),
		NotifyOnCopy:      getEnvBool("NOTIFY_ON_COPY", true),
		DimOpacity:        resolveDimOpacity(os.Getenv("DIM_OPACITY")),
		HighlightColor:    highlight,
	}
	return cfg, nil
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(EnvPathEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "":
		return defaultValue
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		log.Printf("Config: %s=%q is not a boolean; using %v", key, v, defaultValue)
		return defaultValue
	}
}

func resolveDimOpacity(value string) uint8 {
	value = strings.TrimSpace(value)
	if value == "" {
		return DefaultDimOpacity
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 || n > 255 {
		log.Printf("Config: DIM_OPACITY=%q out of range 0-255; using %d", value, DefaultDimOpacity)
		return DefaultDimOpacity
	}
	return uint8(n)
}

// ParseHexColor parses "#RRGGBB" (the '#' is optional) into an opaque colour.
func ParseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: want #RRGGBB", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
