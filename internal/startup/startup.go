package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"media-library/internal/logging"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information.
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds all service configuration.
type Config struct {
	LibraryRoot       string
	Port              string
	MetricsPort       string
	MetricsEnabled    bool
	ThumbnailsEnabled bool
	DefaultPageSize   int
	LogHealthChecks   bool
	ShutdownTimeout   time.Duration
}

// LoadConfig loads and validates configuration from environment variables.
// LIBRARY_ROOT may be empty; the service then starts without an open
// catalog and waits for a root to be selected over the API.
func LoadConfig() (*Config, error) {
	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	root := os.Getenv("LIBRARY_ROOT")
	port := getEnv("PORT", "8080")
	metricsPort := getEnv("METRICS_PORT", "9090")
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	thumbnailsEnabled := getEnvBool("THUMBNAILS_ENABLED", true)
	pageSize := getEnvInt("PAGE_SIZE", 100)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", true)

	logging.Info("  LIBRARY_ROOT:        %s", root)
	logging.Info("  PORT:                %s", port)
	logging.Info("  METRICS_PORT:        %s", metricsPort)
	logging.Info("  METRICS_ENABLED:     %v", metricsEnabled)
	logging.Info("  THUMBNAILS_ENABLED:  %v", thumbnailsEnabled)
	logging.Info("  PAGE_SIZE:           %d", pageSize)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", logHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	if root != "" {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve library root: %w", err)
		}
		root = abs

		if err := ValidateRoot(root); err != nil {
			return nil, err
		}
		logging.Info("  [OK] Library root is usable: %s", root)
	}

	if pageSize < 1 {
		pageSize = 100
	}

	return &Config{
		LibraryRoot:       root,
		Port:              port,
		MetricsPort:       metricsPort,
		MetricsEnabled:    metricsEnabled,
		ThumbnailsEnabled: thumbnailsEnabled,
		DefaultPageSize:   pageSize,
		LogHealthChecks:   logHealthChecks,
		ShutdownTimeout:   30 * time.Second,
	}, nil
}

// ValidateRoot checks that a candidate library root exists, is a directory
// and is writable (the catalog file lives directly beneath it).
func ValidateRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("library root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("library root is not a directory: %s", root)
	}

	testFile := filepath.Join(root, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("library root is not writable: %w", err)
	}
	_ = os.Remove(testFile)

	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid %s=%q, using default %v", key, value, fallback)
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid %s=%q, using default %d", key, value, fallback)
		return fallback
	}
	return parsed
}
