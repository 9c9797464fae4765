package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Epistemic-Technology/pdf-toolkit/internal/storage"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/throttle"
)

const (
	DefaultAddr            = ":5001"
	DefaultMaxUploadBytes  = 50 * 1024 * 1024
	DefaultJanitorInterval = 10 * time.Minute

	defaultDataDir = ".pdf-toolkit"
	defaultDBName  = "sessions.db"
)

// Config holds the settings shared by both front ends
type Config struct {
	Addr            string
	DBPath          string
	ScratchDir      string
	SessionTTL      time.Duration
	MaxUploadBytes  int64
	MaxWorkers      int
	PagesPerSecond  float64
	BurstPages      int
	JanitorInterval time.Duration
}

// Default returns the configuration used when no environment overrides are set.
// DBPath is left empty; FromEnv fills it in.
func Default() Config {
	return Config{
		Addr:            DefaultAddr,
		SessionTTL:      storage.DefaultSessionTTL,
		MaxUploadBytes:  DefaultMaxUploadBytes,
		MaxWorkers:      throttle.DefaultMaxWorkers,
		PagesPerSecond:  throttle.DefaultPagesPerSecond,
		BurstPages:      throttle.DefaultBurstPages,
		JanitorInterval: DefaultJanitorInterval,
	}
}

// FromEnv reads PDF_TOOLKIT_* variables over the defaults
func FromEnv() (Config, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if v, ok := lookup("PDF_TOOLKIT_ADDR"); ok && v != "" {
		cfg.Addr = v
	}
	if v, ok := lookup("PDF_TOOLKIT_DB_PATH"); ok && v != "" {
		cfg.DBPath = v
	}
	if v, ok := lookup("PDF_TOOLKIT_SCRATCH_DIR"); ok {
		cfg.ScratchDir = v
	}

	var err error
	if cfg.SessionTTL, err = durationVar(lookup, "PDF_TOOLKIT_SESSION_TTL", cfg.SessionTTL); err != nil {
		return cfg, err
	}
	if cfg.JanitorInterval, err = durationVar(lookup, "PDF_TOOLKIT_JANITOR_INTERVAL", cfg.JanitorInterval); err != nil {
		return cfg, err
	}

	maxUpload, err := intVar(lookup, "PDF_TOOLKIT_MAX_UPLOAD_BYTES", int(cfg.MaxUploadBytes))
	if err != nil {
		return cfg, err
	}
	cfg.MaxUploadBytes = int64(maxUpload)

	if cfg.MaxWorkers, err = intVar(lookup, "PDF_TOOLKIT_MAX_WORKERS", cfg.MaxWorkers); err != nil {
		return cfg, err
	}
	if cfg.BurstPages, err = intVar(lookup, "PDF_TOOLKIT_BURST_PAGES", cfg.BurstPages); err != nil {
		return cfg, err
	}

	if v, ok := lookup("PDF_TOOLKIT_PAGES_PER_SECOND"); ok && v != "" {
		pps, err := strconv.ParseFloat(v, 64)
		if err != nil || pps <= 0 {
			return cfg, fmt.Errorf("invalid PDF_TOOLKIT_PAGES_PER_SECOND %q: must be a positive number", v)
		}
		cfg.PagesPerSecond = pps
	}

	if cfg.DBPath == "" {
		if cfg.DBPath, err = defaultDBPath(); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

func durationVar(lookup func(string) (string, bool), name string, def time.Duration) (time.Duration, error) {
	v, ok := lookup(name)
	if !ok || v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive duration", name, v)
	}
	return d, nil
}

func intVar(lookup func(string) (string, bool), name string, def int) (int, error) {
	v, ok := lookup(name)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", name, v)
	}
	return n, nil
}

// defaultDBPath returns ~/.pdf-toolkit/sessions.db, creating the directory
func defaultDBPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	dbDir := filepath.Join(homeDir, defaultDataDir)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	return filepath.Join(dbDir, defaultDBName), nil
}

// Validate checks values that may have been overridden after FromEnv, e.g. by flags
func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("listen address must not be empty")
	case c.DBPath == "":
		return fmt.Errorf("database path must not be empty")
	case c.SessionTTL <= 0:
		return fmt.Errorf("session TTL must be positive, got %v", c.SessionTTL)
	case c.MaxUploadBytes <= 0:
		return fmt.Errorf("max upload bytes must be positive, got %d", c.MaxUploadBytes)
	case c.MaxWorkers <= 0:
		return fmt.Errorf("max workers must be positive, got %d", c.MaxWorkers)
	case c.PagesPerSecond <= 0:
		return fmt.Errorf("pages per second must be positive, got %v", c.PagesPerSecond)
	case c.BurstPages <= 0:
		return fmt.Errorf("burst pages must be positive, got %d", c.BurstPages)
	case c.JanitorInterval <= 0:
		return fmt.Errorf("janitor interval must be positive, got %v", c.JanitorInterval)
	}
	return nil
}
