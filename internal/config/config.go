package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type CoreConfig struct {
	DataDir      string
	StoreBackend string // "file" or "postgres"
	DatabaseURL  string
	Timezone     string
	CatalogPath  string
}

type WorkerConfig struct {
	Core       CoreConfig
	DriftEvery time.Duration
	RunOnce    bool
}

func LoadCoreFromEnv() CoreConfig {
	return CoreConfig{
		DataDir:      envDefault("BULL_DATA_DIR", defaultDataDir()),
		StoreBackend: envBackendDefault(),
		DatabaseURL:  strings.TrimSpace(os.Getenv("DATABASE_URL")),
		Timezone:     envDefault("BULL_TIMEZONE", "Asia/Shanghai"),
		CatalogPath:  strings.TrimSpace(os.Getenv("BULL_CATALOG_PATH")),
	}
}

func LoadWorkerFromEnv() (WorkerConfig, error) {
	cfg := WorkerConfig{
		Core:       LoadCoreFromEnv(),
		DriftEvery: envDurationDefault("BULL_DRIFT_EVERY", 30*time.Minute),
		RunOnce:    envBoolDefault("BULL_WORKER_RUN_ONCE", false),
	}
	if cfg.Core.StoreBackend == "postgres" && cfg.Core.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required with BULL_STORE_BACKEND=postgres")
	}
	return cfg, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "data"
	}
	return filepath.Join(home, ".bull")
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envBackendDefault() string {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("BULL_STORE_BACKEND")))
	switch v {
	case "file", "postgres":
		return v
	default:
		return "file"
	}
}
