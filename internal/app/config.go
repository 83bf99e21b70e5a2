package app

import (
	"strings"
	"time"

	"github.com/pyplots/pyplots-backend/internal/platform/db"
	"github.com/pyplots/pyplots-backend/internal/platform/envutil"
	"github.com/pyplots/pyplots-backend/internal/storage"
)

type Config struct {
	Environment string
	Port        int
	BaseURL     string
	CORSOrigins []string

	CacheTTL     time.Duration
	CacheMaxSize int

	DB      db.Config
	Storage storage.Config

	PlotsDir    string
	OTELEnabled bool
}

func LoadConfig() Config {
	env := envutil.Get("ENVIRONMENT", "development")

	cfg := Config{
		Environment:  env,
		Port:         envutil.Int("PORT", 8000),
		BaseURL:      strings.TrimRight(envutil.Get("BASE_URL", "https://pyplots.ai"), "/"),
		CacheTTL:     time.Duration(envutil.Int("CACHE_TTL_SECONDS", 300)) * time.Second,
		CacheMaxSize: envutil.Int("CACHE_MAXSIZE", 1000),
		DB: db.Config{
			URL:                    envutil.Get("DATABASE_URL", ""),
			InstanceConnectionName: envutil.Get("INSTANCE_CONNECTION_NAME", ""),
			User:                   envutil.Get("DB_USER", ""),
			Pass:                   envutil.Get("DB_PASS", ""),
			Name:                   envutil.Get("DB_NAME", ""),
			Environment:            env,
		},
		Storage: storage.Config{
			Bucket: envutil.Get("STORAGE_BUCKET", "pyplots-data"),
			Host:   envutil.Get("STORAGE_HOST", "storage.googleapis.com"),
		},
		PlotsDir:    envutil.Get("PLOTS_DIR", "plots"),
		OTELEnabled: envutil.Bool("OTEL_ENABLED", false),
	}

	for _, origin := range strings.Split(envutil.Get("CORS_ORIGINS", ""), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{cfg.BaseURL}
	}
	return cfg
}
