// Package config collects the process's environment-derived settings into
// one struct instead of scattering os.Getenv reads through main.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultDetectorPoolSize = 0 // 0 means "use detectpool.DefaultSize()"
	defaultMaxUploadMB      = 100
	minMaxUploadMB          = 1
	maxMaxUploadMB          = 100
	defaultDatabasePath     = "faceguard.db"
	defaultExportTokenTTL   = 10 * time.Minute
	defaultFFmpegPath       = "ffmpeg"
	defaultFFprobePath      = "ffprobe"
	defaultListenAddr       = ":8080"
)

// Config holds every environment-derived setting the server needs.
type Config struct {
	ListenAddr       string
	DetectorPoolSize int // 0 = auto (detectpool.DefaultSize())
	DetectorEndpoint string
	MaxUploadBytes   int64
	APIKey           string
	AllowedOrigins   []string
	DevMode          bool
	DatabasePath     string
	JWTSecret        string
	ExportTokenTTL   time.Duration
	FFmpegPath       string
	FFprobePath      string
}

// Load reads Config from the process environment, applying the defaults
// and clamps values to sane ranges.
func Load() Config {
	cfg := Config{
		ListenAddr:       envOr("LISTEN_ADDR", defaultListenAddr),
		DetectorPoolSize: defaultDetectorPoolSize,
		DetectorEndpoint: os.Getenv("DETECTOR_ENDPOINT"),
		MaxUploadBytes:   int64(clampInt(envInt("MAX_UPLOAD_SIZE_MB", defaultMaxUploadMB), minMaxUploadMB, maxMaxUploadMB)) * 1024 * 1024,
		APIKey:           os.Getenv("API_KEY"),
		DevMode:          os.Getenv("DEV_MODE") == "true",
		DatabasePath:     envOr("DATABASE_PATH", defaultDatabasePath),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		ExportTokenTTL:   defaultExportTokenTTL,
		FFmpegPath:       envOr("FFMPEG_PATH", defaultFFmpegPath),
		FFprobePath:      envOr("FFPROBE_PATH", defaultFFprobePath),
	}

	if n := envInt("DETECTOR_POOL_SIZE", 0); n > 0 {
		cfg.DetectorPoolSize = n
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}
	if ttl := os.Getenv("EXPORT_TOKEN_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			cfg.ExportTokenTTL = d
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
