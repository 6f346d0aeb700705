package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.ListenAddr != defaultListenAddr {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, defaultListenAddr)
	}
	if cfg.DatabasePath != defaultDatabasePath {
		t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, defaultDatabasePath)
	}
	if cfg.ExportTokenTTL != defaultExportTokenTTL {
		t.Errorf("ExportTokenTTL = %v, want %v", cfg.ExportTokenTTL, defaultExportTokenTTL)
	}
	if cfg.MaxUploadBytes != defaultMaxUploadMB*1024*1024 {
		t.Errorf("MaxUploadBytes = %d, want %d MB", cfg.MaxUploadBytes, defaultMaxUploadMB)
	}
}

func TestLoad_ClampsMaxUploadSize(t *testing.T) {
	t.Setenv("MAX_UPLOAD_SIZE_MB", "5000")
	cfg := Load()
	if want := int64(maxMaxUploadMB) * 1024 * 1024; cfg.MaxUploadBytes != want {
		t.Errorf("MaxUploadBytes = %d, want clamped %d", cfg.MaxUploadBytes, want)
	}

	t.Setenv("MAX_UPLOAD_SIZE_MB", "0")
	cfg = Load()
	if want := int64(minMaxUploadMB) * 1024 * 1024; cfg.MaxUploadBytes != want {
		t.Errorf("MaxUploadBytes = %d, want clamped %d", cfg.MaxUploadBytes, want)
	}
}

func TestLoad_ParsesAllowedOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,  ")
	cfg := Load()

	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.AllowedOrigins) != len(want) {
		t.Fatalf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
	}
	for i, o := range want {
		if cfg.AllowedOrigins[i] != o {
			t.Errorf("AllowedOrigins[%d] = %q, want %q", i, cfg.AllowedOrigins[i], o)
		}
	}
}

func TestLoad_ParsesExportTokenTTL(t *testing.T) {
	t.Setenv("EXPORT_TOKEN_TTL", "45s")
	cfg := Load()
	if cfg.ExportTokenTTL != 45*time.Second {
		t.Errorf("ExportTokenTTL = %v, want 45s", cfg.ExportTokenTTL)
	}

	t.Setenv("EXPORT_TOKEN_TTL", "not-a-duration")
	cfg = Load()
	if cfg.ExportTokenTTL != defaultExportTokenTTL {
		t.Errorf("ExportTokenTTL = %v, want default %v on unparsable input", cfg.ExportTokenTTL, defaultExportTokenTTL)
	}
}

func TestLoad_DetectorPoolSizeDefaultsToAuto(t *testing.T) {
	cfg := Load()
	if cfg.DetectorPoolSize != 0 {
		t.Errorf("DetectorPoolSize = %d, want 0 (auto) with no override", cfg.DetectorPoolSize)
	}

	t.Setenv("DETECTOR_POOL_SIZE", "4")
	cfg = Load()
	if cfg.DetectorPoolSize != 4 {
		t.Errorf("DetectorPoolSize = %d, want 4", cfg.DetectorPoolSize)
	}
}
