package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("PORT", "")
	t.Setenv("BASEDIR", "")
	t.Setenv("UPLOAD_LEVEL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 34801 {
		t.Fatalf("unexpected default port %d", cfg.Port)
	}
	if cfg.StoreDriver != DriverPostgres {
		t.Fatalf("unexpected default driver %s", cfg.StoreDriver)
	}
	if cfg.UploadLevel != 50 {
		t.Fatalf("unexpected default upload level %d", cfg.UploadLevel)
	}
	if cfg.Route("admin/songs/upload") != "/admin/songs/upload" {
		t.Fatalf("unexpected route %s", cfg.Route("admin/songs/upload"))
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Mongo")
	t.Setenv("TAIKO_WEB_MONGO_HOST", "mongodb://db:27017")
	t.Setenv("TAIKO_WEB_REDIS_HOST", "cache")
	t.Setenv("BASEDIR", "taiko")
	t.Setenv("EXTRACT_TIMEOUT", "10s")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreDriver != DriverMongo {
		t.Fatalf("expected mongo driver, got %s", cfg.StoreDriver)
	}
	if cfg.MongoURI != "mongodb://db:27017" {
		t.Fatalf("unexpected mongo uri %s", cfg.MongoURI)
	}
	if cfg.RedisURL != "redis://cache:6379/0" {
		t.Fatalf("unexpected redis url %s", cfg.RedisURL)
	}
	if cfg.BaseDir != "/taiko/" {
		t.Fatalf("unexpected base dir %s", cfg.BaseDir)
	}
	if cfg.Route("/admin/songs") != "/taiko/admin/songs" {
		t.Fatalf("unexpected route %s", cfg.Route("/admin/songs"))
	}
	if cfg.Limits.ExtractTimeout != 10*time.Second {
		t.Fatalf("unexpected extract timeout %s", cfg.Limits.ExtractTimeout)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "cassandra")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestUploadLimitsValidate(t *testing.T) {
	if err := DefaultUploadLimits.Validate(); err != nil {
		t.Fatalf("defaults should be valid: %v", err)
	}
	limits := DefaultUploadLimits
	limits.MaxExtractedBytes = 0
	if err := limits.Validate(); err == nil {
		t.Fatalf("expected error for zero extracted cap")
	}
}
