package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"MITHRIL_PORT", "MITHRIL_DATABASE_URL", "MITHRIL_PUBLISHED_AT_POLICY",
		"MITHRIL_MEDIA_DIR", "MITHRIL_UPLOAD_RATE_PER_MINUTE", "MITHRIL_DEV_MODE",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
	if cfg.PublishedAtPolicy != "retain" {
		t.Errorf("PublishedAtPolicy = %q, want %q", cfg.PublishedAtPolicy, "retain")
	}
	if cfg.MediaDir != "./media" {
		t.Errorf("MediaDir = %q, want %q", cfg.MediaDir, "./media")
	}
	if cfg.UploadRatePerMinute != 60 {
		t.Errorf("UploadRatePerMinute = %d, want 60", cfg.UploadRatePerMinute)
	}
	if cfg.DevMode {
		t.Error("DevMode should default to false")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MITHRIL_PORT", "9090")
	t.Setenv("MITHRIL_DEV_MODE", "true")
	t.Setenv("MITHRIL_PUBLISHED_AT_POLICY", "manual")
	t.Setenv("MITHRIL_S3_BUCKET", "assets")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if !cfg.DevMode {
		t.Error("DevMode = false, want true")
	}
	if cfg.PublishedAtPolicy != "manual" {
		t.Errorf("PublishedAtPolicy = %q, want %q", cfg.PublishedAtPolicy, "manual")
	}
	if cfg.S3Bucket != "assets" {
		t.Errorf("S3Bucket = %q, want %q", cfg.S3Bucket, "assets")
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("MITHRIL_PORT", "not-a-port")
	t.Setenv("MITHRIL_DEV_MODE", "maybe")

	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want default 8080", cfg.Port)
	}
	if cfg.DevMode {
		t.Error("DevMode should fall back to false")
	}
}
