package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.FileExt != "hl7" {
		t.Errorf("expected default extension hl7, got %s", cfg.FileExt)
	}
	if cfg.WorkDir != "." {
		t.Errorf("expected default work dir '.', got %s", cfg.WorkDir)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level info, got %s", cfg.LogLevel)
	}
	if len(cfg.CORSOrigins) == 0 {
		t.Error("expected default CORS origins")
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("FILE_EXT", "txt")
	t.Setenv("WORK_DIR", "/tmp/hl7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.FileExt != "txt" {
		t.Errorf("expected FILE_EXT txt, got %s", cfg.FileExt)
	}
	if cfg.WorkDir != "/tmp/hl7" {
		t.Errorf("expected WORK_DIR /tmp/hl7, got %s", cfg.WorkDir)
	}
}

func TestLoad_RejectsDottedExtension(t *testing.T) {
	t.Setenv("FILE_EXT", ".hl7")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for extension with leading dot")
	}
}

func TestConfig_IsDev(t *testing.T) {
	c := &Config{Env: "development"}
	if !c.IsDev() {
		t.Error("expected IsDev() to return true for development")
	}

	c.Env = "production"
	if c.IsDev() {
		t.Error("expected IsDev() to return false for production")
	}
}
