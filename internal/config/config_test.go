package config

import (
	"testing"
	"time"
)

var envKeys = []string{
	"LISTEN_ADDR", "ENVIRONMENT", "GLPI_URL", "GLPI_APP_TOKEN", "GLPI_USER_TOKEN",
	"GLPI_TIMEOUT", "GLPI_SECONDARY_FIELD", "GLPI_MODEL_FIELD", "DEFAULT_ITEM_TYPE",
	"STRICT_MATCH", "LABEL_RULES_PATH", "TESSERACT_BIN", "TESSERACT_LANG", "OCR_TIMEOUT",
	"MAX_UPLOAD_BYTES", "AUTH_ENABLED", "JWT_SECRET", "JWT_ISS", "JWT_AUD", "JWT_EXPIRY",
	"ENABLE_METRICS", "ENABLE_SWAGGER", "LOG_LEVEL", "LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func validConfig() *Config {
	return &Config{
		ListenAddr:         ":8080",
		GLPITimeout:        20 * time.Second,
		GLPISecondaryField: "otherserial",
		DefaultItemType:    "Computer",
		TesseractBin:       "tesseract",
		OCRTimeout:         30 * time.Second,
		MaxUploadBytes:     1 << 20,
		AuthEnabled:        true,
		JWTSecret:          "valid-secret-that-is-long-enough-for-testing",
		JWTIssuer:          "test-issuer",
		JWTAudience:        "test-audience",
		JWTExpiry:          time.Hour,
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.ListenAddr != ":8080" {
		t.Errorf("Expected default LISTEN_ADDR, got %s", cfg.ListenAddr)
	}
	if cfg.GLPITimeout != 20*time.Second {
		t.Errorf("Expected default GLPI_TIMEOUT, got %v", cfg.GLPITimeout)
	}
	if cfg.GLPISecondaryField != "otherserial" || cfg.GLPIModelField != "name" {
		t.Errorf("Unexpected GLPI field defaults: %s/%s", cfg.GLPISecondaryField, cfg.GLPIModelField)
	}
	if cfg.DefaultItemType != "Computer" {
		t.Errorf("Expected default DEFAULT_ITEM_TYPE, got %s", cfg.DefaultItemType)
	}
	if cfg.MaxUploadBytes != 20<<20 {
		t.Errorf("Expected default MAX_UPLOAD_BYTES, got %d", cfg.MaxUploadBytes)
	}
	if cfg.AuthEnabled || cfg.StrictMatch || cfg.EnableMetrics {
		t.Error("Expected auth, strict match and metrics to be off by default")
	}
	if cfg.JWTSecret != defaultJWTSecret {
		t.Errorf("Expected default JWT_SECRET, got %s", cfg.JWTSecret)
	}
	if cfg.JWTIssuer != "label-intake-api" || cfg.JWTAudience != "label-intake-api" {
		t.Errorf("Unexpected JWT issuer/audience defaults: %s/%s", cfg.JWTIssuer, cfg.JWTAudience)
	}
	if cfg.JWTExpiry != 24*time.Hour {
		t.Errorf("Expected default JWT_EXPIRY, got %v", cfg.JWTExpiry)
	}
	if cfg.GLPIEnabled() {
		t.Error("GLPI should not be enabled without credentials")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Defaults should validate: %v", err)
	}
}

func TestLoadWithEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("GLPI_URL", "https://glpi.example.com/apirest.php/")
	t.Setenv("GLPI_APP_TOKEN", "app")
	t.Setenv("GLPI_USER_TOKEN", "user")
	t.Setenv("GLPI_TIMEOUT", "5s")
	t.Setenv("STRICT_MATCH", "true")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("JWT_EXPIRY", "2h")
	t.Setenv("ENABLE_METRICS", "1")

	cfg := Load()

	if !cfg.GLPIEnabled() {
		t.Error("Expected GLPI to be enabled")
	}
	if cfg.GLPITimeout != 5*time.Second {
		t.Errorf("Expected GLPI_TIMEOUT from env, got %v", cfg.GLPITimeout)
	}
	if !cfg.StrictMatch || !cfg.EnableMetrics {
		t.Error("Expected STRICT_MATCH and ENABLE_METRICS from env")
	}
	if cfg.MaxUploadBytes != 1024 {
		t.Errorf("Expected MAX_UPLOAD_BYTES from env, got %d", cfg.MaxUploadBytes)
	}
	if cfg.JWTExpiry != 2*time.Hour {
		t.Errorf("Expected JWT_EXPIRY from env, got %v", cfg.JWTExpiry)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("GLPI_TIMEOUT", "soon")
	t.Setenv("STRICT_MATCH", "maybe")
	t.Setenv("MAX_UPLOAD_BYTES", "lots")

	cfg := Load()

	if cfg.GLPITimeout != 20*time.Second || cfg.StrictMatch || cfg.MaxUploadBytes != 20<<20 {
		t.Errorf("Malformed values should fall back to defaults: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"valid config", func(*Config) {}, false},
		{"empty secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"secret too short", func(c *Config) { c.JWTSecret = "short" }, true},
		{"short secret without auth", func(c *Config) { c.JWTSecret = "short"; c.AuthEnabled = false }, false},
		{"empty issuer", func(c *Config) { c.JWTIssuer = "" }, true},
		{"empty audience", func(c *Config) { c.JWTAudience = "" }, true},
		{"negative expiry", func(c *Config) { c.JWTExpiry = -time.Hour }, true},
		{"zero expiry", func(c *Config) { c.JWTExpiry = 0 }, true},
		{"expiry too short", func(c *Config) { c.JWTExpiry = 30 * time.Second }, true},
		{"expiry too long", func(c *Config) { c.JWTExpiry = 31 * 24 * time.Hour }, true},
		{"zero glpi timeout", func(c *Config) { c.GLPITimeout = 0 }, true},
		{"zero ocr timeout", func(c *Config) { c.OCRTimeout = 0 }, true},
		{"zero upload limit", func(c *Config) { c.MaxUploadBytes = 0 }, true},
		{"empty item type", func(c *Config) { c.DefaultItemType = " " }, true},
		{"unsearchable secondary field", func(c *Config) { c.GLPISecondaryField = "asset_tag" }, true},
		{"serial as secondary field", func(c *Config) { c.GLPISecondaryField = "serial" }, false},
		{"missing glpi credentials", func(c *Config) { c.GLPIURL = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.expectError {
				t.Errorf("Validate() error = %v, expectError %v", err, tt.expectError)
			}
		})
	}
}

func TestLoadAndValidate(t *testing.T) {
	clearEnv(t)
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("JWT_SECRET", "test-secret-key-that-is-long-enough-for-testing")
	t.Setenv("JWT_EXPIRY", "1h")

	cfg, err := LoadAndValidate()
	if err != nil {
		t.Errorf("LoadAndValidate() failed with valid config: %v", err)
	}
	if cfg == nil {
		t.Error("LoadAndValidate() returned nil config with valid config")
	}

	t.Setenv("JWT_SECRET", "short")

	_, err = LoadAndValidate()
	if err == nil {
		t.Error("LoadAndValidate() should fail with invalid config")
	}
}

func TestProductionSecretValidation(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("AUTH_ENABLED", "true")

	cfg := Load()
	if err := cfg.Validate(); err == nil {
		t.Error("Production validation should fail with default secret")
	}

	t.Setenv("JWT_SECRET", "proper-production-secret-that-is-long-enough")

	cfg = Load()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Production validation should pass with proper secret: %v", err)
	}
}
