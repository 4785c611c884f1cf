package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

type Config struct {
	ListenAddr  string
	Environment string

	// GLPI inventory service
	GLPIURL            string
	GLPIAppToken       string
	GLPIUserToken      string
	GLPITimeout        time.Duration
	GLPISecondaryField string
	GLPIModelField     string

	DefaultItemType string
	StrictMatch     bool
	LabelRulesPath  string

	TesseractBin   string
	TesseractLang  string
	OCRTimeout     time.Duration
	MaxUploadBytes int64

	AuthEnabled bool
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	JWTExpiry   time.Duration

	EnableMetrics bool
	EnableSwagger bool
	LogLevel      string
	LogFormat     string
}

func Load() *Config {
	config := &Config{
		ListenAddr:  getEnv("LISTEN_ADDR", ":8080"),
		Environment: getEnv("ENVIRONMENT", ""),

		GLPIURL:            getEnv("GLPI_URL", ""),
		GLPIAppToken:       getEnv("GLPI_APP_TOKEN", ""),
		GLPIUserToken:      getEnv("GLPI_USER_TOKEN", ""),
		GLPITimeout:        getDuration("GLPI_TIMEOUT", 20*time.Second),
		GLPISecondaryField: getEnv("GLPI_SECONDARY_FIELD", "otherserial"),
		GLPIModelField:     getEnv("GLPI_MODEL_FIELD", "name"),

		DefaultItemType: getEnv("DEFAULT_ITEM_TYPE", "Computer"),
		StrictMatch:     getBool("STRICT_MATCH", false),
		LabelRulesPath:  getEnv("LABEL_RULES_PATH", ""),

		TesseractBin:   getEnv("TESSERACT_BIN", "tesseract"),
		TesseractLang:  getEnv("TESSERACT_LANG", "eng"),
		OCRTimeout:     getDuration("OCR_TIMEOUT", 30*time.Second),
		MaxUploadBytes: getInt64("MAX_UPLOAD_BYTES", 20<<20),

		AuthEnabled: getBool("AUTH_ENABLED", false),
		JWTSecret:   getEnv("JWT_SECRET", defaultJWTSecret),
		JWTIssuer:   getEnv("JWT_ISS", "label-intake-api"),
		JWTAudience: getEnv("JWT_AUD", "label-intake-api"),
		JWTExpiry:   getDuration("JWT_EXPIRY", 24*time.Hour),

		EnableMetrics: getBool("ENABLE_METRICS", false),
		EnableSwagger: getBool("ENABLE_SWAGGER", false),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
	}

	return config
}

// LoadAndValidate loads the environment and rejects unusable settings.
func LoadAndValidate() (*Config, error) {
	cfg := Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting. JWT settings are checked only
// when authentication is enabled. Missing GLPI credentials are allowed;
// requests report them instead.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.ListenAddr) == "" {
		errs = append(errs, errors.New("LISTEN_ADDR must not be empty"))
	}
	if c.GLPITimeout <= 0 {
		errs = append(errs, errors.New("GLPI_TIMEOUT must be positive"))
	}
	if c.OCRTimeout <= 0 {
		errs = append(errs, errors.New("OCR_TIMEOUT must be positive"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	if strings.TrimSpace(c.DefaultItemType) == "" {
		errs = append(errs, errors.New("DEFAULT_ITEM_TYPE must not be empty"))
	}
	if strings.TrimSpace(c.TesseractBin) == "" {
		errs = append(errs, errors.New("TESSERACT_BIN must not be empty"))
	}
	switch c.GLPISecondaryField {
	case "otherserial", "serial", "name":
	default:
		errs = append(errs, fmt.Errorf("GLPI_SECONDARY_FIELD %q is not searchable (use otherserial, serial or name)", c.GLPISecondaryField))
	}

	if c.AuthEnabled {
		errs = append(errs, c.validateJWT()...)
	}

	return errors.Join(errs...)
}

func (c *Config) validateJWT() []error {
	var errs []error
	switch {
	case c.JWTSecret == "":
		errs = append(errs, errors.New("JWT_SECRET is required"))
	case len(c.JWTSecret) < 32:
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters"))
	case c.IsProduction() && c.JWTSecret == defaultJWTSecret:
		errs = append(errs, errors.New("JWT_SECRET must be changed in production"))
	}
	if c.JWTIssuer == "" {
		errs = append(errs, errors.New("JWT_ISS is required"))
	}
	if c.JWTAudience == "" {
		errs = append(errs, errors.New("JWT_AUD is required"))
	}
	if c.JWTExpiry < time.Minute || c.JWTExpiry > 30*24*time.Hour {
		errs = append(errs, fmt.Errorf("JWT_EXPIRY %s must be between 1m and 720h", c.JWTExpiry))
	}
	return errs
}

// IsProduction reports whether ENVIRONMENT is "production".
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

// GLPIEnabled reports whether GLPI credentials are configured.
func (c *Config) GLPIEnabled() bool {
	return strings.TrimSpace(c.GLPIURL) != "" &&
		strings.TrimSpace(c.GLPIAppToken) != "" &&
		strings.TrimSpace(c.GLPIUserToken) != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}
