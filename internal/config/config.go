// Package config loads the form engine's settings from environment variables.
// Every key has a default; Load reports all invalid values at once.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig lists the browser origins allowed to call the API. Empty allows
// every origin.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig controls HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry tracing settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// NotifyConfig seeds the notifier settings on first start and bounds every
// notifier call. Values stored through the settings API take precedence.
type NotifyConfig struct {
	Timeout          time.Duration // NOTIFY_TIMEOUT
	Email            string        // NOTIFY_EMAIL
	SlackWebhookURL  string        // SLACK_WEBHOOK_URL
	CustomWebhookURL string        // CUSTOM_WEBHOOK_URL
	FromName         string        // NOTIFY_FROM_NAME
}

// MailConfig selects and configures the outbound mail transport.
type MailConfig struct {
	Provider    string // MAIL_PROVIDER: smtp|mock|none
	Host        string // SMTP_HOST
	Port        int    // SMTP_PORT
	Username    string // SMTP_USERNAME
	Password    string // SMTP_PASSWORD
	From        string // SMTP_FROM
	UseTLS      bool   // SMTP_STARTTLS
	UseImplicit bool   // SMTP_IMPLICIT_TLS
	SkipVerify  bool   // SMTP_SKIP_VERIFY
	Timeout     time.Duration
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodyBytes      int64
	GinMode           string // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool
	SwaggerEnabled bool
	APIBasePath    string

	// Storage
	DBPath    string
	SeedForms bool // create the sample forms when the table is empty

	// Submissions
	SubmitRPS      float64 // per form and client IP
	SubmitBurst    int
	IdempotencyTTL time.Duration
	ExportMaxRows  int

	CORS     CORSConfig
	Security SecurityConfig
	Notify   NotifyConfig
	Mail     MailConfig
	OTEL     OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads, normalizes and validates the configuration.
func Load() (Config, error) {
	cfg := Config{
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		MaxBodyBytes:      int64(getint("MAX_BODY_BYTES", 1<<20)),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		DBPath:    getenv("DB_PATH", "data/forms.db"),
		SeedForms: getbool("SEED_FORMS", true),

		SubmitRPS:      getfloat("SUBMIT_RPS", 1.0),
		SubmitBurst:    getint("SUBMIT_BURST", 5),
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),
		ExportMaxRows:  getint("EXPORT_MAX_ROWS", 5000),

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},
		Notify: NotifyConfig{
			Timeout:          getdur("NOTIFY_TIMEOUT", 5*time.Second),
			Email:            strings.TrimSpace(getenv("NOTIFY_EMAIL", "")),
			SlackWebhookURL:  strings.TrimSpace(getenv("SLACK_WEBHOOK_URL", "")),
			CustomWebhookURL: strings.TrimSpace(getenv("CUSTOM_WEBHOOK_URL", "")),
			FromName:         getenv("NOTIFY_FROM_NAME", "Form Engine"),
		},
		Mail: MailConfig{
			Provider:    strings.ToLower(getenv("MAIL_PROVIDER", "none")),
			Host:        getenv("SMTP_HOST", ""),
			Port:        getint("SMTP_PORT", 587),
			Username:    getenv("SMTP_USERNAME", ""),
			Password:    getenv("SMTP_PASSWORD", ""),
			From:        getenv("SMTP_FROM", ""),
			UseTLS:      getbool("SMTP_STARTTLS", true),
			UseImplicit: getbool("SMTP_IMPLICIT_TLS", false),
			SkipVerify:  getbool("SMTP_SKIP_VERIFY", false),
			Timeout:     getdur("SMTP_TIMEOUT", 30*time.Second),
		},
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-form-engine"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	return cfg, cfg.validate()
}

func (cfg Config) validate() error {
	var errs []error
	check := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, errors.New(msg))
		}
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		errs = append(errs, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic"))
	}
	check(strings.TrimSpace(cfg.Port) != "", "PORT must not be empty")
	check(cfg.ReadTimeout > 0 && cfg.ReadHeaderTimeout > 0 && cfg.WriteTimeout > 0 && cfg.IdleTimeout > 0,
		"timeouts must be positive durations")
	check(cfg.MaxHeaderBytes > 0, "MAX_HEADER_BYTES must be > 0")
	check(cfg.MaxBodyBytes > 0, "MAX_BODY_BYTES must be > 0")
	check(strings.TrimSpace(cfg.DBPath) != "", "DB_PATH must not be empty")
	check(cfg.SubmitRPS >= 0, "SUBMIT_RPS must be >= 0")
	check(cfg.SubmitBurst >= 1, "SUBMIT_BURST must be >= 1")
	check(cfg.IdempotencyTTL > 0, "IDEMPOTENCY_TTL must be > 0")
	check(cfg.ExportMaxRows >= 0, "EXPORT_MAX_ROWS must be >= 0")
	check(cfg.Security.HSTSMaxAge >= 0, "HSTS_MAX_AGE must be >= 0")
	check(cfg.Notify.Timeout > 0, "NOTIFY_TIMEOUT must be > 0")
	check(cfg.OTEL.SampleRatio >= 0 && cfg.OTEL.SampleRatio <= 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]")

	switch cfg.Mail.Provider {
	case "none", "mock":
	case "smtp":
		check(cfg.Mail.Host != "", "SMTP_HOST is required when MAIL_PROVIDER=smtp")
		check(cfg.Mail.Port > 0 && cfg.Mail.Port < 65536, "SMTP_PORT must be a valid port")
	default:
		errs = append(errs, errors.New("MAIL_PROVIDER must be one of: smtp, mock, none"))
	}

	return errors.Join(errs...)
}

// SeedSettings returns the notifier settings provided through the
// environment, keyed by their settings-store names.
func (cfg Config) SeedSettings() map[string]string {
	out := map[string]string{}
	add := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	add("notify_email", cfg.Notify.Email)
	add("slack_webhook_url", cfg.Notify.SlackWebhookURL)
	add("custom_webhook_url", cfg.Notify.CustomWebhookURL)
	return out
}

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures a leading '/' and strips trailing ones.
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return p
}
