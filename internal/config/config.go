// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, verification-code policy, the completion
// and email provider credentials, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "openclaw-gateway")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// MailConfig holds the email delivery (Resend) settings used by the
// verification gateway's notification channel.
type MailConfig struct {
	APIKey  string // RESEND_API_KEY; empty disables delivery (codes still issued)
	From    string // MAIL_FROM sender, e.g. "Open Claw Enterprise <onboarding@resend.dev>"
	BaseURL string // MAIL_BASE_URL override, mainly for tests
}

// GroqConfig holds the completion API (Groq, OpenAI-compatible) settings.
type GroqConfig struct {
	APIKey      string  // GROQ_API_KEY
	BaseURL     string  // GROQ_BASE_URL (OpenAI-compatible endpoint)
	Model       string  // GROQ_MODEL
	MaxTokens   int     // GROQ_MAX_TOKENS per completion
	Temperature float64 // GROQ_TEMPERATURE
}

// VerificationConfig holds verification-code lifecycle policy.
type VerificationConfig struct {
	CodeTTL     time.Duration // CODE_TTL: validity window per issued code
	MaxAttempts int           // CODE_MAX_ATTEMPTS before lockout
	RevealCode  bool          // REVEAL_CODE: include the code in the issue response
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	DBPath              string        // optional SQLite path; empty keeps sessions in memory
	SessionTTL          time.Duration // 0 disables session expiry
	HistoryMaxTurns     int           // cap on stored conversation turns
	HistoryContextTurns int           // recent turns forwarded upstream

	Verification VerificationConfig
	Mail         MailConfig
	Groq         GroqConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath:              getenv("DB_PATH", ""),
		SessionTTL:          getdur("SESSION_TTL", 0),
		HistoryMaxTurns:     getint("HISTORY_MAX_TURNS", 50),
		HistoryContextTurns: getint("HISTORY_CONTEXT_TURNS", 6),

		Verification: VerificationConfig{
			CodeTTL:     getdur("CODE_TTL", 10*time.Minute),
			MaxAttempts: getint("CODE_MAX_ATTEMPTS", 3),
			RevealCode:  getbool("REVEAL_CODE", true),
		},
		Mail: MailConfig{
			APIKey:  getenv("RESEND_API_KEY", ""),
			From:    getenv("MAIL_FROM", "Open Claw Enterprise <onboarding@resend.dev>"),
			BaseURL: getenv("MAIL_BASE_URL", "https://api.resend.com"),
		},
		Groq: GroqConfig{
			APIKey:      getenv("GROQ_API_KEY", ""),
			BaseURL:     getenv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
			Model:       getenv("GROQ_MODEL", "llama-3.3-70b-versatile"),
			MaxTokens:   getint("GROQ_MAX_TOKENS", 4096),
			Temperature: getfloat("GROQ_TEMPERATURE", 0.7),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "openclaw-gateway"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if cfg.SessionTTL < 0 {
		return cfg, errors.New("SESSION_TTL must be >= 0")
	}
	if cfg.HistoryMaxTurns < 1 {
		return cfg, errors.New("HISTORY_MAX_TURNS must be >= 1")
	}
	if cfg.HistoryContextTurns < 0 || cfg.HistoryContextTurns > cfg.HistoryMaxTurns {
		return cfg, errors.New("HISTORY_CONTEXT_TURNS must be in [0, HISTORY_MAX_TURNS]")
	}
	if cfg.Verification.CodeTTL <= 0 {
		return cfg, errors.New("CODE_TTL must be > 0")
	}
	if cfg.Verification.MaxAttempts < 1 {
		return cfg, errors.New("CODE_MAX_ATTEMPTS must be >= 1")
	}
	if strings.TrimSpace(cfg.Groq.Model) == "" {
		return cfg, errors.New("GROQ_MODEL must not be empty")
	}
	if cfg.Groq.MaxTokens < 1 {
		return cfg, errors.New("GROQ_MAX_TOKENS must be >= 1")
	}
	if cfg.Groq.Temperature < 0 || cfg.Groq.Temperature > 2 {
		return cfg, errors.New("GROQ_TEMPERATURE must be in [0,2]")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

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
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
