// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, storage paths, engine tuning, the catalog source, edge protection
// and observability settings.
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
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "choco-sommelier")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Catalog sources.
const (
	CatalogSQLite    = "sqlite"
	CatalogFirestore = "firestore"
)

// CatalogConfig selects where products, flows and knowledge are read from.
type CatalogConfig struct {
	Source                  string        // CATALOG_SOURCE: sqlite|firestore
	TTL                     time.Duration // CATALOG_TTL; 0 reloads on every turn
	FirebaseProjectID       string        // FIREBASE_PROJECT_ID
	FirebaseCredentialsFile string        // FIREBASE_CREDENTIALS_FILE (empty: ADC)
}

// EngineConfig tunes the conversation engine.
type EngineConfig struct {
	DefaultLang        string  // tr|en
	FlowMaxSteps       int     // transitions before a flow is cut off
	KeywordsPath       string  // optional YAML keyword override
	KnowledgeThreshold float64 // Jaccard floor for passage answers, [0,1]
	MaxPromptRunes     int
	MaxReplyRunes      int
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	ShutdownTimeout   time.Duration // graceful drain
	MaxHeaderBytes    int           // bytes
	MaxBodyBytes      int64         // request body cap
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	LogRedact      bool   // scrub PII from access logs
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage
	DBPath          string // SQLite path
	SeedPath        string // YAML catalog seed
	KnowledgeMDPath string // Markdown brand story, optional

	Engine  EngineConfig
	Catalog CatalogConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

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
		ShutdownTimeout:   getdur("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		MaxBodyBytes:      int64(getint("MAX_BODY_BYTES", 1<<20)),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		LogRedact:      getbool("LOG_REDACT", true),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// Storage
		DBPath:          getenv("DB_PATH", "sommelier.db"),
		SeedPath:        getenv("SEED_PATH", "data/catalog.yaml"),
		KnowledgeMDPath: getenv("KNOWLEDGE_MD_PATH", ""),

		Engine: EngineConfig{
			DefaultLang:        strings.ToLower(getenv("DEFAULT_LANG", "tr")),
			FlowMaxSteps:       getint("FLOW_MAX_STEPS", 25),
			KeywordsPath:       getenv("KEYWORDS_PATH", ""),
			KnowledgeThreshold: getfloat("KNOWLEDGE_THRESHOLD", 0.25),
			MaxPromptRunes:     getint("MAX_PROMPT_RUNES", 2000),
			MaxReplyRunes:      getint("MAX_REPLY_RUNES", 4000),
		},
		Catalog: CatalogConfig{
			Source:                  strings.ToLower(getenv("CATALOG_SOURCE", CatalogSQLite)),
			TTL:                     getdur("CATALOG_TTL", 30*time.Second),
			FirebaseProjectID:       getenv("FIREBASE_PROJECT_ID", ""),
			FirebaseCredentialsFile: getenv("FIREBASE_CREDENTIALS_FILE", ""),
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

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "choco-sommelier"),
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
	if i := strings.IndexAny(cfg.Engine.DefaultLang, "-_"); i > 0 {
		cfg.Engine.DefaultLang = cfg.Engine.DefaultLang[:i]
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
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 || cfg.ShutdownTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if cfg.MaxBodyBytes <= 0 {
		return cfg, errors.New("MAX_BODY_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	switch cfg.Engine.DefaultLang {
	case "tr", "en":
	default:
		return cfg, errors.New("DEFAULT_LANG must be tr or en")
	}
	if cfg.Engine.FlowMaxSteps < 1 {
		return cfg, errors.New("FLOW_MAX_STEPS must be >= 1")
	}
	if cfg.Engine.KnowledgeThreshold < 0 || cfg.Engine.KnowledgeThreshold > 1 {
		return cfg, errors.New("KNOWLEDGE_THRESHOLD must be between 0 and 1")
	}
	if cfg.Engine.MaxPromptRunes < 1 || cfg.Engine.MaxReplyRunes < 1 {
		return cfg, errors.New("MAX_PROMPT_RUNES and MAX_REPLY_RUNES must be >= 1")
	}
	switch cfg.Catalog.Source {
	case CatalogSQLite:
	case CatalogFirestore:
		if strings.TrimSpace(cfg.Catalog.FirebaseProjectID) == "" {
			return cfg, errors.New("FIREBASE_PROJECT_ID is required when CATALOG_SOURCE=firestore")
		}
	default:
		return cfg, errors.New("CATALOG_SOURCE must be sqlite or firestore")
	}
	if cfg.Catalog.TTL < 0 {
		return cfg, errors.New("CATALOG_TTL must be >= 0")
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
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers ----

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
