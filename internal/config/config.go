package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config contains runtime configuration values.
type Config struct {
	Environment string
	HTTPPort    string
	ServiceName string

	// Provider identity and endpoints. The consumer pair identifies this
	// deployment to the provider and must come from the environment, never
	// from source.
	ConsumerKey    string
	ConsumerSecret string
	CallbackURL    string
	AuthBaseURL    string
	APIBaseURL     string

	// Parameters embedded in the authorization redirect URL.
	AuthScope      string
	AuthExpiration string
	AppName        string

	RequestTimeout          time.Duration
	AggregationConcurrency  int
	RequestTokenTTL         time.Duration
	SessionTTL              time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitRPM      int
	TelemetryEndpoint string
	TelemetryInsecure bool

	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSAllowCredentials bool

	GeminiAPIKey string
	GeminiModel  string
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	consumerKey := strings.TrimSpace(os.Getenv("CONSUMER_KEY"))
	if consumerKey == "" {
		return Config{}, fmt.Errorf("CONSUMER_KEY is required")
	}
	consumerSecret := strings.TrimSpace(os.Getenv("CONSUMER_SECRET"))
	if consumerSecret == "" {
		return Config{}, fmt.Errorf("CONSUMER_SECRET is required")
	}
	callbackURL := strings.TrimSpace(os.Getenv("CALLBACK_URL"))
	if callbackURL == "" {
		return Config{}, fmt.Errorf("CALLBACK_URL is required")
	}

	cfg := Config{
		Environment:    getEnv("APP_ENV", "development"),
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		ServiceName:    getEnv("SERVICE_NAME", "smallbiznis-boardview"),
		ConsumerKey:    consumerKey,
		ConsumerSecret: consumerSecret,
		CallbackURL:    callbackURL,
		AuthBaseURL:    getEnv("AUTH_BASE_URL", "https://trello.com/1"),
		APIBaseURL:     getEnv("API_BASE_URL", "https://api.trello.com/1"),
		AuthScope:      getEnv("AUTH_SCOPE", "read"),
		AuthExpiration: getEnv("AUTH_EXPIRATION", "1day"),
		AppName:        getEnv("APP_NAME", "BoardView"),

		RequestTimeout:         getDuration("REQUEST_TIMEOUT", 10*time.Second),
		AggregationConcurrency: getInt("AGGREGATION_CONCURRENCY", 4),
		RequestTokenTTL:        getDuration("REQUEST_TOKEN_TTL", 10*time.Minute),
		SessionTTL:             getDuration("SESSION_TTL", 24*time.Hour),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),

		RateLimitRPM:      getInt("RATE_LIMIT_RPM", 600),
		TelemetryEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TelemetryInsecure: getBool("OTEL_EXPORTER_OTLP_INSECURE", true),

		CORSAllowedOrigins:   getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		CORSAllowedMethods:   getList("CORS_ALLOWED_METHODS", []string{"GET", "OPTIONS"}),
		CORSAllowedHeaders:   getList("CORS_ALLOWED_HEADERS", []string{"Authorization", "Content-Type"}),
		CORSAllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", false),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
	}

	if cfg.AggregationConcurrency < 1 {
		cfg.AggregationConcurrency = 1
	}
	if cfg.RequestTokenTTL < time.Minute {
		// Anything shorter fails in-progress logins while the user is still
		// at the provider's authorize page.
		cfg.RequestTokenTTL = time.Minute
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(v) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}

func getList(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok {
		parts := strings.Split(v, ",")
		var cleaned []string
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return def
}
