package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"selene/pkg/errors"
)

type Config struct {
	App           AppConfig
	HTTP          HTTPConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	LunarCrush    LunarCrushConfig
	Gemini        GeminiConfig
	Pipeline      PipelineConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"selene"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Version  string `envconfig:"APP_VERSION" default:"dev"`
}

type HTTPConfig struct {
	Port int `envconfig:"HTTP_PORT" default:"8080"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" required:"true"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	Database string `envconfig:"POSTGRES_DB" required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" required:"true"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS" required:"true"`
	GroupID string   `envconfig:"KAFKA_GROUP_ID" default:"selene"`
}

type LunarCrushConfig struct {
	APIKey  string        `envconfig:"LUNARCRUSH_API_KEY" required:"true"`
	BaseURL string        `envconfig:"LUNARCRUSH_BASE_URL" default:"https://lunarcrush.com/api4/public"`
	Timeout time.Duration `envconfig:"LUNARCRUSH_TIMEOUT" default:"10s"`
	// Requests per minute against the public API
	RateLimit int `envconfig:"LUNARCRUSH_RATE_LIMIT" default:"60"`
	// TTL for the cached ranked coins list
	CoinsListCacheTTL time.Duration `envconfig:"LUNARCRUSH_COINS_CACHE_TTL" default:"2m"`
}

type GeminiConfig struct {
	APIKey  string        `envconfig:"GEMINI_API_KEY" required:"true"`
	Model   string        `envconfig:"GEMINI_MODEL" default:"gemini-1.5-flash"`
	Timeout time.Duration `envconfig:"GEMINI_TIMEOUT" default:"30s"`
}

// PipelineConfig carries tunables for the analysis pipeline.
// Pacing delays are applied after every per-symbol attempt, success or
// failure, to respect upstream rate limits.
type PipelineConfig struct {
	DefaultSymbols []string      `envconfig:"PIPELINE_DEFAULT_SYMBOLS" default:"BTC,ETH,SOL,ADA,DOT"`
	SymbolCount    int           `envconfig:"PIPELINE_SYMBOL_COUNT" default:"5"`
	FetchPace      time.Duration `envconfig:"PIPELINE_FETCH_PACE" default:"1500ms"`
	ScorePace      time.Duration `envconfig:"PIPELINE_SCORE_PACE" default:"3s"`
	HistoryDepth   int           `envconfig:"PIPELINE_HISTORY_DEPTH" default:"5"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
