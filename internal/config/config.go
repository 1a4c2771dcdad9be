package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	AI       AIConfig
	Stats    StatsConfig
	Realtime RealtimeConfig
	State    StateConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AIConfig tunes the completion-provider integration. The quiet window is a
// heuristic with no hard rationale behind the default, so it stays
// overridable rather than hard-coded.
type AIConfig struct {
	APIKey                  string
	ReplyModel              string
	ReanalyzeModel          string
	ModelMaxTokens          int
	ResponseTokens          int
	ReanalyzeResponseTokens int
	HistoryLimit            int
	ReanalyzeHistoryLimit   int
	QuietWindowMinutes      int
	WorkerQueueSize         int
	Workers                 int
	RequestTimeoutSeconds   int
}

// StatsConfig drives the periodic live-stats broadcast.
type StatsConfig struct {
	IntervalSeconds    int
	ResolutionSample   int
	HappinessOnCreate  int
	HappinessOnResolve int
}

// RealtimeConfig bounds the websocket fan-out layer.
type RealtimeConfig struct {
	HistoryReplayLimit int
}

// StateConfig selects the backing for process-scoped mutable state.
type StateConfig struct {
	Backend string // "memory" or "redis"
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "support-chat-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "4000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		AI: AIConfig{
			APIKey:                  os.Getenv("OPENAI_API_KEY"),
			ReplyModel:              getEnv("AI_MODEL", "gpt-3.5-turbo"),
			ReanalyzeModel:          getEnv("AI_REANALYZE_MODEL", "gpt-4o-mini"),
			ModelMaxTokens:          getEnvAsInt("AI_MODEL_MAX_TOKENS", 12000),
			ResponseTokens:          getEnvAsInt("AI_RESPONSE_TOKENS", 500),
			ReanalyzeResponseTokens: getEnvAsInt("AI_REANALYZE_RESPONSE_TOKENS", 400),
			HistoryLimit:            getEnvAsInt("AI_HISTORY_LIMIT", 50),
			ReanalyzeHistoryLimit:   getEnvAsInt("AI_REANALYZE_HISTORY_LIMIT", 200),
			QuietWindowMinutes:      getEnvAsInt("AI_QUIET_WINDOW_MINUTES", 5),
			WorkerQueueSize:         getEnvAsInt("AI_WORKER_QUEUE_SIZE", 64),
			Workers:                 getEnvAsInt("AI_WORKERS", 2),
			RequestTimeoutSeconds:   getEnvAsInt("AI_REQUEST_TIMEOUT_SECONDS", 60),
		},
		Stats: StatsConfig{
			IntervalSeconds:    getEnvAsInt("STATS_INTERVAL_SECONDS", 5),
			ResolutionSample:   getEnvAsInt("STATS_RESOLUTION_SAMPLE", 200),
			HappinessOnCreate:  getEnvAsInt("STATS_HAPPINESS_ON_CREATE", -2),
			HappinessOnResolve: getEnvAsInt("STATS_HAPPINESS_ON_RESOLVE", 3),
		},
		Realtime: RealtimeConfig{
			HistoryReplayLimit: getEnvAsInt("CHAT_HISTORY_REPLAY_LIMIT", 500),
		},
		State: StateConfig{
			Backend: getEnv("STATE_BACKEND", "memory"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// QuietWindow returns the staff-activity suppression interval for AI replies.
func (a AIConfig) QuietWindow() time.Duration {
	return time.Duration(a.QuietWindowMinutes) * time.Minute
}

// RequestTimeout bounds a single completion-provider call.
func (a AIConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Interval returns the live-stats broadcast period.
func (s StatsConfig) Interval() time.Duration {
	if s.IntervalSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(s.IntervalSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
