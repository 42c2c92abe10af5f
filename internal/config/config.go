package config

import (
	"strconv"
	"strings"
	"time"

	"thinkflow/internal/util"
)

// Config keeps runtime settings for the backend.
type Config struct {
	Addr      string
	DBPath    string
	StaticDir string

	// DefaultActorID stands in for an authenticated user when the
	// X-Actor-ID header is absent.
	DefaultActorID uint

	// GenAI settings. An empty APIKey disables the generation-backed
	// draft path and falls back to the deterministic template.
	GenAIAPIKey  string
	GenAIModel   string
	GenAIBaseURL string

	// RecurrenceInterval is how often the scheduler rolls repeating
	// tasks forward. Zero disables the scheduler.
	RecurrenceInterval time.Duration
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	cfg := Config{
		Addr:           util.EnvOrDefault("THINKFLOW_ADDR", ":8080"),
		DBPath:         util.EnvOrDefault("THINKFLOW_DB_PATH", "data/thinkflow.db"),
		StaticDir:      util.EnvOrDefault("THINKFLOW_STATIC_DIR", "web/dist"),
		DefaultActorID: parseUint(util.EnvOrDefault("THINKFLOW_DEFAULT_ACTOR_ID", "1"), 1),
		GenAIAPIKey:    strings.TrimSpace(util.EnvOrDefault("GENAI_API_KEY", "")),
		GenAIModel:     util.EnvOrDefault("GENAI_MODEL", "gemini-2.5-flash"),
		GenAIBaseURL:   util.EnvOrDefault("GENAI_BASE_URL", ""),
	}

	cfg.RecurrenceInterval = parseInterval(util.EnvOrDefault("THINKFLOW_RECURRENCE_INTERVAL", "1h"))

	return cfg
}

func parseUint(raw string, fallback uint) uint {
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return fallback
	}
	return uint(v)
}

func parseInterval(raw string) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return time.Hour
	}
	return d
}
