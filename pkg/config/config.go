package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	LLM       LLMConfig
	WebSocket WebSocketConfig
	Insights  InsightsConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	PublicWSURL     string
	AllowedOrigins  []string
	ShutdownTimeout int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
	MinConns int
	// AutoMigrate applies the embedded migrations on startup.
	AutoMigrate bool
	// ConnectRetry bounds the exponential backoff used while waiting for postgres.
	ConnectRetry time.Duration
}

// JWTConfig holds session token configuration
type JWTConfig struct {
	SessionSecret string
	SessionExpiry time.Duration
}

// LLMConfig holds the generation service configuration
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// WebSocketConfig holds realtime transport settings
type WebSocketConfig struct {
	ReadLimit    int64
	PingInterval time.Duration
	WriteTimeout time.Duration
}

// InsightsConfig tunes the insight engine. Decoded with envconfig under the INSIGHTS_ prefix.
type InsightsConfig struct {
	GlobalCooldown            time.Duration `envconfig:"GLOBAL_COOLDOWN" default:"30s"`
	DefaultCategoryCooldown   time.Duration `envconfig:"DEFAULT_CATEGORY_COOLDOWN" default:"60s"`
	ContextualInterval        time.Duration `envconfig:"CONTEXTUAL_INTERVAL" default:"30s"`
	ContextualWindow          int           `envconfig:"CONTEXTUAL_WINDOW" default:"6"`
	MinContextualSegments     int           `envconfig:"MIN_CONTEXTUAL_SEGMENTS" default:"2"`
	RecentContextLines        int           `envconfig:"RECENT_CONTEXT_LINES" default:"3"`
	GenerationTimeout         time.Duration `envconfig:"GENERATION_TIMEOUT" default:"8s"`
	PersistTimeout            time.Duration `envconfig:"PERSIST_TIMEOUT" default:"5s"`
	ReportTimeout             time.Duration `envconfig:"REPORT_TIMEOUT" default:"60s"`
	ResetCooldownOnDisconnect bool          `envconfig:"RESET_COOLDOWN_ON_DISCONNECT" default:"true"`
	CooldownRetention         time.Duration `envconfig:"COOLDOWN_RETENTION" default:"2h"`
	JanitorSchedule           string        `envconfig:"JANITOR_SCHEDULE" default:"@every 5m"`
	RulesFile                 string        `envconfig:"RULES_FILE"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			PublicWSURL:     getEnv("PUBLIC_WS_URL", "ws://localhost:8080/v1/ws"),
			AllowedOrigins:  splitList(getEnv("ALLOWED_ORIGINS", "*")),
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 10),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Name:         getEnv("DB_NAME", "sales_mentor"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxConns:     getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:     getEnvAsInt("DB_MIN_CONNS", 5),
			AutoMigrate:  getEnvAsBool("DB_AUTO_MIGRATE", true),
			ConnectRetry: getEnvAsDuration("DB_CONNECT_RETRY", "30s"),
		},
		JWT: JWTConfig{
			SessionSecret: getEnv("JWT_SESSION_SECRET", ""),
			SessionExpiry: getEnvAsDuration("JWT_SESSION_EXPIRY", "4h"),
		},
		LLM: LLMConfig{
			APIKey:  getEnv("LLM_API_KEY", ""),
			BaseURL: getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
			Model:   getEnv("LLM_MODEL", "gpt-4o-mini"),
			Timeout: getEnvAsDuration("LLM_TIMEOUT", "15s"),
		},
		WebSocket: WebSocketConfig{
			ReadLimit:    int64(getEnvAsInt("WS_READ_LIMIT", 64*1024)),
			PingInterval: getEnvAsDuration("WS_PING_INTERVAL", "25s"),
			WriteTimeout: getEnvAsDuration("WS_WRITE_TIMEOUT", "10s"),
		},
	}

	if err := envconfig.Process("insights", &config.Insights); err != nil {
		return nil, fmt.Errorf("failed to load insights config: %w", err)
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.JWT.SessionSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SESSION_SECRET is required")
		}
		log.Printf("Warning: JWT_SESSION_SECRET not set, using insecure development secret")
		c.JWT.SessionSecret = "dev-session-secret-change-me"
	}
	if c.Insights.ContextualWindow < 1 {
		return fmt.Errorf("INSIGHTS_CONTEXTUAL_WINDOW must be positive")
	}
	if c.Insights.MinContextualSegments < 1 {
		return fmt.Errorf("INSIGHTS_MIN_CONTEXTUAL_SEGMENTS must be positive")
	}
	if c.Insights.GlobalCooldown < 0 || c.Insights.ContextualInterval <= 0 {
		return fmt.Errorf("INSIGHTS cooldown and interval must be positive")
	}
	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
