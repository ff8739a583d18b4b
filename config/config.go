package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

const defaultJWTSecret = "dev-secret-change-me"

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Store    StoreConfig
	Kafka    KafkaConfig
	Export   ExportConfig
	Editor   EditorConfig
	App      AppConfig
}

type ServerConfig struct {
	Port            string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	SSLMode    string
	MaxRetries int
	SeedDemo   bool
}

// DSN builds the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	LoginRate  float64 // attempts per second per client
	LoginBurst int
	DemoUsers  bool
}

type StoreConfig struct {
	Backend string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Enabled reports whether events should be published.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type ExportConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Schedule  string // cron spec; empty disables scheduled exports
}

// Enabled reports whether an object store is configured.
func (e ExportConfig) Enabled() bool {
	return e.Endpoint != ""
}

type EditorConfig struct {
	ConfirmDiscard     bool
	CoalesceSaves      bool
	HitToleranceMeters float64
	SaveTimeout        time.Duration
	WMSURL             string
	WMSLayer           string
}

type AppConfig struct {
	Environment string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("[info] no .env file found, using environment variables")
	}
	return FromEnv()
}

// FromEnv reads the configuration from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			AllowedOrigins:  getEnvAsList("CORS_ORIGINS", []string{"*"}),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnvAsInt("DB_PORT", 5432),
			User:       getEnv("DB_USER", "geo"),
			Password:   getEnv("DB_PASSWORD", "geo"),
			Name:       getEnv("DB_NAME", "geo_editor"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			MaxRetries: getEnvAsInt("DB_MAX_RETRIES", 30),
			SeedDemo:   getEnvAsBool("DB_SEED_DEMO", true),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("JWT_SECRET", defaultJWTSecret),
			TokenTTL:   getEnvAsDuration("JWT_TTL", 24*time.Hour),
			LoginRate:  getEnvAsFloat("LOGIN_RATE", 1),
			LoginBurst: getEnvAsInt("LOGIN_BURST", 5),
			DemoUsers:  getEnvAsBool("DEMO_USERS", true),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnv("STORE_BACKEND", StoreMemory)),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvAsList("KAFKA_BROKERS", nil),
			Topic:   getEnv("KAFKA_TOPIC", "geo-editor.points"),
		},
		Export: ExportConfig{
			Endpoint:  getEnv("EXPORT_ENDPOINT", ""),
			AccessKey: getEnv("EXPORT_ACCESS_KEY", ""),
			SecretKey: getEnv("EXPORT_SECRET_KEY", ""),
			Bucket:    getEnv("EXPORT_BUCKET", "geo-editor-exports"),
			UseSSL:    getEnvAsBool("EXPORT_USE_SSL", false),
			Schedule:  getEnv("EXPORT_SCHEDULE", ""),
		},
		Editor: EditorConfig{
			ConfirmDiscard:     getEnvAsBool("EDITOR_CONFIRM_DISCARD", false),
			CoalesceSaves:      getEnvAsBool("EDITOR_COALESCE_SAVES", false),
			HitToleranceMeters: getEnvAsFloat("EDITOR_HIT_TOLERANCE_M", 15),
			SaveTimeout:        getEnvAsDuration("EDITOR_SAVE_TIMEOUT", 15*time.Second),
			WMSURL:             getEnv("EDITOR_WMS_URL", ""),
			WMSLayer:           getEnv("EDITOR_WMS_LAYER", ""),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// UsesDatabase reports whether a postgres connection is needed.
func (c *Config) UsesDatabase() bool {
	return c.Store.Backend == StorePostgres || !c.Auth.DemoUsers
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.Store.Backend {
	case StoreMemory, StoreRedis:
	case StorePostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required for the postgres store")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be one of memory, postgres, redis (got %q)", c.Store.Backend)
	}

	if c.Store.Backend == StoreRedis && c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required for the redis store")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProduction() && c.Auth.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if c.Auth.LoginRate <= 0 || c.Auth.LoginBurst <= 0 {
		return fmt.Errorf("LOGIN_RATE and LOGIN_BURST must be positive")
	}

	if c.Export.Schedule != "" && !c.Export.Enabled() {
		return fmt.Errorf("EXPORT_SCHEDULE requires EXPORT_ENDPOINT")
	}
	if c.Export.Enabled() && c.Export.Bucket == "" {
		return fmt.Errorf("EXPORT_BUCKET is required")
	}

	if c.Editor.HitToleranceMeters < 0 {
		return fmt.Errorf("EDITOR_HIT_TOLERANCE_M must not be negative")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("[warn] invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("[warn] invalid number for %s, using default: %g", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("[warn] invalid boolean for %s, using default: %t", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("[warn] invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

// getEnvAsList splits a comma separated value, dropping empty items.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
