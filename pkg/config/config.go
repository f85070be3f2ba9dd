package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Challenge store drivers.
const (
	ChallengeStoreMemory = "memory"
	ChallengeStoreRedis  = "redis"
)

type Config struct {
	Env           string
	Port          int
	APIPrefix     string
	PublicBaseURL string
	Timezone      string

	Backend    BackendConfig
	Postal     PostalConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Allocation AllocationConfig
	Challenge  ChallengeConfig
	Manifests  ManifestConfig
	Audit      AuditConfig
}

// BackendConfig points at the parish REST backend that owns members, elders, events and schedules.
type BackendConfig struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	ReadRetries int
}

// PostalConfig configures the postal-code lookup service.
type PostalConfig struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AllocationConfig tunes the transport board persistence workers.
type AllocationConfig struct {
	PersistWorkers int
	PersistBuffer  int
	PersistTimeout time.Duration
	DrainTimeout   time.Duration
}

// ChallengeConfig controls the identity challenge flow.
type ChallengeConfig struct {
	Store    string
	TTL      time.Duration
	HashCost int
}

// ManifestConfig controls shareable manifest links.
type ManifestConfig struct {
	ShareSecret string
	ShareTTL    time.Duration
}

// AuditConfig toggles the persistence audit trail stored in Postgres.
type AuditConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.PublicBaseURL = strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/")
	cfg.Timezone = v.GetString("TIMEZONE")

	cfg.Backend = BackendConfig{
		BaseURL:     strings.TrimRight(v.GetString("BACKEND_URL"), "/"),
		APIKey:      v.GetString("BACKEND_API_KEY"),
		Timeout:     parseDuration(v.GetString("BACKEND_TIMEOUT"), 10*time.Second),
		ReadRetries: v.GetInt("BACKEND_READ_RETRIES"),
	}

	cfg.Postal = PostalConfig{
		BaseURL:  strings.TrimRight(v.GetString("POSTAL_URL"), "/"),
		Timeout:  parseDuration(v.GetString("POSTAL_TIMEOUT"), 5*time.Second),
		CacheTTL: parseDuration(v.GetString("POSTAL_CACHE_TTL"), 24*time.Hour),
	}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 12*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Allocation = AllocationConfig{
		PersistWorkers: v.GetInt("PERSIST_WORKERS"),
		PersistBuffer:  v.GetInt("PERSIST_BUFFER"),
		PersistTimeout: parseDuration(v.GetString("PERSIST_TIMEOUT"), 15*time.Second),
		DrainTimeout:   parseDuration(v.GetString("PERSIST_DRAIN_TIMEOUT"), 20*time.Second),
	}

	store := strings.ToLower(strings.TrimSpace(v.GetString("CHALLENGE_STORE")))
	if store != ChallengeStoreRedis {
		store = ChallengeStoreMemory
	}
	cfg.Challenge = ChallengeConfig{
		Store:    store,
		TTL:      parseDuration(v.GetString("CHALLENGE_TTL"), 5*time.Minute),
		HashCost: v.GetInt("CHALLENGE_HASH_COST"),
	}

	cfg.Manifests = ManifestConfig{
		ShareSecret: v.GetString("MANIFEST_SHARE_SECRET"),
		ShareTTL:    parseDuration(v.GetString("MANIFEST_SHARE_TTL"), 48*time.Hour),
	}

	cfg.Audit = AuditConfig{
		Enabled: v.GetBool("ENABLE_AUDIT"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	v.SetDefault("TIMEZONE", "America/Sao_Paulo")

	v.SetDefault("BACKEND_URL", "http://localhost:3001")
	v.SetDefault("BACKEND_API_KEY", "")
	v.SetDefault("BACKEND_TIMEOUT", "10s")
	v.SetDefault("BACKEND_READ_RETRIES", 2)

	v.SetDefault("POSTAL_URL", "https://viacep.com.br/ws")
	v.SetDefault("POSTAL_TIMEOUT", "5s")
	v.SetDefault("POSTAL_CACHE_TTL", "24h")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "pastoral_audit")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 5)
	v.SetDefault("DB_MAX_IDLE_CONNS", 2)

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "12h")
	v.SetDefault("JWT_ISSUER", "pastoral-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("PERSIST_WORKERS", 2)
	v.SetDefault("PERSIST_BUFFER", 64)
	v.SetDefault("PERSIST_TIMEOUT", "15s")
	v.SetDefault("PERSIST_DRAIN_TIMEOUT", "20s")

	v.SetDefault("CHALLENGE_STORE", ChallengeStoreMemory)
	v.SetDefault("CHALLENGE_TTL", "5m")
	v.SetDefault("CHALLENGE_HASH_COST", 10)

	v.SetDefault("MANIFEST_SHARE_SECRET", "dev_manifest_secret")
	v.SetDefault("MANIFEST_SHARE_TTL", "48h")

	v.SetDefault("ENABLE_AUDIT", false)
}

// Location resolves the configured timezone used for zone-less event times, falling back to
// the process local zone.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
