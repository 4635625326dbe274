package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Env        string
	LogLevel   string
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	NATS       NATSConfig
	Cache      CacheConfig
	Auth       AuthConfig
	Storage    StorageConfig
	Reconciler ReconcilerConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
	AllowedOrigins  []string
	MigrationsDir   string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL string
}

// CacheConfig holds caching TTL configuration
type CacheConfig struct {
	ListingReviewsTTL time.Duration
}

// AuthConfig holds admin authentication settings
type AuthConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration
	MaxUsers      int
	SecureCookies bool
}

// StorageConfig holds object storage and image settings
type StorageConfig struct {
	Region         string
	Bucket         string
	CDNDomain      string
	Prefix         string
	MaxImageWidth  uint
	MaxImageHeight uint
	MaxUploadBytes int64
}

// ReconcilerConfig holds aggregate reconciler settings
type ReconcilerConfig struct {
	DebounceWindow time.Duration
	Cron           string
}

// Load reads configuration from an optional .env file and environment variables
func Load() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_READ_TIMEOUT", "10s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "30s")
	viper.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "30s")
	viper.SetDefault("SERVER_REQUEST_TIMEOUT", "30s")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8080")
	viper.SetDefault("MIGRATIONS_DIR", "migrations")

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "estate")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "5m")

	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_POOL_SIZE", 10)
	viper.SetDefault("REDIS_MIN_IDLE_CONNS", 2)

	viper.SetDefault("NATS_URL", "nats://localhost:4222")

	viper.SetDefault("CACHE_TTL_LISTING_REVIEWS", "120s")

	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("JWT_TTL", "24h")
	viper.SetDefault("AUTH_MAX_USERS", 2)

	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("S3_BUCKET", "estate-media")
	viper.SetDefault("S3_CDN_DOMAIN", "")
	viper.SetDefault("S3_PREFIX", "estate")
	viper.SetDefault("IMAGE_MAX_WIDTH", 1920)
	viper.SetDefault("IMAGE_MAX_HEIGHT", 1920)
	viper.SetDefault("UPLOAD_MAX_BYTES", 10<<20)

	viper.SetDefault("RECONCILE_DEBOUNCE", "1s")
	viper.SetDefault("RECONCILE_CRON", "@every 1h")

	durations := map[string]*time.Duration{}
	var (
		readTimeout, writeTimeout, shutdownTimeout, requestTimeout time.Duration
		connMaxLifetime, reviewsTTL, tokenTTL, debounce           time.Duration
	)
	durations["SERVER_READ_TIMEOUT"] = &readTimeout
	durations["SERVER_WRITE_TIMEOUT"] = &writeTimeout
	durations["SERVER_SHUTDOWN_TIMEOUT"] = &shutdownTimeout
	durations["SERVER_REQUEST_TIMEOUT"] = &requestTimeout
	durations["DB_CONN_MAX_LIFETIME"] = &connMaxLifetime
	durations["CACHE_TTL_LISTING_REVIEWS"] = &reviewsTTL
	durations["JWT_TTL"] = &tokenTTL
	durations["RECONCILE_DEBOUNCE"] = &debounce

	for key, dst := range durations {
		d, err := time.ParseDuration(viper.GetString(key))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = d
	}

	allowedOriginsStr := viper.GetString("CORS_ALLOWED_ORIGINS")
	allowedOrigins := strings.Split(allowedOriginsStr, ",")
	for i := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(allowedOrigins[i])
	}

	env := viper.GetString("ENV")

	config := &Config{
		Env:      env,
		LogLevel: viper.GetString("LOG_LEVEL"),
		Server: ServerConfig{
			Port:            viper.GetString("SERVER_PORT"),
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
			RequestTimeout:  requestTimeout,
			AllowedOrigins:  allowedOrigins,
			MigrationsDir:   viper.GetString("MIGRATIONS_DIR"),
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetString("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			Name:            viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxOpenConns:    viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password:     viper.GetString("REDIS_PASSWORD"),
			DB:           viper.GetInt("REDIS_DB"),
			PoolSize:     viper.GetInt("REDIS_POOL_SIZE"),
			MinIdleConns: viper.GetInt("REDIS_MIN_IDLE_CONNS"),
		},
		NATS: NATSConfig{
			URL: viper.GetString("NATS_URL"),
		},
		Cache: CacheConfig{
			ListingReviewsTTL: reviewsTTL,
		},
		Auth: AuthConfig{
			JWTSecret:     viper.GetString("JWT_SECRET"),
			TokenTTL:      tokenTTL,
			MaxUsers:      viper.GetInt("AUTH_MAX_USERS"),
			SecureCookies: env == "production",
		},
		Storage: StorageConfig{
			Region:         viper.GetString("S3_REGION"),
			Bucket:         viper.GetString("S3_BUCKET"),
			CDNDomain:      viper.GetString("S3_CDN_DOMAIN"),
			Prefix:         viper.GetString("S3_PREFIX"),
			MaxImageWidth:  viper.GetUint("IMAGE_MAX_WIDTH"),
			MaxImageHeight: viper.GetUint("IMAGE_MAX_HEIGHT"),
			MaxUploadBytes: viper.GetInt64("UPLOAD_MAX_BYTES"),
		},
		Reconciler: ReconcilerConfig{
			DebounceWindow: debounce,
			Cron:           viper.GetString("RECONCILE_CRON"),
		},
	}

	if config.Auth.JWTSecret == "" && env != "development" && env != "test" {
		return nil, fmt.Errorf("JWT_SECRET must be set outside development")
	}
	if config.Auth.JWTSecret == "" {
		config.Auth.JWTSecret = "development-secret"
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
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

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}
