package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Server captures process level configuration.
type Server struct {
	Addr          string
	Environment   string
	JWTSigningKey string
	Admin         AdminConfig
	Issuance      IssuanceConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	RateLimit     RateLimitConfig
}

// AdminConfig holds the single administrator account. PasswordHash wins over
// Password when both are set.
type AdminConfig struct {
	Email        string
	Password     string
	PasswordHash string
	TokenTTL     time.Duration
}

type IssuanceConfig struct {
	// Location decides calendar-month boundaries for the one-per-month rule.
	Location *time.Location
}

// DatabaseConfig is empty-URL tolerant: no URL means in-memory stores.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CardCacheTTL time.Duration
}

// RateLimitConfig throttles admin login attempts per client IP.
type RateLimitConfig struct {
	LoginLimit  int
	LoginWindow time.Duration
	Disabled    bool
}

// IsDevelopment reports whether the process runs outside production.
func (s Server) IsDevelopment() bool {
	return s.Environment != "production"
}

// FromEnv builds a Server config from environment variables so main stays lean.
// A .env file in the working directory is loaded first when present; variables
// already set in the environment take precedence.
func FromEnv() (Server, error) {
	_ = godotenv.Load()

	tzName := getEnv("ISSUANCE_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return Server{}, fmt.Errorf("load ISSUANCE_TIMEZONE %q: %w", tzName, err)
	}

	tokenTTL, err := getDuration("ADMIN_TOKEN_TTL", 2*time.Hour)
	if err != nil {
		return Server{}, err
	}
	cardTTL, err := getDuration("CARD_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return Server{}, err
	}
	connLifetime, err := getDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute)
	if err != nil {
		return Server{}, err
	}
	loginWindow, err := getDuration("LOGIN_RATE_WINDOW", time.Minute)
	if err != nil {
		return Server{}, err
	}

	return Server{
		Addr:        getEnv("SMARTRATION_ADDR", ":5000"),
		Environment: getEnv("ENVIRONMENT", "development"),
		// Use a default for development - should be overridden in production
		JWTSigningKey: getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		Admin: AdminConfig{
			Email:        getEnv("ADMIN_EMAIL", "admin@example.com"),
			Password:     getEnv("ADMIN_PASSWORD", "Admin@123"),
			PasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
			TokenTTL:     tokenTTL,
		},
		Issuance: IssuanceConfig{Location: loc},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connLifetime,
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			CardCacheTTL: cardTTL,
		},
		RateLimit: RateLimitConfig{
			LoginLimit:  getInt("LOGIN_RATE_LIMIT", 10),
			LoginWindow: loginWindow,
			Disabled:    getBool("RATE_LIMIT_DISABLED", false),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
