package config

import (
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "your-super-secret-jwt-key-change-this-in-production"

// Store drivers.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Environment string
	Port        string
	LogLevel    string
	Store       StoreConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Cookie      CookieConfig
	CORS        CORSConfig
	Redis       RedisConfig
	RateLimit   RateLimitConfig
	RabbitMQ    RabbitMQConfig

	// RestoreFailedAccepts re-issues an invitation consumed by an accept
	// whose membership write failed.
	RestoreFailedAccepts bool
}

type StoreConfig struct {
	Driver        string
	MongoURI      string
	MongoDatabase string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// DSN builds a libpq connection string for pgx.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

type JWTConfig struct {
	Secret    string
	ExpiresIn string
}

type CookieConfig struct {
	Domain string
	Secure bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Login  int
	API    int
	Window time.Duration
}

type RabbitMQConfig struct {
	URL   string
	Queue string
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		Environment: getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "3001"),
		LogLevel:    getEnv("LOG_LEVEL", ""),
		Store: StoreConfig{
			Driver:        strings.ToLower(getEnv("STORE_DRIVER", DriverMongo)),
			MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			MongoDatabase: getEnv("MONGO_DATABASE", "shopping_list"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "postgres"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "shopping_list"),
			User:     getEnv("DB_USER", "shopping_user"),
			Password: getEnv("DB_PASSWORD", "shopping_password"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: int32(getInt("DB_MAX_CONNS", 10)),
			MinConns: int32(getInt("DB_MIN_CONNS", 1)),
		},
		JWT: JWTConfig{
			Secret:    getEnv("JWT_SECRET", defaultJWTSecret),
			ExpiresIn: getEnv("JWT_LIFETIME", "1h"),
		},
		Cookie: CookieConfig{
			Domain: getEnv("COOKIE_DOMAIN", ""),
			Secure: getBool("COOKIE_SECURE", false),
		},
		CORS: CORSConfig{
			AllowedOrigins: originList(getEnv("FRONTEND_URL", "http://localhost:3000"), getEnv("CORS_ALLOWED_ORIGINS", "")),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			Login:  getInt("RATE_LIMIT_LOGIN", 10),
			API:    getInt("RATE_LIMIT_API", 300),
			Window: getDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		RabbitMQ: RabbitMQConfig{
			URL:   getEnv("RABBITMQ_URL", ""),
			Queue: getEnv("RABBITMQ_QUEUE", "shoplist.events"),
		},
		RestoreFailedAccepts: getBool("RESTORE_FAILED_ACCEPTS", false),
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMongo, DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.IsProduction() && c.JWT.Secret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	return nil
}

func originList(frontend, extra string) []string {
	origins := []string{frontend}
	for _, o := range strings.Split(extra, ",") {
		if o = strings.TrimSpace(o); o != "" && o != frontend {
			origins = append(origins, o)
		}
	}
	return origins
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}
