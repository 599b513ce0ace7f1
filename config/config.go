package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Postgres PostgresConfig
	Cache    CacheConfig
	Catalog  CatalogConfig
	Images   ImagesConfig
}

type ServerConfig struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	AppEnv          string        `env:"APP_ENV" envDefault:"development"`
	AdminToken      string        `env:"ADMIN_TOKEN"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	RateLimit       float64       `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateBurst       int           `env:"RATE_LIMIT_BURST" envDefault:"40"`
	RateTTL         time.Duration `env:"RATE_LIMIT_TTL" envDefault:"3m"`
}

type LoggerConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

type PostgresConfig struct {
	URL             string        `env:"DATABASE_URL"`
	Host            string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port            string        `env:"POSTGRES_PORT" envDefault:"5432"`
	User            string        `env:"POSTGRES_USER" envDefault:"postgres"`
	Password        string        `env:"POSTGRES_PASSWORD"`
	DBName          string        `env:"POSTGRES_DB" envDefault:"catalog"`
	SSLMode         string        `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	MaxOpenConns    int           `env:"POSTGRES_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"POSTGRES_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"POSTGRES_CONN_MAX_LIFETIME" envDefault:"30m"`
	ConnectAttempts int           `env:"POSTGRES_CONNECT_ATTEMPTS" envDefault:"5"`
	ConnectDelay    time.Duration `env:"POSTGRES_CONNECT_DELAY" envDefault:"1s"`
	ConnectMaxDelay time.Duration `env:"POSTGRES_CONNECT_MAX_DELAY" envDefault:"15s"`
}

// DSN returns DATABASE_URL when set, otherwise a URL assembled from the
// POSTGRES_* parts.
func (c PostgresConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else {
		u.User = url.User(c.User)
	}
	return u.String()
}

type CacheConfig struct {
	Enabled  bool          `env:"CACHE_ENABLED" envDefault:"false"`
	RedisURL string        `env:"CACHE_REDIS_URL" envDefault:"redis://localhost:6379/0"`
	TTL      time.Duration `env:"CACHE_TTL" envDefault:"10m"`
	Prefix   string        `env:"CACHE_PREFIX" envDefault:"catalog"`
}

type CatalogConfig struct {
	StaticDir     string `env:"STATIC_DIR" envDefault:"static"`
	CatalogDir    string `env:"CATALOG_DIR" envDefault:"static/catalog"`
	URLPrefix     string `env:"STATIC_URL_PREFIX" envDefault:"/static/catalog"`
	SKUSource     string `env:"SKU_SOURCE" envDefault:"document"`
	SKUFirstToken bool   `env:"SKU_FIRST_TOKEN" envDefault:"false"`
	// Categories overrides the built-in plans, see importer.ParsePlans.
	Categories string `env:"CATALOG_CATEGORIES"`
}

type ImagesConfig struct {
	Workers     int `env:"IMAGE_WORKERS" envDefault:"20"`
	JPEGQuality int `env:"JPEG_QUALITY" envDefault:"80"`
	MaxWidth    int `env:"IMAGE_MAX_WIDTH" envDefault:"0"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}
	return Parse()
}

// Parse reads the configuration from the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Images.JPEGQuality < 1 || c.Images.JPEGQuality > 100 {
		return fmt.Errorf("JPEG_QUALITY must be within 1..100, got %d", c.Images.JPEGQuality)
	}
	if c.Images.Workers < 1 {
		return fmt.Errorf("IMAGE_WORKERS must be positive, got %d", c.Images.Workers)
	}
	if c.Server.RateLimit < 0 || c.Server.RateBurst < 0 {
		return errors.New("rate limit settings must not be negative")
	}
	return nil
}

func (c *Config) Production() bool {
	return c.Server.AppEnv == "production"
}
