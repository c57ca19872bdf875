package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/vasapolrittideah/couchnbs-api/shared/mailer"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Port     int    `env:"PORT"      envDefault:"5000"`
	AppEnv   string `env:"APP_ENV"   envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	BaseURL  string `env:"BASE_URL"  envDefault:"http://localhost:5000"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	Database       DatabaseConfig
	Token          TokenConfig
	Mailer         mailer.Config
	AI             AIConfig
	Storage        StorageConfig
	Processor      ProcessorConfig
	AdminBootstrap AdminBootstrapConfig
}

type DatabaseConfig struct {
	Driver        string `env:"DB_DRIVER"      envDefault:"mongo"`
	MongoURI      string `env:"MONGO_URI"      envDefault:"mongodb://localhost:27017/nader_ai_db"`
	MongoDatabase string `env:"MONGO_DATABASE"`
	DSN           string `env:"DATABASE_DSN"   envDefault:"studio.db"`
}

type TokenConfig struct {
	Secret           string        `env:"JWT_SECRET"`
	Issuer           string        `env:"JWT_ISSUER"         envDefault:"couchnbs"`
	SessionTTL       time.Duration `env:"JWT_SESSION_TTL"    envDefault:"168h"`
	PasswordResetTTL time.Duration `env:"PASSWORD_RESET_TTL" envDefault:"1h"`
}

type AIConfig struct {
	GroqAPIKey      string `env:"GROQ_API_KEY"`
	GroqBaseURL     string `env:"GROQ_BASE_URL"     envDefault:"https://api.groq.com/openai/v1"`
	GroqModel       string `env:"GROQ_MODEL"        envDefault:"llama-3.3-70b-versatile"`
	StabilityAPIKey string `env:"STABILITY_API_KEY"`
	StabilityURL    string `env:"STABILITY_URL"     envDefault:"https://api.stability.ai/v2beta/stable-image/generate/core"`
}

type StorageConfig struct {
	UploadDir      string `env:"UPLOAD_DIR"       envDefault:"uploads"`
	PublicDir      string `env:"PUBLIC_DIR"       envDefault:"public"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" envDefault:"52428800"`
}

type ProcessorConfig struct {
	Interpreter    string        `env:"PROCESSOR_INTERPRETER"     envDefault:"python3"`
	Script         string        `env:"PROCESSOR_SCRIPT"          envDefault:"scripts/upscale.py"`
	Timeout        time.Duration `env:"PROCESSOR_TIMEOUT"         envDefault:"15m"`
	MaxConcurrency int64         `env:"PROCESSOR_MAX_CONCURRENCY" envDefault:"2"`
}

type AdminBootstrapConfig struct {
	Email    string `env:"ADMIN_BOOTSTRAP_EMAIL"`
	Password string `env:"ADMIN_BOOTSTRAP_PASSWORD"`
	Name     string `env:"ADMIN_BOOTSTRAP_NAME"     envDefault:"Administrator"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromEnv builds a Config from the given variables only.
func LoadFromEnv(vars map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT: %d is out of range", c.Port)
	}
	if c.Token.Secret == "" {
		return errors.New("missing JWT_SECRET environment variable")
	}
	if c.Token.SessionTTL <= 0 {
		return errors.New("JWT_SESSION_TTL: must be > 0")
	}
	if c.Token.PasswordResetTTL <= 0 {
		return errors.New("PASSWORD_RESET_TTL: must be > 0")
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("BASE_URL: %q must be an absolute URL", c.BaseURL)
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	switch c.Database.Driver {
	case DriverMongo:
		if c.Database.MongoURI == "" {
			return errors.New("missing MONGO_URI environment variable")
		}
	case DriverPostgres, DriverSQLite:
		if c.Database.DSN == "" {
			return errors.New("missing DATABASE_DSN environment variable")
		}
	default:
		return fmt.Errorf("DB_DRIVER: unsupported driver %q", c.Database.Driver)
	}

	if c.Processor.Timeout <= 0 {
		return errors.New("PROCESSOR_TIMEOUT: must be > 0")
	}
	if c.Processor.MaxConcurrency <= 0 {
		return errors.New("PROCESSOR_MAX_CONCURRENCY: must be > 0")
	}
	if c.Storage.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES: must be > 0")
	}

	if c.AdminBootstrap.Password != "" && c.AdminBootstrap.Email == "" {
		return errors.New("ADMIN_BOOTSTRAP_EMAIL is required when ADMIN_BOOTSTRAP_PASSWORD is set")
	}

	return nil
}
