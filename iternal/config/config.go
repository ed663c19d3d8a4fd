package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

type DB struct {
	Driver string `yaml:"driver" env:"DB_DRIVER" env-default:"sqlite3"`
	Path   string `yaml:"path" env:"DB_PATH" env-default:"database3.db"` // sqlite3 only
	User   string `yaml:"user" env:"DB_USER"`
	Pass   string `yaml:"password" env:"DB_PASSWORD"`
	Host   string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port   string `yaml:"port" env:"DB_PORT" env-default:"5432"`
	Name   string `yaml:"name" env:"DB_NAME" env-default:"userapi"`
	Ssl    string `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
}

type Rest struct {
	Host            string        `yaml:"host" env:"REST_HOST" env-default:"127.0.0.1"`
	Port            string        `yaml:"port" env:"REST_PORT" env-default:"8000"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"REST_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"REST_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"REST_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"REST_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

type Log struct {
	FilePath string `yaml:"logger_file_path" env:"LOG_FILE_PATH"`
}

// CORS lists the origins allowed to call the API with credentials.
// A "*" entry makes the server echo back any request origin.
type CORS struct {
	AllowOrigins []string      `yaml:"allow_origins" env:"CORS_ALLOW_ORIGINS" env-default:"http://localhost,https://localhost,http://localhost:8080,http://127.0.0.1:8000"`
	AllowHeaders []string      `yaml:"allow_headers" env:"CORS_ALLOW_HEADERS" env-default:"Origin,Content-Type,Content-Length,Accept,Authorization,X-Request-ID"`
	MaxAge       time.Duration `yaml:"max_age" env:"CORS_MAX_AGE" env-default:"12h"`
}

type Pagination struct {
	DefaultLimit int `yaml:"default_limit" env:"PAGINATION_DEFAULT_LIMIT" env-default:"10"`
	MaxLimit     int `yaml:"max_limit" env:"PAGINATION_MAX_LIMIT" env-default:"100"`
}

type Config struct {
	Env        string     `yaml:"env" env:"ENV" env-default:"local"`
	DB         DB         `yaml:"db"`
	Rest       Rest       `yaml:"rest"`
	Log        Log        `yaml:"logger"`
	CORS       CORS       `yaml:"cors"`
	Pagination Pagination `yaml:"pagination"`
}

var ErrUnknownDriver = errors.New("unknown database driver")

// Load reads the yaml file at path (when path is not empty) and applies
// environment overrides on top of it.
func Load(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	} else {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad resolves the config path from the argument or CONFIG_PATH and
// stops the process when the config cannot be read.
func MustLoad(path string) *Config {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	cfg, err := Load(path)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

func (c *Config) validate() error {
	switch c.DB.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("config: %w: %q", ErrUnknownDriver, c.DB.Driver)
	}
	if c.Pagination.DefaultLimit < 0 || c.Pagination.MaxLimit <= 0 {
		return fmt.Errorf("config: pagination limits must be positive")
	}
	if c.Pagination.DefaultLimit > c.Pagination.MaxLimit {
		c.Pagination.DefaultLimit = c.Pagination.MaxLimit
	}
	return nil
}

// DataSource returns the DSN understood by the configured driver.
func (d DB) DataSource() string {
	if d.Driver == DriverPostgres {
		return fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=%s sslmode=%s",
			d.User, d.Pass, d.Name, d.Host, d.Port, d.Ssl)
	}
	return d.Path
}

func (r Rest) Addr() string {
	return r.Host + ":" + r.Port
}
