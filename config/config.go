package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	RendererChrome = "chrome"
	RendererHTTP   = "http"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Scraper ScraperConfig `yaml:"scraper"`
	Storage StorageConfig `yaml:"storage"`
	HTTP    HTTPConfig    `yaml:"http"`
}

type ScraperConfig struct {
	// BaseURL is a search page template; {page} is replaced by the page number.
	BaseURL        string        `yaml:"base_url"`
	MaxPages       int           `yaml:"max_pages"`
	PageDelay      time.Duration `yaml:"page_delay"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	Headless       bool          `yaml:"headless"`
	Renderer       string        `yaml:"renderer"`
	MarkerSelector string        `yaml:"marker_selector"`
	AllowedDomains []string      `yaml:"allowed_domains"`
	CSVPath        string        `yaml:"csv_path"`
}

type StorageConfig struct {
	Driver         string `yaml:"driver"`
	DSN            string `yaml:"dsn"`
	SQLitePath     string `yaml:"sqlite_path"`
	DBHost         string `yaml:"host"`
	DBPort         int    `yaml:"port"`
	DBUser         string `yaml:"user"`
	DBPassword     string `yaml:"password"`
	DBName         string `yaml:"name"`
	DBSSLMode      string `yaml:"sslmode"`
	ResetOnStart   bool   `yaml:"reset_on_start"`
	ConnectRetries int    `yaml:"connect_retries"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

func DefaultConfig() *Config {
	return &Config{
		Scraper: ScraperConfig{
			BaseURL:        "https://novosibirsk.cian.ru/cat.php?deal_type=rent&engine_version=2&location%5B0%5D=201245&offer_type=flat&p={page}&room1=1&room2=1&type=4",
			MaxPages:       3,
			PageDelay:      2 * time.Second,
			RequestTimeout: 20 * time.Second,
			Headless:       true,
			Renderer:       RendererChrome,
			MarkerSelector: `[data-name="CardComponent"]`,
			AllowedDomains: []string{"cian.ru"},
			CSVPath:        "output/flats.csv",
		},
		Storage: StorageConfig{
			Driver:         DriverPostgres,
			SQLitePath:     "output/flats.db",
			DBHost:         "localhost",
			DBPort:         5432,
			DBUser:         "postgres",
			DBPassword:     "admin",
			DBName:         "flats_db",
			DBSSLMode:      "disable",
			ResetOnStart:   false,
			ConnectRetries: 3,
		},
		HTTP: HTTPConfig{
			Addr: ":8000",
		},
	}
}

// Load builds the config from defaults, an optional YAML file, .env and the
// environment, in that order. An empty path skips the YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("could not parse config file: %w", err)
		}
	}

	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv("DB_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv("RESET_ON_START"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid RESET_ON_START: %w", err)
		}
		c.Storage.ResetOnStart = b
	}
	if v := os.Getenv("HEADLESS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid HEADLESS: %w", err)
		}
		c.Scraper.Headless = b
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Scraper.MaxPages < 1 {
		errs = append(errs, fmt.Errorf("max_pages must be at least 1, got %d", c.Scraper.MaxPages))
	}
	if c.Scraper.PageDelay < 0 {
		errs = append(errs, errors.New("page_delay must not be negative"))
	}
	if c.Scraper.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request_timeout must be positive"))
	}
	if strings.TrimSpace(c.Scraper.MarkerSelector) == "" {
		errs = append(errs, errors.New("marker_selector is required"))
	}
	if len(c.Scraper.AllowedDomains) == 0 {
		errs = append(errs, errors.New("allowed_domains must not be empty"))
	}
	switch c.Scraper.Renderer {
	case RendererChrome, RendererHTTP:
	default:
		errs = append(errs, fmt.Errorf("unknown renderer %q", c.Scraper.Renderer))
	}
	switch c.Storage.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}
	return errors.Join(errs...)
}

// PostgresDSN returns the explicit DSN if set, otherwise one built from the
// individual connection fields.
func (c *Config) PostgresDSN() string {
	if c.Storage.DSN != "" {
		return c.Storage.DSN
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Storage.DBUser,
		c.Storage.DBPassword,
		c.Storage.DBHost,
		c.Storage.DBPort,
		c.Storage.DBName,
		c.Storage.DBSSLMode,
	)
}
