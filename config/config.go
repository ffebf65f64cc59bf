package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// DefaultProxyURL is the CORS relay used when a direct playlist fetch fails.
const DefaultProxyURL = "https://api.allorigins.win/get"

// Config holds the complete application configuration
type Config struct {
	// HTTP server settings
	HTTP struct {
		Address string `yaml:"address"`
		Port    string `yaml:"port"`
	} `yaml:"http"`

	// Storage settings
	Storage struct {
		DBPath string `yaml:"db_path"`
	} `yaml:"storage"`

	// Remote playlist fetch settings
	Fetch struct {
		Timeout  time.Duration `yaml:"timeout"`
		ProxyURL string        `yaml:"proxy_url"`
	} `yaml:"fetch"`

	// Notification settings
	Notifications struct {
		TTL time.Duration `yaml:"ttl"`
	} `yaml:"notifications"`

	// Playback engine settings
	Playback struct {
		Timeout     time.Duration `yaml:"timeout"`
		MaxFailures int           `yaml:"max_failures"`
	} `yaml:"playback"`

	// Catalog backup settings. An empty Dir disables backups.
	Backup struct {
		Dir      string `yaml:"dir"`
		Schedule string `yaml:"schedule"`
		Keep     int    `yaml:"keep"`
	} `yaml:"backup"`

	// Catalog settings
	Catalog struct {
		SeedSamples bool `yaml:"seed_samples"`
	} `yaml:"catalog"`

	// Circuit breaker guarding the proxy fetch
	CircuitBreaker struct {
		FailureThreshold int           `yaml:"failure_threshold"`
		Timeout          time.Duration `yaml:"timeout"`
		HalfOpenRequests int           `yaml:"half_open_requests"`
	} `yaml:"circuit_breaker"`

	// Log level: DEBUG, INFO, WARN, ERROR
	LogLevel string `yaml:"log_level"`
}

var validLogLevels = map[string]bool{
	"DEBUG": true,
	"INFO":  true,
	"WARN":  true,
	"ERROR": true,
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	var errors []string

	// Validate HTTP settings
	if c.HTTP.Address == "" {
		errors = append(errors, "HTTP address is required")
	}
	if c.HTTP.Port == "" {
		errors = append(errors, "HTTP port is required")
	}

	// Validate storage settings
	if c.Storage.DBPath == "" {
		errors = append(errors, "Storage DB path is required")
	}

	// Validate fetch settings
	if c.Fetch.Timeout <= 0 {
		errors = append(errors, "Fetch timeout must be positive")
	}
	if c.Fetch.ProxyURL != "" {
		if u, err := url.Parse(c.Fetch.ProxyURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errors = append(errors, "Fetch proxy URL must be an absolute http(s) URL")
		}
	}

	// Validate notification settings
	if c.Notifications.TTL <= 0 {
		errors = append(errors, "Notification TTL must be positive")
	}

	// Validate playback settings
	if c.Playback.Timeout <= 0 {
		errors = append(errors, "Playback timeout must be positive")
	}
	if c.Playback.MaxFailures <= 0 {
		errors = append(errors, "Playback max failures must be positive")
	}

	// Validate backup settings
	if c.Backup.Dir != "" {
		if c.Backup.Keep <= 0 {
			errors = append(errors, "Backup keep must be positive")
		}
		if _, err := cron.ParseStandard(c.Backup.Schedule); err != nil {
			errors = append(errors, fmt.Sprintf("Backup schedule is invalid: %v", err))
		}
	}

	// Validate circuit breaker settings
	if c.CircuitBreaker.FailureThreshold <= 0 {
		errors = append(errors, "Circuit breaker failure threshold must be positive")
	}
	if c.CircuitBreaker.Timeout <= 0 {
		errors = append(errors, "Circuit breaker timeout must be positive")
	}
	if c.CircuitBreaker.HalfOpenRequests <= 0 {
		errors = append(errors, "Circuit breaker half-open requests must be positive")
	}

	if !validLogLevels[c.LogLevel] {
		errors = append(errors, "Log level must be one of: DEBUG, INFO, WARN, ERROR")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// Default returns a Config with sensible default values
func Default() *Config {
	cfg := &Config{}

	// HTTP defaults
	cfg.HTTP.Address = "127.0.0.1"
	cfg.HTTP.Port = "8080"

	// Storage defaults
	cfg.Storage.DBPath = "iptv-catalog.db"

	// Fetch defaults
	cfg.Fetch.Timeout = 30 * time.Second
	cfg.Fetch.ProxyURL = DefaultProxyURL

	// Notification defaults
	cfg.Notifications.TTL = 5 * time.Second

	// Playback defaults
	cfg.Playback.Timeout = 15 * time.Second
	cfg.Playback.MaxFailures = 3

	// Backup defaults (disabled until a directory is set)
	cfg.Backup.Dir = ""
	cfg.Backup.Schedule = "@daily"
	cfg.Backup.Keep = 7

	// Catalog defaults
	cfg.Catalog.SeedSamples = true

	// Circuit breaker defaults
	cfg.CircuitBreaker.FailureThreshold = 5
	cfg.CircuitBreaker.Timeout = 30 * time.Second
	cfg.CircuitBreaker.HalfOpenRequests = 1

	cfg.LogLevel = "INFO"

	return cfg
}

// writeTimeoutMargin is added to the slowest request path when deriving the
// server write timeout.
const writeTimeoutMargin = 15 * time.Second

// HTTPWriteTimeout returns a server write timeout that outlasts the slowest
// handler: a URL import may spend Fetch.Timeout on the direct GET and again on
// the proxy GET, and playing an HLS master playlist loads two manifests.
func (c *Config) HTTPWriteTimeout() time.Duration {
	longest := 2 * c.Fetch.Timeout
	if p := 2 * c.Playback.Timeout; p > longest {
		longest = p
	}
	return longest + writeTimeoutMargin
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.LogLevel = strings.ToUpper(cfg.LogLevel)

	return cfg, nil
}

// Load loads configuration from a file (if provided) and applies environment variable overrides
func Load() (*Config, error) {
	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); err == nil {
		cfg, err = LoadFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg = Default()
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) error {
	p := &envParser{}

	p.parseString("HTTP_ADDRESS", &cfg.HTTP.Address)
	p.parseString("HTTP_PORT", &cfg.HTTP.Port)
	p.parsePath("DB_PATH", &cfg.Storage.DBPath)
	p.parseEnum("LOG_LEVEL", &cfg.LogLevel, validLogLevels)

	p.parseDuration("FETCH_TIMEOUT", &cfg.Fetch.Timeout)
	p.parseString("FETCH_PROXY_URL", &cfg.Fetch.ProxyURL)

	p.parseDuration("NOTIFICATION_TTL", &cfg.Notifications.TTL)

	p.parseDuration("PLAYBACK_TIMEOUT", &cfg.Playback.Timeout)
	p.parseInt("PLAYBACK_MAX_FAILURES", &cfg.Playback.MaxFailures)

	p.parsePath("BACKUP_DIR", &cfg.Backup.Dir)
	p.parseString("BACKUP_SCHEDULE", &cfg.Backup.Schedule)
	p.parseInt("BACKUP_KEEP", &cfg.Backup.Keep)

	p.parseBool("SEED_SAMPLES", &cfg.Catalog.SeedSamples)

	p.parseInt("CB_FAILURE_THRESHOLD", &cfg.CircuitBreaker.FailureThreshold)
	p.parseDuration("CB_TIMEOUT", &cfg.CircuitBreaker.Timeout)

	return p.err()
}

// Print outputs the configuration to stdout
func (c *Config) Print() {
	fmt.Printf("httpAddress: %v\n", c.HTTP.Address)
	fmt.Printf("httpPort: %v\n", c.HTTP.Port)
	fmt.Printf("dbPath: %v\n", c.Storage.DBPath)
	fmt.Printf("fetchTimeout: %v\n", c.Fetch.Timeout)
	fmt.Printf("fetchProxyUrl: %v\n", c.Fetch.ProxyURL)
	fmt.Printf("notificationTTL: %v\n", c.Notifications.TTL)
	fmt.Printf("playbackTimeout: %v\n", c.Playback.Timeout)
	fmt.Printf("playbackMaxFailures: %v\n", c.Playback.MaxFailures)
	fmt.Printf("backupDir: %v\n", c.Backup.Dir)
	fmt.Printf("backupSchedule: %v\n", c.Backup.Schedule)
	fmt.Printf("backupKeep: %v\n", c.Backup.Keep)
	fmt.Printf("seedSamples: %v\n", c.Catalog.SeedSamples)
	fmt.Printf("cbFailureThreshold: %v\n", c.CircuitBreaker.FailureThreshold)
	fmt.Printf("cbTimeout: %v\n", c.CircuitBreaker.Timeout)
	fmt.Printf("logLevel: %v\n", c.LogLevel)
}

// absPath normalizes a filesystem path to an absolute one
func absPath(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s: %w", p, err)
	}
	return abs, nil
}
