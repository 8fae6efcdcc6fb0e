package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone      = "UTC"
	configPathEnv        = "NEWS_PRIORITIZER_CONFIG"
	databaseDSNEnv       = "DATABASE_DSN"
	logLevelEnv          = "LOG_LEVEL"
	prioritizationEnv    = "PRIORITIZATION_CONFIG"
	metricsAddrEnv       = "METRICS_ADDR"
	defaultPoolWindow    = 7 * 24 * time.Hour
	defaultRefresh       = 5 * time.Minute
	defaultHomepageLimit = 20
	defaultPoolSize      = 500
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging        LoggingConfig        `yaml:"logging"`
	Database       DatabaseConfig       `yaml:"database"`
	Scheduler      SchedulerConfig      `yaml:"scheduler"`
	Prioritization PrioritizationConfig `yaml:"prioritization"`
	Metrics        MetricsConfig        `yaml:"metrics"`
	Sites          []SiteConfig         `yaml:"sites"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig describes Postgres connection details. An empty DSN
// switches the article pool to the configured scraper sites.
type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	PoolSize int    `yaml:"poolSize"`
}

// SchedulerConfig defines when ranking passes run. An empty cron
// expression means a single pass.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, err := time.LoadLocation(defaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// PrioritizationConfig points at the weights file and sizes a pass.
type PrioritizationConfig struct {
	ConfigPath       string        `yaml:"configPath"`
	RefreshInterval  time.Duration `yaml:"refreshInterval"`
	PoolWindow       time.Duration `yaml:"poolWindow"`
	HomepageLimit    int           `yaml:"homepageLimit"`
	FocusLimit       int           `yaml:"focusLimit"`
	IncludeBreakdown bool          `yaml:"includeBreakdown"`
}

// MetricsConfig exposes Prometheus metrics when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// SiteConfig describes a single agency site with its scanner strategy.
type SiteConfig struct {
	Name       string            `yaml:"name"`
	Scanner    string            `yaml:"scanner"`
	Agency     string            `yaml:"agency"`
	Categories []CategoryConfig  `yaml:"categories"`
	Options    map[string]string `yaml:"options"`
}

// CategoryConfig is a listing page, optionally bound to a theme.
type CategoryConfig struct {
	Name       string `yaml:"name"`
	URL        string `yaml:"url"`
	ThemeCode  string `yaml:"themeCode"`
	ThemeLabel string `yaml:"themeLabel"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if fileCfg, err := readFile(path); err != nil {
			log.Printf("config: %v (falling back to defaults)", err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

func readFile(path string) (Config, error) {
	var fileCfg Config
	raw, err := os.ReadFile(path)
	if err != nil {
		return fileCfg, fmt.Errorf("cannot read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return fileCfg, fmt.Errorf("cannot parse %s: %w", path, err)
	}
	return fileCfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(prioritizationEnv); v != "" {
		c.Prioritization.ConfigPath = v
	}
	if v := os.Getenv(metricsAddrEnv); v != "" {
		c.Metrics.Addr = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to UTC", tz)
		loc = time.UTC
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}
	if override.Database.PoolSize > 0 {
		base.Database.PoolSize = override.Database.PoolSize
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	p := override.Prioritization
	if p.ConfigPath != "" {
		base.Prioritization.ConfigPath = p.ConfigPath
	}
	if p.RefreshInterval > 0 {
		base.Prioritization.RefreshInterval = p.RefreshInterval
	}
	if p.PoolWindow > 0 {
		base.Prioritization.PoolWindow = p.PoolWindow
	}
	if p.HomepageLimit > 0 {
		base.Prioritization.HomepageLimit = p.HomepageLimit
	}
	if p.FocusLimit > 0 {
		base.Prioritization.FocusLimit = p.FocusLimit
	}
	if p.IncludeBreakdown {
		base.Prioritization.IncludeBreakdown = true
	}

	if override.Metrics.Addr != "" {
		base.Metrics.Addr = override.Metrics.Addr
	}

	if len(override.Sites) > 0 {
		base.Sites = override.Sites
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging:   LoggingConfig{Level: "info"},
		Database:  DatabaseConfig{PoolSize: defaultPoolSize},
		Scheduler: SchedulerConfig{Timezone: defaultTimezone},
		Prioritization: PrioritizationConfig{
			RefreshInterval: defaultRefresh,
			PoolWindow:      defaultPoolWindow,
			HomepageLimit:   defaultHomepageLimit,
			FocusLimit:      3,
		},
		Sites: []SiteConfig{
			{
				Name:    "mgi",
				Scanner: "govbr",
				Agency:  "mgi",
				Categories: []CategoryConfig{
					{Name: "noticias", URL: "https://www.gov.br/gestao/pt-br/assuntos/noticias"},
				},
			},
		},
	}
}
