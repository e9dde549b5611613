package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	GoogleAPI GoogleAPIConfig `mapstructure:"google_api"`
	S3        S3Config        `mapstructure:"s3"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	Worker    WorkerConfig    `mapstructure:"worker"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Env             string        `mapstructure:"env"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json | console
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // in minutes
}

// Enabled reports whether a database was configured at all.
func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type GoogleAPIConfig struct {
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	RedirectURL  string   `mapstructure:"redirect_url"`
	Scopes       []string `mapstructure:"scopes"`
}

func (g GoogleAPIConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

type S3Config struct {
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

// MatchingConfig is handed to the engine explicitly; the engine never reads globals.
type MatchingConfig struct {
	Timezone           string        `mapstructure:"timezone"`
	SlotStepMinutes    int           `mapstructure:"slot_step_minutes"`
	SameDayLeadMinutes int           `mapstructure:"same_day_lead_minutes"`
	HorizonDays        int           `mapstructure:"horizon_days"`
	LookbackDays       int           `mapstructure:"lookback_days"`
	MaxCandidates      int           `mapstructure:"max_candidates"`
	MaxResults         int           `mapstructure:"max_results"`
	DefaultPolicy      string        `mapstructure:"default_policy"`
	FetchConcurrency   int           `mapstructure:"fetch_concurrency"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	PatternCacheTTL    time.Duration `mapstructure:"pattern_cache_ttl"`
}

type WorkerConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Concurrency int    `mapstructure:"concurrency"`
	RefreshCron string `mapstructure:"refresh_cron"`
	Queue       string `mapstructure:"queue"`
}

const envPrefix = "SMARTSCHEDULE"

var (
	instance *Config
	mu       sync.RWMutex
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 7070)
	v.SetDefault("server.env", "development")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30)

	v.SetDefault("google_api.scopes", []string{"https://www.googleapis.com/auth/calendar.readonly"})

	v.SetDefault("s3.region", "ap-southeast-1")
	v.SetDefault("s3.prefix", "calendars")

	v.SetDefault("matching.timezone", "Asia/Ho_Chi_Minh")
	v.SetDefault("matching.slot_step_minutes", 30)
	v.SetDefault("matching.same_day_lead_minutes", 120)
	v.SetDefault("matching.horizon_days", 7)
	v.SetDefault("matching.lookback_days", 30)
	v.SetDefault("matching.max_candidates", 400)
	v.SetDefault("matching.max_results", 10)
	v.SetDefault("matching.default_policy", "require_all")
	v.SetDefault("matching.fetch_concurrency", 8)
	v.SetDefault("matching.request_timeout", 15*time.Second)
	v.SetDefault("matching.pattern_cache_ttl", 6*time.Hour)

	v.SetDefault("worker.enabled", false)
	v.SetDefault("worker.concurrency", 4)
	v.SetDefault("worker.refresh_cron", "0 3 * * *")
	v.SetDefault("worker.queue", "patterns")
}

// Load reads .env (if present), config.yaml (if present) and SMARTSCHEDULE_* variables.
func Load(paths ...string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mu.Lock()
	instance = &cfg
	mu.Unlock()

	return &cfg, nil
}

// Validate rejects settings the matching pipeline cannot run with.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Matching.Timezone); err != nil {
		return fmt.Errorf("matching.timezone %q: %w", c.Matching.Timezone, err)
	}
	if c.Matching.SlotStepMinutes <= 0 || 1440%c.Matching.SlotStepMinutes != 0 {
		return fmt.Errorf("matching.slot_step_minutes must divide a day, got %d", c.Matching.SlotStepMinutes)
	}
	if c.Matching.HorizonDays <= 0 {
		return fmt.Errorf("matching.horizon_days must be positive, got %d", c.Matching.HorizonDays)
	}
	if c.Matching.MaxResults <= 0 || c.Matching.MaxCandidates < c.Matching.MaxResults {
		return fmt.Errorf("matching.max_candidates (%d) must be >= max_results (%d) > 0",
			c.Matching.MaxCandidates, c.Matching.MaxResults)
	}
	switch c.Matching.DefaultPolicy {
	case "require_all", "majority", "any":
	default:
		return fmt.Errorf("matching.default_policy %q is not one of require_all, majority, any", c.Matching.DefaultPolicy)
	}
	if c.Matching.FetchConcurrency <= 0 {
		return fmt.Errorf("matching.fetch_concurrency must be positive")
	}
	return nil
}

// Location returns the configured matching timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Matching.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Get returns the loaded configuration and panics if Load was never called.
func Get() *Config {
	cfg, err := GetSafe()
	if err != nil {
		panic(err)
	}
	return cfg
}

func GetSafe() (*Config, error) {
	mu.RLock()
	defer mu.RUnlock()
	if instance == nil {
		return nil, fmt.Errorf("config not loaded")
	}
	return instance, nil
}
