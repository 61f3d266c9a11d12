package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	BaseURL      string        `yaml:"base_url"` // public origin used in checkout redirect URLs
}

type AdminConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type StripeConfig struct {
	SecretKey      string `yaml:"secret_key"`
	WebhookSecret  string `yaml:"webhook_secret"`
	Currency       string `yaml:"currency"`
	PricePerPack   int64  `yaml:"price_per_pack"` // cents per credit pack
	CreditsPerPack int64  `yaml:"credits_per_pack"`
}

type AIConfig struct {
	FluxKey         string `yaml:"flux_key"`
	FluxBaseURL     string `yaml:"flux_base_url"`
	FluxModel       string `yaml:"flux_model"`
	GeminiKey       string `yaml:"gemini_key"`
	GeminiURL       string `yaml:"gemini_url"`
	GeminiModel     string `yaml:"gemini_model"`
	DefaultProvider string `yaml:"default_provider"` // flux | gemini
	ConcurrentLimit int    `yaml:"concurrent_limit"` // max concurrent generation calls
}

type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	PublicURL string `yaml:"public_url"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type SecurityConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type CreditsConfig struct {
	SignupGrant    int64         `yaml:"signup_grant"`
	CostPerImage   int64         `yaml:"cost_per_image"`
	GenerateLimit  int           `yaml:"generate_limit"` // requests per window
	GenerateWindow time.Duration `yaml:"generate_window"`
}

type SchedulerConfig struct {
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
	PendingMaxAge     time.Duration `yaml:"pending_max_age"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Admin     AdminConfig     `yaml:"admin"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Stripe    StripeConfig    `yaml:"stripe"`
	AI        AIConfig        `yaml:"ai"`
	Storage   StorageConfig   `yaml:"storage"`
	Security  SecurityConfig  `yaml:"security"`
	Credits   CreditsConfig   `yaml:"credits"`
	Scheduler SchedulerConfig `yaml:"scheduler"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig() (*Config, error) {
	var configPath string = ""
	var dev bool
	flag.StringVar(&configPath, "config", "config.yaml", "path to config yaml")
	flag.BoolVar(&dev, "dev", false, "development mode")
	flag.Parse()

	b, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Security.JWTSecret == "" {
		return nil, errors.New("security.jwt_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = 120 * time.Second
	}
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}
	if cfg.Admin.Port <= 0 {
		cfg.Admin.Port = 8081
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 8
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.Stripe.Currency == "" {
		cfg.Stripe.Currency = "usd"
	}
	if cfg.Stripe.PricePerPack <= 0 {
		cfg.Stripe.PricePerPack = 500
	}
	if cfg.Stripe.CreditsPerPack <= 0 {
		cfg.Stripe.CreditsPerPack = 100
	}
	if cfg.AI.FluxBaseURL == "" {
		cfg.AI.FluxBaseURL = "https://api.tu-zi.com/v1"
	}
	if cfg.AI.FluxModel == "" {
		cfg.AI.FluxModel = "flux-kontext-pro"
	}
	if cfg.AI.GeminiModel == "" {
		cfg.AI.GeminiModel = "imagen-3.0-generate-002"
	}
	if cfg.AI.DefaultProvider == "" {
		cfg.AI.DefaultProvider = "flux"
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 16
	}
	if cfg.Security.TokenTTL <= 0 {
		cfg.Security.TokenTTL = 24 * time.Hour
	}
	if cfg.Credits.SignupGrant <= 0 {
		cfg.Credits.SignupGrant = 10
	}
	if cfg.Credits.CostPerImage <= 0 {
		cfg.Credits.CostPerImage = 1
	}
	if cfg.Credits.GenerateLimit <= 0 {
		cfg.Credits.GenerateLimit = 10
	}
	if cfg.Credits.GenerateWindow <= 0 {
		cfg.Credits.GenerateWindow = time.Minute
	}
	if cfg.Scheduler.ReconcileInterval <= 0 {
		cfg.Scheduler.ReconcileInterval = 10 * time.Minute
	}
	if cfg.Scheduler.PendingMaxAge <= 0 {
		cfg.Scheduler.PendingMaxAge = time.Hour
	}
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
