package config

import (
	"fmt"
	"time"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Generation  GenerationConfig  `yaml:"generation"`
	ImageSearch ImageSearchConfig `yaml:"image_search"`
	Injection   InjectionConfig   `yaml:"injection"`
	Routing     RoutingConfig     `yaml:"routing"`
}

type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	MaxBodyBytes     int64         `yaml:"max_body_bytes"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

func (d DatabaseConfig) DSN() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", d.User, d.Password, d.Host, d.Port, d.Name, sslMode)
}

type RedisConfig struct {
	Addresses []string `yaml:"addresses"`
	Password  string   `yaml:"password"`
	DB        int      `yaml:"db"`
	PoolSize  int      `yaml:"pool_size"`
	// DestinationCacheTTL is how long a destination lookup is cached.
	DestinationCacheTTL time.Duration `yaml:"destination_cache_ttl"`
}

type TelemetryConfig struct {
	ServiceName     string  `yaml:"service_name"`
	LogLevel        string  `yaml:"log_level"`
	LogFormat       string  `yaml:"log_format"`
	OTLPEndpoint    string  `yaml:"otlp_endpoint"`
	TraceSampleRate float64 `yaml:"trace_sample_rate"`
}

// RateLimitConfig controls the per-client-IP limiter on the generation routes.
// Backend is "memory" (single instance) or "redis" (shared across instances).
type RateLimitConfig struct {
	Backend       string        `yaml:"backend"`
	Requests      int64         `yaml:"requests"`
	Window        time.Duration `yaml:"window"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type GenerationConfig struct {
	Timeout          time.Duration `yaml:"timeout"`
	PreviewLength    int           `yaml:"preview_length"`
	DestinationModel string        `yaml:"destination_model"`
	PackageModel     string        `yaml:"package_model"`
	ItineraryModel   string        `yaml:"itinerary_model"`
}

type ImageSearchConfig struct {
	Enabled     bool          `yaml:"enabled"`
	BaseURL     string        `yaml:"base_url"`
	AccessKey   string        `yaml:"access_key"`
	Orientation string        `yaml:"orientation"`
	Timeout     time.Duration `yaml:"timeout"`
}

type InjectionConfig struct {
	Enabled       bool    `yaml:"enabled"`
	FlagThreshold float64 `yaml:"flag_threshold"`
}

type RoutingConfig struct {
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

type CircuitBreakerConfig struct {
	FailureThreshold      int           `yaml:"failure_threshold"`
	RecoveryInterval time.Duration `yaml:"recovery_interval"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     120 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 30 * time.Second,
			MaxBodyBytes:     64 << 10,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Name:            "tourdesk",
			User:            "tourdesk",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    10,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			DB:                  0,
			PoolSize:            20,
			DestinationCacheTTL: time.Minute,
		},
		Telemetry: TelemetryConfig{
			ServiceName:     "tourdesk",
			LogLevel:        "info",
			LogFormat:       "json",
			TraceSampleRate: 0.1,
		},
		RateLimit: RateLimitConfig{
			Backend:       "memory",
			Requests:      10,
			Window:        time.Minute,
			SweepInterval: 5 * time.Minute,
		},
		Generation: GenerationConfig{
			Timeout:          60 * time.Second,
			PreviewLength:    500,
			DestinationModel: "content-default",
			PackageModel:     "content-default",
			ItineraryModel:   "content-default",
		},
		ImageSearch: ImageSearchConfig{
			Enabled:     true,
			BaseURL:     "https://api.unsplash.com",
			Orientation: "landscape",
			Timeout:     10 * time.Second,
		},
		Injection: InjectionConfig{
			Enabled:       true,
			FlagThreshold: 0.7,
		},
		Routing: RoutingConfig{
			CircuitBreaker: CircuitBreakerConfig{
				FailureThreshold:      5,
				RecoveryInterval: 30 * time.Second,
			},
		},
	}
}
