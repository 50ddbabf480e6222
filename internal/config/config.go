package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	Scheduler SchedulerConfig
	Metrics   MetricsConfig
	Auth      AuthConfig
	LogLevel  string
}

type ServerConfig struct {
	Host         string
	Port         int
	AdminPort    int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Connect-retry backoff, for the startup ping loop (internal/host.BackoffPolicy).
	ConnectBackoffInitial time.Duration
	ConnectBackoffMax     time.Duration
	ConnectBackoffFactor  float64
	ConnectRetries        int
}

// SchedulerConfig tunes the single-threaded scheduler loop (SPEC_FULL.md
// §12, §16).
type SchedulerConfig struct {
	Tick               time.Duration
	ShutdownTimeout    time.Duration
	EventStreamName    string
	EventRetentionDays int
	RateLimitRPS       int
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

type AuthConfig struct {
	Enabled   bool
	JWTSecret string
	APIKeys   []string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/coroutine")

	// Set defaults
	setDefaults()

	// Environment variable binding
	viper.SetEnvPrefix("COROUTINE")
	viper.AutomaticEnv()

	// Read config file (optional)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.adminport", 8081)
	viper.SetDefault("server.readtimeout", 30*time.Second)
	viper.SetDefault("server.writetimeout", 30*time.Second)
	viper.SetDefault("server.idletimeout", 120*time.Second)

	// Redis defaults
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.poolsize", 100)
	viper.SetDefault("redis.minidleconns", 10)
	viper.SetDefault("redis.maxretries", 3)
	viper.SetDefault("redis.dialtimeout", 5*time.Second)
	viper.SetDefault("redis.readtimeout", 3*time.Second)
	viper.SetDefault("redis.writetimeout", 3*time.Second)
	viper.SetDefault("redis.connectbackoffinitial", 50*time.Millisecond)
	viper.SetDefault("redis.connectbackoffmax", 5*time.Second)
	viper.SetDefault("redis.connectbackofffactor", 2.0)
	viper.SetDefault("redis.connectretries", 5)

	// Scheduler defaults
	viper.SetDefault("scheduler.tick", 10*time.Millisecond)
	viper.SetDefault("scheduler.shutdowntimeout", 30*time.Second)
	viper.SetDefault("scheduler.eventstreamname", "scheduler:events")
	viper.SetDefault("scheduler.eventretentiondays", 7)
	viper.SetDefault("scheduler.ratelimitrps", 1000)

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")

	// Auth defaults
	viper.SetDefault("auth.enabled", false)
	viper.SetDefault("auth.jwtsecret", "")
	viper.SetDefault("auth.apikeys", []string{})

	// Logging defaults
	viper.SetDefault("loglevel", "info")
}
