package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/envutil"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/logger"
)

type Config struct {
	Env             string        `yaml:"env"`
	Version         string        `yaml:"version"`
	HTTPAddr        string        `yaml:"http_addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`

	Postgres   PostgresConfig   `yaml:"postgres"`
	Redis      RedisConfig      `yaml:"redis"`
	Advertiser AdvertiserConfig `yaml:"advertiser"`
	Recorder   RecorderConfig   `yaml:"recorder"`
	Routing    RoutingConfig    `yaml:"routing"`
	Fraud      FraudConfig      `yaml:"fraud"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Tracing    TracingConfig    `yaml:"tracing"`
}

type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type AdvertiserConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	Retries      int           `yaml:"retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

type RecorderConfig struct {
	Workers      int           `yaml:"workers"`
	QueueSize    int           `yaml:"queue_size"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type RoutingConfig struct {
	Adaptive           bool `yaml:"adaptive"`
	ScoringConcurrency int  `yaml:"scoring_concurrency"`
}

type FraudConfig struct {
	VelocityLimit  int64         `yaml:"velocity_limit"`
	VelocityWindow time.Duration `yaml:"velocity_window"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	Headers     string  `yaml:"headers"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

func defaultConfig() Config {
	return Config{
		Env:             "development",
		HTTPAddr:        ":8080",
		ShutdownTimeout: 15 * time.Second,
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            "5432",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    10,
			ConnMaxLifetime: 30 * time.Minute,
			AutoMigrate:     true,
		},
		Redis: RedisConfig{Prefix: "pin:"},
		Advertiser: AdvertiserConfig{
			Timeout: 15 * time.Second,
			Retries: 2,
		},
		Recorder: RecorderConfig{
			Workers:      4,
			QueueSize:    1024,
			WriteTimeout: 10 * time.Second,
		},
		Routing: RoutingConfig{ScoringConcurrency: 8},
		Fraud:   FraudConfig{VelocityWindow: time.Hour},
		Metrics: MetricsConfig{Enabled: true},
		Tracing: TracingConfig{ServiceName: "pin-router", SampleRatio: 1},
	}
}

// LoadConfig layers defaults, the optional YAML file named by PIN_CONFIG_PATH,
// then environment variables.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := defaultConfig()
	if path := envutil.String("PIN_CONFIG_PATH", ""); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		log.Info("Loaded config file", "path", path)
	}
	applyEnv(&cfg)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Env = envutil.String("APP_ENV", cfg.Env)
	cfg.Version = envutil.String("APP_VERSION", cfg.Version)
	cfg.HTTPAddr = envutil.String("HTTP_ADDR", cfg.HTTPAddr)
	if port := envutil.String("PORT", ""); port != "" && os.Getenv("HTTP_ADDR") == "" {
		cfg.HTTPAddr = ":" + strings.TrimPrefix(port, ":")
	}
	cfg.ShutdownTimeout = envutil.Duration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	cfg.CORSOrigins = envutil.List("CORS_ORIGINS", cfg.CORSOrigins)

	pg := &cfg.Postgres
	pg.DSN = envutil.String("POSTGRES_DSN", pg.DSN)
	pg.Host = envutil.String("POSTGRES_HOST", pg.Host)
	pg.Port = envutil.String("POSTGRES_PORT", pg.Port)
	pg.User = envutil.String("POSTGRES_USER", pg.User)
	pg.Password = envutil.String("POSTGRES_PASSWORD", pg.Password)
	pg.Name = envutil.String("POSTGRES_NAME", pg.Name)
	pg.SSLMode = envutil.String("POSTGRES_SSLMODE", pg.SSLMode)
	pg.MaxOpenConns = envutil.Int("POSTGRES_MAX_OPEN_CONNS", pg.MaxOpenConns)
	pg.MaxIdleConns = envutil.Int("POSTGRES_MAX_IDLE_CONNS", pg.MaxIdleConns)
	pg.ConnMaxLifetime = envutil.Duration("POSTGRES_CONN_MAX_LIFETIME", pg.ConnMaxLifetime)
	pg.AutoMigrate = envutil.Bool("AUTO_MIGRATE", pg.AutoMigrate)

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envutil.String("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = envutil.Int("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.Prefix = envutil.String("REDIS_PREFIX", cfg.Redis.Prefix)

	cfg.Advertiser.Timeout = envutil.Duration("ADV_TIMEOUT", cfg.Advertiser.Timeout)
	cfg.Advertiser.UserAgent = envutil.String("ADV_USER_AGENT", cfg.Advertiser.UserAgent)
	cfg.Advertiser.Retries = envutil.Int("PIN_RETRIES", cfg.Advertiser.Retries)
	cfg.Advertiser.RetryBackoff = envutil.Duration("PIN_RETRY_BACKOFF", cfg.Advertiser.RetryBackoff)

	cfg.Recorder.Workers = envutil.Int("RECORDER_WORKERS", cfg.Recorder.Workers)
	cfg.Recorder.QueueSize = envutil.Int("RECORDER_QUEUE_SIZE", cfg.Recorder.QueueSize)
	cfg.Recorder.WriteTimeout = envutil.Duration("RECORDER_WRITE_TIMEOUT", cfg.Recorder.WriteTimeout)

	cfg.Routing.Adaptive = envutil.Bool("ADAPTIVE_ROUTING", cfg.Routing.Adaptive)
	cfg.Routing.ScoringConcurrency = envutil.Int("SCORING_CONCURRENCY", cfg.Routing.ScoringConcurrency)

	cfg.Fraud.VelocityLimit = int64(envutil.Int("FRAUD_VELOCITY_LIMIT", int(cfg.Fraud.VelocityLimit)))
	cfg.Fraud.VelocityWindow = envutil.Duration("FRAUD_VELOCITY_WINDOW", cfg.Fraud.VelocityWindow)

	cfg.Metrics.Enabled = envutil.Bool("METRICS_ENABLED", cfg.Metrics.Enabled)

	cfg.Tracing.Enabled = envutil.Bool("OTEL_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.ServiceName = envutil.String("OTEL_SERVICE_NAME", cfg.Tracing.ServiceName)
	cfg.Tracing.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Tracing.Endpoint)
	cfg.Tracing.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", cfg.Tracing.Insecure)
	cfg.Tracing.Headers = envutil.String("OTEL_EXPORTER_OTLP_HEADERS", cfg.Tracing.Headers)
	cfg.Tracing.SampleRatio = envutil.Float("OTEL_SAMPLE_RATIO", cfg.Tracing.SampleRatio)
}

func (c Config) validate() error {
	if c.Postgres.DSN == "" && (c.Postgres.Host == "" || c.Postgres.Name == "") {
		return fmt.Errorf("postgres: set POSTGRES_DSN or POSTGRES_HOST and POSTGRES_NAME")
	}
	if c.Advertiser.Retries < 0 {
		return fmt.Errorf("advertiser retries must be >= 0, got %d", c.Advertiser.Retries)
	}
	if c.Fraud.VelocityLimit < 0 {
		return fmt.Errorf("fraud velocity limit must be >= 0, got %d", c.Fraud.VelocityLimit)
	}
	return nil
}
