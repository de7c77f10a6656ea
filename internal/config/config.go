// Package config loads server configuration from an optional YAML file
// with environment variable overrides. Environment always wins so
// deployments can patch a shared file per instance.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"sparkbridge/internal/logging"
)

// Config is the full server configuration.
type Config struct {
	// ListenAddr is the gRPC listen address.
	ListenAddr string `yaml:"listen_addr"`

	// MetricsAddr serves Prometheus metrics when non-empty.
	MetricsAddr string `yaml:"metrics_addr"`

	LogLevel string `yaml:"log_level"`

	// SparkAPIURL selects the real backend; when empty the server runs
	// against the in-memory mock backend.
	SparkAPIURL string `yaml:"spark_api_url"`
	SparkAPIKey string `yaml:"spark_api_key"`

	DBPath string `yaml:"db_path"`

	TLSEnable   bool   `yaml:"tls_enable"`
	TLSCertPath string `yaml:"tls_cert_path"`
	TLSKeyPath  string `yaml:"tls_key_path"`

	// SendTimeout bounds an outgoing send before it is reported
	// indeterminate.
	SendTimeout time.Duration `yaml:"send_timeout"`

	// QuoteTTL bounds the quote cache. Zero disables caching.
	QuoteTTL time.Duration `yaml:"quote_ttl"`

	// RateLimitPerSecond throttles each peer; zero disables limiting.
	RateLimitPerSecond float64 `yaml:"rate_limit_per_second"`
	RateLimitBurst     int     `yaml:"rate_limit_burst"`

	KeepaliveTime    time.Duration `yaml:"keepalive_time"`
	KeepaliveTimeout time.Duration `yaml:"keepalive_timeout"`
}

// Defaults returns the baseline configuration.
func Defaults() Config {
	return Config{
		ListenAddr:         ":8089",
		LogLevel:           "info",
		DBPath:             "sparkbridge.db",
		SendTimeout:        90 * time.Second,
		QuoteTTL:           60 * time.Second,
		RateLimitPerSecond: 0,
		RateLimitBurst:     20,
		KeepaliveTime:      30 * time.Second,
		KeepaliveTimeout:   10 * time.Second,
	}
}

// Load builds the configuration from defaults, then the YAML file at
// path if it exists, then the environment. A .env file is honored the
// same way the environment is.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, errors.Wrapf(err, "parsing config file %s", path)
			}
		case os.IsNotExist(err):
			logging.Internal.WithField("path", path).Debug("config file not found, using defaults")
		default:
			return cfg, errors.Wrapf(err, "reading config file %s", path)
		}
	}

	if err := godotenv.Load(); err == nil {
		logging.Internal.Debug("loaded .env file")
	}
	cfg.applyEnv()

	if cfg.TLSEnable && (cfg.TLSCertPath == "" || cfg.TLSKeyPath == "") {
		return cfg, errors.New("tls enabled but cert or key path missing")
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	envString(&c.ListenAddr, "SERVER_ADDR")
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.ListenAddr = ":" + port
	}
	envString(&c.MetricsAddr, "METRICS_ADDR")
	envString(&c.LogLevel, "LOG_LEVEL")
	envString(&c.SparkAPIURL, "SPARK_API_URL")
	envString(&c.SparkAPIKey, "SPARK_API_KEY")
	envString(&c.DBPath, "DB_PATH")
	envBool(&c.TLSEnable, "TLS_ENABLE")
	envString(&c.TLSCertPath, "TLS_CERT_PATH")
	envString(&c.TLSKeyPath, "TLS_KEY_PATH")
	envDuration(&c.SendTimeout, "SEND_TIMEOUT")
	envDuration(&c.QuoteTTL, "QUOTE_TTL")
	envFloat(&c.RateLimitPerSecond, "RATE_LIMIT_PER_SECOND")
	envInt(&c.RateLimitBurst, "RATE_LIMIT_BURST")
	envDuration(&c.KeepaliveTime, "KEEPALIVE_TIME")
	envDuration(&c.KeepaliveTimeout, "KEEPALIVE_TIMEOUT")
}

func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func envInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
