// Package config loads service configuration from the environment and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// MinVendorSessionTTLDays is the shortest branch-visit window the vendor accepts.
const MinVendorSessionTTLDays = 10

type Config struct {
	Server   Server   `mapstructure:",squash"`
	Issuer   Issuer   `mapstructure:",squash"`
	Store    Store    `mapstructure:",squash"`
	Redis    Redis    `mapstructure:",squash"`
	Database Database `mapstructure:",squash"`
	Kafka    Kafka    `mapstructure:",squash"`
	Vendor   Vendor   `mapstructure:",squash"`
	S3       S3       `mapstructure:",squash"`
}

type Server struct {
	Addr            string        `mapstructure:"ADDR"`
	Environment     string        `mapstructure:"APP_ENV"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	TrustedProxies  string        `mapstructure:"TRUSTED_PROXIES"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	TracingEnabled  bool          `mapstructure:"TRACING_ENABLED"`
}

// Issuer covers our own identity as a credential issuer and token authority.
type Issuer struct {
	ID               string        `mapstructure:"ISSUER"`
	SigningKeyPath   string        `mapstructure:"SIGNING_KEY_PATH"`
	SigningKeyID     string        `mapstructure:"SIGNING_KEY_ID"`
	ClientsFile      string        `mapstructure:"CLIENTS_FILE"`
	AuthSessionTTL   time.Duration `mapstructure:"AUTH_SESSION_TTL"`
	AuthCodeTTL      time.Duration `mapstructure:"AUTH_CODE_TTL"`
	AccessTokenTTL   time.Duration `mapstructure:"ACCESS_TOKEN_TTL"`
	CredentialTTL    time.Duration `mapstructure:"CREDENTIAL_TTL"`
	IssuanceGuardTTL time.Duration `mapstructure:"ISSUANCE_GUARD_TTL"`
}

// Store selects the session store backend: memory, redis or postgres.
type Store struct {
	Backend string `mapstructure:"SESSION_STORE"`
}

type Redis struct {
	URL          string        `mapstructure:"REDIS_URL"`
	PoolSize     int           `mapstructure:"REDIS_POOL_SIZE"`
	MinIdleConns int           `mapstructure:"REDIS_MIN_IDLE_CONNS"`
	DialTimeout  time.Duration `mapstructure:"REDIS_DIAL_TIMEOUT"`
	ReadTimeout  time.Duration `mapstructure:"REDIS_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"REDIS_WRITE_TIMEOUT"`
}

type Database struct {
	URL             string        `mapstructure:"DATABASE_URL"`
	MaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME"`
}

type Kafka struct {
	Brokers         string        `mapstructure:"KAFKA_BROKERS"`
	Acks            string        `mapstructure:"KAFKA_ACKS"`
	Retries         int           `mapstructure:"KAFKA_RETRIES"`
	DeliveryTimeout time.Duration `mapstructure:"KAFKA_DELIVERY_TIMEOUT"`
	AuditTopic      string        `mapstructure:"AUDIT_TOPIC"`
	DeliveryTopic   string        `mapstructure:"DELIVERY_TOPIC"`
	AuditBuffer     int           `mapstructure:"AUDIT_BUFFER"`
}

type Vendor struct {
	BaseURL        string        `mapstructure:"VENDOR_BASE_URL"`
	ClientSDKID    string        `mapstructure:"VENDOR_SDK_ID"`
	CallbackURL    string        `mapstructure:"VENDOR_CALLBACK_URL"`
	Timeout        time.Duration `mapstructure:"VENDOR_TIMEOUT"`
	SessionTTLDays int           `mapstructure:"VENDOR_SESSION_TTL_DAYS"`
	MaxRetries     int           `mapstructure:"VENDOR_MAX_RETRIES"`
	// BreakerFailures consecutive retryable failures open the circuit for
	// BreakerCooldown.
	BreakerFailures int           `mapstructure:"VENDOR_BREAKER_FAILURES"`
	BreakerCooldown time.Duration `mapstructure:"VENDOR_BREAKER_COOLDOWN"`
	// KeyPath is the PEM RSA key used to sign vendor requests. Empty disables signing.
	KeyPath string `mapstructure:"VENDOR_KEY_PATH"`
}

type S3 struct {
	Bucket          string `mapstructure:"S3_BUCKET"`
	Region          string `mapstructure:"AWS_REGION"`
	Endpoint        string `mapstructure:"S3_ENDPOINT"`
	AccessKeyID     string `mapstructure:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `mapstructure:"AWS_SECRET_ACCESS_KEY"`
	UsePathStyle    bool   `mapstructure:"S3_USE_PATH_STYLE"`
}

var defaults = map[string]any{
	"ADDR":             ":8080",
	"APP_ENV":          "local",
	"LOG_LEVEL":        "info",
	"TRUSTED_PROXIES":  "",
	"REQUEST_TIMEOUT":  "30s",
	"SHUTDOWN_TIMEOUT": "15s",
	"TRACING_ENABLED":  false,

	"ISSUER":             "https://f2f-cri.local",
	"SIGNING_KEY_PATH":   "",
	"SIGNING_KEY_ID":     "",
	"CLIENTS_FILE":       "clients.yaml",
	"AUTH_SESSION_TTL":   "264h",
	"AUTH_CODE_TTL":      "10m",
	"ACCESS_TOKEN_TTL":   "1h",
	"CREDENTIAL_TTL":     "4320h",
	"ISSUANCE_GUARD_TTL": "720h",

	"SESSION_STORE": "memory",

	"REDIS_URL":            "",
	"REDIS_POOL_SIZE":      10,
	"REDIS_MIN_IDLE_CONNS": 2,
	"REDIS_DIAL_TIMEOUT":   "5s",
	"REDIS_READ_TIMEOUT":   "3s",
	"REDIS_WRITE_TIMEOUT":  "3s",

	"DATABASE_URL":         "",
	"DB_MAX_OPEN_CONNS":    25,
	"DB_MAX_IDLE_CONNS":    5,
	"DB_CONN_MAX_LIFETIME": "5m",

	"KAFKA_BROKERS":          "",
	"KAFKA_ACKS":             "all",
	"KAFKA_RETRIES":          3,
	"KAFKA_DELIVERY_TIMEOUT": "30s",
	"AUDIT_TOPIC":            "f2f-audit",
	"DELIVERY_TOPIC":         "f2f-ipv-core",
	"AUDIT_BUFFER":           1024,

	"VENDOR_BASE_URL":         "",
	"VENDOR_SDK_ID":           "",
	"VENDOR_CALLBACK_URL":     "",
	"VENDOR_TIMEOUT":          "10s",
	"VENDOR_SESSION_TTL_DAYS": MinVendorSessionTTLDays,
	"VENDOR_MAX_RETRIES":      3,
	"VENDOR_BREAKER_FAILURES": 5,
	"VENDOR_BREAKER_COOLDOWN": "30s",
	"VENDOR_KEY_PATH":         "",

	"S3_BUCKET":             "",
	"AWS_REGION":            "eu-west-2",
	"S3_ENDPOINT":           "",
	"AWS_ACCESS_KEY_ID":     "",
	"AWS_SECRET_ACCESS_KEY": "",
	"S3_USE_PATH_STYLE":     false,
}

// Load reads .env when present, then the environment. Env vars win over .env.
func Load() (*Config, error) {
	return load(".env")
}

func load(envFile string) (*Config, error) {
	v := viper.New()
	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		_ = v.ReadInConfig() // missing .env is fine (CI, containers)
	}
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Addr == "" {
		return errors.New("config: ADDR must be set")
	}
	if c.Issuer.ID == "" {
		return errors.New("config: ISSUER must be set")
	}
	switch c.Store.Backend {
	case "memory":
		if c.Server.Environment == "production" {
			return errors.New("config: SESSION_STORE=memory is not allowed when APP_ENV=production")
		}
	case "redis":
		if c.Redis.URL == "" {
			return errors.New("config: REDIS_URL is required for SESSION_STORE=redis")
		}
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("config: DATABASE_URL is required for SESSION_STORE=postgres")
		}
	default:
		return fmt.Errorf("config: unknown SESSION_STORE %q", c.Store.Backend)
	}
	if c.Vendor.SessionTTLDays < MinVendorSessionTTLDays {
		c.Vendor.SessionTTLDays = MinVendorSessionTTLDays
	}
	if c.Issuer.AuthCodeTTL <= 0 || c.Issuer.AccessTokenTTL <= 0 || c.Issuer.AuthSessionTTL <= 0 {
		return errors.New("config: session, code and token TTLs must be positive")
	}
	return nil
}

// TrustedProxyList splits TRUSTED_PROXIES on commas.
func (s Server) TrustedProxyList() []string {
	if s.TrustedProxies == "" {
		return nil
	}
	return strings.Split(s.TrustedProxies, ",")
}

// Enabled reports whether audit and delivery go to a broker.
func (k Kafka) Enabled() bool {
	return strings.TrimSpace(k.Brokers) != ""
}

// Enabled reports whether an instructions archive bucket is configured.
func (s S3) Enabled() bool {
	return s.Bucket != ""
}

// SessionTTL is the branch-visit window as a duration.
func (v Vendor) SessionTTL() time.Duration {
	return time.Duration(v.SessionTTLDays) * 24 * time.Hour
}
