package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Fees     FeesConfig     `mapstructure:"fees"`
	Workflow WorkflowConfig `mapstructure:"workflow"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Operator OperatorConfig `mapstructure:"operator"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// GatewayConfig configures the PIX payout gateway client.
type GatewayConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// FeesConfig holds flat fees in centavos.
type FeesConfig struct {
	WithdrawalFee int64 `mapstructure:"withdrawal_fee"`
	RefundFee     int64 `mapstructure:"refund_fee"`
	RefundMinNet  int64 `mapstructure:"refund_min_net"`
}

// WorkflowConfig tunes the approval workflow.
type WorkflowConfig struct {
	// ApprovalLifetime is how long a withdrawal may stay pending before the
	// expiry sweep reverses it. Zero disables expiry.
	ApprovalLifetime time.Duration `mapstructure:"approval_lifetime"`
	SweepInterval    time.Duration `mapstructure:"sweep_interval"`
	ApproverCooldown time.Duration `mapstructure:"approver_cooldown"`
	// ProcessingTTL bounds how long a request stays marked in-processing if
	// the process dies mid-settlement.
	ProcessingTTL time.Duration `mapstructure:"processing_ttl"`
}

// NotifyConfig configures outbound webhook notifications.
type NotifyConfig struct {
	ApproverURL  string `mapstructure:"approver_url"`  // Where new pending requests are dispatched
	RequesterURL string `mapstructure:"requester_url"` // Where terminal outcomes are sent
	Secret       string `mapstructure:"secret"`        // HMAC key for outbound payloads
}

// WebhookConfig configures the inbound gateway webhook listener.
type WebhookConfig struct {
	Secret string `mapstructure:"secret"` // HMAC key for X-Signature verification
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

// OperatorConfig holds the ops-surface login credentials.
type OperatorConfig struct {
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"password_hash"` // Argon2id encoded hash
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: PXL_.
// Nested keys use underscore: PXL_DATABASE_HOST, PXL_GATEWAY_CLIENT_ID, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "pix_ledger")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("gateway.base_url", "https://api.misticpay.com/api")
	v.SetDefault("gateway.client_id", "")
	v.SetDefault("gateway.client_secret", "")
	v.SetDefault("gateway.timeout", "10s")
	v.SetDefault("fees.withdrawal_fee", 500)
	v.SetDefault("fees.refund_fee", 100)
	v.SetDefault("fees.refund_min_net", 1)
	v.SetDefault("workflow.approval_lifetime", "0")
	v.SetDefault("workflow.sweep_interval", "5m")
	v.SetDefault("workflow.approver_cooldown", "5s")
	v.SetDefault("workflow.processing_ttl", "2m")
	v.SetDefault("notify.approver_url", "")
	v.SetDefault("notify.requester_url", "")
	v.SetDefault("notify.secret", "")
	v.SetDefault("webhook.secret", "")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "pix-ledger")
	v.SetDefault("operator.username", "")
	v.SetDefault("operator.password_hash", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: PXL_DATABASE_HOST -> database.host
	v.SetEnvPrefix("PXL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required — env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
