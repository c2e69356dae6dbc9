package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Ledger backends for the paid-bounty ledger.
const (
	LedgerNone     = "none"
	LedgerMemory   = "memory"
	LedgerFile     = "file"
	LedgerPostgres = "postgres"
	LedgerRedis    = "redis"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL         string
	AddressFile    string
	ABIFile        string
	Feed           string
	FeedFormat     string
	PrivateKey     string
	Sender         string
	Workers        int
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
	Ledger         string
	LedgerFile     string
	PGDSN          string
	RedisAddr      string
	RedisKey       string
	Journal        string
	MetricsFile    string
	Strict         bool
	LogLevel       string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ORACLE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("rpc", "http://127.0.0.1:8545")
	v.SetDefault("address-file", "./deployed_contract_address.json")
	v.SetDefault("feed", "./dummy-events.json")
	v.SetDefault("feed-format", "auto")
	v.SetDefault("workers", 4)
	v.SetDefault("confirm-timeout", 2*time.Minute)
	v.SetDefault("poll-interval", 2*time.Second)
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("ledger", LedgerFile)
	v.SetDefault("ledger-file", "./data/paid_bounties.json")
	v.SetDefault("redis-key", "bounty-oracle:paid")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:         v.GetString("rpc"),
		AddressFile:    v.GetString("address-file"),
		ABIFile:        v.GetString("abi-file"),
		Feed:           v.GetString("feed"),
		FeedFormat:     v.GetString("feed-format"),
		PrivateKey:     v.GetString("private-key"),
		Sender:         v.GetString("sender"),
		Workers:        v.GetInt("workers"),
		ConfirmTimeout: v.GetDuration("confirm-timeout"),
		PollInterval:   v.GetDuration("poll-interval"),
		MaxRetries:     v.GetInt("max-retries"),
		RetryBackoff:   v.GetDuration("retry-backoff"),
		Ledger:         strings.ToLower(strings.TrimSpace(v.GetString("ledger"))),
		LedgerFile:     v.GetString("ledger-file"),
		PGDSN:          v.GetString("pg-dsn"),
		RedisAddr:      v.GetString("redis-addr"),
		RedisKey:       v.GetString("redis-key"),
		Journal:        v.GetString("journal"),
		MetricsFile:    v.GetString("metrics-file"),
		Strict:         v.GetBool("strict"),
		LogLevel:       v.GetString("log-level"),
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside a run.
func (c Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be greater than zero")
	}
	if c.ConfirmTimeout <= 0 {
		return fmt.Errorf("confirm-timeout must be positive")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll-interval must be positive")
	}
	if c.Sender != "" {
		if _, err := ParseAddress(c.Sender); err != nil {
			return fmt.Errorf("sender: %w", err)
		}
	}
	return c.validateLedger()
}

func (c Config) validateLedger() error {
	switch c.Ledger {
	case LedgerNone, LedgerMemory:
		return nil
	case LedgerFile:
		if c.LedgerFile == "" {
			return fmt.Errorf("ledger-file is required for the file ledger")
		}
	case LedgerPostgres:
		if c.PGDSN == "" {
			return fmt.Errorf("pg-dsn is required for the postgres ledger")
		}
	case LedgerRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis-addr is required for the redis ledger")
		}
	default:
		return fmt.Errorf("unknown ledger backend: %s", c.Ledger)
	}
	return nil
}
