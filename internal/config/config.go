package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Env       string          `mapstructure:"env"`
	Port      string          `mapstructure:"port"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	MySQL     MySQLConfig     `mapstructure:"mysql"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Games     GamesConfig     `mapstructure:"games"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type StorageConfig struct {
	// Driver is one of memory, redis, postgres or mysql.
	Driver  string `mapstructure:"driver"`
	Migrate bool   `mapstructure:"migrate"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type MySQLConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	URL      string `mapstructure:"url"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	Brokers    []string `mapstructure:"brokers"`
	Topic      string   `mapstructure:"topic"`
	MaxRetries int      `mapstructure:"max_retries"`
}

type LedgerConfig struct {
	// Lock is local or redis.
	Lock                    string        `mapstructure:"lock"`
	LockTTL                 time.Duration `mapstructure:"lock_ttl"`
	BalanceCacheTTL         time.Duration `mapstructure:"balance_cache_ttl"`
	ExchangeRate            string        `mapstructure:"exchange_rate"`
	SandboxDepositLimit     string        `mapstructure:"sandbox_deposit_limit"`
	SettlementRetryInterval time.Duration `mapstructure:"settlement_retry_interval"`
}

type GamesConfig struct {
	CrashTick       time.Duration `mapstructure:"crash_tick"`
	MaxBet          string        `mapstructure:"max_bet"`
	TablesFile      string        `mapstructure:"tables_file"`
	StaleAfter      time.Duration `mapstructure:"stale_after"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type RateLimitConfig struct {
	BetsPerMinute    int `mapstructure:"bets_per_minute"`
	ActionsPerMinute int `mapstructure:"actions_per_minute"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

const maxBalanceCacheTTL = 5 * time.Second

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("port", "8080")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.ttl", 24*time.Hour)

	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.migrate", true)
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("mysql.dsn", "")
	v.SetDefault("mysql.max_open_conns", 20)
	v.SetDefault("mysql.max_idle_conns", 5)

	v.SetDefault("redis.url", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "casino.rounds")
	v.SetDefault("kafka.max_retries", 5)

	v.SetDefault("ledger.lock", "local")
	v.SetDefault("ledger.lock_ttl", 10*time.Second)
	v.SetDefault("ledger.balance_cache_ttl", 5*time.Second)
	v.SetDefault("ledger.exchange_rate", "10")
	v.SetDefault("ledger.sandbox_deposit_limit", "1000")
	v.SetDefault("ledger.settlement_retry_interval", 2*time.Second)

	v.SetDefault("games.crash_tick", 50*time.Millisecond)
	v.SetDefault("games.max_bet", "10000")
	v.SetDefault("games.tables_file", "")
	v.SetDefault("games.stale_after", 10*time.Minute)
	v.SetDefault("games.cleanup_interval", 5*time.Minute)

	v.SetDefault("ratelimit.bets_per_minute", 30)
	v.SetDefault("ratelimit.actions_per_minute", 120)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

// Load reads defaults, then CONFIG_FILE if set, then the environment.
// Nested keys map to env vars with dots replaced by underscores.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "memory", "redis", "postgres", "mysql":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Ledger.Lock {
	case "local", "redis":
	default:
		return fmt.Errorf("unknown ledger lock %q", c.Ledger.Lock)
	}
	if c.Env == "production" && c.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is required in production")
	}
	if c.Ledger.BalanceCacheTTL > maxBalanceCacheTTL {
		c.Ledger.BalanceCacheTTL = maxBalanceCacheTTL
	}
	if _, err := c.Ledger.Rate(); err != nil {
		return err
	}
	if _, err := c.Games.MaxBetAmount(); err != nil {
		return err
	}
	if _, err := c.Ledger.SandboxLimit(); err != nil {
		return err
	}
	return nil
}

func (c LedgerConfig) Rate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(c.ExchangeRate)
	if err != nil || !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("invalid exchange rate %q", c.ExchangeRate)
	}
	return rate, nil
}

func (c LedgerConfig) SandboxLimit() (decimal.Decimal, error) {
	limit, err := decimal.NewFromString(c.SandboxDepositLimit)
	if err != nil || limit.IsNegative() {
		return decimal.Zero, fmt.Errorf("invalid sandbox deposit limit %q", c.SandboxDepositLimit)
	}
	return limit, nil
}

func (c GamesConfig) MaxBetAmount() (decimal.Decimal, error) {
	maxBet, err := decimal.NewFromString(c.MaxBet)
	if err != nil || maxBet.IsNegative() {
		return decimal.Zero, fmt.Errorf("invalid max bet %q", c.MaxBet)
	}
	return maxBet, nil
}
