package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	AppPort string `toml:"app_port"`
	Env     string `toml:"env"`

	DBDriver    string `toml:"db_driver"` // mysql | postgres | sqlite
	SQLitePath  string `toml:"sqlite_path"`
	PostgresDSN string `toml:"postgres_dsn"`

	MySQLHost string `toml:"mysql_host"`
	MySQLPort string `toml:"mysql_port"`
	MySQLDB   string `toml:"mysql_db"`
	MySQLUser string `toml:"mysql_user"`
	MySQLPass string `toml:"mysql_pass"`

	RedisAddr     string `toml:"redis_addr"`
	RedisDB       int    `toml:"redis_db"`
	RedisPassword string `toml:"redis_password"`

	IdempTTLSecs int `toml:"idempotency_ttl_seconds"`

	LedgerURL       string        `toml:"ledger_url"`
	LedgerTimeout   time.Duration `toml:"-"`
	LedgerRPS       float64       `toml:"ledger_rps"`
	StrictLedgerAck bool          `toml:"ledger_strict_ack"`

	ValuationURL string             `toml:"valuation_url"` // BTC/USD ticker
	GoldURL      string             `toml:"gold_url"`      // USD per troy ounce
	CityRates    map[string]float64 `toml:"city_rates"`    // USD per square foot

	SweepInterval time.Duration `toml:"-"`
	SweepLockTTL  time.Duration `toml:"-"`
	SweepBatch    int           `toml:"sweep_batch"` // 0 = every overdue loan

	LogFile  string `toml:"log_file"`
	LogLevel string `toml:"log_level"`

	// durations are written as strings in TOML ("30s", "1h")
	RawLedgerTimeout string `toml:"ledger_timeout"`
	RawSweepInterval string `toml:"sweep_interval"`
	RawSweepLockTTL  string `toml:"sweep_lock_ttl"`
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func defaults() *Config {
	return &Config{
		AppPort:    "8080",
		Env:        "development",
		DBDriver:   "mysql",
		SQLitePath: "lending.db",
		MySQLHost:  "mysql",
		MySQLPort:  "3306",
		MySQLDB:    "lending",
		MySQLUser:  "lending",
		MySQLPass:  "lending",

		RedisAddr:    "redis:6379",
		IdempTTLSecs: 300,

		LedgerURL:     "http://ledger:9000",
		LedgerTimeout: 15 * time.Second,
		LedgerRPS:     20,

		ValuationURL: "https://api.exchange.coinbase.com/products/BTC-USD/ticker",
		CityRates:    map[string]float64{},

		SweepInterval: time.Hour,
		SweepLockTTL:  10 * time.Minute,
		LogLevel:      "info",
	}
}

// Load reads configuration from the environment only.
func Load() *Config {
	c := defaults()
	c.applyEnv()
	return c
}

// LoadFile decodes a TOML file over the defaults and then applies the
// environment, so env always wins. A missing path falls back to Load.
func LoadFile(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return Load(), nil
	}
	c := defaults()
	meta, err := toml.DecodeFile(path, c)
	if err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if keys := meta.Undecoded(); len(keys) > 0 {
		return nil, fmt.Errorf("config: unknown key %q in %s", keys[0].String(), path)
	}
	if err := c.parseDurations(); err != nil {
		return nil, err
	}
	c.applyEnv()
	return c, nil
}

func (c *Config) parseDurations() error {
	for _, f := range []struct {
		raw string
		dst *time.Duration
		key string
	}{
		{c.RawLedgerTimeout, &c.LedgerTimeout, "ledger_timeout"},
		{c.RawSweepInterval, &c.SweepInterval, "sweep_interval"},
		{c.RawSweepLockTTL, &c.SweepLockTTL, "sweep_lock_ttl"},
	} {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("config: %s: %w", f.key, err)
		}
		*f.dst = d
	}
	return nil
}

func (c *Config) applyEnv() {
	c.AppPort = getenv("APP_PORT", c.AppPort)
	c.Env = getenv("APP_ENV", c.Env)
	c.DBDriver = getenv("DB_DRIVER", c.DBDriver)
	c.SQLitePath = getenv("SQLITE_PATH", c.SQLitePath)
	c.PostgresDSN = getenv("POSTGRES_DSN", c.PostgresDSN)
	c.MySQLHost = getenv("MYSQL_HOST", c.MySQLHost)
	c.MySQLPort = getenv("MYSQL_PORT", c.MySQLPort)
	c.MySQLDB = getenv("MYSQL_DB", c.MySQLDB)
	c.MySQLUser = getenv("MYSQL_USER", c.MySQLUser)
	c.MySQLPass = getenv("MYSQL_PASS", c.MySQLPass)
	c.RedisAddr = getenv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getenv("REDIS_PASSWORD", c.RedisPassword)
	c.LedgerURL = getenv("LEDGER_URL", c.LedgerURL)
	c.ValuationURL = getenv("VALUATION_URL", c.ValuationURL)
	c.GoldURL = getenv("GOLD_URL", c.GoldURL)
	c.LogFile = getenv("LOG_FILE", c.LogFile)
	c.LogLevel = getenv("LOG_LEVEL", c.LogLevel)

	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RedisDB = n
		}
	}
	if v := os.Getenv("IDEMPOTENCY_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.IdempTTLSecs = n
		}
	}
	if v := os.Getenv("SWEEP_BATCH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SweepBatch = n
		}
	}
	if v := os.Getenv("LEDGER_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.LedgerRPS = f
		}
	}
	if v := os.Getenv("LEDGER_STRICT_ACK"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.StrictLedgerAck = b
		}
	}
	if v := os.Getenv("LEDGER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.LedgerTimeout = d
		}
	}
	if v := os.Getenv("SWEEP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.SweepInterval = d
		}
	}
	if v := os.Getenv("SWEEP_LOCK_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.SweepLockTTL = d
		}
	}
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case "mysql":
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		// ensure port is valid
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return errors.New("missing POSTGRES_DSN")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.LedgerURL == "" {
		return errors.New("missing LEDGER_URL")
	}
	if c.LedgerTimeout <= 0 {
		return errors.New("LEDGER_TIMEOUT must be positive")
	}
	if c.SweepInterval <= 0 {
		return errors.New("SWEEP_INTERVAL must be positive")
	}
	if c.SweepBatch < 0 {
		return errors.New("SWEEP_BATCH must not be negative")
	}
	return nil
}

// DSN returns the data source name for the configured driver.
func (c *Config) DSN() string {
	switch c.DBDriver {
	case "sqlite":
		return c.SQLitePath
	case "postgres":
		return c.PostgresDSN
	}
	return c.MySQLDSN()
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// multiStatements=true is handy for migrations; parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
