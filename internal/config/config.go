package config

import (
	"errors"  // For validation errors
	"fmt"     // For parse errors
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // For list variables
	"time"    // For durations

	"pix_gateway/internal/domain" // Rate profile type

	mysqldsn "github.com/go-sql-driver/mysql" // MySQL DSN formatting
	"github.com/joho/godotenv"                // For loading .env files
	"github.com/shopspring/decimal"           // For percentage rates
)

// Config holds the application configuration
type Config struct {
	AppPort   string // Application port
	IsProd    bool   // Is production environment
	LogLevel  string // Logrus level name
	LogFormat string // "text" or "json"

	TrustedProxies []string // Proxies whose forwarding headers set the client IP
	AutoMigrate    bool     // Run AutoMigrate on server start

	DBDriver    string // "mysql" or "postgres"
	DBUser      string // Database user
	DBPassword  string // Database password
	DBHost      string // Database host
	DBPort      string // Database port
	DBName      string // Database name
	DatabaseURL string // Full DSN, overrides the DB_* parts

	RedisAddr string // Redis server address, empty disables caching
	RedisPass string // Redis password
	RedisDB   int    // Redis database number

	JWTSecret string        // JWT secret key
	JWTTTL    time.Duration // Session lifetime

	GatewayURL          string        // PIX processor base URL
	GatewayClientID     string        // Processor client id
	GatewayClientSecret string        // Processor client secret
	GatewayTimeout      time.Duration // Bound on every processor call
	PublicBaseURL       string        // Our externally reachable URL, for webhooks

	BaseRates          domain.RateProfile // Platform base profile
	MinDepositCents    int64              // Smallest accepted deposit
	MinWithdrawalCents int64              // Smallest accepted withdrawal

	Timezone       string // Location for daily counters
	DailyResetCron string // Cron spec (with seconds) for the daily reset

	parseErrs []error // Variables that were set but did not parse
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	env := &envReader{}
	cfg := &Config{
		AppPort:   getEnv("APP_PORT", "10000"),
		IsProd:    os.Getenv("IS_PROD") == "true",
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		TrustedProxies: getList("TRUSTED_PROXIES", []string{"127.0.0.1"}),
		AutoMigrate:    os.Getenv("AUTO_MIGRATE") == "true",

		DBDriver:    getEnv("DB_DRIVER", "mysql"),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBHost:      os.Getenv("DB_HOST"),
		DBPort:      os.Getenv("DB_PORT"),
		DBName:      os.Getenv("DB_NAME"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisAddr: os.Getenv("REDIS_ADDR"),
		RedisPass: os.Getenv("REDIS_PASS"),
		RedisDB:   int(env.getInt64("REDIS_DB", 0)),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTTTL:    env.getDuration("JWT_TTL", 24*time.Hour),

		GatewayURL:          os.Getenv("GATEWAY_URL"),
		GatewayClientID:     os.Getenv("GATEWAY_CLIENT_ID"),
		GatewayClientSecret: os.Getenv("GATEWAY_CLIENT_SECRET"),
		GatewayTimeout:      env.getDuration("GATEWAY_TIMEOUT", 15*time.Second),
		PublicBaseURL:       os.Getenv("PUBLIC_BASE_URL"),

		BaseRates: domain.RateProfile{
			DepositPercent:     env.getDecimal("BASE_DEPOSIT_PERCENT", decimal.NewFromInt(4)),
			DepositFixedCents:  env.getInt64("BASE_DEPOSIT_FIXED_CENTS", 100),
			WithdrawFixedCents: env.getInt64("BASE_WITHDRAW_FIXED_CENTS", 100),
		},
		MinDepositCents:    env.getInt64("MIN_DEPOSIT_CENTS", 300),
		MinWithdrawalCents: env.getInt64("MIN_WITHDRAWAL_CENTS", 100),

		Timezone:       getEnv("TIMEZONE", "America/Sao_Paulo"),
		DailyResetCron: getEnv("DAILY_RESET_CRON", "0 0 0 * * *"),
	}
	cfg.parseErrs = env.errs
	return cfg
}

// DSN builds the driver-specific connection string
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	if c.DBDriver == "postgres" {
		var parts []string
		for _, kv := range [][2]string{
			{"host", c.DBHost},
			{"port", c.DBPort},
			{"user", c.DBUser},
			{"password", c.DBPassword},
			{"dbname", c.DBName},
		} {
			if kv[1] != "" {
				parts = append(parts, kv[0]+"="+pgQuote(kv[1]))
			}
		}
		return strings.Join(append(parts, "sslmode=disable"), " ")
	}
	mc := mysqldsn.NewConfig()
	mc.User = c.DBUser
	mc.Passwd = c.DBPassword
	mc.Net = "tcp"
	mc.Addr = c.DBHost + ":" + c.DBPort
	mc.DBName = c.DBName
	mc.ParseTime = true
	return mc.FormatDSN()
}

// pgQuote renders a libpq key=value value; quotes and backslashes are escaped
func pgQuote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// Validate rejects configurations the server cannot run with
func (c *Config) Validate() error {
	errs := append([]error(nil), c.parseErrs...)
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.GatewayURL == "" {
		errs = append(errs, errors.New("GATEWAY_URL is required"))
	}
	if c.DBDriver != "mysql" && c.DBDriver != "postgres" {
		errs = append(errs, errors.New("DB_DRIVER must be mysql or postgres"))
	}
	if c.BaseRates.DepositPercent.IsNegative() || c.BaseRates.DepositFixedCents < 0 || c.BaseRates.WithdrawFixedCents < 0 {
		errs = append(errs, errors.New("base rates must not be negative"))
	}
	if c.MinDepositCents <= 0 || c.MinWithdrawalCents <= 0 {
		errs = append(errs, errors.New("minimum amounts must be positive"))
	}
	if c.GatewayTimeout <= 0 {
		errs = append(errs, errors.New("GATEWAY_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// getEnv returns the variable or a fallback when unset
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envReader parses typed variables and remembers the malformed ones
type envReader struct {
	errs []error
}

func (r *envReader) invalid(key, v, want string) {
	r.errs = append(r.errs, fmt.Errorf("%s=%q is not a valid %s", key, v, want))
}

func (r *envReader) getInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		r.invalid(key, v, "integer")
		return fallback
	}
	return n
}

func (r *envReader) getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		r.invalid(key, v, "duration")
		return fallback
	}
	return d
}

// getDecimal expects a dot separator; "4,5" is reported, not guessed
func (r *envReader) getDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		r.invalid(key, v, "decimal number")
		return fallback
	}
	return d
}

// getList splits a comma-separated variable, dropping blanks
func getList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
