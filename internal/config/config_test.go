package config

import (
	"testing"
	"time"

	mysqldsn "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("BASE_DEPOSIT_PERCENT", "")
	t.Setenv("MIN_DEPOSIT_CENTS", "")
	t.Setenv("GATEWAY_TIMEOUT", "")
	t.Setenv("TRUSTED_PROXIES", "")

	cfg := LoadConfig()
	assert.True(t, decimal.NewFromInt(4).Equal(cfg.BaseRates.DepositPercent))
	assert.Equal(t, int64(100), cfg.BaseRates.DepositFixedCents)
	assert.Equal(t, int64(300), cfg.MinDepositCents)
	assert.Equal(t, 15*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, []string{"127.0.0.1"}, cfg.TrustedProxies)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("BASE_DEPOSIT_PERCENT", "3.5")
	t.Setenv("BASE_WITHDRAW_FIXED_CENTS", "150")
	t.Setenv("GATEWAY_TIMEOUT", "2s")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1, ,10.0.0.2")

	cfg := LoadConfig()
	assert.Equal(t, "3.5", cfg.BaseRates.DepositPercent.String())
	assert.Equal(t, int64(150), cfg.BaseRates.WithdrawFixedCents)
	assert.Equal(t, 2*time.Second, cfg.GatewayTimeout)
	assert.Contains(t, cfg.DSN(), "sslmode=disable")
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.TrustedProxies)
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{
		DBDriver:           "mysql",
		JWTSecret:          "secret",
		GatewayURL:         "https://gateway.test",
		GatewayTimeout:     time.Second,
		MinDepositCents:    300,
		MinWithdrawalCents: 100,
	}
	require.NoError(t, cfg.Validate())

	cfg.JWTSecret = ""
	cfg.BaseRates.WithdrawFixedCents = -1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "negative")
}

func TestLoadConfig_MalformedValuesFailValidation(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("GATEWAY_URL", "https://gateway.test")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("BASE_DEPOSIT_PERCENT", "4,5")
	t.Setenv("BASE_WITHDRAW_FIXED_CENTS", "2.50")
	t.Setenv("GATEWAY_TIMEOUT", "15")
	t.Setenv("MIN_DEPOSIT_CENTS", "")

	cfg := LoadConfig()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `BASE_DEPOSIT_PERCENT="4,5"`)
	assert.Contains(t, err.Error(), `BASE_WITHDRAW_FIXED_CENTS="2.50"`)
	assert.Contains(t, err.Error(), `GATEWAY_TIMEOUT="15"`)
	assert.NotContains(t, err.Error(), "MIN_DEPOSIT_CENTS")
	assert.Equal(t, int64(300), cfg.MinDepositCents)
}

func TestConfig_DSNEscapesCredentials(t *testing.T) {
	const password = `p@ss/w:rd 'q' \x`

	t.Run("MySQL", func(t *testing.T) {
		cfg := &Config{DBDriver: "mysql", DBUser: "pix", DBPassword: password, DBHost: "db", DBPort: "3306", DBName: "ledger"}
		parsed, err := mysqldsn.ParseDSN(cfg.DSN())
		require.NoError(t, err)
		assert.Equal(t, "pix", parsed.User)
		assert.Equal(t, password, parsed.Passwd)
		assert.Equal(t, "db:3306", parsed.Addr)
		assert.Equal(t, "ledger", parsed.DBName)
		assert.True(t, parsed.ParseTime)
	})

	t.Run("Postgres", func(t *testing.T) {
		cfg := &Config{DBDriver: "postgres", DBUser: "pix", DBPassword: password, DBHost: "db", DBPort: "5432", DBName: "ledger"}
		parsed, err := pgconn.ParseConfig(cfg.DSN())
		require.NoError(t, err)
		assert.Equal(t, "pix", parsed.User)
		assert.Equal(t, password, parsed.Password)
		assert.Equal(t, "db", parsed.Host)
		assert.Equal(t, uint16(5432), parsed.Port)
		assert.Equal(t, "ledger", parsed.Database)
	})

	t.Run("DatabaseURLWins", func(t *testing.T) {
		cfg := &Config{DBDriver: "postgres", DatabaseURL: "postgres://pix@db/ledger"}
		assert.Equal(t, "postgres://pix@db/ledger", cfg.DSN())
	})
}
