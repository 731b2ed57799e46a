package utils

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"pix_gateway/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWT_RoundTrip(t *testing.T) {
	token, err := GenerateJWT(42, "admin", "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "admin", claims.Role)

	_, err = ParseJWT(token, "other-secret")
	assert.Error(t, err)
}

func TestJWT_Expired(t *testing.T) {
	token, err := GenerateJWT(42, "user", "secret", -time.Minute)
	require.NoError(t, err)
	_, err = ParseJWT(token, "secret")
	assert.Error(t, err)
}

func TestCache_NilClientIsMiss(t *testing.T) {
	ctx := context.Background()
	var dest map[string]any
	found, err := GetCache(ctx, nil, BalanceKey(1), &dest)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, InvalidateUser(ctx, nil, 1))
	assert.Equal(t, "txs:user:7", TransactionsKey(7))
}

func TestFillCache_NilClientLoads(t *testing.T) {
	ctx := context.Background()
	calls := 0
	v, cached, err := FillCache(ctx, nil, BalanceKey(1), GenKey(1), CacheTTL, func(context.Context) (int64, error) {
		calls++
		return 4200, nil
	})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, int64(4200), v)
	assert.Equal(t, 1, calls)

	_, _, err = FillCache(ctx, nil, BalanceKey(1), GenKey(1), CacheTTL, func(context.Context) (int64, error) {
		return 0, domain.ErrNotFound
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// Runs against a real Redis when REDIS_TEST_ADDR is set.
func TestFillCache_InvalidationDuringLoad(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { rdb.Close() })
	const userID = 990001
	require.NoError(t, rdb.Del(ctx, BalanceKey(userID), GenKey(userID)).Err())

	// An invalidation that lands mid-load discards the fill
	v, cached, err := FillCache(ctx, rdb, BalanceKey(userID), GenKey(userID), CacheTTL, func(ctx context.Context) (int64, error) {
		require.NoError(t, InvalidateUser(ctx, rdb, userID))
		return 100, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), v)
	assert.False(t, cached)
	var got int64
	found, err := GetCache(ctx, rdb, BalanceKey(userID), &got)
	require.NoError(t, err)
	assert.False(t, found)

	// An undisturbed load is cached
	_, cached, err = FillCache(ctx, rdb, BalanceKey(userID), GenKey(userID), CacheTTL, func(context.Context) (int64, error) {
		return 250, nil
	})
	require.NoError(t, err)
	assert.True(t, cached)
	found, err = GetCache(ctx, rdb, BalanceKey(userID), &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(250), got)

	require.NoError(t, InvalidateUser(ctx, rdb, userID))
	found, err = GetCache(ctx, rdb, BalanceKey(userID), &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := map[string]struct {
		forwarded string
		remote    string
		want      string
	}{
		"ForwardedFirstHop": {"203.0.113.5, 10.0.0.1", "10.0.0.1:5000", "203.0.113.5"},
		"MappedIPv6":        {"::ffff:198.51.100.7", "10.0.0.1:5000", "198.51.100.7"},
		"RemoteAddr":        {"", "192.0.2.10:4321", "192.0.2.10"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Request.RemoteAddr = tc.remote
			if tc.forwarded != "" {
				c.Request.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			assert.Equal(t, tc.want, ClientIP(c))
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	timeout := &domain.GatewayTimeoutError{Op: "create payout", Err: context.DeadlineExceeded}
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrValidation, http.StatusBadRequest},
		{domain.ErrAuth, http.StatusUnauthorized},
		{domain.ErrUserInactive, http.StatusForbidden},
		{domain.ErrInsufficientBalance, http.StatusPaymentRequired},
		{domain.ErrGateway, http.StatusBadGateway},
		{timeout, http.StatusGatewayTimeout},
		{domain.ErrReconciliationNotFound, http.StatusNotFound},
		{domain.ErrConflict, http.StatusConflict},
		{domain.ErrStore, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(fmt.Errorf("wrapped: %w", tc.err)), tc.err.Error())
	}
}
