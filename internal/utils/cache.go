package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"errors"        // Transaction conflict detection
	"strconv"       // Key formatting
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// CacheTTL bounds how stale a cached read can be
const CacheTTL = 60 * time.Second

// genTTL outlives any cache entry guarded by a generation key
const genTTL = 24 * time.Hour

// BalanceKey caches a user's balance view
func BalanceKey(userID uint) string {
	return "balance:user:" + strconv.FormatUint(uint64(userID), 10)
}

// GenKey counts invalidations of a user's cached views; 0 is the admin-wide scope
func GenKey(userID uint) string {
	return "cache:gen:user:" + strconv.FormatUint(uint64(userID), 10)
}

// TransactionsKey caches a user's transaction list; 0 is the admin-wide list
func TransactionsKey(userID uint) string {
	return "txs:user:" + strconv.FormatUint(uint64(userID), 10)
}

// GetCache retrieves a value from Redis and unmarshals it into dest.
// A nil client is a permanent miss.
func GetCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	if rdb == nil {
		return false, nil
	}
	val, err := rdb.Get(ctx, key).Result() // Get value from Redis
	if err == redis.Nil {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal([]byte(val), dest) // Unmarshal JSON into dest
}

// FillCache loads a value and stores it under key unless genKey changes
// between the start of the load and the write. The loaded value is returned
// either way; cached reports whether it was written.
func FillCache[T any](ctx context.Context, rdb *redis.Client, key, genKey string, ttl time.Duration,
	load func(context.Context) (T, error)) (value T, cached bool, err error) {
	if rdb == nil {
		value, err = load(ctx)
		return value, false, err
	}
	loaded := false
	watchErr := rdb.Watch(ctx, func(tx *redis.Tx) error {
		value, err = load(ctx)
		loaded = true
		if err != nil {
			return nil
		}
		b, mErr := json.Marshal(value)
		if mErr != nil {
			return mErr
		}
		_, pErr := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, ttl)
			return nil
		})
		return pErr
	}, genKey)
	if !loaded {
		// Redis failed before the load ran
		value, err = load(ctx)
	}
	if err != nil {
		return value, false, err
	}
	switch {
	case watchErr == nil:
		return value, true, nil
	case errors.Is(watchErr, redis.TxFailedErr):
		logrus.WithField("key", key).Debug("Cache fill skipped, invalidated during load")
	default:
		logrus.WithFields(logrus.Fields{"key": key, "error": watchErr.Error()}).Warn("Cache write failed")
	}
	return value, false, nil
}

// InvalidateUser drops every cached view touching the user, including the
// admin-wide list, and bumps both generations so in-flight fills are discarded
func InvalidateUser(ctx context.Context, rdb *redis.Client, userID uint) error {
	if rdb == nil {
		return nil
	}
	_, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, gen := range []string{GenKey(userID), GenKey(0)} {
			pipe.Incr(ctx, gen)
			pipe.Expire(ctx, gen, genTTL)
		}
		pipe.Del(ctx, BalanceKey(userID), TransactionsKey(userID), TransactionsKey(0)) // Delete keys from Redis
		return nil
	})
	return err
}
