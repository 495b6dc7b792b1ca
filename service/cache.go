// file: service/cache.go

package service

import (
	"context"
	"fmt"
	"go-ledger-api/logger"
	"time"

	"github.com/redis/go-redis/v9"
)

// ICacheClient defines the contract for a cache client.
// *redis.Client satisfies it; tests use an in-memory fake.
type ICacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

func accountsCacheKey(customerID int64) string {
	return fmt.Sprintf("accounts:%d", customerID)
}

// InvalidateAccounts drops the cached account lists of the given customers.
// A nil cache is allowed and does nothing.
func InvalidateAccounts(ctx context.Context, cache ICacheClient, customerIDs ...int64) {
	if cache == nil || len(customerIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(customerIDs))
	for _, id := range customerIDs {
		keys = append(keys, accountsCacheKey(id))
	}
	if err := cache.Del(ctx, keys...).Err(); err != nil {
		logger.Log.WithError(err).WithField("keys", keys).Warn("Failed to invalidate account cache")
	}
}
