package interfaces

import (
	"context"
	"time"
)

// CacheProvider is the cross-instance cache contract used by the snapshot
// shared tier. Hosts typically back it with Redis or memcached; an in-process
// implementation ships as the default so the module works standalone.
type CacheProvider interface {
	Get(ctx context.Context, key string) (any, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
