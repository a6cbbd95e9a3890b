package model

import (
	"context"
	"time"
)

// Limiter counts hits per key within a fixed window.
type Limiter interface {
	// Allow registers a hit for key. When the limit is exceeded it
	// returns false and the time left until the window resets.
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}
