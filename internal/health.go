package internal

import (
	"context"
	"time"
)

const defaultHealthTimeout = 5 * time.Second

// Pinger is implemented by key-value stores that can check their backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckHealth pings store if it is a Pinger and reports healthy otherwise. timeout may be
// 0 to use the 5s default.
func CheckHealth(ctx context.Context, store any, timeout time.Duration) error {
	p, ok := store.(Pinger)
	if !ok {
		return nil
	}
	if timeout <= 0 {
		timeout = defaultHealthTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Ping(ctx)
}
