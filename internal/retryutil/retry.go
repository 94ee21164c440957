package retryutil

import (
	"context"
	"log/slog"
	"time"
)

const (
	defaultDelay   = 1 * time.Second
	defaultTimeout = 30 * time.Second
)

// Async runs fn on its own goroutine after an optional delay, bounded by
// timeout, logging the outcome. Used for fire-and-forget work like funding
// a freshly created wallet.
func Async(logger *slog.Logger, name string, delay, timeout time.Duration, fn func(ctx context.Context) error) {
	if fn == nil {
		return
	}
	if delay < 0 {
		delay = defaultDelay
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	go func() {
		if delay > 0 {
			timer := time.NewTimer(delay)
			<-timer.C
			timer.Stop()
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			if logger != nil {
				logger.Warn(name+"_failed", "error", err.Error())
			}
			return
		}
		if logger != nil {
			logger.Info(name + "_ok")
		}
	}()
}
