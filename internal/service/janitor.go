package service

import (
	"context"
	"time"

	"github.com/dtroode/adminauth-server/internal/logger"
	"github.com/dtroode/adminauth-server/internal/model"
)

// CodeJanitor periodically removes expired one-time codes.
type CodeJanitor struct {
	store    model.CodeStore
	interval time.Duration
	logger   *logger.Logger
	now      func() time.Time
}

func NewCodeJanitor(store model.CodeStore, interval time.Duration, logger *logger.Logger) *CodeJanitor {
	return &CodeJanitor{store: store, interval: interval, logger: logger, now: time.Now}
}

// Run sweeps every interval until ctx is done.
func (j *CodeJanitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := j.Sweep(ctx); err != nil && ctx.Err() == nil {
				j.logger.Error("Code janitor: sweep failed",
					"error", err.Error())
			}
		}
	}
}

// Sweep deletes codes that expired before now.
func (j *CodeJanitor) Sweep(ctx context.Context) (int64, error) {
	n, err := j.store.DeleteExpired(ctx, j.now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		j.logger.Debug("Code janitor: expired codes deleted",
			"count", n)
	}
	return n, nil
}
