package mail

import (
	"context"
	"time"

	"github.com/dtroode/adminauth-server/internal/model"
)

type timeoutDispatcher struct {
	next    model.MailDispatcher
	timeout time.Duration
}

// WithTimeout bounds every Send on next by timeout. A zero timeout
// returns next unchanged.
func WithTimeout(next model.MailDispatcher, timeout time.Duration) model.MailDispatcher {
	if timeout <= 0 {
		return next
	}
	return &timeoutDispatcher{next: next, timeout: timeout}
}

func (d *timeoutDispatcher) Send(ctx context.Context, msg model.MailMessage) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- d.next.Send(ctx, msg)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
