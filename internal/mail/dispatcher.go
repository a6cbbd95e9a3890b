// Package mail delivers plain-text email through one of several transports.
package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/dtroode/adminauth-server/internal/logger"
	"github.com/dtroode/adminauth-server/internal/model"
)

// Transport names a mail delivery mechanism.
type Transport string

const (
	TransportAuto         Transport = ""
	TransportSMTP         Transport = "smtp"
	TransportBucket       Transport = "bucket"
	TransportLog          Transport = "log"
	TransportUnconfigured Transport = "unconfigured"
)

// ErrNotConfigured is returned by the dispatcher used when no transport is available.
var ErrNotConfigured = errors.New("mail transport is not configured")

// ResolveTransport picks the concrete transport for the requested one.
// In auto mode SMTP wins when configured; otherwise mail is only logged
// outside production and fails in production.
func ResolveTransport(requested string, smtpConfigured, smtpMock, production bool) (Transport, error) {
	switch Transport(requested) {
	case TransportLog, TransportBucket:
		return Transport(requested), nil
	case TransportSMTP:
		if !smtpConfigured {
			return TransportUnconfigured, nil
		}
		return TransportSMTP, nil
	case TransportAuto:
		switch {
		case smtpMock:
			return TransportLog, nil
		case smtpConfigured:
			return TransportSMTP, nil
		case !production:
			return TransportLog, nil
		default:
			return TransportUnconfigured, nil
		}
	default:
		return "", fmt.Errorf("unknown mail transport %q", requested)
	}
}

// LogDispatcher records the envelope of each message and drops it.
// The body is never logged since it carries the code.
type LogDispatcher struct {
	logger *logger.Logger
}

var _ model.MailDispatcher = (*LogDispatcher)(nil)

func NewLogDispatcher(logger *logger.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Send(ctx context.Context, msg model.MailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.logger.Info("Mail: delivery mocked", "to", msg.To, "subject", msg.Subject)
	return nil
}

// UnconfiguredDispatcher fails every send.
type UnconfiguredDispatcher struct{}

var _ model.MailDispatcher = UnconfiguredDispatcher{}

func (UnconfiguredDispatcher) Send(context.Context, model.MailMessage) error {
	return ErrNotConfigured
}
