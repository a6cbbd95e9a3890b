package service

import (
	"io"
	"time"
)

type options struct {
	now  func() time.Time
	rand io.Reader
}

// Option customizes a service.
type Option func(*options)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithRandom replaces the randomness source used for codes and placeholders.
func WithRandom(r io.Reader) Option {
	return func(o *options) {
		o.rand = r
	}
}
