package model

import "context"

// MailMessage is a plain-text email.
type MailMessage struct {
	To      string
	Subject string
	Body    string
}

// MailDispatcher delivers mail. Implementations must honor ctx deadlines.
type MailDispatcher interface {
	Send(ctx context.Context, msg MailMessage) error
}
