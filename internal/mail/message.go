package mail

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"strings"
	"text/template"
	"time"

	"github.com/dtroode/adminauth-server/internal/model"
)

const loginCodeSubject = "Your login code"

var loginCodeBody = template.Must(template.New("login_code").Parse(
	`Your one-time login code is {{.Code}}.

It expires in {{.Minutes}} minutes. If you did not request it, ignore this email.
`))

// ErrHeaderInjection is returned when a header value contains a line break.
var ErrHeaderInjection = errors.New("mail header contains line break")

// LoginCodeMessage renders the email that carries a one-time login code.
func LoginCodeMessage(to, code string, ttl time.Duration) (model.MailMessage, error) {
	var body bytes.Buffer
	err := loginCodeBody.Execute(&body, struct {
		Code    string
		Minutes int
	}{Code: code, Minutes: int(ttl.Minutes())})
	if err != nil {
		return model.MailMessage{}, fmt.Errorf("failed to render login code email: %w", err)
	}

	return model.MailMessage{
		To:      to,
		Subject: loginCodeSubject,
		Body:    body.String(),
	}, nil
}

// Compose formats msg as an RFC 5322 plain-text message.
func Compose(from string, msg model.MailMessage, date time.Time, messageID string) ([]byte, error) {
	for _, v := range []string{from, msg.To, msg.Subject, messageID} {
		if strings.ContainsAny(v, "\r\n") {
			return nil, ErrHeaderInjection
		}
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", date.Format(time.RFC1123Z))
	if messageID != "" {
		fmt.Fprintf(&b, "Message-ID: <%s>\r\n", messageID)
	}
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(msg.Body, "\r\n", "\n"), "\n", "\r\n"))

	return b.Bytes(), nil
}
