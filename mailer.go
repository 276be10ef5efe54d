package accounts

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/goliatone/go-errors"
)

// MailMessage is the payload handed to the outbound mail collaborator.
type MailMessage struct {
	To      string
	From    string
	Subject string
	Body    string
}

// Mailer delivers messages. Transport is not this package's concern; a
// delivery failure after a reset token has been persisted is logged and
// swallowed, bounded by the token's expiry.
type Mailer interface {
	Send(ctx context.Context, msg MailMessage) error
}

// MailerFunc adapts a function into a Mailer.
type MailerFunc func(ctx context.Context, msg MailMessage) error

// Send satisfies the Mailer interface.
func (f MailerFunc) Send(ctx context.Context, msg MailMessage) error {
	if f == nil {
		return nil
	}
	return f(ctx, msg)
}

// ResetMailTemplate produces the reset email subject and body for a given
// user and token link.
type ResetMailTemplate interface {
	Render(user *User, resetURL string) (subject, body string, err error)
}

const defaultResetMailSubject = "Password reset requested"

const defaultResetMailBody = `Hi {{.Name}},

A password reset was requested for this account. Follow the link below to
choose a new password. The link is valid for one hour and can be used once.

{{.ResetURL}}

If you did not request this you can ignore this message.
`

type defaultResetMailTemplate struct {
	tpl *template.Template
}

// NewResetMailTemplate returns the built-in plain text reset template.
func NewResetMailTemplate() ResetMailTemplate {
	return &defaultResetMailTemplate{
		tpl: template.Must(template.New("reset_mail").Parse(defaultResetMailBody)),
	}
}

func (t *defaultResetMailTemplate) Render(user *User, resetURL string) (string, string, error) {
	name := ""
	if user != nil {
		name = user.Name
		if name == "" {
			name = user.Username
		}
	}

	var buf bytes.Buffer
	err := t.tpl.Execute(&buf, map[string]string{
		"Name":     name,
		"ResetURL": resetURL,
	})
	if err != nil {
		return "", "", errors.Wrap(err, errors.CategoryInternal, "failed to render reset mail template")
	}

	return defaultResetMailSubject, buf.String(), nil
}

type consoleMailer struct {
	logger Logger
}

// NewConsoleMailer prints outbound mail to stdout, useful in development.
func NewConsoleMailer(logger Logger) Mailer {
	if logger == nil {
		logger = defLogger{}
	}
	return consoleMailer{logger: logger}
}

func (m consoleMailer) Send(_ context.Context, msg MailMessage) error {
	fmt.Println("====== SENDING EMAIL NOTIFICATION =======")
	fmt.Printf("to: %s\n", msg.To)
	fmt.Printf("subject: %s\n", msg.Subject)
	fmt.Println(msg.Body)
	return nil
}
