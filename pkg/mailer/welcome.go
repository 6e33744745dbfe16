package mailer

import (
	"bytes"
	"context"
	"text/template"

	"github.com/sirupsen/logrus"
)

var welcomeText = template.Must(template.New("welcome").Parse(
	`Hi {{.Name}},

Welcome aboard! Your account has been created with this email address.

If this wasn't you, just ignore this message.
`))

// WelcomeMailer sends the welcome email through Mailgun.
type WelcomeMailer struct {
	MG *Mailgun
}

func NewWelcomeMailer(mg *Mailgun) *WelcomeMailer {
	return &WelcomeMailer{MG: mg}
}

func (w *WelcomeMailer) SendWelcome(ctx context.Context, email, name string) error {
	var buf bytes.Buffer
	if err := welcomeText.Execute(&buf, map[string]string{"Name": name}); err != nil {
		return err
	}
	return w.MG.Send(ctx, email, "Welcome!", buf.String(), "")
}

// LogWelcomeSender only logs the welcome message. Used when real email
// sending is disabled.
type LogWelcomeSender struct {
	Logger *logrus.Logger
}

func (l *LogWelcomeSender) SendWelcome(_ context.Context, email, name string) error {
	l.Logger.WithFields(logrus.Fields{"email": email, "name": name}).Info("welcome message (send disabled)")
	return nil
}
