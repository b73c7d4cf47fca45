package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const defaultSendTimeout = 10 * time.Second

// Dialer is the part of *gomail.Dialer the notifier uses.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPNotifier renders HTML emails and sends them over SMTP.
type SMTPNotifier struct {
	Dialer      Dialer
	From        string
	BaseURL     string
	SendTimeout time.Duration
}

// NewSMTPNotifier dials host:port with the given credentials for every send.
func NewSMTPNotifier(host string, port int, username, password, from, baseURL string) *SMTPNotifier {
	return &SMTPNotifier{
		Dialer:      gomail.NewDialer(host, port, username, password),
		From:        from,
		BaseURL:     baseURL,
		SendTimeout: defaultSendTimeout,
	}
}

type emailData struct {
	Name string
	Link string
}

func (n *SMTPNotifier) SendVerification(ctx context.Context, to, token, name string) error {
	m, err := n.Message(to, VerificationSubject, "verification.html", emailData{
		Name: name,
		Link: VerificationURL(n.BaseURL, token),
	})
	if err != nil {
		return err
	}
	return n.send(ctx, m)
}

func (n *SMTPNotifier) SendPasswordReset(ctx context.Context, to, token, name string) error {
	m, err := n.Message(to, PasswordResetSubject, "password_reset.html", emailData{
		Name: name,
		Link: PasswordResetURL(n.BaseURL, token),
	})
	if err != nil {
		return err
	}
	return n.send(ctx, m)
}

// Message renders the named template into a ready-to-send message.
func (n *SMTPNotifier) Message(to, subject, tmpl string, data any) (*gomail.Message, error) {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, tmpl, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", tmpl, err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body.String())
	return m, nil
}

// send bounds the SMTP exchange by SendTimeout and ctx. A send that outlives
// them keeps running in the background; its result is discarded.
func (n *SMTPNotifier) send(ctx context.Context, m *gomail.Message) error {
	timeout := n.SendTimeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- n.Dialer.DialAndSend(m)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send: %w", ctx.Err())
	}
}
