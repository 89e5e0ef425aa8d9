package mailer

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/merofly/identity-service/internal/identity/domain"
)

var _ domain.Mailer = (*SMTPMailer)(nil)

// SMTPMailer delivers transactional mail through a plain SMTP dialer.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func New(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *SMTPMailer) SendVerificationCode(ctx context.Context, toEmail, name, code string) error {
	body := fmt.Sprintf(`
		<h2>Hi %s,</h2>
		<p>Your email verification code is:</p>
		<h1>%s</h1>
		<p>The code expires in 10 minutes. If you did not create an account, you can ignore this email.</p>
	`, name, code)

	return m.send(ctx, toEmail, "Email Verification Code", body)
}

func (m *SMTPMailer) SendDocumentReviewed(ctx context.Context, toEmail, name string, approved bool, reason string) error {
	subject := "Document Approved - Account Verified!"
	body := fmt.Sprintf(`
		<h2>Hi %s,</h2>
		<p>Congratulations! Your document has been approved and your account is now fully verified.
		You can now access all platform features.</p>
	`, name)

	if !approved {
		subject = "Document Rejected"
		body = fmt.Sprintf(`
			<h2>Hi %s,</h2>
			<p>Your document was rejected. Reason: %s</p>
			<p>Please log in to your account and upload a new document.</p>
		`, name, reason)
	}

	return m.send(ctx, toEmail, subject, body)
}

func (m *SMTPMailer) send(ctx context.Context, toEmail, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	// gomail has no context support; run the dial in a goroutine so the
	// caller's deadline stays authoritative.
	errCh := make(chan error, 1)
	go func() {
		errCh <- m.dialer.DialAndSend(msg)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
