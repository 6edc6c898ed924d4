// Package mailer delivers one-time codes by email.
package mailer

import (
	"context"
	"fmt"
	"html"

	"github.com/dmitrijs2005/impacthands/internal/logging"
	"gopkg.in/gomail.v2"
)

// Sender delivers a login code to email. redirectTo is the site the user
// started from and is linked in the message. Callers pass only targets
// they have checked against the allowed redirect URLs.
type Sender interface {
	SendCode(ctx context.Context, email, code, redirectTo string) error
}

// SMTPSender sends through an SMTP relay.
type SMTPSender struct {
	from string
	send func(m ...*gomail.Message) error
}

func NewSMTPSender(host string, port int, user, password, from string) *SMTPSender {
	d := gomail.NewDialer(host, port, user, password)
	return &SMTPSender{from: from, send: d.DialAndSend}
}

func (s *SMTPSender) SendCode(ctx context.Context, email, code, redirectTo string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.send(buildCodeMessage(s.from, email, code, redirectTo)); err != nil {
		return fmt.Errorf("failed to send code email: %w", err)
	}
	return nil
}

func buildCodeMessage(from, to, code, redirectTo string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Your ImpactHands sign-in code")

	text, body := codeBodies(code, redirectTo)
	m.SetBody("text/plain", text)
	m.AddAlternative("text/html", body)
	return m
}

// codeBodies renders the plain text and HTML parts. redirectTo must already
// be an allowed, encoded URL; it is escaped again for the HTML part.
func codeBodies(code, redirectTo string) (text, body string) {
	text = fmt.Sprintf("Your sign-in code is %s.\n\nIt expires shortly and can be used once.\n", code)
	body = fmt.Sprintf(`
		<h2>Sign in to ImpactHands</h2>
		<p>Your sign-in code is <strong>%s</strong>.</p>
		<p>It expires shortly and can be used once.</p>
	`, html.EscapeString(code))
	if redirectTo != "" {
		link := html.EscapeString(redirectTo)
		text += "\nReturn to " + redirectTo + " to enter it.\n"
		body += fmt.Sprintf(`<p>Return to <a href="%s">%s</a> to enter it.</p>`, link, link)
	}
	body += `<p>If you did not ask for this code, you can ignore this email.</p>`
	return text, body
}

// LogSender writes codes to the log. It stands in for SMTP in development.
type LogSender struct {
	log logging.Logger
}

func NewLogSender(log logging.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) SendCode(ctx context.Context, email, code, redirectTo string) error {
	s.log.Info(ctx, "sign-in code (SMTP disabled)", "email", email, "code", code, "redirect_to", redirectTo)
	return nil
}
