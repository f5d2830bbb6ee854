// Package mailer sends transactional email over SMTP. The SMTP host is
// Mailtrap in development; credentials come from configuration.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

const (
	smtpHost = "smtp.mailtrap.io"
	smtpPort = "2525"
)

// SMTPMailer implements the core.Mailer interface over net/smtp.
type SMTPMailer struct {
	sender   string
	smtpUser string
	smtpPass string
}

// NewSMTPMailer creates a mailer. All three values are required.
func NewSMTPMailer(sender, smtpUser, smtpPass string) (*SMTPMailer, error) {
	if sender == "" {
		return nil, fmt.Errorf("sender email address cannot be empty")
	}
	if smtpUser == "" || smtpPass == "" {
		return nil, fmt.Errorf("SMTP username and password must be provided")
	}
	return &SMTPMailer{sender: sender, smtpUser: smtpUser, smtpPass: smtpPass}, nil
}

// SendWelcomeEmail sends the account-created email with the generated
// credentials to a freshly converted artisan.
func (m *SMTPMailer) SendWelcomeEmail(ctx context.Context, recipient, firstName, loginEmail, password string) error {
	subject := "Bienvenue sur RenoLeads - votre compte artisan"
	body := fmt.Sprintf(
		"<html><body>"+
			"<h1>Bienvenue %s !</h1>"+
			"<p>Votre compte artisan a bien été créé. Voici vos identifiants de connexion :</p>"+
			"<p>Email : <b>%s</b><br>Mot de passe : <b>%s</b></p>"+
			"<p>Pensez à changer votre mot de passe lors de votre première connexion.</p>"+
			"</body></html>",
		firstName, loginEmail, password)
	return m.send(ctx, recipient, subject, body)
}

// send delivers one message. The Content-Type is inferred from the body.
func (m *SMTPMailer) send(ctx context.Context, recipient, subject, body string) error {
	if recipient == "" {
		return fmt.Errorf("recipient email address cannot be empty")
	}
	if subject == "" {
		return fmt.Errorf("email subject cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	contentType := "text/plain; charset=UTF-8"
	if strings.Contains(strings.ToLower(body), "<html>") || strings.Contains(strings.ToLower(body), "<p>") {
		contentType = "text/html; charset=UTF-8"
	}

	message := []byte(fmt.Sprintf("To: %s\r\n"+
		"From: %s\r\n"+
		"Subject: %s\r\n"+
		"Content-Type: %s\r\n"+
		"\r\n"+
		"%s\r\n", recipient, m.sender, subject, contentType, body))

	auth := smtp.PlainAuth("", m.smtpUser, m.smtpPass, smtpHost)
	if err := smtp.SendMail(smtpHost+":"+smtpPort, auth, m.sender, []string{recipient}, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
