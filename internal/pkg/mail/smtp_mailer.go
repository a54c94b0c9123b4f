package mail

import (
	"fmt"
	"log"
	"net/smtp"
	"net/url"

	"github.com/buildsuitehq/BuildSuite/internal/pkg/env"
)

// SendMail delivers one HTML mail via SMTP.
func SendMail(to string, subject string, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "587")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	sender := env.GetEnv("SMTP_SENDER", "")

	if sender == "" {
		sender = "no-reply@localhost"
		log.Printf("SMTP_SENDER not set, using default sender: %s", sender)
	}

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)

	if err := smtp.SendMail(addr, auth, sender, []string{to}, msg); err != nil {
		log.Printf("SMTP send error: %v", err)
		return err
	}
	return nil
}

// tokenLink builds an absolute frontend link carrying a session token.
func tokenLink(path, secret string) string {
	base := env.GetEnv("APP_BASE_URL", "http://localhost:3000")
	return fmt.Sprintf("%s%s?token=%s", base, path, url.QueryEscape(secret))
}

// SendVerificationMail mails the email-verify link for a new account.
func SendVerificationMail(to, secret string) error {
	link := tokenLink("/verify-email", secret)
	body := fmt.Sprintf(`<p>Welcome to BuildSuite!</p>
<p>Please confirm your email address: <a href="%s">%s</a></p>`, link, link)
	return SendMail(to, "Confirm your BuildSuite account", body)
}

// SendPasswordResetMail mails the password-reset link.
func SendPasswordResetMail(to, secret string) error {
	link := tokenLink("/reset-password", secret)
	body := fmt.Sprintf(`<p>A password reset was requested for your account.</p>
<p>Set a new password here: <a href="%s">%s</a></p>
<p>If you did not request this, you can ignore this mail.</p>`, link, link)
	return SendMail(to, "Reset your BuildSuite password", body)
}

// SendInviteMail mails the invite link to a prospective team member.
func SendInviteMail(to, secret string) error {
	link := tokenLink("/invite/accept", secret)
	body := fmt.Sprintf(`<p>You have been invited to a BuildSuite workspace.</p>
<p>Accept the invitation: <a href="%s">%s</a></p>`, link, link)
	return SendMail(to, "You have been invited to BuildSuite", body)
}
