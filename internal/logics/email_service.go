package logics

import (
	"fmt"

	"identity-server/configs"
	"identity-server/internal/identity"

	"gopkg.in/gomail.v2"
)

// EmailService provides email delivery functionality
type EmailService struct {
	smtpHost     string
	smtpPort     int
	smtpUsername string
	smtpPassword string
	senderEmail  string
	senderName   string
}

// NewEmailService creates a new EmailService
func NewEmailService(cfg configs.EmailConfig) *EmailService {
	return &EmailService{
		smtpHost:     cfg.SMTPHost,
		smtpPort:     cfg.SMTPPort,
		smtpUsername: cfg.Username,
		smtpPassword: cfg.Password,
		senderEmail:  cfg.SenderEmail,
		senderName:   cfg.SenderName,
	}
}

// SendEmail sends an HTML email over SMTP with TLS
func (s *EmailService) SendEmail(from, to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(from, s.senderName))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(s.smtpHost, s.smtpPort, s.smtpUsername, s.smtpPassword)

	return d.DialAndSend(m)
}

// GenerateNoticeEmailHTML wraps a localized message body in the standard
// notice template with inline styles for maximum client compatibility
func (s *EmailService) GenerateNoticeEmailHTML(title, body string) string {
	emailHTML := fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Transitional//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-transitional.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
	<meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1.0" />
	<title>%s</title>
</head>
<body style="margin: 0; padding: 0; font-family: Helvetica, Arial, sans-serif; background-color: #f7f9fc; -webkit-text-size-adjust: 100%%; -ms-text-size-adjust: 100%%;">
	<table border="0" cellpadding="0" cellspacing="0" width="100%%" style="border-collapse: collapse;">
		<tr>
			<td style="padding: 40px 0;">
				<table align="center" border="0" cellpadding="0" cellspacing="0" width="600" style="border-collapse: collapse; background-color: #5271ff; border-radius: 8px 8px 0 0;">
					<tr>
						<td align="center" style="padding: 30px 0; color: #ffffff;">
							<h1 style="margin: 0; font-size: 24px; font-weight: 700;">%s</h1>
						</td>
					</tr>
				</table>
				<table align="center" border="0" cellpadding="0" cellspacing="0" width="600" style="border-collapse: collapse; background-color: #ffffff; border-radius: 0 0 8px 8px; box-shadow: 0 4px 15px rgba(0, 0, 0, 0.08);">
					<tr>
						<td style="padding: 40px 30px; color: #333333; font-size: 16px; line-height: 1.6;">
							<p style="margin-top: 0; margin-bottom: 0;">%s</p>
						</td>
					</tr>
				</table>
			</td>
		</tr>
	</table>
</body>
</html>`, title, title, body)

	return emailHTML
}

// Sender adapts the service to the function contract the identity engines
// consume. The sender address comes from config, falling back to
// noreply@<domain>.
func (s *EmailService) Sender(domain string) identity.EmailSender {
	from := s.senderEmail
	if from == "" {
		from = "noreply@" + domain
	}
	return func(destination, subject, htmlBody string) error {
		return s.SendEmail(from, destination, subject, s.GenerateNoticeEmailHTML(subject, htmlBody))
	}
}
