// Package email provides email sending functionality
package email

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"time"

	"gopkg.in/gomail.v2"
)

// Config holds email configuration
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
}

// Service handles email sending
type Service struct {
	config    *Config
	dialer    *gomail.Dialer
	templates map[string]*template.Template
}

// NewService creates a new email service
func NewService(config *Config) *Service {
	s := &Service{
		config:    config,
		templates: make(map[string]*template.Template),
	}
	if config.Host != "" {
		s.dialer = gomail.NewDialer(config.Host, config.Port, config.User, config.Password)
	}
	s.loadTemplates()
	return s
}

// Enabled reports whether SMTP is configured. When it is not, sends are
// logged and dropped so local development works without a relay.
func (s *Service) Enabled() bool {
	return s.dialer != nil
}

// InvitationEmailData holds data for invitation emails
type InvitationEmailData struct {
	TargetName string // company name or RFP title
	InvitedBy  string
	InviteURL  string
	ExpiresAt  time.Time
}

// ClosingSoonEmailData holds data for closing reminder emails
type ClosingSoonEmailData struct {
	RfpTitle    string
	ClosingDate time.Time
	RfpURL      string
}

// loadTemplates loads all email templates
func (s *Service) loadTemplates() {

	// Company invitation template
	s.templates["company_invitation"] = template.Must(template.New("company_invitation").Parse(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #1d4ed8; color: white; padding: 24px; border-radius: 8px 8px 0 0; }
        .content { background: #f9fafb; padding: 24px; border-radius: 0 0 8px 8px; }
        .btn { display: inline-block; background: #1d4ed8; color: white; padding: 12px 20px; text-decoration: none; border-radius: 6px; margin-top: 16px; }
        .footer { margin-top: 24px; font-size: 12px; color: #6b7280; text-align: center; }
    </style>
</head>
<body>
<div class="container">
    <div class="header">
        <h2>You're Invited to RFP Desk</h2>
    </div>
    <div class="content">
        <p>Hello,</p>
        <p><strong>{{.InvitedBy}}</strong> invited you to join <strong>{{.TargetName}}</strong>.</p>

        <a href="{{.InviteURL}}" class="btn">Accept Invitation</a>

        <p style="margin-top: 16px; font-size: 14px; color: #6b7280;">
            This invitation expires on {{.ExpiresAt.Format "January 2, 2006"}}. If you were not expecting this email, you can ignore it.
        </p>
    </div>
    <div class="footer">
        RFP Desk • Procurement Workflow Platform
    </div>
</div>
</body>
</html>
`))

	// RFP invitation template
	s.templates["rfp_invitation"] = template.Must(template.New("rfp_invitation").Parse(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #047857; color: white; padding: 24px; border-radius: 8px 8px 0 0; }
        .content { background: #f9fafb; padding: 24px; border-radius: 0 0 8px 8px; }
        .btn { display: inline-block; background: #047857; color: white; padding: 12px 20px; text-decoration: none; border-radius: 6px; margin-top: 16px; }
        .footer { margin-top: 24px; font-size: 12px; color: #6b7280; text-align: center; }
    </style>
</head>
<body>
<div class="container">
    <div class="header">
        <h2>Invitation to Bid</h2>
    </div>
    <div class="content">
        <p>Hello,</p>
        <p><strong>{{.InvitedBy}}</strong> invited you to participate in <strong>{{.TargetName}}</strong>.</p>

        <a href="{{.InviteURL}}" class="btn">View RFP</a>

        <p style="margin-top: 16px; font-size: 14px; color: #6b7280;">
            This invitation expires on {{.ExpiresAt.Format "January 2, 2006"}}.
        </p>
    </div>
    <div class="footer">
        RFP Desk • Procurement Workflow Platform
    </div>
</div>
</body>
</html>
`))

	// RFP closing reminder template
	s.templates["closing_soon"] = template.Must(template.New("closing_soon").Parse(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #b45309; color: white; padding: 24px; border-radius: 8px 8px 0 0; }
        .content { background: #f9fafb; padding: 24px; border-radius: 0 0 8px 8px; }
        .btn { display: inline-block; background: #b45309; color: white; padding: 12px 20px; text-decoration: none; border-radius: 6px; margin-top: 16px; }
        .footer { margin-top: 24px; font-size: 12px; color: #6b7280; text-align: center; }
    </style>
</head>
<body>
<div class="container">
    <div class="header">
        <h2>RFP Closing Soon</h2>
    </div>
    <div class="content">
        <p>Hello,</p>
        <p><strong>{{.RfpTitle}}</strong> closes on <strong>{{.ClosingDate.Format "January 2, 2006 at 15:04 MST"}}</strong>.</p>
        <p>Make sure your proposal is submitted before the deadline.</p>

        <a href="{{.RfpURL}}" class="btn">View RFP</a>
    </div>
    <div class="footer">
        RFP Desk • Procurement Workflow Platform
    </div>
</div>
</body>
</html>
`))
}

// render executes a named template.
func (s *Service) render(name string, data interface{}) (string, error) {
	tmpl, ok := s.templates[name]
	if !ok {
		return "", fmt.Errorf("email: unknown template %q", name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("email: render %s: %w", name, err)
	}
	return buf.String(), nil
}

// send delivers one HTML message with bounded retries.
func (s *Service) send(to, subject, htmlBody string) error {
	if !s.Enabled() {
		log.Printf("[Email] SMTP not configured, skipping email to %s: %s", to, subject)
		return nil
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.config.From, s.config.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		if err = s.dialer.DialAndSend(m); err == nil {
			log.Printf("[Email] ✉️  Sent %q to %s", subject, to)
			return nil
		}
		log.Printf("[Email] Send attempt %d failed for %s: %v", attempt, to, err)
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	return fmt.Errorf("email: send to %s: %w", to, err)
}

// SendCompanyInvitation sends a company membership invitation
func (s *Service) SendCompanyInvitation(to string, data InvitationEmailData) error {
	body, err := s.render("company_invitation", data)
	if err != nil {
		return err
	}
	return s.send(to, fmt.Sprintf("Invitation to join %s", data.TargetName), body)
}

// SendRfpInvitation sends an invitation to bid on an RFP
func (s *Service) SendRfpInvitation(to string, data InvitationEmailData) error {
	body, err := s.render("rfp_invitation", data)
	if err != nil {
		return err
	}
	return s.send(to, fmt.Sprintf("Invitation to bid: %s", data.TargetName), body)
}

// SendClosingSoonReminder sends a deadline reminder
func (s *Service) SendClosingSoonReminder(to string, data ClosingSoonEmailData) error {
	body, err := s.render("closing_soon", data)
	if err != nil {
		return err
	}
	return s.send(to, fmt.Sprintf("Closing soon: %s", data.RfpTitle), body)
}
