package email

import (
	"errors"
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPProvider реализует Provider поверх gomail
type SMTPProvider struct {
	config   *SMTPConfig
	dialer   *gomail.Dialer
	renderer TemplateRenderer
}

func NewSMTPProvider(config *SMTPConfig, renderer TemplateRenderer) *SMTPProvider {
	return &SMTPProvider{
		config:   config,
		dialer:   gomail.NewDialer(config.Host, config.Port, config.Username, config.Password),
		renderer: renderer,
	}
}

func (p *SMTPProvider) Send(email *Email) error {
	if len(email.To) == 0 {
		return errors.New("email has no recipients")
	}
	if err := p.dialer.DialAndSend(p.message(email)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (p *SMTPProvider) message(email *Email) *gomail.Message {
	m := gomail.NewMessage()
	if p.config.FromName != "" {
		m.SetAddressHeader("From", p.config.FromEmail, p.config.FromName)
	} else {
		m.SetHeader("From", p.config.FromEmail)
	}
	m.SetHeader("To", email.To...)
	m.SetHeader("Subject", email.Subject)
	m.SetBody("text/html", email.HTMLBody)
	return m
}

// SendTemplate отправляет email по шаблону
func (p *SMTPProvider) SendTemplate(to []string, subject string, templateName string, data TemplateData) error {
	if p.renderer == nil {
		return errors.New("template renderer is not configured")
	}
	html, err := p.renderer.Render(templateName, data)
	if err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}
	return p.Send(&Email{To: to, Subject: subject, HTMLBody: html})
}

func (p *SMTPProvider) Validate() error {
	if p.config.Host == "" {
		return errors.New("SMTP host is required")
	}
	if p.config.Port <= 0 {
		return errors.New("SMTP port must be positive")
	}
	if p.config.FromEmail == "" {
		return errors.New("from email is required")
	}
	return nil
}

// Close - gomail открывает соединение на каждое письмо, закрывать нечего.
func (p *SMTPProvider) Close() error {
	return nil
}
