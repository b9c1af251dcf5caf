package email

import (
	"time"

	"creatorhub_backend/internal/config"
)

// SMTPConfig содержит конфигурацию SMTP сервера
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	Timeout   time.Duration

	// TemplatesDir переопределяет встроенные шаблоны, если задан.
	TemplatesDir string
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *SMTPConfig {
	return &SMTPConfig{
		Host:    "localhost",
		Port:    587,
		Timeout: 30 * time.Second,
	}
}

// ConfigFrom maps the application config onto an SMTP config.
func ConfigFrom(cfg *config.Config) *SMTPConfig {
	c := DefaultConfig()
	c.Host = cfg.Email.SMTPHost
	if cfg.Email.SMTPPort != 0 {
		c.Port = cfg.Email.SMTPPort
	}
	c.Username = cfg.Email.SMTPUsername
	c.Password = cfg.Email.SMTPPassword
	c.FromEmail = cfg.Email.FromEmail
	c.FromName = cfg.Email.FromName
	c.TemplatesDir = cfg.Email.TemplatesDir
	return c
}

// NewProvider returns an SMTP provider, or a NoopProvider when no host is set.
func NewProvider(cfg *SMTPConfig) (Provider, error) {
	if cfg.Host == "" {
		return NoopProvider{}, nil
	}
	renderer := NewTemplateManager()
	if err := renderer.LoadDefaults(); err != nil {
		return nil, err
	}
	if cfg.TemplatesDir != "" {
		if err := renderer.LoadTemplates(cfg.TemplatesDir); err != nil {
			return nil, err
		}
	}
	provider := NewSMTPProvider(cfg, renderer)
	if err := provider.Validate(); err != nil {
		return nil, err
	}
	return provider, nil
}
