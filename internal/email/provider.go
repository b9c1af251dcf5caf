package email

// Provider определяет интерфейс для отправки email
type Provider interface {
	Send(email *Email) error

	// SendTemplate рендерит шаблон и отправляет его как HTML
	SendTemplate(to []string, subject string, templateName string, data TemplateData) error

	Validate() error
	Close() error
}

// TemplateRenderer определяет интерфейс для рендеринга шаблонов
type TemplateRenderer interface {
	Render(templateName string, data TemplateData) (string, error)
	AddTemplate(name string, template string) error
	LoadTemplates(dirPath string) error
}

// NoopProvider drops every message. Used when SMTP is not configured.
type NoopProvider struct{}

func (NoopProvider) Send(*Email) error { return nil }

func (NoopProvider) SendTemplate([]string, string, string, TemplateData) error { return nil }

func (NoopProvider) Validate() error { return nil }

func (NoopProvider) Close() error { return nil }
