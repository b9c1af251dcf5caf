package email

// Email - письмо, которое уходит через Provider. Сейчас это только html-письма
// из шаблонов.
type Email struct {
	To       []string
	Subject  string
	HTMLBody string
}

// TemplateData - данные для html-шаблона.
type TemplateData map[string]interface{}
