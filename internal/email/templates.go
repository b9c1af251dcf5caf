package email

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
)

const (
	TemplateSubscriptionExpiring = "subscription_expiring"
)

//go:embed templates/*.html
var defaultTemplates embed.FS

// TemplateManager хранит html-шаблоны писем по имени файла без .html.
type TemplateManager struct {
	mu        sync.RWMutex
	templates map[string]*template.Template
}

func NewTemplateManager() *TemplateManager {
	return &TemplateManager{templates: make(map[string]*template.Template)}
}

func (tm *TemplateManager) Render(name string, data TemplateData) (string, error) {
	tm.mu.RLock()
	tpl, ok := tm.templates[name]
	tm.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("template not found: %s", name)
	}

	var buf strings.Builder
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

func (tm *TemplateManager) AddTemplate(name, text string) error {
	tpl, err := template.New(name).Parse(text)
	if err != nil {
		return fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	tm.mu.Lock()
	tm.templates[name] = tpl
	tm.mu.Unlock()
	return nil
}

// LoadDefaults загружает шаблоны, вшитые в бинарник.
func (tm *TemplateManager) LoadDefaults() error {
	return tm.loadFS(defaultTemplates, "templates")
}

// LoadTemplates загружает *.html из каталога на диске. Одноимённые шаблоны
// заменяют встроенные.
func (tm *TemplateManager) LoadTemplates(dir string) error {
	return tm.loadFS(os.DirFS(dir), ".")
}

func (tm *TemplateManager) loadFS(fsys fs.FS, root string) error {
	return fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".html" {
			return nil
		}

		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("failed to read template file %s: %w", p, err)
		}
		return tm.AddTemplate(strings.TrimSuffix(path.Base(p), ".html"), string(content))
	})
}

// TemplateNames возвращает отсортированные имена загруженных шаблонов.
func (tm *TemplateManager) TemplateNames() []string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	names := make([]string, 0, len(tm.templates))
	for name := range tm.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
