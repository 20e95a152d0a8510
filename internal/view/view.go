// Package view renders HTML email bodies from named templates.
//
// Site templates are read from a configured directory and are used whenever a
// custom template has been configured. Admin templates are the defaults
// embedded in the binary.
package view

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path"

	"github.com/shineum/form-mailer/internal/form"
)

// Default template names, resolved in admin mode.
const (
	DefaultTemplate      = "general.html"
	NotificationTemplate = "notification.html"
)

var (
	// ErrTemplateNotFound is returned when a template does not exist.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrTemplateRender is returned when a template fails to parse or execute.
	ErrTemplateRender = errors.New("template render failed")
)

//go:embed templates/*.html
var embedded embed.FS

// Mode selects where a template name is looked up.
type Mode int

const (
	// ModeSite looks templates up in the configured templates directory.
	ModeSite Mode = iota
	// ModeAdmin looks templates up in the embedded defaults.
	ModeAdmin
)

func (m Mode) String() string {
	if m == ModeAdmin {
		return "admin"
	}
	return "site"
}

// Renderer renders a named template with the given variables.
type Renderer interface {
	Render(name string, mode Mode, vars map[string]any) (string, error)
}

// Field is the per-field value exposed to templates as an element of
// the "fields" variable.
type Field struct {
	Name  string
	Label string
	Type  form.Kind
	Value any
	Text  string
}

// Engine is the html/template backed Renderer.
type Engine struct {
	site  fs.FS
	admin fs.FS
}

// New creates an Engine whose site templates live in dir. An empty dir
// leaves only the embedded templates available.
func New(dir string) *Engine {
	var site fs.FS
	if dir != "" {
		site = os.DirFS(dir)
	}
	return NewFS(site)
}

// NewFS creates an Engine reading site templates from fsys.
func NewFS(fsys fs.FS) *Engine {
	admin, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return &Engine{site: fsys, admin: admin}
}

// Render renders the template called name. Errors wrap ErrTemplateNotFound
// or ErrTemplateRender.
func (e *Engine) Render(name string, mode Mode, vars map[string]any) (string, error) {
	fsys := e.admin
	if mode == ModeSite {
		fsys = e.site
	}
	if fsys == nil || !fs.ValidPath(name) {
		return "", fmt.Errorf("%w: %s (%s)", ErrTemplateNotFound, name, mode)
	}
	if _, err := fs.Stat(fsys, name); err != nil {
		return "", fmt.Errorf("%w: %s (%s)", ErrTemplateNotFound, name, mode)
	}

	tmpl, err := template.New(path.Base(name)).Funcs(funcs).ParseFS(fsys, name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrTemplateRender, name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrTemplateRender, name, err)
	}
	return buf.String(), nil
}

var funcs = template.FuncMap{
	"isList":  isList,
	"list":    list,
	"display": display,
}

func isList(v any) bool {
	_, ok := form.Entry{Value: v}.List()
	return ok
}

func list(v any) []string {
	l, _ := form.Entry{Value: v}.List()
	return l
}

func display(v any) string {
	switch val := v.(type) {
	case *form.Attachment:
		if val == nil {
			return ""
		}
		return val.Name
	default:
		return form.Entry{Value: v}.Scalar()
	}
}
