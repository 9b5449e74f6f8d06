package messaging

import (
	"bytes"
	"embed"
	"fmt"
	htmltpl "html/template"
	texttpl "text/template"
	"time"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

const (
	TemplateWelcome       = "welcome"
	TemplateConfirmEmail  = "confirm_email"
	TemplatePasswordReset = "password_reset"
)

var subjects = map[string]string{
	TemplateWelcome:       "Welcome",
	TemplateConfirmEmail:  "Confirm your email address",
	TemplatePasswordReset: "Password reset requested",
}

// Vars son las variables comunes de los templates de cuenta.
type Vars struct {
	Name     string
	UserName string
	Link     string
	TTL      string
}

type Templates struct {
	html *htmltpl.Template
	text *texttpl.Template
}

// LoadTemplates parsea los templates embebidos.
func LoadTemplates() (*Templates, error) {
	h, err := htmltpl.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("messaging: parse html templates: %w", err)
	}
	t, err := texttpl.ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("messaging: parse text templates: %w", err)
	}
	return &Templates{html: h, text: t}, nil
}

// MustLoadTemplates es para wiring y tests; los templates son embebidos.
func MustLoadTemplates() *Templates {
	t, err := LoadTemplates()
	if err != nil {
		panic(err)
	}
	return t
}

// Render arma el Email (sin From) para el template id.
func (t *Templates) Render(id, to string, v Vars) (Email, error) {
	var hb, tb bytes.Buffer
	if err := t.html.ExecuteTemplate(&hb, id+".html", v); err != nil {
		return Email{}, fmt.Errorf("messaging: render %s.html: %w", id, err)
	}
	if err := t.text.ExecuteTemplate(&tb, id+".txt", v); err != nil {
		return Email{}, fmt.Errorf("messaging: render %s.txt: %w", id, err)
	}
	return Email{To: to, Subject: subjects[id], HTMLBody: hb.String(), TextBody: tb.String()}, nil
}

// HumanTTL formatea una duración para el cuerpo del email ("48 hours", "30 minutes").
func HumanTTL(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	case d >= time.Minute:
		m := int(d / time.Minute)
		if m == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	}
	return d.String()
}
