package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/aussiebroadwan/ssop/internal/ssop/domain"
	"github.com/aussiebroadwan/ssop/internal/ssop/service"
	"github.com/aussiebroadwan/ssop/pkg/slogx"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names.
const (
	pageLogin     = "login"
	pageLoginTOTP = "login_totp"
	pageConsent   = "consent"
	pageDashboard = "dashboard"
	pageError     = "error"
)

const defaultErrorMessage = "An unexpected error occurred"

// page is the data every template receives.
type page struct {
	Title   string
	View    service.View
	User    domain.User
	Message string
	Details string
}

// Pages renders the embedded HTML templates inside the shared layout.
type Pages struct {
	tmpl map[string]*template.Template
}

// NewPages parses the embedded templates.
func NewPages() (*Pages, error) {
	layout, err := template.ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	p := &Pages{tmpl: make(map[string]*template.Template)}
	for _, name := range []string{pageLogin, pageLoginTOTP, pageConsent, pageDashboard, pageError} {
		base, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		t, err := base.ParseFS(templateFS, "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		p.tmpl[name] = t
	}
	return p, nil
}

// render executes the page into a buffer first so a template fault never
// leaves a half-written response.
func (p *Pages) render(w http.ResponseWriter, r *http.Request, status int, name string, data page) {
	t, ok := p.tmpl[name]
	if !ok {
		http.Error(w, "unknown page", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		slogx.FromContext(r.Context()).Error("render page", "page", name, "err", err)
		http.Error(w, defaultErrorMessage, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (p *Pages) Login(w http.ResponseWriter, r *http.Request, v service.View) {
	p.render(w, r, http.StatusOK, pageLogin, page{Title: "Sign In - SSOP", View: v})
}

func (p *Pages) LoginTOTP(w http.ResponseWriter, r *http.Request, v service.View) {
	p.render(w, r, http.StatusOK, pageLoginTOTP, page{Title: "Two-Factor Authentication - SSOP", View: v})
}

func (p *Pages) Consent(w http.ResponseWriter, r *http.Request, v service.View) {
	p.render(w, r, http.StatusOK, pageConsent, page{Title: "Authorize Application - SSOP", View: v})
}

func (p *Pages) Dashboard(w http.ResponseWriter, r *http.Request, u domain.User) {
	p.render(w, r, http.StatusOK, pageDashboard, page{Title: "SSOP - " + u.Username, User: u})
}

// Error renders the error page. An empty message falls back to a generic
// one.
func (p *Pages) Error(w http.ResponseWriter, r *http.Request, status int, message, details string) {
	if message == "" {
		message = defaultErrorMessage
	}
	p.render(w, r, status, pageError, page{Title: "Error - SSOP", Message: message, Details: details})
}
