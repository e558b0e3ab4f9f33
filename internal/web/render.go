// Package web renders the server-side HTML pages. The templates are
// intentionally plain; they exist to surface flashes, validation errors,
// and the signed-in user.
package web

import (
	"bytes"
	"embed"
	"html/template"
	"log"
	"net/http"

	"github.com/astralpath/interstellar/internal/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// FieldError is one validation failure attached to a form field. The order
// of a slice of FieldErrors follows the order the fields were validated in.
type FieldError struct {
	Field   string
	Message string
}

// PageData is the view model every template receives.
type PageData struct {
	User        *models.User
	SuccessMsgs []string
	ErrorMsgs   []string
	Errors      []FieldError
	Form        map[string]string
	CSRFToken   string
}

type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the named page. Templates are executed into a buffer first
// so a mid-render failure produces a clean 500 instead of a half page.
func (rd *Renderer) Render(w http.ResponseWriter, status int, name string, data PageData) {
	if data.SuccessMsgs == nil {
		data.SuccessMsgs = []string{}
	}
	if data.ErrorMsgs == nil {
		data.ErrorMsgs = []string{}
	}
	if data.Errors == nil {
		data.Errors = []FieldError{}
	}

	var buf bytes.Buffer
	if err := rd.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		log.Printf("render %s: %v", name, err)
		http.Error(w, "Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
