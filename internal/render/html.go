package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"invoicer/internal/core"
	"invoicer/web"
)

// HTMLRenderer renders the browser preview of an invoice, one template per
// visual variant.
type HTMLRenderer struct {
	templates *template.Template
}

func NewHTMLRenderer() (*HTMLRenderer, error) {
	t, err := template.New("").Funcs(template.FuncMap{
		"accent": func(c RGB) template.CSS { return template.CSS(c.Hex()) },
	}).ParseFS(web.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse invoice templates: %w", err)
	}
	return &HTMLRenderer{templates: t}, nil
}

func templateName(t core.Template) string {
	return "invoice_" + string(t) + ".html"
}

// Render writes the complete HTML page. Output is buffered so a failing
// template never leaves a half-written response.
func (r *HTMLRenderer) Render(w io.Writer, v InvoiceView) error {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, templateName(v.Template), v); err != nil {
		return fmt.Errorf("render %s: %w", templateName(v.Template), err)
	}
	_, err := buf.WriteTo(w)
	return err
}
