// Package render turns an invoice into an HTML preview or a PDF document.
package render

import (
	"strings"
	"time"

	"invoicer/internal/core"
)

// RGB is an accent color used by a template.
type RGB struct{ R, G, B int }

// Hex returns the color as #rrggbb for stylesheets.
func (c RGB) Hex() string {
	const digits = "0123456789abcdef"
	b := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, v := range []int{c.R, c.G, c.B} {
		b[1+i*2] = digits[v>>4&0xf]
		b[2+i*2] = digits[v&0xf]
	}
	return string(b)
}

var accents = map[core.Template]RGB{
	core.TemplateModern:       {44, 82, 130},
	core.TemplateProfessional: {33, 37, 41},
	core.TemplateCreative:     {128, 60, 160},
}

// AccentFor returns the accent color of t, the modern one when unknown.
func AccentFor(t core.Template) RGB {
	if c, ok := accents[t]; ok {
		return c
	}
	return accents[core.TemplateModern]
}

type LineView struct {
	Description string
	Quantity    string
	Rate        string
	Amount      string
}

// FromView is the issuing business block, present only when settings exist.
type FromView struct {
	Name    string
	Address string
	City    string // "City, ST 12345"
	Phone   string
	Email   string
	Logo    string
}

// InvoiceView is the display model shared by the HTML and PDF renderers.
// Money is already formatted.
type InvoiceView struct {
	Template    core.Template
	Accent      RGB
	Number      string
	ClientName  string
	Description string
	Status      string
	IssueDate   string
	DueDate     string
	Items       []LineView
	Subtotal    string
	TaxLabel    string
	Tax         string
	Total       string
	From        *FromView
	Footer      []string
}

const dateLayout = "Jan 2, 2006"

// Footer lines printed at the bottom of every invoice.
var Footer = []string{
	"Thank you for your business!",
	"Payment is due within 30 days of invoice date.",
}

func NewInvoiceView(inv core.Invoice, settings *core.BusinessSettings) InvoiceView {
	issued := inv.CreatedAt
	if issued.IsZero() {
		issued = time.Now()
	}
	tmpl, err := core.ParseTemplate(string(inv.Template))
	if err != nil {
		tmpl = core.TemplateModern
	}

	v := InvoiceView{
		Template:    tmpl,
		Accent:      AccentFor(tmpl),
		Number:      inv.InvoiceNumber,
		ClientName:  inv.ClientName,
		Description: inv.Description,
		Status:      strings.ToUpper(string(inv.Status)),
		IssueDate:   issued.Format(dateLayout),
		DueDate:     inv.DueDate.Format(dateLayout),
		Subtotal:    core.FormatCurrency(inv.Subtotal()),
		TaxLabel:    "Tax (" + inv.TaxRate.String() + "%)",
		Tax:         core.FormatCurrency(inv.Tax()),
		Total:       core.FormatCurrency(inv.Total()),
		Footer:      Footer,
	}
	for _, li := range inv.LineItems {
		v.Items = append(v.Items, LineView{
			Description: li.Description,
			Quantity:    li.Quantity.String(),
			Rate:        core.FormatCurrency(li.UnitPrice),
			Amount:      core.FormatCurrency(li.Amount),
		})
	}
	if settings != nil {
		v.From = &FromView{
			Name:    settings.BusinessName,
			Address: settings.Address,
			City:    strings.TrimSpace(settings.City + ", " + settings.State + " " + settings.ZipCode),
			Phone:   settings.Phone,
			Email:   settings.Email,
			Logo:    settings.Logo,
		}
	}
	return v
}
