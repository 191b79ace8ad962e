package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/internal/core"
)

func sampleInvoice(tmpl core.Template) core.Invoice {
	inv := core.Invoice{
		ID:            1,
		UserID:        1,
		ClientName:    "Acme & Sons",
		InvoiceNumber: "INV-042",
		Description:   "Spring retainer",
		Template:      tmpl,
		TaxRate:       decimal.NewFromInt(10),
		DueDate:       time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC),
		CreatedAt:     time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC),
		LineItems: []core.LineItem{
			{Description: "Design", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(10)},
			{Description: "Hosting", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(5)},
		},
	}
	inv.Normalize()
	return inv
}

func sampleSettings() *core.BusinessSettings {
	return &core.BusinessSettings{
		UserID:       1,
		BusinessName: "Studio Nord",
		Address:      "12 Harbor Rd",
		City:         "Portland",
		State:        "OR",
		ZipCode:      "97201",
		Email:        "hello@studionord.test",
	}
}

func TestNewInvoiceView(t *testing.T) {
	v := NewInvoiceView(sampleInvoice(core.TemplateModern), sampleSettings())

	assert.Equal(t, "$25.00", v.Subtotal)
	assert.Equal(t, "Tax (10%)", v.TaxLabel)
	assert.Equal(t, "$2.50", v.Tax)
	assert.Equal(t, "$27.50", v.Total)
	assert.Equal(t, "Apr 1, 2025", v.IssueDate)
	assert.Equal(t, "Apr 30, 2025", v.DueDate)
	assert.Equal(t, "PENDING", v.Status)
	require.Len(t, v.Items, 2)
	assert.Equal(t, LineView{Description: "Design", Quantity: "2", Rate: "$10.00", Amount: "$20.00"}, v.Items[0])
	require.NotNil(t, v.From)
	assert.Equal(t, "Portland, OR 97201", v.From.City)
	assert.Equal(t, Footer, v.Footer)
}

func TestNewInvoiceViewWithoutSettings(t *testing.T) {
	v := NewInvoiceView(sampleInvoice(""), nil)
	assert.Nil(t, v.From)
	assert.Equal(t, core.TemplateModern, v.Template)
}

func TestAccentHex(t *testing.T) {
	assert.Equal(t, "#2c5282", AccentFor(core.TemplateModern).Hex())
	assert.Equal(t, "#2c5282", AccentFor("bogus").Hex())
	assert.Equal(t, "#803ca0", AccentFor(core.TemplateCreative).Hex())
}

func TestHTMLRendererAllTemplates(t *testing.T) {
	r, err := NewHTMLRenderer()
	require.NoError(t, err)

	for _, tmpl := range []core.Template{core.TemplateModern, core.TemplateProfessional, core.TemplateCreative} {
		t.Run(string(tmpl), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, r.Render(&buf, NewInvoiceView(sampleInvoice(tmpl), sampleSettings())))
			out := buf.String()

			assert.Contains(t, out, "INV-042")
			assert.Contains(t, out, "Acme &amp; Sons")
			assert.Contains(t, out, "Studio Nord")
			assert.Contains(t, out, "$27.50")
			assert.Contains(t, out, "Thank you for your business!")
			assert.Contains(t, out, `class="`+string(tmpl)+`"`)
		})
	}
}

func TestHTMLRendererEscapes(t *testing.T) {
	r, err := NewHTMLRenderer()
	require.NoError(t, err)

	inv := sampleInvoice(core.TemplateModern)
	inv.ClientName = "<script>alert(1)</script>"
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, NewInvoiceView(inv, nil)))
	assert.NotContains(t, buf.String(), "<script>alert(1)</script>")
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, NewInvoiceView(sampleInvoice(core.TemplateProfessional), sampleSettings())))
	assert.True(t, strings.HasPrefix(buf.String(), "%PDF-"))
	assert.Greater(t, buf.Len(), 500)
}

func TestWritePDFManyItemsPaginates(t *testing.T) {
	inv := sampleInvoice(core.TemplateCreative)
	for i := 0; i < 60; i++ {
		inv.LineItems = append(inv.LineItems, core.LineItem{
			Description: "A fairly long description of consulting work that wraps onto a second line in the table",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.NewFromInt(1),
		})
	}
	inv.Normalize()

	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, NewInvoiceView(inv, nil)))
	assert.Greater(t, bytes.Count(buf.Bytes(), []byte("/Type /Page\n")), 1)
}

func TestFileName(t *testing.T) {
	tests := map[string]string{
		"INV-001":    "invoice-INV-001.pdf",
		"2025/03 #7": "invoice-2025-03-7.pdf",
		"../..":      "invoice.pdf",
		"":           "invoice.pdf",
	}
	for number, want := range tests {
		assert.Equal(t, want, FileName(core.Invoice{InvoiceNumber: number}), number)
	}
}
