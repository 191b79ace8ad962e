package render

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/go-pdf/fpdf"

	"invoicer/internal/core"
)

// Column x positions and widths in millimetres on an A4 page.
const (
	marginLeft = 20.0
	colDesc    = 20.0
	colQty     = 120.0
	colRate    = 140.0
	colAmount  = 170.0
	descWidth  = 95.0
	moneyWidth = 25.0
	lineHeight = 7.0
	footerY    = 280.0
	pageBreakY = 260.0
)

// WritePDF lays the invoice out on A4 and writes the document to w.
func WritePDF(w io.Writer, v InvoiceView) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginLeft, 15, marginLeft)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	accent := v.Accent

	// Header
	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetTextColor(accent.R, accent.G, accent.B)
	pdf.SetXY(0, 12)
	pdf.CellFormat(210, 12, "INVOICE", "", 1, "C", false, 0, "")
	pdf.SetDrawColor(accent.R, accent.G, accent.B)
	pdf.SetLineWidth(0.6)
	pdf.Line(marginLeft, 27, 210-marginLeft, 27)

	// Invoice details
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(0, 0, 0)
	pdf.Text(marginLeft, 38, tr("Invoice #: "+v.Number))
	pdf.Text(marginLeft, 45, tr("Date: "+v.IssueDate))
	pdf.Text(marginLeft, 52, tr("Due Date: "+v.DueDate))
	pdf.Text(colRate, 38, tr("Status: "+v.Status))

	y := 66.0
	if v.From != nil {
		y = writeParty(pdf, tr, accent, colDesc, y, "From:", []string{
			v.From.Name, v.From.Address, v.From.City, v.From.Phone, v.From.Email,
		})
		y += 4
	}
	y = writeParty(pdf, tr, accent, colDesc, y, "Bill To:", []string{v.ClientName})

	if v.Description != "" {
		y += 4
		pdf.SetFont("Helvetica", "I", 10)
		pdf.SetXY(marginLeft, y)
		pdf.MultiCell(210-2*marginLeft, 5, tr(v.Description), "", "L", false)
		y = pdf.GetY()
	}

	// Line items table
	y += 8
	y = writeTableHeader(pdf, accent, y)
	pdf.SetFont("Helvetica", "", 11)
	for _, it := range v.Items {
		lines := pdf.SplitLines([]byte(tr(it.Description)), descWidth)
		if len(lines) == 0 {
			lines = [][]byte{{}}
		}
		rowHeight := lineHeight * float64(len(lines))
		if y+rowHeight > pageBreakY {
			writeFooter(pdf, tr, v.Footer)
			pdf.AddPage()
			y = writeTableHeader(pdf, accent, 20)
			pdf.SetFont("Helvetica", "", 11)
		}
		for i, line := range lines {
			pdf.Text(colDesc, y+float64(i)*lineHeight, string(line))
		}
		pdf.Text(colQty, y, it.Quantity)
		rightText(pdf, colRate, y, tr(it.Rate))
		rightText(pdf, colAmount, y, tr(it.Amount))
		y += rowHeight
	}

	// Totals
	if y+3*lineHeight+10 > pageBreakY {
		writeFooter(pdf, tr, v.Footer)
		pdf.AddPage()
		y = 20
	}
	y += 6
	pdf.Text(colRate-10, y, "Subtotal:")
	rightText(pdf, colAmount, y, tr(v.Subtotal))
	y += lineHeight
	pdf.Text(colRate-10, y, tr(v.TaxLabel+":"))
	rightText(pdf, colAmount, y, tr(v.Tax))
	y += lineHeight
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(accent.R, accent.G, accent.B)
	pdf.Text(colRate-10, y, "Total:")
	rightText(pdf, colAmount, y, tr(v.Total))

	writeFooter(pdf, tr, v.Footer)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func writeParty(pdf *fpdf.Fpdf, tr func(string) string, accent RGB, x, y float64, title string, lines []string) float64 {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(accent.R, accent.G, accent.B)
	pdf.Text(x, y, title)
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(0, 0, 0)
	for _, l := range lines {
		if l == "" {
			continue
		}
		y += 6
		pdf.Text(x, y, tr(l))
	}
	return y + 6
}

func writeTableHeader(pdf *fpdf.Fpdf, accent RGB, y float64) float64 {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(accent.R, accent.G, accent.B)
	pdf.Text(colDesc, y, "Description")
	pdf.Text(colQty, y, "Qty")
	pdf.Text(colRate, y, "Rate")
	pdf.Text(colAmount, y, "Amount")
	pdf.SetDrawColor(accent.R, accent.G, accent.B)
	pdf.SetLineWidth(0.3)
	pdf.Line(marginLeft, y+2, 210-marginLeft, y+2)
	pdf.SetTextColor(0, 0, 0)
	return y + 9
}

// rightText prints s right-aligned inside the money column starting at x.
func rightText(pdf *fpdf.Fpdf, x, y float64, s string) {
	pdf.Text(x+moneyWidth-pdf.GetStringWidth(s), y, s)
}

func writeFooter(pdf *fpdf.Fpdf, tr func(string) string, lines []string) {
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(128, 128, 128)
	for i, l := range lines {
		pdf.SetXY(0, footerY+float64(i)*6-4)
		pdf.CellFormat(210, 6, tr(l), "", 0, "C", false, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName is the download name for an invoice PDF, e.g. "invoice-INV-001.pdf".
func FileName(inv core.Invoice) string {
	name := strings.Trim(unsafeFileChars.ReplaceAllString(inv.InvoiceNumber, "-"), "-.")
	if name == "" {
		return "invoice.pdf"
	}
	return "invoice-" + name + ".pdf"
}
