package sheets

import (
	"context"
	"strconv"

	"invoicer/internal/core"
)

// Ports for outbound adapters.
type (
	InvoiceExporter interface {
		AppendInvoice(ctx context.Context, inv core.Invoice) (rowRef string, err error)
	}

	ExpenseExporter interface {
		AppendExpense(ctx context.Context, e core.Expense) (rowRef string, err error)
	}

	// RowClearer blanks a previously exported row. An empty ref is a no-op.
	RowClearer interface {
		ClearRow(ctx context.Context, rowRef string) error
	}

	// Exporter is everything the sync worker needs from a spreadsheet backend.
	Exporter interface {
		InvoiceExporter
		ExpenseExporter
		RowClearer
	}
)

// InvoiceHeader names the columns written by InvoiceRow.
var InvoiceHeader = []string{"ID", "Invoice Number", "Client", "Status", "Due Date", "Subtotal", "Tax", "Total", "Created"}

// ExpenseHeader names the columns written by ExpenseRow.
var ExpenseHeader = []string{"ID", "Date", "Description", "Amount", "Category", "Sub Category", "User"}

// InvoiceRow flattens an invoice into one spreadsheet row.
func InvoiceRow(inv core.Invoice) []any {
	return []any{
		strconv.FormatInt(inv.ID, 10),
		inv.InvoiceNumber,
		inv.ClientName,
		string(inv.Status),
		inv.DueDate.Format("2006-01-02"),
		core.FormatMoney(inv.Subtotal()),
		core.FormatMoney(inv.Tax()),
		core.FormatMoney(inv.Total()),
		inv.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
	}
}

// ExpenseRow flattens an expense into one spreadsheet row.
func ExpenseRow(e core.Expense) []any {
	return []any{
		strconv.FormatInt(e.ID, 10),
		e.Date.Format("2006-01-02"),
		e.Description,
		core.FormatMoney(e.Amount),
		e.Category,
		e.SubCategory,
		strconv.FormatInt(e.UserID, 10),
	}
}
