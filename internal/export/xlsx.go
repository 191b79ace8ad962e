// Package export writes expense reports as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"invoicer/internal/core"
)

const expensesSheet = "Expenses"

// XLSXContentType is the media type of the written workbook.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var expenseHeaders = []string{"Date", "Description", "Category", "Sub Category", "Amount"}

// WriteExpensesXLSX writes one row per expense plus a header and a total row.
func WriteExpensesXLSX(w io.Writer, expenses []core.Expense) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", expensesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range expenseHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(expensesSheet, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	if err := f.SetCellStyle(expensesSheet, "A1", "E1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	total := decimal.Zero
	for idx, e := range expenses {
		row := idx + 2
		amount, _ := e.Amount.Float64()
		values := []any{e.Date.Format("2006-01-02"), e.Description, e.Category, e.SubCategory, amount}
		if err := f.SetSheetRow(expensesSheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
		total = total.Add(e.Amount)
	}

	totalRow := len(expenses) + 2
	totalValue, _ := total.Float64()
	if err := f.SetSheetRow(expensesSheet, fmt.Sprintf("A%d", totalRow), &[]any{"Total", "", "", "", totalValue}); err != nil {
		return fmt.Errorf("write total: %w", err)
	}
	if err := f.SetCellStyle(expensesSheet, fmt.Sprintf("A%d", totalRow), fmt.Sprintf("E%d", totalRow), bold); err != nil {
		return fmt.Errorf("style total: %w", err)
	}
	if err := f.SetCellStyle(expensesSheet, "E2", fmt.Sprintf("E%d", totalRow), money); err != nil {
		return fmt.Errorf("style amounts: %w", err)
	}

	f.SetColWidth(expensesSheet, "A", "A", 12)
	f.SetColWidth(expensesSheet, "B", "B", 40)
	f.SetColWidth(expensesSheet, "C", "D", 20)
	f.SetColWidth(expensesSheet, "E", "E", 12)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
