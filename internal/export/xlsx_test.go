package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"invoicer/internal/core"
)

func TestWriteExpensesXLSX(t *testing.T) {
	expenses := []core.Expense{
		{Description: "Printer paper", Amount: decimal.RequireFromString("12.50"), Category: "Office Supplies", SubCategory: "Paper", Date: time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)},
		{Description: "Train", Amount: decimal.RequireFromString("30"), Category: "Travel", Date: time.Date(2025, 2, 4, 0, 0, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteExpensesXLSX(&buf, expenses))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(expensesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, expenseHeaders, rows[0])
	assert.Equal(t, "Printer paper", rows[1][1])
	assert.Equal(t, "2025-02-04", rows[2][0])
	assert.Equal(t, "Total", rows[3][0])

	raw, err := f.GetCellValue(expensesSheet, "E4", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "42.5", raw)
}

func TestWriteExpensesXLSXEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExpensesXLSX(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(expensesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Total", rows[1][0])
}
