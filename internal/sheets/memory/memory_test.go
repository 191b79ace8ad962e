package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"invoicer/internal/core"
)

func TestStoreAppendAndClear(t *testing.T) {
	s := New()
	ctx := context.Background()

	inv := core.Invoice{
		ID:            7,
		UserID:        1,
		ClientName:    "Acme",
		InvoiceNumber: "INV-7",
		DueDate:       time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		LineItems: []core.LineItem{
			{Description: "Work", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(50)},
		},
	}
	inv.Normalize()

	invRef, err := s.AppendInvoice(ctx, inv)
	if err != nil {
		t.Fatalf("append invoice: %v", err)
	}
	if invRef != "mem:invoices:1" {
		t.Fatalf("unexpected ref %q", invRef)
	}
	row, ok := s.Row(invRef)
	if !ok || row[1] != "INV-7" || row[7] != "100.00" {
		t.Fatalf("unexpected invoice row: %v", row)
	}

	expRef, err := s.AppendExpense(ctx, core.Expense{
		ID:          3,
		UserID:      1,
		Description: "Paper",
		Amount:      decimal.RequireFromString("4.5"),
		Category:    "Office Supplies",
		Date:        time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("append expense: %v", err)
	}
	if got := s.Refs(); len(got) != 2 || got[0] != invRef || got[1] != expRef {
		t.Fatalf("unexpected refs: %v", got)
	}

	if err := s.ClearRow(ctx, invRef); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok := s.Row(invRef); ok {
		t.Fatal("row still present after clear")
	}
	if err := s.ClearRow(ctx, ""); err != nil {
		t.Fatalf("empty ref should be a no-op: %v", err)
	}
}

func TestStoreRejectsInvalid(t *testing.T) {
	s := New()
	if _, err := s.AppendExpense(context.Background(), core.Expense{}); err == nil {
		t.Fatal("expected validation error")
	}
	if len(s.Refs()) != 0 {
		t.Fatal("invalid expense must not be stored")
	}
}
