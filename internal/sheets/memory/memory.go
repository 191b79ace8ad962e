// Package memory keeps exported rows in process. It backs the sync worker
// when no spreadsheet is configured and doubles as a test fake.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"invoicer/internal/core"
	ports "invoicer/internal/sheets"
)

var _ ports.Exporter = (*Store)(nil)

type Store struct {
	mu   sync.Mutex
	next int
	rows map[string][]any
}

func New() *Store {
	return &Store{rows: make(map[string][]any)}
}

// AppendInvoice stores the invoice row and returns a synthetic row reference.
func (s *Store) AppendInvoice(_ context.Context, inv core.Invoice) (string, error) {
	if err := inv.Validate(); err != nil {
		return "", err
	}
	return s.append("invoices", ports.InvoiceRow(inv)), nil
}

// AppendExpense stores the expense row and returns a synthetic row reference.
func (s *Store) AppendExpense(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	return s.append("expenses", ports.ExpenseRow(e)), nil
}

func (s *Store) ClearRow(_ context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, ref)
	return nil
}

// Row returns a copy of the stored row.
func (s *Store) Row(ref string) ([]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[ref]
	if !ok {
		return nil, false
	}
	return append([]any(nil), r...), true
}

// Refs lists the live row references in insertion order.
func (s *Store) Refs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.rows))
	for ref := range s.rows {
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool { return refSeq(out[i]) < refSeq(out[j]) })
	return out
}

func (s *Store) append(sheet string, row []any) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	ref := fmt.Sprintf("mem:%s:%d", sheet, s.next)
	s.rows[ref] = row
	return ref
}

func refSeq(ref string) int {
	n, _ := strconv.Atoi(ref[strings.LastIndex(ref, ":")+1:])
	return n
}
