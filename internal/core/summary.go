package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// StatusTotal aggregates invoices sharing a status.
type StatusTotal struct {
	Status InvoiceStatus
	Count  int
	Amount decimal.Decimal
}

// Summary is the dashboard read model for one user.
type Summary struct {
	UserID             int64
	InvoiceCount       int
	ByStatus           []StatusTotal
	Outstanding        decimal.Decimal // pending + overdue
	Paid               decimal.Decimal
	ExpenseCount       int
	ExpenseTotal       decimal.Decimal
	ExpensesByCategory []CategoryAmount
	RecentInvoices     []Invoice
	RecentExpenses     []Expense
}

const recentLimit = 5

// Summarize aggregates a user's invoices and expenses. Inputs are not modified.
func Summarize(userID int64, invoices []Invoice, expenses []Expense) Summary {
	s := Summary{
		UserID:       userID,
		InvoiceCount: len(invoices),
		ExpenseCount: len(expenses),
		Outstanding:  decimal.Zero,
		Paid:         decimal.Zero,
		ExpenseTotal: decimal.Zero,
	}

	byStatus := map[InvoiceStatus]*StatusTotal{
		StatusPending: {Status: StatusPending, Amount: decimal.Zero},
		StatusPaid:    {Status: StatusPaid, Amount: decimal.Zero},
		StatusOverdue: {Status: StatusOverdue, Amount: decimal.Zero},
	}
	for _, inv := range invoices {
		st, ok := byStatus[inv.Status]
		if !ok {
			continue
		}
		total := inv.Total()
		st.Count++
		st.Amount = st.Amount.Add(total)
		if inv.Status == StatusPaid {
			s.Paid = s.Paid.Add(total)
		} else {
			s.Outstanding = s.Outstanding.Add(total)
		}
	}
	for _, status := range []InvoiceStatus{StatusPending, StatusPaid, StatusOverdue} {
		s.ByStatus = append(s.ByStatus, *byStatus[status])
	}

	cats := map[string]decimal.Decimal{}
	for _, e := range expenses {
		s.ExpenseTotal = s.ExpenseTotal.Add(e.Amount)
		name := e.Category
		if name == "" {
			name = FallbackCategory
		}
		cats[name] = cats[name].Add(e.Amount)
	}
	for name, amt := range cats {
		s.ExpensesByCategory = append(s.ExpensesByCategory, CategoryAmount{Name: name, Amount: amt})
	}
	sort.Slice(s.ExpensesByCategory, func(i, j int) bool {
		a, b := s.ExpensesByCategory[i], s.ExpensesByCategory[j]
		if !a.Amount.Equal(b.Amount) {
			return a.Amount.GreaterThan(b.Amount)
		}
		return a.Name < b.Name
	})

	s.RecentInvoices = recentInvoices(invoices)
	s.RecentExpenses = recentExpenses(expenses)
	return s
}

func recentInvoices(in []Invoice) []Invoice {
	out := make([]Invoice, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > recentLimit {
		out = out[:recentLimit]
	}
	return out
}

func recentExpenses(in []Expense) []Expense {
	out := make([]Expense, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if len(out) > recentLimit {
		out = out[:recentLimit]
	}
	return out
}
