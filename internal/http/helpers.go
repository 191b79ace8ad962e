package http

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"invoicer/internal/core"
)

// money serializes as a fixed two-decimal string, e.g. "25.00".
type money decimal.Decimal

func (m money) MarshalJSON() ([]byte, error) {
	return json.Marshal(core.FormatMoney(decimal.Decimal(m)))
}

type lineItemResponse struct {
	ID          int64  `json:"id"`
	InvoiceID   int64  `json:"invoiceId"`
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   money  `json:"unitPrice"`
	Amount      money  `json:"amount"`
}

type invoiceResponse struct {
	ID            int64              `json:"id"`
	UserID        int64              `json:"userId"`
	ClientName    string             `json:"clientName"`
	InvoiceNumber string             `json:"invoiceNumber"`
	Description   string             `json:"description"`
	Status        core.InvoiceStatus `json:"status"`
	DueDate       time.Time          `json:"dueDate"`
	Template      core.Template      `json:"template"`
	TaxRate       string             `json:"taxRate"`
	CreatedAt     time.Time          `json:"createdAt"`
	LineItems     []lineItemResponse `json:"lineItems"`
	Subtotal      money              `json:"subtotal"`
	Tax           money              `json:"tax"`
	Total         money              `json:"total"`
}

func newInvoiceResponse(inv core.Invoice) invoiceResponse {
	out := invoiceResponse{
		ID:            inv.ID,
		UserID:        inv.UserID,
		ClientName:    inv.ClientName,
		InvoiceNumber: inv.InvoiceNumber,
		Description:   inv.Description,
		Status:        inv.Status,
		DueDate:       inv.DueDate,
		Template:      inv.Template,
		TaxRate:       inv.TaxRate.String(),
		CreatedAt:     inv.CreatedAt,
		LineItems:     make([]lineItemResponse, 0, len(inv.LineItems)),
		Subtotal:      money(inv.Subtotal()),
		Tax:           money(inv.Tax()),
		Total:         money(inv.Total()),
	}
	for _, li := range inv.LineItems {
		out.LineItems = append(out.LineItems, lineItemResponse{
			ID:          li.ID,
			InvoiceID:   li.InvoiceID,
			Description: li.Description,
			Quantity:    li.Quantity.String(),
			UnitPrice:   money(li.UnitPrice),
			Amount:      money(li.Amount),
		})
	}
	return out
}

func newInvoiceList(in []core.Invoice) []invoiceResponse {
	out := make([]invoiceResponse, 0, len(in))
	for _, inv := range in {
		out = append(out, newInvoiceResponse(inv))
	}
	return out
}

type expenseResponse struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	Description string    `json:"description"`
	Amount      money     `json:"amount"`
	Category    string    `json:"category"`
	SubCategory string    `json:"subCategory"`
	Date        time.Time `json:"date"`
	CreatedAt   time.Time `json:"createdAt"`
}

func newExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		UserID:      e.UserID,
		Description: e.Description,
		Amount:      money(e.Amount),
		Category:    e.Category,
		SubCategory: e.SubCategory,
		Date:        e.Date,
		CreatedAt:   e.CreatedAt,
	}
}

func newExpenseList(in []core.Expense) []expenseResponse {
	out := make([]expenseResponse, 0, len(in))
	for _, e := range in {
		out = append(out, newExpenseResponse(e))
	}
	return out
}

type settingsResponse struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"userId"`
	BusinessName string    `json:"businessName"`
	Address      string    `json:"address"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	ZipCode      string    `json:"zipCode"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	Logo         string    `json:"logo"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func newSettingsResponse(b core.BusinessSettings) settingsResponse {
	return settingsResponse{
		ID:           b.ID,
		UserID:       b.UserID,
		BusinessName: b.BusinessName,
		Address:      b.Address,
		City:         b.City,
		State:        b.State,
		ZipCode:      b.ZipCode,
		Phone:        b.Phone,
		Email:        b.Email,
		Logo:         b.Logo,
		UpdatedAt:    b.UpdatedAt,
	}
}

type categorizationResponse struct {
	MainCategory string  `json:"mainCategory"`
	SubCategory  string  `json:"subCategory"`
	Confidence   float64 `json:"confidence"`
	Explanation  string  `json:"explanation"`
}

func newCategorizationResponse(c core.Categorization) categorizationResponse {
	return categorizationResponse{
		MainCategory: c.MainCategory,
		SubCategory:  c.SubCategory,
		Confidence:   c.Confidence,
		Explanation:  c.Explanation,
	}
}

type statusTotalResponse struct {
	Status core.InvoiceStatus `json:"status"`
	Count  int                `json:"count"`
	Amount money              `json:"amount"`
}

type categoryAmountResponse struct {
	Name   string `json:"name"`
	Amount money  `json:"amount"`
}

type summaryResponse struct {
	UserID             int64                    `json:"userId"`
	InvoiceCount       int                      `json:"invoiceCount"`
	ByStatus           []statusTotalResponse    `json:"byStatus"`
	Outstanding        money                    `json:"outstanding"`
	Paid               money                    `json:"paid"`
	ExpenseCount       int                      `json:"expenseCount"`
	ExpenseTotal       money                    `json:"expenseTotal"`
	ExpensesByCategory []categoryAmountResponse `json:"expensesByCategory"`
	RecentInvoices     []invoiceResponse        `json:"recentInvoices"`
	RecentExpenses     []expenseResponse        `json:"recentExpenses"`
}

func newSummaryResponse(s core.Summary) summaryResponse {
	out := summaryResponse{
		UserID:             s.UserID,
		InvoiceCount:       s.InvoiceCount,
		ByStatus:           make([]statusTotalResponse, 0, len(s.ByStatus)),
		Outstanding:        money(s.Outstanding),
		Paid:               money(s.Paid),
		ExpenseCount:       s.ExpenseCount,
		ExpenseTotal:       money(s.ExpenseTotal),
		ExpensesByCategory: make([]categoryAmountResponse, 0, len(s.ExpensesByCategory)),
		RecentInvoices:     newInvoiceList(s.RecentInvoices),
		RecentExpenses:     newExpenseList(s.RecentExpenses),
	}
	for _, st := range s.ByStatus {
		out.ByStatus = append(out.ByStatus, statusTotalResponse{Status: st.Status, Count: st.Count, Amount: money(st.Amount)})
	}
	for _, c := range s.ExpensesByCategory {
		out.ExpensesByCategory = append(out.ExpensesByCategory, categoryAmountResponse{Name: c.Name, Amount: money(c.Amount)})
	}
	return out
}
