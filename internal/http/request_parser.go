// Package http provides the JSON API server and its handlers.
//
// This file implements utilities for parsing and validating request data:
// JSON bodies, path identifiers and the conversion of request payloads
// into domain values.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"invoicer/internal/core"
)

const maxJSONBody = 1 << 20

// decodeJSON reads a single JSON object into dst. Unknown fields are
// accepted so clients may echo computed values back.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return &requestError{status: http.StatusRequestEntityTooLarge, msg: "request body too large"}
		case errors.Is(err, io.EOF):
			return badRequest("request body is empty")
		default:
			return badRequest("malformed JSON: " + err.Error())
		}
	}
	if dec.More() {
		return badRequest("malformed JSON: unexpected data after object")
	}
	return nil
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid " + name + ": " + strconv.Quote(raw))
	}
	return id, nil
}

// sanitizeInput drops control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

type lineItemRequest struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

type invoiceRequest struct {
	UserID        int64             `json:"userId"`
	ClientName    string            `json:"clientName"`
	InvoiceNumber string            `json:"invoiceNumber"`
	Description   string            `json:"description"`
	Status        string            `json:"status"`
	DueDate       string            `json:"dueDate"`
	Template      string            `json:"template"`
	TaxRate       decimal.Decimal   `json:"taxRate"`
	LineItems     []lineItemRequest `json:"lineItems"`
}

// toInvoice converts the payload. Status, template and date are parsed
// here so their errors name the offending field; everything else is left
// to Invoice.Validate.
func (req invoiceRequest) toInvoice() (core.Invoice, error) {
	inv := core.Invoice{
		UserID:        req.UserID,
		ClientName:    sanitizeInput(req.ClientName),
		InvoiceNumber: sanitizeInput(req.InvoiceNumber),
		Description:   sanitizeInput(req.Description),
		TaxRate:       req.TaxRate,
	}

	if req.Status != "" {
		st, err := core.ParseInvoiceStatus(req.Status)
		if err != nil {
			return core.Invoice{}, core.Invalid("status", err)
		}
		inv.Status = st
	}

	tmpl, err := core.ParseTemplate(req.Template)
	if err != nil {
		return core.Invoice{}, core.Invalid("template", err)
	}
	inv.Template = tmpl

	if strings.TrimSpace(req.DueDate) != "" {
		due, err := core.ParseDate(req.DueDate)
		if err != nil {
			return core.Invoice{}, core.Invalid("dueDate", err)
		}
		inv.DueDate = due
	}

	inv.LineItems = make([]core.LineItem, 0, len(req.LineItems))
	for _, li := range req.LineItems {
		inv.LineItems = append(inv.LineItems, core.LineItem{
			Description: sanitizeInput(li.Description),
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
		})
	}
	return inv, nil
}

type statusRequest struct {
	Status string `json:"status"`
}

type descriptionRequest struct {
	ClientName string          `json:"clientName"`
	Amount     decimal.Decimal `json:"amount"`
	Services   []string        `json:"services"`
}

type expenseRequest struct {
	UserID      int64           `json:"userId"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	SubCategory string          `json:"subCategory"`
	Date        string          `json:"date"`
}

func (req expenseRequest) toExpense() (core.Expense, error) {
	e := core.Expense{
		UserID:      req.UserID,
		Description: sanitizeInput(req.Description),
		Amount:      req.Amount,
		Category:    sanitizeInput(req.Category),
		SubCategory: sanitizeInput(req.SubCategory),
	}
	if strings.TrimSpace(req.Date) != "" {
		d, err := core.ParseDate(req.Date)
		if err != nil {
			return core.Expense{}, core.Invalid("date", err)
		}
		e.Date = d
	}
	return e, nil
}

type categorizeRequest struct {
	Description string `json:"description"`
}

type settingsRequest struct {
	UserID       int64  `json:"userId"`
	BusinessName string `json:"businessName"`
	Address      string `json:"address"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zipCode"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Logo         string `json:"logo"`
}

func (req settingsRequest) toSettings() core.BusinessSettings {
	return core.BusinessSettings{
		UserID:       req.UserID,
		BusinessName: sanitizeInput(req.BusinessName),
		Address:      sanitizeInput(req.Address),
		City:         sanitizeInput(req.City),
		State:        sanitizeInput(req.State),
		ZipCode:      sanitizeInput(req.ZipCode),
		Phone:        sanitizeInput(req.Phone),
		Email:        sanitizeInput(req.Email),
		Logo:         sanitizeInput(req.Logo),
	}
}
