package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending InvoiceStatus = "pending"
	StatusPaid    InvoiceStatus = "paid"
	StatusOverdue InvoiceStatus = "overdue"
)

const (
	TemplateModern       Template = "modern"
	TemplateProfessional Template = "professional"
	TemplateCreative     Template = "creative"
)

// FallbackCategory is assigned when an expense cannot be categorized.
const FallbackCategory = "Other"

type (
	InvoiceStatus string

	// Template selects the visual variant used to render an invoice.
	Template string

	User struct {
		ID           int64
		Username     string
		PasswordHash string
		CreatedAt    time.Time
	}

	LineItem struct {
		ID          int64
		InvoiceID   int64
		Description string
		Quantity    decimal.Decimal
		UnitPrice   decimal.Decimal
		Amount      decimal.Decimal
	}

	Invoice struct {
		ID            int64
		UserID        int64
		ClientName    string
		InvoiceNumber string
		Description   string
		Status        InvoiceStatus
		DueDate       time.Time
		Template      Template
		TaxRate       decimal.Decimal // percent, 0 when untaxed
		CreatedAt     time.Time
		LineItems     []LineItem

		// Sync bookkeeping, empty until the worker exported the row.
		SheetsRef string
	}

	Expense struct {
		ID          int64
		UserID      int64
		Description string
		Amount      decimal.Decimal
		Category    string
		SubCategory string
		Date        time.Time
		CreatedAt   time.Time

		SheetsRef string
	}

	BusinessSettings struct {
		ID           int64
		UserID       int64
		BusinessName string
		Address      string
		City         string
		State        string
		ZipCode      string
		Phone        string
		Email        string
		Logo         string
		UpdatedAt    time.Time
	}

	// Categorization is the outcome of classifying an expense description.
	Categorization struct {
		MainCategory string
		SubCategory  string
		Confidence   float64
		Explanation  string
	}
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrInvalidTemplate  = errors.New("invalid template")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyClientName  = errors.New("empty client name")
	ErrEmptyInvoiceNum  = errors.New("empty invoice number")
	ErrInvalidQuantity  = errors.New("quantity must be positive")
	ErrInvalidUnitPrice = errors.New("unit price must be positive")
	ErrInvalidTaxRate   = errors.New("tax rate must be between 0 and 100")
	ErrMissingUser      = errors.New("user id is required")
	ErrMissingBizField  = errors.New("required business field is empty")
)

// ValidationError collects field problems found while validating an entity.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

func (e *ValidationError) add(field string, err error) {
	e.Problems = append(e.Problems, field+": "+err.Error())
}

func (e *ValidationError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

// Invalid reports a single field problem as a *ValidationError.
func Invalid(field string, err error) error {
	ve := &ValidationError{}
	ve.add(field, err)
	return ve
}

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ParseInvoiceStatus accepts only the three lifecycle states, spelled
// exactly as stored.
func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	switch st := InvoiceStatus(s); st {
	case StatusPending, StatusPaid, StatusOverdue:
		return st, nil
	}
	return "", fmt.Errorf("%w %q: must be one of pending, paid, overdue", ErrInvalidStatus, s)
}

// ParseTemplate maps an empty name to the modern template.
func ParseTemplate(s string) (Template, error) {
	switch t := Template(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return TemplateModern, nil
	case TemplateModern, TemplateProfessional, TemplateCreative:
		return t, nil
	}
	return "", fmt.Errorf("%w %q: must be one of modern, professional, creative", ErrInvalidTemplate, s)
}

// ParseDate accepts YYYY-MM-DD and RFC 3339 timestamps.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w %q", ErrInvalidDate, s)
}

// DefaultLineItemDescription is used for line items submitted without one.
func DefaultLineItemDescription(clientName string) string {
	return "Professional services for " + clientName
}

// Normalize trims input, fills defaults and recomputes every line amount.
func (inv *Invoice) Normalize() {
	inv.ClientName = strings.TrimSpace(inv.ClientName)
	inv.InvoiceNumber = strings.TrimSpace(inv.InvoiceNumber)
	inv.Description = strings.TrimSpace(inv.Description)
	if inv.Status == "" {
		inv.Status = StatusPending
	}
	if inv.Template == "" {
		inv.Template = TemplateModern
	}
	for i := range inv.LineItems {
		li := &inv.LineItems[i]
		li.Description = strings.TrimSpace(li.Description)
		if li.Description == "" {
			li.Description = DefaultLineItemDescription(inv.ClientName)
		}
		li.Amount = LineAmount(li.Quantity, li.UnitPrice)
	}
}

func (inv Invoice) Validate() error {
	ve := &ValidationError{}
	if inv.UserID <= 0 {
		ve.add("userId", ErrMissingUser)
	}
	if inv.ClientName == "" {
		ve.add("clientName", ErrEmptyClientName)
	}
	if inv.InvoiceNumber == "" {
		ve.add("invoiceNumber", ErrEmptyInvoiceNum)
	}
	if _, err := ParseInvoiceStatus(string(inv.Status)); err != nil {
		ve.add("status", err)
	}
	if _, err := ParseTemplate(string(inv.Template)); err != nil {
		ve.add("template", err)
	}
	if inv.DueDate.IsZero() {
		ve.add("dueDate", ErrInvalidDate)
	}
	if inv.TaxRate.IsNegative() || inv.TaxRate.GreaterThan(decimal.NewFromInt(100)) {
		ve.add("taxRate", ErrInvalidTaxRate)
	}
	for i, li := range inv.LineItems {
		field := fmt.Sprintf("lineItems[%d]", i)
		if !li.Quantity.IsPositive() {
			ve.add(field+".quantity", ErrInvalidQuantity)
		}
		if !li.UnitPrice.IsPositive() {
			ve.add(field+".unitPrice", ErrInvalidUnitPrice)
		}
	}
	return ve.orNil()
}

// Subtotal is the sum of line amounts.
func (inv Invoice) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, li := range inv.LineItems {
		sum = sum.Add(li.Amount)
	}
	return sum
}

func (inv Invoice) Tax() decimal.Decimal {
	return inv.Subtotal().Mul(inv.TaxRate).Div(decimal.NewFromInt(100)).Round(2)
}

func (inv Invoice) Total() decimal.Decimal {
	return inv.Subtotal().Add(inv.Tax())
}

func (e *Expense) Normalize() {
	e.Description = strings.TrimSpace(e.Description)
	e.Category = strings.TrimSpace(e.Category)
	e.SubCategory = strings.TrimSpace(e.SubCategory)
	e.Amount = e.Amount.Round(2)
}

func (e Expense) Validate() error {
	ve := &ValidationError{}
	if e.UserID <= 0 {
		ve.add("userId", ErrMissingUser)
	}
	if e.Description == "" {
		ve.add("description", ErrEmptyDescription)
	} else if len(e.Description) > 500 {
		ve.add("description", errors.New("too long (max 500 characters)"))
	}
	if !e.Amount.IsPositive() {
		ve.add("amount", ErrInvalidAmount)
	}
	if e.Date.IsZero() {
		ve.add("date", ErrInvalidDate)
	}
	return ve.orNil()
}

func (b *BusinessSettings) Normalize() {
	for _, f := range []*string{&b.BusinessName, &b.Address, &b.City, &b.State, &b.ZipCode, &b.Phone, &b.Email, &b.Logo} {
		*f = strings.TrimSpace(*f)
	}
}

func (b BusinessSettings) Validate() error {
	ve := &ValidationError{}
	if b.UserID <= 0 {
		ve.add("userId", ErrMissingUser)
	}
	required := []struct {
		name, value string
	}{
		{"businessName", b.BusinessName},
		{"address", b.Address},
		{"city", b.City},
		{"state", b.State},
		{"zipCode", b.ZipCode},
	}
	for _, r := range required {
		if r.value == "" {
			ve.add(r.name, ErrMissingBizField)
		}
	}
	if b.Email != "" && !strings.Contains(b.Email, "@") {
		ve.add("email", errors.New("invalid email address"))
	}
	return ve.orNil()
}

// FallbackCategorization is returned whenever categorization is unavailable.
func FallbackCategorization(reason string) Categorization {
	return Categorization{
		MainCategory: FallbackCategory,
		Confidence:   0,
		Explanation:  reason,
	}
}
