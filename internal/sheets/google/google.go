// Package google exports invoices and expenses to a Google Sheets spreadsheet
// authenticated with a service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"invoicer/internal/core"
	applog "invoicer/internal/log"
	ports "invoicer/internal/sheets"
)

// Ensure interface conformance
var _ ports.Exporter = (*Client)(nil)

type Config struct {
	SpreadsheetID   string
	InvoicesSheet   string
	ExpensesSheet   string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	invoicesSheet string
	expensesSheet string
	logger        *applog.Logger
}

// New creates a Sheets client from service account credentials. Extra
// options are appended after the credentials, which lets tests point the
// client at a local endpoint.
func New(ctx context.Context, cfg Config, logger *applog.Logger, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if cfg.InvoicesSheet == "" {
		cfg.InvoicesSheet = "Invoices"
	}
	if cfg.ExpensesSheet == "" {
		cfg.ExpensesSheet = "Expenses"
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentSheets)

	if len(opts) == 0 {
		creds, err := loadCredentials(cfg)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
		logger.InfoContext(ctx, "Creating Google Sheets service with service account",
			"credentials_size", len(creds))
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		invoicesSheet: cfg.InvoicesSheet,
		expensesSheet: cfg.ExpensesSheet,
		logger:        logger,
	}, nil
}

func loadCredentials(cfg Config) ([]byte, error) {
	json := strings.TrimSpace(cfg.CredentialsJSON)
	file := strings.TrimSpace(cfg.CredentialsFile)
	if json == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	switch {
	case json != "":
		return []byte(json), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// NewHTTPClient returns a pooled HTTP client tuned for the Sheets API. Pass it
// with option.WithHTTPClient when the default transport is not enough.
func NewHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}

func (c *Client) AppendInvoice(ctx context.Context, inv core.Invoice) (string, error) {
	if err := inv.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	return c.writeRow(ctx, c.invoicesSheet, ports.InvoiceHeader, ports.InvoiceRow(inv))
}

func (c *Client) AppendExpense(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	return c.writeRow(ctx, c.expensesSheet, ports.ExpenseHeader, ports.ExpenseRow(e))
}

// ClearRow blanks the cells of a reference returned by an append.
func (c *Client) ClearRow(ctx context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, ref, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", ref, err)
	}
	c.logger.DebugContext(ctx, "Cleared sheet row", applog.FieldSheetsRef, ref)
	return nil
}

// writeRow finds the first row after the existing data in column A and
// writes values there. An empty sheet gets the header in row 1.
func (c *Client) writeRow(ctx context.Context, sheet string, header []string, row []any) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:A", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get sheet dimensions for %s: %w", sheet, err)
	}

	nextRow := len(resp.Values) + 1
	last := columnName(len(row))

	if nextRow == 1 {
		hdr := make([]any, len(header))
		for i, h := range header {
			hdr[i] = h
		}
		hdrRange := fmt.Sprintf("%s!A1:%s1", sheet, last)
		if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, hdrRange, &gsheet.ValueRange{Values: [][]any{hdr}}).
			ValueInputOption("RAW").Context(ctx).Do(); err != nil {
			return "", fmt.Errorf("failed to write header in sheet %s: %w", sheet, err)
		}
		nextRow = 2
	}

	ref := fmt.Sprintf("%s!A%d:%s%d", sheet, nextRow, last, nextRow)
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, ref, &gsheet.ValueRange{Values: [][]any{row}}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to update %s: %w", ref, err)
	}
	return ref, nil
}

// columnName converts a 1-based column index to its A1 letter form.
func columnName(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}
