package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"invoicer/internal/core"
	"invoicer/internal/storage"
)

// execute runs the root command against dbPath and returns stdout.
func execute(t *testing.T, dbPath, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("AMQP_URL", "")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--db", dbPath}, args...))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func openRepo(t *testing.T, dbPath string) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestUserAdd(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ctl.db")

	out, err := execute(t, dbPath, "correct horse\n", "user", "add", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "User alice created")

	repo := openRepo(t, dbPath)
	user, err := repo.GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct horse")))

	_, err = execute(t, dbPath, "another password\n", "user", "add", "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestUserAddRejectsShortPassword(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ctl.db")

	_, err := execute(t, dbPath, "short\n", "user", "add", "bob")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 8")

	_, err = execute(t, dbPath, "", "user", "add", "bob")
	require.Error(t, err)
}

func TestMigrateUpDownVersion(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "ctl.db")

	out, err := execute(t, dbPath, "", "migrate", "version")
	require.NoError(t, err)
	assert.Equal(t, "version 0\n", out)

	out, err = execute(t, dbPath, "", "migrate", "up")
	require.NoError(t, err)
	assert.Equal(t, "version 2\n", out)

	out, err = execute(t, dbPath, "", "migrate", "down")
	require.NoError(t, err)
	assert.Equal(t, "version 1\n", out)

	_, err = execute(t, dbPath, "", "migrate", "down", "--steps", "0")
	require.Error(t, err)
}

func TestInvoicePDF(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "ctl.db")
	repo := openRepo(t, dbPath)

	inv := core.Invoice{
		UserID:        1,
		ClientName:    "Acme",
		InvoiceNumber: "INV-7",
		DueDate:       time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		LineItems: []core.LineItem{
			{Description: "Design", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.NewFromInt(40)},
		},
	}
	inv.Normalize()
	created, err := repo.CreateInvoice(context.Background(), inv)
	require.NoError(t, err)

	target := filepath.Join(dir, "out.pdf")
	out, err := execute(t, dbPath, "", "invoice", "pdf", strconv.FormatInt(created.ID, 10), "-o", target)
	require.NoError(t, err)
	assert.Equal(t, target+"\n", out)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	_, err = execute(t, dbPath, "", "invoice", "pdf", "999", "-o", filepath.Join(dir, "missing.pdf"))
	require.ErrorIs(t, err, core.ErrNotFound)
	assert.NoFileExists(t, filepath.Join(dir, "missing.pdf"))

	_, err = execute(t, dbPath, "", "invoice", "pdf", "abc")
	require.Error(t, err)
}

func TestExpensesExport(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "ctl.db")
	repo := openRepo(t, dbPath)

	_, err := repo.CreateExpense(context.Background(), core.Expense{
		UserID:      4,
		Description: "Printer paper",
		Amount:      decimal.RequireFromString("12.50"),
		Category:    "Office Supplies",
		Date:        time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	target := filepath.Join(dir, "expenses.xlsx")
	_, err = execute(t, dbPath, "", "expenses", "export", "4", "-o", target)
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("PK")), "xlsx is a zip archive")
}

func TestSyncRequeueNeedsAMQP(t *testing.T) {
	_, err := execute(t, filepath.Join(t.TempDir(), "ctl.db"), "", "sync", "requeue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AMQP_URL")
}
