package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"invoicer/internal/export"
	applog "invoicer/internal/log"
	"invoicer/internal/render"
)

func invoiceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoice",
		Short: "Work with invoices",
	}

	var out string
	pdf := &cobra.Command{
		Use:   "pdf <id>",
		Short: "Render an invoice to a PDF file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			repo, err := a.openRepo()
			if err != nil {
				return err
			}
			defer a.closeRepo(repo)

			ctx := cmd.Context()
			inv, err := repo.GetInvoice(ctx, id)
			if err != nil {
				return err
			}
			settings, err := repo.GetBusinessSettings(ctx, inv.UserID)
			if err != nil {
				return err
			}

			path := out
			if path == "" {
				path = render.FileName(inv)
			}
			if err := writeFile(path, func(w io.Writer) error {
				return render.WritePDF(w, render.NewInvoiceView(inv, settings))
			}); err != nil {
				return err
			}
			a.logger.Info("Invoice PDF written",
				applog.FieldInvoiceID, inv.ID,
				applog.FieldInvoiceNumber, inv.InvoiceNumber,
				applog.FieldPath, path)
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	pdf.Flags().StringVarP(&out, "output", "o", "", "output file (default: invoice-<number>.pdf)")
	cmd.AddCommand(pdf)
	return cmd
}

func expensesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expenses",
		Short: "Work with expenses",
	}

	var out string
	exp := &cobra.Command{
		Use:   "export <userId>",
		Short: "Export a user's expenses to an XLSX workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID(args[0])
			if err != nil {
				return err
			}
			repo, err := a.openRepo()
			if err != nil {
				return err
			}
			defer a.closeRepo(repo)

			expenses, err := repo.ListExpensesByUser(cmd.Context(), userID)
			if err != nil {
				return err
			}

			path := out
			if path == "" {
				path = "expenses-" + args[0] + ".xlsx"
			}
			if err := writeFile(path, func(w io.Writer) error {
				return export.WriteExpensesXLSX(w, expenses)
			}); err != nil {
				return err
			}
			a.logger.Info("Expenses exported",
				applog.FieldUserID, userID,
				"count", len(expenses),
				applog.FieldPath, path)
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	exp.Flags().StringVarP(&out, "output", "o", "", "output file (default: expenses-<userId>.xlsx)")
	cmd.AddCommand(exp)
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", s)
	}
	return id, nil
}

// writeFile removes a partially written file when fn fails.
func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
