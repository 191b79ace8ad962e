package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"invoicer/internal/amqp"
)

func syncCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Manage spreadsheet synchronization",
	}

	var limit int
	requeue := &cobra.Command{
		Use:   "requeue",
		Short: "Republish a sync message for every unsynced invoice and expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.cfg.AMQPEnabled() {
				return errors.New("AMQP_URL is not set")
			}
			if limit < 1 {
				return errors.New("--limit must be at least 1")
			}

			repo, err := a.openRepo()
			if err != nil {
				return err
			}
			defer a.closeRepo(repo)

			client, err := amqp.NewClient(a.cfg.AMQPURL, a.cfg.AMQPExchange, a.cfg.AMQPQueue)
			if err != nil {
				return fmt.Errorf("connect to AMQP: %w", err)
			}
			defer client.Close()

			ctx := cmd.Context()
			invoices, err := repo.PendingInvoiceSyncs(ctx, limit)
			if err != nil {
				return err
			}
			expenses, err := repo.PendingExpenseSyncs(ctx, limit)
			if err != nil {
				return err
			}

			published := 0
			for _, batch := range []struct {
				entity string
				ids    []int64
			}{
				{amqp.EntityInvoice, invoices},
				{amqp.EntityExpense, expenses},
			} {
				for _, id := range batch.ids {
					if err := client.PublishSync(ctx, amqp.NewSyncMessage(batch.entity, id)); err != nil {
						return fmt.Errorf("publish %s %d: %w", batch.entity, id, err)
					}
					published++
				}
			}

			a.logger.Info("Sync messages requeued",
				"invoices", len(invoices),
				"expenses", len(expenses))
			fmt.Fprintf(cmd.OutOrStdout(), "requeued %d messages (%d invoices, %d expenses)\n",
				published, len(invoices), len(expenses))
			return nil
		},
	}
	requeue.Flags().IntVar(&limit, "limit", 1000, "maximum rows per entity")
	cmd.AddCommand(requeue)
	return cmd
}
