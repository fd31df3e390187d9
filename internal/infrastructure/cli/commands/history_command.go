package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/doeshing/macdiet-go/internal/app"
	"github.com/doeshing/macdiet-go/internal/domain"
	"github.com/doeshing/macdiet-go/internal/infrastructure/audit"
)

// NewHistoryCommand creates the history command with all subcommands
func NewHistoryCommand(resolve ContainerFunc) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the fix audit history",
	}

	historyCmd.AddCommand(
		newHistoryListCommand(resolve),
		newHistoryExportCommand(resolve),
		newHistoryClearCommand(resolve),
	)

	return historyCmd
}

// newHistoryListCommand creates the 'history list' subcommand
func newHistoryListCommand(resolve ContainerFunc) *cobra.Command {
	var (
		limit int
		query string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent audit events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return domain.InvalidArgs(errors.New(ErrInvalidHistoryLimit))
			}
			store, err := historyStore(cmd.Context(), resolve)
			if err != nil {
				return err
			}
			return listHistoryEntries(cmd.OutOrStdout(), store, limit, query)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", domain.DefaultHistoryLimit, "Max entries to show")
	cmd.Flags().StringVar(&query, "query", "", "Only show events whose action id, summary or status contains this text")
	return cmd
}

// newHistoryExportCommand creates the 'history export' subcommand
func newHistoryExportCommand(resolve ContainerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Export history to a JSONL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := historyStore(cmd.Context(), resolve)
			if err != nil {
				return err
			}
			if err := store.ExportJSONL(args[0]); err != nil {
				return fmt.Errorf("failed to export history to %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported history to %s\n", args[0])
			return nil
		},
	}
}

// newHistoryClearCommand creates the 'history clear' subcommand
func newHistoryClearCommand(resolve ContainerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded history (the JSONL audit log is kept)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := historyStore(cmd.Context(), resolve)
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return fmt.Errorf("failed to clear history: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), MsgHistoryCleared)
			return nil
		},
	}
}

func historyStore(ctx context.Context, resolve ContainerFunc) (*audit.SQLiteStore, error) {
	container, err := resolve(ctx)
	if err != nil {
		return nil, err
	}
	return storeOf(container)
}

func storeOf(container *app.Container) (*audit.SQLiteStore, error) {
	if container.HistoryStore == nil {
		return nil, errors.New(ErrHistoryStoreUnavailable)
	}
	return container.HistoryStore, nil
}

// listHistoryEntries prints recent records, newest first
func listHistoryEntries(out io.Writer, store *audit.SQLiteStore, limit int, query string) error {
	records, err := store.Records(limit, query)
	if err != nil {
		return fmt.Errorf("failed to retrieve history records: %w", err)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, MsgNoHistoryRecorded)
		return nil
	}

	for _, rec := range records {
		target := rec.ActionID
		if target == "" {
			target = "-"
		}
		fmt.Fprintf(out, "%s | %s | %s | %s | %s | %s\n",
			rec.Timestamp.Local().Format(domain.TimestampFormat),
			rec.Command,
			rec.Status,
			rec.RiskLevel,
			target,
			rec.Summary)
	}

	return nil
}
