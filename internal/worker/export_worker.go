// Package worker runs the export mirror: it consumes ledger events from
// the broker and appends the referenced transactions to an export target.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"budgetwise/internal/amqp"
	"budgetwise/internal/core"
	"budgetwise/internal/export"
)

// TransactionSource fetches full transactions for the ids carried in
// ledger events.
type TransactionSource interface {
	GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error)
}

// EventSource is the broker consumption surface.
type EventSource interface {
	ConsumeLedgerEvents(ctx context.Context, handler func(*amqp.LedgerEventMessage) error) error
}

type ExportWorker struct {
	source TransactionSource
	target export.TransactionWriter
}

func NewExportWorker(source TransactionSource, target export.TransactionWriter) *ExportWorker {
	return &ExportWorker{source: source, target: target}
}

// Run consumes ledger events until the context is cancelled.
func (w *ExportWorker) Run(ctx context.Context, events EventSource) error {
	return events.ConsumeLedgerEvents(ctx, func(msg *amqp.LedgerEventMessage) error {
		return w.HandleLedgerEvent(ctx, msg)
	})
}

// HandleLedgerEvent mirrors one ledger mutation. Retractions export the
// transaction again with status VOID; the target stays append-only.
func (w *ExportWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	tx, err := w.source.GetTransaction(ctx, msg.UserID, msg.TransactionID)
	if err != nil {
		return fmt.Errorf("get transaction %d: %w", msg.TransactionID, err)
	}

	status := export.StatusActive
	if msg.Retracted || tx.Void {
		status = export.StatusVoid
	}

	ref, err := w.target.Append(ctx, export.Row{Transaction: tx, Status: status})
	if err != nil {
		return fmt.Errorf("export transaction %d: %w", tx.ID, err)
	}

	slog.InfoContext(ctx, "Exported ledger entry",
		"transaction_id", tx.ID,
		"user_id", tx.UserID,
		"status", status,
		"row_ref", ref)
	return nil
}
