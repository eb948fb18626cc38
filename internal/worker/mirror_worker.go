package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/coojiin/credit-card-helper/internal/amqp"
	"github.com/coojiin/credit-card-helper/internal/core"
	"github.com/coojiin/credit-card-helper/internal/sheets"
	"github.com/coojiin/credit-card-helper/internal/storage"
)

// Store is what the mirror worker needs from the local record store.
type Store interface {
	storage.TransactionStore
	storage.UserCardStore
	storage.MirrorQueue
}

// MirrorWorker copies recorded transactions to the ledger mirror.
type MirrorWorker struct {
	store     Store
	ledger    sheets.LedgerWriter
	catalog   core.Catalog
	batchSize int
}

func NewMirrorWorker(store Store, ledger sheets.LedgerWriter, catalog core.Catalog, batchSize int) *MirrorWorker {
	return &MirrorWorker{
		store:     store,
		ledger:    ledger,
		catalog:   catalog,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes one sync message from the queue. A transaction
// deleted between publish and delivery is dropped, not retried.
func (w *MirrorWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message", "id", msg.ID, "version", msg.Version)

	tx, err := w.store.GetTransaction(ctx, msg.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			slog.WarnContext(ctx, "Transaction gone before mirroring, dropping message", "id", msg.ID)
			return nil
		}
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	return w.mirror(ctx, *tx)
}

// ProcessPending sweeps transactions whose sync message was lost. Called on
// startup and periodically between deliveries.
func (w *MirrorWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.store.ListPendingMirror(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))
	for _, tx := range pending {
		if err := w.mirror(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror pending transaction", "id", tx.ID, "error", err)
		}
	}
	return nil
}

func (w *MirrorWorker) mirror(ctx context.Context, tx core.Transaction) error {
	ref, err := w.ledger.Append(ctx, tx, w.cardName(ctx, tx.UserCardID))
	if err != nil {
		if markErr := w.store.MarkMirrorError(ctx, tx.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark mirror error", "id", tx.ID, "error", markErr)
		}
		return fmt.Errorf("append to ledger: %w", err)
	}

	if err := w.store.MarkMirrored(ctx, tx.ID); err != nil {
		return fmt.Errorf("mark mirrored: %w", err)
	}

	slog.InfoContext(ctx, "Transaction mirrored", "id", tx.ID, "ref", ref)
	return nil
}

// cardName resolves a display name for the ledger row. Orphaned or unknown
// cards degrade to the raw id rather than failing the mirror.
func (w *MirrorWorker) cardName(ctx context.Context, userCardID string) string {
	card, err := w.store.GetUserCard(ctx, userCardID)
	if err != nil {
		return userCardID
	}
	if def, ok := w.catalog.Definition(card.CardDefID); ok {
		return def.Name
	}
	return card.CardDefID
}
