package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/coojiin/credit-card-helper/internal/core"
	"github.com/coojiin/credit-card-helper/internal/storage"
)

// BackupVersion is the current backup document format.
const BackupVersion = 1

// BackupDocument is the portable export of everything the user owns. Card
// definitions come from the catalog and are not part of the backup.
type BackupDocument struct {
	Version    int        `json:"version"`
	ExportedAt string     `json:"exportedAt"`
	Data       BackupData `json:"data"`
}

type BackupData struct {
	UserCards    []core.UserCard    `json:"userCards"`
	Transactions []core.Transaction `json:"transactions"`
}

// ImportStats counts what an import actually applied.
type ImportStats struct {
	UserCards    int `json:"userCards"`
	Transactions int `json:"transactions"`
	Skipped      int `json:"skipped"`
}

// BackupService exports and restores the user-owned state. Import merges by
// id, so restoring the same document twice is a no-op.
type BackupService struct {
	cards storage.UserCardStore
	txs   storage.TransactionStore
}

func NewBackupService(cards storage.UserCardStore, txs storage.TransactionStore) *BackupService {
	return &BackupService{cards: cards, txs: txs}
}

func (s *BackupService) Export(ctx context.Context) (*BackupDocument, error) {
	cards, err := s.cards.ListUserCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("list user cards: %w", err)
	}
	txs, err := s.txs.ListAllTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	if cards == nil {
		cards = []core.UserCard{}
	}
	if txs == nil {
		txs = []core.Transaction{}
	}

	return &BackupDocument{
		Version:    BackupVersion,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Data: BackupData{
			UserCards:    cards,
			Transactions: txs,
		},
	}, nil
}

// Import upserts every valid record from the document. Invalid records are
// skipped with a warning so one corrupt row cannot block a restore.
func (s *BackupService) Import(ctx context.Context, doc *BackupDocument) (ImportStats, error) {
	var stats ImportStats

	if doc.Version > BackupVersion {
		return stats, fmt.Errorf("unsupported backup version %d (newest supported: %d)", doc.Version, BackupVersion)
	}

	for _, card := range doc.Data.UserCards {
		if err := card.Validate(); err != nil {
			slog.WarnContext(ctx, "Skipping invalid user card in backup", "id", card.ID, "error", err)
			stats.Skipped++
			continue
		}
		if err := s.cards.UpsertUserCard(ctx, card); err != nil {
			return stats, fmt.Errorf("upsert user card %s: %w", card.ID, err)
		}
		stats.UserCards++
	}

	for _, tx := range doc.Data.Transactions {
		if err := tx.Validate(); err != nil {
			slog.WarnContext(ctx, "Skipping invalid transaction in backup", "id", tx.ID, "error", err)
			stats.Skipped++
			continue
		}
		if err := s.txs.UpsertTransaction(ctx, tx); err != nil {
			return stats, fmt.Errorf("upsert transaction %s: %w", tx.ID, err)
		}
		stats.Transactions++
	}

	slog.InfoContext(ctx, "Backup imported",
		"user_cards", stats.UserCards,
		"transactions", stats.Transactions,
		"skipped", stats.Skipped)
	return stats, nil
}
