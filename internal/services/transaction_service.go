package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/coojiin/credit-card-helper/internal/core"
	"github.com/coojiin/credit-card-helper/internal/storage"
)

// SyncPublisher enqueues mirror requests for recorded transactions.
type SyncPublisher interface {
	PublishTransactionSync(ctx context.Context, id string, version int64) error
}

// TransactionService records spends with the reward that the calculator
// attributes at record time. Edits afterwards are taken as ground truth and
// never recomputed.
type TransactionService struct {
	cards       storage.UserCardStore
	txs         storage.TransactionStore
	recommender *core.Recommender
	publisher   SyncPublisher
}

func NewTransactionService(cards storage.UserCardStore, txs storage.TransactionStore, recommender *core.Recommender, publisher SyncPublisher) *TransactionService {
	return &TransactionService{
		cards:       cards,
		txs:         txs,
		recommender: recommender,
		publisher:   publisher,
	}
}

// RecordTransactionInput is a spend to record. A zero Timestamp means now.
type RecordTransactionInput struct {
	UserCardID string
	Timestamp  int64
	Amount     core.Money
	Category   string
	Note       string
}

// Record saves the spend locally and enqueues a mirror request. The credited
// reward is what the calculator estimates against the card's current cap
// state.
func (s *TransactionService) Record(ctx context.Context, in RecordTransactionInput) (*core.Transaction, error) {
	card, err := s.cards.GetUserCard(ctx, in.UserCardID)
	if err != nil {
		return nil, fmt.Errorf("get user card: %w", err)
	}

	ts := in.Timestamp
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}

	history, err := s.txs.ListTransactions(ctx, card.ID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	rec, err := s.recommender.Recommend(*card, in.Category, in.Amount, history, time.UnixMilli(ts))
	if err != nil {
		return nil, fmt.Errorf("compute reward: %w", err)
	}

	tx := core.Transaction{
		ID:           uuid.NewString(),
		UserCardID:   card.ID,
		Timestamp:    ts,
		Amount:       in.Amount,
		Category:     in.Category,
		RewardAmount: rec.EstimatedReward,
		Note:         in.Note,
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	if err := s.txs.CreateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("save transaction: %w", err)
	}

	// The transaction is durable locally; a failed publish only delays the
	// mirror until the worker's pending sweep.
	if s.publisher != nil {
		if err := s.publisher.PublishTransactionSync(ctx, tx.ID, 1); err != nil {
			slog.ErrorContext(ctx, "Failed to publish sync message", "id", tx.ID, "error", err)
		}
	}

	return &tx, nil
}

// UpdateTransactionInput carries the user-editable fields. Nil fields are
// left unchanged.
type UpdateTransactionInput struct {
	Amount       *core.Money
	RewardAmount *core.Money
	Note         *string
}

func (s *TransactionService) Update(ctx context.Context, id string, in UpdateTransactionInput) (*core.Transaction, error) {
	tx, err := s.txs.GetTransaction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}

	if in.Amount != nil {
		tx.Amount = *in.Amount
	}
	if in.RewardAmount != nil {
		tx.RewardAmount = *in.RewardAmount
	}
	if in.Note != nil {
		tx.Note = *in.Note
	}

	if err := s.txs.UpdateTransaction(ctx, *tx); err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}
	return tx, nil
}

func (s *TransactionService) Delete(ctx context.Context, id string) error {
	if err := s.txs.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

func (s *TransactionService) Get(ctx context.Context, id string) (*core.Transaction, error) {
	return s.txs.GetTransaction(ctx, id)
}

func (s *TransactionService) List(ctx context.Context, cardID string) ([]core.Transaction, error) {
	return s.txs.ListTransactions(ctx, cardID)
}
