package storage

import (
	"context"
	"errors"

	"github.com/coojiin/credit-card-helper/internal/core"
)

// ErrNotFound reports a missing record.
var ErrNotFound = errors.New("record not found")

// Mirror states for the ledger mirror queue.
const (
	MirrorPending = 0
	MirrorDone    = 1
	MirrorError   = 2
)

type UserCardStore interface {
	CreateUserCard(ctx context.Context, card core.UserCard) error
	GetUserCard(ctx context.Context, id string) (*core.UserCard, error)
	ListUserCards(ctx context.Context) ([]core.UserCard, error)
	UpdateUserCard(ctx context.Context, card core.UserCard) error
	// DeleteUserCard removes the card and cascade-deletes its transactions.
	DeleteUserCard(ctx context.Context, id string) error
	// UpsertUserCard inserts or overwrites by id (backup import semantics).
	UpsertUserCard(ctx context.Context, card core.UserCard) error
}

type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx core.Transaction) error
	GetTransaction(ctx context.Context, id string) (*core.Transaction, error)
	// ListTransactions returns a card's transactions, newest first.
	ListTransactions(ctx context.Context, cardID string) ([]core.Transaction, error)
	// ListTransactionsInRange filters to the closed range [startMs, endMs].
	ListTransactionsInRange(ctx context.Context, cardID string, startMs, endMs int64) ([]core.Transaction, error)
	ListAllTransactions(ctx context.Context) ([]core.Transaction, error)
	UpdateTransaction(ctx context.Context, tx core.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	// UpsertTransaction inserts or overwrites by id (backup import semantics).
	UpsertTransaction(ctx context.Context, tx core.Transaction) error
}

// MirrorQueue tracks which transactions still need to reach the ledger
// mirror. Used by the worker as a backup for lost queue messages.
type MirrorQueue interface {
	ListPendingMirror(ctx context.Context, limit int) ([]core.Transaction, error)
	MarkMirrored(ctx context.Context, id string) error
	MarkMirrorError(ctx context.Context, id string) error
}
