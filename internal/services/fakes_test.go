package services

import (
	"context"
	"sort"
	"sync"

	"github.com/coojiin/credit-card-helper/internal/core"
	"github.com/coojiin/credit-card-helper/internal/storage"
)

// fakeStore is an in-memory stand-in for the sqlite repository.
type fakeStore struct {
	mu    sync.Mutex
	cards map[string]core.UserCard
	txs   map[string]core.Transaction
}

var (
	_ storage.UserCardStore    = (*fakeStore)(nil)
	_ storage.TransactionStore = (*fakeStore)(nil)
)

func newFakeStore() *fakeStore {
	return &fakeStore{
		cards: make(map[string]core.UserCard),
		txs:   make(map[string]core.Transaction),
	}
}

func (f *fakeStore) CreateUserCard(_ context.Context, card core.UserCard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cards[card.ID] = card
	return nil
}

func (f *fakeStore) GetUserCard(_ context.Context, id string) (*core.UserCard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	card, ok := f.cards[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &card, nil
}

func (f *fakeStore) ListUserCards(_ context.Context) ([]core.UserCard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]core.UserCard, 0, len(f.cards))
	for _, card := range f.cards {
		out = append(out, card)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) UpdateUserCard(_ context.Context, card core.UserCard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.cards[card.ID]; !ok {
		return storage.ErrNotFound
	}
	f.cards[card.ID] = card
	return nil
}

func (f *fakeStore) DeleteUserCard(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.cards[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.cards, id)
	for txID, tx := range f.txs {
		if tx.UserCardID == id {
			delete(f.txs, txID)
		}
	}
	return nil
}

func (f *fakeStore) UpsertUserCard(_ context.Context, card core.UserCard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cards[card.ID] = card
	return nil
}

func (f *fakeStore) CreateTransaction(_ context.Context, tx core.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txs[tx.ID] = tx
	return nil
}

func (f *fakeStore) GetTransaction(_ context.Context, id string) (*core.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.txs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &tx, nil
}

func (f *fakeStore) ListTransactions(_ context.Context, cardID string) ([]core.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.Transaction
	for _, tx := range f.txs {
		if tx.UserCardID == cardID {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out, nil
}

func (f *fakeStore) ListTransactionsInRange(ctx context.Context, cardID string, startMs, endMs int64) ([]core.Transaction, error) {
	all, _ := f.ListTransactions(ctx, cardID)
	var out []core.Transaction
	for _, tx := range all {
		if tx.Timestamp >= startMs && tx.Timestamp <= endMs {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (f *fakeStore) ListAllTransactions(_ context.Context) ([]core.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]core.Transaction, 0, len(f.txs))
	for _, tx := range f.txs {
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) UpdateTransaction(_ context.Context, tx core.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.txs[tx.ID]; !ok {
		return storage.ErrNotFound
	}
	f.txs[tx.ID] = tx
	return nil
}

func (f *fakeStore) DeleteTransaction(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.txs[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.txs, id)
	return nil
}

func (f *fakeStore) UpsertTransaction(_ context.Context, tx core.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txs[tx.ID] = tx
	return nil
}

// fakeCatalog serves definitions from a map.
type fakeCatalog map[string]*core.CardDefinition

func (c fakeCatalog) Definition(id string) (*core.CardDefinition, bool) {
	def, ok := c[id]
	return def, ok
}

// fakePublisher records published sync messages.
type fakePublisher struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (p *fakePublisher) PublishTransactionSync(_ context.Context, id string, _ int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.ids = append(p.ids, id)
	return nil
}
