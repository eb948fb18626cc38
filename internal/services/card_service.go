package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/coojiin/credit-card-helper/internal/core"
	"github.com/coojiin/credit-card-helper/internal/storage"
)

// CardService manages the user's wallet: which catalog cards they hold and
// on what billing day.
type CardService struct {
	cards   storage.UserCardStore
	catalog core.Catalog
}

func NewCardService(cards storage.UserCardStore, catalog core.Catalog) *CardService {
	return &CardService{cards: cards, catalog: catalog}
}

// AddCardInput describes a card the user wants in their wallet.
type AddCardInput struct {
	CardDefID       string
	BillingCycleDay int
	Enabled         bool
}

func (s *CardService) Add(ctx context.Context, in AddCardInput) (*core.UserCard, error) {
	if _, ok := s.catalog.Definition(in.CardDefID); !ok {
		return nil, fmt.Errorf("card definition %q: %w", in.CardDefID, core.ErrDefinitionNotFound)
	}

	card := core.UserCard{
		ID:              uuid.NewString(),
		CardDefID:       in.CardDefID,
		BillingCycleDay: in.BillingCycleDay,
		Enabled:         in.Enabled,
	}
	if err := card.Validate(); err != nil {
		return nil, err
	}

	if err := s.cards.CreateUserCard(ctx, card); err != nil {
		return nil, fmt.Errorf("save user card: %w", err)
	}
	return &card, nil
}

// UpdateCardInput carries the editable wallet fields. Nil fields are left
// unchanged.
type UpdateCardInput struct {
	BillingCycleDay *int
	Enabled         *bool
}

func (s *CardService) Update(ctx context.Context, id string, in UpdateCardInput) (*core.UserCard, error) {
	card, err := s.cards.GetUserCard(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user card: %w", err)
	}

	if in.BillingCycleDay != nil {
		card.BillingCycleDay = *in.BillingCycleDay
	}
	if in.Enabled != nil {
		card.Enabled = *in.Enabled
	}
	if err := card.Validate(); err != nil {
		return nil, err
	}

	if err := s.cards.UpdateUserCard(ctx, *card); err != nil {
		return nil, fmt.Errorf("update user card: %w", err)
	}
	return card, nil
}

func (s *CardService) Get(ctx context.Context, id string) (*core.UserCard, error) {
	return s.cards.GetUserCard(ctx, id)
}

func (s *CardService) List(ctx context.Context) ([]core.UserCard, error) {
	return s.cards.ListUserCards(ctx)
}

// Remove deletes the card and, through the store, its transactions.
func (s *CardService) Remove(ctx context.Context, id string) error {
	if err := s.cards.DeleteUserCard(ctx, id); err != nil {
		return fmt.Errorf("delete user card: %w", err)
	}
	return nil
}
