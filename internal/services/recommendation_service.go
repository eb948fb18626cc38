package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/coojiin/credit-card-helper/internal/core"
	"github.com/coojiin/credit-card-helper/internal/storage"
)

// RecommendationService ranks every enabled user card for a proposed spend.
// One bad card never aborts the pass: cards with missing catalog entries are
// logged and skipped.
type RecommendationService struct {
	cards       storage.UserCardStore
	txs         storage.TransactionStore
	recommender *core.Recommender
	maxParallel int
}

func NewRecommendationService(cards storage.UserCardStore, txs storage.TransactionStore, recommender *core.Recommender) *RecommendationService {
	return &RecommendationService{
		cards:       cards,
		txs:         txs,
		recommender: recommender,
		maxParallel: 4,
	}
}

// Rank evaluates the spend against every enabled card and returns results
// sorted by estimated reward, then effective rate.
func (s *RecommendationService) Rank(ctx context.Context, category string, amount core.Money, now time.Time) ([]core.RecommendationResult, error) {
	cards, err := s.cards.ListUserCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("list user cards: %w", err)
	}

	enabled := cards[:0:0]
	for _, card := range cards {
		if card.Enabled {
			enabled = append(enabled, card)
		}
	}

	results := make([]*core.RecommendationResult, len(enabled))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallel)
	for i, card := range enabled {
		i, card := i, card
		g.Go(func() error {
			history, err := s.txs.ListTransactions(gctx, card.ID)
			if err != nil {
				return fmt.Errorf("list transactions for card %s: %w", card.ID, err)
			}
			res, err := s.recommender.Recommend(card, category, amount, history, now)
			if err != nil {
				if errors.Is(err, core.ErrDefinitionNotFound) {
					slog.WarnContext(gctx, "Skipping card with missing catalog definition",
						"user_card_id", card.ID,
						"card_def_id", card.CardDefID)
					return nil
				}
				return err
			}
			results[i] = &res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ranked := make([]core.RecommendationResult, 0, len(results))
	for _, res := range results {
		if res != nil {
			ranked = append(ranked, *res)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].EstimatedReward.Cents != ranked[j].EstimatedReward.Cents {
			return ranked[i].EstimatedReward.Cents > ranked[j].EstimatedReward.Cents
		}
		return ranked[i].EffectiveRate > ranked[j].EffectiveRate
	})
	return ranked, nil
}

// CardCaps returns the cap balances for one user card's active cycles.
func (s *RecommendationService) CardCaps(ctx context.Context, cardID string, now time.Time) ([]core.CapStatus, error) {
	card, err := s.cards.GetUserCard(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("get user card: %w", err)
	}
	history, err := s.txs.ListTransactions(ctx, card.ID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return s.recommender.CapStatuses(*card, history, now)
}
