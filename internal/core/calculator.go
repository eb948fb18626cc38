package core

import (
	"errors"
	"fmt"
	"time"
)

// Catalog looks up immutable card reference data. Implementations must be
// safe for concurrent reads and never mutate definitions after load.
type Catalog interface {
	Definition(id string) (*CardDefinition, bool)
}

// ErrDefinitionNotFound reports a user card whose catalog entry is missing.
// The card cannot be ranked; callers should skip it rather than abort.
var ErrDefinitionNotFound = errors.New("card definition not found")

// Warning flags a cap condition on an otherwise successful recommendation.
type Warning string

const (
	WarningCapExhausted Warning = "cap_exhausted"
	WarningNearCap      Warning = "near_cap"
)

type (
	// PartBreakdown mirrors one evaluated reward part, in rule order.
	PartBreakdown struct {
		Rate   float64 `json:"rate"`
		Note   string  `json:"note,omitempty"`
		Capped bool    `json:"isCapped"`
	}

	// CapStatus is a cap's remaining balance before the proposed spend.
	CapStatus struct {
		CapGroupID string `json:"capGroupId"`
		Remaining  Money  `json:"remaining"`
		Total      Money  `json:"total"`
	}

	// RecommendationResult is the outcome of evaluating one user card for a
	// spend. Cap conditions surface as warnings, never as errors.
	RecommendationResult struct {
		UserCard        UserCard        `json:"userCard"`
		CardDef         *CardDefinition `json:"cardDef"`
		EffectiveRate   float64         `json:"effectiveRate"`
		EstimatedReward Money           `json:"estimatedReward"`
		CapInfo         []CapStatus     `json:"capInfo,omitempty"`
		Warning         Warning         `json:"warning,omitempty"`
		SchemeName      string          `json:"schemeName,omitempty"`
		Breakdown       []PartBreakdown `json:"rateBreakdown,omitempty"`
	}
)

// SelectRule picks the rule for a category: exact match first, then the
// general fallback, then nil. A nil result means the card simply offers no
// applicable reward.
func SelectRule(rules []RewardRule, category string) *RewardRule {
	for i := range rules {
		if rules[i].Category == category {
			return &rules[i]
		}
	}
	for i := range rules {
		if rules[i].Category == GeneralCategory {
			return &rules[i]
		}
	}
	return nil
}

// Recommender evaluates reward rules against a read-only catalog injected at
// construction time.
type Recommender struct {
	catalog Catalog
}

func NewRecommender(catalog Catalog) *Recommender {
	return &Recommender{catalog: catalog}
}

// Recommend computes the reward for spending amount in the given category on
// one user card, using the supplied transaction history for cap accounting.
// When the card defines sub-schemes, every ruleset is evaluated and the best
// one wins; SchemeName is set only when a named scheme beats the default.
func (r *Recommender) Recommend(card UserCard, category string, amount Money, history []Transaction, now time.Time) (RecommendationResult, error) {
	def, ok := r.catalog.Definition(card.CardDefID)
	if !ok {
		return RecommendationResult{}, fmt.Errorf("card %q: %w", card.CardDefID, ErrDefinitionNotFound)
	}

	best := evaluateRuleset(def, card, def.Rules, category, amount, history, now)
	for _, scheme := range def.SubSchemes {
		candidate := evaluateRuleset(def, card, scheme.Rules, category, amount, history, now)
		if candidate.EstimatedReward.Cents > best.EstimatedReward.Cents {
			candidate.SchemeName = scheme.Name
			best = candidate
		}
	}

	best.UserCard = card
	best.CardDef = def
	return best, nil
}

// CapStatuses reports every defined cap's remaining balance for the active
// cycle, pooled the same way Recommend pools usage.
func (r *Recommender) CapStatuses(card UserCard, history []Transaction, now time.Time) ([]CapStatus, error) {
	def, ok := r.catalog.Definition(card.CardDefID)
	if !ok {
		return nil, fmt.Errorf("card %q: %w", card.CardDefID, ErrDefinitionNotFound)
	}

	statuses := make([]CapStatus, 0, len(def.CapDefinitions))
	for _, capDef := range def.CapDefinitions {
		period := capPeriod(capDef, def.Rules)
		start, end := ResolveCycle(card.BillingCycleDay, period, now)
		consumed := consumedForCap(def.Rules, capDef.ID, history, start, end)
		statuses = append(statuses, CapStatus{
			CapGroupID: capDef.ID,
			Remaining:  clampNonNegative(capDef.MaxReward.Sub(consumed)),
			Total:      capDef.MaxReward,
		})
	}
	return statuses, nil
}

func evaluateRuleset(def *CardDefinition, card UserCard, rules []RewardRule, category string, amount Money, history []Transaction, now time.Time) RecommendationResult {
	var res RecommendationResult

	rule := SelectRule(rules, category)
	if rule == nil {
		return res
	}

	// Zero or negative spend is a boundary, not an error: zero reward, zero
	// rate, no cap evaluation.
	if !amount.IsPositive() {
		for _, part := range rule.Parts {
			res.Breakdown = append(res.Breakdown, PartBreakdown{Rate: part.Rate, Note: part.Note})
		}
		return res
	}

	var reward, raw Money
	exhausted := false
	for _, part := range rule.Parts {
		contribution := amount.Percent(part.Rate)
		raw = raw.Add(contribution)
		entry := PartBreakdown{Rate: part.Rate, Note: part.Note}

		if part.CapGroupID != "" {
			if capDef, ok := findCap(def.CapDefinitions, part.CapGroupID); ok {
				period := rule.Period
				if capDef.Period != "" {
					period = capDef.Period
				}
				start, end := ResolveCycle(card.BillingCycleDay, period, now)
				consumed := consumedForCap(rules, part.CapGroupID, history, start, end)
				remaining := capDef.MaxReward.Sub(consumed)
				res.CapInfo = append(res.CapInfo, CapStatus{
					CapGroupID: capDef.ID,
					Remaining:  clampNonNegative(remaining),
					Total:      capDef.MaxReward,
				})
				switch {
				case remaining.Cents <= 0:
					contribution = Money{}
					entry.Capped = true
					exhausted = true
				case contribution.Cents > remaining.Cents:
					contribution = remaining
					entry.Capped = true
				}
			}
			// A dangling capGroupId is tolerated as uncapped.
		}

		reward = reward.Add(contribution)
		res.Breakdown = append(res.Breakdown, entry)
	}

	res.EstimatedReward = reward
	res.EffectiveRate = float64(reward.Cents) / float64(amount.Cents) * 100
	switch {
	case exhausted:
		res.Warning = WarningCapExhausted
	case reward.Cents < raw.Cents:
		res.Warning = WarningNearCap
	}
	return res
}

func findCap(caps []CapDefinition, id string) (CapDefinition, bool) {
	for _, c := range caps {
		if c.ID == id {
			return c, true
		}
	}
	return CapDefinition{}, false
}

// capPeriod resolves which cycle kind resets a cap: its own override, else
// the period of the first rule referencing it, else monthly.
func capPeriod(capDef CapDefinition, rules []RewardRule) PeriodKind {
	if capDef.Period != "" {
		return capDef.Period
	}
	for _, rule := range rules {
		if ruleUsesCap(rule, capDef.ID) {
			return rule.Period
		}
	}
	return PeriodMonthly
}

func clampNonNegative(m Money) Money {
	if m.Cents < 0 {
		return Money{}
	}
	return m
}
