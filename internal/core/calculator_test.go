package core

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

type mapCatalog map[string]*CardDefinition

func (c mapCatalog) Definition(id string) (*CardDefinition, bool) {
	def, ok := c[id]
	return def, ok
}

var testNow = time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)

func simpleCard() *CardDefinition {
	return &CardDefinition{
		ID:                     "simple",
		Name:                   "Simple Card",
		Bank:                   "Test Bank",
		DefaultBillingCycleDay: 5,
		Rules: []RewardRule{
			{Category: "dining", Period: PeriodMonthly, Parts: []RewardPart{{Rate: 2}, {Rate: 1, Note: "registration required"}}},
			{Category: GeneralCategory, Period: PeriodMonthly, Parts: []RewardPart{{Rate: 1}}},
		},
	}
}

func cappedCard() *CardDefinition {
	return &CardDefinition{
		ID:                     "capped",
		Name:                   "Capped Card",
		Bank:                   "Test Bank",
		DefaultBillingCycleDay: 5,
		Rules: []RewardRule{
			{Category: "online", Period: PeriodMonthly, Parts: []RewardPart{{Rate: 2, CapGroupID: "bonus"}}},
			{Category: "dining", Period: PeriodMonthly, Parts: []RewardPart{{Rate: 2, CapGroupID: "bonus"}}},
			{Category: GeneralCategory, Period: PeriodMonthly, Parts: []RewardPart{{Rate: 0.5}}},
		},
		CapDefinitions: []CapDefinition{{ID: "bonus", MaxReward: NewMoney(100000)}},
	}
}

func newTestRecommender(defs ...*CardDefinition) *Recommender {
	catalog := mapCatalog{}
	for _, d := range defs {
		catalog[d.ID] = d
	}
	return NewRecommender(catalog)
}

func userCard(defID string) UserCard {
	return UserCard{ID: "uc-" + defID, CardDefID: defID, BillingCycleDay: 5, Enabled: true}
}

func TestRecommendZeroSpend(t *testing.T) {
	r := newTestRecommender(simpleCard())
	for _, cents := range []int64{0, -500} {
		res, err := r.Recommend(userCard("simple"), "dining", NewMoney(cents), nil, testNow)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.EstimatedReward.Cents != 0 || res.EffectiveRate != 0 {
			t.Fatalf("amount %d: reward = %d, rate = %v, want zeros", cents, res.EstimatedReward.Cents, res.EffectiveRate)
		}
		if res.Warning != "" {
			t.Fatalf("amount %d: unexpected warning %q", cents, res.Warning)
		}
	}
}

func TestRecommendUncappedExact(t *testing.T) {
	r := newTestRecommender(simpleCard())
	res, err := r.Recommend(userCard("simple"), "dining", NewMoney(10000), nil, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 2% + 1% of 100.00
	if res.EstimatedReward.Cents != 300 {
		t.Fatalf("reward = %d, want 300", res.EstimatedReward.Cents)
	}
	if res.EffectiveRate != 3.0 {
		t.Fatalf("rate = %v, want 3.0", res.EffectiveRate)
	}
	if res.Warning != "" {
		t.Fatalf("unexpected warning %q", res.Warning)
	}
	want := []PartBreakdown{{Rate: 2}, {Rate: 1, Note: "registration required"}}
	if !reflect.DeepEqual(res.Breakdown, want) {
		t.Fatalf("breakdown = %+v, want %+v", res.Breakdown, want)
	}
}

func TestRecommendFallbackToGeneral(t *testing.T) {
	r := newTestRecommender(simpleCard())
	res, err := r.Recommend(userCard("simple"), "gas", NewMoney(10000), nil, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.EstimatedReward.Cents != 100 || res.EffectiveRate != 1.0 {
		t.Fatalf("reward = %d rate = %v, want general rule's 1%%", res.EstimatedReward.Cents, res.EffectiveRate)
	}
}

func TestRecommendNoApplicableRule(t *testing.T) {
	def := &CardDefinition{
		ID:   "norule",
		Name: "No Rule Card",
		Rules: []RewardRule{
			{Category: "gas", Period: PeriodMonthly, Parts: []RewardPart{{Rate: 5}}},
		},
	}
	r := newTestRecommender(def)
	res, err := r.Recommend(userCard("norule"), "dining", NewMoney(10000), nil, testNow)
	if err != nil {
		t.Fatalf("no applicable rule must not be an error, got %v", err)
	}
	if res.EstimatedReward.Cents != 0 || res.EffectiveRate != 0 {
		t.Fatalf("reward = %d rate = %v, want zero result", res.EstimatedReward.Cents, res.EffectiveRate)
	}
}

func TestRecommendApproachingCap(t *testing.T) {
	r := newTestRecommender(cappedCard())
	// Cap 1000.00, already consumed 950.00 inside the current month.
	history := []Transaction{tx("uc-capped", "online", testNow.Add(-48*time.Hour), 95000)}

	res, err := r.Recommend(userCard("capped"), "online", NewMoney(500000), history, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Raw 2% of 5000.00 is 100.00 but only 50.00 remains.
	if res.EstimatedReward.Cents != 5000 {
		t.Fatalf("reward = %d, want 5000", res.EstimatedReward.Cents)
	}
	if res.Warning != WarningNearCap {
		t.Fatalf("warning = %q, want %q", res.Warning, WarningNearCap)
	}
	if len(res.Breakdown) != 1 || !res.Breakdown[0].Capped {
		t.Fatalf("breakdown = %+v, want one capped entry", res.Breakdown)
	}
	if len(res.CapInfo) != 1 || res.CapInfo[0].Remaining.Cents != 5000 || res.CapInfo[0].Total.Cents != 100000 {
		t.Fatalf("cap info = %+v", res.CapInfo)
	}
}

func TestRecommendCapExhausted(t *testing.T) {
	r := newTestRecommender(cappedCard())
	history := []Transaction{tx("uc-capped", "online", testNow.Add(-48*time.Hour), 100000)}

	res, err := r.Recommend(userCard("capped"), "online", NewMoney(500000), history, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.EstimatedReward.Cents != 0 {
		t.Fatalf("reward = %d, want 0", res.EstimatedReward.Cents)
	}
	if res.Warning != WarningCapExhausted {
		t.Fatalf("warning = %q, want %q", res.Warning, WarningCapExhausted)
	}
	if len(res.Breakdown) != 1 || !res.Breakdown[0].Capped {
		t.Fatalf("breakdown = %+v, want one capped entry", res.Breakdown)
	}
}

func TestRecommendSharedCapPoolsAcrossCategories(t *testing.T) {
	r := newTestRecommender(cappedCard())
	// Dining spends drain the same "bonus" cap the online rule references.
	history := []Transaction{tx("uc-capped", "dining", testNow.Add(-24*time.Hour), 99000)}

	res, err := r.Recommend(userCard("capped"), "online", NewMoney(500000), history, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.EstimatedReward.Cents != 1000 {
		t.Fatalf("reward = %d, want 1000 (cap remainder)", res.EstimatedReward.Cents)
	}
	if res.Warning != WarningNearCap {
		t.Fatalf("warning = %q, want %q", res.Warning, WarningNearCap)
	}
}

func TestRecommendIgnoresSpendOutsideCycle(t *testing.T) {
	r := newTestRecommender(cappedCard())
	// Consumption from the previous month must not count against this
	// month's cap.
	history := []Transaction{tx("uc-capped", "online", testNow.AddDate(0, -1, 0), 100000)}

	res, err := r.Recommend(userCard("capped"), "online", NewMoney(500000), history, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.EstimatedReward.Cents != 10000 {
		t.Fatalf("reward = %d, want uncapped 10000", res.EstimatedReward.Cents)
	}
	if res.Warning != "" {
		t.Fatalf("unexpected warning %q", res.Warning)
	}
}

func TestRecommendSchemeSelection(t *testing.T) {
	def := &CardDefinition{
		ID:   "schemed",
		Name: "Schemed Card",
		Rules: []RewardRule{
			{Category: GeneralCategory, Period: PeriodMonthly, Parts: []RewardPart{{Rate: 1}}},
		},
		SubSchemes: []CardScheme{
			{
				ID:   "travel",
				Name: "Travel Plan",
				Rules: []RewardRule{
					{Category: "travel", Period: PeriodMonthly, Parts: []RewardPart{{Rate: 5}}},
					{Category: GeneralCategory, Period: PeriodMonthly, Parts: []RewardPart{{Rate: 0.3}}},
				},
			},
		},
	}
	r := newTestRecommender(def)

	// Travel spends: the named scheme wins and is surfaced.
	res, err := r.Recommend(userCard("schemed"), "travel", NewMoney(10000), nil, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.SchemeName != "Travel Plan" {
		t.Fatalf("scheme = %q, want Travel Plan", res.SchemeName)
	}
	if res.EstimatedReward.Cents != 500 {
		t.Fatalf("reward = %d, want 500", res.EstimatedReward.Cents)
	}

	// General spends: the default ruleset wins, no scheme name.
	res, err = r.Recommend(userCard("schemed"), "grocery", NewMoney(10000), nil, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.SchemeName != "" {
		t.Fatalf("scheme = %q, want default ruleset", res.SchemeName)
	}
	if res.EstimatedReward.Cents != 100 {
		t.Fatalf("reward = %d, want 100", res.EstimatedReward.Cents)
	}
}

func TestRecommendMissingDefinition(t *testing.T) {
	r := newTestRecommender()
	_, err := r.Recommend(userCard("ghost"), "dining", NewMoney(10000), nil, testNow)
	if !errors.Is(err, ErrDefinitionNotFound) {
		t.Fatalf("err = %v, want ErrDefinitionNotFound", err)
	}
}

func TestRecommendIdempotent(t *testing.T) {
	r := newTestRecommender(cappedCard())
	history := []Transaction{
		tx("uc-capped", "online", testNow.Add(-72*time.Hour), 40000),
		tx("uc-capped", "dining", testNow.Add(-24*time.Hour), 30000),
	}

	first, err := r.Recommend(userCard("capped"), "online", NewMoney(250000), history, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := r.Recommend(userCard("capped"), "online", NewMoney(250000), history, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("results differ:\n%+v\n%+v", first, second)
	}
}

func TestCapStatuses(t *testing.T) {
	r := newTestRecommender(cappedCard())
	history := []Transaction{tx("uc-capped", "online", testNow.Add(-24*time.Hour), 30000)}

	statuses, err := r.CapStatuses(userCard("capped"), history, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(statuses) != 1 {
		t.Fatalf("got %d statuses, want 1", len(statuses))
	}
	if statuses[0].CapGroupID != "bonus" || statuses[0].Remaining.Cents != 70000 || statuses[0].Total.Cents != 100000 {
		t.Fatalf("status = %+v", statuses[0])
	}
}
