package core

import (
	"errors"
	"testing"
)

func TestUserCardValidate(t *testing.T) {
	good := UserCard{ID: "u1", CardDefID: "card", BillingCycleDay: 15}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		card UserCard
		want error
	}{
		{UserCard{ID: "u1", CardDefID: "", BillingCycleDay: 15}, ErrEmptyCardDefID},
		{UserCard{ID: "u1", CardDefID: "card", BillingCycleDay: 0}, ErrInvalidBillingDay},
		{UserCard{ID: "u1", CardDefID: "card", BillingCycleDay: 32}, ErrInvalidBillingDay},
	}
	for i, tc := range cases {
		if err := tc.card.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d: err = %v, want %v", i, err, tc.want)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{ID: "t1", UserCardID: "u1", Timestamp: 1700000000000, Category: "dining"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		tx   Transaction
		want error
	}{
		{Transaction{ID: "t1", Timestamp: 1, Category: "dining"}, ErrEmptyUserCardID},
		{Transaction{ID: "t1", UserCardID: "u1", Category: "dining"}, ErrInvalidTimestamp},
		{Transaction{ID: "t1", UserCardID: "u1", Timestamp: 1, Category: "  "}, ErrEmptyCategory},
	}
	for i, tc := range cases {
		if err := tc.tx.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d: err = %v, want %v", i, err, tc.want)
		}
	}
}

func TestCardDefinitionValidate(t *testing.T) {
	base := func() CardDefinition {
		return CardDefinition{
			ID: "card",
			Rules: []RewardRule{
				{Category: "dining", Period: PeriodMonthly, Parts: []RewardPart{{Rate: 2}}},
				{Category: GeneralCategory, Period: PeriodMonthly, Parts: []RewardPart{{Rate: 1}}},
			},
			CapDefinitions: []CapDefinition{{ID: "a", MaxReward: NewMoney(1000)}},
		}
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	noGeneral := base()
	noGeneral.Rules = noGeneral.Rules[:1]
	if err := noGeneral.Validate(); !errors.Is(err, ErrMissingGeneral) {
		t.Fatalf("err = %v, want ErrMissingGeneral", err)
	}

	dupCategory := base()
	dupCategory.Rules = append(dupCategory.Rules, RewardRule{Category: "dining", Period: PeriodMonthly})
	if err := dupCategory.Validate(); !errors.Is(err, ErrDuplicateCategory) {
		t.Fatalf("err = %v, want ErrDuplicateCategory", err)
	}

	dupCap := base()
	dupCap.CapDefinitions = append(dupCap.CapDefinitions, CapDefinition{ID: "a", MaxReward: NewMoney(1)})
	if err := dupCap.Validate(); !errors.Is(err, ErrDuplicateCapID) {
		t.Fatalf("err = %v, want ErrDuplicateCapID", err)
	}

	badRate := base()
	badRate.Rules[0].Parts[0].Rate = 120
	if err := badRate.Validate(); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("err = %v, want ErrInvalidRate", err)
	}

	schemeNoGeneral := base()
	schemeNoGeneral.SubSchemes = []CardScheme{{
		ID:    "s",
		Name:  "Scheme",
		Rules: []RewardRule{{Category: "travel", Period: PeriodMonthly, Parts: []RewardPart{{Rate: 5}}}},
	}}
	if err := schemeNoGeneral.Validate(); !errors.Is(err, ErrMissingGeneral) {
		t.Fatalf("err = %v, want ErrMissingGeneral", err)
	}
}
