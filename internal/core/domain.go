package core

import (
	"errors"
	"strings"
	"time"
)

// GeneralCategory is the fallback spending category every ruleset must carry.
const GeneralCategory = "general"

// PeriodKind selects how a reward cap resets.
type PeriodKind string

const (
	// PeriodMonthly resets on calendar-month boundaries.
	PeriodMonthly PeriodKind = "monthly"
	// PeriodStatementCycle resets on the card's statement closing date.
	PeriodStatementCycle PeriodKind = "statement_cycle"
)

type (
	// RewardPart is one percentage contribution of a rule. A part that names
	// a cap group draws its payout from that cap's remaining balance.
	RewardPart struct {
		Rate       float64 `json:"rate"`
		CapGroupID string  `json:"capGroupId,omitempty"`
		Note       string  `json:"note,omitempty"`
	}

	// RewardRule binds a spending category to its reward parts and the cycle
	// kind that resets the caps those parts reference.
	RewardRule struct {
		Category string       `json:"category"`
		Period   PeriodKind   `json:"period"`
		Parts    []RewardPart `json:"rewardParts"`
	}

	// CapDefinition is a named reward ceiling. Parts across different rules
	// may reference the same id, pooling their usage. Period, when set,
	// overrides the referencing rule's period.
	CapDefinition struct {
		ID        string     `json:"id"`
		MaxReward Money      `json:"maxReward"`
		Period    PeriodKind `json:"period,omitempty"`
	}

	// CardScheme is a named alternative ruleset the cardholder must opt into.
	CardScheme struct {
		ID    string       `json:"id"`
		Name  string       `json:"name"`
		Rules []RewardRule `json:"rules"`
	}

	// CardDefinition is immutable catalog reference data, loaded once at
	// startup and never mutated afterwards.
	CardDefinition struct {
		ID                     string          `json:"id"`
		Name                   string          `json:"name"`
		Bank                   string          `json:"bank"`
		ImageURL               string          `json:"imageUrl,omitempty"`
		DefaultBillingCycleDay int             `json:"defaultBillingCycleDay"`
		Rules                  []RewardRule    `json:"rules"`
		SubSchemes             []CardScheme    `json:"subSchemes,omitempty"`
		CapDefinitions         []CapDefinition `json:"capDefinitions,omitempty"`
	}

	// UserCard is a card the user owns, tying a catalog definition to the
	// user's own billing cycle day.
	UserCard struct {
		ID              string `json:"id"`
		CardDefID       string `json:"cardDefId"`
		BillingCycleDay int    `json:"billingCycleDay"`
		Enabled         bool   `json:"isEnabled"`
	}

	// Transaction is a recorded spend with the reward that was actually
	// credited at record time. Edited reward values are ground truth and are
	// never recomputed against the original rule.
	Transaction struct {
		ID           string `json:"id"`
		UserCardID   string `json:"userCardId"`
		Timestamp    int64  `json:"timestamp"` // epoch milliseconds
		Amount       Money  `json:"amount"`
		Category     string `json:"scenario"`
		RewardAmount Money  `json:"earnedReward"`
		Note         string `json:"note,omitempty"`
	}
)

var (
	ErrInvalidBillingDay = errors.New("billing cycle day must be between 1 and 31")
	ErrEmptyCardDefID    = errors.New("empty card definition id")
	ErrEmptyCategory     = errors.New("empty category")
	ErrEmptyUserCardID   = errors.New("empty user card id")
	ErrInvalidTimestamp  = errors.New("invalid timestamp")
	ErrInvalidRate       = errors.New("rate must be between 0 and 100")
	ErrDuplicateCapID    = errors.New("duplicate cap definition id")
	ErrDuplicateCategory = errors.New("duplicate rule category")
	ErrMissingGeneral    = errors.New("ruleset has no general fallback rule")
)

// Time converts the epoch-millisecond timestamp to a time.Time.
func (t Transaction) Time() time.Time {
	return time.UnixMilli(t.Timestamp)
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.UserCardID) == "" {
		return ErrEmptyUserCardID
	}
	if t.Timestamp <= 0 {
		return ErrInvalidTimestamp
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (c UserCard) Validate() error {
	if strings.TrimSpace(c.CardDefID) == "" {
		return ErrEmptyCardDefID
	}
	if c.BillingCycleDay < 1 || c.BillingCycleDay > 31 {
		return ErrInvalidBillingDay
	}
	return nil
}

func validateRules(rules []RewardRule) error {
	seen := make(map[string]struct{}, len(rules))
	hasGeneral := false
	for _, rule := range rules {
		if strings.TrimSpace(rule.Category) == "" {
			return ErrEmptyCategory
		}
		if _, dup := seen[rule.Category]; dup {
			return ErrDuplicateCategory
		}
		seen[rule.Category] = struct{}{}
		if rule.Category == GeneralCategory {
			hasGeneral = true
		}
		for _, part := range rule.Parts {
			if part.Rate < 0 || part.Rate > 100 {
				return ErrInvalidRate
			}
		}
	}
	if !hasGeneral {
		return ErrMissingGeneral
	}
	return nil
}

// Validate checks the catalog invariants: one rule per category with a
// general fallback (per ruleset), and unique cap ids across the card.
func (d CardDefinition) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return ErrEmptyCardDefID
	}
	if err := validateRules(d.Rules); err != nil {
		return err
	}
	for _, scheme := range d.SubSchemes {
		if err := validateRules(scheme.Rules); err != nil {
			return err
		}
	}
	capIDs := make(map[string]struct{}, len(d.CapDefinitions))
	for _, capDef := range d.CapDefinitions {
		if _, dup := capIDs[capDef.ID]; dup {
			return ErrDuplicateCapID
		}
		capIDs[capDef.ID] = struct{}{}
	}
	return nil
}
