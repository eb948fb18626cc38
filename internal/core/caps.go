package core

import "time"

// ConsumedReward sums the credited rewards of transactions whose timestamp
// falls inside [start, end], both ends inclusive. A non-nil categories slice
// restricts the sum to transactions recorded under one of those categories.
// The caller supplies the history; no persistence is touched here.
func ConsumedReward(txs []Transaction, start, end time.Time, categories []string) Money {
	var filter map[string]struct{}
	if categories != nil {
		filter = make(map[string]struct{}, len(categories))
		for _, c := range categories {
			filter[c] = struct{}{}
		}
	}

	startMs, endMs := start.UnixMilli(), end.UnixMilli()
	var total Money
	for _, tx := range txs {
		if tx.Timestamp < startMs || tx.Timestamp > endMs {
			continue
		}
		if filter != nil {
			if _, ok := filter[tx.Category]; !ok {
				continue
			}
		}
		total = total.Add(tx.RewardAmount)
	}
	return total
}

// consumedForCap pools cap usage across every category that the given
// ruleset routes to a rule referencing capID. Each transaction is attributed
// to the rule its recorded category would select, so a shared cap referenced
// by the general rule also absorbs spends with no exact-match rule.
func consumedForCap(rules []RewardRule, capID string, txs []Transaction, start, end time.Time) Money {
	startMs, endMs := start.UnixMilli(), end.UnixMilli()
	var total Money
	for _, tx := range txs {
		if tx.Timestamp < startMs || tx.Timestamp > endMs {
			continue
		}
		rule := SelectRule(rules, tx.Category)
		if rule == nil || !ruleUsesCap(*rule, capID) {
			continue
		}
		total = total.Add(tx.RewardAmount)
	}
	return total
}

func ruleUsesCap(rule RewardRule, capID string) bool {
	for _, part := range rule.Parts {
		if part.CapGroupID == capID {
			return true
		}
	}
	return false
}
