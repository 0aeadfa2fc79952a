package session

import (
	"strings"

	"github.com/baitline/baitline/pkg/intel"
	"github.com/baitline/baitline/pkg/signals"
)

// Category names an intelligence slot the goal-directed strategy can try
// to fill. categoryPriority fixes the elicitation order.
type Category string

const (
	CategoryPaymentID Category = "payment_id"
	CategoryLink      Category = "link"
	CategoryPhone     Category = "phone"
	CategoryBankName  Category = "bank_name"
)

var categoryPriority = []Category{CategoryPaymentID, CategoryLink, CategoryPhone, CategoryBankName}

// TurnInput carries one turn's detection and extraction results into the
// state machine.
type TurnInput struct {
	Tactics []signals.Tactic
	Score   int
	Bundle  intel.Bundle
}

// TurnContext is what the strategy selector needs from the updated
// session: the post-merge state plus this turn's tactics.
type TurnContext struct {
	Confirmed bool
	RiskScore int
	Tactics   []signals.Tactic
	Missing   []Category
}

// Apply folds one turn into the record. It is the single mutation point
// for session state; callers must hold the record's exclusive window.
//
// confirmThreshold is the single authoritative confirmation constant: a
// turn whose score exceeds it confirms the session permanently.
func Apply(rec *Record, in TurnInput, confirmThreshold int) TurnContext {
	rec.MessageCount++

	if in.Score > rec.RiskScore {
		rec.RiskScore = in.Score
	}
	if in.Score > confirmThreshold {
		rec.Confirmed = true
	}

	for _, tactic := range in.Tactics {
		rec.Intelligence.Keywords.Add(string(tactic))
	}
	mergeBundle(&rec.Intelligence, in.Bundle)

	return TurnContext{
		Confirmed: rec.Confirmed,
		RiskScore: rec.RiskScore,
		Tactics:   in.Tactics,
		Missing:   missingCategories(&rec.Intelligence),
	}
}

// mergeBundle unions a raw extraction bundle into the intelligence sets,
// normalizing each value on the way in so dedup is format-insensitive.
func mergeBundle(intl *Intelligence, b intel.Bundle) {
	for _, v := range b.Links {
		intl.Links.Add(strings.TrimSpace(v))
	}
	for _, v := range b.PaymentIDs {
		intl.PaymentIDs.Add(strings.ToLower(strings.TrimSpace(v)))
	}
	for _, v := range b.Phones {
		intl.Phones.Add(strings.TrimSpace(v))
	}
	for _, v := range b.BankAccounts {
		intl.BankAccounts.Add(strings.TrimSpace(v))
	}
	for _, v := range b.BankNames {
		intl.BankNames.Add(strings.ToUpper(strings.TrimSpace(v)))
	}
}

// missingCategories lists still-empty intelligence slots in elicitation
// priority order.
func missingCategories(intl *Intelligence) []Category {
	var missing []Category
	for _, cat := range categoryPriority {
		switch cat {
		case CategoryPaymentID:
			if intl.PaymentIDs.Len() == 0 {
				missing = append(missing, cat)
			}
		case CategoryLink:
			if intl.Links.Len() == 0 {
				missing = append(missing, cat)
			}
		case CategoryPhone:
			if intl.Phones.Len() == 0 {
				missing = append(missing, cat)
			}
		case CategoryBankName:
			if intl.BankNames.Len() == 0 {
				missing = append(missing, cat)
			}
		}
	}
	return missing
}
