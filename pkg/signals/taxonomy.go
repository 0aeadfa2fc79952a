// Package signals scores inbound messages against a weighted taxonomy of
// scam tactics. Detection is deliberately shallow: case-insensitive phrase
// presence, one hit per tactic, weights summed and capped. Anything smarter
// than vocabulary matching is out of scope for this engine.
package signals

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Tactic is a named scam-behavior category detected via phrase presence.
type Tactic string

const (
	TacticUrgency       Tactic = "urgency"
	TacticThreat        Tactic = "threat"
	TacticPayment       Tactic = "payment"
	TacticPhishing      Tactic = "phishing"
	TacticImpersonation Tactic = "impersonation"
)

// Entry holds the trigger vocabulary and score weight for one tactic.
type Entry struct {
	Weight  int      `yaml:"weight"`
	Phrases []string `yaml:"phrases"`
}

// Taxonomy maps each tactic to its trigger phrases and weight.
type Taxonomy map[Tactic]Entry

// DefaultTaxonomy returns the built-in tactic vocabulary.
//
// Weights are tuned so that a message hitting urgency+threat+payment (the
// classic account-freeze script) lands at 60, past the confirmation
// threshold in a single turn.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		TacticUrgency: {
			Weight: 15,
			Phrases: []string{
				"urgent", "immediately", "right now", "now", "today",
				"asap", "act fast", "last chance", "expires",
			},
		},
		TacticThreat: {
			Weight: 20,
			Phrases: []string{
				"blocked", "suspended", "closed", "deactivated",
				"legal action", "police", "arrest", "penalty",
			},
		},
		TacticPayment: {
			Weight: 25,
			Phrases: []string{
				"upi", "transfer", "pay", "send money", "deposit",
				"processing fee", "refund", "wallet",
			},
		},
		TacticPhishing: {
			Weight: 20,
			Phrases: []string{
				"click", "verify", "link", "login", "password",
				"otp", "one time password", "update your details",
			},
		},
		TacticImpersonation: {
			Weight: 20,
			Phrases: []string{
				"bank", "support", "official", "customer care",
				"government", "tax department", "lottery",
			},
		},
	}
}

// taxonomyFile mirrors the YAML override structure.
type taxonomyFile struct {
	Tactics map[string]Entry `yaml:"tactics"`
}

// LoadTaxonomy reads a taxonomy override from a YAML file.
//
// The file replaces the vocabulary wholesale; it does not merge with the
// defaults. Callers wanting graceful fallback should use NewDetectorFromFile.
func LoadTaxonomy(path string) (Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy %s: %w", path, err)
	}

	var file taxonomyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse taxonomy %s: %w", path, err)
	}
	if len(file.Tactics) == 0 {
		return nil, fmt.Errorf("taxonomy %s defines no tactics", path)
	}

	tax := make(Taxonomy, len(file.Tactics))
	for name, entry := range file.Tactics {
		if entry.Weight <= 0 || len(entry.Phrases) == 0 {
			return nil, fmt.Errorf("taxonomy %s: tactic %q needs a positive weight and at least one phrase", path, name)
		}
		tax[Tactic(name)] = entry
	}
	return tax, nil
}

// Labels returns the taxonomy's tactics in a stable order. Known tactics
// come first in detection-priority order, any custom ones follow sorted.
func (t Taxonomy) Labels() []Tactic {
	known := []Tactic{TacticUrgency, TacticThreat, TacticPayment, TacticPhishing, TacticImpersonation}

	out := make([]Tactic, 0, len(t))
	seen := make(map[Tactic]bool, len(t))
	for _, label := range known {
		if _, ok := t[label]; ok {
			out = append(out, label)
			seen[label] = true
		}
	}

	var extra []Tactic
	for label := range t {
		if !seen[label] {
			extra = append(extra, label)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}
