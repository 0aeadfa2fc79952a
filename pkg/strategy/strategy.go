// Package strategy picks the engagement posture for each turn. The
// policy is a deterministic function of session state; only the reply
// wording is randomized, and that lives in Responder.
package strategy

import (
	"github.com/baitline/baitline/pkg/session"
	"github.com/baitline/baitline/pkg/signals"
)

// Strategy is the conversational posture chosen for a turn.
type Strategy string

const (
	// StrategyConfuse stalls with feigned confusion before the
	// counterpart is confirmed as hostile.
	StrategyConfuse Strategy = "confuse"

	// StrategyDelay stalls for time while appearing cooperative.
	StrategyDelay Strategy = "delay"

	// StrategyExtract asks for a specific still-missing artifact.
	StrategyExtract Strategy = "extract"

	// StrategyVerify probes a claimed institution to cross-check an
	// impersonation attempt.
	StrategyVerify Strategy = "verify"
)

// Decision is the outcome of one policy evaluation. Goal is set only for
// StrategyExtract and names the artifact category the reply should
// elicit.
type Decision struct {
	Strategy Strategy
	Goal     session.Category
}

// Selector evaluates the turn policy. It is stateless beyond its
// threshold configuration.
type Selector struct {
	extractThreshold int
}

// NewSelector creates a selector. extractThreshold is the risk score at
// which the engagement moves from stalling to goal-directed extraction.
func NewSelector(extractThreshold int) *Selector {
	return &Selector{extractThreshold: extractThreshold}
}

// Select maps the post-update session context to a decision.
//
// Order matters: confusion before confirmation, delay below the
// extraction threshold, then the first missing artifact in priority
// order, then verification of impersonation claims, then a generic
// stall.
func (s *Selector) Select(tc session.TurnContext) Decision {
	if !tc.Confirmed {
		return Decision{Strategy: StrategyConfuse}
	}
	if tc.RiskScore < s.extractThreshold {
		return Decision{Strategy: StrategyDelay}
	}
	if len(tc.Missing) > 0 {
		return Decision{Strategy: StrategyExtract, Goal: tc.Missing[0]}
	}
	for _, tactic := range tc.Tactics {
		if tactic == signals.TacticImpersonation {
			return Decision{Strategy: StrategyVerify}
		}
	}
	return Decision{Strategy: StrategyDelay}
}
