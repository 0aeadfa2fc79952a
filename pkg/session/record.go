// Package session owns per-conversation state: the record, the stores that
// guard it, and the state machine that is the sole mutation point.
package session

import (
	"encoding/json"
	"time"
)

// StringSet is a grow-only string set that preserves insertion order.
// It serializes as a plain JSON array so records survive the redis
// round-trip and the set lands in API payloads as a list.
//
// Not safe for concurrent use on its own; records are only touched inside
// a store's exclusive update window.
type StringSet struct {
	seen map[string]struct{}
	vals []string
}

// Add inserts v if absent and reports whether it was inserted.
func (s *StringSet) Add(v string) bool {
	if v == "" {
		return false
	}
	if _, ok := s.seen[v]; ok {
		return false
	}
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	s.seen[v] = struct{}{}
	s.vals = append(s.vals, v)
	return true
}

// Len returns the number of distinct values.
func (s *StringSet) Len() int { return len(s.vals) }

// Values returns the distinct values in insertion order. The returned
// slice is a copy and never nil.
func (s *StringSet) Values() []string {
	out := make([]string, len(s.vals))
	copy(out, s.vals)
	return out
}

func (s *StringSet) clone() StringSet {
	var c StringSet
	for _, v := range s.vals {
		c.Add(v)
	}
	return c
}

// MarshalJSON encodes the set as an array, empty rather than null.
func (s StringSet) MarshalJSON() ([]byte, error) {
	if s.vals == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.vals)
}

// UnmarshalJSON rebuilds the set from an array, dropping duplicates.
func (s *StringSet) UnmarshalJSON(data []byte) error {
	var vals []string
	if err := json.Unmarshal(data, &vals); err != nil {
		return err
	}
	*s = StringSet{}
	for _, v := range vals {
		s.Add(v)
	}
	return nil
}

// Intelligence is the deduplicated collection of attacker artifacts
// gathered over a session. Each set only grows.
//
// Bank names are tracked in their own set so the goal-directed strategy
// can tell whether that slot is still empty; on the wire they fold into
// the suspicious-keywords list (see Snapshot).
type Intelligence struct {
	BankAccounts StringSet `json:"bankAccounts"`
	PaymentIDs   StringSet `json:"upiIds"`
	Links        StringSet `json:"phishingLinks"`
	Phones       StringSet `json:"phoneNumbers"`
	Keywords     StringSet `json:"suspiciousKeywords"`
	BankNames    StringSet `json:"bankNames"`
}

func (i *Intelligence) clone() Intelligence {
	return Intelligence{
		BankAccounts: i.BankAccounts.clone(),
		PaymentIDs:   i.PaymentIDs.clone(),
		Links:        i.Links.clone(),
		Phones:       i.Phones.clone(),
		Keywords:     i.Keywords.clone(),
		BankNames:    i.BankNames.clone(),
	}
}

// IntelligenceSnapshot is the externally visible five-list shape used in
// turn results and finalization reports. Every list is deduplicated and
// non-nil.
type IntelligenceSnapshot struct {
	BankAccounts []string `json:"bankAccounts"`
	PaymentIDs   []string `json:"upiIds"`
	Links        []string `json:"phishingLinks"`
	Phones       []string `json:"phoneNumbers"`
	Keywords     []string `json:"suspiciousKeywords"`
}

// Snapshot flattens the intelligence sets into the wire shape, merging
// bank names into the suspicious-keywords list.
func (i *Intelligence) Snapshot() IntelligenceSnapshot {
	kw := i.Keywords.clone()
	for _, name := range i.BankNames.Values() {
		kw.Add(name)
	}
	return IntelligenceSnapshot{
		BankAccounts: i.BankAccounts.Values(),
		PaymentIDs:   i.PaymentIDs.Values(),
		Links:        i.Links.Values(),
		Phones:       i.Phones.Values(),
		Keywords:     kw.Values(),
	}
}

// Record is the per-session state. One exists per conversation
// identifier, created lazily on first message.
//
// Invariants, enforced by Apply and the stores:
//   - MessageCount never decreases.
//   - RiskScore is max-monotone within [0,100].
//   - Confirmed and Reported are sticky once true.
//   - Intelligence sets are union-only.
type Record struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	LastSeenAt time.Time `json:"lastSeenAt"`

	MessageCount int  `json:"messageCount"`
	RiskScore    int  `json:"riskScore"`
	Confirmed    bool `json:"confirmed"`
	Reported     bool `json:"reported"`

	Intelligence Intelligence `json:"intelligence"`
}

// Clone returns a deep copy, safe to read outside the store's lock.
func (r *Record) Clone() *Record {
	c := *r
	c.Intelligence = r.Intelligence.clone()
	return &c
}
