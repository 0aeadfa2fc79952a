// Package intel extracts structured attacker artifacts from raw message
// text: links, payment handles, phone numbers, bank account numbers, and
// bank names. Recognizers are independent, order-insensitive, and return
// raw matches; deduplication and normalization happen in the session state
// machine, not here.
package intel

import (
	"regexp"
	"strings"
)

// Pre-compiled recognizer patterns (compiled once, used many times)
var (
	reLink      = regexp.MustCompile(`(?i)\bhttps?://\S+`)
	reHandle    = regexp.MustCompile(`\b[A-Za-z0-9][A-Za-z0-9._-]*@[A-Za-z]{2,}\b`)
	rePhoneIntl = regexp.MustCompile(`\+\d{1,3}[ -]?\d{10}\b`)
	reDigitRun  = regexp.MustCompile(`\b\d+\b`)
)

// paymentSuffixes is the restricted handle-suffix vocabulary. A token like
// user@upi is a payment alias; user@gmail is not. Biasing precision over
// recall here keeps generic email addresses out of the payment-id field.
var paymentSuffixes = map[string]bool{
	"upi":        true,
	"ybl":        true,
	"paytm":      true,
	"apl":        true,
	"axl":        true,
	"ibl":        true,
	"oksbi":      true,
	"okaxis":     true,
	"okicici":    true,
	"okhdfcbank": true,
}

// bankNames is the fixed vocabulary of bank abbreviations, matched
// case-insensitively as substrings and emitted uppercased.
var bankNames = []string{
	"sbi", "hdfc", "icici", "axis", "kotak", "pnb",
	"canara", "idbi", "idfc", "rbi", "union bank", "yes bank",
}

// Bundle holds one turn's raw extraction results. Lists may be empty and
// may contain duplicates or overlapping values (a bare 10-digit run is
// both a phone candidate and an account candidate).
type Bundle struct {
	Links        []string
	PaymentIDs   []string
	Phones       []string
	BankAccounts []string
	BankNames    []string
}

// Empty reports whether no recognizer matched anything.
func (b Bundle) Empty() bool {
	return len(b.Links) == 0 && len(b.PaymentIDs) == 0 && len(b.Phones) == 0 &&
		len(b.BankAccounts) == 0 && len(b.BankNames) == 0
}

// Extract runs all recognizers on text. Pure; no taxonomy weighting.
func Extract(text string) Bundle {
	if text == "" {
		return Bundle{}
	}

	var b Bundle

	for _, m := range reLink.FindAllString(text, -1) {
		b.Links = append(b.Links, trimLink(m))
	}

	for _, m := range reHandle.FindAllString(text, -1) {
		at := strings.LastIndexByte(m, '@')
		if paymentSuffixes[strings.ToLower(m[at+1:])] {
			b.PaymentIDs = append(b.PaymentIDs, m)
		}
	}

	// International numbers first; their digit spans are excluded from the
	// bare-run scan so +919876543210 does not also surface as 919876543210.
	intl := rePhoneIntl.FindAllStringIndex(text, -1)
	for _, span := range intl {
		b.Phones = append(b.Phones, normalizePhone(text[span[0]:span[1]]))
	}

	for _, span := range reDigitRun.FindAllStringIndex(text, -1) {
		if coveredBy(span, intl) {
			continue
		}
		run := text[span[0]:span[1]]
		if len(run) == 10 {
			b.Phones = append(b.Phones, run)
		}
		if len(run) >= 9 && len(run) <= 18 {
			b.BankAccounts = append(b.BankAccounts, run)
		}
	}

	lower := strings.ToLower(text)
	for _, name := range bankNames {
		if strings.Contains(lower, name) {
			b.BankNames = append(b.BankNames, strings.ToUpper(name))
		}
	}

	return b
}

// trimLink strips trailing sentence punctuation that the greedy
// non-whitespace run swallows ("visit http://x.test/verify." and the like).
func trimLink(link string) string {
	return strings.TrimRight(link, `.,;:!?)"'>`)
}

// normalizePhone collapses separator characters inside an
// internationally-prefixed number.
func normalizePhone(raw string) string {
	var sb strings.Builder
	for _, r := range raw {
		if r == '+' || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// coveredBy reports whether span falls inside any of the claimed spans.
func coveredBy(span []int, claimed [][]int) bool {
	for _, c := range claimed {
		if span[0] >= c[0] && span[1] <= c[1] {
			return true
		}
	}
	return false
}
