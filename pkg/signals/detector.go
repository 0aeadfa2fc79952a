package signals

import (
	"log"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MaxScore caps the per-turn signal score.
const MaxScore = 100

// Detector scores message text against a tactic taxonomy.
// It is pure and safe for concurrent use; the taxonomy is immutable after
// construction.
type Detector struct {
	tax    Taxonomy
	labels []Tactic
}

// NewDetector creates a detector over the given taxonomy.
// A nil taxonomy gets the built-in defaults.
//
// Phrases are folded through Normalize at construction so an override
// written with capitals or compatibility forms matches the normalized
// haystack it will be searched in.
func NewDetector(tax Taxonomy) *Detector {
	if tax == nil {
		tax = DefaultTaxonomy()
	}

	folded := make(Taxonomy, len(tax))
	for label, entry := range tax {
		phrases := make([]string, len(entry.Phrases))
		for i, p := range entry.Phrases {
			phrases[i] = Normalize(p)
		}
		folded[label] = Entry{Weight: entry.Weight, Phrases: phrases}
	}

	return &Detector{tax: folded, labels: folded.Labels()}
}

// NewDetectorFromFile creates a detector from a YAML taxonomy override,
// falling back to the built-in defaults when the path is empty or the file
// cannot be loaded. Load failures are logged, never fatal.
func NewDetectorFromFile(path string) *Detector {
	if path == "" {
		return NewDetector(nil)
	}
	tax, err := LoadTaxonomy(path)
	if err != nil {
		log.Printf("[SIGNALS] Warning: %v. Using built-in taxonomy.", err)
		return NewDetector(nil)
	}
	return NewDetector(tax)
}

// Detect returns the tactics present in text and a bounded risk score.
//
// Matching is case-insensitive substring presence after NFKC normalization,
// so full-width and compatibility forms cannot dodge the vocabulary. Each
// tactic counts at most once regardless of how many of its phrases occur.
// Empty text yields no tactics and score 0.
func (d *Detector) Detect(text string) ([]Tactic, int) {
	if text == "" {
		return nil, 0
	}

	haystack := Normalize(text)

	var tactics []Tactic
	score := 0
	for _, label := range d.labels {
		entry := d.tax[label]
		for _, phrase := range entry.Phrases {
			if strings.Contains(haystack, phrase) {
				tactics = append(tactics, label)
				score += entry.Weight
				break // one hit per tactic
			}
		}
	}

	if score > MaxScore {
		score = MaxScore
	}
	return tactics, score
}

// Has reports whether label is among the detected tactics.
func Has(tactics []Tactic, label Tactic) bool {
	for _, t := range tactics {
		if t == label {
			return true
		}
	}
	return false
}

// Strings converts a tactic slice to plain strings for serialization.
// Always returns a non-nil slice so the JSON field is [] rather than null.
func Strings(tactics []Tactic) []string {
	out := make([]string, len(tactics))
	for i, t := range tactics {
		out[i] = string(t)
	}
	return out
}

// Normalize folds text to the form the vocabulary is matched against:
// NFKC-normalized and lowercased.
func Normalize(text string) string {
	return strings.ToLower(norm.NFKC.String(text))
}
