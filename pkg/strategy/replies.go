package strategy

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/baitline/baitline/pkg/session"
)

// ReplyBank holds the curated persona lines. Extract replies are keyed
// by the artifact category they are engineered to elicit; the other
// strategies draw from a flat pool.
type ReplyBank struct {
	ByStrategy map[Strategy][]string
	ByGoal     map[session.Category][]string
}

// DefaultReplyBank returns the built-in persona lines: a slightly
// bewildered, cooperative mark who keeps asking for specifics.
func DefaultReplyBank() *ReplyBank {
	return &ReplyBank{
		ByStrategy: map[Strategy][]string{
			StrategyConfuse: {
				"I don't understand what you mean",
				"Which bank are you talking about?",
				"Sorry, who is this again?",
				"My grandson usually handles these things for me",
			},
			StrategyDelay: {
				"I am busy now, can you explain slowly?",
				"I will check later, please guide me properly",
				"One minute, I am looking for my glasses",
				"The network here is very slow, please wait",
			},
			StrategyVerify: {
				"Which branch are you calling from exactly?",
				"Can you give me your employee ID so I can confirm?",
				"What is the official helpline number I should call back?",
			},
		},
		ByGoal: map[session.Category][]string{
			session.CategoryPaymentID: {
				"Which UPI ID should I use?",
				"Where should I pay exactly?",
				"Can you spell out the payment address for me?",
			},
			session.CategoryLink: {
				"Can you send the link again?",
				"The page did not open, please send the full link",
			},
			session.CategoryPhone: {
				"Is there a number I can call you back on?",
				"My phone is acting up, what number are you calling from?",
			},
			session.CategoryBankName: {
				"Which bank is this for?",
				"Is this about my savings account? Which bank?",
			},
		},
	}
}

// replyBankFile is the YAML override shape for the reply bank.
type replyBankFile struct {
	Strategies map[string][]string `yaml:"strategies"`
	Goals      map[string][]string `yaml:"goals"`
}

// LoadReplyBank reads persona lines from a YAML file. Strategies and
// goals not present in the file keep their built-in lines, so a partial
// override is valid.
func LoadReplyBank(path string) (*ReplyBank, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reply bank %s: %w", path, err)
	}

	var file replyBankFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse reply bank %s: %w", path, err)
	}
	if len(file.Strategies) == 0 && len(file.Goals) == 0 {
		return nil, fmt.Errorf("reply bank %s: no strategies or goals defined", path)
	}

	bank := DefaultReplyBank()
	for name, lines := range file.Strategies {
		if len(lines) == 0 {
			return nil, fmt.Errorf("reply bank %s: strategy %q has no lines", path, name)
		}
		bank.ByStrategy[Strategy(name)] = lines
	}
	for name, lines := range file.Goals {
		if len(lines) == 0 {
			return nil, fmt.Errorf("reply bank %s: goal %q has no lines", path, name)
		}
		bank.ByGoal[session.Category(name)] = lines
	}
	return bank, nil
}

// NewReplyBankFromFile loads a reply bank override, falling back to the
// built-in lines when path is empty or the file is unusable.
func NewReplyBankFromFile(path string) *ReplyBank {
	if path == "" {
		return DefaultReplyBank()
	}
	bank, err := LoadReplyBank(path)
	if err != nil {
		log.Printf("[STARTUP] reply bank override failed (%v), using built-in lines", err)
		return DefaultReplyBank()
	}
	return bank
}

// Responder turns a decision into a reply line. Line choice is uniform
// random and presentation-only; it never feeds back into state.
type Responder struct {
	bank *ReplyBank
	mu   sync.Mutex
	rng  *rand.Rand
}

// NewResponder creates a responder over bank. seed fixes the random
// stream for reproducible tests; pass 0 for a time-based seed.
func NewResponder(bank *ReplyBank, seed int64) *Responder {
	if bank == nil {
		bank = DefaultReplyBank()
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Responder{
		bank: bank,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// Reply picks one line for the decision. Extract decisions draw from the
// goal's pool so the line asks for exactly the missing artifact.
func (r *Responder) Reply(d Decision) string {
	var pool []string
	if d.Strategy == StrategyExtract {
		pool = r.bank.ByGoal[d.Goal]
	} else {
		pool = r.bank.ByStrategy[d.Strategy]
	}
	if len(pool) == 0 {
		// A misconfigured override can leave a pool empty; fall back to
		// a built-in stall rather than replying with nothing.
		pool = DefaultReplyBank().ByStrategy[StrategyDelay]
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return pool[r.rng.Intn(len(pool))]
}
