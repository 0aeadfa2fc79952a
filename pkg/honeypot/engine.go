// Package honeypot wires detection, extraction, session state, strategy,
// and finalization into the per-turn engagement engine.
package honeypot

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/baitline/baitline/pkg/config"
	"github.com/baitline/baitline/pkg/intel"
	"github.com/baitline/baitline/pkg/report"
	"github.com/baitline/baitline/pkg/session"
	"github.com/baitline/baitline/pkg/signals"
	"github.com/baitline/baitline/pkg/strategy"
	"github.com/baitline/baitline/pkg/telemetry"
)

// Validation sentinels. A turn that fails validation leaves all session
// state untouched.
var (
	ErrEmptySessionID = errors.New("session id is required")
	ErrEmptyMessage   = errors.New("message text is required")
)

// agentNotes is the human-readable conclusion line attached to every
// finalization report.
const agentNotes = "Persona engagement confirmed escalation and extracted payment intelligence"

// Message is one inbound turn from the counterpart.
type Message struct {
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// TurnResult is returned to the transport layer for serialization.
type TurnResult struct {
	SessionID             string                       `json:"sessionId"`
	ScamDetected          bool                         `json:"scamDetected"`
	RiskScore             int                          `json:"riskScore"`
	TotalMessages         int                          `json:"totalMessages"`
	TacticsDetected       []string                     `json:"tacticsDetected"`
	AgentStrategy         string                       `json:"agentStrategy"`
	ExtractedIntelligence session.IntelligenceSnapshot `json:"extractedIntelligence"`
	Reply                 string                       `json:"reply"`
}

// Engine handles one conversation turn end to end. It is safe for
// concurrent use; all per-session state lives in the store.
type Engine struct {
	store    session.Store
	detector *signals.Detector
	selector *strategy.Selector
	replies  *strategy.Responder
	reporter *report.Reporter

	confirmThreshold int
	minTurns         int
}

// NewEngine assembles an engine from configuration and a session store.
// The caller owns the store's lifecycle.
func NewEngine(cfg *config.Config, store session.Store) *Engine {
	return &Engine{
		store:            store,
		detector:         signals.NewDetectorFromFile(cfg.TaxonomyPath),
		selector:         strategy.NewSelector(cfg.ExtractThreshold),
		replies:          strategy.NewResponder(strategy.NewReplyBankFromFile(cfg.ReplyBankPath), cfg.ReplySeed),
		reporter:         report.NewReporter(cfg.CallbackURL, cfg.CallbackTimeout, cfg.MaxInflightReport),
		confirmThreshold: cfg.ConfirmThreshold,
		minTurns:         cfg.MinEngagementTurns,
	}
}

// HandleTurn runs one inbound message through the full pipeline and
// returns the reply plus session status.
//
// Detection and extraction run outside the session lock; only the state
// fold and the report-fire decision happen inside the store's exclusive
// window. The reported flag flips before the outbound call is even
// attempted, so a concurrent turn on the same session cannot double-fire.
func (e *Engine) HandleTurn(ctx context.Context, sessionID string, msg Message) (*TurnResult, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrEmptySessionID
	}
	if strings.TrimSpace(msg.Text) == "" {
		return nil, ErrEmptyMessage
	}

	started := time.Now()

	tactics, score := e.detector.Detect(msg.Text)
	bundle := intel.Extract(msg.Text)

	var (
		tc           session.TurnContext
		fireReport   bool
		newConfirmed bool
		delta        intelDelta
	)
	rec, err := e.store.Update(ctx, sessionID, func(r *session.Record) error {
		wasConfirmed := r.Confirmed
		before := countIntel(r)

		tc = session.Apply(r, session.TurnInput{
			Tactics: tactics,
			Score:   score,
			Bundle:  bundle,
		}, e.confirmThreshold)

		newConfirmed = r.Confirmed && !wasConfirmed
		delta = countIntel(r).sub(before)

		// Recomputed on every invocation: a store may re-run fn on fresh
		// state after a write conflict, and a stale latch from the aborted
		// attempt must not survive into the dispatch decision.
		fireReport = r.Confirmed && !r.Reported && r.MessageCount >= e.minTurns
		if fireReport {
			r.Reported = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	decision := e.selector.Select(tc)
	reply := e.replies.Reply(decision)

	if fireReport {
		e.reporter.Dispatch(report.NewPayload(rec, agentNotes))
	}

	observeTurn(decision.Strategy, newConfirmed, delta, time.Since(started))

	return &TurnResult{
		SessionID:             rec.ID,
		ScamDetected:          rec.Confirmed,
		RiskScore:             rec.RiskScore,
		TotalMessages:         rec.MessageCount,
		TacticsDetected:       signals.Strings(tactics),
		AgentStrategy:         string(decision.Strategy),
		ExtractedIntelligence: rec.Intelligence.Snapshot(),
		Reply:                 reply,
	}, nil
}

// Close releases the engine's store.
func (e *Engine) Close() error {
	return e.store.Close()
}

type intelDelta struct {
	paymentIDs, links, phones, bankAccounts, bankNames int
}

func countIntel(r *session.Record) intelDelta {
	return intelDelta{
		paymentIDs:   r.Intelligence.PaymentIDs.Len(),
		links:        r.Intelligence.Links.Len(),
		phones:       r.Intelligence.Phones.Len(),
		bankAccounts: r.Intelligence.BankAccounts.Len(),
		bankNames:    r.Intelligence.BankNames.Len(),
	}
}

func (d intelDelta) sub(o intelDelta) intelDelta {
	return intelDelta{
		paymentIDs:   d.paymentIDs - o.paymentIDs,
		links:        d.links - o.links,
		phones:       d.phones - o.phones,
		bankAccounts: d.bankAccounts - o.bankAccounts,
		bankNames:    d.bankNames - o.bankNames,
	}
}

func observeTurn(s strategy.Strategy, confirmed bool, d intelDelta, elapsed time.Duration) {
	telemetry.TurnsTotal.WithLabelValues(string(s)).Inc()
	telemetry.TurnDuration.Observe(elapsed.Seconds())
	if confirmed {
		telemetry.SessionsConfirmedTotal.Inc()
	}
	for category, n := range map[string]int{
		"payment_id":   d.paymentIDs,
		"link":         d.links,
		"phone":        d.phones,
		"bank_account": d.bankAccounts,
		"bank_name":    d.bankNames,
	} {
		if n > 0 {
			telemetry.IntelligenceItemsTotal.WithLabelValues(category).Add(float64(n))
		}
	}
}
