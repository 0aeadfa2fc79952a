// Package report delivers the one-shot finalization callback for a
// concluded engagement. Delivery is best-effort: no retries, short
// timeout, failures observed but never surfaced to the turn path.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/baitline/baitline/pkg/httputil"
	"github.com/baitline/baitline/pkg/session"
	"github.com/baitline/baitline/pkg/telemetry"
)

// Payload is the outbound report body.
type Payload struct {
	ReportID               string                       `json:"reportId"`
	SessionID              string                       `json:"sessionId"`
	ScamDetected           bool                         `json:"scamDetected"`
	TotalMessagesExchanged int                          `json:"totalMessagesExchanged"`
	ExtractedIntelligence  session.IntelligenceSnapshot `json:"extractedIntelligence"`
	AgentNotes             string                       `json:"agentNotes"`
}

// NewPayload builds a report payload from a concluded session record.
func NewPayload(rec *session.Record, notes string) Payload {
	return Payload{
		ReportID:               uuid.NewString(),
		SessionID:              rec.ID,
		ScamDetected:           true,
		TotalMessagesExchanged: rec.MessageCount,
		ExtractedIntelligence:  rec.Intelligence.Snapshot(),
		AgentNotes:             notes,
	}
}

// Reporter posts finalization payloads to the configured callback URL.
type Reporter struct {
	url     string
	client  *http.Client
	limiter *httputil.Limiter
}

// NewReporter creates a reporter. An empty url disables delivery:
// Dispatch becomes a no-op that still counts outcomes.
func NewReporter(url string, timeout time.Duration, maxInflight int) *Reporter {
	return &Reporter{
		url:     url,
		client:  httputil.ClientWithTimeout(timeout),
		limiter: httputil.NewLimiter(maxInflight),
	}
}

// Send posts the payload synchronously and returns the transport error,
// if any. Dispatch is the production path; Send exists for callers that
// need the outcome.
func (r *Reporter) Send(ctx context.Context, p Payload) error {
	if r.url == "" {
		return nil
	}

	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode report %s: %w", p.ReportID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("post report %s: %w", p.ReportID, err)
	}
	defer httputil.DrainAndClose(resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("post report %s: callback returned %d", p.ReportID, resp.StatusCode)
	}
	return nil
}

// Dispatch fires the report without blocking the caller. The outcome is
// logged and counted; errors are swallowed. At the in-flight bound the
// report is dropped rather than queued.
func (r *Reporter) Dispatch(p Payload) {
	if !r.limiter.TryAcquire() {
		log.Printf("[REPORT] dropped report %s for session %s: dispatcher saturated", p.ReportID, p.SessionID)
		telemetry.ReportsTotal.WithLabelValues(telemetry.ReportDropped).Inc()
		return
	}

	go func() {
		defer r.limiter.Release()

		if err := r.Send(context.Background(), p); err != nil {
			log.Printf("[REPORT] delivery failed for session %s: %v", p.SessionID, err)
			telemetry.ReportsTotal.WithLabelValues(telemetry.ReportFailed).Inc()
			return
		}
		log.Printf("[REPORT] delivered report %s for session %s (%d messages)",
			p.ReportID, p.SessionID, p.TotalMessagesExchanged)
		telemetry.ReportsTotal.WithLabelValues(telemetry.ReportSent).Inc()
	}()
}
