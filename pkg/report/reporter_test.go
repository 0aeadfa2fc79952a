package report

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/baitline/baitline/pkg/session"
)

func concludedRecord() *session.Record {
	rec := &session.Record{ID: "scam-42", MessageCount: 7, RiskScore: 80, Confirmed: true}
	rec.Intelligence.PaymentIDs.Add("fraud@upi")
	rec.Intelligence.Links.Add("http://evil.example/kyc")
	rec.Intelligence.Keywords.Add("urgency")
	rec.Intelligence.BankNames.Add("SBI")
	return rec
}

func TestNewPayload(t *testing.T) {
	rec := concludedRecord()
	p := NewPayload(rec, "escalation detected, payment intel captured")

	if p.ReportID == "" {
		t.Error("Expected a generated report id")
	}
	if p.SessionID != "scam-42" || !p.ScamDetected || p.TotalMessagesExchanged != 7 {
		t.Errorf("Unexpected payload header fields: %+v", p)
	}
	if len(p.ExtractedIntelligence.PaymentIDs) != 1 {
		t.Errorf("Expected intelligence snapshot carried, got %+v", p.ExtractedIntelligence)
	}
	if len(p.ExtractedIntelligence.Keywords) != 2 {
		t.Errorf("Expected bank name folded into keywords, got %v", p.ExtractedIntelligence.Keywords)
	}
}

func TestReporter_Send(t *testing.T) {
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected JSON content type, got %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewReporter(srv.URL, 2*time.Second, 4)
	p := NewPayload(concludedRecord(), "test notes")

	if err := r.Send(context.Background(), p); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if got.SessionID != "scam-42" {
		t.Errorf("Expected payload delivered intact, got %+v", got)
	}
	if got.ExtractedIntelligence.PaymentIDs[0] != "fraud@upi" {
		t.Errorf("Expected payment id on the wire, got %v", got.ExtractedIntelligence.PaymentIDs)
	}
}

func TestReporter_SendErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	r := NewReporter(srv.URL, 2*time.Second, 4)
	if err := r.Send(context.Background(), NewPayload(concludedRecord(), "")); err == nil {
		t.Error("Expected error on non-2xx response")
	}

	down := NewReporter("http://127.0.0.1:1", 500*time.Millisecond, 4)
	if err := down.Send(context.Background(), NewPayload(concludedRecord(), "")); err == nil {
		t.Error("Expected error when callback is unreachable")
	}
}

func TestReporter_DisabledURL(t *testing.T) {
	r := NewReporter("", time.Second, 4)
	if err := r.Send(context.Background(), NewPayload(concludedRecord(), "")); err != nil {
		t.Errorf("Empty URL must be a silent no-op, got %v", err)
	}
	r.Dispatch(NewPayload(concludedRecord(), ""))
}

func TestReporter_DispatchDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	received := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		mu.Lock()
		received++
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewReporter(srv.URL, 5*time.Second, 2)

	start := time.Now()
	r.Dispatch(NewPayload(concludedRecord(), ""))
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Dispatch must return immediately, took %v", elapsed)
	}
	close(release)

	deadline := time.After(3 * time.Second)
	for {
		mu.Lock()
		done := received == 1
		mu.Unlock()
		if done {
			break
		}
		select {
		case <-deadline:
			t.Fatal("Dispatched report never arrived")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
