package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adsentry-team/adsentry/internal/config"
	"github.com/adsentry-team/adsentry/internal/model"
)

func testAlert() model.Alert {
	return model.Alert{
		Type:           model.AlertTypeBudget,
		Severity:       model.SeverityWarning,
		MetricName:     "budget_utilization",
		CurrentValue:   92.5,
		ThresholdValue: 80,
		Message:        "Campaign google_ads_camp_001 at 92.5% budget",
		Timestamp:      time.Now(),
	}
}

func TestSlackNotifier_Send(t *testing.T) {
	var received slackMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n, err := NewSlackNotifier(&config.NotifierConfig{
		Type:       "slack",
		WebhookURL: server.URL,
		Retries:    3,
		RetryDelay: "10ms",
	})
	if err != nil {
		t.Fatalf("NewSlackNotifier() failed: %v", err)
	}

	if err := n.Send(context.Background(), []model.Alert{testAlert()}); err != nil {
		t.Fatalf("Send() failed: %v", err)
	}

	if !strings.Contains(received.Text, "92.5% budget") {
		t.Errorf("message text = %q, want to contain the alert message", received.Text)
	}
	if len(received.Attachments) != 1 {
		t.Fatalf("got %d attachments, want 1", len(received.Attachments))
	}
	att := received.Attachments[0]
	if att.Color != "warning" {
		t.Errorf("attachment color = %q, want warning", att.Color)
	}
	if len(att.Fields) != 4 {
		t.Fatalf("got %d fields, want 4", len(att.Fields))
	}
	if att.Fields[0].Title != "Metric" || att.Fields[0].Value != "budget_utilization" {
		t.Errorf("first field = %+v, want the metric name", att.Fields[0])
	}
}

func TestSlackNotifier_SendRetriesOnFailure(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n, err := NewSlackNotifier(&config.NotifierConfig{
		Type:       "slack",
		WebhookURL: server.URL,
		Retries:    3,
		RetryDelay: "1ms",
	})
	if err != nil {
		t.Fatalf("NewSlackNotifier() failed: %v", err)
	}

	if err := n.Send(context.Background(), []model.Alert{testAlert()}); err != nil {
		t.Fatalf("Send() should succeed after retries: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("server called %d times, want 3", got)
	}
}

func TestSlackNotifier_SendFailsAfterRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	n, err := NewSlackNotifier(&config.NotifierConfig{
		Type:       "slack",
		WebhookURL: server.URL,
		Retries:    2,
		RetryDelay: "1ms",
	})
	if err != nil {
		t.Fatalf("NewSlackNotifier() failed: %v", err)
	}

	if err := n.Send(context.Background(), []model.Alert{testAlert()}); err == nil {
		t.Error("Send() should fail when the webhook keeps erroring")
	}
}

func TestSlackNotifier_SendCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	n, err := NewSlackNotifier(&config.NotifierConfig{
		Type:       "slack",
		WebhookURL: server.URL,
		Retries:    5,
		RetryDelay: "1h", // Only a cancel can end the retry loop
	})
	if err != nil {
		t.Fatalf("NewSlackNotifier() failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = n.Send(ctx, []model.Alert{testAlert()})
	if err == nil {
		t.Fatal("Send() should fail when the context is cancelled")
	}
	if time.Since(start) > 5*time.Second {
		t.Error("Send() should return promptly after cancellation")
	}
}

func TestFormatSlackMessage(t *testing.T) {
	alert := testAlert()
	alert.Severity = model.SeverityCritical

	msg := formatSlackMessage(&alert)
	if msg.Attachments[0].Color != "danger" {
		t.Errorf("critical color = %q, want danger", msg.Attachments[0].Color)
	}

	alert.Severity = model.SeverityInfo
	msg = formatSlackMessage(&alert)
	if msg.Attachments[0].Color != "good" {
		t.Errorf("info color = %q, want good", msg.Attachments[0].Color)
	}
}

func TestConsoleNotifier(t *testing.T) {
	n := NewConsoleNotifier()
	if n.Name() != "console" {
		t.Errorf("Name() = %q, want console", n.Name())
	}
	if err := n.Send(context.Background(), []model.Alert{testAlert()}); err != nil {
		t.Errorf("Send() failed: %v", err)
	}
}
