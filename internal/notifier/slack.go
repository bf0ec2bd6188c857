package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/adsentry-team/adsentry/internal/config"
	"github.com/adsentry-team/adsentry/internal/model"
)

// SlackNotifier sends alerts to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL string
	retries    int
	retryDelay time.Duration
	client     *http.Client
}

// slackMessage is the incoming-webhook payload format.
type slackMessage struct {
	Text        string            `json:"text"`
	Attachments []slackAttachment `json:"attachments,omitempty"`
}

type slackAttachment struct {
	Color  string       `json:"color,omitempty"`
	Fields []slackField `json:"fields,omitempty"`
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// NewSlackNotifier creates a Slack notifier from the notifier configuration.
func NewSlackNotifier(cfg *config.NotifierConfig) (*SlackNotifier, error) {
	retryDelay, err := cfg.RetryDelayParsed()
	if err != nil {
		retryDelay = time.Second
	}

	return &SlackNotifier{
		webhookURL: cfg.WebhookURL,
		retries:    cfg.Retries,
		retryDelay: retryDelay,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Name returns the notifier name.
func (s *SlackNotifier) Name() string {
	return "slack"
}

// Send posts each alert to the webhook, retrying transient failures.
func (s *SlackNotifier) Send(ctx context.Context, alerts []model.Alert) error {
	for i := range alerts {
		msg := formatSlackMessage(&alerts[i])
		if err := s.sendWithRetry(ctx, msg); err != nil {
			return fmt.Errorf("sending alert %q: %w", alerts[i].MetricName, err)
		}
	}
	return nil
}

// formatSlackMessage builds the attachment payload for one alert.
func formatSlackMessage(alert *model.Alert) slackMessage {
	return slackMessage{
		Text: fmt.Sprintf("%s %s", severityIcon(alert.Severity), alert.Message),
		Attachments: []slackAttachment{{
			Color: severityColor(alert.Severity),
			Fields: []slackField{
				{Title: "Metric", Value: alert.MetricName, Short: true},
				{Title: "Current", Value: fmt.Sprintf("%.2f", alert.CurrentValue), Short: true},
				{Title: "Threshold", Value: fmt.Sprintf("%.2f", alert.ThresholdValue), Short: true},
				{Title: "Type", Value: alert.Type, Short: true},
			},
		}},
	}
}

// sendWithRetry sends the message with exponential backoff retry.
func (s *SlackNotifier) sendWithRetry(ctx context.Context, msg slackMessage) error {
	var lastErr error
	delay := s.retryDelay

	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2 // Exponential backoff
			}
		}

		err := s.send(ctx, msg)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	return fmt.Errorf("failed after %d retries: %w", s.retries, lastErr)
}

// send performs the actual HTTP request to the webhook.
func (s *SlackNotifier) send(ctx context.Context, msg slackMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}

func severityIcon(severity string) string {
	switch severity {
	case model.SeverityCritical:
		return "🔴"
	case model.SeverityWarning:
		return "⚠️"
	case model.SeverityInfo:
		return "ℹ️"
	default:
		return "📊"
	}
}

func severityColor(severity string) string {
	switch severity {
	case model.SeverityCritical:
		return "danger"
	case model.SeverityWarning:
		return "warning"
	default:
		return "good"
	}
}
