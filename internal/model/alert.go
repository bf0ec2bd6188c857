package model

import (
	"fmt"
	"time"
)

// Alert types.
const (
	AlertTypeBudget      = "budget"
	AlertTypePerformance = "performance"
	AlertTypeSystem      = "system"
	AlertTypeAnomaly     = "anomaly"
)

// Alert severities.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Alert records one threshold violation for a campaign metric.
type Alert struct {
	// Type classifies the alert (budget, performance, system, anomaly).
	Type string `json:"type"`

	// Severity is one of info, warning or critical.
	Severity string `json:"severity"`

	// MetricName names the metric that crossed its threshold.
	MetricName string `json:"metric"`

	// CurrentValue is the observed value.
	CurrentValue float64 `json:"value"`

	// ThresholdValue is the configured limit that was crossed.
	ThresholdValue float64 `json:"threshold"`

	// Message is a human-readable description.
	Message string `json:"message"`

	// Timestamp is when the alert was raised.
	Timestamp time.Time `json:"timestamp"`
}

// Key returns the de-duplication key for the alert. Two alerts with the same
// type, metric and value are considered the same notification.
func (a *Alert) Key() string {
	return fmt.Sprintf("%s|%s|%.4f", a.Type, a.MetricName, a.CurrentValue)
}
