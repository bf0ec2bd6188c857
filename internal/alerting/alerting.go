// Package alerting evaluates campaign metrics against fixed thresholds.
package alerting

import (
	"fmt"
	"sync"
	"time"

	"github.com/adsentry-team/adsentry/internal/config"
	"github.com/adsentry-team/adsentry/internal/model"
)

// maxSentKeys bounds the de-duplication memory; when reached it is trimmed to
// the most recent half.
const maxSentKeys = 100

// Evaluator checks metrics against configured thresholds and remembers which
// alerts were already produced so repeats are suppressed.
type Evaluator struct {
	cfg *config.ThresholdsConfig

	mu       sync.Mutex
	sentKeys []string
	sentSet  map[string]bool
}

// New creates an Evaluator with the given thresholds.
func New(cfg *config.ThresholdsConfig) *Evaluator {
	return &Evaluator{
		cfg:     cfg,
		sentSet: make(map[string]bool),
	}
}

// Evaluate returns an alert for every threshold violation in metrics.
// All violations are returned; de-duplication applies only in Fresh.
func (e *Evaluator) Evaluate(metrics []model.CampaignMetrics) []model.Alert {
	var alerts []model.Alert
	now := time.Now()

	for i := range metrics {
		m := &metrics[i]

		if m.BudgetUtilization > e.cfg.BudgetUtilizationPercent {
			alerts = append(alerts, model.Alert{
				Type:           model.AlertTypeBudget,
				Severity:       model.SeverityWarning,
				MetricName:     "budget_utilization",
				CurrentValue:   m.BudgetUtilization,
				ThresholdValue: e.cfg.BudgetUtilizationPercent,
				Message:        fmt.Sprintf("Campaign %s at %.1f%% budget", m.CampaignID, m.BudgetUtilization),
				Timestamp:      now,
			})
		}

		if m.ROAS < e.cfg.MinROAS {
			alerts = append(alerts, model.Alert{
				Type:           model.AlertTypePerformance,
				Severity:       model.SeverityWarning,
				MetricName:     "roas",
				CurrentValue:   m.ROAS,
				ThresholdValue: e.cfg.MinROAS,
				Message:        fmt.Sprintf("Campaign %s ROAS below target: %.2f", m.CampaignID, m.ROAS),
				Timestamp:      now,
			})
		}
	}

	return alerts
}

// Fresh filters alerts down to those not seen before and records them as sent.
func (e *Evaluator) Fresh(alerts []model.Alert) []model.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	var fresh []model.Alert
	for i := range alerts {
		key := alerts[i].Key()
		if e.sentSet[key] {
			continue
		}
		fresh = append(fresh, alerts[i])
		e.sentSet[key] = true
		e.sentKeys = append(e.sentKeys, key)
	}

	if len(e.sentKeys) > maxSentKeys {
		drop := e.sentKeys[:len(e.sentKeys)-maxSentKeys/2]
		for _, key := range drop {
			delete(e.sentSet, key)
		}
		kept := e.sentKeys[len(e.sentKeys)-maxSentKeys/2:]
		e.sentKeys = append([]string(nil), kept...)
	}

	return fresh
}
