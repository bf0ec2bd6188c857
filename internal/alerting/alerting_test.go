package alerting

import (
	"fmt"
	"testing"

	"github.com/adsentry-team/adsentry/internal/config"
	"github.com/adsentry-team/adsentry/internal/model"
)

func testThresholds() *config.ThresholdsConfig {
	return &config.ThresholdsConfig{
		BudgetUtilizationPercent: 80,
		MinROAS:                  2.0,
		CTRDropPercent:           20,
		SpendSpikePercent:        150,
	}
}

func TestEvaluator_Evaluate(t *testing.T) {
	tests := []struct {
		name       string
		metrics    model.CampaignMetrics
		wantTypes  []string
		wantAlerts int
	}{
		{
			name:       "healthy campaign",
			metrics:    model.CampaignMetrics{CampaignID: "c1", BudgetUtilization: 50, ROAS: 3.0},
			wantAlerts: 0,
		},
		{
			name:       "high budget utilization",
			metrics:    model.CampaignMetrics{CampaignID: "c1", BudgetUtilization: 85, ROAS: 3.0},
			wantAlerts: 1,
			wantTypes:  []string{model.AlertTypeBudget},
		},
		{
			name:       "low roas",
			metrics:    model.CampaignMetrics{CampaignID: "c1", BudgetUtilization: 50, ROAS: 1.5},
			wantAlerts: 1,
			wantTypes:  []string{model.AlertTypePerformance},
		},
		{
			name:       "both violations",
			metrics:    model.CampaignMetrics{CampaignID: "c1", BudgetUtilization: 95, ROAS: 0.5},
			wantAlerts: 2,
			wantTypes:  []string{model.AlertTypeBudget, model.AlertTypePerformance},
		},
		{
			name:       "at the boundary is not a violation",
			metrics:    model.CampaignMetrics{CampaignID: "c1", BudgetUtilization: 80, ROAS: 2.0},
			wantAlerts: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(testThresholds())
			alerts := e.Evaluate([]model.CampaignMetrics{tt.metrics})
			if len(alerts) != tt.wantAlerts {
				t.Fatalf("got %d alerts, want %d", len(alerts), tt.wantAlerts)
			}
			for i, wantType := range tt.wantTypes {
				if alerts[i].Type != wantType {
					t.Errorf("alert %d type = %q, want %q", i, alerts[i].Type, wantType)
				}
				if alerts[i].Severity != model.SeverityWarning {
					t.Errorf("alert %d severity = %q, want warning", i, alerts[i].Severity)
				}
			}
		})
	}
}

func TestEvaluator_FreshDedupes(t *testing.T) {
	e := New(testThresholds())

	alerts := e.Evaluate([]model.CampaignMetrics{
		{CampaignID: "c1", BudgetUtilization: 85, ROAS: 3.0},
	})
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1", len(alerts))
	}

	fresh := e.Fresh(alerts)
	if len(fresh) != 1 {
		t.Fatalf("first Fresh() returned %d alerts, want 1", len(fresh))
	}

	// Same violation again is suppressed
	fresh = e.Fresh(alerts)
	if len(fresh) != 0 {
		t.Errorf("repeated Fresh() returned %d alerts, want 0", len(fresh))
	}

	// A different value is a new alert
	changed := e.Evaluate([]model.CampaignMetrics{
		{CampaignID: "c1", BudgetUtilization: 92, ROAS: 3.0},
	})
	fresh = e.Fresh(changed)
	if len(fresh) != 1 {
		t.Errorf("Fresh() with changed value returned %d alerts, want 1", len(fresh))
	}
}

func TestEvaluator_FreshTrimsMemory(t *testing.T) {
	e := New(testThresholds())

	for i := 0; i < 120; i++ {
		alert := model.Alert{
			Type:         model.AlertTypeBudget,
			MetricName:   "budget_utilization",
			CurrentValue: float64(i),
			Message:      fmt.Sprintf("alert %d", i),
		}
		e.Fresh([]model.Alert{alert})
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.sentKeys) > maxSentKeys {
		t.Errorf("sentKeys grew to %d, want at most %d", len(e.sentKeys), maxSentKeys)
	}
	if len(e.sentSet) != len(e.sentKeys) {
		t.Errorf("sentSet has %d entries, sentKeys has %d; they should match", len(e.sentSet), len(e.sentKeys))
	}
}
