package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adsentry-team/adsentry/internal/model"
)

func sampleInsights() *model.InsightReport {
	now := time.Now()
	return &model.InsightReport{
		ReportID:    "report_test",
		Timestamp:   now,
		PeriodStart: now.Add(-24 * time.Hour),
		PeriodEnd:   now,
		Summary:     "Analyzed 2 campaigns with $300.00 spend",
		KeyMetrics: model.Statistics{
			TotalCampaigns: 2,
			TotalSpend:     300,
			TotalRevenue:   700,
			AvgCTR:         2.0,
			AvgROAS:        3.0,
			OverallROAS:    700.0 / 300.0,
		},
		Recommendations:  []string{"Increase budget allocation to google_ads - highest ROAS"},
		PlatformInsights: map[string]string{},
		Patterns:         []string{"google_ads shows strongest performance"},
	}
}

func sampleMetrics() []model.CampaignMetrics {
	now := time.Now()
	return []model.CampaignMetrics{
		{
			CampaignID: "google_ads_camp_001", Platform: model.PlatformGoogleAds,
			Timestamp: now.Add(-2 * time.Hour),
			DailySpend: 100, DailyBudgetLimit: 200, Revenue: 500,
			CTR: 2.5, ROAS: 5.0, BudgetUtilization: 50,
		},
		{
			CampaignID: "meta_camp_001", Platform: model.PlatformMeta,
			Timestamp: now.Add(-time.Hour),
			DailySpend: 200, DailyBudgetLimit: 220, Revenue: 200,
			CTR: 1.5, ROAS: 1.0, BudgetUtilization: 91,
		},
	}
}

func samplePlan() *model.BudgetPlan {
	return &model.BudgetPlan{
		TotalBudget: 420,
		Allocations: map[string]model.BudgetAllocation{
			"google_ads_camp_001": {CurrentBudget: 100, RecommendedBudget: 300, Change: 200, ChangePercent: 200, PerformanceScore: 1.5},
			"meta_camp_001":       {CurrentBudget: 200, RecommendedBudget: 120, Change: -80, ChangePercent: -40, PerformanceScore: 0.4},
		},
		Timestamp: time.Now(),
	}
}

func TestGenerator_WriteHTML(t *testing.T) {
	dir := t.TempDir()
	g, err := New(dir)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	path, err := g.WriteHTML(sampleInsights(), sampleMetrics(), samplePlan())
	if err != nil {
		t.Fatalf("WriteHTML() failed: %v", err)
	}

	if filepath.Dir(path) != dir {
		t.Errorf("report written to %q, want inside %q", path, dir)
	}
	if !strings.HasPrefix(filepath.Base(path), "report_") || !strings.HasSuffix(path, ".html") {
		t.Errorf("report file name = %q, want report_*.html", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	html := string(data)

	for _, want := range []string{
		"Analyzed 2 campaigns",
		"google_ads_camp_001",
		"meta_camp_001",
		"needs_attention",
		"excellent",
		"Budget Reallocation",
		"Ad Copy Suggestions",
		"with ROAS 5.00", // Top performer line
	} {
		if !strings.Contains(html, want) {
			t.Errorf("report should contain %q", want)
		}
	}
}

func TestGenerator_WriteHTMLWithoutPlan(t *testing.T) {
	g, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	path, err := g.WriteHTML(sampleInsights(), sampleMetrics(), nil)
	if err != nil {
		t.Fatalf("WriteHTML() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	if strings.Contains(string(data), "Budget Reallocation") {
		t.Error("report without a plan should omit the reallocation section")
	}
}

func TestGenerator_WriteSummary(t *testing.T) {
	dir := t.TempDir()
	g, err := New(dir)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	summary, path, err := g.WriteSummary(sampleInsights(), sampleMetrics())
	if err != nil {
		t.Fatalf("WriteSummary() failed: %v", err)
	}

	if summary.KPIs.TotalCampaigns != 2 {
		t.Errorf("TotalCampaigns = %d, want 2", summary.KPIs.TotalCampaigns)
	}
	if summary.KPIs.TotalSpend != 300 {
		t.Errorf("TotalSpend = %f, want 300", summary.KPIs.TotalSpend)
	}

	google := summary.Platforms[model.PlatformGoogleAds]
	if google.Count != 1 || google.ROAS != 5.0 {
		t.Errorf("google_ads breakdown = %+v", google)
	}

	// meta campaign is over 80% budget and under ROAS 2
	if len(summary.Alerts.ByType["high_spend"]) != 1 {
		t.Errorf("high_spend = %v, want the meta campaign", summary.Alerts.ByType["high_spend"])
	}
	if len(summary.Alerts.ByType["low_roas"]) != 1 {
		t.Errorf("low_roas = %v, want the meta campaign", summary.Alerts.ByType["low_roas"])
	}
	if summary.Alerts.TotalAlerts != 2 {
		t.Errorf("TotalAlerts = %d, want 2", summary.Alerts.TotalAlerts)
	}

	// The written file parses back to the same document
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading summary: %v", err)
	}
	var parsed Summary
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("parsing summary: %v", err)
	}
	if parsed.ExecutiveSummary != summary.ExecutiveSummary {
		t.Errorf("persisted summary = %q, want %q", parsed.ExecutiveSummary, summary.ExecutiveSummary)
	}
}

func TestGenerator_WriteSummaryCapsRecommendations(t *testing.T) {
	g, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	insights := sampleInsights()
	insights.Recommendations = []string{"a", "b", "c", "d", "e"}

	summary, _, err := g.WriteSummary(insights, sampleMetrics())
	if err != nil {
		t.Fatalf("WriteSummary() failed: %v", err)
	}
	if len(summary.Recommendations) != 3 {
		t.Errorf("got %d recommendations, want capped at 3", len(summary.Recommendations))
	}
}

func TestAvgROAS(t *testing.T) {
	if got := avgROAS(sampleMetrics()); got != 700.0/300.0 {
		t.Errorf("avgROAS() = %f, want revenue-weighted %f", got, 700.0/300.0)
	}
	if got := avgROAS(nil); got != 0 {
		t.Errorf("avgROAS(nil) = %f, want 0", got)
	}
}
