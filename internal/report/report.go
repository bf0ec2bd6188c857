// Package report renders analysis and insight output into HTML and JSON
// report documents.
package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/adsentry-team/adsentry/internal/adcopy"
	"github.com/adsentry-team/adsentry/internal/model"
)

// maxCampaignRows limits the campaign table in the HTML report.
const maxCampaignRows = 10

// Generator writes report documents to an output directory.
type Generator struct {
	outputDir string
	tmpl      *template.Template
	adcopy    *adcopy.Generator
	clock     func() time.Time
}

// New creates a Generator writing into outputDir.
func New(outputDir string) (*Generator, error) {
	tmpl, err := template.New("report").Parse(htmlTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing report template: %w", err)
	}

	return &Generator{
		outputDir: outputDir,
		tmpl:      tmpl,
		adcopy:    adcopy.New(),
		clock:     time.Now,
	}, nil
}

type campaignRow struct {
	CampaignID string
	Platform   string
	CTR        string
	ROAS       string
	Spend      string
	Status     string
}

type allocationRow struct {
	CampaignID  string
	Current     float64
	Recommended float64
	Change      float64
	Score       float64
}

type htmlContext struct {
	GeneratedAt     string
	PeriodStart     string
	PeriodEnd       string
	Summary         string
	TotalCampaigns  int
	TotalSpend      float64
	AvgROAS         float64
	AvgCTR          float64
	Recommendations []string
	Patterns        []string
	Campaigns       []campaignRow
	TopPerformer    string
	TotalBudget     float64
	Allocations     []allocationRow
	AdPlatform      string
	AdSuggestions   model.AdVariations
}

// WriteHTML renders the HTML report and returns the written file path.
// plan may be nil when no budget reallocation was computed.
func (g *Generator) WriteHTML(insights *model.InsightReport, metrics []model.CampaignMetrics, plan *model.BudgetPlan) (string, error) {
	now := g.clock()

	ctx := htmlContext{
		GeneratedAt:     now.Format("2006-01-02 15:04"),
		PeriodStart:     insights.PeriodStart.Format("2006-01-02"),
		PeriodEnd:       insights.PeriodEnd.Format("2006-01-02"),
		Summary:         insights.Summary,
		TotalCampaigns:  insights.KeyMetrics.TotalCampaigns,
		TotalSpend:      insights.KeyMetrics.TotalSpend,
		AvgROAS:         avgROAS(metrics),
		AvgCTR:          insights.KeyMetrics.AvgCTR,
		Recommendations: insights.Recommendations,
		Patterns:        insights.Patterns,
	}

	for i := range metrics {
		if i >= maxCampaignRows {
			break
		}
		m := &metrics[i]
		ctx.Campaigns = append(ctx.Campaigns, campaignRow{
			CampaignID: m.CampaignID,
			Platform:   m.Platform,
			CTR:        fmt.Sprintf("%.2f%%", m.CTR),
			ROAS:       fmt.Sprintf("%.2f", m.ROAS),
			Spend:      fmt.Sprintf("$%.2f", m.DailySpend),
			Status:     m.Status(),
		})
	}

	adPlatform := model.PlatformGoogleAds
	if top := topPerformer(metrics); top != nil {
		adPlatform = top.Platform
		ctx.TopPerformer = fmt.Sprintf("%s (%s) with ROAS %.2f", top.CampaignID, top.Platform, top.ROAS)
	}
	ctx.AdPlatform = adPlatform
	ctx.AdSuggestions = g.adcopy.Variations(adPlatform)

	if plan != nil {
		ctx.TotalBudget = plan.TotalBudget
		ids := make([]string, 0, len(plan.Allocations))
		for id := range plan.Allocations {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			a := plan.Allocations[id]
			ctx.Allocations = append(ctx.Allocations, allocationRow{
				CampaignID:  id,
				Current:     a.CurrentBudget,
				Recommended: a.RecommendedBudget,
				Change:      a.Change,
				Score:       a.PerformanceScore,
			})
		}
	}

	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	path := filepath.Join(g.outputDir, fmt.Sprintf("report_%s.html", now.Format("20060102_150405")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()

	if err := g.tmpl.Execute(f, ctx); err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}

	log.Printf("Generated HTML report: %s", path)
	return path, nil
}

// Summary is the JSON report document consumed by automation tools.
type Summary struct {
	GeneratedAt      time.Time                  `json:"generated_at"`
	Period           Period                     `json:"period"`
	ExecutiveSummary string                     `json:"executive_summary"`
	KPIs             KPIs                       `json:"kpis"`
	Recommendations  []string                   `json:"top_recommendations"`
	Platforms        map[string]PlatformSummary `json:"platform_breakdown"`
	Alerts           AlertSummary               `json:"alerts_summary"`
}

// Period bounds the summarized metrics.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// KPIs are the headline numbers of a summary.
type KPIs struct {
	TotalCampaigns int     `json:"total_campaigns"`
	TotalSpend     float64 `json:"total_spend"`
	AvgROAS        float64 `json:"avg_roas"`
	AvgCTR         float64 `json:"avg_ctr"`
}

// PlatformSummary aggregates one platform in a summary.
type PlatformSummary struct {
	Count   int     `json:"count"`
	Spend   float64 `json:"spend"`
	Revenue float64 `json:"revenue"`
	ROAS    float64 `json:"roas"`
}

// AlertSummary counts threshold conditions in the summarized metrics.
type AlertSummary struct {
	TotalAlerts int                 `json:"total_alerts"`
	ByType      map[string][]string `json:"by_type"`
}

// WriteSummary builds the JSON summary, writes it next to the HTML reports
// and returns it.
func (g *Generator) WriteSummary(insights *model.InsightReport, metrics []model.CampaignMetrics) (*Summary, string, error) {
	now := g.clock()

	recommendations := insights.Recommendations
	if len(recommendations) > 3 {
		recommendations = recommendations[:3]
	}

	summary := &Summary{
		GeneratedAt:      now,
		Period:           Period{Start: insights.PeriodStart, End: insights.PeriodEnd},
		ExecutiveSummary: insights.Summary,
		KPIs: KPIs{
			TotalCampaigns: len(metrics),
			TotalSpend:     totalSpend(metrics),
			AvgROAS:        avgROAS(metrics),
			AvgCTR:         avgCTR(metrics),
		},
		Recommendations: recommendations,
		Platforms:       platformBreakdown(metrics),
		Alerts:          alertSummary(metrics),
	}

	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("creating report directory: %w", err)
	}

	path := filepath.Join(g.outputDir, fmt.Sprintf("summary_%s.json", now.Format("20060102_150405")))
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("marshaling summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, "", fmt.Errorf("writing summary: %w", err)
	}

	return summary, path, nil
}

func totalSpend(metrics []model.CampaignMetrics) float64 {
	var total float64
	for i := range metrics {
		total += metrics[i].DailySpend
	}
	return total
}

func avgCTR(metrics []model.CampaignMetrics) float64 {
	if len(metrics) == 0 {
		return 0
	}
	var sum float64
	for i := range metrics {
		sum += metrics[i].CTR
	}
	return sum / float64(len(metrics))
}

// avgROAS is revenue-weighted: total revenue over total spend.
func avgROAS(metrics []model.CampaignMetrics) float64 {
	var spend, revenue float64
	for i := range metrics {
		spend += metrics[i].DailySpend
		revenue += metrics[i].Revenue
	}
	if spend == 0 {
		return 0
	}
	return revenue / spend
}

func topPerformer(metrics []model.CampaignMetrics) *model.CampaignMetrics {
	var top *model.CampaignMetrics
	for i := range metrics {
		if top == nil || metrics[i].ROAS > top.ROAS {
			top = &metrics[i]
		}
	}
	return top
}

func platformBreakdown(metrics []model.CampaignMetrics) map[string]PlatformSummary {
	out := make(map[string]PlatformSummary)
	for i := range metrics {
		m := &metrics[i]
		p := out[m.Platform]
		p.Count++
		p.Spend += m.DailySpend
		p.Revenue += m.Revenue
		out[m.Platform] = p
	}
	for name, p := range out {
		if p.Spend > 0 {
			p.ROAS = p.Revenue / p.Spend
		}
		out[name] = p
	}
	return out
}

func alertSummary(metrics []model.CampaignMetrics) AlertSummary {
	byType := map[string][]string{
		"high_spend": {},
		"low_roas":   {},
		"low_ctr":    {},
	}

	for i := range metrics {
		m := &metrics[i]
		if m.BudgetUtilization > 80 {
			byType["high_spend"] = append(byType["high_spend"], m.CampaignID)
		}
		if m.ROAS < 2 {
			byType["low_roas"] = append(byType["low_roas"], m.CampaignID)
		}
		if m.CTR < 1 {
			byType["low_ctr"] = append(byType["low_ctr"], m.CampaignID)
		}
	}

	total := 0
	for _, ids := range byType {
		total += len(ids)
	}

	return AlertSummary{TotalAlerts: total, ByType: byType}
}
