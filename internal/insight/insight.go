// Package insight generates natural-language performance summaries from
// campaign metrics, using the Gemini API with a deterministic template
// fallback when the model is unavailable.
package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/adsentry-team/adsentry/internal/config"
	"github.com/adsentry-team/adsentry/internal/model"
	"github.com/adsentry-team/adsentry/internal/usage"
)

// textGenerator abstracts the language model so the agent can be tested
// without network access.
type textGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// geminiGenerator calls the Gemini API.
type geminiGenerator struct {
	client *genai.Client
	model  string
}

func (g *geminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}

// Agent turns campaign metrics into an InsightReport.
type Agent struct {
	gen     textGenerator
	tracker *usage.Tracker
}

// New creates an Agent. Without an API key the agent only produces template
// insights.
func New(ctx context.Context, cfg *config.InsightConfig, tracker *usage.Tracker) (*Agent, error) {
	agent := &Agent{tracker: tracker}

	if cfg.APIKey == "" {
		log.Println("No Gemini API key, using template insights")
		return agent, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	agent.gen = &geminiGenerator{client: client, model: cfg.Model}
	return agent, nil
}

// UsingModel reports whether the language model is configured.
func (a *Agent) UsingModel() bool {
	return a.gen != nil
}

// Analyze aggregates the metrics and generates an insight report. Any model
// failure degrades to the template path; the error is logged, not returned.
func (a *Agent) Analyze(ctx context.Context, metrics []model.CampaignMetrics) (*model.InsightReport, error) {
	stats := Aggregate(metrics)

	if a.gen == nil {
		return a.templateReport(stats, metrics), nil
	}

	report, err := a.modelReport(ctx, stats, metrics)
	if err != nil {
		log.Printf("LLM insight generation failed, falling back to template: %v", err)
		a.tracker.Track("insight", 0, 0, false)
		return a.templateReport(stats, metrics), nil
	}
	return report, nil
}

// llmInsights is the JSON shape requested from the model.
type llmInsights struct {
	Summary          string            `json:"summary"`
	Recommendations  []string          `json:"recommendations"`
	PlatformInsights map[string]string `json:"platform_insights"`
	Patterns         []string          `json:"patterns"`
}

func (a *Agent) modelReport(ctx context.Context, stats model.Statistics, metrics []model.CampaignMetrics) (*model.InsightReport, error) {
	if err := a.tracker.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limit: %w", err)
	}

	prompt, err := buildPrompt(stats)
	if err != nil {
		return nil, err
	}

	text, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	cleaned := CleanJSONResponse(text)

	var insights llmInsights
	if err := json.Unmarshal([]byte(cleaned), &insights); err != nil {
		return nil, fmt.Errorf("parsing model response: %w", err)
	}

	// Rough accounting; the API does not always return token counts.
	a.tracker.Track("insight", approxTokens(prompt), approxTokens(text), true)

	if insights.Summary == "" {
		insights.Summary = fmt.Sprintf("Analyzed %d campaigns", stats.TotalCampaigns)
	}
	if insights.PlatformInsights == nil {
		insights.PlatformInsights = map[string]string{}
	}

	report := newReport(stats, metrics)
	report.Summary = insights.Summary
	report.Recommendations = insights.Recommendations
	report.PlatformInsights = insights.PlatformInsights
	report.Patterns = insights.Patterns
	return report, nil
}

// templateReport builds deterministic insights from the aggregate statistics.
func (a *Agent) templateReport(stats model.Statistics, metrics []model.CampaignMetrics) *model.InsightReport {
	var recommendations, patterns []string

	if best := bestPlatform(stats.PlatformBreakdown); best != "" {
		recommendations = append(recommendations, fmt.Sprintf("Increase budget allocation to %s - highest ROAS", best))
		patterns = append(patterns, fmt.Sprintf("%s shows strongest performance", best))
	}

	if stats.AvgCTR < 2.0 {
		recommendations = append(recommendations, "CTR below 2% - test new ad creatives and headlines")
	}
	if stats.OverallROAS < 3.0 {
		recommendations = append(recommendations, "ROAS below target - review targeting and bidding strategy")
	}

	if len(recommendations) > 3 {
		recommendations = recommendations[:3]
	}

	report := newReport(stats, metrics)
	report.Summary = fmt.Sprintf("Analyzed %d campaigns with $%.2f spend", stats.TotalCampaigns, stats.TotalSpend)
	report.Recommendations = recommendations
	report.PlatformInsights = map[string]string{}
	report.Patterns = patterns
	report.Templated = true
	return report
}

func newReport(stats model.Statistics, metrics []model.CampaignMetrics) *model.InsightReport {
	now := time.Now()
	start, end := now, now
	for i := range metrics {
		ts := metrics[i].Timestamp
		if ts.Before(start) {
			start = ts
		}
		if ts.After(end) {
			end = ts
		}
	}

	return &model.InsightReport{
		ReportID:    "report_" + uuid.NewString(),
		Timestamp:   now,
		PeriodStart: start,
		PeriodEnd:   end,
		KeyMetrics:  stats,
	}
}

// Aggregate computes overall and per-platform statistics for a metrics batch.
func Aggregate(metrics []model.CampaignMetrics) model.Statistics {
	stats := model.Statistics{
		TotalCampaigns:    len(metrics),
		PlatformBreakdown: make(map[string]model.PlatformStats),
	}
	if len(metrics) == 0 {
		return stats
	}

	type acc struct {
		spend, revenue, ctr float64
		count               int
	}
	platforms := make(map[string]*acc)

	var sumCTR, sumROAS float64
	for i := range metrics {
		m := &metrics[i]
		stats.TotalSpend += m.DailySpend
		stats.TotalRevenue += m.Revenue
		sumCTR += m.CTR
		sumROAS += m.ROAS

		p, ok := platforms[m.Platform]
		if !ok {
			p = &acc{}
			platforms[m.Platform] = p
		}
		p.spend += m.DailySpend
		p.revenue += m.Revenue
		p.ctr += m.CTR
		p.count++
	}

	if stats.TotalSpend > 0 {
		stats.OverallROAS = stats.TotalRevenue / stats.TotalSpend
	}
	stats.AvgCTR = sumCTR / float64(len(metrics))
	stats.AvgROAS = sumROAS / float64(len(metrics))

	for name, p := range platforms {
		stats.PlatformBreakdown[name] = model.PlatformStats{
			Campaigns: p.count,
			Spend:     p.spend,
			Revenue:   p.revenue,
			AvgCTR:    p.ctr / float64(p.count),
		}
	}

	return stats
}

// bestPlatform returns the platform with the highest revenue/spend ratio.
func bestPlatform(breakdown map[string]model.PlatformStats) string {
	best := ""
	bestRatio := -1.0
	for name, p := range breakdown {
		spend := p.Spend
		if spend < 1 {
			spend = 1
		}
		ratio := p.Revenue / spend
		if ratio > bestRatio {
			bestRatio = ratio
			best = name
		}
	}
	return best
}

func buildPrompt(stats model.Statistics) (string, error) {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling statistics: %w", err)
	}

	return fmt.Sprintf(`Analyze these B2B campaign metrics and provide actionable insights:

Statistics:
%s

Requirements:
1. Identify the best and worst performing platforms
2. Find patterns in high-performing campaigns
3. Suggest 3 specific optimization actions
4. Note any concerning trends

Keep insights specific to B2B tech companies with long sales cycles.

Return ONLY a valid JSON object with these exact keys (no markdown, no extra text):
{
"summary": "one line summary of performance",
"recommendations": ["recommendation 1", "recommendation 2", "recommendation 3"],
"platform_insights": {"google_ads": "insight", "meta": "insight", "linkedin": "insight"},
"patterns": ["pattern 1", "pattern 2"]
}`, data), nil
}

// CleanJSONResponse strips markdown code fences and surrounding prose from a
// model response, leaving the outermost JSON object.
func CleanJSONResponse(text string) string {
	text = strings.TrimSpace(text)

	if idx := strings.Index(text, "```json"); idx >= 0 {
		rest := text[idx+len("```json"):]
		if end := strings.LastIndex(rest, "```"); end > 0 {
			text = rest[:end]
		} else {
			text = rest
		}
	} else if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+3:]
		if end := strings.LastIndex(rest, "```"); end > 0 {
			text = rest[:end]
		} else {
			text = rest
		}
	}

	text = strings.TrimSpace(text)

	// Extract the outermost object if prose surrounds it.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return text
}

func approxTokens(text string) int {
	return len(strings.Fields(text)) * 2
}
