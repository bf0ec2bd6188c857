package model

import "time"

// InsightReport is the output of a performance analysis run: aggregate
// statistics plus narrative findings, either LLM-generated or templated.
type InsightReport struct {
	// ReportID uniquely identifies this report.
	ReportID string `json:"report_id"`

	// Timestamp is when the report was generated.
	Timestamp time.Time `json:"timestamp"`

	// PeriodStart and PeriodEnd bound the analyzed metrics.
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`

	// Summary is a one-line account of overall performance.
	Summary string `json:"summary"`

	// KeyMetrics holds the aggregate statistics the narrative was built from.
	KeyMetrics Statistics `json:"key_metrics"`

	// Recommendations lists suggested optimization actions.
	Recommendations []string `json:"recommendations"`

	// PlatformInsights maps platform name to a platform-specific observation.
	PlatformInsights map[string]string `json:"platform_insights"`

	// Patterns lists cross-campaign patterns worth noting.
	Patterns []string `json:"patterns"`

	// Templated is true when the report came from the deterministic fallback
	// rather than the language model.
	Templated bool `json:"templated"`
}

// Statistics aggregates a set of campaign records.
type Statistics struct {
	TotalCampaigns int     `json:"total_campaigns"`
	TotalSpend     float64 `json:"total_spend"`
	TotalRevenue   float64 `json:"total_revenue"`

	// OverallROAS is total revenue over total spend.
	OverallROAS float64 `json:"overall_roas"`

	// AvgCTR and AvgROAS are unweighted per-campaign averages.
	AvgCTR  float64 `json:"avg_ctr"`
	AvgROAS float64 `json:"avg_roas"`

	// PlatformBreakdown maps platform name to its aggregate slice.
	PlatformBreakdown map[string]PlatformStats `json:"platform_breakdown"`
}

// PlatformStats aggregates the campaigns of a single platform.
type PlatformStats struct {
	Campaigns int     `json:"campaigns"`
	Spend     float64 `json:"spend"`
	Revenue   float64 `json:"revenue"`
	AvgCTR    float64 `json:"avg_ctr"`
}

// BidAdjustment is a recommended bid change for one campaign.
type BidAdjustment struct {
	CampaignID        string    `json:"campaign_id"`
	Platform          string    `json:"platform"`
	CurrentBid        float64   `json:"current_bid"`
	NewBid            float64   `json:"new_bid"`
	AdjustmentPercent float64   `json:"adjustment_percent"`
	Reasons           []string  `json:"reasons"`
	CurrentROAS       float64   `json:"current_roas"`
	TargetROAS        float64   `json:"target_roas"`
	Timestamp         time.Time `json:"timestamp"`
}

// BudgetPlan suggests how to split a total budget across campaigns.
type BudgetPlan struct {
	TotalBudget float64                     `json:"total_budget"`
	Allocations map[string]BudgetAllocation `json:"allocations"`
	Timestamp   time.Time                   `json:"timestamp"`
}

// BudgetAllocation is the per-campaign slice of a BudgetPlan.
type BudgetAllocation struct {
	CurrentBudget     float64 `json:"current_budget"`
	RecommendedBudget float64 `json:"recommended_budget"`
	Change            float64 `json:"change"`
	ChangePercent     float64 `json:"change_percent"`
	PerformanceScore  float64 `json:"performance_score"`
}

// AdVariations holds generated ad copy alternatives for one platform.
type AdVariations struct {
	Headlines    []string `json:"headlines"`
	Descriptions []string `json:"descriptions"`
	CTAs         []string `json:"ctas"`
}
