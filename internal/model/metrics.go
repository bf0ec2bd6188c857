// Package model defines the core data structures used by adsentry.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Platform identifiers accepted across the system.
const (
	PlatformGoogleAds = "google_ads"
	PlatformMeta      = "meta"
	PlatformLinkedIn  = "linkedin"
)

// Platforms lists all supported ad platforms in collection order.
var Platforms = []string{PlatformGoogleAds, PlatformMeta, PlatformLinkedIn}

// KnownPlatform reports whether name is a supported platform identifier.
func KnownPlatform(name string) bool {
	for _, p := range Platforms {
		if p == name {
			return true
		}
	}
	return false
}

// CampaignMetrics is a normalized per-campaign performance record as collected
// from one ad platform. Derived fields (CTR, ROAS, BudgetUtilization) are
// computed by Derive and must not be set by callers.
type CampaignMetrics struct {
	// CampaignID identifies the campaign on its platform.
	CampaignID string `json:"campaign_id"`

	// Platform is one of google_ads, meta or linkedin.
	Platform string `json:"platform"`

	// Timestamp is when the record was observed.
	Timestamp time.Time `json:"timestamp"`

	// Impressions is the number of times ads were shown.
	Impressions int64 `json:"impressions"`

	// Clicks is the number of ad clicks.
	Clicks int64 `json:"clicks"`

	// Conversions is the number of attributed conversions.
	Conversions int64 `json:"conversions"`

	// DailySpend is the amount spent in the period, in account currency.
	DailySpend float64 `json:"daily_spend"`

	// DailyBudgetLimit is the configured budget cap for the period.
	DailyBudgetLimit float64 `json:"daily_budget_limit"`

	// Revenue is the attributed revenue for the period.
	Revenue float64 `json:"revenue"`

	// CPC is the average cost per click.
	CPC float64 `json:"cpc"`

	// CTR is the click-through rate as a percentage (0-100). Derived.
	CTR float64 `json:"ctr"`

	// ROAS is revenue divided by spend. Derived.
	ROAS float64 `json:"roas"`

	// BudgetUtilization is spend as a percentage of the budget limit (0-100). Derived.
	BudgetUtilization float64 `json:"budget_utilization"`
}

// Derive recomputes the calculated fields from the stored ones.
func (m *CampaignMetrics) Derive() {
	if m.Impressions > 0 {
		m.CTR = float64(m.Clicks) / float64(m.Impressions) * 100
	} else {
		m.CTR = 0
	}

	if m.DailySpend > 0 {
		m.ROAS = m.Revenue / m.DailySpend
	} else {
		m.ROAS = 0
	}

	if m.DailyBudgetLimit > 0 {
		m.BudgetUtilization = m.DailySpend / m.DailyBudgetLimit * 100
	} else {
		m.BudgetUtilization = 0
	}
}

// Validate checks schema constraints and returns all violations as one error.
func (m *CampaignMetrics) Validate() error {
	var errs []string

	if m.CampaignID == "" {
		errs = append(errs, "campaign_id is required")
	}
	if !KnownPlatform(m.Platform) {
		errs = append(errs, fmt.Sprintf("platform %q must be one of: %s", m.Platform, strings.Join(Platforms, ", ")))
	}
	if m.Impressions < 0 {
		errs = append(errs, "impressions must be non-negative")
	}
	if m.Clicks < 0 {
		errs = append(errs, "clicks must be non-negative")
	}
	if m.Conversions < 0 {
		errs = append(errs, "conversions must be non-negative")
	}
	if m.DailySpend < 0 {
		errs = append(errs, "daily_spend must be non-negative")
	}
	if m.DailyBudgetLimit < 0 {
		errs = append(errs, "daily_budget_limit must be non-negative")
	}
	if m.Revenue < 0 {
		errs = append(errs, "revenue must be non-negative")
	}
	if m.CPC < 0 {
		errs = append(errs, "cpc must be non-negative")
	}
	if m.CTR < 0 || m.CTR > 100 {
		errs = append(errs, "ctr must be within 0-100")
	}
	if m.ROAS < 0 {
		errs = append(errs, "roas must be non-negative")
	}
	if m.BudgetUtilization < 0 || m.BudgetUtilization > 100 {
		errs = append(errs, "budget_utilization must be within 0-100")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid campaign metrics:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Status buckets a campaign by its ROAS for reporting.
func (m *CampaignMetrics) Status() string {
	switch {
	case m.ROAS >= 4:
		return "excellent"
	case m.ROAS >= 3:
		return "good"
	case m.ROAS >= 2:
		return "fair"
	default:
		return "needs_attention"
	}
}
