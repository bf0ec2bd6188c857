// Package adcopy generates platform-specific ad copy variations and extracts
// messaging themes from top-performing campaigns.
package adcopy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/adsentry-team/adsentry/internal/model"
)

// Generator produces ad copy suggestions. Variations are template-based and
// need no external API.
type Generator struct{}

// New creates a Generator.
func New() *Generator {
	return &Generator{}
}

// Variations returns platform-specific headline/description/CTA alternatives.
// Unknown platforms get the Meta set.
func (g *Generator) Variations(platform string) model.AdVariations {
	switch platform {
	case model.PlatformLinkedIn:
		return model.AdVariations{
			Headlines: []string{
				"Reduce Project Delays by 30%",
				"Smart Monitoring for Construction Sites",
				"1000+ Sites Trust Our Solution",
			},
			Descriptions: []string{
				"Real-time insights. Instant alerts. Zero training needed.",
				"Cut waiting times. Improve safety. Boost productivity.",
				"Professional IoT solution for modern construction.",
			},
			CTAs: []string{"Get Demo", "Learn More", "See Results"},
		}
	case model.PlatformGoogleAds:
		return model.AdVariations{
			Headlines: []string{
				"Construction Site Efficiency",
				"Smart Elevator Monitoring",
				"30% Less Waiting Time",
			},
			Descriptions: []string{
				"Quick setup. Immediate results.",
				"Install in 10 minutes. See results today.",
				"Trusted by major contractors.",
			},
			CTAs: []string{"Start Free Trial", "Get Quote", "Learn More"},
		}
	default: // meta
		return model.AdVariations{
			Headlines: []string{
				"Still Using Paper Logs?",
				"Construction Just Got Smarter",
				"Join 1000+ Smart Sites",
			},
			Descriptions: []string{
				"Transform your site operations with one simple device.",
				"See why contractors are switching to smart monitoring.",
				"Real results from real construction sites.",
			},
			CTAs: []string{"See How", "Watch Demo", "Get Started"},
		}
	}
}

// PerformanceThemes summarizes what is working across top performers.
type PerformanceThemes struct {
	Recommendation     string   `json:"recommendation"`
	WinningThemes      []string `json:"winning_themes"`
	SuggestedHeadlines []string `json:"suggested_headlines"`
}

// FromTopPerformers derives messaging themes from campaigns with ROAS above 5.
// Theme words come from the middle segment of the campaign identifier
// (platform_theme_nnn).
func (g *Generator) FromTopPerformers(metrics []model.CampaignMetrics) PerformanceThemes {
	var themes []string
	seen := make(map[string]bool)

	for i := range metrics {
		m := &metrics[i]
		if m.ROAS <= 5 {
			continue
		}
		parts := strings.Split(m.CampaignID, "_")
		if len(parts) < 2 || parts[1] == "" || seen[parts[1]] {
			continue
		}
		seen[parts[1]] = true
		themes = append(themes, parts[1])
	}

	if len(themes) > 5 {
		themes = themes[:5]
	}

	headlines := make([]string, 0, 3)
	for i, theme := range themes {
		if i >= 3 {
			break
		}
		headlines = append(headlines, fmt.Sprintf("Proven %s Solution", titleCase(theme)))
	}

	return PerformanceThemes{
		Recommendation:     "Focus on efficiency and time-saving messaging",
		WinningThemes:      themes,
		SuggestedHeadlines: headlines,
	}
}

// PatternAnalysis summarizes top performers by platform and by ranking.
type PatternAnalysis struct {
	AdsAnalyzed       int                         `json:"ads_analyzed"`
	AverageCTR        float64                     `json:"average_ctr"`
	AverageROAS       float64                     `json:"average_roas"`
	PlatformBreakdown map[string]PlatformAverages `json:"platform_breakdown"`
}

// PlatformAverages holds per-platform averages over the analyzed set.
type PlatformAverages struct {
	Count   int     `json:"count"`
	AvgCTR  float64 `json:"avg_ctr"`
	AvgROAS float64 `json:"avg_roas"`
}

// AnalyzePatterns ranks campaigns by ROAS*CTR and summarizes the top 20.
func (g *Generator) AnalyzePatterns(metrics []model.CampaignMetrics) PatternAnalysis {
	if len(metrics) == 0 {
		return PatternAnalysis{PlatformBreakdown: map[string]PlatformAverages{}}
	}

	ranked := make([]model.CampaignMetrics, len(metrics))
	copy(ranked, metrics)
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].ROAS*ranked[i].CTR > ranked[j].ROAS*ranked[j].CTR
	})
	if len(ranked) > 20 {
		ranked = ranked[:20]
	}

	type acc struct {
		count     int
		ctr, roas float64
	}
	platforms := make(map[string]*acc)

	var sumCTR, sumROAS float64
	for i := range ranked {
		m := &ranked[i]
		sumCTR += m.CTR
		sumROAS += m.ROAS

		p, ok := platforms[m.Platform]
		if !ok {
			p = &acc{}
			platforms[m.Platform] = p
		}
		p.count++
		p.ctr += m.CTR
		p.roas += m.ROAS
	}

	out := PatternAnalysis{
		AdsAnalyzed:       len(ranked),
		AverageCTR:        sumCTR / float64(len(ranked)),
		AverageROAS:       sumROAS / float64(len(ranked)),
		PlatformBreakdown: make(map[string]PlatformAverages, len(platforms)),
	}
	for name, p := range platforms {
		out.PlatformBreakdown[name] = PlatformAverages{
			Count:   p.count,
			AvgCTR:  p.ctr / float64(p.count),
			AvgROAS: p.roas / float64(p.count),
		}
	}

	return out
}

// titleCase uppercases the first rune only; strings.Title is deprecated and
// overkill for single identifiers.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
