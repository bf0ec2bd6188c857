// Package engine contains the analysis logic for bid adjustments and budget
// reallocation.
package engine

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/adsentry-team/adsentry/internal/config"
	"github.com/adsentry-team/adsentry/internal/model"
)

// HistoryDays is the lookback used when judging a campaign against its past.
const HistoryDays = 7

// minSignificantAdjustment suppresses adjustments smaller than 5% either way.
const minSignificantAdjustment = 0.05

// HistoryReader provides per-campaign history for trend analysis.
type HistoryReader interface {
	CampaignHistory(ctx context.Context, campaignID string, days int) ([]model.CampaignMetrics, error)
}

// Engine computes bid adjustments and budget plans from campaign metrics.
type Engine struct {
	cfg     *config.OptimizerConfig
	history HistoryReader
}

// New creates an Engine with the given configuration and history source.
func New(cfg *config.OptimizerConfig, history HistoryReader) *Engine {
	return &Engine{cfg: cfg, history: history}
}

// Adjustments computes a bid adjustment for each campaign with enough history.
// Campaigns whose history falls short of MinHistoryPoints, or whose combined
// adjustment is insignificant, are skipped.
func (e *Engine) Adjustments(ctx context.Context, metrics []model.CampaignMetrics) ([]model.BidAdjustment, error) {
	var adjustments []model.BidAdjustment

	for i := range metrics {
		m := &metrics[i]

		history, err := e.history.CampaignHistory(ctx, m.CampaignID, HistoryDays)
		if err != nil {
			return nil, fmt.Errorf("fetching history for %s: %w", m.CampaignID, err)
		}

		if len(history) < e.cfg.MinHistoryPoints {
			log.Printf("Insufficient history for %s (%d points)", m.CampaignID, len(history))
			continue
		}

		if adj, ok := e.adjustOne(m, history); ok {
			adjustments = append(adjustments, adj)
		}
	}

	return adjustments, nil
}

// adjustOne scores a single campaign against its target ROAS, its historical
// CTR and its ROAS trend, and converts the combined factor into a bid change.
func (e *Engine) adjustOne(current *model.CampaignMetrics, history []model.CampaignMetrics) (model.BidAdjustment, bool) {
	avgCTR := 0.0
	for i := range history {
		avgCTR += history[i].CTR
	}
	avgCTR /= float64(len(history))

	trend := roasTrend(history)

	factor := 0.0
	var reasons []string

	// ROAS vs target
	switch {
	case current.ROAS < e.cfg.TargetROAS*0.7:
		factor -= 0.15
		reasons = append(reasons, fmt.Sprintf("ROAS below target (%.2f < %.2f)", current.ROAS, e.cfg.TargetROAS*0.7))
	case current.ROAS > e.cfg.TargetROAS*1.3:
		factor += 0.20
		reasons = append(reasons, fmt.Sprintf("ROAS exceeding target (%.2f > %.2f)", current.ROAS, e.cfg.TargetROAS*1.3))
	}

	// CTR vs the historical average
	switch {
	case current.CTR < avgCTR*0.8:
		factor -= 0.10
		reasons = append(reasons, fmt.Sprintf("CTR declining (%.2f%% < %.2f%%)", current.CTR, avgCTR*0.8))
	case current.CTR > avgCTR*1.2:
		factor += 0.10
		reasons = append(reasons, fmt.Sprintf("CTR improving (%.2f%% > %.2f%%)", current.CTR, avgCTR*1.2))
	}

	// Trend direction
	switch {
	case trend < -0.2:
		factor -= 0.05
		reasons = append(reasons, "Negative performance trend")
	case trend > 0.2:
		factor += 0.05
		reasons = append(reasons, "Positive performance trend")
	}

	factor = clamp(factor, -e.cfg.MaxBidChange, e.cfg.MaxBidChange)

	if math.Abs(factor) < minSignificantAdjustment {
		return model.BidAdjustment{}, false
	}

	// Max bid is estimated from the observed CPC.
	currentBid := current.CPC * 1.2
	newBid := currentBid * (1 + factor)

	return model.BidAdjustment{
		CampaignID:        current.CampaignID,
		Platform:          current.Platform,
		CurrentBid:        round2(currentBid),
		NewBid:            round2(newBid),
		AdjustmentPercent: round1(factor * 100),
		Reasons:           reasons,
		CurrentROAS:       round2(current.ROAS),
		TargetROAS:        e.cfg.TargetROAS,
		Timestamp:         time.Now(),
	}, true
}

// BudgetReallocation splits totalBudget across campaigns proportionally to a
// performance score blending ROAS attainment with spend volume.
func (e *Engine) BudgetReallocation(metrics []model.CampaignMetrics, totalBudget float64) *model.BudgetPlan {
	if len(metrics) == 0 {
		return nil
	}

	scores := make(map[string]float64, len(metrics))
	currentSpend := make(map[string]float64, len(metrics))
	totalScore := 0.0

	for i := range metrics {
		m := &metrics[i]
		volumeWeight := math.Min(m.DailySpend/100, 1.0)
		performanceWeight := m.ROAS / e.cfg.TargetROAS
		score := performanceWeight * (0.7 + 0.3*volumeWeight)

		scores[m.CampaignID] = score
		currentSpend[m.CampaignID] = m.DailySpend
		totalScore += score
	}

	if totalScore == 0 {
		return nil
	}

	plan := &model.BudgetPlan{
		TotalBudget: totalBudget,
		Allocations: make(map[string]model.BudgetAllocation, len(scores)),
		Timestamp:   time.Now(),
	}

	for campaignID, score := range scores {
		allocation := score / totalScore * totalBudget
		current := currentSpend[campaignID]

		changePercent := 0.0
		if current > 0 {
			changePercent = (allocation - current) / current * 100
		}

		plan.Allocations[campaignID] = model.BudgetAllocation{
			CurrentBudget:     round2(current),
			RecommendedBudget: round2(allocation),
			Change:            round2(allocation - current),
			ChangePercent:     round1(changePercent),
			PerformanceScore:  round2(score),
		}
	}

	return plan
}

// roasTrend fits a least-squares line through the ROAS history and normalizes
// the slope to [-1, 1] against the spread of the series.
func roasTrend(history []model.CampaignMetrics) float64 {
	n := len(history)
	if n < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i := range history {
		x := float64(i)
		y := history[i].ROAS
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	slope := (fn*sumXY - sumX*sumY) / denom

	mean := sumY / fn
	var variance float64
	for i := range history {
		d := history[i].ROAS - mean
		variance += d * d
	}
	std := math.Sqrt(variance / fn)
	if std == 0 {
		return 0
	}

	maxSlope := std / fn
	return clamp(slope/maxSlope, -1, 1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
