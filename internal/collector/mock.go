package collector

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/adsentry-team/adsentry/internal/model"
)

// GenerateMockCampaigns synthesizes count realistic campaign records for the
// given platform. CTR lands in 1-5%, conversion rate in 2-10%, CPC in
// $0.50-$5.00 and conversion value in $50-$500, with the budget limit set
// 1.2-2x above spend.
func GenerateMockCampaigns(platform string, count int) ([]model.CampaignMetrics, error) {
	campaigns := make([]model.CampaignMetrics, 0, count)

	for i := 0; i < count; i++ {
		impressions := int64(rand.Intn(49001) + 1000)
		clicks := int64(float64(impressions) * (0.01 + rand.Float64()*0.04))
		conversions := int64(float64(clicks) * (0.02 + rand.Float64()*0.08))

		dailySpend := float64(clicks) * (0.5 + rand.Float64()*4.5)
		revenue := float64(conversions) * (50 + rand.Float64()*450)

		cpc := 0.0
		if clicks > 0 {
			cpc = dailySpend / float64(clicks)
		}

		m := model.CampaignMetrics{
			CampaignID:       fmt.Sprintf("%s_camp_%03d", platform, i+1),
			Platform:         platform,
			Timestamp:        time.Now().Add(-time.Duration(rand.Intn(25)) * time.Hour),
			Impressions:      impressions,
			Clicks:           clicks,
			Conversions:      conversions,
			DailySpend:       dailySpend,
			DailyBudgetLimit: dailySpend * (1.2 + rand.Float64()*0.8),
			Revenue:          revenue,
			CPC:              cpc,
		}
		m.Derive()

		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("generated invalid campaign: %w", err)
		}
		campaigns = append(campaigns, m)
	}

	return campaigns, nil
}
