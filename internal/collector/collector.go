// Package collector fetches and normalizes per-campaign metrics from the
// supported ad platforms. Without platform credentials it falls back to the
// mock generator, so the rest of the pipeline can run end to end.
package collector

import (
	"context"
	"log"
	"os"

	"github.com/adsentry-team/adsentry/internal/config"
	"github.com/adsentry-team/adsentry/internal/model"
)

// Collector gathers campaign metrics from all configured platforms.
type Collector struct {
	cfg *config.CollectorConfig

	// Platform credentials, read from the environment.
	googleAdsKey  string
	metaToken     string
	linkedInToken string

	useMock bool
}

// New creates a Collector. When no platform credentials are present in the
// environment, mock data is used regardless of cfg.UseMock.
func New(cfg *config.CollectorConfig) *Collector {
	c := &Collector{
		cfg:           cfg,
		googleAdsKey:  os.Getenv("GOOGLE_ADS_API_KEY"),
		metaToken:     os.Getenv("META_ACCESS_TOKEN"),
		linkedInToken: os.Getenv("LINKEDIN_API_TOKEN"),
		useMock:       cfg.UseMock,
	}

	if !c.useMock && c.googleAdsKey == "" && c.metaToken == "" && c.linkedInToken == "" {
		log.Println("No platform API credentials found, using mock data")
		c.useMock = true
	}

	return c
}

// UsingMock reports whether the collector synthesizes data.
func (c *Collector) UsingMock() bool {
	return c.useMock
}

// CollectAll fetches metrics from every configured platform. A failure on one
// platform is logged and skipped; the remaining platforms are still collected.
func (c *Collector) CollectAll(ctx context.Context) ([]model.CampaignMetrics, error) {
	var all []model.CampaignMetrics

	for _, platform := range c.cfg.Platforms {
		if err := ctx.Err(); err != nil {
			return all, err
		}

		metrics, err := c.collectPlatform(ctx, platform)
		if err != nil {
			log.Printf("Failed to collect from %s: %v", platform, err)
			continue
		}
		all = append(all, metrics...)
		log.Printf("Collected %d campaigns from %s", len(metrics), platform)
	}

	return all, nil
}

// collectPlatform fetches one platform's campaigns.
//
// Real platform clients are out of scope; each branch currently yields mock
// data shaped like that platform's reporting API output.
func (c *Collector) collectPlatform(ctx context.Context, platform string) ([]model.CampaignMetrics, error) {
	switch platform {
	case model.PlatformGoogleAds, model.PlatformMeta, model.PlatformLinkedIn:
		return GenerateMockCampaigns(platform, c.cfg.CampaignsPerPlatform)
	default:
		return nil, errUnknownPlatform(platform)
	}
}

type errUnknownPlatform string

func (e errUnknownPlatform) Error() string {
	return "unknown platform: " + string(e)
}
