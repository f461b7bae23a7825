package analytics

import (
	"fmt"

	"gorm.io/gorm"
)

// ChannelStat summarizes one acquisition channel over the window.
type ChannelStat struct {
	Channel    string  `json:"channel"`
	Sessions   int64   `json:"sessions"`
	Visitors   int64   `json:"visitors"`
	BounceRate float64 `json:"bounce_rate"`
}

// GetChannelBreakdown returns sessions grouped by acquisition channel,
// most popular first. Internal navigations are not an acquisition
// channel and are excluded.
func GetChannelBreakdown(db *gorm.DB, params QueryParams) ([]ChannelStat, error) {
	var results []ChannelStat

	query := `
		SELECT
			referrer_type AS channel,
			COUNT(*) AS sessions,
			COUNT(DISTINCT visitor_id) AS visitors,
			COALESCE(SUM(CASE WHEN is_bounce = 1 THEN 1 ELSE 0 END) * 1.0 / COUNT(*), 0) AS bounce_rate
		FROM sessions
		WHERE started_at BETWEEN ? AND ?
		AND referrer_type NOT IN ('', 'internal')
		GROUP BY referrer_type
		ORDER BY sessions DESC
		LIMIT ?
	`

	err := db.Raw(query,
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
		params.Limit,
	).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching channel breakdown: %w", err)
	}

	return results, nil
}

// GetTopSearchKeywords returns the most common search keywords captured
// from search engine referrals.
func GetTopSearchKeywords(db *gorm.DB, params QueryParams) ([]MetricCountResult, error) {
	var results []MetricCountResult

	query := `
		SELECT
			search_keyword AS name,
			COUNT(*) AS count
		FROM sessions
		WHERE started_at BETWEEN ? AND ?
		AND search_keyword != ''
		GROUP BY search_keyword
		ORDER BY count DESC
		LIMIT ?
	`

	err := db.Raw(query,
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
		params.Limit,
	).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching top search keywords: %w", err)
	}

	return results, nil
}

// CampaignStat summarizes one UTM campaign over the window.
type CampaignStat struct {
	Source   string `json:"source"`
	Medium   string `json:"medium"`
	Campaign string `json:"campaign"`
	Sessions int64  `json:"sessions"`
	Visitors int64  `json:"visitors"`
}

// GetTopCampaigns returns the most active UTM campaigns. Sessions with
// no campaign parameters are excluded.
func GetTopCampaigns(db *gorm.DB, params QueryParams) ([]CampaignStat, error) {
	var results []CampaignStat

	query := `
		SELECT
			utm_source AS source,
			utm_medium AS medium,
			utm_campaign AS campaign,
			COUNT(*) AS sessions,
			COUNT(DISTINCT visitor_id) AS visitors
		FROM sessions
		WHERE started_at BETWEEN ? AND ?
		AND (utm_source != '' OR utm_campaign != '')
		GROUP BY utm_source, utm_medium, utm_campaign
		ORDER BY sessions DESC
		LIMIT ?
	`

	err := db.Raw(query,
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
		params.Limit,
	).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching top campaigns: %w", err)
	}

	return results, nil
}
