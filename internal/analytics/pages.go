package analytics

import (
	"fmt"

	"gorm.io/gorm"
)

// PageStat summarizes traffic and engagement for a single page path.
type PageStat struct {
	PagePath       string  `json:"page_path"`
	Views          int64   `json:"views"`
	Visitors       int64   `json:"visitors"`
	AvgScrollDepth float64 `json:"avg_scroll_depth"`
	AvgTimeOnPage  float64 `json:"avg_time_on_page"`
	BounceRate     float64 `json:"bounce_rate"`
}

// GetTopPages returns the most viewed pages with their engagement
// averages. Engagement averages only consider views that were flushed.
func GetTopPages(db *gorm.DB, params QueryParams) ([]PageStat, error) {
	var results []PageStat

	query := `
		SELECT
			page_path,
			COUNT(*) AS views,
			COUNT(DISTINCT visitor_id) AS visitors,
			COALESCE(AVG(scroll_depth), 0) AS avg_scroll_depth,
			COALESCE(AVG(time_on_page), 0) AS avg_time_on_page,
			COALESCE(SUM(CASE WHEN is_bounce = 1 THEN 1 ELSE 0 END) * 1.0 / COUNT(*), 0) AS bounce_rate
		FROM page_views
		WHERE created_at BETWEEN ? AND ?
		GROUP BY page_path
		ORDER BY views DESC
		LIMIT ?
	`

	err := db.Raw(query,
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
		params.Limit,
	).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching top pages: %w", err)
	}

	return results, nil
}

// GetTopLandingPages returns the pages sessions most often start on.
func GetTopLandingPages(db *gorm.DB, params QueryParams) ([]MetricCountResult, error) {
	var results []MetricCountResult

	query := `
		SELECT
			landing_page AS name,
			COUNT(*) AS count
		FROM sessions
		WHERE started_at BETWEEN ? AND ?
		AND landing_page != ''
		GROUP BY landing_page
		ORDER BY count DESC
		LIMIT ?
	`

	err := db.Raw(query,
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
		params.Limit,
	).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching top landing pages: %w", err)
	}

	return results, nil
}

// GetTopExitPages returns the pages sessions most often end on. Only
// sessions whose end was observed via a flush carry an exit page.
func GetTopExitPages(db *gorm.DB, params QueryParams) ([]MetricCountResult, error) {
	var results []MetricCountResult

	query := `
		SELECT
			exit_page AS name,
			COUNT(*) AS count
		FROM sessions
		WHERE started_at BETWEEN ? AND ?
		AND exit_page != ''
		GROUP BY exit_page
		ORDER BY count DESC
		LIMIT ?
	`

	err := db.Raw(query,
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
		params.Limit,
	).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching top exit pages: %w", err)
	}

	return results, nil
}
