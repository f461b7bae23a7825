package analytics

import (
	"fmt"

	"gorm.io/gorm"

	"lexinsights/internal/timeframe"
)

// OverviewStats is the site-wide summary shown at the top of the dashboard.
type OverviewStats struct {
	UniqueVisitors    int64   `json:"unique_visitors"`
	Sessions          int64   `json:"sessions"`
	PageViews         int64   `json:"page_views"`
	BounceRate        float64 `json:"bounce_rate"`
	AvgTimeOnPage     float64 `json:"avg_time_on_page"`
	AvgSessionSeconds float64 `json:"avg_session_seconds"`
	AvgPagesPerVisit  float64 `json:"avg_pages_per_visit"`
	NewVisitors       int64   `json:"new_visitors"`
	ReturningVisitors int64   `json:"returning_visitors"`
	NewVisitorRate    float64 `json:"new_visitor_rate"`
	TotalEvents       int64   `json:"total_events"`
}

// GetOverviewStats computes the summary totals for the given window.
func GetOverviewStats(db *gorm.DB, params QueryParams) (*OverviewStats, error) {
	var stats OverviewStats

	query := `
		SELECT
			COUNT(DISTINCT visitor_id) AS unique_visitors,
			COUNT(*) AS sessions,
			COALESCE(SUM(page_count), 0) AS page_views,
			COALESCE(SUM(CASE WHEN is_bounce = 1 THEN 1 ELSE 0 END) * 1.0 / COUNT(*), 0) AS bounce_rate,
			COALESCE(AVG(CASE WHEN ended_at IS NOT NULL
				THEN (julianday(ended_at) - julianday(started_at)) * 86400 END), 0) AS avg_session_seconds,
			COALESCE(AVG(page_count), 0) AS avg_pages_per_visit,
			COALESCE(SUM(is_new_visitor), 0) AS new_visitors,
			COALESCE(SUM(1 - is_new_visitor), 0) AS returning_visitors,
			COALESCE(AVG(is_new_visitor), 0) AS new_visitor_rate,
			(SELECT COALESCE(AVG(time_on_page), 0) FROM page_views
				WHERE created_at BETWEEN ? AND ?) AS avg_time_on_page,
			(SELECT COUNT(*) FROM consultation_events
				WHERE created_at BETWEEN ? AND ?) AS total_events
		FROM sessions
		WHERE started_at BETWEEN ? AND ?
	`

	err := db.Raw(query,
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
	).Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching overview stats: %w", err)
	}

	return &stats, nil
}

// GetDailyPageViews returns the page-view volume trend bucketed by the
// window's bucket size, zero-filled across the whole window.
func GetDailyPageViews(db *gorm.DB, params QueryParams) ([]timeframe.DateStat, error) {
	var sparse []timeframe.DateStat

	query := fmt.Sprintf(`
		SELECT
			strftime('%s', created_at) AS date,
			COUNT(*) AS count
		FROM page_views
		WHERE created_at BETWEEN ? AND ?
		GROUP BY date
		ORDER BY date ASC
	`, params.TimeFrame.DBFormat())

	err := db.Raw(query,
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
	).Scan(&sparse).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching daily page views: %w", err)
	}

	return params.TimeFrame.ZeroFill(sparse), nil
}

// GetHourOfDayHistogram buckets page views by hour of day across the
// window, always returning all 24 buckets.
func GetHourOfDayHistogram(db *gorm.DB, params QueryParams) ([]MetricCountResult, error) {
	var sparse []MetricCountResult

	query := `
		SELECT
			strftime('%H', created_at) AS name,
			COUNT(*) AS count
		FROM page_views
		WHERE created_at BETWEEN ? AND ?
		GROUP BY name
		ORDER BY name ASC
	`

	err := db.Raw(query,
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
	).Scan(&sparse).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching hourly histogram: %w", err)
	}

	counts := make(map[string]int64, len(sparse))
	for _, row := range sparse {
		counts[row.Name] = row.Count
	}

	histogram := make([]MetricCountResult, 24)
	for hour := 0; hour < 24; hour++ {
		name := fmt.Sprintf("%02d", hour)
		histogram[hour] = MetricCountResult{Name: name, Count: counts[name]}
	}
	return histogram, nil
}

// GetDailyVisitors returns the unique visitor trend bucketed by the
// window's bucket size, zero-filled across the whole window.
func GetDailyVisitors(db *gorm.DB, params QueryParams) ([]timeframe.DateStat, error) {
	var sparse []timeframe.DateStat

	query := fmt.Sprintf(`
		SELECT
			strftime('%s', started_at) AS date,
			COUNT(DISTINCT visitor_id) AS count
		FROM sessions
		WHERE started_at BETWEEN ? AND ?
		GROUP BY date
		ORDER BY date ASC
	`, params.TimeFrame.DBFormat())

	err := db.Raw(query,
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
	).Scan(&sparse).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching daily visitors: %w", err)
	}

	return params.TimeFrame.ZeroFill(sparse), nil
}
