package analytics

import (
	"fmt"

	"gorm.io/gorm"
)

// ConversionStats summarizes consultation intent over the window.
type ConversionStats struct {
	TotalEvents       int64   `json:"total_events"`
	ConvertedVisitors int64   `json:"converted_visitors"`
	ConversionRate    float64 `json:"conversion_rate"`
	ConvertedSessions int64   `json:"converted_sessions"`
}

// GetConversionStats computes totals plus the conversion rate: sessions
// with at least one consultation event over all sessions in the window.
func GetConversionStats(db *gorm.DB, params QueryParams) (*ConversionStats, error) {
	var stats ConversionStats

	query := `
		SELECT
			(SELECT COUNT(*) FROM consultation_events
				WHERE created_at BETWEEN ? AND ?) AS total_events,
			(SELECT COUNT(DISTINCT visitor_id) FROM consultation_events
				WHERE created_at BETWEEN ? AND ?) AS converted_visitors,
			(SELECT COUNT(DISTINCT session_id) FROM consultation_events
				WHERE created_at BETWEEN ? AND ?) AS converted_sessions
	`

	from := params.TimeFrame.From.UTC()
	to := params.TimeFrame.To.UTC()
	err := db.Raw(query, from, to, from, to, from, to).Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching conversion stats: %w", err)
	}

	var totalSessions int64
	err = db.Raw(`
		SELECT COUNT(*) FROM sessions
		WHERE started_at BETWEEN ? AND ?
	`, from, to).Scan(&totalSessions).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching session total: %w", err)
	}

	if totalSessions > 0 {
		stats.ConversionRate = float64(stats.ConvertedSessions) / float64(totalSessions)
	}

	return &stats, nil
}

// GetEventTypeBreakdown returns event counts grouped by event type.
func GetEventTypeBreakdown(db *gorm.DB, params QueryParams) ([]MetricCountResult, error) {
	var results []MetricCountResult

	query := `
		SELECT
			event_type AS name,
			COUNT(*) AS count
		FROM consultation_events
		WHERE created_at BETWEEN ? AND ?
		GROUP BY event_type
		ORDER BY count DESC
		LIMIT ?
	`

	err := db.Raw(query,
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
		params.Limit,
	).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching event type breakdown: %w", err)
	}

	return results, nil
}

// GetConversionsByPage returns the pages events most often fire on.
func GetConversionsByPage(db *gorm.DB, params QueryParams) ([]MetricCountResult, error) {
	var results []MetricCountResult

	query := `
		SELECT
			page_path AS name,
			COUNT(*) AS count
		FROM consultation_events
		WHERE created_at BETWEEN ? AND ?
		AND page_path != ''
		GROUP BY page_path
		ORDER BY count DESC
		LIMIT ?
	`

	err := db.Raw(query,
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
		params.Limit,
	).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching conversions by page: %w", err)
	}

	return results, nil
}

// ChannelConversionStat is one channel's conversion performance.
type ChannelConversionStat struct {
	Channel           string  `json:"channel"`
	Sessions          int64   `json:"sessions"`
	ConvertedSessions int64   `json:"converted_sessions"`
	ConversionRate    float64 `json:"conversion_rate"`
}

// GetConversionsByChannel computes each channel's conversion rate:
// sessions with at least one event over all sessions attributed to the
// channel.
func GetConversionsByChannel(db *gorm.DB, params QueryParams) ([]ChannelConversionStat, error) {
	var results []ChannelConversionStat

	query := `
		SELECT
			s.referrer_type AS channel,
			COUNT(DISTINCT s.session_id) AS sessions,
			COUNT(DISTINCT e.session_id) AS converted_sessions
		FROM sessions s
		LEFT JOIN consultation_events e
			ON e.session_id = s.session_id
			AND e.created_at BETWEEN ? AND ?
		WHERE s.started_at BETWEEN ? AND ?
		AND s.referrer_type != ''
		GROUP BY s.referrer_type
		ORDER BY sessions DESC
		LIMIT ?
	`

	from := params.TimeFrame.From.UTC()
	to := params.TimeFrame.To.UTC()
	err := db.Raw(query, from, to, from, to, params.Limit).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching conversions by channel: %w", err)
	}

	for i := range results {
		if results[i].Sessions > 0 {
			results[i].ConversionRate = float64(results[i].ConvertedSessions) / float64(results[i].Sessions)
		}
	}

	return results, nil
}
