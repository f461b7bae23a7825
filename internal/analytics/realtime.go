package analytics

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"lexinsights/internal/config"
)

// RealtimeStats is the live activity view. Active visitors are counted
// over a short trailing window; the feed covers a longer one.
type RealtimeStats struct {
	ActiveVisitors   int64               `json:"active_visitors"`
	RecentEventCount int64               `json:"recent_event_count"`
	ActivePages      []MetricCountResult `json:"active_pages"`
	RecentViews      []RecentPageView    `json:"recent_views"`
	RecentEvents     []RecentEvent       `json:"recent_events"`
}

// RecentEvent is one consultation event in the live activity feed.
type RecentEvent struct {
	EventType  string    `json:"event_type"`
	EventLabel string    `json:"event_label"`
	PagePath   string    `json:"page_path"`
	CreatedAt  time.Time `json:"created_at"`
}

// RecentPageView is one entry in the live activity feed.
type RecentPageView struct {
	VisitorID    string    `json:"visitor_id"`
	PagePath     string    `json:"page_path"`
	ReferrerType string    `json:"referrer_type"`
	DeviceType   string    `json:"device_type"`
	Country      string    `json:"country"`
	CreatedAt    time.Time `json:"created_at"`
}

// GetRealtimeStats computes the live view as of now. Window sizes come
// from configuration.
func GetRealtimeStats(db *gorm.DB, limit int) (*RealtimeStats, error) {
	cfg := config.GetConfig()
	now := time.Now().UTC()
	activeSince := now.Add(-time.Duration(cfg.RealtimeActiveWindowMinutes) * time.Minute)
	feedSince := now.Add(-time.Duration(cfg.RealtimeFeedWindowMinutes) * time.Minute)

	stats := &RealtimeStats{
		ActivePages:  []MetricCountResult{},
		RecentViews:  []RecentPageView{},
		RecentEvents: []RecentEvent{},
	}

	// A session is active when it has a fresh page view and has not
	// been closed by a flush yet.
	err := db.Raw(`
		SELECT COUNT(DISTINCT pv.session_id)
		FROM page_views pv
		JOIN sessions s ON s.session_id = pv.session_id
		WHERE pv.created_at >= ?
		AND s.ended_at IS NULL
	`, activeSince).Scan(&stats.ActiveVisitors).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching active visitors: %w", err)
	}

	err = db.Raw(`
		SELECT COUNT(*) FROM consultation_events
		WHERE created_at >= ?
	`, feedSince).Scan(&stats.RecentEventCount).Error
	if err != nil {
		return nil, fmt.Errorf("error counting recent events: %w", err)
	}

	err = db.Raw(`
		SELECT
			event_type,
			event_label,
			page_path,
			created_at
		FROM consultation_events
		WHERE created_at >= ?
		ORDER BY created_at DESC
		LIMIT ?
	`, feedSince, limit).Scan(&stats.RecentEvents).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching recent events: %w", err)
	}

	err = db.Raw(`
		SELECT
			pv.page_path AS name,
			COUNT(DISTINCT pv.session_id) AS count
		FROM page_views pv
		JOIN sessions s ON s.session_id = pv.session_id
		WHERE pv.created_at >= ?
		AND s.ended_at IS NULL
		GROUP BY pv.page_path
		ORDER BY count DESC
		LIMIT ?
	`, activeSince, limit).Scan(&stats.ActivePages).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching active pages: %w", err)
	}

	err = db.Raw(`
		SELECT
			visitor_id,
			page_path,
			referrer_type,
			device_type,
			country,
			created_at
		FROM page_views
		WHERE created_at >= ?
		ORDER BY created_at DESC
		LIMIT ?
	`, feedSince, limit).Scan(&stats.RecentViews).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching recent views: %w", err)
	}

	return stats, nil
}
