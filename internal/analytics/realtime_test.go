package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexinsights/internal/analytics"
	"lexinsights/internal/config"
	"lexinsights/internal/testsupport"
	"lexinsights/internal/tracking"
)

func TestGetRealtimeStatsWindows(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	now := time.Now().UTC()

	testsupport.CreateTestSession(t, db, "visitor-a", "session-a", now.Add(-2*time.Minute), nil)
	testsupport.CreateTestSession(t, db, "visitor-b", "session-b", now.Add(-10*time.Minute), nil)
	testsupport.CreateTestSession(t, db, "visitor-c", "session-c", now.Add(-40*time.Minute), nil)
	// Fresh page view, but the session already flushed: not active
	testsupport.CreateTestSession(t, db, "visitor-d", "session-d", now.Add(-3*time.Minute), func(s *tracking.Session) {
		ended := now.Add(-time.Minute)
		s.EndedAt = &ended
	})

	// Inside the active window
	testsupport.CreateTestPageView(t, db, "visitor-a", "session-a", "/practice-areas/dui", now.Add(-2*time.Minute), nil)
	testsupport.CreateTestPageView(t, db, "visitor-d", "session-d", "/contact", now.Add(-3*time.Minute), nil)
	// Past the active window but inside the feed window
	testsupport.CreateTestPageView(t, db, "visitor-b", "session-b", "/attorneys", now.Add(-10*time.Minute), nil)
	// Past both windows
	testsupport.CreateTestPageView(t, db, "visitor-c", "session-c", "/", now.Add(-40*time.Minute), nil)

	testsupport.CreateTestEvent(t, db, "visitor-a", "session-a", "phone_click", "/contact", now.Add(-10*time.Minute))
	testsupport.CreateTestEvent(t, db, "visitor-a", "session-a", "contact_form_submit", "/contact", now.Add(-5*time.Minute))
	testsupport.CreateTestEvent(t, db, "visitor-c", "session-c", "phone_click", "/contact", now.Add(-40*time.Minute))

	stats, err := analytics.GetRealtimeStats(db, 10)
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.ActiveVisitors)
	require.Len(t, stats.ActivePages, 1)
	assert.Equal(t, "/practice-areas/dui", stats.ActivePages[0].Name)

	// Events feed is reverse-chronological inside the feed window
	assert.Equal(t, int64(2), stats.RecentEventCount)
	require.Len(t, stats.RecentEvents, 2)
	assert.Equal(t, "contact_form_submit", stats.RecentEvents[0].EventType)
	assert.Equal(t, "phone_click", stats.RecentEvents[1].EventType)
	assert.Equal(t, "/contact", stats.RecentEvents[0].PagePath)

	require.Len(t, stats.RecentViews, 3)
	assert.Equal(t, "/practice-areas/dui", stats.RecentViews[0].PagePath)
	assert.Equal(t, "/contact", stats.RecentViews[1].PagePath)
	assert.Equal(t, "/attorneys", stats.RecentViews[2].PagePath)
}

func TestGetRealtimeStatsEmptyDataset(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	stats, err := analytics.GetRealtimeStats(db, 10)
	require.NoError(t, err)

	assert.Equal(t, int64(0), stats.ActiveVisitors)
	assert.Equal(t, int64(0), stats.RecentEventCount)
	assert.Empty(t, stats.ActivePages)
	assert.Empty(t, stats.RecentViews)
	assert.Empty(t, stats.RecentEvents)
}

func TestGetRealtimeStatsActiveWindowBoundary(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	window := time.Duration(config.GetConfig().RealtimeActiveWindowMinutes) * time.Minute
	now := time.Now().UTC()

	testsupport.CreateTestSession(t, db, "visitor-in", "session-in", now.Add(-window), nil)
	testsupport.CreateTestSession(t, db, "visitor-out", "session-out", now.Add(-window), nil)

	// One second inside the window, one second past it
	testsupport.CreateTestPageView(t, db, "visitor-in", "session-in", "/", now.Add(-window+time.Second), nil)
	testsupport.CreateTestPageView(t, db, "visitor-out", "session-out", "/", now.Add(-window-time.Second), nil)

	stats, err := analytics.GetRealtimeStats(db, 10)
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.ActiveVisitors)
	require.Len(t, stats.ActivePages, 1)
	assert.Equal(t, int64(1), stats.ActivePages[0].Count)
}
