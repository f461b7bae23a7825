package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexinsights/internal/analytics"
	"lexinsights/internal/testsupport"
	"lexinsights/internal/timeframe"
	"lexinsights/internal/tracking"
)

func TestGetOverviewStats(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	now := time.Now().UTC()
	boolPtr := func(b bool) *bool { return &b }

	// Visitor A: bounced single-page session
	testsupport.CreateTestSession(t, db, "visitor-a", "session-a1", now.Add(-2*time.Hour), func(s *tracking.Session) {
		s.IsBounce = boolPtr(true)
	})
	// Visitor B: engaged three-page session with observed end
	testsupport.CreateTestSession(t, db, "visitor-b", "session-b1", now.Add(-3*time.Hour), func(s *tracking.Session) {
		ended := now.Add(-3*time.Hour + 5*time.Minute)
		s.EndedAt = &ended
		s.ExitPage = "/contact"
		s.PageCount = 3
		s.IsBounce = boolPtr(false)
	})
	// Visitor B returns later in the window
	testsupport.CreateTestSession(t, db, "visitor-b", "session-b2", now.Add(-time.Hour), func(s *tracking.Session) {
		s.IsNewVisitor = false
		s.PageCount = 2
	})

	params := analytics.NewQueryParams(timeframe.LastNDays(7))
	stats, err := analytics.GetOverviewStats(db, params)
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.UniqueVisitors)
	assert.Equal(t, int64(3), stats.Sessions)
	assert.Equal(t, int64(6), stats.PageViews)
	assert.Equal(t, int64(2), stats.NewVisitors)
	assert.Equal(t, int64(1), stats.ReturningVisitors)
	assert.InDelta(t, 2.0/3.0, stats.NewVisitorRate, 0.01)
	assert.InDelta(t, 2.0, stats.AvgPagesPerVisit, 0.01)
	// One bounced session out of three; the never-flushed session
	// counts in the denominator, not as a bounce
	assert.InDelta(t, 1.0/3.0, stats.BounceRate, 0.01)
	// Only one session has an observed end, 5 minutes long
	assert.InDelta(t, 300.0, stats.AvgSessionSeconds, 1.0)
}

func TestGetOverviewStatsCountsEvents(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	now := time.Now().UTC()
	testsupport.CreateTestSession(t, db, "visitor-a", "session-a1", now.Add(-time.Hour), nil)
	testsupport.CreateTestEvent(t, db, "visitor-a", "session-a1", "phone_click", "/contact", now.Add(-time.Hour))
	testsupport.CreateTestEvent(t, db, "visitor-a", "session-a1", "contact_form_submit", "/contact", now.Add(-50*time.Minute))

	params := analytics.NewQueryParams(timeframe.LastNDays(7))
	stats, err := analytics.GetOverviewStats(db, params)
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.TotalEvents)
}

func TestGetDailyPageViewsCountsEveryView(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	// Three views by the same visitor still count as three
	now := time.Now().UTC()
	testsupport.CreateTestPageView(t, db, "visitor-a", "session-a1", "/", now.Add(-time.Hour), nil)
	testsupport.CreateTestPageView(t, db, "visitor-a", "session-a1", "/attorneys", now.Add(-time.Hour), nil)
	testsupport.CreateTestPageView(t, db, "visitor-a", "session-a1", "/contact", now.Add(-time.Hour), nil)

	params := analytics.NewQueryParams(timeframe.LastNDays(7))
	series, err := analytics.GetDailyPageViews(db, params)
	require.NoError(t, err)

	require.NotEmpty(t, series)
	var total, nonZero int
	for _, stat := range series {
		total += stat.Count
		if stat.Count > 0 {
			nonZero++
		}
	}
	assert.Equal(t, 3, total)
	assert.Equal(t, 1, nonZero)
}

func TestGetHourOfDayHistogram(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	day := time.Now().UTC().Add(-24 * time.Hour).Truncate(24 * time.Hour)
	at9 := day.Add(9 * time.Hour)
	at14 := day.Add(14 * time.Hour)
	testsupport.CreateTestPageView(t, db, "visitor-a", "session-a1", "/", at9, nil)
	testsupport.CreateTestPageView(t, db, "visitor-a", "session-a1", "/attorneys", at9.Add(10*time.Minute), nil)
	testsupport.CreateTestPageView(t, db, "visitor-b", "session-b1", "/", at14, nil)

	params := analytics.NewQueryParams(timeframe.LastNDays(7))
	histogram, err := analytics.GetHourOfDayHistogram(db, params)
	require.NoError(t, err)

	require.Len(t, histogram, 24)
	assert.Equal(t, "09", histogram[9].Name)
	assert.Equal(t, int64(2), histogram[9].Count)
	assert.Equal(t, int64(1), histogram[14].Count)
	assert.Equal(t, int64(0), histogram[0].Count)
}

func TestGetOverviewStatsEmptyDataset(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	params := analytics.NewQueryParams(timeframe.LastNDays(30))
	stats, err := analytics.GetOverviewStats(db, params)
	require.NoError(t, err)

	assert.Equal(t, int64(0), stats.UniqueVisitors)
	assert.Equal(t, int64(0), stats.Sessions)
	assert.Equal(t, int64(0), stats.PageViews)
	assert.Equal(t, 0.0, stats.BounceRate)
	assert.Equal(t, 0.0, stats.NewVisitorRate)
	assert.Equal(t, 0.0, stats.AvgSessionSeconds)
}

func TestGetDailyVisitorsZeroFillsWindow(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	now := time.Now().UTC()
	testsupport.CreateTestSession(t, db, "visitor-a", "session-a1", now.Add(-time.Hour), nil)
	testsupport.CreateTestSession(t, db, "visitor-b", "session-b1", now.Add(-time.Hour), nil)

	params := analytics.NewQueryParams(timeframe.LastNDays(7))
	series, err := analytics.GetDailyVisitors(db, params)
	require.NoError(t, err)

	require.NotEmpty(t, series)
	var total, nonZero int
	for _, stat := range series {
		total += stat.Count
		if stat.Count > 0 {
			nonZero++
		}
	}
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, nonZero)
}
