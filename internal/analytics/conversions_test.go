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

func TestGetConversionStats(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	now := time.Now().UTC()
	testsupport.CreateTestSession(t, db, "visitor-a", "session-a", now.Add(-2*time.Hour), nil)
	testsupport.CreateTestSession(t, db, "visitor-b", "session-b", now.Add(-2*time.Hour), nil)
	testsupport.CreateTestSession(t, db, "visitor-c", "session-c", now.Add(-2*time.Hour), nil)
	testsupport.CreateTestSession(t, db, "visitor-d", "session-d", now.Add(-2*time.Hour), nil)

	// Visitor A converts twice in the same session, visitor B once
	testsupport.CreateTestEvent(t, db, "visitor-a", "session-a", "contact_form_submit", "/contact", now.Add(-time.Hour))
	testsupport.CreateTestEvent(t, db, "visitor-a", "session-a", "phone_click", "/contact", now.Add(-time.Hour))
	testsupport.CreateTestEvent(t, db, "visitor-b", "session-b", "phone_click", "/practice-areas/dui", now.Add(-time.Hour))

	params := analytics.NewQueryParams(timeframe.LastNDays(7))
	stats, err := analytics.GetConversionStats(db, params)
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.TotalEvents)
	assert.Equal(t, int64(2), stats.ConvertedVisitors)
	assert.Equal(t, int64(2), stats.ConvertedSessions)
	assert.InDelta(t, 0.5, stats.ConversionRate, 0.01)
}

func TestGetConversionStatsEmptyDataset(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	params := analytics.NewQueryParams(timeframe.LastNDays(7))
	stats, err := analytics.GetConversionStats(db, params)
	require.NoError(t, err)

	assert.Equal(t, int64(0), stats.TotalEvents)
	assert.Equal(t, 0.0, stats.ConversionRate)
}

func TestGetConversionsByChannel(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	now := time.Now().UTC()
	asSearch := func(s *tracking.Session) { s.ReferrerType = "search" }
	testsupport.CreateTestSession(t, db, "visitor-a", "session-a", now.Add(-2*time.Hour), asSearch)
	testsupport.CreateTestSession(t, db, "visitor-b", "session-b", now.Add(-2*time.Hour), asSearch)
	testsupport.CreateTestSession(t, db, "visitor-c", "session-c", now.Add(-2*time.Hour), nil)

	// One of the two search sessions converts; the direct one does not
	testsupport.CreateTestEvent(t, db, "visitor-a", "session-a", "phone_click", "/contact", now.Add(-time.Hour))
	testsupport.CreateTestEvent(t, db, "visitor-a", "session-a", "contact_form_submit", "/contact", now.Add(-time.Hour))

	params := analytics.NewQueryParams(timeframe.LastNDays(7))
	channels, err := analytics.GetConversionsByChannel(db, params)
	require.NoError(t, err)

	require.Len(t, channels, 2)
	assert.Equal(t, "search", channels[0].Channel)
	assert.Equal(t, int64(2), channels[0].Sessions)
	assert.Equal(t, int64(1), channels[0].ConvertedSessions)
	assert.InDelta(t, 0.5, channels[0].ConversionRate, 0.01)

	assert.Equal(t, "direct", channels[1].Channel)
	assert.Equal(t, int64(0), channels[1].ConvertedSessions)
	assert.Equal(t, 0.0, channels[1].ConversionRate)
}

func TestGetEventTypeBreakdown(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	now := time.Now().UTC()
	testsupport.CreateTestEvent(t, db, "visitor-a", "session-a", "phone_click", "/", now.Add(-time.Hour))
	testsupport.CreateTestEvent(t, db, "visitor-b", "session-b", "phone_click", "/", now.Add(-time.Hour))
	testsupport.CreateTestEvent(t, db, "visitor-c", "session-c", "contact_form_submit", "/contact", now.Add(-time.Hour))

	params := analytics.NewQueryParams(timeframe.LastNDays(7))
	breakdown, err := analytics.GetEventTypeBreakdown(db, params)
	require.NoError(t, err)

	require.Len(t, breakdown, 2)
	assert.Equal(t, "phone_click", breakdown[0].Name)
	assert.Equal(t, int64(2), breakdown[0].Count)
}
