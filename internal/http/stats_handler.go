// Package http contains the dashboard-facing HTTP handlers. The stats
// endpoints are read-only JSON views over the analytics queries and are
// protected by the dashboard API key middleware.
package http

import (
	"context"
	"log/slog"

	"github.com/karloscodes/cartridge"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"lexinsights/internal/analytics"
	"lexinsights/internal/pkg/async"
	"lexinsights/internal/timeframe"
)

// queryParamsFromRequest builds query params from the ?days=N parameter.
// Out-of-range values are clamped by the timeframe package.
func queryParamsFromRequest(ctx *cartridge.Context) analytics.QueryParams {
	days := ctx.Ctx.QueryInt("days", timeframe.DefaultLookbackDays)
	return analytics.NewQueryParams(timeframe.LastNDays(days))
}

// runStatsTasks fans out the queries and collects their results. A
// failed query logs and contributes its fallback value so one broken
// panel never takes down the whole dashboard response.
func runStatsTasks(logger *slog.Logger, tasks []async.Task) map[string]async.Result {
	pool := async.NewPool(8)
	results := pool.Execute(context.Background(), tasks)

	for name, result := range results {
		if result.Err != nil {
			logger.Error("Stats query failed", slog.String("query", name), slog.Any("error", result.Err))
		}
	}

	return results
}

func metricResultsOrEmpty(results map[string]async.Result, name string) []analytics.MetricCountResult {
	if result, ok := results[name]; ok && result.Err == nil && result.Data != nil {
		if data, ok := result.Data.([]analytics.MetricCountResult); ok && data != nil {
			return data
		}
	}
	return []analytics.MetricCountResult{}
}

// StatsOverviewAction returns the summary totals and visitor trend.
func StatsOverviewAction(ctx *cartridge.Context) error {
	db := ctx.DBManager.GetConnection()
	params := queryParamsFromRequest(ctx)

	tasks := []async.Task{
		{
			Name: "summary",
			Execute: func() (any, error) {
				return analytics.GetOverviewStats(db, params)
			},
		},
		{
			Name: "visitorSeries",
			Execute: func() (any, error) {
				return analytics.GetDailyVisitors(db, params)
			},
		},
		{
			Name: "pageViewSeries",
			Execute: func() (any, error) {
				return analytics.GetDailyPageViews(db, params)
			},
		},
		{
			Name: "hoursOfDay",
			Execute: func() (any, error) {
				return analytics.GetHourOfDayHistogram(db, params)
			},
		},
	}

	results := runStatsTasks(ctx.Logger, tasks)

	summary := &analytics.OverviewStats{}
	if result := results["summary"]; result.Err == nil && result.Data != nil {
		summary = result.Data.(*analytics.OverviewStats)
	}
	dateSeriesOrEmpty := func(name string) []timeframe.DateStat {
		if result := results[name]; result.Err == nil && result.Data != nil {
			if data, ok := result.Data.([]timeframe.DateStat); ok && data != nil {
				return data
			}
		}
		return []timeframe.DateStat{}
	}

	return ctx.JSON(map[string]any{
		"summary":      summary,
		"visitors":     dateSeriesOrEmpty("visitorSeries"),
		"page_views":   dateSeriesOrEmpty("pageViewSeries"),
		"hours_of_day": metricResultsOrEmpty(results, "hoursOfDay"),
	})
}

// StatsChannelsAction returns the acquisition breakdowns.
func StatsChannelsAction(ctx *cartridge.Context) error {
	db := ctx.DBManager.GetConnection()
	params := queryParamsFromRequest(ctx)

	tasks := []async.Task{
		{
			Name: "channels",
			Execute: func() (any, error) {
				return analytics.GetChannelBreakdown(db, params)
			},
		},
		{
			Name: "keywords",
			Execute: func() (any, error) {
				return analytics.GetTopSearchKeywords(db, params)
			},
		},
		{
			Name: "campaigns",
			Execute: func() (any, error) {
				return analytics.GetTopCampaigns(db, params)
			},
		},
	}

	results := runStatsTasks(ctx.Logger, tasks)

	channels := []analytics.ChannelStat{}
	if result := results["channels"]; result.Err == nil && result.Data != nil {
		if data, ok := result.Data.([]analytics.ChannelStat); ok && data != nil {
			channels = data
		}
	}
	campaigns := []analytics.CampaignStat{}
	if result := results["campaigns"]; result.Err == nil && result.Data != nil {
		if data, ok := result.Data.([]analytics.CampaignStat); ok && data != nil {
			campaigns = data
		}
	}

	return ctx.JSON(map[string]any{
		"channels":  channels,
		"keywords":  metricResultsOrEmpty(results, "keywords"),
		"campaigns": campaigns,
	})
}

// StatsPagesAction returns per-page traffic and engagement.
func StatsPagesAction(ctx *cartridge.Context) error {
	db := ctx.DBManager.GetConnection()
	params := queryParamsFromRequest(ctx)

	tasks := []async.Task{
		{
			Name: "topPages",
			Execute: func() (any, error) {
				return analytics.GetTopPages(db, params)
			},
		},
		{
			Name: "landingPages",
			Execute: func() (any, error) {
				return analytics.GetTopLandingPages(db, params)
			},
		},
		{
			Name: "exitPages",
			Execute: func() (any, error) {
				return analytics.GetTopExitPages(db, params)
			},
		},
	}

	results := runStatsTasks(ctx.Logger, tasks)

	topPages := []analytics.PageStat{}
	if result := results["topPages"]; result.Err == nil && result.Data != nil {
		if data, ok := result.Data.([]analytics.PageStat); ok && data != nil {
			topPages = data
		}
	}

	return ctx.JSON(map[string]any{
		"top_pages":     topPages,
		"landing_pages": metricResultsOrEmpty(results, "landingPages"),
		"exit_pages":    metricResultsOrEmpty(results, "exitPages"),
	})
}

// StatsDevicesAction returns device, browser, OS and country breakdowns.
func StatsDevicesAction(ctx *cartridge.Context) error {
	db := ctx.DBManager.GetConnection()
	params := queryParamsFromRequest(ctx)

	tasks := []async.Task{
		{
			Name: "deviceTypes",
			Execute: func() (any, error) {
				return analytics.GetDeviceTypeBreakdown(db, params)
			},
		},
		{
			Name: "brands",
			Execute: func() (any, error) {
				return analytics.GetTopDeviceBrands(db, params)
			},
		},
		{
			Name: "browsers",
			Execute: func() (any, error) {
				return analytics.GetTopBrowsers(db, params)
			},
		},
		{
			Name: "operatingSystems",
			Execute: func() (any, error) {
				return analytics.GetTopOperatingSystems(db, params)
			},
		},
		{
			Name: "screenResolutions",
			Execute: func() (any, error) {
				return analytics.GetTopScreenResolutions(db, params)
			},
		},
		{
			Name: "countries",
			Execute: func() (any, error) {
				return analytics.GetTopCountries(db, params)
			},
		},
	}

	results := runStatsTasks(ctx.Logger, tasks)

	return ctx.JSON(map[string]any{
		"device_types":       titleCased(metricResultsOrEmpty(results, "deviceTypes")),
		"brands":             metricResultsOrEmpty(results, "brands"),
		"browsers":           metricResultsOrEmpty(results, "browsers"),
		"operating_systems":  metricResultsOrEmpty(results, "operatingSystems"),
		"screen_resolutions": metricResultsOrEmpty(results, "screenResolutions"),
		"countries":          metricResultsOrEmpty(results, "countries"),
	})
}

// StatsConversionsAction returns the consultation event breakdowns.
func StatsConversionsAction(ctx *cartridge.Context) error {
	db := ctx.DBManager.GetConnection()
	params := queryParamsFromRequest(ctx)

	tasks := []async.Task{
		{
			Name: "summary",
			Execute: func() (any, error) {
				return analytics.GetConversionStats(db, params)
			},
		},
		{
			Name: "byType",
			Execute: func() (any, error) {
				return analytics.GetEventTypeBreakdown(db, params)
			},
		},
		{
			Name: "byPage",
			Execute: func() (any, error) {
				return analytics.GetConversionsByPage(db, params)
			},
		},
		{
			Name: "byChannel",
			Execute: func() (any, error) {
				return analytics.GetConversionsByChannel(db, params)
			},
		},
	}

	results := runStatsTasks(ctx.Logger, tasks)

	summary := &analytics.ConversionStats{}
	if result := results["summary"]; result.Err == nil && result.Data != nil {
		summary = result.Data.(*analytics.ConversionStats)
	}
	byChannel := []analytics.ChannelConversionStat{}
	if result := results["byChannel"]; result.Err == nil && result.Data != nil {
		if data, ok := result.Data.([]analytics.ChannelConversionStat); ok && data != nil {
			byChannel = data
		}
	}

	return ctx.JSON(map[string]any{
		"summary":    summary,
		"by_type":    metricResultsOrEmpty(results, "byType"),
		"by_page":    metricResultsOrEmpty(results, "byPage"),
		"by_channel": byChannel,
	})
}

// StatsRealtimeAction returns the live activity view.
func StatsRealtimeAction(ctx *cartridge.Context) error {
	db := ctx.DBManager.GetConnection()

	stats, err := analytics.GetRealtimeStats(db, 20)
	if err != nil {
		ctx.Logger.Error("Realtime query failed", slog.Any("error", err))
		stats = &analytics.RealtimeStats{
			ActivePages:  []analytics.MetricCountResult{},
			RecentViews:  []analytics.RecentPageView{},
			RecentEvents: []analytics.RecentEvent{},
		}
	}

	return ctx.JSON(stats)
}

// titleCased prettifies stored lowercase labels for display.
func titleCased(items []analytics.MetricCountResult) []analytics.MetricCountResult {
	caser := cases.Title(language.AmericanEnglish)

	result := make([]analytics.MetricCountResult, len(items))
	for i, item := range items {
		result[i] = analytics.MetricCountResult{
			Name:  caser.String(item.Name),
			Count: item.Count,
		}
	}
	return result
}
