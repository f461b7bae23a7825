// Package analytics provides the read-side query functions for the
// reporting dashboards. All queries run directly against the raw
// sessions, page_views and consultation_events tables.
//
// The package is organized into focused modules:
//   - overview.go: site-wide totals, bounce rate and daily trend
//   - channels.go: acquisition channel, keyword and campaign breakdowns
//   - pages.go: per-page traffic and engagement
//   - devices.go: device, browser, OS and country breakdowns
//   - conversions.go: consultation event funnels
//   - realtime.go: live visitor window and activity feed
//
// Every query tolerates an empty dataset: zero rows produce zero-valued
// results, never an error.
package analytics

// MetricCountResult represents a generic key-count pair for query results
type MetricCountResult struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}
