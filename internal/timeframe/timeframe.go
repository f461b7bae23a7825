// Package timeframe models the trailing lookback windows the dashboards
// query over. Historical views use whole-day windows ("last N days");
// realtime views use short minute windows handled by the analytics
// package directly.
package timeframe

import (
	"fmt"
	"time"
)

// DateStat is one bucket of a time series.
type DateStat struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// BucketSize controls how a time series is grouped.
type BucketSize string

const (
	BucketSizeDay  BucketSize = "day"
	BucketSizeHour BucketSize = "hour"
)

// Lookback bounds for the days parameter. Out-of-range values are
// clamped rather than rejected so a bad dashboard link still renders.
const (
	DefaultLookbackDays = 30
	MaxLookbackDays     = 365
)

// TimeFrame represents a period between two points in time, stored UTC.
type TimeFrame struct {
	From       time.Time
	To         time.Time
	BucketSize BucketSize
}

// NewTimeFrame builds an explicit window.
func NewTimeFrame(from, to time.Time, bucket BucketSize) (*TimeFrame, error) {
	if from.After(to) {
		return nil, fmt.Errorf("from must be before to")
	}
	return &TimeFrame{From: from.UTC(), To: to.UTC(), BucketSize: bucket}, nil
}

// LastNDays returns a trailing window ending now, clamped to
// [1, MaxLookbackDays]. Zero or negative days fall back to the default.
func LastNDays(days int) *TimeFrame {
	if days <= 0 {
		days = DefaultLookbackDays
	}
	if days > MaxLookbackDays {
		days = MaxLookbackDays
	}

	now := time.Now().UTC()
	return &TimeFrame{
		From:       now.AddDate(0, 0, -days),
		To:         now,
		BucketSize: BucketSizeDay,
	}
}

// DBFormat returns the sqlite strftime format for this window's bucket.
func (tf *TimeFrame) DBFormat() string {
	if tf.BucketSize == BucketSizeHour {
		return "%Y-%m-%d %H:00:00"
	}
	return "%Y-%m-%d"
}

// FormatDate renders a bucket label the way the sqlite side does, so the
// zero-filling code agrees with the query output.
func (tf *TimeFrame) FormatDate(t time.Time) string {
	if tf.BucketSize == BucketSizeHour {
		return t.Format("2006-01-02 15:00:00")
	}
	return t.Format("2006-01-02")
}

// Step returns the duration of one bucket.
func (tf *TimeFrame) Step() time.Duration {
	if tf.BucketSize == BucketSizeHour {
		return time.Hour
	}
	return 24 * time.Hour
}

// Duration returns the total window length.
func (tf *TimeFrame) Duration() time.Duration {
	return tf.To.Sub(tf.From)
}

// ZeroFill expands sparse query buckets into a dense series covering the
// whole window, inserting zero counts for missing buckets.
func (tf *TimeFrame) ZeroFill(sparse []DateStat) []DateStat {
	byDate := make(map[string]int, len(sparse))
	for _, stat := range sparse {
		byDate[stat.Date] = stat.Count
	}

	var dense []DateStat
	for t := tf.From.Truncate(tf.Step()); !t.After(tf.To); t = t.Add(tf.Step()) {
		label := tf.FormatDate(t)
		dense = append(dense, DateStat{Date: label, Count: byDate[label]})
	}
	return dense
}
