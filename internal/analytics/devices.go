package analytics

import (
	"fmt"
	"strings"

	"github.com/pariz/gountries"
	"gorm.io/gorm"
)

var countryDB = gountries.New()

// topSessionDimension groups sessions by a single dimension column.
// The column name is fixed by the caller, never user input.
func topSessionDimension(db *gorm.DB, params QueryParams, column string) ([]MetricCountResult, error) {
	var results []MetricCountResult

	query := fmt.Sprintf(`
		SELECT
			%s AS name,
			COUNT(*) AS count
		FROM sessions
		WHERE started_at BETWEEN ? AND ?
		AND %s != ''
		GROUP BY %s
		ORDER BY count DESC
		LIMIT ?
	`, column, column, column)

	err := db.Raw(query,
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
		params.Limit,
	).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching top %s: %w", column, err)
	}

	return results, nil
}

// GetDeviceTypeBreakdown returns sessions split by desktop, mobile and tablet.
func GetDeviceTypeBreakdown(db *gorm.DB, params QueryParams) ([]MetricCountResult, error) {
	return topSessionDimension(db, params, "device_type")
}

// GetTopDeviceBrands returns the most common hardware brands.
func GetTopDeviceBrands(db *gorm.DB, params QueryParams) ([]MetricCountResult, error) {
	return topSessionDimension(db, params, "device_brand")
}

// GetTopBrowsers returns the most common browsers.
func GetTopBrowsers(db *gorm.DB, params QueryParams) ([]MetricCountResult, error) {
	return topSessionDimension(db, params, "browser")
}

// GetTopOperatingSystems returns the most common operating systems.
func GetTopOperatingSystems(db *gorm.DB, params QueryParams) ([]MetricCountResult, error) {
	return topSessionDimension(db, params, "os")
}

// GetTopScreenResolutions returns the most common screen resolutions.
// Resolutions live on page views, not sessions, so this one queries the
// page_views table directly.
func GetTopScreenResolutions(db *gorm.DB, params QueryParams) ([]MetricCountResult, error) {
	var results []MetricCountResult

	query := `
		SELECT
			screen_resolution AS name,
			COUNT(DISTINCT session_id) AS count
		FROM page_views
		WHERE created_at BETWEEN ? AND ?
		AND screen_resolution != ''
		GROUP BY screen_resolution
		ORDER BY count DESC
		LIMIT ?
	`

	err := db.Raw(query,
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
		params.Limit,
	).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching top screen resolutions: %w", err)
	}

	return results, nil
}

// GetTopCountries returns sessions by visitor country. Stored ISO codes
// are resolved to display names; codes the country database does not
// know are shown uppercased as-is.
func GetTopCountries(db *gorm.DB, params QueryParams) ([]MetricCountResult, error) {
	results, err := topSessionDimension(db, params, "country")
	if err != nil {
		return nil, err
	}

	for i, result := range results {
		results[i].Name = countryDisplayName(result.Name)
	}

	return results, nil
}

func countryDisplayName(isoCode string) string {
	country, err := countryDB.FindCountryByAlpha(isoCode)
	if err != nil {
		return strings.ToUpper(isoCode)
	}
	return country.Name.Common
}
