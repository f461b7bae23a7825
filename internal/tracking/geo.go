package tracking

import (
	"net"
	"strings"

	"lexinsights/internal/pkg/geoip"
)

// countryFromIP resolves an IP address to a lowercase ISO country code.
// GeoIP is optional enrichment: when no database is configured, or the
// lookup fails, the country is simply left empty.
func countryFromIP(ipAddress string) string {
	geoDB := geoip.GetGeoDB()
	if geoDB == nil {
		return ""
	}

	ip := net.ParseIP(ipAddress)
	if ip == nil {
		return ""
	}

	record, err := geoDB.Country(ip)
	if err != nil {
		return ""
	}

	code := record.Country.IsoCode
	if code == "" || code == "--" {
		return ""
	}
	return strings.ToLower(code)
}
