// Package zone is the city registry: display names bound to IANA zones,
// plus search over the full zone catalogue.
package zone

import (
	"strings"
)

// City represents a city with its display name and IANA timezone identifier.
type City struct {
	Name   string
	ZoneID string
	Region string
	Major  bool
}

// majorCities are listed first in search results and seed the registry.
var majorCities = []City{
	{Name: "Beijing", ZoneID: "Asia/Shanghai"},
	{Name: "Tokyo", ZoneID: "Asia/Tokyo"},
	{Name: "London", ZoneID: "Europe/London"},
	{Name: "New York", ZoneID: "America/New_York"},
	{Name: "Paris", ZoneID: "Europe/Paris"},
	{Name: "Singapore", ZoneID: "Asia/Singapore"},
	{Name: "Sydney", ZoneID: "Australia/Sydney"},
	{Name: "Moscow", ZoneID: "Europe/Moscow"},
	{Name: "Los Angeles", ZoneID: "America/Los_Angeles"},
	{Name: "Dubai", ZoneID: "Asia/Dubai"},
}

// knownCities are well-known names whose zone id names a different city.
var knownCities = []City{
	// Americas
	{Name: "Chicago", ZoneID: "America/Chicago"},
	{Name: "Toronto", ZoneID: "America/Toronto"},
	{Name: "Vancouver", ZoneID: "America/Vancouver"},
	{Name: "Mexico City", ZoneID: "America/Mexico_City"},
	{Name: "Sao Paulo", ZoneID: "America/Sao_Paulo"},
	{Name: "Buenos Aires", ZoneID: "America/Argentina/Buenos_Aires"},
	{Name: "Lima", ZoneID: "America/Lima"},
	{Name: "Bogota", ZoneID: "America/Bogota"},
	{Name: "San Francisco", ZoneID: "America/Los_Angeles"},
	// Europe
	{Name: "Berlin", ZoneID: "Europe/Berlin"},
	{Name: "Madrid", ZoneID: "Europe/Madrid"},
	{Name: "Rome", ZoneID: "Europe/Rome"},
	{Name: "Amsterdam", ZoneID: "Europe/Amsterdam"},
	{Name: "Istanbul", ZoneID: "Europe/Istanbul"},
	{Name: "Zurich", ZoneID: "Europe/Zurich"},
	{Name: "Warsaw", ZoneID: "Europe/Warsaw"},
	// Asia
	{Name: "Shanghai", ZoneID: "Asia/Shanghai"},
	{Name: "Hong Kong", ZoneID: "Asia/Hong_Kong"},
	{Name: "Seoul", ZoneID: "Asia/Seoul"},
	{Name: "Mumbai", ZoneID: "Asia/Kolkata"},
	{Name: "Delhi", ZoneID: "Asia/Kolkata"},
	{Name: "Bangkok", ZoneID: "Asia/Bangkok"},
	{Name: "Jakarta", ZoneID: "Asia/Jakarta"},
	{Name: "Taipei", ZoneID: "Asia/Taipei"},
	// Middle East
	{Name: "Doha", ZoneID: "Asia/Qatar"},
	{Name: "Riyadh", ZoneID: "Asia/Riyadh"},
	// Oceania
	{Name: "Melbourne", ZoneID: "Australia/Melbourne"},
	{Name: "Auckland", ZoneID: "Pacific/Auckland"},
	// Africa
	{Name: "Cairo", ZoneID: "Africa/Cairo"},
	{Name: "Johannesburg", ZoneID: "Africa/Johannesburg"},
	{Name: "Nairobi", ZoneID: "Africa/Nairobi"},
}

// DefaultCities is the Active Set used when nothing has been saved, front to back.
func DefaultCities() []City {
	return []City{
		{Name: "Beijing", ZoneID: "Asia/Shanghai", Region: "Asia", Major: true},
		{Name: "New York", ZoneID: "America/New_York", Region: "America", Major: true},
		{Name: "London", ZoneID: "Europe/London", Region: "Europe", Major: true},
	}
}

// CityName derives a display name from a zone id: the last path segment with
// underscores as spaces. Asia/Shanghai is shown as Beijing.
func CityName(zoneID string) string {
	if zoneID == "Asia/Shanghai" {
		return "Beijing"
	}
	parts := strings.Split(zoneID, "/")
	return strings.ReplaceAll(parts[len(parts)-1], "_", " ")
}

// RegionOf returns the area part of a zone id ("Europe" for "Europe/Paris").
func RegionOf(zoneID string) string {
	region, _, _ := strings.Cut(zoneID, "/")
	return region
}
