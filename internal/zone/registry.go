package zone

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/agent-platform/worldclock/internal/clock"
	"github.com/bradfitz/latlong"
)

var (
	ErrUnknownZone = errors.New("unknown time zone")
	ErrUnknownCity = errors.New("unknown city")
)

// DefaultSearchLimit caps search results.
const DefaultSearchLimit = 20

// Result is one search hit with the zone's offset and abbreviation at the
// time of the search.
type Result struct {
	City
	Abbreviation  string
	OffsetSeconds int
}

// Registry maps display names to zones and holds the searchable catalogue.
type Registry struct {
	byName  map[string]City
	byZone  map[string]City
	zones   []string
	catalog []City

	mu   sync.Mutex
	locs map[string]*time.Location
}

// NewRegistry builds a registry from the static city tables and the zones
// supplied by src.
func NewRegistry(src Source) (*Registry, error) {
	names, err := src.Names()
	if err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}

	r := &Registry{
		byName: make(map[string]City),
		byZone: make(map[string]City),
		locs:   make(map[string]*time.Location),
	}

	for _, c := range majorCities {
		c.Region = RegionOf(c.ZoneID)
		c.Major = true
		r.add(c)
	}
	for _, c := range knownCities {
		c.Region = RegionOf(c.ZoneID)
		r.add(c)
	}

	seen := make(map[string]bool)
	for _, z := range names {
		if seen[z] {
			continue
		}
		seen[z] = true
		r.zones = append(r.zones, z)
		r.add(City{Name: CityName(z), ZoneID: z, Region: RegionOf(z)})
		r.catalog = append(r.catalog, r.byZone[z])
	}
	for _, c := range majorCities {
		if !seen[c.ZoneID] {
			seen[c.ZoneID] = true
			r.zones = append(r.zones, c.ZoneID)
			r.catalog = append(r.catalog, r.byZone[c.ZoneID])
		}
	}
	sort.Strings(r.zones)

	sort.SliceStable(r.catalog, func(i, j int) bool {
		a, b := r.catalog[i], r.catalog[j]
		if a.Major != b.Major {
			return a.Major
		}
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		return a.Name < b.Name
	})
	return r, nil
}

// add registers c; the first city registered for a name or zone wins.
func (r *Registry) add(c City) {
	if _, ok := r.byName[c.Name]; !ok {
		r.byName[c.Name] = c
	}
	if _, ok := r.byZone[c.ZoneID]; !ok {
		zc := c
		if !c.Major {
			zc.Name = CityName(c.ZoneID)
		}
		r.byZone[c.ZoneID] = zc
	}
}

// Lookup matches a display name exactly (case-sensitive).
func (r *Registry) Lookup(name string) (City, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// ByZone returns the card city for a zone id.
func (r *Registry) ByZone(zoneID string) (City, bool) {
	c, ok := r.byZone[zoneID]
	return c, ok
}

// CityForZone returns the display name a card for zoneID carries.
func (r *Registry) CityForZone(zoneID string) string {
	if c, ok := r.byZone[zoneID]; ok {
		return c.Name
	}
	return CityName(zoneID)
}

// Location loads and caches the location for a zone id. Zones outside the
// registry are accepted only if they are listable IANA names that load.
func (r *Registry) Location(zoneID string) (*time.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if loc, ok := r.locs[zoneID]; ok {
		return loc, nil
	}
	if _, known := r.byZone[zoneID]; !known && !Listable(zoneID) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownZone, zoneID)
	}
	loc, err := time.LoadLocation(zoneID)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownZone, zoneID)
	}
	r.locs[zoneID] = loc
	return loc, nil
}

// Resolve accepts a display name or a zone id and returns the card city.
func (r *Registry) Resolve(nameOrZone string) (City, error) {
	if c, ok := r.Lookup(nameOrZone); ok {
		return c, nil
	}
	if _, err := r.Location(nameOrZone); err == nil {
		if c, ok := r.ByZone(nameOrZone); ok {
			return c, nil
		}
		return City{Name: r.CityForZone(nameOrZone), ZoneID: nameOrZone, Region: RegionOf(nameOrZone)}, nil
	}
	return City{}, fmt.Errorf("%w: %q", ErrUnknownCity, nameOrZone)
}

// Zones returns the sorted zone ids known to the registry.
func (r *Registry) Zones() []string {
	return append([]string(nil), r.zones...)
}

// FindFirst returns the first zone id (alphabetically) containing term,
// case-insensitively.
func (r *Registry) FindFirst(term string) (string, bool) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return "", false
	}
	for _, z := range r.zones {
		if strings.Contains(strings.ToLower(z), term) {
			return z, true
		}
	}
	return "", false
}

// Search matches term against city, region, the zone's abbreviation at now,
// and its "+hh:mm" offset at now. Major cities come first, then by region and
// city. A limit of zero or less uses DefaultSearchLimit.
func (r *Registry) Search(term string, now time.Time, limit int) []Result {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	var results []Result
	for _, c := range r.catalog {
		loc, err := r.Location(c.ZoneID)
		if err != nil {
			continue
		}
		abbr, offset := now.In(loc).Zone()
		if strings.Contains(strings.ToLower(c.Name), term) ||
			strings.Contains(strings.ToLower(c.Region), term) ||
			strings.Contains(strings.ToLower(abbr), term) ||
			strings.Contains(clock.FormatOffset(offset), term) {
			results = append(results, Result{City: c, Abbreviation: abbr, OffsetSeconds: offset})
			if len(results) == limit {
				break
			}
		}
	}
	return results
}

// AtCoordinates returns the city whose zone covers the given point.
func (r *Registry) AtCoordinates(lat, lon float64) (City, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return City{}, fmt.Errorf("%w: coordinates %.4f,%.4f out of range", ErrUnknownZone, lat, lon)
	}
	name := latlong.LookupZoneName(lat, lon)
	if name == "" {
		return City{}, fmt.Errorf("%w: no zone at %.4f,%.4f", ErrUnknownZone, lat, lon)
	}
	return r.Resolve(name)
}
