// Package clock synchronizes a set of city cards to a single instant.
//
// Every card is a projection of the same UTC instant into its own zone. An
// edit on one card is turned back into an instant with ResolveInstant, and
// Project recomputes every card from it.
package clock

import (
	"errors"
	"fmt"
	"time"
)

// MinutesPerDay is the number of slider steps in a day (0..1439).
const MinutesPerDay = 24 * 60

var (
	// ErrInvalidWallClock is returned for hour/minute/date values that cannot
	// appear on a card's controls.
	ErrInvalidWallClock = errors.New("invalid wall clock")
)

// ZoneEntry is one card: a display name bound to an IANA zone.
type ZoneEntry struct {
	City   string `json:"city"`
	ZoneID string `json:"zone_id"`
}

// WallClock holds the civil values shown on one card's controls.
type WallClock struct {
	Year   int
	Month  time.Month
	Day    int
	Hour   int
	Minute int
}

// WallClockFromSlider builds a WallClock from a date picker and a slider
// position in minutes since local midnight.
func WallClockFromSlider(year int, month time.Month, day, minutes int) WallClock {
	return WallClock{Year: year, Month: month, Day: day, Hour: minutes / 60, Minute: minutes % 60}
}

// WallClockFromHour builds a WallClock from the hour select. The minute is
// the remainder of the card's current slider position.
func WallClockFromHour(year int, month time.Month, day, hour, sliderMinutes int) WallClock {
	return WallClock{Year: year, Month: month, Day: day, Hour: hour, Minute: sliderMinutes % 60}
}

// ParseWallClock parses "2006-01-02" and "15:04" control values.
func ParseWallClock(date, hhmm string) (WallClock, error) {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return WallClock{}, fmt.Errorf("%w: date %q", ErrInvalidWallClock, date)
	}
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return WallClock{}, fmt.Errorf("%w: time %q", ErrInvalidWallClock, hhmm)
	}
	return WallClock{Year: d.Year(), Month: d.Month(), Day: d.Day(), Hour: t.Hour(), Minute: t.Minute()}, nil
}

// Validate reports whether every field is in range and the date exists.
func (wc WallClock) Validate() error {
	if wc.Hour < 0 || wc.Hour > 23 {
		return fmt.Errorf("%w: hour %d", ErrInvalidWallClock, wc.Hour)
	}
	if wc.Minute < 0 || wc.Minute > 59 {
		return fmt.Errorf("%w: minute %d", ErrInvalidWallClock, wc.Minute)
	}
	if wc.Month < time.January || wc.Month > time.December {
		return fmt.Errorf("%w: month %d", ErrInvalidWallClock, wc.Month)
	}
	d := time.Date(wc.Year, wc.Month, wc.Day, 0, 0, 0, 0, time.UTC)
	if wc.Day < 1 || d.Day() != wc.Day {
		return fmt.Errorf("%w: date %04d-%02d-%02d", ErrInvalidWallClock, wc.Year, wc.Month, wc.Day)
	}
	return nil
}

// naive is the wall clock read as if it were UTC.
func (wc WallClock) naive() time.Time {
	return time.Date(wc.Year, wc.Month, wc.Day, wc.Hour, wc.Minute, 0, 0, time.UTC)
}

// MinutesSinceMidnight returns the slider value for the wall clock.
func (wc WallClock) MinutesSinceMidnight() int {
	return wc.Hour*60 + wc.Minute
}

// LocalView is one card's derived state for a given instant.
type LocalView struct {
	City                 string
	ZoneID               string
	Instant              time.Time
	Year                 int
	Month                time.Month
	Day                  int
	Weekday              time.Weekday
	Hour                 int
	Minute               int
	Abbreviation         string
	OffsetSeconds        int
	MinutesSinceMidnight int
}

// View projects instant into loc for one entry.
func View(instant time.Time, entry ZoneEntry, loc *time.Location) LocalView {
	instant = instant.UTC()
	t := instant.In(loc)
	abbr, offset := t.Zone()
	return LocalView{
		City:                 entry.City,
		ZoneID:               entry.ZoneID,
		Instant:              instant,
		Year:                 t.Year(),
		Month:                t.Month(),
		Day:                  t.Day(),
		Weekday:              t.Weekday(),
		Hour:                 t.Hour(),
		Minute:               t.Minute(),
		Abbreviation:         abbr,
		OffsetSeconds:        offset,
		MinutesSinceMidnight: t.Hour()*60 + t.Minute(),
	}
}

// LocationFunc resolves a zone id to its location.
type LocationFunc func(zoneID string) (*time.Location, error)

// Project computes one view per target, in order. Each view depends only on
// the instant and its own entry.
func Project(instant time.Time, targets []ZoneEntry, resolve LocationFunc) ([]LocalView, error) {
	views := make([]LocalView, 0, len(targets))
	for _, e := range targets {
		loc, err := resolve(e.ZoneID)
		if err != nil {
			return nil, fmt.Errorf("project %s: %w", e.ZoneID, err)
		}
		views = append(views, View(instant, e, loc))
	}
	return views, nil
}

// Tick samples the current instant at second resolution.
func Tick(now func() time.Time) time.Time {
	return now().UTC().Truncate(time.Second)
}

// Local returns the view's wall time as a time.Time in a fixed zone.
func (v LocalView) Local() time.Time {
	return v.Instant.In(time.FixedZone(v.Abbreviation, v.OffsetSeconds))
}

// WallClock returns the civil values the card's controls should show.
func (v LocalView) WallClock() WallClock {
	return WallClock{Year: v.Year, Month: v.Month, Day: v.Day, Hour: v.Hour, Minute: v.Minute}
}

// SliderPosition is the range control's fraction, 0 at midnight and 1 at 23:59.
func (v LocalView) SliderPosition() float64 {
	return float64(v.MinutesSinceMidnight) / float64(MinutesPerDay-1)
}

// TimelinePercent places the marker on the 24h timeline, whose labels sit at
// every 3h (12am at 0%, 12pm at 50%).
func (v LocalView) TimelinePercent() float64 {
	return float64(v.MinutesSinceMidnight) / float64(MinutesPerDay) * 100
}

// Clock12 formats the wall time as "9:30 AM".
func (v LocalView) Clock12() string {
	return v.Local().Format("3:04 PM")
}

// DateLabel formats the date as "Mon, Jan 15".
func (v LocalView) DateLabel() string {
	return v.Local().Format("Mon, Jan 2")
}

// DateValue formats the date picker value "2024-01-15".
func (v LocalView) DateValue() string {
	return v.Local().Format("2006-01-02")
}

// UTCOffset formats the offset as "+08:00".
func (v LocalView) UTCOffset() string {
	return FormatOffset(v.OffsetSeconds)
}

// FormatOffset formats seconds east of UTC as "+hh:mm".
func FormatOffset(seconds int) string {
	sign := "+"
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	return fmt.Sprintf("%s%02d:%02d", sign, seconds/3600, (seconds%3600)/60)
}
