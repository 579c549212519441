package session

import (
	"fmt"
	"log"
	"time"

	"github.com/agent-platform/worldclock/internal/clock"
)

// BeginEdit moves the controller to Editing for the card showing zoneID.
// Ticks are skipped until the edit is committed or cancelled.
func (c *Controller) BeginEdit(zoneID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.indexOf(zoneID); !ok {
		return fmt.Errorf("%w: %q", ErrNotInSet, zoneID)
	}
	c.state = Editing
	c.editing = zoneID
	return nil
}

// Editing returns the zone being edited, if any.
func (c *Controller) Editing() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editing, c.state == Editing
}

// Cancel abandons an edit; the cards keep their last projection.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Idle
	c.editing = ""
}

// Commit reads wc as local time on the card for zoneID, derives the new
// instant and reprojects every card from it. The controller returns to Idle
// either way. On error the instant and views are left as they were, which
// reverts the edited card to its last projected value.
func (c *Controller) Commit(zoneID string, wc clock.WallClock) ([]clock.LocalView, error) {
	c.mu.Lock()
	c.state = Idle
	c.editing = ""

	views, err := c.commitLocked(zoneID, wc)
	if err != nil {
		last := c.snapshotViews()
		c.mu.Unlock()
		log.Printf("SESSION: %s rejected edit on %s: %v", c.id, zoneID, err)
		return last, err
	}
	listeners := c.listeners
	c.mu.Unlock()

	publish(listeners, views)
	return views, nil
}

func (c *Controller) commitLocked(zoneID string, wc clock.WallClock) ([]clock.LocalView, error) {
	i, ok := c.indexOf(zoneID)
	if !ok {
		if _, err := c.registry.Location(zoneID); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %q", ErrNotInSet, zoneID)
	}
	loc, err := c.registry.Location(c.entries[i].ZoneID)
	if err != nil {
		return nil, err
	}
	instant, err := clock.ResolveInstant(loc, wc)
	if err != nil {
		return nil, err
	}
	views, err := clock.Project(instant, c.entries, c.registry.Location)
	if err != nil {
		return nil, err
	}
	c.instant = instant
	c.views = views
	c.gen++
	return c.snapshotViews(), nil
}

// Edit commits wc without a preceding BeginEdit. The controller is Idle
// afterwards.
func (c *Controller) Edit(zoneID string, wc clock.WallClock) ([]clock.LocalView, error) {
	return c.Commit(zoneID, wc)
}

// EditSlider commits a slider position on the card's current date.
func (c *Controller) EditSlider(zoneID string, minutes int) ([]clock.LocalView, error) {
	v, ok := c.viewFor(zoneID)
	if !ok {
		return c.Views(), fmt.Errorf("%w: %q", ErrNotInSet, zoneID)
	}
	return c.Edit(v.ZoneID, clock.WallClockFromSlider(v.Year, v.Month, v.Day, minutes))
}

// EditHour commits an hour select change, keeping the card's minute.
func (c *Controller) EditHour(zoneID string, hour int) ([]clock.LocalView, error) {
	v, ok := c.viewFor(zoneID)
	if !ok {
		return c.Views(), fmt.Errorf("%w: %q", ErrNotInSet, zoneID)
	}
	return c.Edit(v.ZoneID, clock.WallClockFromHour(v.Year, v.Month, v.Day, hour, v.MinutesSinceMidnight))
}

// EditDate commits a date picker change, keeping the card's time of day.
func (c *Controller) EditDate(zoneID string, year int, month time.Month, day int) ([]clock.LocalView, error) {
	v, ok := c.viewFor(zoneID)
	if !ok {
		return c.Views(), fmt.Errorf("%w: %q", ErrNotInSet, zoneID)
	}
	return c.Edit(v.ZoneID, clock.WallClockFromSlider(year, month, day, v.MinutesSinceMidnight))
}

func (c *Controller) viewFor(nameOrZone string) (clock.LocalView, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.indexOf(nameOrZone)
	if !ok || i >= len(c.views) {
		return clock.LocalView{}, false
	}
	return c.views[i], true
}

// Tick moves every card to at. It is skipped, returning false, while an
// edit is in progress.
func (c *Controller) Tick(at time.Time) bool {
	c.mu.Lock()
	if c.state == Editing {
		c.mu.Unlock()
		return false
	}
	c.instant = at.UTC().Truncate(time.Second)
	views := c.reproject()
	listeners := c.listeners
	c.mu.Unlock()

	publish(listeners, views)
	return true
}

// TickNow is Tick at the controller's current time.
func (c *Controller) TickNow() bool {
	return c.Tick(clock.Tick(c.now))
}

// Now is the "current time" button: it ends any edit and moves every card
// to the current time.
func (c *Controller) Now() []clock.LocalView {
	c.Cancel()
	c.TickNow()
	return c.Views()
}
