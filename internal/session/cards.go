package session

import (
	"context"
	"fmt"
	"log"

	"github.com/agent-platform/worldclock/internal/clock"
	"github.com/agent-platform/worldclock/internal/zone"
)

// Add puts the city (display name or zone id) at the front of the Active Set.
// Cards keep the current instant.
func (c *Controller) Add(ctx context.Context, nameOrZone string) (clock.ZoneEntry, error) {
	city, err := c.registry.Resolve(nameOrZone)
	if err != nil {
		return clock.ZoneEntry{}, err
	}
	return c.addCity(ctx, city)
}

// AddAt adds the city whose zone covers the given coordinates.
func (c *Controller) AddAt(ctx context.Context, lat, lon float64) (clock.ZoneEntry, error) {
	city, err := c.registry.AtCoordinates(lat, lon)
	if err != nil {
		return clock.ZoneEntry{}, err
	}
	return c.addCity(ctx, city)
}

// AddFirstMatch adds the first zone whose id contains term.
func (c *Controller) AddFirstMatch(ctx context.Context, term string) (clock.ZoneEntry, error) {
	zoneID, ok := c.registry.FindFirst(term)
	if !ok {
		return clock.ZoneEntry{}, fmt.Errorf("%w: no zone matches %q", zone.ErrUnknownCity, term)
	}
	return c.Add(ctx, zoneID)
}

func (c *Controller) addCity(ctx context.Context, city zone.City) (clock.ZoneEntry, error) {
	entry := clock.ZoneEntry{City: city.Name, ZoneID: city.ZoneID}

	c.mu.Lock()
	for _, e := range c.entries {
		if e.ZoneID == entry.ZoneID {
			c.mu.Unlock()
			return clock.ZoneEntry{}, fmt.Errorf("%w: %s (%s)", ErrDuplicateZone, e.City, e.ZoneID)
		}
	}
	c.entries = append([]clock.ZoneEntry{entry}, c.entries...)
	views, names, listeners := c.mutatedLocked()
	c.mu.Unlock()

	publish(listeners, views)
	c.autosave(ctx, names)
	return entry, nil
}

// Remove drops the card matching a display name or zone id. The last card
// cannot be removed.
func (c *Controller) Remove(ctx context.Context, nameOrZone string) (clock.ZoneEntry, error) {
	c.mu.Lock()
	i, ok := c.indexOf(nameOrZone)
	if !ok {
		c.mu.Unlock()
		return clock.ZoneEntry{}, fmt.Errorf("%w: %q", ErrNotInSet, nameOrZone)
	}
	if len(c.entries) <= 1 {
		c.mu.Unlock()
		return clock.ZoneEntry{}, ErrLastEntry
	}
	removed := c.entries[i]
	c.entries = append(c.entries[:i:i], c.entries[i+1:]...)
	if c.editing == removed.ZoneID {
		c.state = Idle
		c.editing = ""
	}
	views, names, listeners := c.mutatedLocked()
	c.mu.Unlock()

	publish(listeners, views)
	c.autosave(ctx, names)
	return removed, nil
}

// Move reorders the card at from to position to, as a drag and drop does.
func (c *Controller) Move(ctx context.Context, from, to int) error {
	c.mu.Lock()
	n := len(c.entries)
	if from < 0 || from >= n || to < 0 || to >= n {
		c.mu.Unlock()
		return fmt.Errorf("%w: move %d -> %d with %d cards", ErrOutOfRange, from, to, n)
	}
	if from == to {
		c.mu.Unlock()
		return nil
	}
	moved := c.entries[from]
	rest := append(c.entries[:from:from], c.entries[from+1:]...)
	c.entries = append(rest[:to:to], append([]clock.ZoneEntry{moved}, rest[to:]...)...)
	views, names, listeners := c.mutatedLocked()
	c.mu.Unlock()

	publish(listeners, views)
	c.autosave(ctx, names)
	return nil
}

// mutatedLocked bumps the generation and reprojects after an Active Set
// change. The caller holds c.mu.
func (c *Controller) mutatedLocked() ([]clock.LocalView, []string, []func([]clock.LocalView)) {
	c.gen++
	return c.reproject(), c.savedNamesLocked(), c.listeners
}

// autosave writes the card order without notifying the user.
func (c *Controller) autosave(ctx context.Context, names []string) {
	if c.persist == nil {
		return
	}
	if err := c.persist.SaveCities(ctx, names); err != nil {
		log.Printf("SESSION: %s autosave failed: %v", c.id, err)
	}
}

// Save writes the card order and notifies the user of the outcome. A failed
// write leaves the in-memory cards untouched.
func (c *Controller) Save(ctx context.Context) error {
	if c.persist == nil {
		err := fmt.Errorf("save: no storage configured")
		c.notifier.Notify(Notice{Level: LevelError, Message: "Could not save time zone settings", Err: err})
		return err
	}
	c.mu.Lock()
	names := c.savedNamesLocked()
	c.mu.Unlock()
	if err := c.persist.SaveCities(ctx, names); err != nil {
		c.notifier.Notify(Notice{Level: LevelError, Message: "Could not save time zone settings", Err: err})
		return fmt.Errorf("save cities: %w", err)
	}
	c.notifier.Notify(Notice{Level: LevelInfo, Message: SavedMessage})
	return nil
}
