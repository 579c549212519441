// Package session owns the Active Set of city cards and keeps every card
// projected from one shared instant.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/agent-platform/worldclock/internal/clock"
	"github.com/agent-platform/worldclock/internal/zone"
	"github.com/google/uuid"
)

var (
	ErrLastEntry     = errors.New("cannot remove the last city")
	ErrDuplicateZone = errors.New("zone already shown")
	ErrNotInSet      = errors.New("city not shown")
	ErrOutOfRange    = errors.New("position out of range")
	// ErrStaleLoad means the active set changed while saved state was being
	// read, so the loaded result was dropped.
	ErrStaleLoad = errors.New("saved state superseded by a newer change")
)

// SavedMessage is the notice shown after an explicit save.
const SavedMessage = "Time zone settings saved!"

// State is the controller's edit state.
type State int

const (
	Idle State = iota
	Editing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Editing:
		return "editing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Persister reads and writes the ordered list of card names.
type Persister interface {
	LoadCities(ctx context.Context) ([]string, error)
	SaveCities(ctx context.Context, names []string) error
}

// Options configures a Controller.
type Options struct {
	// Defaults are the cards used when nothing valid has been saved.
	Defaults []string
	// Now samples the current time; time.Now when nil.
	Now func() time.Time
	// Notifier receives explicit save results.
	Notifier Notifier
	// SessionID identifies this controller in logs and saved rows.
	SessionID string
}

// Controller owns the Active Set, the current instant and the edit state.
// All methods are safe for concurrent use; ticks arrive from the scheduler
// goroutine while edits arrive from the command loop.
type Controller struct {
	id       string
	registry *zone.Registry
	persist  Persister
	notifier Notifier
	now      func() time.Time
	defaults []string

	mu        sync.Mutex
	entries   []clock.ZoneEntry
	instant   time.Time
	views     []clock.LocalView
	state     State
	editing   string
	gen       uint64
	listeners []func([]clock.LocalView)
}

// New creates a controller showing the default cards at the current time.
// persist may be nil, in which case nothing is saved.
func New(reg *zone.Registry, persist Persister, opts Options) *Controller {
	c := &Controller{
		id:       opts.SessionID,
		registry: reg,
		persist:  persist,
		notifier: opts.Notifier,
		now:      opts.Now,
		defaults: opts.Defaults,
	}
	if c.id == "" {
		c.id = uuid.NewString()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.notifier == nil {
		c.notifier = NotifierFunc(func(Notice) {})
	}
	if len(c.defaults) == 0 {
		for _, d := range zone.DefaultCities() {
			c.defaults = append(c.defaults, d.Name)
		}
	}

	c.entries = c.defaultEntries()
	c.instant = clock.Tick(c.now)
	c.reproject()
	return c
}

// ID returns the session id.
func (c *Controller) ID() string {
	return c.id
}

// OnUpdate registers fn to receive every new projection.
func (c *Controller) OnUpdate(fn func([]clock.LocalView)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Load replaces the Active Set with the saved cards. Unknown names are
// skipped; missing or malformed saved state falls back to the defaults. If
// the Active Set changes while the read is in flight the result is dropped
// and ErrStaleLoad returned.
func (c *Controller) Load(ctx context.Context) error {
	if c.persist == nil {
		return nil
	}

	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	names, err := c.persist.LoadCities(ctx)
	var entries []clock.ZoneEntry
	if err != nil {
		log.Printf("SESSION: no usable saved state, using defaults: %v", err)
	} else {
		entries = c.entriesFor(names)
	}
	if len(entries) == 0 {
		entries = c.defaultEntries()
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		log.Printf("SESSION: %s dropped stale load", c.id)
		return ErrStaleLoad
	}
	c.entries = entries
	c.gen++
	views := c.reproject()
	listeners := c.listeners
	c.mu.Unlock()

	publish(listeners, views)
	return nil
}

// entriesFor maps saved names to cards in order, skipping names the registry
// does not know and repeated zones.
func (c *Controller) entriesFor(names []string) []clock.ZoneEntry {
	var entries []clock.ZoneEntry
	seen := make(map[string]bool)
	for _, name := range names {
		if name == "" {
			continue
		}
		city, ok := c.registry.Lookup(name)
		if !ok {
			// Older saves stored zone ids rather than names.
			resolved, err := c.registry.Resolve(name)
			if err != nil {
				log.Printf("SESSION: skipping unknown saved city %q", name)
				continue
			}
			city = resolved
		}
		if seen[city.ZoneID] {
			continue
		}
		seen[city.ZoneID] = true
		entries = append(entries, clock.ZoneEntry{City: city.Name, ZoneID: city.ZoneID})
	}
	return entries
}

func (c *Controller) defaultEntries() []clock.ZoneEntry {
	var entries []clock.ZoneEntry
	seen := make(map[string]bool)
	for _, d := range c.defaults {
		city, err := c.registry.Resolve(d)
		if err != nil || seen[city.ZoneID] {
			continue
		}
		seen[city.ZoneID] = true
		entries = append(entries, clock.ZoneEntry{City: city.Name, ZoneID: city.ZoneID})
	}
	if len(entries) == 0 {
		for _, d := range zone.DefaultCities() {
			entries = append(entries, clock.ZoneEntry{City: d.Name, ZoneID: d.ZoneID})
		}
	}
	return entries
}

// reproject recomputes every view from the current instant. The caller
// holds c.mu. On failure the previous views are kept.
func (c *Controller) reproject() []clock.LocalView {
	views, err := clock.Project(c.instant, c.entries, c.registry.Location)
	if err != nil {
		log.Printf("SESSION: projection failed, keeping last views: %v", err)
		return c.snapshotViews()
	}
	c.views = views
	return c.snapshotViews()
}

func (c *Controller) snapshotViews() []clock.LocalView {
	return append([]clock.LocalView(nil), c.views...)
}

func publish(listeners []func([]clock.LocalView), views []clock.LocalView) {
	for _, fn := range listeners {
		fn(append([]clock.LocalView(nil), views...))
	}
}

// State returns the current edit state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Instant returns the instant every card is projected from.
func (c *Controller) Instant() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.instant
}

// Views returns the current projection in display order.
func (c *Controller) Views() []clock.LocalView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotViews()
}

// Entries returns the Active Set in display order.
func (c *Controller) Entries() []clock.ZoneEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]clock.ZoneEntry(nil), c.entries...)
}

// Names returns the display names in order.
func (c *Controller) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.namesLocked()
}

func (c *Controller) namesLocked() []string {
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.City
	}
	return names
}

// savedNamesLocked is the persisted projection: display names, except that
// a card whose name looks up a different zone is saved by zone id so it
// reloads as the same zone. The caller holds c.mu.
func (c *Controller) savedNamesLocked() []string {
	names := c.namesLocked()
	for i, e := range c.entries {
		if city, ok := c.registry.Lookup(e.City); !ok || city.ZoneID != e.ZoneID {
			log.Printf("SESSION: %s saving %q by zone id %s", c.id, e.City, e.ZoneID)
			names[i] = e.ZoneID
		}
	}
	return names
}

// Find returns the position of the card matching a display name or zone id.
// Names match case-insensitively.
func (c *Controller) Find(nameOrZone string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.indexOf(nameOrZone)
}

func (c *Controller) indexOf(nameOrZone string) (int, bool) {
	for i, e := range c.entries {
		if e.ZoneID == nameOrZone {
			return i, true
		}
	}
	for i, e := range c.entries {
		if strings.EqualFold(e.City, nameOrZone) {
			return i, true
		}
	}
	return -1, false
}

// Share renders one "City: 9:30 AM EST" line per card.
func (c *Controller) Share() string {
	views := c.Views()
	lines := make([]string, len(views))
	for i, v := range views {
		lines[i] = fmt.Sprintf("%s: %s %s", v.City, v.Clock12(), v.Abbreviation)
	}
	return strings.Join(lines, "\n")
}
