package session

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/agent-platform/worldclock/internal/clock"
	"github.com/agent-platform/worldclock/internal/store"
	"github.com/agent-platform/worldclock/internal/zone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

type memPersister struct {
	mu      sync.Mutex
	saved   []string
	loadErr error
	saveErr error
	saves   int
	onLoad  func()
}

func (p *memPersister) LoadCities(ctx context.Context) ([]string, error) {
	if p.onLoad != nil {
		p.onLoad()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loadErr != nil {
		return nil, p.loadErr
	}
	if p.saved == nil {
		return nil, store.ErrNoSavedState
	}
	return append([]string(nil), p.saved...), nil
}

func (p *memPersister) SaveCities(ctx context.Context, names []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves++
	if p.saveErr != nil {
		return p.saveErr
	}
	p.saved = append([]string(nil), names...)
	return nil
}

func testRegistry(t *testing.T) *zone.Registry {
	t.Helper()
	reg, err := zone.NewRegistry(zone.StaticSource{
		"Asia/Shanghai", "America/New_York", "Europe/London", "Asia/Tokyo", "Europe/Paris", "Asia/Kolkata",
	})
	require.NoError(t, err)
	return reg
}

func newTestController(t *testing.T, p Persister, notices *[]Notice) *Controller {
	t.Helper()
	opts := Options{
		Now:       func() time.Time { return fixedNow },
		SessionID: "test-session",
	}
	if notices != nil {
		opts.Notifier = NotifierFunc(func(n Notice) { *notices = append(*notices, n) })
	}
	return New(testRegistry(t), p, opts)
}

func zoneIDs(entries []clock.ZoneEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ZoneID
	}
	return ids
}

func TestNewUsesDefaults(t *testing.T) {
	c := newTestController(t, nil, nil)

	assert.Equal(t, []string{"Beijing", "New York", "London"}, c.Names())
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, fixedNow, c.Instant())
	assert.Equal(t, "test-session", c.ID())
	require.Len(t, c.Views(), 3)
}

func TestNewGeneratesSessionID(t *testing.T) {
	c := New(testRegistry(t), nil, Options{})
	assert.Len(t, c.ID(), 36)
}

func TestEditPropagatesToAllCards(t *testing.T) {
	c := newTestController(t, nil, nil)

	views, err := c.Edit("America/New_York", clock.WallClockFromSlider(2024, time.January, 15, 570))
	require.NoError(t, err)

	want := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	assert.True(t, c.Instant().Equal(want), "instant = %s", c.Instant())

	bj := views[0]
	assert.Equal(t, "Beijing", bj.City)
	assert.Equal(t, 22, bj.Hour)
	assert.Equal(t, 30, bj.Minute)
	assert.Equal(t, "CST", bj.Abbreviation)
	assert.Equal(t, 15, bj.Day)

	for _, v := range views {
		assert.True(t, v.Instant.Equal(want), "%s instant = %s", v.City, v.Instant)
	}
	assert.Equal(t, 570, views[1].MinutesSinceMidnight)
	assert.Equal(t, Idle, c.State())
}

func TestEditDuringSpringForward(t *testing.T) {
	c := newTestController(t, nil, nil)

	views, err := c.Edit("New York", clock.WallClock{Year: 2024, Month: time.March, Day: 10, Hour: 2, Minute: 30})
	require.NoError(t, err)
	assert.True(t, c.Instant().Equal(time.Date(2024, 3, 10, 7, 30, 0, 0, time.UTC)))
	assert.Equal(t, 3, views[1].Hour)
	assert.Equal(t, "EDT", views[1].Abbreviation)
}

func TestEditUnknownZoneRejected(t *testing.T) {
	c := newTestController(t, nil, nil)
	before := c.Views()

	require.NoError(t, c.BeginEdit("Asia/Shanghai"))
	views, err := c.Commit("Atlantis/Lost", clock.WallClock{Year: 2024, Month: 1, Day: 1, Hour: 1})
	assert.ErrorIs(t, err, zone.ErrUnknownZone)
	assert.Equal(t, before, views)
	assert.Equal(t, before, c.Views())
	assert.Equal(t, fixedNow, c.Instant())
	assert.Equal(t, Idle, c.State())

	_, err = c.Edit("Asia/Tokyo", clock.WallClock{Year: 2024, Month: 1, Day: 1, Hour: 1})
	assert.ErrorIs(t, err, ErrNotInSet)
	assert.Equal(t, fixedNow, c.Instant())
}

func TestEditInvalidWallClockRejected(t *testing.T) {
	c := newTestController(t, nil, nil)
	before := c.Views()

	_, err := c.Edit("Europe/London", clock.WallClock{Year: 2024, Month: 2, Day: 30, Hour: 10})
	assert.ErrorIs(t, err, clock.ErrInvalidWallClock)
	assert.Equal(t, before, c.Views())
}

func TestEditControls(t *testing.T) {
	c := newTestController(t, nil, nil)

	// London shows 12:00 on 2024-01-15.
	views, err := c.EditSlider("Europe/London", 615)
	require.NoError(t, err)
	assert.Equal(t, 10, views[2].Hour)
	assert.Equal(t, 15, views[2].Minute)

	views, err = c.EditHour("Europe/London", 18)
	require.NoError(t, err)
	assert.Equal(t, 18, views[2].Hour)
	assert.Equal(t, 15, views[2].Minute)

	views, err = c.EditDate("Europe/London", 2024, time.July, 1)
	require.NoError(t, err)
	assert.Equal(t, time.July, views[2].Month)
	assert.Equal(t, 18, views[2].Hour)
	assert.Equal(t, "BST", views[2].Abbreviation)
	assert.True(t, c.Instant().Equal(time.Date(2024, 7, 1, 17, 15, 0, 0, time.UTC)))

	_, err = c.EditSlider("Asia/Tokyo", 0)
	assert.ErrorIs(t, err, ErrNotInSet)
}

func TestTickSkippedWhileEditing(t *testing.T) {
	c := newTestController(t, nil, nil)
	later := fixedNow.Add(time.Hour)

	require.NoError(t, c.BeginEdit("Europe/London"))
	zoneID, editing := c.Editing()
	assert.True(t, editing)
	assert.Equal(t, "Europe/London", zoneID)
	assert.Equal(t, Editing, c.State())

	assert.False(t, c.Tick(later))
	assert.Equal(t, fixedNow, c.Instant())

	c.Cancel()
	assert.Equal(t, Idle, c.State())
	assert.True(t, c.Tick(later))
	assert.True(t, c.Instant().Equal(later))

	assert.ErrorIs(t, c.BeginEdit("Asia/Tokyo"), ErrNotInSet)
}

func TestNowEndsEdit(t *testing.T) {
	c := newTestController(t, nil, nil)
	_, err := c.EditSlider("Europe/London", 0)
	require.NoError(t, err)
	require.NoError(t, c.BeginEdit("Europe/London"))

	views := c.Now()
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, fixedNow, c.Instant())
	assert.Equal(t, 12, views[2].Hour)
}

func TestLoadScenarios(t *testing.T) {
	tests := []struct {
		name    string
		saved   []string
		loadErr error
		want    []string
	}{
		{"unknown city skipped", []string{"Beijing", "Atlantis"}, nil, []string{"Asia/Shanghai"}},
		{"order kept", []string{"London", "Tokyo", "Beijing"}, nil, []string{"Europe/London", "Asia/Tokyo", "Asia/Shanghai"}},
		{"zone ids from older saves", []string{"Asia/Tokyo", "Europe/Paris"}, nil, []string{"Asia/Tokyo", "Europe/Paris"}},
		{"duplicates collapsed", []string{"Beijing", "Shanghai", "Tokyo"}, nil, []string{"Asia/Shanghai", "Asia/Tokyo"}},
		{"names are case-sensitive", []string{"beijing"}, nil, []string{"Asia/Shanghai", "America/New_York", "Europe/London"}},
		{"nothing saved", nil, nil, []string{"Asia/Shanghai", "America/New_York", "Europe/London"}},
		{"malformed", nil, store.ErrMalformed, []string{"Asia/Shanghai", "America/New_York", "Europe/London"}},
		{"all unknown", []string{"Atlantis", "El Dorado"}, nil, []string{"Asia/Shanghai", "America/New_York", "Europe/London"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &memPersister{saved: tt.saved, loadErr: tt.loadErr}
			c := newTestController(t, p, nil)
			require.NoError(t, c.Load(context.Background()))
			assert.Equal(t, tt.want, zoneIDs(c.Entries()))
			assert.Len(t, c.Views(), len(tt.want))
		})
	}
}

func TestLoadDropsStaleResult(t *testing.T) {
	p := &memPersister{saved: []string{"Paris"}}
	c := newTestController(t, p, nil)

	p.onLoad = func() {
		p.onLoad = nil
		_, err := c.Add(context.Background(), "Tokyo")
		require.NoError(t, err)
	}

	err := c.Load(context.Background())
	assert.ErrorIs(t, err, ErrStaleLoad)
	assert.Equal(t, []string{"Asia/Tokyo", "Asia/Shanghai", "America/New_York", "Europe/London"}, zoneIDs(c.Entries()))
}

func TestLoadKeepsInstant(t *testing.T) {
	p := &memPersister{saved: []string{"Tokyo"}}
	c := newTestController(t, p, nil)
	_, err := c.EditSlider("Europe/London", 60)
	require.NoError(t, err)
	instant := c.Instant()

	require.NoError(t, c.Load(context.Background()))
	assert.Equal(t, instant, c.Instant())
	assert.Equal(t, 10, c.Views()[0].Hour)
}

func TestAdd(t *testing.T) {
	p := &memPersister{}
	c := newTestController(t, p, nil)
	ctx := context.Background()

	entry, err := c.Add(ctx, "Tokyo")
	require.NoError(t, err)
	assert.Equal(t, clock.ZoneEntry{City: "Tokyo", ZoneID: "Asia/Tokyo"}, entry)
	assert.Equal(t, "Asia/Tokyo", c.Entries()[0].ZoneID)
	assert.Equal(t, []string{"Tokyo", "Beijing", "New York", "London"}, p.saved)

	_, err = c.Add(ctx, "Asia/Tokyo")
	assert.ErrorIs(t, err, ErrDuplicateZone)

	_, err = c.Add(ctx, "Atlantis")
	assert.ErrorIs(t, err, zone.ErrUnknownCity)

	entry, err = c.AddFirstMatch(ctx, "kolk")
	require.NoError(t, err)
	assert.Equal(t, "Kolkata", entry.City)

	_, err = c.AddFirstMatch(ctx, "atlantis")
	assert.ErrorIs(t, err, zone.ErrUnknownCity)

	// New cards are projected from the current instant.
	v := c.Views()[0]
	assert.Equal(t, 17, v.Hour)
	assert.Equal(t, 30, v.Minute)
}

func TestAddAt(t *testing.T) {
	c := newTestController(t, nil, nil)
	entry, err := c.AddAt(context.Background(), 35.6895, 139.6917)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", entry.ZoneID)

	_, err = c.AddAt(context.Background(), 200, 0)
	assert.ErrorIs(t, err, zone.ErrUnknownZone)
}

func TestRemove(t *testing.T) {
	p := &memPersister{}
	c := newTestController(t, p, nil)
	ctx := context.Background()

	removed, err := c.Remove(ctx, "new york")
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", removed.ZoneID)
	assert.Equal(t, []string{"Beijing", "London"}, p.saved)

	_, err = c.Remove(ctx, "Asia/Tokyo")
	assert.ErrorIs(t, err, ErrNotInSet)

	_, err = c.Remove(ctx, "Europe/London")
	require.NoError(t, err)

	_, err = c.Remove(ctx, "Beijing")
	assert.ErrorIs(t, err, ErrLastEntry)
	assert.Equal(t, []string{"Beijing"}, c.Names())
}

func TestRemoveEditedCardEndsEdit(t *testing.T) {
	c := newTestController(t, nil, nil)
	require.NoError(t, c.BeginEdit("Europe/London"))
	_, err := c.Remove(context.Background(), "Europe/London")
	require.NoError(t, err)
	assert.Equal(t, Idle, c.State())
}

func TestMove(t *testing.T) {
	p := &memPersister{}
	c := newTestController(t, p, nil)
	ctx := context.Background()

	require.NoError(t, c.Move(ctx, 0, 2))
	assert.Equal(t, []string{"New York", "London", "Beijing"}, c.Names())
	assert.Equal(t, []string{"New York", "London", "Beijing"}, p.saved)

	require.NoError(t, c.Move(ctx, 2, 0))
	assert.Equal(t, []string{"Beijing", "New York", "London"}, c.Names())

	require.NoError(t, c.Move(ctx, 1, 1))
	assert.ErrorIs(t, c.Move(ctx, 0, 3), ErrOutOfRange)
	assert.ErrorIs(t, c.Move(ctx, -1, 0), ErrOutOfRange)

	views := c.Views()
	assert.Equal(t, "Beijing", views[0].City)
	assert.Equal(t, "London", views[2].City)
}

func TestSaveNotifies(t *testing.T) {
	var notices []Notice
	p := &memPersister{}
	c := newTestController(t, p, &notices)

	require.NoError(t, c.Save(context.Background()))
	require.Len(t, notices, 1)
	assert.Equal(t, LevelInfo, notices[0].Level)
	assert.Equal(t, SavedMessage, notices[0].Message)
	assert.Equal(t, []string{"Beijing", "New York", "London"}, p.saved)

	p.saveErr = errors.New("disk full")
	before := c.Views()
	err := c.Save(context.Background())
	assert.Error(t, err)
	require.Len(t, notices, 2)
	assert.Equal(t, LevelError, notices[1].Level)
	assert.ErrorContains(t, notices[1].Err, "disk full")
	assert.Equal(t, before, c.Views())
	assert.Equal(t, []string{"Beijing", "New York", "London"}, c.Names())
}

func TestSaveWithoutStorage(t *testing.T) {
	var notices []Notice
	c := newTestController(t, nil, &notices)
	assert.Error(t, c.Save(context.Background()))
	require.Len(t, notices, 1)
	assert.Equal(t, LevelError, notices[0].Level)
}

func TestAutosaveFailureKeepsState(t *testing.T) {
	p := &memPersister{saveErr: errors.New("read-only")}
	c := newTestController(t, p, nil)
	_, err := c.Add(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Equal(t, "Paris", c.Names()[0])
	assert.Equal(t, 1, p.saves)
}

func TestRoundTripThroughStore(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "worldclock.db"))
	require.NoError(t, err)
	defer st.Close()
	ctx := context.Background()

	first := newTestController(t, st, nil)
	_, err = first.Add(ctx, "Kolkata")
	require.NoError(t, err)
	_, err = first.Add(ctx, "Mumbai")
	assert.ErrorIs(t, err, ErrDuplicateZone)
	require.NoError(t, first.Move(ctx, 0, 3))
	require.NoError(t, first.Save(ctx))

	second := newTestController(t, st, nil)
	require.NoError(t, second.Load(ctx))
	assert.Equal(t, zoneIDs(first.Entries()), zoneIDs(second.Entries()))
	assert.Equal(t, first.Names(), second.Names())
}

func TestSaveKeepsZoneForSharedName(t *testing.T) {
	reg, err := zone.NewRegistry(zone.StaticSource{
		"Asia/Shanghai", "America/New_York", "Europe/London",
		"America/Kentucky/Louisville", "America/Louisville",
	})
	require.NoError(t, err)
	city, ok := reg.Lookup("Louisville")
	require.True(t, ok)
	require.Equal(t, "America/Kentucky/Louisville", city.ZoneID)

	p := &memPersister{}
	opts := Options{Now: func() time.Time { return fixedNow }, SessionID: "test-session"}
	first := New(reg, p, opts)
	ctx := context.Background()

	entry, err := first.Add(ctx, "America/Louisville")
	require.NoError(t, err)
	assert.Equal(t, "Louisville", entry.City)
	assert.Equal(t, []string{"America/Louisville", "Beijing", "New York", "London"}, p.saved)

	require.NoError(t, first.Save(ctx))
	assert.Equal(t, "America/Louisville", p.saved[0])

	second := New(reg, p, opts)
	require.NoError(t, second.Load(ctx))
	assert.Equal(t, zoneIDs(first.Entries()), zoneIDs(second.Entries()))
	assert.Equal(t, "Louisville", second.Names()[0])
}

func TestOnUpdate(t *testing.T) {
	c := newTestController(t, nil, nil)
	var got [][]clock.LocalView
	c.OnUpdate(func(v []clock.LocalView) { got = append(got, v) })

	c.Tick(fixedNow.Add(time.Minute))
	_, err := c.EditSlider("Europe/London", 0)
	require.NoError(t, err)
	_, _ = c.Edit("Atlantis/Lost", clock.WallClock{Year: 2024, Month: 1, Day: 1})

	require.Len(t, got, 2)
	assert.Equal(t, 0, got[1][2].MinutesSinceMidnight)
}

func TestShare(t *testing.T) {
	c := newTestController(t, nil, nil)
	_, err := c.Edit("America/New_York", clock.WallClockFromSlider(2024, time.January, 15, 570))
	require.NoError(t, err)
	assert.Equal(t, "Beijing: 10:30 PM CST\nNew York: 9:30 AM EST\nLondon: 2:30 PM GMT", c.Share())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "editing", Editing.String())
	assert.Equal(t, "state(7)", State(7).String())
}

func TestRunResyncs(t *testing.T) {
	c := New(testRegistry(t), nil, Options{Now: time.Now})
	start := c.Instant()

	var mu sync.Mutex
	clockTicks := 0
	ctx, cancel := context.WithTimeout(context.Background(), 2500*time.Millisecond)
	defer cancel()

	err := c.Run(ctx, Schedule{
		Clock:  "@every 1s",
		Resync: "@every 1s",
		OnClock: func(time.Time) {
			mu.Lock()
			clockTicks++
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, clockTicks, 1)
	assert.True(t, c.Instant().After(start), "instant should advance after resync")
}

func TestRunInvalidSchedule(t *testing.T) {
	c := newTestController(t, nil, nil)
	err := c.Run(context.Background(), Schedule{Resync: "whenever"})
	assert.Error(t, err)
}
