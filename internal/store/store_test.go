package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStoreInvalidPath(t *testing.T) {
	_, err := New("/nonexistent/deeply/nested/dir/test.db")
	assert.Error(t, err)
}

func TestLoadCitiesEmpty(t *testing.T) {
	s := newTestStore(t)
	_, err := s.LoadCities(context.Background())
	assert.ErrorIs(t, err, ErrNoSavedState)
}

func TestSaveAndLoadCities(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.SetSession("session-1")

	names := []string{"Beijing", "New York", "London"}
	require.NoError(t, s.SaveCities(ctx, names))

	got, err := s.LoadCities(ctx)
	require.NoError(t, err)
	assert.Equal(t, names, got)

	st, err := s.Get(ctx, CitiesKey)
	require.NoError(t, err)
	assert.Equal(t, `["Beijing","New York","London"]`, st.Value)
	assert.Equal(t, "session-1", st.SessionID)
	assert.False(t, st.UpdatedAt.IsZero())

	// Overwrite keeps a single row with the new order.
	require.NoError(t, s.SaveCities(ctx, []string{"London", "Beijing"}))
	got, err = s.LoadCities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"London", "Beijing"}, got)
}

func TestLoadCitiesMalformed(t *testing.T) {
	values := map[string]string{
		"empty string": "",
		"null":         "null",
		"undefined":    "undefined",
		"empty array":  "[]",
		"object":       `{"city":"Beijing"}`,
		"numbers":      `[1,2,3]`,
		"truncated":    `["Beijing",`,
	}
	for name, v := range values {
		t.Run(name, func(t *testing.T) {
			s := newTestStore(t)
			ctx := context.Background()
			require.NoError(t, s.Set(ctx, CitiesKey, v))
			_, err := s.LoadCities(ctx)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestDarkTheme(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, ok, err := s.LoadDarkTheme(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SaveDarkTheme(ctx, true))
	dark, ok, err := s.LoadDarkTheme(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, dark)

	require.NoError(t, s.SaveDarkTheme(ctx, false))
	dark, _, err = s.LoadDarkTheme(ctx)
	require.NoError(t, err)
	assert.False(t, dark)
}
