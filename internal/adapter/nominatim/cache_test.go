package nominatim

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poamaps/incident-etl/internal/domain"
	"github.com/poamaps/incident-etl/internal/observability"
)

func TestCached_HitSkipsInner(t *testing.T) {
	inner := &fakeGeocoder{coords: domain.Coordinates{Lat: "-30.0277", Lon: "-51.1953"}, found: true}
	c := NewCached(inner, 10, observability.NewMetricsForTesting())

	ctx := context.Background()
	coords, found, err := c.Resolve(ctx, "1234 av. protásio alves")
	require.NoError(t, err)
	require.True(t, found)

	again, found, err := c.Resolve(ctx, "1234 av. protásio alves")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, coords, again)
	assert.Equal(t, 1, inner.callCount())
}

func TestCached_MissesAreNotCached(t *testing.T) {
	inner := &fakeGeocoder{found: false}
	c := NewCached(inner, 10, observability.NewMetricsForTesting())

	ctx := context.Background()
	for range 2 {
		_, found, err := c.Resolve(ctx, "rua inexistente")
		require.NoError(t, err)
		assert.False(t, found)
	}
	assert.Equal(t, 2, inner.callCount())
}

func TestCached_ErrorsAreNotCached(t *testing.T) {
	inner := &fakeGeocoder{err: errors.New("boom")}
	c := NewCached(inner, 10, observability.NewMetricsForTesting())

	ctx := context.Background()
	_, _, err := c.Resolve(ctx, "av ipiranga")
	require.Error(t, err)
	_, _, err = c.Resolve(ctx, "av ipiranga")
	require.Error(t, err)
	assert.Equal(t, 2, inner.callCount())
}

func TestCached_EvictsLeastRecentlyUsed(t *testing.T) {
	inner := &fakeGeocoder{coords: domain.Coordinates{Lat: "-30.0", Lon: "-51.2"}, found: true}
	c := NewCached(inner, 2, observability.NewMetricsForTesting())

	ctx := context.Background()
	for _, street := range []string{"a", "b", "c"} {
		_, _, err := c.Resolve(ctx, street)
		require.NoError(t, err)
	}
	require.Equal(t, 3, inner.callCount())

	// "a" was evicted when "c" came in; "b" and "c" are still cached.
	_, _, err := c.Resolve(ctx, "b")
	require.NoError(t, err)
	_, _, err = c.Resolve(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, 3, inner.callCount())

	_, _, err = c.Resolve(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 4, inner.callCount())
}
