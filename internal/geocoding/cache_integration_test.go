//go:build integration

package geocoding

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) *redis.Client {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestCachedGeocoder_Redis(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()

	t.Run("second lookup is served from cache", func(t *testing.T) {
		next := &countingGeocoder{results: []Result{{Latitude: -0.5, Longitude: 101.4, Importance: 0.7}}}
		g := WithCache(next, "nominatim", rdb, time.Hour)

		first, err := g.Geocode(ctx, "Pekanbaru")
		require.NoError(t, err)
		second, err := g.Geocode(ctx, " pekanbaru ")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, next.calls)
	})

	t.Run("empty results are not cached", func(t *testing.T) {
		next := &countingGeocoder{}
		g := WithCache(next, "nominatim", rdb, time.Hour)

		_, err := g.Geocode(ctx, "Nowhere")
		require.NoError(t, err)
		_, err = g.Geocode(ctx, "Nowhere")
		require.NoError(t, err)

		assert.Equal(t, 2, next.calls)
	})

	t.Run("errors pass through", func(t *testing.T) {
		next := &countingGeocoder{err: ErrQuotaExceeded}
		_, err := WithCache(next, "mapbox", rdb, time.Hour).Geocode(ctx, "Kampar")
		assert.ErrorIs(t, err, ErrQuotaExceeded)
	})

	t.Run("providers do not share entries", func(t *testing.T) {
		free := &countingGeocoder{results: []Result{{Latitude: 1, Longitude: 2}}}
		paid := &countingGeocoder{results: []Result{{Latitude: 3, Longitude: 4}}}
		_, err := WithCache(free, "nominatim", rdb, time.Hour).Geocode(ctx, "Siak")
		require.NoError(t, err)

		got, err := WithCache(paid, "mapbox", rdb, time.Hour).Geocode(ctx, "Siak")
		require.NoError(t, err)
		assert.Equal(t, paid.results, got)
	})
}
