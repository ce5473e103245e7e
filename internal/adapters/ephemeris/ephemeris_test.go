package ephemeris

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/skywatch/internal/core/domain"
	"github.com/samirrijal/skywatch/internal/pkg/upstream"
)

var (
	vaBeach = domain.GeoPoint{Lat: 36.85, Lon: -75.97}
	at      = time.Date(2025, 5, 10, 18, 0, 0, 0, time.UTC)
)

func TestLocal_Position(t *testing.T) {
	pos, err := NewLocal().Position(context.Background(), domain.Sun, at, vaBeach)
	require.NoError(t, err)
	assert.Greater(t, pos.Altitude, 50.0)
}

func TestLocal_UnknownBody(t *testing.T) {
	_, err := NewLocal().Position(context.Background(), domain.Body("Pluto"), at, vaBeach)
	assert.Equal(t, domain.KindInvalidArgument, domain.KindOf(err))
}

func TestLocal_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLocal().RiseSet(ctx, domain.Moon, at, vaBeach)
	assert.ErrorIs(t, err, context.Canceled)
}

const calcPayload = `{
  "objects": [
    {"name": "Mars", "type": "Planet", "altitude": 45, "azimuth": 180,
     "hourlyData": [], "additionalInfo": {"riseTime": "2025-05-10T14:00:00Z", "setTime": null}},
    {"name": "Venus", "type": "Planet",
     "hourlyData": [{"time": "2025-05-10T17:00:00Z", "altitude": 10, "azimuth": 90},
                    {"time": "2025-05-10T18:00:00Z", "altitude": 12, "azimuth": 95}],
     "additionalInfo": {}}
  ],
  "sunrise": "2025-05-10T10:05:00Z",
  "sunset": "2025-05-11T00:00:00Z"
}`

func TestRemote_MapsBackendPayload(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/calculate", r.URL.Path)
		assert.Equal(t, "2025-05-10T18:00:00Z", r.URL.Query().Get("time"))
		_, _ = w.Write([]byte(calcPayload))
	}))
	defer srv.Close()

	rem := NewRemote(upstream.New("compute-test"), srv.URL, NewLocal())
	ctx := context.Background()

	mars, err := rem.Position(ctx, domain.Mars, at, vaBeach)
	require.NoError(t, err)
	assert.Equal(t, 45.0, mars.Altitude)

	venus, err := rem.Position(ctx, domain.Venus, at.Add(20*time.Second), vaBeach)
	require.NoError(t, err)
	assert.Equal(t, 12.0, venus.Altitude, "nearest hourly sample")

	rs, err := rem.RiseSet(ctx, domain.Mars, at, vaBeach)
	require.NoError(t, err)
	require.NotNil(t, rs.Rise)
	assert.Nil(t, rs.Set)

	sun, err := rem.RiseSet(ctx, domain.Sun, at, vaBeach)
	require.NoError(t, err)
	require.NotNil(t, sun.Set)
	assert.Equal(t, time.Date(2025, 5, 11, 0, 0, 0, 0, time.UTC), *sun.Set)

	// Sun position is not reported, so the in-process fallback answers.
	sunPos, err := rem.Position(ctx, domain.Sun, at, vaBeach)
	require.NoError(t, err)
	assert.Greater(t, sunPos.Altitude, 50.0)

	assert.Equal(t, int32(1), hits.Load(), "one backend call per minute and observer")
}

func TestRemote_CanceledCallerDoesNotFailJoiners(t *testing.T) {
	release := make(chan struct{})
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		_, _ = w.Write([]byte(calcPayload))
	}))
	defer srv.Close()

	rem := NewRemote(upstream.New("compute-test-join"), srv.URL, NewLocal())

	first, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := rem.Position(first, domain.Mars, at, vaBeach)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 5*time.Millisecond)

	secondAlt := make(chan float64, 1)
	go func() {
		pos, err := rem.Position(context.Background(), domain.Mars, at, vaBeach)
		assert.NoError(t, err)
		secondAlt <- pos.Altitude
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	assert.Equal(t, 45.0, <-secondAlt)
	assert.Equal(t, int32(1), hits.Load())
}

func TestRemote_BackendFailureIsNotMasked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewRemote(upstream.New("compute-test-fail"), srv.URL, NewLocal()).
		Position(context.Background(), domain.Mars, at, vaBeach)
	require.Error(t, err)
	assert.Equal(t, domain.KindUpstreamFailure, domain.KindOf(err))
}

func TestRemote_NoFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"objects": []}`))
	}))
	defer srv.Close()

	rem := NewRemote(upstream.New("compute-test-nofb"), srv.URL, nil)
	_, err := rem.Position(context.Background(), domain.Saturn, at, vaBeach)
	assert.Error(t, err)
	_, err = rem.Phase(context.Background(), at)
	assert.Error(t, err)
}
