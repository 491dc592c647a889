package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/track-dominance/pkg/cache"
	"github.com/mpapenbr/track-dominance/pkg/dominance"
	"github.com/mpapenbr/track-dominance/pkg/model"
	"github.com/mpapenbr/track-dominance/pkg/openf1"
)

type fakeSchedule struct{}

func (f fakeSchedule) Meetings(ctx context.Context, year int) ([]model.Meeting, error) {
	if year != 2024 {
		return nil, fmt.Errorf("year %d: %w", year, openf1.ErrNotFound)
	}
	return []model.Meeting{{Key: 1229, Year: 2024, Round: 1, Name: "Bahrain Grand Prix"}}, nil
}

func (f fakeSchedule) Sessions(ctx context.Context, meetingKey int) ([]model.Session, error) {
	return []model.Session{{Key: 9472, MeetingKey: meetingKey, Name: "Qualifying"}}, nil
}

type fakeDominance struct {
	calls atomic.Int32
	errs  map[int]error
}

func (f *fakeDominance) Compute(ctx context.Context, sessionKey int, binWidth float64) (
	*model.Result, error,
) {
	f.calls.Add(1)
	if err := f.errs[sessionKey]; err != nil {
		return nil, err
	}
	return &model.Result{
		Meeting:   &model.Meeting{Year: 2024, Name: "Bahrain Grand Prix"},
		Session:   &model.Session{Key: sessionKey, Name: "Qualifying"},
		Reference: model.Lap{Driver: "VER", LapTime: 89 * time.Second},
		Secondary: model.Lap{Driver: "LEC", LapTime: 90 * time.Second},
		Legend: []model.DriverColor{
			{Driver: "VER", Color: "#3671C6"},
			{Driver: "LEC", Color: "#E8002D"},
		},
		BinWidth: binWidth,
		Segments: []model.DominanceSegment{
			{Points: []model.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}, Color: "#3671C6", FasterDriver: "VER"},
			{Points: []model.Point{{X: 10, Y: 0}, {X: 10, Y: 10}}, Color: "#E8002D", FasterDriver: "LEC"},
		},
	}, nil
}

type fakeStats struct{}

func (fakeStats) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, cache.ErrCacheMiss
}
func (fakeStats) Put(ctx context.Context, key string, data []byte) error { return nil }
func (fakeStats) Stats() cache.Stats { return cache.Stats{Hits: 3, Misses: 1} }

func newTestServer(t *testing.T) (*httptest.Server, *fakeDominance) {
	t.Helper()
	dom := &fakeDominance{errs: map[int]error{
		1: dominance.ErrInsufficientData,
		2: dominance.ErrNoOverlappingData,
		3: fmt.Errorf("session 3: %w", openf1.ErrNotFound),
		4: &openf1.HTTPError{StatusCode: 503, URL: "http://openf1/v1/laps"},
	}}
	srv := New(WithSchedule(fakeSchedule{}), WithDominance(dom), WithCacheStats(fakeStats{}))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, dom
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, body := get(t, ts.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	var got healthResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "ok", got.Status)
	require.NotNil(t, got.Cache)
	assert.Equal(t, int64(3), got.Cache.Hits)
	assert.InDelta(t, 0.75, got.Cache.HitRatio, 1e-9)
}

func TestRequestIDIsKept(t *testing.T) {
	ts, _ := newTestServer(t)
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", http.NoBody)
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-Id"))
}

func TestSchedule(t *testing.T) {
	ts, _ := newTestServer(t)
	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"meetings", "/api/meetings?year=2024", http.StatusOK},
		{"meetings unknown year", "/api/meetings?year=1950", http.StatusNotFound},
		{"meetings missing year", "/api/meetings", http.StatusBadRequest},
		{"meetings invalid year", "/api/meetings?year=abc", http.StatusBadRequest},
		{"sessions", "/api/sessions?meeting=1229", http.StatusOK},
		{"sessions missing meeting", "/api/sessions", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := get(t, ts.URL+tt.path)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestDominanceIsCached(t *testing.T) {
	ts, dom := newTestServer(t)
	for range 3 {
		resp, body := get(t, ts.URL+"/api/dominance?session=9472&bin=5")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var got model.Result
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, 5.0, got.BinWidth)
		assert.Len(t, got.Segments, 2)
	}
	assert.Equal(t, int32(1), dom.calls.Load())

	// other bin width is another run
	resp, _ := get(t, ts.URL+"/api/dominance?session=9472")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), dom.calls.Load())
}

func TestDominanceErrors(t *testing.T) {
	ts, _ := newTestServer(t)
	tests := []struct {
		name   string
		query  string
		status int
		kind   string
	}{
		{"insufficient data", "session=1", http.StatusUnprocessableEntity, "InsufficientData"},
		{"no overlap", "session=2", http.StatusUnprocessableEntity, "NoOverlappingData"},
		{"unknown session", "session=3", http.StatusNotFound, ""},
		{"upstream failure", "session=4", http.StatusBadGateway, ""},
		{"missing session", "", http.StatusBadRequest, ""},
		{"negative bin", "session=9472&bin=-1", http.StatusBadRequest, ""},
		{"invalid bin", "session=9472&bin=x", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, ts.URL+"/api/dominance?"+tt.query)
			assert.Equal(t, tt.status, resp.StatusCode)
			var got errorResponse
			require.NoError(t, json.Unmarshal(body, &got))
			assert.Equal(t, tt.kind, got.Kind)
			assert.NotEmpty(t, got.Error)
		})
	}
}

func TestDominanceBinBounds(t *testing.T) {
	ts, dom := newTestServer(t)
	for _, bin := range []string{"NaN", "Inf", "1e-300", "1e-9", "0.5", "1001"} {
		resp, body := get(t, ts.URL+"/api/dominance?session=9472&bin="+bin)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "bin=%s", bin)
		var got errorResponse
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Empty(t, got.Kind, "bin=%s", bin)
	}
	assert.Equal(t, int32(0), dom.calls.Load())

	for _, bin := range []string{"1", "1000"} {
		resp, _ := get(t, ts.URL+"/api/dominance?session=9472&bin="+bin)
		assert.Equal(t, http.StatusOK, resp.StatusCode, "bin=%s", bin)
	}
	assert.Equal(t, int32(2), dom.calls.Load())
}

func TestDominanceRendered(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := get(t, ts.URL+"/dominance.html?session=9472")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html"))
	assert.Contains(t, string(body), "Track Dominance: VER vs LEC (2024 Bahrain Grand Prix)")

	resp, body = get(t, ts.URL+"/dominance.png?session=9472")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "Dominance_VER_vs_LEC_2024.png")
	assert.True(t, strings.HasPrefix(string(body), "\x89PNG"))
}

func TestRunsWithoutDB(t *testing.T) {
	ts, _ := newTestServer(t)
	for _, path := range []string{"/api/runs?session=9472", "/api/runs/0190b8a4-7c1e-7000-8000-000000000000"} {
		resp, _ := get(t, ts.URL+path)
		assert.Equal(t, http.StatusNotImplemented, resp.StatusCode, path)
	}
}

func TestStatusFor(t *testing.T) {
	status, kind := statusFor(fmt.Errorf("wrapped: %w", dominance.ErrInvalidBinWidth))
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "InvalidBinWidth", kind)

	status, _ = statusFor(context.DeadlineExceeded)
	assert.Equal(t, http.StatusServiceUnavailable, status)

	status, _ = statusFor(io.ErrUnexpectedEOF)
	assert.Equal(t, http.StatusInternalServerError, status)
}
