// Package openf1 reads session data from the public OpenF1 api.
package openf1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mpapenbr/track-dominance/log"
	"github.com/mpapenbr/track-dominance/pkg/cache"
)

const DefaultBaseURL = "https://api.openf1.org/v1"

// api timestamps used in range queries
const queryTimeLayout = "2006-01-02T15:04:05.000"

var tracer = otel.Tracer("github.com/mpapenbr/track-dominance/pkg/openf1")

type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("openf1: %s returned status %d", e.URL, e.StatusCode)
}

// Retryable reports whether the request may succeed when repeated
func (e *HTTPError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type (
	Option func(*Client)
	Client struct {
		baseURL    string
		httpClient *http.Client
		store      cache.Store
		maxTries   uint
		maxElapsed time.Duration
		log        *log.Logger
	}
)

func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithStore enables caching of successful responses
func WithStore(s cache.Store) Option {
	return func(c *Client) {
		c.store = s
	}
}

func WithMaxTries(n uint) Option {
	return func(c *Client) {
		c.maxTries = n
	}
}

func WithMaxElapsedTime(d time.Duration) Option {
	return func(c *Client) {
		c.maxElapsed = d
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

func New(opts ...Option) *Client {
	ret := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxTries:   5,
		maxElapsed: 2 * time.Minute,
		log:        log.Default().Named("openf1"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Store returns the configured cache store (may be nil)
func (c *Client) Store() cache.Store {
	return c.store
}

// query is a list of raw "key<op>value" filters as used by the api,
// e.g. "session_key=9158" or "date>2023-09-16T13:03:35.200"
type query []string

func eq(key string, value any) string {
	return fmt.Sprintf("%s=%v", key, value)
}

func gt(key string, t time.Time) string {
	return key + ">" + t.UTC().Format(queryTimeLayout)
}

func lt(key string, t time.Time) string {
	return key + "<" + t.UTC().Format(queryTimeLayout)
}

func (c *Client) url(endpoint string, q query) string {
	if len(q) == 0 {
		return c.baseURL + "/" + endpoint
	}
	return c.baseURL + "/" + endpoint + "?" + strings.Join(q, "&")
}

// get decodes the response of endpoint into target.
// A 404 is treated as an empty result and is not cached.
func (c *Client) get(ctx context.Context, endpoint string, q query, target any) error {
	url := c.url(endpoint, q)
	ctx, span := tracer.Start(ctx, "openf1."+endpoint,
		trace.WithAttributes(attribute.String("url", url)))
	defer span.End()

	if c.store != nil {
		data, err := c.store.Get(ctx, url)
		switch {
		case err == nil:
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return json.Unmarshal(data, target)
		case !errors.Is(err, cache.ErrCacheMiss):
			c.log.Warn("cache read failed", log.String("url", url), log.ErrorField(err))
		}
	}

	data, err := c.fetch(ctx, url)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if data == nil {
		return json.Unmarshal([]byte("[]"), target)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("openf1: decode %s: %w", url, err)
	}
	if c.store != nil {
		if err := c.store.Put(ctx, url, data); err != nil {
			c.log.Warn("cache write failed", log.String("url", url), log.ErrorField(err))
		}
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	op := func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, nil
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return io.ReadAll(resp.Body)
		}
		herr := &HTTPError{StatusCode: resp.StatusCode, URL: url}
		if !herr.Retryable() {
			return nil, backoff.Permanent(herr)
		}
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			return nil, errors.Join(herr, backoff.RetryAfter(secs))
		}
		return nil, herr
	}
	start := time.Now()
	data, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithMaxElapsedTime(c.maxElapsed),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.log.Debug("request failed, retrying",
				log.String("url", url), log.Duration("next", next), log.ErrorField(err))
		}))
	if err != nil {
		return nil, err
	}
	c.log.Debug("fetched",
		log.String("url", url),
		log.Int("size", len(data)),
		log.Duration("duration", time.Since(start)))
	return data, nil
}

func (c *Client) Meetings(ctx context.Context, year int) ([]Meeting, error) {
	var ret []Meeting
	err := c.get(ctx, "meetings", query{eq("year", year)}, &ret)
	return ret, err
}

func (c *Client) Meeting(ctx context.Context, meetingKey int) ([]Meeting, error) {
	var ret []Meeting
	err := c.get(ctx, "meetings", query{eq("meeting_key", meetingKey)}, &ret)
	return ret, err
}

func (c *Client) Sessions(ctx context.Context, meetingKey int) ([]Session, error) {
	var ret []Session
	err := c.get(ctx, "sessions", query{eq("meeting_key", meetingKey)}, &ret)
	return ret, err
}

func (c *Client) Session(ctx context.Context, sessionKey int) ([]Session, error) {
	var ret []Session
	err := c.get(ctx, "sessions", query{eq("session_key", sessionKey)}, &ret)
	return ret, err
}

func (c *Client) Drivers(ctx context.Context, sessionKey int) ([]Driver, error) {
	var ret []Driver
	err := c.get(ctx, "drivers", query{eq("session_key", sessionKey)}, &ret)
	return ret, err
}

func (c *Client) Laps(ctx context.Context, sessionKey int) ([]Lap, error) {
	var ret []Lap
	err := c.get(ctx, "laps", query{eq("session_key", sessionKey)}, &ret)
	return ret, err
}

func (c *Client) Pits(ctx context.Context, sessionKey int) ([]Pit, error) {
	var ret []Pit
	err := c.get(ctx, "pit", query{eq("session_key", sessionKey)}, &ret)
	return ret, err
}

func (c *Client) RaceControl(ctx context.Context, sessionKey int) ([]RaceControl, error) {
	var ret []RaceControl
	err := c.get(ctx, "race_control", query{eq("session_key", sessionKey)}, &ret)
	return ret, err
}

// CarData returns the car samples of a driver within (from, to)
//
//nolint:whitespace // editor/linter issue
func (c *Client) CarData(
	ctx context.Context, sessionKey, driverNumber int, from, to time.Time,
) ([]CarData, error) {
	var ret []CarData
	err := c.get(ctx, "car_data", query{
		eq("session_key", sessionKey),
		eq("driver_number", driverNumber),
		gt("date", from),
		lt("date", to),
	}, &ret)
	return ret, err
}

// Location returns the position samples of a driver within (from, to)
//
//nolint:whitespace // editor/linter issue
func (c *Client) Location(
	ctx context.Context, sessionKey, driverNumber int, from, to time.Time,
) ([]Location, error) {
	var ret []Location
	err := c.get(ctx, "location", query{
		eq("session_key", sessionKey),
		eq("driver_number", driverNumber),
		gt("date", from),
		lt("date", to),
	}, &ret)
	return ret, err
}
