// Package geocode resolves free-text places and maps links to coordinates
// through a Nominatim-compatible search endpoint.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/pkordes/tripboard/internal/domain"
	"github.com/pkordes/tripboard/internal/geo"
)

// ErrUpstream is returned when the geocoding service fails or answers
// with something unreadable. Handlers should map this to HTTP 502.
var ErrUpstream = errors.New("geocoder unavailable")

const (
	userAgent       = "tripboard/1.0"
	defaultCacheTTL = 7 * 24 * time.Hour
	cachePrefix     = "geocode:"
)

// Result is one resolved place.
type Result struct {
	domain.Coordinates
	DisplayName string `json:"displayName,omitempty"`
}

// Client queries the geocoder. Outbound requests are throttled to the
// configured rate; results are cached in Redis when a cache is set.
// A Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	cache   redis.UniversalClient
	ttl     time.Duration
	log     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithCache caches results in rdb for ttl. A zero ttl means one week.
func WithCache(rdb redis.UniversalClient, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = rdb
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLogger sets the logger used for cache failures.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient returns a Client for the search endpoint at baseURL, allowing
// at most rps outbound requests per second.
func NewClient(baseURL string, rps float64, opts ...Option) *Client {
	if rps <= 0 {
		rps = 1
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		ttl:     defaultCacheTTL,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search returns the best match for query. Maps links carrying
// coordinates are resolved locally without a network call.
// Returns domain.ErrValidation for an empty query, domain.ErrNotFound when
// nothing matches and ErrUpstream when the service fails.
func (c *Client) Search(ctx context.Context, query string) (Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{}, fmt.Errorf("geocode.Client.Search: %w: query is required", domain.ErrValidation)
	}
	if coords, ok := geo.ParseMapsURL(query); ok {
		return Result{Coordinates: coords}, nil
	}

	key := cachePrefix + strings.ToLower(query)
	if res, ok := c.cached(ctx, key); ok {
		return res, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return Result{}, fmt.Errorf("geocode.Client.Search: %w", err)
	}
	res, err := c.lookup(ctx, query)
	if err != nil {
		return Result{}, fmt.Errorf("geocode.Client.Search: %w", err)
	}
	c.store(ctx, key, res)
	return res, nil
}

type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (c *Client) lookup(ctx context.Context, query string) (Result, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("limit", "1")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return Result{}, fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}
	if len(places) == 0 {
		return Result{}, fmt.Errorf("%w: no match for %q", domain.ErrNotFound, query)
	}
	lat, errLat := strconv.ParseFloat(places[0].Lat, 64)
	lng, errLng := strconv.ParseFloat(places[0].Lon, 64)
	if errLat != nil || errLng != nil {
		return Result{}, fmt.Errorf("%w: bad coordinates %q,%q", ErrUpstream, places[0].Lat, places[0].Lon)
	}
	return Result{Coordinates: domain.Coordinates{Lat: lat, Lng: lng}, DisplayName: places[0].DisplayName}, nil
}

func (c *Client) cached(ctx context.Context, key string) (Result, bool) {
	if c.cache == nil {
		return Result{}, false
	}
	raw, err := c.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WarnContext(ctx, "geocode cache read failed", "error", err)
		}
		return Result{}, false
	}
	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return Result{}, false
	}
	return res, true
}

func (c *Client) store(ctx context.Context, key string, res Result) {
	if c.cache == nil {
		return
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "geocode cache write failed", "error", err)
	}
}
