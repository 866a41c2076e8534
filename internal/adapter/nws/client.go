// Package nws is a client for the National Weather Service API
// (api.weather.gov): the active alert feed and zone geometries.
package nws

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/couchcryptid/storm-alert-polygons/internal/domain"
	"github.com/couchcryptid/storm-alert-polygons/internal/observability"
)

const (
	DefaultBaseURL = "https://api.weather.gov"
	acceptGeoJSON  = "application/geo+json"
)

// Options configures a Client.
type Options struct {
	BaseURL   string
	UserAgent string        // the NWS API rejects requests without one
	Timeout   time.Duration // per request, including retries
	RetryMax  int
	RateLimit float64 // requests per second; <= 0 disables pacing
}

// Client fetches active alerts and zone geometries. It implements
// domain.ZoneFetcher.
type Client struct {
	baseURL    string
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an NWS API client with retries and request pacing.
func NewClient(opts Options, metrics *observability.Metrics, logger *slog.Logger) *Client {
	rC := retryablehttp.NewClient()
	rC.Logger = nil
	rC.RetryMax = opts.RetryMax

	return &Client{
		baseURL:    opts.BaseURL,
		userAgent:  opts.UserAgent,
		timeout:    opts.Timeout,
		httpClient: rC.StandardClient(),
		limiter:    newLimiter(opts.RateLimit),
		metrics:    metrics,
		logger:     logger,
	}
}

func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

// FetchActiveAlerts returns every currently active alert.
func (c *Client) FetchActiveAlerts(ctx context.Context) ([]domain.Alert, error) {
	start := time.Now()
	var coll alertCollection
	err := c.getJSON(ctx, c.baseURL+"/alerts/active", &coll)
	c.metrics.AlertAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("fetch active alerts: %w", err)
	}

	alerts := make([]domain.Alert, 0, len(coll.Features))
	for _, f := range coll.Features {
		alerts = append(alerts, f.toDomain())
	}
	c.logger.Debug("fetched active alerts", "count", len(alerts))
	return alerts, nil
}

// FetchZone returns the geometry of one zone, e.g. ("forecast", "CAZ041").
func (c *Client) FetchZone(ctx context.Context, zoneType, zoneID string) (domain.ZoneGeometry, error) {
	u := fmt.Sprintf("%s/zones/%s/%s", c.baseURL, url.PathEscape(zoneType), url.PathEscape(zoneID))

	start := time.Now()
	var z zoneResponse
	err := c.getJSON(ctx, u, &z)
	c.metrics.ZoneAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ZoneRequests.WithLabelValues("error").Inc()
		return domain.ZoneGeometry{}, fmt.Errorf("zone %s/%s: %w", zoneType, zoneID, err)
	}
	c.metrics.ZoneRequests.WithLabelValues("success").Inc()

	if z.Geometry == nil {
		return domain.ZoneGeometry{}, nil
	}
	return *z.Geometry, nil
}

func (c *Client) getJSON(ctx context.Context, fullURL string, v any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", acceptGeoJSON)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("nws API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// NWS API response types.

type alertCollection struct {
	Features []alertFeature `json:"features"`
}

type alertFeature struct {
	ID         string          `json:"id"`
	Properties alertProperties `json:"properties"`
}

type alertProperties struct {
	ID      string `json:"id"`
	Event   string `json:"event"`
	Geocode struct {
		SAME []string `json:"SAME"`
		UGC  []string `json:"UGC"`
	} `json:"geocode"`
	AffectedZones []string `json:"affectedZones"`
}

func (f alertFeature) toDomain() domain.Alert {
	id := f.Properties.ID
	if id == "" {
		id = f.ID
	}
	return domain.Alert{
		ID:    id,
		Event: f.Properties.Event,
		Geocode: domain.Geocode{
			SAME: f.Properties.Geocode.SAME,
			UGC:  f.Properties.Geocode.UGC,
		},
		AffectedZones: f.Properties.AffectedZones,
	}
}

type zoneResponse struct {
	Geometry *domain.ZoneGeometry `json:"geometry"`
}
