// Package nws fetches active alerts and forecast zone geometry from the
// National Weather Service API.
package nws

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/hazard-target-service/internal/domain"
	"github.com/paulmach/orb"
)

// maxPages bounds how many pagination links FetchActive follows.
const maxPages = 10

// Client implements domain.FeatureSource and zone.Fetcher against api.weather.gov.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	logger     *slog.Logger
}

// NewClient creates an NWS client. NWS rejects requests without a
// User-Agent identifying the caller.
func NewClient(baseURL, userAgent string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		logger:    logger,
	}
}

// FetchActive returns active alerts for the given event names, in feed order.
// An empty list returns every active alert.
func (c *Client) FetchActive(ctx context.Context, events []string) ([]*domain.HazardFeature, error) {
	u := c.baseURL + "/alerts/active"
	if len(events) > 0 {
		u += "?" + url.Values{"event": {strings.Join(events, ",")}}.Encode()
	}

	var all []*domain.HazardFeature
	for page := 0; u != "" && page < maxPages; page++ {
		body, err := c.get(ctx, u, "alerts")
		if err != nil {
			return nil, err
		}

		features, err := domain.ParseFeatureCollection(body)
		if err != nil {
			return nil, fmt.Errorf("decode alerts: %w", err)
		}
		all = append(all, features...)

		u = nextPage(body)
	}

	c.logger.Debug("fetched active alerts", "events", len(events), "features", len(all))
	return all, nil
}

// FetchZone returns the geometry of a forecast zone. ref may be a full zone
// URL as found in an alert's affectedZones, or a bare zone id such as CAZ041.
func (c *Client) FetchZone(ctx context.Context, ref string) (orb.Geometry, error) {
	body, err := c.get(ctx, c.zoneURL(ref), "zone")
	if err != nil {
		return nil, err
	}
	return domain.ParseZoneGeometry(body)
}

func (c *Client) zoneURL(ref string) string {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return fmt.Sprintf("%s/zones/forecast/%s", c.baseURL, url.PathEscape(ref))
}

func (c *Client) get(ctx context.Context, fullURL, resource string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", resource, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", resource, err)
	}
	if resp.StatusCode != http.StatusOK {
		if len(body) > 200 {
			body = body[:200]
		}
		return nil, fmt.Errorf("nws API error: status %d: %s", resp.StatusCode, body)
	}
	return body, nil
}

type pagination struct {
	Pagination *struct {
		Next string `json:"next"`
	} `json:"pagination"`
}

func nextPage(body []byte) string {
	var p pagination
	if err := json.Unmarshal(body, &p); err != nil || p.Pagination == nil {
		return ""
	}
	return p.Pagination.Next
}
