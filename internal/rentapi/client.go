// Package rentapi is a thin HTTP client for the rental backend's
// availability and catalog endpoints.
package rentapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// HourAvailability is one per-hour entry of the backend's available-times
// response. The backend reports either a numeric start hour or a range
// label like "14:00 - 15:00"; StartHour resolves whichever is present.
type HourAvailability struct {
	Hour      *int   `json:"hour,omitempty"`
	Label     string `json:"label,omitempty"`
	Available bool   `json:"available"`
}

// StartHour returns the displayed start hour of the entry.
func (h HourAvailability) StartHour() (int, bool) {
	if h.Hour != nil {
		if *h.Hour < 0 || *h.Hour > 23 {
			return 0, false
		}
		return *h.Hour, true
	}
	label := strings.TrimSpace(h.Label)
	if label == "" {
		return 0, false
	}
	// Range labels look like "14:00 - 15:00"; the leading hour is enough.
	if idx := strings.IndexAny(label, ":.-"); idx > 0 {
		label = label[:idx]
	}
	hour, err := strconv.Atoi(strings.TrimSpace(label))
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	return hour, true
}

// Unit is a rental unit (console or room) from the catalog endpoint.
type Unit struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Kind         string `json:"kind"` // "console" or "room"
	Active       bool   `json:"active"`
	DisplayOrder int64  `json:"display_order"`
}

// Client calls the rental backend over HTTP with optional Redis response
// caching and client-side rate limiting.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	redis    *redis.Client
	cacheTTL time.Duration
	limiter  *rate.Limiter
}

// NewClient constructs a client for baseURL authenticated with apiKey.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// UseRedisCache configures read-through caching for GET endpoints.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// UseRateLimit caps outgoing requests per second with the given burst.
func (c *Client) UseRateLimit(perSecond float64, burst int) {
	if perSecond <= 0 || burst <= 0 {
		return
	}
	c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
}

// GetAvailableTimes fetches the per-hour availability for a unit on a date.
func (c *Client) GetAvailableTimes(ctx context.Context, unitID int64, date time.Time) ([]HourAvailability, error) {
	dateStr := date.Format("2006-01-02")
	endpoint := fmt.Sprintf("%s/api/v1/units/%d/available-times?date=%s", c.baseURL, unitID, url.QueryEscape(dateStr))
	cacheKey := fmt.Sprintf("available-times:%d:%s", unitID, dateStr)

	var wrap struct {
		AvailableTimes []HourAvailability `json:"available_times"`
	}
	if c.readCache(ctx, cacheKey, &wrap) {
		return wrap.AvailableTimes, nil
	}

	if err := c.doGet(ctx, endpoint, &wrap); err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKey, wrap)
	return wrap.AvailableTimes, nil
}

// ListUnits returns the full unit catalog.
func (c *Client) ListUnits(ctx context.Context) ([]Unit, error) {
	endpoint := fmt.Sprintf("%s/api/v1/units", c.baseURL)
	cacheKey := "units"

	var wrap struct {
		Units []Unit `json:"units"`
	}
	if c.readCache(ctx, cacheKey, &wrap) {
		return wrap.Units, nil
	}

	if err := c.doGet(ctx, endpoint, &wrap); err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKey, wrap)
	return wrap.Units, nil
}

// HealthCheck verifies the backend is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(val), out) == nil
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

func (c *Client) doGet(ctx context.Context, endpoint string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
