package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"maps-api/internal/metrics"

	"github.com/rs/zerolog/log"
)

const mapboxProvider = "mapbox"

// checkRoute is a short route used to check a token against the directions API.
const checkRoute = "-73.989,40.733;-74,40.733"

// MapBoxClient wraps the MapBox geocoding and directions APIs.
type MapBoxClient struct {
	token      string
	baseURL    string
	referer    string
	httpClient *http.Client
}

// NewMapBoxClient creates a MapBox client.
// Returns nil when the token is empty so callers fall back to the free provider.
func NewMapBoxClient(token, baseURL, referer string, timeout time.Duration) *MapBoxClient {
	if token == "" {
		return nil
	}
	return &MapBoxClient{
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
		referer: referer,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type mapboxGeocodeResponse struct {
	Features []struct {
		PlaceName string  `json:"place_name"`
		Relevance float64 `json:"relevance"`
		Geometry  struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

type mapboxErrorBody struct {
	Message string `json:"message"`
}

// Geocode converts an address into candidate coordinates.
func (c *MapBoxClient) Geocode(ctx context.Context, address string) ([]Result, error) {
	params := url.Values{}
	params.Set("access_token", c.token)
	params.Set("autocomplete", "true")
	u := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json?%s", c.baseURL, url.PathEscape(address), params.Encode())

	var body mapboxGeocodeResponse
	if err := c.get(ctx, u, "geocode", &body); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(body.Features))
	for _, f := range body.Features {
		if len(f.Geometry.Coordinates) < 2 {
			continue
		}
		results = append(results, Result{
			Longitude:   f.Geometry.Coordinates[0],
			Latitude:    f.Geometry.Coordinates[1],
			Importance:  f.Relevance,
			DisplayName: f.PlaceName,
		})
	}
	log.Debug().Str("provider", mapboxProvider).Str("address", address).Int("results", len(results)).Msg("geocoded")
	return results, nil
}

// Directions requests a driving route through points in order.
func (c *MapBoxClient) Directions(ctx context.Context, points []Point) (*Directions, error) {
	coords := make([]string, len(points))
	for i, p := range points {
		coords[i] = strconv.FormatFloat(p.Longitude, 'f', -1, 64) + "," + strconv.FormatFloat(p.Latitude, 'f', -1, 64)
	}
	params := url.Values{}
	params.Set("access_token", c.token)
	params.Set("steps", "true")
	params.Set("geometries", "geojson")
	u := fmt.Sprintf("%s/directions/v5/mapbox/driving/%s?%s",
		c.baseURL, url.PathEscape(strings.Join(coords, ";")), params.Encode())

	var body Directions
	if err := c.get(ctx, u, "directions", &body); err != nil {
		metrics.RouteRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.RouteRequestsTotal.WithLabelValues("ok").Inc()
	return &body, nil
}

func (c *MapBoxClient) get(ctx context.Context, u, op string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("geocoding: creating request: %w", err)
	}
	if c.referer != "" {
		req.Header.Set("Referer", c.referer)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.GeocodeDurationMs.WithLabelValues(mapboxProvider).Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.GeocodeRequestsTotal.WithLabelValues(mapboxProvider, "error").Inc()
		return fmt.Errorf("geocoding: mapbox %s request: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.GeocodeRequestsTotal.WithLabelValues(mapboxProvider, strconv.Itoa(resp.StatusCode)).Inc()
		var eb mapboxErrorBody
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		_ = json.Unmarshal(b, &eb)
		return &APIError{Provider: mapboxProvider, Status: resp.StatusCode, Message: eb.Message}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.GeocodeRequestsTotal.WithLabelValues(mapboxProvider, "error").Inc()
		return fmt.Errorf("geocoding: decoding mapbox %s response: %w", op, err)
	}
	metrics.GeocodeRequestsTotal.WithLabelValues(mapboxProvider, "ok").Inc()
	return nil
}

// TokenCheck is the outcome of validating a MapBox token.
type TokenCheck struct {
	Valid   bool   `json:"valid"`
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
}

// ValidateToken checks token against the directions API with token. Transport failures count as HTTP 500.
func ValidateToken(ctx context.Context, httpClient *http.Client, baseURL, referer, token string) TokenCheck {
	params := url.Values{}
	params.Set("access_token", token)
	params.Set("steps", "true")
	params.Set("geometries", "geojson")
	u := fmt.Sprintf("%s/directions/v5/mapbox/driving/%s?%s",
		strings.TrimRight(baseURL, "/"), url.PathEscape(checkRoute), params.Encode())

	status := http.StatusInternalServerError
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u, nil)
	if err == nil {
		if referer != "" {
			req.Header.Set("Referer", referer)
		}
		if resp, err := httpClient.Do(req); err == nil {
			resp.Body.Close()
			status = resp.StatusCode
		}
	}
	return TokenCheck{Valid: status == http.StatusOK, Status: status}
}

// TokenValidator checks MapBox tokens against one API endpoint.
type TokenValidator struct {
	HTTPClient *http.Client
	BaseURL    string
	Referer    string
}

// Validate checks token, see ValidateToken.
func (v TokenValidator) Validate(ctx context.Context, token string) TokenCheck {
	return ValidateToken(ctx, v.HTTPClient, v.BaseURL, v.Referer, token)
}
