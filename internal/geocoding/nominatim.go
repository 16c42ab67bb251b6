package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"maps-api/internal/metrics"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const nominatimProvider = "nominatim"

// NominatimClient queries the OpenStreetMap Nominatim search API.
// Requests from every session share one limiter so the process stays within the usage policy.
type NominatimClient struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewNominatimClient creates a client allowed one request per second.
func NewNominatimClient(baseURL, userAgent string, timeout time.Duration) *NominatimClient {
	return &NominatimClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

type nominatimPlace struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	Importance  float64 `json:"importance"`
	DisplayName string  `json:"display_name"`
}

// Geocode searches an address and returns the candidates ranked by relevance.
func (c *NominatimClient) Geocode(ctx context.Context, address string) ([]Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("geocoding: nominatim limiter: %w", err)
	}

	params := url.Values{}
	params.Set("q", strings.ReplaceAll(address, "/", " "))
	params.Set("format", "jsonv2")
	u := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("geocoding: creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.GeocodeDurationMs.WithLabelValues(nominatimProvider).Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.GeocodeRequestsTotal.WithLabelValues(nominatimProvider, "error").Inc()
		return nil, fmt.Errorf("geocoding: nominatim request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden:
		metrics.GeocodeRequestsTotal.WithLabelValues(nominatimProvider, "quota").Inc()
		return nil, fmt.Errorf("%w: nominatim HTTP %d", ErrQuotaExceeded, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		metrics.GeocodeRequestsTotal.WithLabelValues(nominatimProvider, "error").Inc()
		return nil, &APIError{Provider: nominatimProvider, Status: resp.StatusCode}
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		metrics.GeocodeRequestsTotal.WithLabelValues(nominatimProvider, "error").Inc()
		return nil, fmt.Errorf("geocoding: decoding nominatim response: %w", err)
	}

	results := make([]Result, 0, len(places))
	for _, p := range places {
		lat, errLat := strconv.ParseFloat(p.Lat, 64)
		lon, errLon := strconv.ParseFloat(p.Lon, 64)
		if errLat != nil || errLon != nil {
			continue
		}
		results = append(results, Result{Latitude: lat, Longitude: lon, Importance: p.Importance, DisplayName: p.DisplayName})
	}

	metrics.GeocodeRequestsTotal.WithLabelValues(nominatimProvider, "ok").Inc()
	log.Debug().Str("provider", nominatimProvider).Str("address", address).Int("results", len(results)).Msg("geocoded")
	return results, nil
}
