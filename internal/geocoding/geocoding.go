package geocoding

import (
	"context"
	"errors"
	"fmt"

	"maps-api/internal/models"
)

// ErrQuotaExceeded is returned when a provider refuses further requests from this client.
var ErrQuotaExceeded = errors.New("geocoding: request limit exceeded")

// APIError is a non-success HTTP answer from a provider.
type APIError struct {
	Provider string
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("geocoding: %s returned HTTP %d: %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("geocoding: %s returned HTTP %d", e.Provider, e.Status)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Result is one geocoding candidate; providers return them best first.
type Result struct {
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lon"`
	Importance  float64 `json:"importance"`
	DisplayName string  `json:"display_name"`
}

// Geocoder resolves a free-text address.
type Geocoder interface {
	Geocode(ctx context.Context, address string) ([]Result, error)
}

// Point is a routing waypoint.
type Point struct {
	Latitude  float64
	Longitude float64
}

// Directions is the answer of a directions request. Message is set instead of Routes on a routing error.
type Directions struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Routes  []models.Route `json:"routes"`
}

// Router computes a driving route through ordered waypoints.
type Router interface {
	Directions(ctx context.Context, points []Point) (*Directions, error)
}
