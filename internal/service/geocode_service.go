package service

import (
	"context"
	"fmt"

	"maps-api/internal/geocoding"

	"github.com/rs/zerolog/log"
)

// GeoCodeService resolves a single address through MapBox, falling back to OpenStreetMap
type GeoCodeService struct {
	paid geocoding.Geocoder
	free geocoding.Geocoder
}

// NewGeoCodeService creates a new geo code service. paid may be nil.
func NewGeoCodeService(paid, free geocoding.Geocoder) *GeoCodeService {
	return &GeoCodeService{paid: paid, free: free}
}

// Geocode returns the candidates for address, best first
func (s *GeoCodeService) Geocode(ctx context.Context, address string) ([]geocoding.Result, error) {
	if address == "" {
		return nil, fmt.Errorf("service: address cannot be empty")
	}

	if s.paid != nil {
		results, err := s.paid.Geocode(ctx, address)
		if err == nil {
			return results, nil
		}
		log.Warn().Err(err).Msg("mapbox geocode failed, trying openstreetmap")
	}

	results, err := s.free.Geocode(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("service: failed to geocode address: %w", err)
	}
	return results, nil
}
