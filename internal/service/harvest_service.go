package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"maps-api/internal/models"
	"maps-api/internal/repository"
)

// harvestWeeks is how far back the weight chart reaches.
const harvestWeeks = 24

// ErrLocationNotFound is returned when the location has no row with an address.
var ErrLocationNotFound = errors.New("location not found")

// HarvestRepository reads locations and their harvest totals
type HarvestRepository interface {
	FetchLocations(ctx context.Context, model string, ids []int64) ([]*models.Location, error)
	HarvestByMonth(ctx context.Context, model string, id int64, from, to time.Time) ([]models.HarvestMonth, error)
}

// HarvestService builds the weight charts of blocks and estates
type HarvestService struct {
	repo HarvestRepository
	tz   *time.Location
	now  func() time.Time
}

// NewHarvestService creates a harvest service reporting days in tz
func NewHarvestService(repo HarvestRepository, tz *time.Location) *HarvestService {
	if tz == nil {
		tz = time.UTC
	}
	return &HarvestService{repo: repo, tz: tz, now: time.Now}
}

// Chart returns the monthly harvest of the last harvestWeeks weeks and today's harvest.
// Locations without coordinates are not drawn on the map and get an empty chart.
func (s *HarvestService) Chart(ctx context.Context, model string, id int64) (*models.HarvestChart, error) {
	if !repository.RecordsHarvests(model) {
		return nil, fmt.Errorf("service: %s: %w", model, repository.ErrNoHarvest)
	}
	locs, err := s.repo.FetchLocations(ctx, model, []int64{id})
	if err != nil {
		return nil, err
	}
	if len(locs) == 0 {
		return nil, ErrLocationNotFound
	}

	chart := &models.HarvestChart{Monthly: []models.HarvestMonth{}}
	if !nonZero(locs[0].Latitude) && !nonZero(locs[0].Longitude) {
		return chart, nil
	}

	today := s.now().In(s.tz)
	monthly, err := s.repo.HarvestByMonth(ctx, model, id, today.AddDate(0, 0, -7*harvestWeeks), today)
	if err != nil {
		return nil, err
	}
	if len(monthly) == 0 {
		return chart, nil
	}
	chart.Monthly = monthly

	daily, err := s.repo.HarvestByMonth(ctx, model, id, today, today)
	if err != nil {
		return nil, err
	}
	if len(daily) > 0 {
		chart.Today = &daily[0]
	}
	return chart, nil
}

func nonZero(v *float64) bool {
	return v != nil && *v != 0
}
