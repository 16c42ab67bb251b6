package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"maps-api/internal/models"

	"github.com/golang/geo/s2"
	"github.com/rs/zerolog/log"
)

// earthRadiusMeters is the mean Earth radius.
const earthRadiusMeters = 6371008.8

const reportDateLayout = "02-01-2006 15:04:05"

// InspectionRepository reads estates and inspections
type InspectionRepository interface {
	EstatesByCompany(ctx context.Context, companyID int64) ([]models.Estate, error)
	Inspections(ctx context.Context, companyID *int64) ([]*models.Inspection, error)
}

// BoundaryReader returns the decoded boundary stored under a key
type BoundaryReader interface {
	Boundary(ctx context.Context, key string) (json.RawMessage, error)
}

// ReportPoint is the start or end marker of an inspection route.
type ReportPoint struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	City string  `json:"city"`
}

// ReportCoordinate is a tracked point with its date in the report timezone.
type ReportCoordinate struct {
	Date      *string `json:"date"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Speed     float64 `json:"speed"`
	State     string  `json:"state"`
}

// ReportIssue is an issue with its date in the report timezone.
type ReportIssue struct {
	models.InspectionIssue
	Date *string `json:"date"`
}

// ReportInspection is one inspection walk drawn as a route.
type ReportInspection struct {
	Name                   string             `json:"name"`
	InspectionStart        *string            `json:"inspection_start"`
	InspectionEnd          *string            `json:"inspection_end"`
	Step                   string             `json:"step"`
	StartBatteryPercentage float64            `json:"start_battery_percentage"`
	EndBatteryPercentage   float64            `json:"end_battery_percentage"`
	Start                  *ReportPoint       `json:"start"`
	End                    *ReportPoint       `json:"end"`
	Route                  [][2]float64       `json:"route"`
	Distance               float64            `json:"distance"`
	Coordinates            []ReportCoordinate `json:"coordinates"`
	Issues                 []ReportIssue      `json:"issues"`
}

// EmployeeInspections groups the inspections walked by one employee.
type EmployeeInspections struct {
	EmployeeID    *int64             `json:"employee_id"`
	EmployeeName  string             `json:"employee_name"`
	TotalDistance float64            `json:"total_distance"`
	Inspections   []ReportInspection `json:"inspections"`
}

// InspectionService builds the farm overview and reporting map data
type InspectionService struct {
	repo       InspectionRepository
	boundaries BoundaryReader
	tz         *time.Location
}

// NewInspectionService creates a new inspection service. boundaries may be nil when no object storage is configured.
func NewInspectionService(repo InspectionRepository, boundaries BoundaryReader, tz *time.Location) *InspectionService {
	if tz == nil {
		tz = time.UTC
	}
	return &InspectionService{repo: repo, boundaries: boundaries, tz: tz}
}

// EstateBoundaries returns the boundary GeoJSON of each estate of a company.
// Estates without a readable boundary are left out.
func (s *InspectionService) EstateBoundaries(ctx context.Context, companyID int64) ([]models.EstateBoundary, error) {
	estates, err := s.repo.EstatesByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list estates: %w", err)
	}

	out := []models.EstateBoundary{}
	if s.boundaries == nil {
		return out, nil
	}
	for _, e := range estates {
		if e.BoundaryKey == "" {
			continue
		}
		geojson, err := s.boundaries.Boundary(ctx, e.BoundaryKey)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("service: %w", ctxErr)
			}
			log.Debug().Err(err).Int64("estate_id", e.ID).Msg("skipping estate boundary")
			continue
		}
		out = append(out, models.EstateBoundary{ID: e.ID, Name: e.Name, GeoJSON: geojson})
	}
	return out, nil
}

// InspectionReport groups inspections by employee in first-seen order.
// query keeps only employees whose name contains it, ignoring case.
func (s *InspectionService) InspectionReport(ctx context.Context, companyID *int64, query string) ([]*EmployeeInspections, error) {
	inspections, err := s.repo.Inspections(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to load inspections: %w", err)
	}

	query = strings.ToLower(strings.TrimSpace(query))
	out := []*EmployeeInspections{}
	byEmployee := make(map[int64]*EmployeeInspections)
	var unknown *EmployeeInspections
	for _, in := range inspections {
		var emp *EmployeeInspections
		switch {
		case in.EmployeeID == nil:
			if unknown == nil {
				unknown = &EmployeeInspections{EmployeeName: "Unknown"}
				out = append(out, unknown)
			}
			emp = unknown
		default:
			emp = byEmployee[*in.EmployeeID]
			if emp == nil {
				name := in.EmployeeName
				if name == "" {
					name = "Unknown"
				}
				emp = &EmployeeInspections{EmployeeID: in.EmployeeID, EmployeeName: name}
				byEmployee[*in.EmployeeID] = emp
				out = append(out, emp)
			}
		}
		report := s.reportInspection(in)
		emp.Inspections = append(emp.Inspections, report)
		emp.TotalDistance += report.Distance
	}

	if query == "" {
		return out, nil
	}
	filtered := []*EmployeeInspections{}
	for _, emp := range out {
		if strings.Contains(strings.ToLower(emp.EmployeeName), query) {
			filtered = append(filtered, emp)
		}
	}
	return filtered, nil
}

func (s *InspectionService) reportInspection(in *models.Inspection) ReportInspection {
	r := ReportInspection{
		Name:                   in.Name,
		InspectionStart:        s.formatDate(in.Start),
		InspectionEnd:          s.formatDate(in.End),
		Step:                   in.Step,
		StartBatteryPercentage: in.StartBatteryPercentage,
		EndBatteryPercentage:   in.EndBatteryPercentage,
		Route:                  [][2]float64{},
		Coordinates:            make([]ReportCoordinate, 0, len(in.Coordinates)),
		Issues:                 make([]ReportIssue, 0, len(in.Issues)),
	}
	for _, c := range in.Coordinates {
		r.Coordinates = append(r.Coordinates, ReportCoordinate{
			Date:      s.formatDate(c.Date),
			Latitude:  c.Latitude,
			Longitude: c.Longitude,
			Accuracy:  c.Accuracy,
			Speed:     c.Speed,
			State:     c.State,
		})
		r.Route = append(r.Route, [2]float64{c.Latitude, c.Longitude})
	}
	for _, is := range in.Issues {
		r.Issues = append(r.Issues, ReportIssue{InspectionIssue: is, Date: s.formatDate(is.Date)})
	}
	if n := len(in.Coordinates); n > 0 {
		first, last := in.Coordinates[0], in.Coordinates[n-1]
		r.Start = &ReportPoint{Lat: first.Latitude, Lon: first.Longitude, City: "Start"}
		r.End = &ReportPoint{Lat: last.Latitude, Lon: last.Longitude, City: "End"}
		r.Distance = routeDistance(in.Coordinates)
	}
	return r
}

func (s *InspectionService) formatDate(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.In(s.tz).Format(reportDateLayout)
	return &v
}

// routeDistance sums the great-circle distance between consecutive points, in meters.
func routeDistance(coords []models.InspectionCoordinate) float64 {
	var total float64
	for i := 1; i < len(coords); i++ {
		a := s2.LatLngFromDegrees(coords[i-1].Latitude, coords[i-1].Longitude)
		b := s2.LatLngFromDegrees(coords[i].Latitude, coords[i].Longitude)
		total += a.Distance(b).Radians() * earthRadiusMeters
	}
	return total
}
