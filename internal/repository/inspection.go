package repository

import (
	"context"
	"fmt"

	"maps-api/internal/models"
)

// EstatesByCompany lists the estates of a company together with their boundary object keys
func (r *Repository) EstatesByCompany(ctx context.Context, companyID int64) ([]models.Estate, error) {
	sql := `
		SELECT id, name, COALESCE(boundary_key, '')
		FROM estate_estate
		WHERE company_id = $1 AND location_type = 'estate'
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, sql, companyID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to execute estate query: %w", err)
	}
	defer rows.Close()

	estates := []models.Estate{}
	for rows.Next() {
		var e models.Estate
		if err := rows.Scan(&e.ID, &e.Name, &e.BoundaryKey); err != nil {
			return nil, fmt.Errorf("repository: failed to scan estate: %w", err)
		}
		estates = append(estates, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating rows: %w", err)
	}
	return estates, nil
}

// Inspections loads inspections with their tracked coordinates and issues.
// A nil companyID loads the inspections of every company.
func (r *Repository) Inspections(ctx context.Context, companyID *int64) ([]*models.Inspection, error) {
	sql := `
		SELECT i.id, i.name, i.employee_id, COALESCE(e.name, ''), i.inspection_start, i.inspection_end,
			COALESCE(i.step, ''), COALESCE(i.start_battery_percentage, 0), COALESCE(i.end_battery_percentage, 0)
		FROM farm_inspection i
		LEFT JOIN hr_employee e ON e.id = i.employee_id
		WHERE $1::int8 IS NULL OR i.company_id = $1
		ORDER BY i.id
	`
	rows, err := r.db.Query(ctx, sql, companyID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to execute inspection query: %w", err)
	}
	defer rows.Close()

	inspections := []*models.Inspection{}
	byID := make(map[int64]*models.Inspection)
	for rows.Next() {
		var in models.Inspection
		err := rows.Scan(&in.ID, &in.Name, &in.EmployeeID, &in.EmployeeName, &in.Start, &in.End,
			&in.Step, &in.StartBatteryPercentage, &in.EndBatteryPercentage)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan inspection: %w", err)
		}
		in.Coordinates = []models.InspectionCoordinate{}
		in.Issues = []models.InspectionIssue{}
		inspections = append(inspections, &in)
		byID[in.ID] = &in
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating rows: %w", err)
	}
	if len(inspections) == 0 {
		return inspections, nil
	}

	ids := make([]int64, len(inspections))
	for i, in := range inspections {
		ids[i] = in.ID
	}
	if err := r.loadInspectionCoordinates(ctx, ids, byID); err != nil {
		return nil, err
	}
	if err := r.loadInspectionIssues(ctx, ids, byID); err != nil {
		return nil, err
	}
	return inspections, nil
}

func (r *Repository) loadInspectionCoordinates(ctx context.Context, ids []int64, byID map[int64]*models.Inspection) error {
	sql := `
		SELECT inspection_id, date, latitude, longitude, COALESCE(accuracy, 0), COALESCE(speed, 0), COALESCE(state, '')
		FROM farm_coordinate
		WHERE inspection_id = ANY($1)
		ORDER BY inspection_id, sequence, id
	`
	rows, err := r.db.Query(ctx, sql, ids)
	if err != nil {
		return fmt.Errorf("repository: failed to execute coordinate query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var owner int64
		var c models.InspectionCoordinate
		if err := rows.Scan(&owner, &c.Date, &c.Latitude, &c.Longitude, &c.Accuracy, &c.Speed, &c.State); err != nil {
			return fmt.Errorf("repository: failed to scan coordinate: %w", err)
		}
		if in, ok := byID[owner]; ok {
			in.Coordinates = append(in.Coordinates, c)
		}
	}
	return rows.Err()
}

func (r *Repository) loadInspectionIssues(ctx context.Context, ids []int64, byID map[int64]*models.Inspection) error {
	sql := `
		SELECT i.inspection_id, i.id, i.date, COALESCE(i.latitude, 0), COALESCE(i.longitude, 0),
			COALESCE(i.subject, ''), COALESCE(i.detail_location, ''),
			b.id, COALESCE(b.name, ''), s.id, COALESCE(s.name, ''),
			(SELECT count(*) FROM farm_issue_image im WHERE im.issue_id = i.id)
		FROM farm_issue i
		LEFT JOIN estate_block b ON b.id = i.block_id
		LEFT JOIN farm_issue_stage s ON s.id = i.states_id
		WHERE i.inspection_id = ANY($1)
		ORDER BY i.inspection_id, i.id
	`
	rows, err := r.db.Query(ctx, sql, ids)
	if err != nil {
		return fmt.Errorf("repository: failed to execute issue query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			owner             int64
			is                models.InspectionIssue
			blockID, stageID  *int64
			blockName, stageN string
		)
		err := rows.Scan(&owner, &is.ID, &is.Date, &is.Latitude, &is.Longitude, &is.Subject, &is.DetailLocation,
			&blockID, &blockName, &stageID, &stageN, &is.ImageCount)
		if err != nil {
			return fmt.Errorf("repository: failed to scan issue: %w", err)
		}
		if blockID != nil {
			is.Block = &models.Relation{ID: *blockID, DisplayName: blockName}
		}
		if stageID != nil {
			is.Stage = &models.Relation{ID: *stageID, DisplayName: stageN}
		}
		if in, ok := byID[owner]; ok {
			in.Issues = append(in.Issues, is)
		}
	}
	return rows.Err()
}
