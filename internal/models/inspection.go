package models

import (
	"encoding/json"
	"time"
)

// Estate is an estate row whose boundary is kept in object storage.
type Estate struct {
	ID          int64
	Name        string
	BoundaryKey string
}

// EstateBoundary is an estate with its decoded boundary GeoJSON.
type EstateBoundary struct {
	ID      int64           `json:"id"`
	Name    string          `json:"name"`
	GeoJSON json.RawMessage `json:"geojson"`
}

// InspectionCoordinate is one tracked point of an inspection walk.
type InspectionCoordinate struct {
	Date      *time.Time `json:"-"`
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Accuracy  float64    `json:"accuracy"`
	Speed     float64    `json:"speed"`
	State     string     `json:"state"`
}

// InspectionIssue is an issue reported during an inspection.
type InspectionIssue struct {
	ID             int64      `json:"id"`
	Date           *time.Time `json:"-"`
	Latitude       float64    `json:"latitude"`
	Longitude      float64    `json:"longitude"`
	Subject        string     `json:"subject"`
	DetailLocation string     `json:"detail_location"`
	Block          *Relation  `json:"block_id"`
	Stage          *Relation  `json:"states_id"`
	ImageCount     int        `json:"image_count"`
}

// Inspection is one inspection walk as stored.
type Inspection struct {
	ID                     int64
	Name                   string
	EmployeeID             *int64
	EmployeeName           string
	Start                  *time.Time
	End                    *time.Time
	Step                   string
	StartBatteryPercentage float64
	EndBatteryPercentage   float64
	Coordinates            []InspectionCoordinate
	Issues                 []InspectionIssue
}
