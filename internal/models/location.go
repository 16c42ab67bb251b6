package models

// Location is a row of a location model: an address used for geocoding and its coordinates.
// A nil or zero coordinate is unset; host stores reset both axes to 0 when the address changes.
type Location struct {
	ID                 int64    `json:"id"`
	Address            string   `json:"contact_address_complete"`
	Latitude           *float64 `json:"location_latitude"`
	Longitude          *float64 `json:"location_longitude"`
	FetchingCoordinate bool     `json:"fetchingCoordinate"`
}

// HasCoordinates reports whether both axes are set.
func (l *Location) HasCoordinates() bool {
	return isSet(l.Latitude) && isSet(l.Longitude)
}

// Valid reports whether both axes are set and within -90..90 and -180..180.
func (l *Location) Valid() bool {
	if !l.HasCoordinates() {
		return false
	}
	lat, lng := *l.Latitude, *l.Longitude
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// NeedsGeocoding reports whether the location has an address but is missing a coordinate.
func (l *Location) NeedsGeocoding() bool {
	return l.Address != "" && !l.HasCoordinates()
}

// SetCoordinates sets both axes together.
func (l *Location) SetCoordinates(lat, lng float64) {
	l.Latitude = &lat
	l.Longitude = &lng
}

// ClearCoordinates unsets both axes together.
func (l *Location) ClearCoordinates() {
	l.Latitude = nil
	l.Longitude = nil
}

// Clone returns a deep copy of the location.
func (l *Location) Clone() *Location {
	c := *l
	if l.Latitude != nil {
		lat := *l.Latitude
		c.Latitude = &lat
	}
	if l.Longitude != nil {
		lng := *l.Longitude
		c.Longitude = &lng
	}
	return &c
}

func isSet(v *float64) bool {
	return v != nil && *v != 0
}

// CoordinateUpdate is one entry of a coordinate write-back batch.
type CoordinateUpdate struct {
	ID        int64   `json:"id"`
	Latitude  float64 `json:"location_latitude"`
	Longitude float64 `json:"location_longitude"`
}
