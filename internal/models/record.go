package models

import (
	"encoding/json"
	"maps"
)

// Relation is a relational field value expanded to its id and display label.
type Relation struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
}

// Record is a row fetched for the map. Fields holds the requested display fields keyed by name;
// many2one values are Relation, one2many and many2many values are []Relation.
type Record struct {
	ID       int64
	Fields   map[string]any
	Location *Location
}

// LocationID returns the id of the location referenced through field.
// The identity field "id" makes the record its own location.
func (r *Record) LocationID(field string) (int64, bool) {
	if field == "id" {
		return r.ID, true
	}
	switch v := r.Fields[field].(type) {
	case Relation:
		return v.ID, true
	case *Relation:
		if v != nil {
			return v.ID, true
		}
	}
	return 0, false
}

// Clone copies the record. Field values are shared; locations are replaced by the caller.
func (r *Record) Clone() *Record {
	return &Record{ID: r.ID, Fields: maps.Clone(r.Fields), Location: r.Location}
}

// MarshalJSON flattens the record the way map clients read it: id, fields, then location.
func (r *Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+2)
	for k, v := range r.Fields {
		out[k] = v
	}
	out["id"] = r.ID
	if r.Location != nil {
		out["location"] = r.Location
	}
	return json.Marshal(out)
}

// Group is a bucket of records sharing a value of the group-by field.
type Group struct {
	Key     string    `json:"key"`
	Name    string    `json:"name"`
	Records []*Record `json:"records"`
}
