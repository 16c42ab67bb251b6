package models

import (
	"encoding/json"
	"fmt"
)

// FieldType is the host field type of a model field.
type FieldType string

const (
	FieldChar      FieldType = "char"
	FieldText      FieldType = "text"
	FieldInteger   FieldType = "integer"
	FieldFloat     FieldType = "float"
	FieldBoolean   FieldType = "boolean"
	FieldSelection FieldType = "selection"
	FieldDate      FieldType = "date"
	FieldDatetime  FieldType = "datetime"
	FieldMany2One  FieldType = "many2one"
	FieldOne2Many  FieldType = "one2many"
	FieldMany2Many FieldType = "many2many"
)

// Relational reports whether values of the type expand to {id, display_name}.
func (t FieldType) Relational() bool {
	return t == FieldMany2One || t == FieldOne2Many || t == FieldMany2Many
}

// Multi reports whether a value of the type holds several relations.
func (t FieldType) Multi() bool {
	return t == FieldOne2Many || t == FieldMany2Many
}

// FieldDef describes one field of a model as the map view sees it.
type FieldDef struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Relation string    `json:"relation,omitempty"`
}

// Condition is one domain term, encoded as [field, operator, value].
type Condition struct {
	Field    string
	Operator string
	Value    any
}

func (c Condition) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{c.Field, c.Operator, c.Value})
}

func (c *Condition) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("domain term must have 3 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &c.Field); err != nil {
		return fmt.Errorf("domain term field: %w", err)
	}
	if err := json.Unmarshal(raw[1], &c.Operator); err != nil {
		return fmt.Errorf("domain term operator: %w", err)
	}
	return json.Unmarshal(raw[2], &c.Value)
}

// Order is the default ordering of a map view.
type Order struct {
	Name string `json:"name"`
	Asc  bool   `json:"asc"`
}

// Query is the metadata a map load runs with. Load params are merged into the stored query.
type Query struct {
	ResModel      string              `json:"resModel"`
	Domain        []Condition         `json:"domain"`
	FieldNames    []string            `json:"fieldNames"`
	Fields        map[string]FieldDef `json:"fields,omitempty"`
	GroupBy       []string            `json:"groupBy"`
	LocationField string              `json:"locationField"`
	Routing       *bool               `json:"routing,omitempty"`
	Limit         *int                `json:"limit,omitempty"`
	Offset        *int                `json:"offset,omitempty"`
	DefaultOrder  *Order              `json:"defaultOrder,omitempty"`
	Context       map[string]any      `json:"context,omitempty"`
}

// Merge returns a copy of q overlaid with the fields set in params.
func (q Query) Merge(params Query) Query {
	out := q
	if params.ResModel != "" {
		out.ResModel = params.ResModel
	}
	if params.Domain != nil {
		out.Domain = params.Domain
	}
	if params.FieldNames != nil {
		out.FieldNames = params.FieldNames
	}
	if params.Fields != nil {
		out.Fields = params.Fields
	}
	if params.GroupBy != nil {
		out.GroupBy = params.GroupBy
	}
	if params.LocationField != "" {
		out.LocationField = params.LocationField
	}
	if params.Routing != nil {
		out.Routing = params.Routing
	}
	if params.Limit != nil {
		out.Limit = params.Limit
	}
	if params.Offset != nil {
		out.Offset = params.Offset
	}
	if params.DefaultOrder != nil {
		out.DefaultOrder = params.DefaultOrder
	}
	if params.Context != nil {
		out.Context = params.Context
	}
	return out
}

// PageLimit returns the record limit, 0 meaning no limit.
func (q Query) PageLimit() int {
	if q.Limit == nil {
		return 0
	}
	return *q.Limit
}

// PageOffset returns the record offset.
func (q Query) PageOffset() int {
	if q.Offset == nil {
		return 0
	}
	return *q.Offset
}

// RoutingEnabled reports whether the view asked for a route between located records.
func (q Query) RoutingEnabled() bool {
	return q.Routing != nil && *q.Routing
}

// GroupByKey returns the first group-by key, e.g. "date_start:month", or "".
func (q Query) GroupByKey() string {
	if len(q.GroupBy) == 0 {
		return ""
	}
	return q.GroupBy[0]
}

// Lang returns the language code from the query context.
func (q Query) Lang() string {
	if s, ok := q.Context["lang"].(string); ok {
		return s
	}
	return ""
}
