package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeQuery(t *testing.T, s string) Query {
	t.Helper()
	var q Query
	require.NoError(t, json.Unmarshal([]byte(s), &q))
	return q
}

func TestQuery_Merge(t *testing.T) {
	stored := decodeQuery(t, `{"resModel":"estate.block","locationField":"id","limit":80,"offset":40,"groupBy":["estate_id"]}`)

	tests := []struct {
		name       string
		params     string
		wantLimit  int
		wantOffset int
		wantGroup  string
	}{
		{name: "absent keys keep stored values", params: `{}`, wantLimit: 80, wantOffset: 40, wantGroup: "estate_id"},
		{name: "explicit zero offset resets paging", params: `{"offset":0}`, wantLimit: 80, wantOffset: 0, wantGroup: "estate_id"},
		{name: "explicit zero limit removes the limit", params: `{"limit":0}`, wantLimit: 0, wantOffset: 40, wantGroup: "estate_id"},
		{name: "new page", params: `{"limit":20,"offset":60}`, wantLimit: 20, wantOffset: 60, wantGroup: "estate_id"},
		{name: "empty group by ungroups", params: `{"groupBy":[]}`, wantLimit: 80, wantOffset: 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stored.Merge(decodeQuery(t, tt.params))

			assert.Equal(t, tt.wantLimit, got.PageLimit())
			assert.Equal(t, tt.wantOffset, got.PageOffset())
			assert.Equal(t, tt.wantGroup, got.GroupByKey())
			assert.Equal(t, "estate.block", got.ResModel)
		})
	}
	assert.Equal(t, 40, stored.PageOffset(), "merge must not change the stored query")
}

func TestLocation_Valid(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name string
		loc  Location
		want bool
	}{
		{name: "in range", loc: Location{Latitude: f(-0.5), Longitude: f(101.4)}, want: true},
		{name: "bounds", loc: Location{Latitude: f(90), Longitude: f(-180)}, want: true},
		{name: "latitude out of range", loc: Location{Latitude: f(95), Longitude: f(101.4)}},
		{name: "longitude out of range", loc: Location{Latitude: f(-0.5), Longitude: f(200)}},
		{name: "zero counts as unset", loc: Location{Latitude: f(0), Longitude: f(101.4)}},
		{name: "missing axis", loc: Location{Latitude: f(-0.5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.loc.Valid())
		})
	}
}
