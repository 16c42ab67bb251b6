package catalog

import (
	"testing"

	"maps-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `
models:
  estate.block:
    table: estate_block
    location:
      address: contact_address_complete
      latitude: location_latitude
      longitude: location_longitude
    fields:
      name: {type: char}
      planted_date: {type: date}
      estate_id: {type: many2one, relation: estate.estate}
      tag_ids:
        type: many2many
        relation: estate.tag
        relation_table: estate_block_tag_rel
        column1: block_id
        column2: tag_id
  estate.estate:
    table: estate_estate
    fields:
      name: {type: char}
  estate.tag:
    table: estate_tag
    display_field: label
    fields:
      label: {type: char}
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(testCatalog))
	require.NoError(t, err)

	block, err := c.Model("estate.block")
	require.NoError(t, err)
	assert.Equal(t, "estate_block", block.Table)
	assert.Equal(t, "name", block.DisplayField)
	require.NotNil(t, block.Location)

	f, err := block.Field("estate_id")
	require.NoError(t, err)
	assert.Equal(t, "estate_id", f.Column)

	tags, err := block.Field("tag_ids")
	require.NoError(t, err)
	assert.Empty(t, tags.Column)
	assert.Equal(t, "estate_block_tag_rel", tags.RelationTable)

	tag, err := c.Model("estate.tag")
	require.NoError(t, err)
	assert.Equal(t, "label", tag.DisplayField)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "missing table", yaml: "models:\n  a.b:\n    fields: {}\n"},
		{name: "relation without target", yaml: "models:\n  a.b:\n    table: a\n    fields:\n      x: {type: many2one}\n"},
		{name: "unknown related model", yaml: "models:\n  a.b:\n    table: a\n    fields:\n      x: {type: many2one, relation: c.d}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestCatalog_Describe(t *testing.T) {
	c, err := Parse([]byte(testCatalog))
	require.NoError(t, err)

	q := models.Query{
		ResModel:      "estate.block",
		FieldNames:    []string{"name"},
		LocationField: "id",
		GroupBy:       []string{"planted_date:month"},
	}
	require.NoError(t, c.Describe(&q))
	assert.Equal(t, models.FieldDate, q.Fields["planted_date"].Type)
	assert.Equal(t, models.FieldInteger, q.Fields["id"].Type)
	assert.Equal(t, models.FieldChar, q.Fields["name"].Type)

	q.FieldNames = []string{"missing"}
	assert.ErrorIs(t, c.Describe(&q), ErrUnknownField)

	_, err = c.Model("nope")
	assert.ErrorIs(t, err, ErrUnknownModel)
}
