package repository

import (
	"testing"

	"maps-api/internal/catalog"
	"maps-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testModel(t *testing.T) *catalog.Model {
	t.Helper()
	c, err := catalog.Parse([]byte(`
models:
  estate.block:
    table: estate_block
    fields:
      name: {type: char}
      area: {type: float}
      active: {type: boolean}
      estate_id: {type: many2one, relation: estate.estate}
      tag_ids: {type: many2many, relation: estate.estate, relation_table: rel, column1: a, column2: b}
  estate.estate:
    table: estate_estate
    fields:
      name: {type: char}
`))
	require.NoError(t, err)
	m, err := c.Model("estate.block")
	require.NoError(t, err)
	return m
}

func TestWhereBuilder_Build(t *testing.T) {
	m := testModel(t)

	tests := []struct {
		name     string
		domain   []models.Condition
		expected string
		args     []any
		wantErr  bool
	}{
		{
			name:     "empty domain",
			expected: "TRUE",
		},
		{
			name: "equality and comparison",
			domain: []models.Condition{
				{Field: "estate_id", Operator: "=", Value: float64(3)},
				{Field: "area", Operator: ">=", Value: 1.5},
			},
			expected: `t."estate_id" = $1 AND t."area" >= $2`,
			args:     []any{int64(3), 1.5},
		},
		{
			name:     "char not False",
			domain:   []models.Condition{{Field: "name", Operator: "!=", Value: "False"}},
			expected: `(t."name" IS NOT NULL AND t."name" <> '')`,
		},
		{
			name:     "boolean false is a value",
			domain:   []models.Condition{{Field: "active", Operator: "=", Value: false}},
			expected: `t."active" = $1`,
			args:     []any{false},
		},
		{
			name:     "in list",
			domain:   []models.Condition{{Field: "id", Operator: "in", Value: []any{float64(1), float64(2)}}},
			expected: `t."id" = ANY($1)`,
			args:     []any{[]int64{1, 2}},
		},
		{
			name:     "ilike wraps the pattern",
			domain:   []models.Condition{{Field: "name", Operator: "ilike", Value: "blok"}},
			expected: `t."name"::text ILIKE $1`,
			args:     []any{"%blok%"},
		},
		{
			name:    "many2many domain",
			domain:  []models.Condition{{Field: "tag_ids", Operator: "=", Value: float64(1)}},
			wantErr: true,
		},
		{
			name:    "unknown operator",
			domain:  []models.Condition{{Field: "name", Operator: "child_of", Value: float64(1)}},
			wantErr: true,
		},
		{
			name:    "unknown field",
			domain:  []models.Condition{{Field: "nope", Operator: "=", Value: float64(1)}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &whereBuilder{model: m, alias: "t"}
			sql, err := w.build(tt.domain)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, sql)
			assert.Equal(t, tt.args, w.args)
		})
	}
}

func TestOrderBy(t *testing.T) {
	m := testModel(t)

	got, err := orderBy(m, "t", "")
	require.NoError(t, err)
	assert.Equal(t, "t.id", got)

	got, err = orderBy(m, "t", "name ASC")
	require.NoError(t, err)
	assert.Equal(t, `t."name" ASC, t.id`, got)

	got, err = orderBy(m, "t", "area desc")
	require.NoError(t, err)
	assert.Equal(t, `t."area" DESC, t.id`, got)

	_, err = orderBy(m, "t", "name; DROP TABLE x")
	assert.Error(t, err)

	_, err = orderBy(m, "t", "tag_ids")
	assert.Error(t, err)
}
