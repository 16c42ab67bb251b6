//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"maps-api/internal/catalog"
	"maps-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jackc/pgx/v5/pgxpool"
)

const integrationCatalog = `
models:
  estate.block:
    table: estate_block
    location:
      address: contact_address_complete
      latitude: location_latitude
      longitude: location_longitude
      date: date_localization
    fields:
      name: {type: char}
      planted_date: {type: date}
      estate_id: {type: many2one, relation: estate.estate}
      tag_ids: {type: many2many, relation: estate.tag, relation_table: estate_block_tag_rel, column1: block_id, column2: tag_id}
  estate.estate:
    table: estate_estate
    fields:
      name: {type: char}
      block_ids: {type: one2many, relation: estate.block, inverse_column: estate_id}
  estate.tag:
    table: estate_tag
    fields:
      name: {type: char}
`

func setupTestDatabase(t *testing.T) *pgxpool.Pool {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "testdb",
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	postgresC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		postgresC.Terminate(ctx)
	})

	host, err := postgresC.Host(ctx)
	require.NoError(t, err)

	port, err := postgresC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connString := "postgres://testuser:testpass@" + host + ":" + port.Port() + "/testdb?sslmode=disable"

	pool, err := pgxpool.New(ctx, connString)
	require.NoError(t, err)

	t.Cleanup(func() {
		pool.Close()
	})

	_, err = pool.Exec(ctx, `
		CREATE TABLE estate_estate (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255),
			company_id BIGINT,
			location_type VARCHAR(32),
			boundary_key VARCHAR(255),
			parent_id BIGINT
		);
		CREATE TABLE estate_block (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255),
			planted_date DATE,
			estate_id BIGINT REFERENCES estate_estate(id),
			contact_address_complete VARCHAR(255),
			location_latitude DOUBLE PRECISION,
			location_longitude DOUBLE PRECISION,
			date_localization DATE
		);
		CREATE TABLE estate_tag (id BIGSERIAL PRIMARY KEY, name VARCHAR(255));
		CREATE TABLE estate_block_tag_rel (block_id BIGINT, tag_id BIGINT);
		CREATE TABLE product_product (id BIGSERIAL PRIMARY KEY, name VARCHAR(255));
		CREATE TABLE estate_harvest (
			id BIGSERIAL PRIMARY KEY,
			operation_date DATE,
			block_id BIGINT,
			afdeling_id BIGINT,
			harvest_main_product_id BIGINT,
			harvest_other_product_id BIGINT,
			harvest_qty_weight DOUBLE PRECISION,
			harvest_qty_unit DOUBLE PRECISION,
			other_harvest_qty DOUBLE PRECISION,
			other_harvest_stock_qty DOUBLE PRECISION
		);

		INSERT INTO estate_estate (name, company_id, location_type, boundary_key) VALUES
		('Kebun Sawit Utara', 1, 'estate', 'boundaries/1.geojson'),
		('Afdeling Dua', 1, 'division', NULL);
		UPDATE estate_estate SET parent_id = 1 WHERE id = 2;

		INSERT INTO estate_block (name, planted_date, estate_id, contact_address_complete, location_latitude, location_longitude) VALUES
		('Blok A1', '2024-01-05', 1, 'Jl. Sudirman 1, Pekanbaru', -0.507068, 101.447777),
		('Blok A2', '2024-01-28', 1, 'Jl. Sudirman 2, Pekanbaru', NULL, NULL),
		('Blok B1', '2024-02-01', NULL, '', NULL, NULL);

		INSERT INTO estate_tag (name) VALUES ('Replanting'), ('Organik');
		INSERT INTO estate_block_tag_rel VALUES (1, 1), (1, 2), (2, 2);

		INSERT INTO product_product (name) VALUES ('TBS'), ('Brondolan');
		INSERT INTO estate_harvest (operation_date, block_id, afdeling_id, harvest_main_product_id, harvest_other_product_id,
			harvest_qty_weight, harvest_qty_unit, other_harvest_qty, other_harvest_stock_qty) VALUES
		('2023-12-30', 1, 2, 1, 2, 999, 10, 0, 0),
		('2024-05-03', 1, 2, 1, 2, 300, 20, 10, 25),
		('2024-05-20', 1, 2, 1, 2, 200, 30, 0, 0),
		('2024-06-02', 1, 2, 1, 2, 150, 10, 5, 10),
		('2024-06-10', 2, 2, 1, 2, 100, 10, 0, 0);
	`)
	require.NoError(t, err)

	return pool
}

func newTestRepository(t *testing.T) *Repository {
	c, err := catalog.Parse([]byte(integrationCatalog))
	require.NoError(t, err)
	return NewRepository(setupTestDatabase(t), c)
}

func TestRepository_SearchRead(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	repo := newTestRepository(t)
	ctx := context.Background()

	res, err := repo.SearchRead(ctx, SearchRequest{
		Model:  "estate.block",
		Domain: []models.Condition{{Field: "name", Operator: "ilike", Value: "blok"}},
		Fields: []string{"name", "estate_id", "tag_ids"},
		Limit:  2,
		Order:  "name ASC",
	})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Length)
	require.Len(t, res.Records, 2)

	first := res.Records[0]
	assert.Equal(t, "Blok A1", first.Fields["name"])
	assert.Equal(t, models.Relation{ID: 1, DisplayName: "Kebun Sawit Utara"}, first.Fields["estate_id"])
	assert.Equal(t, []models.Relation{{ID: 1, DisplayName: "Replanting"}, {ID: 2, DisplayName: "Organik"}}, first.Fields["tag_ids"])

	res, err = repo.SearchRead(ctx, SearchRequest{
		Model:  "estate.estate",
		Fields: []string{"name", "block_ids"},
		Domain: []models.Condition{{Field: "id", Operator: "=", Value: float64(1)}},
	})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Len(t, res.Records[0].Fields["block_ids"], 2)
}

func TestRepository_FetchAndUpdateLocations(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	repo := newTestRepository(t)
	ctx := context.Background()

	locs, err := repo.FetchLocations(ctx, "estate.block", []int64{1, 2, 3})
	require.NoError(t, err)
	require.Len(t, locs, 2, "locations without an address are not fetched")
	assert.True(t, locs[0].Valid())
	assert.True(t, locs[1].NeedsGeocoding())

	err = repo.UpdateCoordinates(ctx, "estate.block", []models.CoordinateUpdate{
		{ID: 2, Latitude: -0.51, Longitude: 101.45},
	})
	require.NoError(t, err)

	locs, err = repo.FetchLocations(ctx, "estate.block", []int64{2})
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.InDelta(t, -0.51, *locs[0].Latitude, 1e-9)
	assert.InDelta(t, 101.45, *locs[0].Longitude, 1e-9)
}

func TestRepository_EstatesByCompany(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	repo := newTestRepository(t)

	estates, err := repo.EstatesByCompany(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []models.Estate{{ID: 1, Name: "Kebun Sawit Utara", BoundaryKey: "boundaries/1.geojson"}}, estates)
}

func TestRepository_HarvestByMonth(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	repo := newTestRepository(t)
	ctx := context.Background()
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	blockMonths := []models.HarvestMonth{
		{Month: "2024-05", MainProduct: "TBS", OtherProduct: "Brondolan", TotalWeight: 525, AvgHarvestWeight: 10, AvgOtherHarvestWeight: 2.5},
		{Month: "2024-06", MainProduct: "TBS", OtherProduct: "Brondolan", TotalWeight: 160, AvgHarvestWeight: 15, AvgOtherHarvestWeight: 2},
	}
	divisionMonths := []models.HarvestMonth{
		blockMonths[0],
		{Month: "2024-06", MainProduct: "TBS", OtherProduct: "Brondolan", TotalWeight: 260, AvgHarvestWeight: 12.5, AvgOtherHarvestWeight: 2},
	}

	tests := []struct {
		name  string
		model string
		id    int64
		from  time.Time
		want  []models.HarvestMonth
	}{
		{name: "block", model: "estate.block", id: 1, from: from, want: blockMonths},
		{name: "estate covers its divisions", model: "estate.estate", id: 1, from: from, want: divisionMonths},
		{name: "division without children", model: "estate.estate", id: 2, from: from, want: divisionMonths},
		{name: "window start is inclusive", model: "estate.block", id: 2, from: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), want: []models.HarvestMonth{
			{Month: "2024-06", MainProduct: "TBS", OtherProduct: "Brondolan", TotalWeight: 100, AvgHarvestWeight: 10},
		}},
		{name: "block without harvests", model: "estate.block", id: 3, from: from, want: []models.HarvestMonth{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.HarvestByMonth(ctx, tt.model, tt.id, tt.from, to)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := repo.HarvestByMonth(ctx, "res.partner", 1, from, to)
	assert.ErrorIs(t, err, ErrNoHarvest)
}
