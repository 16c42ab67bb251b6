package repository

import (
	"context"
	"fmt"
	"strings"

	"maps-api/internal/catalog"
	"maps-api/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads and writes the host data store in PostgreSQL
type Repository struct {
	db      *pgxpool.Pool
	catalog *catalog.Catalog
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(db *pgxpool.Pool, c *catalog.Catalog) *Repository {
	return &Repository{db: db, catalog: c}
}

// SearchRequest mirrors the host search/read call.
type SearchRequest struct {
	Model  string
	Domain []models.Condition
	Fields []string
	Limit  int
	Offset int
	Order  string
}

// SearchResult is one page of records plus the total number of matches.
type SearchResult struct {
	Length  int
	Records []*models.Record
}

// SearchRead fetches one page of records with only the requested fields,
// expanding relational fields to {id, display_name}
func (r *Repository) SearchRead(ctx context.Context, req SearchRequest) (SearchResult, error) {
	m, err := r.catalog.Model(req.Model)
	if err != nil {
		return SearchResult{}, fmt.Errorf("repository: %w", err)
	}

	w := &whereBuilder{model: m, alias: "t"}
	where, err := w.build(req.Domain)
	if err != nil {
		return SearchResult{}, err
	}
	order, err := orderBy(m, "t", req.Order)
	if err != nil {
		return SearchResult{}, err
	}

	var length int
	countSQL := fmt.Sprintf("SELECT count(*) FROM %s t WHERE %s", pgx.Identifier{m.Table}.Sanitize(), where)
	if err := r.db.QueryRow(ctx, countSQL, w.args...).Scan(&length); err != nil {
		return SearchResult{}, fmt.Errorf("repository: failed to count %s: %w", req.Model, err)
	}

	var (
		selected []string
		cols     = []string{"t.id"}
		multi    []string
	)
	for _, name := range req.Fields {
		if name == "id" {
			continue
		}
		f, err := m.Field(name)
		if err != nil {
			return SearchResult{}, fmt.Errorf("repository: %w", err)
		}
		if f.Type.Multi() {
			multi = append(multi, name)
			continue
		}
		selected = append(selected, name)
		cols = append(cols, selectColumn(w.column(f.Column), f.Type))
	}

	sql := fmt.Sprintf("SELECT %s FROM %s t WHERE %s ORDER BY %s",
		strings.Join(cols, ", "), pgx.Identifier{m.Table}.Sanitize(), where, order)
	args := append([]any{}, w.args...)
	if req.Limit > 0 {
		args = append(args, req.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if req.Offset > 0 {
		args = append(args, req.Offset)
		sql += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return SearchResult{}, fmt.Errorf("repository: failed to execute search query: %w", err)
	}
	defer rows.Close()

	records := []*models.Record{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return SearchResult{}, fmt.Errorf("repository: failed to scan record: %w", err)
		}
		rec := &models.Record{ID: toInt64(values[0]), Fields: make(map[string]any, len(req.Fields))}
		for i, name := range selected {
			rec.Fields[name] = values[i+1]
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return SearchResult{}, fmt.Errorf("repository: error iterating rows: %w", err)
	}

	for _, name := range selected {
		f, _ := m.Field(name)
		if f.Type == models.FieldMany2One {
			if err := r.expandMany2One(ctx, records, name, f); err != nil {
				return SearchResult{}, err
			}
		}
	}
	for _, name := range multi {
		f, _ := m.Field(name)
		if err := r.expandMulti(ctx, m, records, name, f); err != nil {
			return SearchResult{}, err
		}
	}

	return SearchResult{Length: length, Records: records}, nil
}

func selectColumn(col string, t models.FieldType) string {
	switch t {
	case models.FieldFloat:
		return col + "::float8"
	case models.FieldInteger, models.FieldMany2One:
		return col + "::int8"
	case models.FieldChar, models.FieldText, models.FieldSelection:
		return col + "::text"
	}
	return col
}

func (r *Repository) expandMany2One(ctx context.Context, records []*models.Record, name string, f catalog.Field) error {
	ids := make([]int64, 0, len(records))
	for _, rec := range records {
		if v, ok := rec.Fields[name].(int64); ok {
			ids = append(ids, v)
		}
	}
	names, err := r.displayNames(ctx, f.Relation, ids)
	if err != nil {
		return err
	}
	for _, rec := range records {
		v, ok := rec.Fields[name].(int64)
		if !ok {
			rec.Fields[name] = nil
			continue
		}
		rec.Fields[name] = models.Relation{ID: v, DisplayName: names[v]}
	}
	return nil
}

func (r *Repository) displayNames(ctx context.Context, model string, ids []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	target, err := r.catalog.Model(model)
	if err != nil {
		return nil, fmt.Errorf("repository: %w", err)
	}
	sql := fmt.Sprintf("SELECT id, COALESCE(%s::text, '') FROM %s WHERE id = ANY($1)",
		pgx.Identifier{target.DisplayField}.Sanitize(), pgx.Identifier{target.Table}.Sanitize())
	rows, err := r.db.Query(ctx, sql, ids)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to read display names of %s: %w", model, err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("repository: failed to scan display name: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}

func (r *Repository) expandMulti(ctx context.Context, m *catalog.Model, records []*models.Record, name string, f catalog.Field) error {
	ids := make([]int64, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
		rec.Fields[name] = []models.Relation{}
	}
	if len(ids) == 0 {
		return nil
	}
	target, err := r.catalog.Model(f.Relation)
	if err != nil {
		return fmt.Errorf("repository: %w", err)
	}
	display := "COALESCE(r." + pgx.Identifier{target.DisplayField}.Sanitize() + "::text, '')"

	var sql string
	switch f.Type {
	case models.FieldOne2Many:
		inv := "r." + pgx.Identifier{f.InverseColumn}.Sanitize()
		sql = fmt.Sprintf("SELECT %s, r.id, %s FROM %s r WHERE %s = ANY($1) ORDER BY r.id",
			inv, display, pgx.Identifier{target.Table}.Sanitize(), inv)
	case models.FieldMany2Many:
		sql = fmt.Sprintf("SELECT j.%s, r.id, %s FROM %s j JOIN %s r ON r.id = j.%s WHERE j.%s = ANY($1) ORDER BY r.id",
			pgx.Identifier{f.Column1}.Sanitize(), display,
			pgx.Identifier{f.RelationTable}.Sanitize(), pgx.Identifier{target.Table}.Sanitize(),
			pgx.Identifier{f.Column2}.Sanitize(), pgx.Identifier{f.Column1}.Sanitize())
	default:
		return fmt.Errorf("repository: %s.%s is not a multi relation", m.Name, name)
	}

	rows, err := r.db.Query(ctx, sql, ids)
	if err != nil {
		return fmt.Errorf("repository: failed to expand %s.%s: %w", m.Name, name, err)
	}
	defer rows.Close()

	byID := make(map[int64]*models.Record, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}
	for rows.Next() {
		var owner int64
		var rel models.Relation
		if err := rows.Scan(&owner, &rel.ID, &rel.DisplayName); err != nil {
			return fmt.Errorf("repository: failed to scan relation: %w", err)
		}
		if rec, ok := byID[owner]; ok {
			rec.Fields[name] = append(rec.Fields[name].([]models.Relation), rel)
		}
	}
	return rows.Err()
}

// FetchLocations returns the rows of a location model that have an address and whose id is in ids
func (r *Repository) FetchLocations(ctx context.Context, model string, ids []int64) ([]*models.Location, error) {
	m, err := r.catalog.Model(model)
	if err != nil {
		return nil, fmt.Errorf("repository: %w", err)
	}
	if m.Location == nil {
		return nil, fmt.Errorf("repository: %s is not a location model", model)
	}
	addr := pgx.Identifier{m.Location.Address}.Sanitize()
	sql := fmt.Sprintf(`
		SELECT id, %s::text, %s::float8, %s::float8
		FROM %s
		WHERE %s IS NOT NULL AND %s <> '' AND id = ANY($1)
		ORDER BY id`,
		addr, pgx.Identifier{m.Location.Latitude}.Sanitize(), pgx.Identifier{m.Location.Longitude}.Sanitize(),
		pgx.Identifier{m.Table}.Sanitize(), addr, addr)

	rows, err := r.db.Query(ctx, sql, ids)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to execute location query: %w", err)
	}
	defer rows.Close()

	locations := []*models.Location{}
	for rows.Next() {
		var loc models.Location
		if err := rows.Scan(&loc.ID, &loc.Address, &loc.Latitude, &loc.Longitude); err != nil {
			return nil, fmt.Errorf("repository: failed to scan location: %w", err)
		}
		locations = append(locations, &loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating rows: %w", err)
	}
	return locations, nil
}

// UpdateCoordinates writes resolved coordinates back, one statement per distinct coordinate pair
func (r *Repository) UpdateCoordinates(ctx context.Context, model string, updates []models.CoordinateUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	m, err := r.catalog.Model(model)
	if err != nil {
		return fmt.Errorf("repository: %w", err)
	}
	if m.Location == nil {
		return fmt.Errorf("repository: %s is not a location model", model)
	}

	set := fmt.Sprintf("%s = $1, %s = $2",
		pgx.Identifier{m.Location.Latitude}.Sanitize(), pgx.Identifier{m.Location.Longitude}.Sanitize())
	if m.Location.Date != "" {
		set += ", " + pgx.Identifier{m.Location.Date}.Sanitize() + " = CURRENT_DATE"
	}
	sql := fmt.Sprintf("UPDATE %s SET %s WHERE id = ANY($3)", pgx.Identifier{m.Table}.Sanitize(), set)

	type pair struct{ lat, lng float64 }
	var order []pair
	groups := make(map[pair][]int64)
	for _, u := range updates {
		p := pair{u.Latitude, u.Longitude}
		if _, ok := groups[p]; !ok {
			order = append(order, p)
		}
		groups[p] = append(groups[p], u.ID)
	}

	batch := &pgx.Batch{}
	for _, p := range order {
		batch.Queue(sql, p.lat, p.lng, groups[p])
	}
	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("repository: failed to update coordinates of %s: %w", model, err)
	}
	return nil
}

func toInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int32:
		return int64(t)
	case int16:
		return int64(t)
	case int:
		return int64(t)
	}
	return 0
}
