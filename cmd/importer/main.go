package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"maps-api/internal/catalog"
	"maps-api/internal/config"
	"maps-api/internal/logging"
	"maps-api/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// LocationRecord is one row of the import file: id,address,latitude,longitude.
// Empty coordinates are left unset so map views geocode the address.
type LocationRecord struct {
	ID        int64
	Address   string
	Latitude  *float64
	Longitude *float64
}

func main() {
	file := flag.String("file", "", "Path to the CSV file to import")
	model := flag.String("model", "estate.block", "Location model the rows belong to")
	boundaries := flag.String("boundaries", "", "Directory of <estate id>.geojson files to upload")
	flag.Parse()

	if *file == "" && *boundaries == "" {
		fmt.Println("Error: --file or --boundaries is required")
		os.Exit(1)
	}

	_ = godotenv.Load()
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	logging.Setup(cfg.Log)
	ctx := context.Background()

	// Connect to DB
	conn, err := pgx.Connect(ctx, cfg.DBSource)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to db")
	}
	defer conn.Close(ctx)

	if *file != "" {
		fields, err := catalog.Load(cfg.CatalogPath)
		if err != nil {
			log.Fatal().Err(err).Msg("cannot load model catalog")
		}
		m, err := fields.Model(*model)
		if err != nil {
			log.Fatal().Err(err).Msg("unknown model")
		}
		if m.Location == nil {
			log.Fatal().Str("model", *model).Msg("model has no location columns")
		}

		log.Info().Str("file", *file).Msg("starting import")
		records, err := parseCSV(*file)
		if err != nil {
			log.Fatal().Err(err).Msg("error parsing CSV")
		}
		log.Info().Int("records", len(records)).Msg("parsed records")

		n, err := upsertRecords(ctx, conn, m, records)
		if err != nil {
			log.Fatal().Err(err).Msg("error inserting records")
		}
		log.Info().Int64("rows", n).Str("table", m.Table).Msg("imported locations")
	}

	if *boundaries != "" {
		store, err := storage.NewBoundaryStore(cfg.Storage)
		if err != nil {
			log.Fatal().Err(err).Msg("cannot connect to object storage")
		}
		if err := store.EnsureBucket(ctx); err != nil {
			log.Fatal().Err(err).Msg("cannot prepare bucket")
		}
		n, err := uploadBoundaries(ctx, conn, store, *boundaries)
		if err != nil {
			log.Fatal().Err(err).Msg("error uploading boundaries")
		}
		log.Info().Int("estates", n).Msg("uploaded estate boundaries")
	}
}

func parseCSV(filePath string) ([]LocationRecord, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()
	return readRecords(file)
}

func readRecords(r io.Reader) ([]LocationRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var records []LocationRecord
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		if len(record) < 4 {
			return nil, fmt.Errorf("line %d: expected 4 columns, got %d", line, len(record))
		}

		id, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid id: %s", line, record[0])
		}
		lat, err := optionalFloat(record[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid latitude: %s", line, record[2])
		}
		lon, err := optionalFloat(record[3])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid longitude: %s", line, record[3])
		}
		if (lat == nil) != (lon == nil) {
			return nil, fmt.Errorf("line %d: latitude and longitude must be set together", line)
		}

		records = append(records, LocationRecord{
			ID:        id,
			Address:   strings.TrimSpace(record[1]),
			Latitude:  lat,
			Longitude: lon,
		})
	}
	return records, nil
}

func optionalFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// upsertRecords copies the rows into a temporary table, then merges them into the model table.
func upsertRecords(ctx context.Context, conn *pgx.Conn, m *catalog.Model, records []LocationRecord) (int64, error) {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		CREATE TEMP TABLE location_import (
			id BIGINT PRIMARY KEY,
			address TEXT,
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION
		) ON COMMIT DROP`); err != nil {
		return 0, fmt.Errorf("failed to create staging table: %w", err)
	}

	// Use CopyFrom for bulk insert
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"location_import"},
		[]string{"id", "address", "latitude", "longitude"},
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			r := records[i]
			return []any{r.ID, r.Address, r.Latitude, r.Longitude}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to copy rows: %w", err)
	}

	loc := m.Location
	sql := fmt.Sprintf(`
		INSERT INTO %[1]s (id, %[2]s, %[3]s, %[4]s)
		SELECT id, address, latitude, longitude FROM location_import
		ON CONFLICT (id) DO UPDATE SET
			%[2]s = EXCLUDED.%[2]s,
			%[3]s = EXCLUDED.%[3]s,
			%[4]s = EXCLUDED.%[4]s`,
		pgx.Identifier{m.Table}.Sanitize(),
		pgx.Identifier{loc.Address}.Sanitize(),
		pgx.Identifier{loc.Latitude}.Sanitize(),
		pgx.Identifier{loc.Longitude}.Sanitize(),
	)
	tag, err := tx.Exec(ctx, sql)
	if err != nil {
		return 0, fmt.Errorf("failed to merge rows: %w", err)
	}
	return tag.RowsAffected(), tx.Commit(ctx)
}

// uploadBoundaries stores every <id>.geojson file in dir and points the estate at its object.
func uploadBoundaries(ctx context.Context, conn *pgx.Conn, store *storage.BoundaryStore, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	uploaded := 0
	for _, e := range entries {
		id, ok := boundaryEstateID(e.Name())
		if e.IsDir() || !ok {
			continue
		}
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return uploaded, err
		}
		key := fmt.Sprintf("estates/%d.geojson", id)
		if err := store.PutBoundary(ctx, key, b); err != nil {
			log.Warn().Err(err).Str("file", e.Name()).Msg("skipping boundary")
			continue
		}
		if _, err := conn.Exec(ctx, `UPDATE estate_estate SET boundary_key = $1 WHERE id = $2`, key, id); err != nil {
			return uploaded, fmt.Errorf("failed to link boundary of estate %d: %w", id, err)
		}
		uploaded++
	}
	return uploaded, nil
}

func boundaryEstateID(name string) (int64, bool) {
	base, ok := strings.CutSuffix(name, ".geojson")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(base, 10, 64)
	return id, err == nil
}
