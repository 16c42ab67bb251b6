package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"maps-api/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"
)

var (
	// ErrNotFound is returned when no boundary object exists under the key.
	ErrNotFound = errors.New("storage: boundary not found")
	// ErrInvalidBoundary is returned when an object is neither GeoJSON nor base64 encoded GeoJSON.
	ErrInvalidBoundary = errors.New("storage: invalid boundary object")
)

// BoundaryStore keeps estate boundary GeoJSON in an S3-compatible bucket.
type BoundaryStore struct {
	client *minio.Client
	bucket string
}

// NewBoundaryStore connects to the MinIO endpoint in cfg.
func NewBoundaryStore(cfg config.StorageConfig) (*BoundaryStore, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("storage: endpoint, access key and secret key are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: failed to create MinIO client: %w", err)
	}
	log.Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.Bucket).Msg("connected to object storage")
	return &BoundaryStore{client: client, bucket: cfg.Bucket}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *BoundaryStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("storage: error checking bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("storage: failed to create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Boundary reads and decodes the boundary stored under key.
func (s *BoundaryStore) Boundary(ctx context.Context, key string) (json.RawMessage, error) {
	object, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("storage: failed to get object %s: %w", key, err)
	}
	defer object.Close()

	b, err := io.ReadAll(object)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: failed to read object %s: %w", key, err)
	}
	return DecodeBoundary(b)
}

// PutBoundary stores raw GeoJSON under key.
func (s *BoundaryStore) PutBoundary(ctx context.Context, key string, geojson []byte) error {
	if !json.Valid(geojson) {
		return ErrInvalidBoundary
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(geojson), int64(len(geojson)),
		minio.PutObjectOptions{ContentType: "application/geo+json"})
	if err != nil {
		return fmt.Errorf("storage: failed to store object %s: %w", key, err)
	}
	return nil
}

// DecodeBoundary accepts GeoJSON as stored, or base64 encoded as the host keeps binary fields.
func DecodeBoundary(b []byte) (json.RawMessage, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, ErrInvalidBoundary
	}
	if json.Valid(b) {
		return json.RawMessage(b), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(string(b))
	if err != nil || !json.Valid(decoded) {
		return nil, ErrInvalidBoundary
	}
	return json.RawMessage(decoded), nil
}
