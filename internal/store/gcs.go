package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"

	"github.com/dvloznov/smart-accountant/internal/domain"
)

// GCSStore keeps the snapshot as a single JSON object in Cloud Storage.
// It assumes Application Default Credentials are configured.
type GCSStore struct {
	client *storage.Client
	bucket string
	object string
}

// ParseGCSURI splits gs://bucket/path/to/object into its parts.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}

	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}

	return parts[0], parts[1], nil
}

// NewGCSStore creates a storage client for the object named by uri.
func NewGCSStore(ctx context.Context, uri string) (*GCSStore, error) {
	bucket, object, err := ParseGCSURI(uri)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &GCSStore{client: client, bucket: bucket, object: object}, nil
}

func (g *GCSStore) handle() *storage.ObjectHandle {
	return g.client.Bucket(g.bucket).Object(g.object)
}

func (g *GCSStore) Load(ctx context.Context) (domain.Snapshot, error) {
	r, err := g.handle().NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return domain.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("open GCS object reader: %w", err)
	}
	defer r.Close()

	return Decode(r)
}

func (g *GCSStore) Save(ctx context.Context, snap domain.Snapshot) error {
	var buf bytes.Buffer
	if err := Encode(&buf, snap); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := g.handle().NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(buf.Bytes()); err != nil {
		_ = w.Close()
		return fmt.Errorf("write GCS object: %w", err)
	}
	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload: %w", err)
	}
	return nil
}

func (g *GCSStore) Clear(ctx context.Context) error {
	err := g.handle().Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete GCS object: %w", err)
	}
	return nil
}

// Close releases the storage client.
func (g *GCSStore) Close() error {
	return g.client.Close()
}
