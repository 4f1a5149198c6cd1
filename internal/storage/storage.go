// Package storage abstracts the object stores that receive directory
// snapshots.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/cookshare/apiserver/config"
)

var (
	// ErrDisabled is returned by NewFromConfig when no object store is configured.
	ErrDisabled = errors.New("object storage disabled")

	// ErrNotFound is returned by Get when the key does not exist.
	ErrNotFound = errors.New("object not found")
)

// Metadata describes how an object is served back.
type Metadata struct {
	ContentType  string
	CacheControl string
}

// Object is one entry of a listing.
type Object struct {
	Key     string
	Size    int64
	Updated time.Time
}

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, meta Metadata) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]Object, error)
	Bucket() string
	Close() error
}

// NewFromConfig connects to the object store selected by cfg.Backend.
func NewFromConfig(ctx context.Context, cfg config.StorageConfig) (ObjectStorage, error) {
	switch cfg.Backend {
	case "", "none":
		return nil, ErrDisabled
	case "minio":
		client, err := NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, fmt.Errorf("connect minio: %w", err)
		}
		return client, nil
	case "gcs":
		client, err := NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, fmt.Errorf("connect gcs: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func sortByKey(objects []Object) []Object {
	sort.Slice(objects, func(i, j int) bool {
		return objects[i].Key < objects[j].Key
	})
	return objects
}
