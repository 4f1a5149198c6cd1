// Package export writes point-in-time snapshots of the recipe directory
// to object storage.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/cookshare/apiserver/internal/storage"
	"github.com/cookshare/apiserver/types"
)

const (
	// Prefix is the key prefix of every snapshot object.
	Prefix = "directory/"
	// LatestKey always holds a copy of the most recent snapshot.
	LatestKey  = Prefix + "latest.json"
	timeLayout = "20060102T150405Z"
)

var (
	snapshotMeta = storage.Metadata{ContentType: "application/json", CacheControl: "public, max-age=31536000, immutable"}
	latestMeta   = storage.Metadata{ContentType: "application/json", CacheControl: "no-cache"}
)

// Directory lists the joined recipe directory.
type Directory interface {
	List(ctx context.Context) ([]types.DirectoryEntry, error)
}

// Snapshot is the document stored for each export.
type Snapshot struct {
	GeneratedAt time.Time              `json:"generated_at"`
	Count       int                    `json:"count"`
	Entries     []types.DirectoryEntry `json:"entries"`
}

// Exporter assembles the directory and uploads it.
type Exporter struct {
	directory Directory
	objects   storage.ObjectStorage
	now       func() time.Time
}

func NewExporter(directory Directory, objects storage.ObjectStorage) *Exporter {
	return &Exporter{directory: directory, objects: objects, now: time.Now}
}

// Export uploads a new snapshot and refreshes LatestKey. It returns the key
// of the timestamped object.
func (e *Exporter) Export(ctx context.Context) (string, Snapshot, error) {
	entries, err := e.directory.List(ctx)
	if err != nil {
		return "", Snapshot{}, fmt.Errorf("list directory: %w", err)
	}

	snapshot := Snapshot{
		GeneratedAt: e.now().UTC(),
		Count:       len(entries),
		Entries:     entries,
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", Snapshot{}, fmt.Errorf("encode snapshot: %w", err)
	}

	key := Prefix + snapshot.GeneratedAt.Format(timeLayout) + ".json"
	if err := e.objects.Put(ctx, key, bytes.NewReader(data), int64(len(data)), snapshotMeta); err != nil {
		return "", Snapshot{}, fmt.Errorf("upload %s: %w", key, err)
	}
	if err := e.objects.Put(ctx, LatestKey, bytes.NewReader(data), int64(len(data)), latestMeta); err != nil {
		return "", Snapshot{}, fmt.Errorf("upload %s: %w", LatestKey, err)
	}
	return key, snapshot, nil
}

// Latest downloads the snapshot stored under LatestKey. It returns
// storage.ErrNotFound before the first export.
func (e *Exporter) Latest(ctx context.Context) (Snapshot, error) {
	rc, err := e.objects.Get(ctx, LatestKey)
	if err != nil {
		return Snapshot{}, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return Snapshot{}, err
	}
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snapshot, nil
}

// Prune deletes all but the newest keep timestamped snapshots and returns
// the deleted keys. LatestKey is never deleted.
func (e *Exporter) Prune(ctx context.Context, keep int) ([]string, error) {
	if keep < 0 {
		keep = 0
	}
	objects, err := e.objects.List(ctx, Prefix)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	snapshots := make([]string, 0, len(objects))
	for _, object := range objects {
		if object.Key != LatestKey && strings.HasSuffix(object.Key, ".json") {
			snapshots = append(snapshots, object.Key)
		}
	}
	if len(snapshots) <= keep {
		return nil, nil
	}
	// the timestamp layout sorts lexically
	sort.Strings(snapshots)

	stale := snapshots[:len(snapshots)-keep]
	for _, key := range stale {
		if err := e.objects.Delete(ctx, key); err != nil {
			return nil, fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return stale, nil
}
