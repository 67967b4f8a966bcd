package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/laesemaskine/internal/blob"
)

// BlobRepo is the SQLite-backed blob buffer.
type BlobRepo struct{ s *Store }

var _ blob.Store = (*BlobRepo)(nil)

type blobRow struct {
	Key       string `sql:"key"`
	Data      []byte `sql:"data"`
	MIME      string `sql:"mime"`
	CreatedAt int64  `sql:"created_at"`
}

// Put stores b, replacing any blob under the same key.
func (r *BlobRepo) Put(ctx context.Context, b blob.Blob) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	data := b.Data
	if data == nil {
		data = []byte{}
	}
	ins := sqlite.Insert("blobs").
		Columns("key", "data", "mime", "created_at").
		Values(b.Key, data, b.MIME, b.CreatedAt.UnixMilli()).
		OnConflict(entsql.ConflictColumns("key"), entsql.ResolveWithNewValues())
	if _, err := exec(ctx, r.s.drv, ins); err != nil {
		return fmt.Errorf("put blob %s: %w", b.Key, err)
	}
	return nil
}

// Get returns (nil, nil) for a missing key.
func (r *BlobRepo) Get(ctx context.Context, key string) (*blob.Blob, error) {
	q := sqlite.Select("key", "data", "mime", "created_at").From(sqlite.Table("blobs")).
		Where(entsql.EQ("key", key))
	var rows []blobRow
	if err := scan(ctx, r.s.drv, q, &rows); err != nil {
		return nil, fmt.Errorf("get blob %s: %w", key, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	row := rows[0]
	return &blob.Blob{
		Key:       row.Key,
		Data:      row.Data,
		MIME:      row.MIME,
		CreatedAt: time.UnixMilli(row.CreatedAt),
	}, nil
}

// Delete removes key. A missing key is not an error.
func (r *BlobRepo) Delete(ctx context.Context, key string) error {
	del := sqlite.Delete("blobs").Where(entsql.EQ("key", key))
	if _, err := exec(ctx, r.s.drv, del); err != nil {
		return fmt.Errorf("delete blob %s: %w", key, err)
	}
	return nil
}

// PurgeOlderThan deletes blobs created before cutoff.
func (r *BlobRepo) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	del := sqlite.Delete("blobs").Where(entsql.LT("created_at", cutoff.UnixMilli()))
	res, err := exec(ctx, r.s.drv, del)
	if err != nil {
		return 0, fmt.Errorf("purge blobs: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}
