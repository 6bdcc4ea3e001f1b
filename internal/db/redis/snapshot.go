package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/mpezzi/json-server/internal/db"
)

// Load reads the document. A missing key yields an empty snapshot.
func (s *Store) Load(ctx context.Context) (db.Snapshot, error) {
	cmd := s.b().Get().Key(s.key).Build()
	data, err := s.do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return db.ParseSnapshot(nil)
		}
		return db.Snapshot{}, &db.Error{Op: db.OpGet, Err: err}
	}
	snap, err := db.ParseSnapshot(data)
	if err != nil {
		return db.Snapshot{}, &db.Error{Op: db.OpDecode, Err: err}
	}
	return snap, nil
}

// Save stores the whole document under the key.
func (s *Store) Save(ctx context.Context, snap db.Snapshot) error {
	data, err := snap.MarshalJSON()
	if err != nil {
		return &db.Error{Op: db.OpEncode, Err: err}
	}
	cmd := s.b().Set().Key(s.key).Value(rueidis.BinaryString(data)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}
