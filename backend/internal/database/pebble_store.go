package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/user/elpisexchange/backend/internal/snapshot"
)

// Compile-time check to ensure PebbleStore implements snapshot.Store
var _ snapshot.Store = (*PebbleStore)(nil)

// PebbleStore keeps the document under a single key in a local Pebble database.
type PebbleStore struct {
	db  *pebble.DB
	key []byte
}

func NewPebbleStore(path, key string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", path, err)
	}
	return &PebbleStore{db: db, key: documentKey(key)}, nil
}

func (s *PebbleStore) Close() error { return s.db.Close() }

// keys: doc:<snapshot key>
func documentKey(key string) []byte { return append([]byte("doc:"), key...) }

func (s *PebbleStore) Load(ctx context.Context) (*snapshot.Document, error) {
	val, closer, err := s.db.Get(s.key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to get document: %v", snapshot.ErrTransient, err)
	}
	defer closer.Close()

	doc, err := snapshot.Decode(val)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", snapshot.ErrTransient, err)
	}
	return doc, nil
}

func (s *PebbleStore) Save(ctx context.Context, doc *snapshot.Document) error {
	data, err := snapshot.Encode(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", snapshot.ErrTransient, err)
	}
	if err := s.db.Set(s.key, data, pebble.Sync); err != nil {
		return fmt.Errorf("%w: failed to save document: %v", snapshot.ErrTransient, err)
	}
	return nil
}
