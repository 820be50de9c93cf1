package controller

import (
	"context"
	"fmt"

	"github.com/roach88/securetodo/internal/keyscheme"
	"github.com/roach88/securetodo/internal/record"
	"github.com/roach88/securetodo/internal/store"
)

// RecordStore is the storage contract the controller needs. Implemented by
// StoreRecords (the encrypted store) and testutil.RecordStore (tests).
type RecordStore interface {
	// Put writes r under key, replacing any existing value.
	Put(ctx context.Context, key string, r record.Record) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Scan returns every decodable record whose key starts with prefix.
	Scan(ctx context.Context, prefix string) ([]record.Record, error)
}

type storeRecords struct {
	store *store.Store
}

// StoreRecords adapts s to RecordStore. Entries that fail to decrypt or
// decode are skipped by the store and never reach the controller, and so
// are entries whose key is not a record key or does not match the record
// stored under it.
func StoreRecords(s *store.Store) RecordStore {
	return storeRecords{store: s}
}

func (r storeRecords) Put(ctx context.Context, key string, rec record.Record) error {
	return r.store.Set(ctx, key, rec)
}

func (r storeRecords) Delete(ctx context.Context, key string) error {
	return r.store.Delete(ctx, key)
}

func (r storeRecords) Scan(ctx context.Context, prefix string) ([]record.Record, error) {
	return store.ScanByPrefix(ctx, r.store, prefix, decodeRecord)
}

// decodeRecord decodes the record stored under key and checks that key is
// the record's own key.
func decodeRecord(key string, data []byte) (record.Record, error) {
	date, id, err := keyscheme.ParseKey(key)
	if err != nil {
		return record.Record{}, err
	}
	rec, err := record.Unmarshal(data)
	if err != nil {
		return record.Record{}, err
	}
	if rec.Date != date || rec.ID != id {
		return record.Record{}, fmt.Errorf("record %s on %s stored under %q", rec.ID, rec.Date, key)
	}
	return rec, nil
}
