package testutil

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/roach88/securetodo/internal/record"
)

// RecordStore is an in-memory record store keyed by storage key. Each
// operation can be made to fail with an injected error, which is how tests
// check that a failed write leaves the projection untouched.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type RecordStore struct {
	mu      sync.Mutex
	data    map[string]record.Record
	putErr  error
	delErr  error
	scanErr error
	puts    int
	deletes int
}

// NewRecordStore creates an empty store.
func NewRecordStore() *RecordStore {
	return &RecordStore{data: make(map[string]record.Record)}
}

// FailPut makes every subsequent Put return err. Pass nil to clear.
func (s *RecordStore) FailPut(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putErr = err
}

// FailDelete makes every subsequent Delete return err. Pass nil to clear.
func (s *RecordStore) FailDelete(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delErr = err
}

// FailScan makes every subsequent Scan return err. Pass nil to clear.
func (s *RecordStore) FailScan(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scanErr = err
}

// Put stores r under key.
func (s *RecordStore) Put(ctx context.Context, key string, r record.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.data[key] = r
	s.puts++
	return nil
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *RecordStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.delErr != nil {
		return s.delErr
	}
	delete(s.data, key)
	s.deletes++
	return nil
}

// Scan returns the records whose key starts with prefix, in key order.
func (s *RecordStore) Scan(ctx context.Context, prefix string) ([]record.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scanErr != nil {
		return nil, s.scanErr
	}
	var out []record.Record
	for _, k := range slices.Sorted(maps.Keys(s.data)) {
		if strings.HasPrefix(k, prefix) {
			out = append(out, s.data[k])
		}
	}
	return out, nil
}

// Keys returns every stored key in order.
func (s *RecordStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.data))
}

// Writes returns how many Put and Delete calls succeeded.
func (s *RecordStore) Writes() (puts, deletes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts, s.deletes
}
