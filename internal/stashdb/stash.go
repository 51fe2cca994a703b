package stashdb

import (
	"cmp"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

const (
	timestampIndex = "timestamp"
	karmaIndex     = "karma"
	userIndex      = "user"
)

var (
	ErrIndexMismatch = errors.New("index does not match records")
)

// Stash the in-memory record store with secondary indexes on timestamp,
// karma and user. The records map is the single source of truth, the
// indexes only hold (value, id) back-references.
//
// IMPORTANT: does not provide thread safety. Put and Erase must be
// serialized with each other and with running scans.
type Stash struct {
	records map[string]Record

	timestamps orderedIndex[int]
	karmas     orderedIndex[int]
	users      orderedIndex[string]

	sugar *zap.SugaredLogger
}

func NewStash(opts ...Option) *Stash {
	o := options{
		logger:    zap.NewNop(),
		indexKind: RedBlackTreeIndex,
	}
	for _, opt := range opts {
		opt(&o)
	}
	sugar := o.logger.Sugar()

	kind, err := ParseIndexKind(string(o.indexKind))
	if err != nil {
		sugar.Warnw("falling back to the default index", "error", err, "index", RedBlackTreeIndex)
		kind = RedBlackTreeIndex
	}

	return &Stash{
		records:    make(map[string]Record),
		timestamps: newIndex[int](kind),
		karmas:     newIndex[int](kind),
		users:      newIndex[string](kind),
		sugar:      sugar,
	}
}

// Put stores rec, returns false without side effects if rec.ID is already stored
func (s *Stash) Put(rec Record) bool {
	if _, ok := s.records[rec.ID]; ok {
		s.sugar.Debugw("put rejected", "id", rec.ID)
		return false
	}

	s.records[rec.ID] = rec
	s.timestamps.add(rec.Timestamp, rec.ID)
	s.karmas.add(rec.Karma, rec.ID)
	s.users.add(rec.User, rec.ID)

	s.sugar.Debugw("put", "record", rec)
	return true
}

// GetByID returns a copy of the stored record
func (s *Stash) GetByID(id string) (Record, bool) {
	rec, ok := s.records[id]
	return rec, ok
}

// Erase removes the record and its index entries, returns false if id is not stored
func (s *Stash) Erase(id string) bool {
	rec, ok := s.records[id]
	if !ok {
		return false
	}

	s.removeEntry(timestampIndex, s.timestamps.remove(rec.Timestamp, id), id)
	s.removeEntry(karmaIndex, s.karmas.remove(rec.Karma, id), id)
	s.removeEntry(userIndex, s.users.remove(rec.User, id), id)
	delete(s.records, id)

	s.sugar.Debugw("erase", "id", id)
	return true
}

func (s *Stash) removeEntry(index string, removed bool, id string) {
	if !removed {
		s.sugar.Warnw("index entry not found on erase", "index", index, "id", id)
	}
}

// Len returns the number of stored records
func (s *Stash) Len() int {
	return len(s.records)
}

// CheckConsistency verifies that every stored record has exactly one entry
// with its current value in each index and that no index references an
// id that is not stored.
func (s *Stash) CheckConsistency() error {
	if err := checkIndex(s, timestampIndex, s.timestamps, func(r Record) int { return r.Timestamp }); err != nil {
		return err
	}
	if err := checkIndex(s, karmaIndex, s.karmas, func(r Record) int { return r.Karma }); err != nil {
		return err
	}
	return checkIndex(s, userIndex, s.users, func(r Record) string { return r.User })
}

func checkIndex[V cmp.Ordered](s *Stash, name string, idx orderedIndex[V], attr func(Record) V) error {
	var err error
	idx.ascend(func(value V, id string) bool {
		rec, ok := s.records[id]
		if !ok {
			err = fmt.Errorf("%w: %s index references missing id %q", ErrIndexMismatch, name, id)
			return false
		}
		if attr(rec) != value {
			err = fmt.Errorf("%w: %s index holds %v for id %q, record has %v",
				ErrIndexMismatch, name, value, id, attr(rec))
			return false
		}
		return true
	})
	if err != nil {
		return err
	}

	// entries are unique pairs and each matches its record, so equal counts
	// mean one entry per record
	if idx.len() != len(s.records) {
		return fmt.Errorf("%w: %s index holds %d entries for %d records",
			ErrIndexMismatch, name, idx.len(), len(s.records))
	}
	return nil
}
