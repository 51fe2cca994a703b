package stashdb

import (
	"cmp"
	"iter"
)

// Scans call fn synchronously for each matching record in ascending order of
// the indexed value (ties in ascending id order) until fn returns false.
// Calling Put or Erase from inside fn is a contract violation, the
// result is unspecified.

// RangeByTimestamp scans records with low <= Timestamp <= high
func (s *Stash) RangeByTimestamp(low, high int, fn Consumer) {
	if fn == nil {
		return
	}
	s.timestamps.scan(low, high, resolve[int](s, timestampIndex, fn))
}

// RangeByKarma scans records with low <= Karma <= high
func (s *Stash) RangeByKarma(low, high int, fn Consumer) {
	if fn == nil {
		return
	}
	s.karmas.scan(low, high, resolve[int](s, karmaIndex, fn))
}

// AllByUser scans records with User == user
func (s *Stash) AllByUser(user string, fn Consumer) {
	if fn == nil {
		return
	}
	exact(s.users, user, resolve[string](s, userIndex, fn))
}

// Timestamps is the lazy form of RangeByTimestamp.
// Every call returns a new single-pass sequence.
func (s *Stash) Timestamps(low, high int) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		s.RangeByTimestamp(low, high, yield)
	}
}

// Karmas is the lazy form of RangeByKarma
func (s *Stash) Karmas(low, high int) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		s.RangeByKarma(low, high, yield)
	}
}

// ByUser is the lazy form of AllByUser
func (s *Stash) ByUser(user string) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		s.AllByUser(user, yield)
	}
}

// resolve turns index entries into records. An entry whose id is not
// stored should never exist; it is logged and skipped.
func resolve[V cmp.Ordered](s *Stash, index string, fn Consumer) func(V, string) bool {
	return func(value V, id string) bool {
		rec, ok := s.records[id]
		if !ok {
			s.sugar.Warnw("skip index entry without record", "index", index, "value", value, "id", id)
			return true
		}
		return fn(rec)
	}
}
