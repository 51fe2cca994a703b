package checker

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/S0me0neR0man/indexstash/internal/stashdb"
)

type OpType string

const (
	OpPut            OpType = "put"
	OpPutDuplicate   OpType = "put_duplicate"
	OpGet            OpType = "get"
	OpErase          OpType = "erase"
	OpEraseMissing   OpType = "erase_missing"
	OpReplace        OpType = "replace"
	OpRangeTimestamp OpType = "range_timestamp"
	OpRangeKarma     OpType = "range_karma"
	OpByUser         OpType = "by_user"
)

// Step is one generated operation
type Step struct {
	Op     OpType
	Record stashdb.Record
	Low    int
	High   int
	Limit  int // 0 - consume everything
}

func (s Step) String() string {
	switch s.Op {
	case OpRangeTimestamp, OpRangeKarma:
		return fmt.Sprintf("%s [%d, %d] limit=%d", s.Op, s.Low, s.High, s.Limit)
	case OpByUser:
		return fmt.Sprintf("%s %s limit=%d", s.Op, s.Record.User, s.Limit)
	}
	return fmt.Sprintf("%s %v", s.Op, s.Record)
}

// doFunc applies the step to the stash and the model and verifies the outcome
type doFunc func(w *worker, step Step) error

var states = map[OpType]doFunc{
	OpPut:            doPut,
	OpPutDuplicate:   doPut,
	OpGet:            doGet,
	OpErase:          doErase,
	OpEraseMissing:   doErase,
	OpReplace:        doReplace,
	OpRangeTimestamp: doScan,
	OpRangeKarma:     doScan,
	OpByUser:         doScan,
}

// source generates the next step
func (w *worker) source() Step {
	n := w.rnd.Intn(100)
	switch {
	case n < 30:
		return Step{Op: OpPut, Record: w.newRecord(w.randomID())}
	case n < 35:
		if id, ok := w.storedID(); ok {
			return Step{Op: OpPutDuplicate, Record: w.newRecord(id)}
		}
		return Step{Op: OpPut, Record: w.newRecord(w.randomID())}
	case n < 48:
		return Step{Op: OpGet, Record: stashdb.Record{ID: w.randomID()}}
	case n < 62:
		return Step{Op: OpErase, Record: stashdb.Record{ID: w.randomID()}}
	case n < 65:
		return Step{Op: OpEraseMissing, Record: stashdb.Record{ID: "missing-" + stashdb.NewID()}}
	case n < 72:
		if id, ok := w.storedID(); ok {
			return Step{Op: OpReplace, Record: w.newRecord(id)}
		}
		return Step{Op: OpGet, Record: stashdb.Record{ID: w.randomID()}}
	case n < 82:
		low, high := w.bounds(w.conf.TimestampBase, w.conf.TimestampSpan)
		return Step{Op: OpRangeTimestamp, Low: low, High: high, Limit: w.limit()}
	case n < 92:
		low, high := w.bounds(-w.conf.KarmaSpan, 2*w.conf.KarmaSpan+1)
		return Step{Op: OpRangeKarma, Low: low, High: high, Limit: w.limit()}
	default:
		return Step{Op: OpByUser, Record: stashdb.Record{User: w.user()}, Limit: w.limit()}
	}
}

// bounds returns a random range inside [base, base+span), one in ten inverted
func (w *worker) bounds(base, span int) (int, int) {
	low := base + w.rnd.Intn(span)
	high := low + w.rnd.Intn(span/4+1)
	if w.rnd.Intn(10) == 0 {
		return high + 1, low
	}
	return low, high
}

func (w *worker) limit() int {
	if w.rnd.Intn(2) == 0 {
		return 0
	}
	return 1 + w.rnd.Intn(5)
}

func doPut(w *worker, step Step) error {
	rec := step.Record
	_, exists := w.model[rec.ID]
	if ok := w.stash.Put(rec); ok == exists {
		return fmt.Errorf("%w: put returned %v, id stored before: %v", ErrMismatch, ok, exists)
	}
	if exists {
		w.report.Rejected++
		return nil
	}
	w.model[rec.ID] = rec
	return nil
}

func doGet(w *worker, step Step) error {
	want, wantOK := w.model[step.Record.ID]
	got, ok := w.stash.GetByID(step.Record.ID)
	if ok != wantOK || got != want {
		return fmt.Errorf("%w: get returned %v %v, want %v %v", ErrMismatch, got, ok, want, wantOK)
	}
	return nil
}

func doErase(w *worker, step Step) error {
	id := step.Record.ID
	_, exists := w.model[id]
	if ok := w.stash.Erase(id); ok != exists {
		return fmt.Errorf("%w: erase returned %v, id stored before: %v", ErrMismatch, ok, exists)
	}
	delete(w.model, id)

	if _, ok := w.stash.GetByID(id); ok {
		return fmt.Errorf("%w: %s readable after erase", ErrMismatch, id)
	}
	return nil
}

// doReplace erases a stored record and puts new values under the same id,
// then makes sure no scan over the old values still yields it
func doReplace(w *worker, step Step) error {
	rec := step.Record
	old, ok := w.model[rec.ID]
	if !ok {
		return fmt.Errorf("%w: replace of unknown id %s", ErrMismatch, rec.ID)
	}
	if err := doErase(w, step); err != nil {
		return err
	}
	if err := doPut(w, step); err != nil {
		return err
	}

	checks := []struct {
		name     string
		scan     func(stashdb.Consumer)
		wantSeen bool
	}{
		{"old timestamp", func(fn stashdb.Consumer) { w.stash.RangeByTimestamp(old.Timestamp, old.Timestamp, fn) }, old.Timestamp == rec.Timestamp},
		{"old karma", func(fn stashdb.Consumer) { w.stash.RangeByKarma(old.Karma, old.Karma, fn) }, old.Karma == rec.Karma},
		{"old user", func(fn stashdb.Consumer) { w.stash.AllByUser(old.User, fn) }, old.User == rec.User},
		{"new karma", func(fn stashdb.Consumer) { w.stash.RangeByKarma(rec.Karma, rec.Karma, fn) }, true},
	}
	for _, c := range checks {
		seen, stale := false, false
		c.scan(func(r stashdb.Record) bool {
			if r.ID == rec.ID {
				seen = true
				stale = r != rec
			}
			return !stale
		})
		if stale {
			return fmt.Errorf("%w: %s scan yielded stale values for %s", ErrMismatch, c.name, rec.ID)
		}
		if seen != c.wantSeen {
			return fmt.Errorf("%w: %s scan saw %s: %v, want %v", ErrMismatch, c.name, rec.ID, seen, c.wantSeen)
		}
	}
	return nil
}

func doScan(w *worker, step Step) error {
	var (
		scan func(stashdb.Consumer)
		want []stashdb.Record
	)
	switch step.Op {
	case OpRangeTimestamp:
		scan = func(fn stashdb.Consumer) { w.stash.RangeByTimestamp(step.Low, step.High, fn) }
		want = expect(w.model, func(r stashdb.Record) int { return r.Timestamp }, step.Low, step.High, step.Limit)
	case OpRangeKarma:
		scan = func(fn stashdb.Consumer) { w.stash.RangeByKarma(step.Low, step.High, fn) }
		want = expect(w.model, func(r stashdb.Record) int { return r.Karma }, step.Low, step.High, step.Limit)
	case OpByUser:
		user := step.Record.User
		scan = func(fn stashdb.Consumer) { w.stash.AllByUser(user, fn) }
		want = expect(w.model, func(r stashdb.Record) string { return r.User }, user, user, step.Limit)
	default:
		return fmt.Errorf("not a scan: %s", step.Op)
	}

	var got []stashdb.Record
	scan(func(r stashdb.Record) bool {
		got = append(got, r)
		return step.Limit == 0 || len(got) < step.Limit
	})
	w.report.Yielded += len(got)

	if !slices.Equal(got, want) {
		return fmt.Errorf("%w: scan yielded %d records %v, want %d records %v",
			ErrMismatch, len(got), got, len(want), want)
	}
	return nil
}

// expect computes a scan result from the model: records with low <= attr <= high
// ordered by attr then id, cut to limit
func expect[V cmp.Ordered](model map[string]stashdb.Record, attr func(stashdb.Record) V, low, high V, limit int) []stashdb.Record {
	var res []stashdb.Record
	for _, r := range model {
		v := attr(r)
		if !cmp.Less(v, low) && !cmp.Less(high, v) {
			res = append(res, r)
		}
	}
	slices.SortFunc(res, func(a, b stashdb.Record) int {
		if c := cmp.Compare(attr(a), attr(b)); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res
}
