// Package checker drives stashes with a seeded random workload and compares
// every result with an independent reference model.
package checker

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/S0me0neR0man/indexstash/internal/config"
	"github.com/S0me0neR0man/indexstash/internal/stashdb"
)

var (
	ErrMismatch = errors.New("stash does not match model")
)

// Report counts what the workers did
type Report struct {
	Operations int
	Ops        map[OpType]int
	Rejected   int // puts refused because the id was already stored
	Yielded    int // records passed to scan consumers
	Checks     int
	Records    int // records stored when the workers stopped
}

func newReport() Report {
	return Report{Ops: make(map[OpType]int)}
}

func (r *Report) merge(o Report) {
	r.Operations += o.Operations
	for op, n := range o.Ops {
		r.Ops[op] += n
	}
	r.Rejected += o.Rejected
	r.Yielded += o.Yielded
	r.Checks += o.Checks
	r.Records += o.Records
}

// Checker runs conf.Workers independent workers. Every worker owns its stash,
// so no stash is shared between goroutines.
type Checker struct {
	conf   *config.Config
	kind   stashdb.IndexKind
	logger *zap.Logger
	sugar  *zap.SugaredLogger
}

func NewChecker(conf *config.Config, logger *zap.Logger) (*Checker, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	kind, err := stashdb.ParseIndexKind(conf.Index)
	if err != nil {
		return nil, err
	}
	return &Checker{
		conf:   conf,
		kind:   kind,
		logger: logger,
		sugar:  logger.Sugar(),
	}, nil
}

// Run blocks until every worker finished its operations, one of them found a
// mismatch or ctx is done.
func (c *Checker) Run(ctx context.Context) (Report, error) {
	reports := make([]Report, c.conf.Workers)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < c.conf.Workers; i++ {
		w := c.newWorker(i)
		g.Go(func() error {
			err := w.run(ctx)
			reports[w.id] = w.report
			return err
		})
	}
	err := g.Wait()

	total := newReport()
	for _, r := range reports {
		total.merge(r)
	}
	c.sugar.Infow("checker finished",
		"workers", c.conf.Workers,
		"operations", total.Operations,
		"checks", total.Checks,
		"error", err)
	return total, err
}

type worker struct {
	id     int
	conf   *config.Config
	rnd    *rand.Rand
	stash  *stashdb.Stash
	model  map[string]stashdb.Record
	ids    []string
	report Report
	sugar  *zap.SugaredLogger
}

func (c *Checker) newWorker(id int) *worker {
	logger := c.logger.With(zap.Int("worker", id))
	w := &worker{
		id:     id,
		conf:   c.conf,
		rnd:    rand.New(rand.NewSource(c.conf.Seed + int64(id))),
		stash:  stashdb.NewStash(stashdb.WithLogger(logger), stashdb.WithIndexKind(c.kind)),
		model:  make(map[string]stashdb.Record),
		ids:    make([]string, c.conf.IDSpace),
		report: newReport(),
		sugar:  logger.Sugar(),
	}
	for i := range w.ids {
		w.ids[i] = stashdb.NewID()
	}
	return w
}

func (w *worker) run(ctx context.Context) error {
	w.sugar.Infow("worker started", "operations", w.conf.Operations)

	for i := 0; i < w.conf.Operations; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		step := w.source()
		w.sugar.Debugw("step", "n", i, "step", step)
		if err := states[step.Op](w, step); err != nil {
			w.sugar.Errorw("step failed", "n", i, "step", step, "error", err)
			return fmt.Errorf("worker %d step %d (%v): %w", w.id, i, step, err)
		}
		w.report.Operations++
		w.report.Ops[step.Op]++

		if w.conf.CheckInterval > 0 && (i+1)%w.conf.CheckInterval == 0 {
			if err := w.checkConsistency(); err != nil {
				return fmt.Errorf("worker %d after step %d: %w", w.id, i, err)
			}
		}
	}

	if err := w.checkConsistency(); err != nil {
		return fmt.Errorf("worker %d: %w", w.id, err)
	}
	w.report.Records = w.stash.Len()

	w.sugar.Infow("worker done", "records", w.report.Records, "rejected", w.report.Rejected)
	return nil
}

func (w *worker) checkConsistency() error {
	w.report.Checks++
	if err := w.stash.CheckConsistency(); err != nil {
		return err
	}
	if w.stash.Len() != len(w.model) {
		return fmt.Errorf("%w: stash holds %d records, model %d", ErrMismatch, w.stash.Len(), len(w.model))
	}
	for id, want := range w.model {
		got, ok := w.stash.GetByID(id)
		if !ok || got != want {
			return fmt.Errorf("%w: record %s is %v (found %v), want %v", ErrMismatch, id, got, ok, want)
		}
	}
	return nil
}

func (w *worker) newRecord(id string) stashdb.Record {
	return stashdb.Record{
		ID:        id,
		Title:     "title " + strconv.Itoa(w.rnd.Intn(1_000_000)),
		User:      w.user(),
		Timestamp: w.conf.TimestampBase + w.rnd.Intn(w.conf.TimestampSpan),
		Karma:     w.rnd.Intn(2*w.conf.KarmaSpan+1) - w.conf.KarmaSpan,
	}
}

func (w *worker) user() string {
	return "user" + strconv.Itoa(w.rnd.Intn(w.conf.Users))
}

func (w *worker) randomID() string {
	return w.ids[w.rnd.Intn(len(w.ids))]
}

// storedID returns an id from the model, false if a few tries found none
func (w *worker) storedID() (string, bool) {
	if len(w.model) == 0 {
		return "", false
	}
	for i := 0; i < 8; i++ {
		id := w.randomID()
		if _, ok := w.model[id]; ok {
			return id, true
		}
	}
	return "", false
}
