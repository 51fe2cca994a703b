package checker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/S0me0neR0man/indexstash/internal/config"
	"github.com/S0me0neR0man/indexstash/internal/stashdb"
)

func testConfig() *config.Config {
	conf := config.Default()
	conf.Operations = 2000
	conf.IDSpace = 60
	conf.Users = 4
	conf.TimestampSpan = 40
	conf.KarmaSpan = 20
	conf.CheckInterval = 100
	return conf
}

func TestChecker_Run(t *testing.T) {
	for _, index := range []string{"rbtree", "btree"} {
		t.Run(index, func(t *testing.T) {
			conf := testConfig()
			conf.Index = index
			conf.Workers = 3

			c, err := NewChecker(conf, zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel)))
			require.NoError(t, err)

			report, err := c.Run(context.Background())
			require.NoError(t, err)
			require.Equal(t, conf.Operations*conf.Workers, report.Operations)
			require.Equal(t, (conf.Operations/conf.CheckInterval+1)*conf.Workers, report.Checks)
			require.Positive(t, report.Ops[OpPut])
			require.Positive(t, report.Ops[OpReplace])
			require.Positive(t, report.Ops[OpRangeKarma])
			require.Positive(t, report.Rejected)
			require.Positive(t, report.Yielded)
		})
	}
}

func TestChecker_Canceled(t *testing.T) {
	c, err := NewChecker(testConfig(), zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := c.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, report.Operations)
}

func TestNewChecker_InvalidConfig(t *testing.T) {
	conf := testConfig()
	conf.Index = "skiplist"
	_, err := NewChecker(conf, zap.NewNop())
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestStates_DetectBrokenStash(t *testing.T) {
	c, err := NewChecker(testConfig(), zap.NewNop())
	require.NoError(t, err)
	w := c.newWorker(0)

	rec := stashdb.Record{ID: w.ids[0], User: "user1", Timestamp: 5, Karma: 3}
	require.NoError(t, doPut(w, Step{Op: OpPut, Record: rec}))
	require.NoError(t, doPut(w, Step{Op: OpPutDuplicate, Record: rec}))
	require.Equal(t, 1, w.report.Rejected)
	require.NoError(t, doScan(w, Step{Op: OpByUser, Record: stashdb.Record{User: "user1"}}))

	// the model forgets a record the stash still holds
	delete(w.model, rec.ID)
	require.ErrorIs(t, doGet(w, Step{Op: OpGet, Record: rec}), ErrMismatch)
	require.ErrorIs(t, doScan(w, Step{Op: OpRangeKarma, Low: 0, High: 10}), ErrMismatch)
	require.ErrorIs(t, w.checkConsistency(), ErrMismatch)
}

func TestStates_Replace(t *testing.T) {
	c, err := NewChecker(testConfig(), zap.NewNop())
	require.NoError(t, err)
	w := c.newWorker(0)

	id := w.ids[1]
	require.NoError(t, doPut(w, Step{Op: OpPut, Record: stashdb.Record{ID: id, User: "a", Timestamp: 1, Karma: 10}}))
	require.NoError(t, doReplace(w, Step{Op: OpReplace, Record: stashdb.Record{ID: id, User: "b", Timestamp: 2, Karma: -10}}))

	got, ok := w.stash.GetByID(id)
	require.True(t, ok)
	require.Equal(t, "b", got.User)
	require.NoError(t, w.checkConsistency())

	require.ErrorIs(t, doReplace(w, Step{Op: OpReplace, Record: stashdb.Record{ID: "unknown"}}), ErrMismatch)
}

func TestExpect(t *testing.T) {
	model := map[string]stashdb.Record{
		"c": {ID: "c", Karma: 1},
		"a": {ID: "a", Karma: 1},
		"b": {ID: "b", Karma: 0},
		"d": {ID: "d", Karma: 9},
	}
	karma := func(r stashdb.Record) int { return r.Karma }

	got := expect(model, karma, 0, 1, 0)
	require.Equal(t, []string{"b", "a", "c"}, []string{got[0].ID, got[1].ID, got[2].ID})
	require.Len(t, expect(model, karma, 0, 1, 2), 2)
	require.Empty(t, expect(model, karma, 5, 1, 0))
}
