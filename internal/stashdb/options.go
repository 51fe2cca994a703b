package stashdb

import (
	"cmp"
	"fmt"

	"go.uber.org/zap"
)

// IndexKind selects the ordered structure behind the secondary indexes.
type IndexKind string

const (
	RedBlackTreeIndex IndexKind = "rbtree"
	BTreeIndex        IndexKind = "btree"
)

// ParseIndexKind converts a configuration string into an IndexKind.
// The empty string selects RedBlackTreeIndex.
func ParseIndexKind(s string) (IndexKind, error) {
	switch IndexKind(s) {
	case "", RedBlackTreeIndex:
		return RedBlackTreeIndex, nil
	case BTreeIndex:
		return BTreeIndex, nil
	}
	return "", fmt.Errorf("unknown index kind %q", s)
}

type options struct {
	logger    *zap.Logger
	indexKind IndexKind
}

// Option configures a Stash.
type Option func(*options)

// WithLogger sets the logger, zap.NewNop() by default.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithIndexKind sets the index backend, RedBlackTreeIndex by default.
// NewStash logs a warning and keeps RedBlackTreeIndex for a kind that
// ParseIndexKind does not accept.
func WithIndexKind(kind IndexKind) Option {
	return func(o *options) {
		o.indexKind = kind
	}
}

func newIndex[V cmp.Ordered](kind IndexKind) orderedIndex[V] {
	switch kind {
	case BTreeIndex:
		return newBTreeIndex[V](btreeDegree)
	case RedBlackTreeIndex:
		return newTreeIndex[V]()
	}
	panic(fmt.Sprintf("unknown index kind %q", kind))
}
