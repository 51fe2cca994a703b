package stashdb

import (
	"cmp"

	"github.com/google/btree"
)

const btreeDegree = 32

// bTreeIndex is an orderedIndex on top of google/btree
type bTreeIndex[V cmp.Ordered] struct {
	tree *btree.BTreeG[entry[V]]
}

func newBTreeIndex[V cmp.Ordered](degree int) *bTreeIndex[V] {
	return &bTreeIndex[V]{
		tree: btree.NewG(degree, func(a, b entry[V]) bool {
			return compareEntries(a, b) < 0
		}),
	}
}

func (ix *bTreeIndex[V]) add(value V, id string) bool {
	_, replaced := ix.tree.ReplaceOrInsert(entry[V]{value: value, id: id})
	return !replaced
}

func (ix *bTreeIndex[V]) remove(value V, id string) bool {
	_, found := ix.tree.Delete(entry[V]{value: value, id: id})
	return found
}

func (ix *bTreeIndex[V]) scan(low, high V, fn func(V, string) bool) {
	if cmp.Less(high, low) {
		return
	}
	ix.tree.AscendGreaterOrEqual(entry[V]{value: low}, func(e entry[V]) bool {
		if cmp.Less(high, e.value) {
			return false
		}
		return fn(e.value, e.id)
	})
}

func (ix *bTreeIndex[V]) ascend(fn func(V, string) bool) {
	ix.tree.Ascend(func(e entry[V]) bool {
		return fn(e.value, e.id)
	})
}

func (ix *bTreeIndex[V]) len() int {
	return ix.tree.Len()
}
