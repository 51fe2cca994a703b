package stashdb

import (
	"cmp"
	"fmt"
	"strings"
)

// entry is one (value, id) pair of a secondary index.
// Entries are ordered by value, ids sharing a value are ordered by id.
type entry[V cmp.Ordered] struct {
	value V
	id    string
}

func compareEntries[V cmp.Ordered](a, b entry[V]) int {
	if c := cmp.Compare(a.value, b.value); c != 0 {
		return c
	}
	return strings.Compare(a.id, b.id)
}

func (e entry[V]) String() string {
	return fmt.Sprintf("%v/%s", e.value, e.id)
}

// orderedIndex maps attribute values to the ids sharing them.
// It holds back-references only and is never a source of truth.
type orderedIndex[V cmp.Ordered] interface {
	// add inserts the (value, id) pair, false if the pair is already present
	add(value V, id string) bool
	// remove deletes exactly the (value, id) pair, other ids at value stay
	remove(value V, id string) bool
	// scan calls fn for every pair with low <= value <= high in ascending order
	// until fn returns false. low > high yields nothing.
	scan(low, high V, fn func(V, string) bool)
	// ascend calls fn for every pair in ascending order until fn returns false
	ascend(fn func(V, string) bool)
	len() int
}

// exact is the degenerate range scan low == high == value
func exact[V cmp.Ordered](idx orderedIndex[V], value V, fn func(V, string) bool) {
	idx.scan(value, value, fn)
}

// treeIndex is an orderedIndex on top of redBlackTree
type treeIndex[V cmp.Ordered] struct {
	tree *redBlackTree[entry[V]]
}

func newTreeIndex[V cmp.Ordered]() *treeIndex[V] {
	return &treeIndex[V]{tree: newRedBlackTree(compareEntries[V])}
}

func (ix *treeIndex[V]) add(value V, id string) bool {
	return ix.tree.put(entry[V]{value: value, id: id})
}

func (ix *treeIndex[V]) remove(value V, id string) bool {
	return ix.tree.remove(entry[V]{value: value, id: id})
}

func (ix *treeIndex[V]) scan(low, high V, fn func(V, string) bool) {
	if cmp.Less(high, low) {
		return
	}
	// "" is the smallest id, so the seek lands on the first pair at low or above
	it := ix.tree.seek(entry[V]{value: low})
	for ; it.valid(); it.next() {
		e := it.key()
		if cmp.Less(high, e.value) {
			return
		}
		if !fn(e.value, e.id) {
			return
		}
	}
}

func (ix *treeIndex[V]) ascend(fn func(V, string) bool) {
	it := ix.tree.iterator()
	for it.next() {
		e := it.key()
		if !fn(e.value, e.id) {
			return
		}
	}
}

func (ix *treeIndex[V]) len() int {
	return ix.tree.sizeof()
}
