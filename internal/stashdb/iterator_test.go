package stashdb

import (
	"cmp"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_iterator_next(t *testing.T) {
	tree := newRedBlackTree(cmp.Compare[int])
	require.NotNil(t, tree)
	require.EqualValues(t, tree.sizeof(), 0, "not empty")

	tree.put(1)
	it := tree.iterator()
	require.EqualValues(t, it.pos, begin)
	require.EqualValues(t, true, it.node == nil)

	flag := it.next()
	require.EqualValues(t, it.pos, onmyway)
	require.EqualValues(t, true, flag)
	require.EqualValues(t, true, it.node != nil)

	flag = it.next()
	require.EqualValues(t, it.pos, end)
	require.EqualValues(t, false, flag)
	require.EqualValues(t, true, it.node == nil)

	it = tree.iterator()
	require.True(t, it.next())
	require.Equal(t, 1, it.key())
	require.True(t, it.valid())
}

func Test_iterator_inOrder(t *testing.T) {
	tree := newRedBlackTree(cmp.Compare[int])
	for _, k := range []int{5, 3, 8, 1, 4, 7, 9} {
		tree.put(k)
	}

	it := tree.iterator()
	var got []int
	for it.next() {
		got = append(got, it.key())
	}
	require.Equal(t, []int{1, 3, 4, 5, 7, 8, 9}, got)
	require.EqualValues(t, end, it.pos)
	require.False(t, it.next())
}

func Test_iterator_empty(t *testing.T) {
	tree := newRedBlackTree(cmp.Compare[int])

	it := tree.iterator()
	require.False(t, it.next())
	require.EqualValues(t, end, it.pos)

	seek := tree.seek(0)
	require.False(t, seek.valid())
}

func Test_redBlackTree_seek(t *testing.T) {
	tree := newRedBlackTree(cmp.Compare[int])
	for _, k := range []int{2, 4, 6, 8, 10} {
		tree.put(k)
	}

	it := tree.seek(5)
	var got []int
	for ; it.valid(); it.next() {
		got = append(got, it.key())
	}
	require.Equal(t, []int{6, 8, 10}, got)

	it = tree.seek(11)
	require.False(t, it.valid())
}
