package stashdb

// iterator holding the iterators state
type iterator[K any] struct {
	tree *redBlackTree[K]
	node *redBlackNode[K]
	pos  position
}

type position byte

const (
	begin, onmyway, end position = 0, 1, 2
)

// iterator returns an iterator positioned one-before-first
//
// IMPORTANT: the tree must not be modified while the iterator is in use
func (t *redBlackTree[K]) iterator() iterator[K] {
	return iterator[K]{tree: t, node: nil, pos: begin}
}

// iteratorAt returns an iterator at node, one-past-the-end if node is nil
//
// IMPORTANT: the tree must not be modified while the iterator is in use
func (t *redBlackTree[K]) iteratorAt(node *redBlackNode[K]) iterator[K] {
	if node == nil {
		return iterator[K]{tree: t, node: nil, pos: end}
	}
	return iterator[K]{tree: t, node: node, pos: onmyway}
}

// seek returns an iterator at the first key >= key
func (t *redBlackTree[K]) seek(key K) iterator[K] {
	return t.iteratorAt(t.ceiling(key))
}

// valid reports whether the iterator points to an element
func (it *iterator[K]) valid() bool {
	return it.pos == onmyway
}

// key returns the current key, the iterator must be valid
func (it *iterator[K]) key() K {
	return it.node.key
}

// next moves the iterator to the next element
func (it *iterator[K]) next() bool {
	if it.pos == end {
		it.node = nil
		return false
	}

	if it.pos == begin {
		minNode := it.min()
		if minNode == nil {
			it.node = nil
			it.pos = end
			return false
		}
		it.node = minNode
		it.pos = onmyway
		return true
	}

	if it.node.right != nil {
		it.node = it.node.right
		for it.node.left != nil {
			it.node = it.node.left
		}
		it.pos = onmyway
		return true
	}

	for it.node.parent != nil {
		node := it.node
		it.node = it.node.parent
		if node == it.node.left {
			it.pos = onmyway
			return true
		}
	}

	it.pos = end
	it.node = nil
	return false
}

// min returns the minimal node or nil
func (it *iterator[K]) min() *redBlackNode[K] {
	var minNode *redBlackNode[K]
	for curNode := it.tree.root; curNode != nil; curNode = curNode.left {
		minNode = curNode
	}
	return minNode
}
