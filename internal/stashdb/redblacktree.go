package stashdb

type color bool

const (
	black, red color = true, false
)

// redBlackTree ordered set of unique keys
//
// IMPORTANT: does not provide thread safety
type redBlackTree[K any] struct {
	root    *redBlackNode[K]
	size    int
	compare func(a, b K) int
}

// redBlackNode is a tree element
type redBlackNode[K any] struct {
	key    K
	color  color
	left   *redBlackNode[K]
	right  *redBlackNode[K]
	parent *redBlackNode[K]
}

func newRedBlackTree[K any](compare func(a, b K) int) *redBlackTree[K] {
	return &redBlackTree[K]{compare: compare}
}

// put inserts key into the tree, returns false if key already exists
func (t *redBlackTree[K]) put(key K) bool {
	if t.root == nil {
		t.root = &redBlackNode[K]{key: key, color: black}
		t.size++
		return true
	}

	curNode := t.root
	for {
		c := t.compare(key, curNode.key)
		switch {
		case c == 0:
			return false
		case c < 0:
			if curNode.left == nil {
				curNode.left = &redBlackNode[K]{key: key, color: red, parent: curNode}
				t.insertCase1(curNode.left)
				t.size++
				return true
			}
			curNode = curNode.left
		default:
			if curNode.right == nil {
				curNode.right = &redBlackNode[K]{key: key, color: red, parent: curNode}
				t.insertCase1(curNode.right)
				t.size++
				return true
			}
			curNode = curNode.right
		}
	}
}

// remove the node from the tree, returns false if key not found
func (t *redBlackTree[K]) remove(key K) bool {
	delNode := t.lookup(key)
	if delNode == nil {
		return false
	}

	if delNode.left != nil && delNode.right != nil {
		replacementNode := delNode.left.maximumNode()
		delNode.key = replacementNode.key
		delNode = replacementNode
	}

	var childNode *redBlackNode[K]
	if delNode.right == nil {
		childNode = delNode.left
	} else {
		childNode = delNode.right
	}
	if delNode.color == black {
		if nodeColor(childNode) == red {
			childNode.color = black
		} else {
			// delNode is still linked and stands in for its nil child
			t.deleteCase1(delNode)
		}
	}
	t.replaceNode(delNode, childNode)
	if delNode.parent == nil && childNode != nil {
		childNode.color = black
	}

	t.size--
	return true
}

// sizeof returns number of nodes
func (t *redBlackTree[K]) sizeof() int {
	return t.size
}

// ceiling returns the smallest node with key >= the input key, nil if there is none
func (t *redBlackTree[K]) ceiling(key K) *redBlackNode[K] {
	var foundNode *redBlackNode[K]
	for curNode := t.root; curNode != nil; {
		c := t.compare(key, curNode.key)
		switch {
		case c == 0:
			return curNode
		case c < 0:
			foundNode = curNode
			curNode = curNode.left
		default:
			curNode = curNode.right
		}
	}
	return foundNode
}

// lookup searches the node in the tree, nil if not found
func (t *redBlackTree[K]) lookup(key K) *redBlackNode[K] {
	curNode := t.root
	for curNode != nil {
		c := t.compare(key, curNode.key)
		switch {
		case c == 0:
			return curNode
		case c < 0:
			curNode = curNode.left
		default:
			curNode = curNode.right
		}
	}
	return nil
}

func (n *redBlackNode[K]) grandparent() *redBlackNode[K] {
	if n != nil && n.parent != nil {
		return n.parent.parent
	}
	return nil
}

func (n *redBlackNode[K]) uncle() *redBlackNode[K] {
	if n == nil || n.parent == nil || n.parent.parent == nil {
		return nil
	}
	return n.parent.sibling()
}

func (n *redBlackNode[K]) sibling() *redBlackNode[K] {
	if n == nil || n.parent == nil {
		return nil
	}
	if n == n.parent.left {
		return n.parent.right
	}
	return n.parent.left
}

func (t *redBlackTree[K]) rotateLeft(node *redBlackNode[K]) {
	right := node.right
	t.replaceNode(node, right)
	node.right = right.left
	if right.left != nil {
		right.left.parent = node
	}
	right.left = node
	node.parent = right
}

func (t *redBlackTree[K]) rotateRight(node *redBlackNode[K]) {
	left := node.left
	t.replaceNode(node, left)
	node.left = left.right
	if left.right != nil {
		left.right.parent = node
	}
	left.right = node
	node.parent = left
}

func (t *redBlackTree[K]) replaceNode(old *redBlackNode[K], new *redBlackNode[K]) {
	if old.parent == nil {
		t.root = new
	} else {
		if old == old.parent.left {
			old.parent.left = new
		} else {
			old.parent.right = new
		}
	}
	if new != nil {
		new.parent = old.parent
	}
}

func (t *redBlackTree[K]) insertCase1(node *redBlackNode[K]) {
	if node.parent == nil {
		node.color = black
	} else {
		t.insertCase2(node)
	}
}

func (t *redBlackTree[K]) insertCase2(node *redBlackNode[K]) {
	if nodeColor(node.parent) == black {
		return
	}
	t.insertCase3(node)
}

func (t *redBlackTree[K]) insertCase3(node *redBlackNode[K]) {
	uncleNode := node.uncle()
	if nodeColor(uncleNode) == red {
		node.parent.color = black
		uncleNode.color = black
		node.grandparent().color = red
		t.insertCase1(node.grandparent())
	} else {
		t.insertCase4(node)
	}
}

func (t *redBlackTree[K]) insertCase4(node *redBlackNode[K]) {
	grandparentNode := node.grandparent()
	if node == node.parent.right && node.parent == grandparentNode.left {
		t.rotateLeft(node.parent)
		node = node.left
	} else if node == node.parent.left && node.parent == grandparentNode.right {
		t.rotateRight(node.parent)
		node = node.right
	}
	t.insertCase5(node)
}

func (t *redBlackTree[K]) insertCase5(node *redBlackNode[K]) {
	node.parent.color = black
	grandparentNode := node.grandparent()
	grandparentNode.color = red
	if node == node.parent.left && node.parent == grandparentNode.left {
		t.rotateRight(grandparentNode)
	} else if node == node.parent.right && node.parent == grandparentNode.right {
		t.rotateLeft(grandparentNode)
	}
}

func (n *redBlackNode[K]) maximumNode() *redBlackNode[K] {
	if n == nil {
		return nil
	}
	curNode := n
	for curNode.right != nil {
		curNode = curNode.right
	}
	return curNode
}

func (t *redBlackTree[K]) deleteCase1(node *redBlackNode[K]) {
	if node.parent == nil {
		return
	}
	t.deleteCase2(node)
}

func (t *redBlackTree[K]) deleteCase2(node *redBlackNode[K]) {
	siblingNode := node.sibling()
	if nodeColor(siblingNode) == red {
		node.parent.color = red
		siblingNode.color = black
		if node == node.parent.left {
			t.rotateLeft(node.parent)
		} else {
			t.rotateRight(node.parent)
		}
	}
	t.deleteCase3(node)
}

func (t *redBlackTree[K]) deleteCase3(node *redBlackNode[K]) {
	siblingNode := node.sibling()
	if nodeColor(node.parent) == black &&
		nodeColor(siblingNode) == black &&
		nodeColor(siblingNode.left) == black &&
		nodeColor(siblingNode.right) == black {
		siblingNode.color = red
		t.deleteCase1(node.parent)
	} else {
		t.deleteCase4(node)
	}
}

func (t *redBlackTree[K]) deleteCase4(node *redBlackNode[K]) {
	siblingNode := node.sibling()
	if nodeColor(node.parent) == red &&
		nodeColor(siblingNode) == black &&
		nodeColor(siblingNode.left) == black &&
		nodeColor(siblingNode.right) == black {
		siblingNode.color = red
		node.parent.color = black
	} else {
		t.deleteCase5(node)
	}
}

func (t *redBlackTree[K]) deleteCase5(node *redBlackNode[K]) {
	siblingNode := node.sibling()
	if node == node.parent.left &&
		nodeColor(siblingNode) == black &&
		nodeColor(siblingNode.left) == red &&
		nodeColor(siblingNode.right) == black {
		siblingNode.color = red
		siblingNode.left.color = black
		t.rotateRight(siblingNode)
	} else if node == node.parent.right &&
		nodeColor(siblingNode) == black &&
		nodeColor(siblingNode.right) == red &&
		nodeColor(siblingNode.left) == black {
		siblingNode.color = red
		siblingNode.right.color = black
		t.rotateLeft(siblingNode)
	}
	t.deleteCase6(node)
}

func (t *redBlackTree[K]) deleteCase6(node *redBlackNode[K]) {
	siblingNode := node.sibling()
	siblingNode.color = nodeColor(node.parent)
	node.parent.color = black
	if node == node.parent.left && nodeColor(siblingNode.right) == red {
		siblingNode.right.color = black
		t.rotateLeft(node.parent)
	} else if nodeColor(siblingNode.left) == red {
		siblingNode.left.color = black
		t.rotateRight(node.parent)
	}
}

func nodeColor[K any](node *redBlackNode[K]) color {
	if node == nil {
		return black
	}
	return node.color
}
